package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConflict signals a lost optimistic-concurrency race. Callers retry the
// full check-and-commit a bounded number of times before surfacing it.
var ErrConflict = errors.New("concurrent modification conflict")

// ValidationError rejects malformed input: bad windows, non-positive
// quantities, missing price tiers, unknown enum values.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an unknown item, order or line id.
type NotFoundError struct {
	Resource string
	ID       int32
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

func NewNotFoundError(resource string, id int32) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// Shortfall names one item that cannot cover a requested quantity.
type Shortfall struct {
	ItemID    int32 `json:"item_id"`
	Requested int32 `json:"requested"`
	Available int32 `json:"available"`
}

// InsufficientAvailabilityError aborts a reserve or checkout. It lists every
// short item, not just the first one found.
type InsufficientAvailabilityError struct {
	Shortfalls []Shortfall
}

func (e *InsufficientAvailabilityError) Error() string {
	parts := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		parts = append(parts, fmt.Sprintf("item %d: requested %d, available %d", s.ItemID, s.Requested, s.Available))
	}
	return "insufficient availability: " + strings.Join(parts, "; ")
}

// InvalidStateTransitionError rejects a lifecycle step outside the
// transition table, or a line mutation on a non-draft order (Op is set for
// the latter).
type InvalidStateTransitionError struct {
	From OrderStatus
	To   OrderStatus
	Op   string
}

func (e *InvalidStateTransitionError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s not allowed while order is %s", e.Op, e.From)
	}
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}

// CycleError rejects a component edge that would make the composite graph
// cyclic, or that targets a non-atomic child.
type CycleError struct {
	ParentID int32
	ChildID  int32
	Reason   string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("component edge %d -> %d rejected: %s", e.ParentID, e.ChildID, e.Reason)
}

// InsufficientStockError rejects a ledger movement that would drive an
// item's on-hand quantity negative.
type InsufficientStockError struct {
	ItemID int32
	OnHand int32
	Delta  int32
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %d: on hand %d, delta %d", e.ItemID, e.OnHand, e.Delta)
}
