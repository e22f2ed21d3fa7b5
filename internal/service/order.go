package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository"
	"rentdesk-backend/internal/utils"
)

// maxCommitAttempts bounds the internal retries after a lost optimistic
// commit race before ErrConflict is surfaced to the caller.
const maxCommitAttempts = 3

// errStaleLockSet aborts a transaction whose item locks were derived from a
// line set that changed before the locks were held. The retry re-derives the
// set from the current lines, so the wider set is covered on the next pass.
var errStaleLockSet = errors.New("item lock set is stale")

type orderService struct {
	store repository.Store
	locks *ItemLocker
}

func NewOrderService(store repository.Store, locks *ItemLocker) OrderService {
	return &orderService{store: store, locks: locks}
}

func (s *orderService) CreateOrder(ctx context.Context, order *domain.Order) error {
	if order.CustomerID < 1 || order.SalesPersonID < 1 {
		return domain.NewValidationError("customer and sales person are required")
	}
	if !order.StartDate.Before(order.DueDate) {
		return domain.NewValidationError("return due date must be after start date")
	}
	if order.SetupStart != nil && order.SetupStart.After(order.StartDate) {
		return domain.NewValidationError("setup start must not be after start date")
	}
	if order.CleanupEnd != nil && order.CleanupEnd.Before(order.DueDate) {
		return domain.NewValidationError("cleanup end must not be before due date")
	}
	order.Status = domain.OrderStatusDraft
	order.Lines = nil
	return s.store.Orders().Create(ctx, order)
}

func (s *orderService) GetOrder(ctx context.Context, id int32) (*domain.Order, error) {
	return s.store.Orders().GetByID(ctx, id)
}

func (s *orderService) ListOrders(ctx context.Context, status domain.OrderStatus, customerID int32, page, pageSize int32) ([]domain.Order, int32, error) {
	if status != "" {
		switch status {
		case domain.OrderStatusDraft, domain.OrderStatusReserved, domain.OrderStatusCheckedOut,
			domain.OrderStatusReturned, domain.OrderStatusCancelled:
		default:
			return nil, 0, domain.NewValidationError("unknown order status %q", status)
		}
	}
	return s.store.Orders().List(ctx, status, customerID, page, pageSize)
}

// AddLine appends a priced line to a draft order. The availability check
// covers the order's own accumulated demand for every atomic item the new
// line touches, with the order itself excluded from the committed set.
func (s *orderService) AddLine(ctx context.Context, orderID, itemID, quantity, hours int32) (*domain.OrderLine, error) {
	item, err := s.store.Items().GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.Kind != domain.ItemKindService && hours != 0 {
		return nil, domain.NewValidationError("hours only apply to service items")
	}

	var added *domain.OrderLine
	err = s.mutateDraft(ctx, orderID, "adding a line", func(tx repository.Store, order *domain.Order) error {
		days := utils.RentalDays(order.StartDate, order.DueDate)
		cost, err := utils.CalculateLineCost(item, quantity, days, hours)
		if err != nil {
			return err
		}
		line := &domain.OrderLine{
			OrderID:          orderID,
			ItemID:           itemID,
			Quantity:         quantity,
			PricePerDayCents: cost.UnitRateCents,
			StartFeeCents:    cost.StartFeeCents,
			RentalDays:       days,
			Hours:            hours,
			LineTotalCents:   cost.TotalCents,
		}

		lines := append(append([]domain.OrderLine(nil), order.Lines...), *line)
		if err := s.checkAvailability(ctx, tx, order, lines); err != nil {
			return err
		}
		if err := tx.Orders().AddLine(ctx, line); err != nil {
			return err
		}
		added = line
		return nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

func (s *orderService) EditLine(ctx context.Context, orderID, lineID int32, quantity, pricePerDayCents *int32) (*domain.OrderLine, error) {
	if quantity == nil && pricePerDayCents == nil {
		return nil, domain.NewValidationError("nothing to update")
	}
	if pricePerDayCents != nil && *pricePerDayCents < 0 {
		return nil, domain.NewValidationError("price must not be negative")
	}

	var edited *domain.OrderLine
	err := s.mutateDraft(ctx, orderID, "editing a line", func(tx repository.Store, order *domain.Order) error {
		line, err := tx.Orders().GetLine(ctx, lineID)
		if err != nil {
			return err
		}
		if line.OrderID != orderID {
			return domain.NewNotFoundError("order line", lineID)
		}

		if quantity != nil {
			if *quantity < 1 {
				return domain.NewValidationError("quantity must be at least 1, got %d", *quantity)
			}
			line.Quantity = *quantity
		}
		if pricePerDayCents != nil {
			line.PricePerDayCents = *pricePerDayCents
		}
		line.LineTotalCents = lineTotal(line)

		lines := make([]domain.OrderLine, 0, len(order.Lines))
		for _, l := range order.Lines {
			if l.ID == lineID {
				lines = append(lines, *line)
			} else {
				lines = append(lines, l)
			}
		}
		if err := s.checkAvailability(ctx, tx, order, lines); err != nil {
			return err
		}
		if err := tx.Orders().UpdateLine(ctx, line); err != nil {
			return err
		}
		edited = line
		return nil
	})
	if err != nil {
		return nil, err
	}
	return edited, nil
}

func (s *orderService) RemoveLine(ctx context.Context, orderID, lineID int32) error {
	return s.mutateDraft(ctx, orderID, "removing a line", func(tx repository.Store, order *domain.Order) error {
		line, err := tx.Orders().GetLine(ctx, lineID)
		if err != nil {
			return err
		}
		if line.OrderID != orderID {
			return domain.NewNotFoundError("order line", lineID)
		}
		return tx.Orders().DeleteLine(ctx, lineID)
	})
}

// Reserve places a soft hold: every line must clear availability, and no
// ledger entry is written.
func (s *orderService) Reserve(ctx context.Context, orderID int32) (*domain.Order, error) {
	return s.transition(ctx, orderID, domain.OrderStatusReserved, func(tx repository.Store, order *domain.Order) error {
		return s.checkAvailability(ctx, tx, order, order.Lines)
	})
}

// Checkout re-validates every line (stock may have been lost to Adjustment
// or Loss since Reserve) and writes the negative Checkout movements for the
// exploded atomic demand, all inside the same transaction as the status
// flip.
func (s *orderService) Checkout(ctx context.Context, orderID int32) (*domain.Order, error) {
	return s.transition(ctx, orderID, domain.OrderStatusCheckedOut, func(tx repository.Store, order *domain.Order) error {
		if err := s.checkAvailability(ctx, tx, order, order.Lines); err != nil {
			return err
		}
		demand, err := lineAtomicDemand(ctx, tx, order.Lines)
		if err != nil {
			return err
		}
		for _, itemID := range sortedKeys(demand) {
			mv := &domain.StockMovement{
				ItemID:    itemID,
				Delta:     -demand[itemID],
				Reason:    domain.MovementReasonCheckout,
				Notes:     fmt.Sprintf("checkout of order %d", order.ID),
				CreatedBy: lifecycleActor(order),
				OrderID:   &order.ID,
			}
			if err := tx.Movements().Create(ctx, mv); err != nil {
				return err
			}
		}
		return nil
	})
}

// Return reverses exactly what Checkout removed by replaying the recorded
// Checkout movements, not by re-exploding the lines — component edits made
// after checkout cannot skew the restitution.
func (s *orderService) Return(ctx context.Context, orderID int32) (*domain.Order, error) {
	return s.transition(ctx, orderID, domain.OrderStatusReturned, func(tx repository.Store, order *domain.Order) error {
		checkouts, err := tx.Movements().ListByOrder(ctx, order.ID, domain.MovementReasonCheckout)
		if err != nil {
			return err
		}
		for _, mv := range checkouts {
			reversal := &domain.StockMovement{
				ItemID:    mv.ItemID,
				Delta:     -mv.Delta,
				Reason:    domain.MovementReasonReturn,
				Notes:     fmt.Sprintf("return of order %d", order.ID),
				CreatedBy: lifecycleActor(order),
				OrderID:   &order.ID,
			}
			if err := tx.Movements().Create(ctx, reversal); err != nil {
				return err
			}
		}
		return nil
	})
}

// Cancel releases a draft or reserved order. Holds are check-time only, so
// no ledger compensation is needed.
func (s *orderService) Cancel(ctx context.Context, orderID int32) (*domain.Order, error) {
	return s.transition(ctx, orderID, domain.OrderStatusCancelled, nil)
}

// transition drives one lifecycle step: lock the touched atomic items in
// ascending id order, re-read the order inside the transaction, run the
// precondition checks and side effects, and flip the status guarded by the
// version column. A lost commit race retries the whole check-and-commit.
// The lock set is verified against the re-read lines before any check runs,
// so a line committed between the first read and lock acquisition cannot be
// validated without its item's lock held.
func (s *orderService) transition(ctx context.Context, orderID int32, target domain.OrderStatus, effects func(repository.Store, *domain.Order) error) (*domain.Order, error) {
	for attempt := 0; attempt < maxCommitAttempts; attempt++ {
		order, err := s.store.Orders().GetByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if !order.Status.CanTransition(target) {
			return nil, &domain.InvalidStateTransitionError{From: order.Status, To: target}
		}

		ids, err := touchedAtomicIDs(ctx, s.store, order.Lines)
		if err != nil {
			return nil, err
		}
		release := s.locks.acquire(ids)

		var result *domain.Order
		err = s.store.WithinTx(ctx, func(tx repository.Store) error {
			fresh, err := tx.Orders().GetByID(ctx, orderID)
			if err != nil {
				return err
			}
			if !fresh.Status.CanTransition(target) {
				return &domain.InvalidStateTransitionError{From: fresh.Status, To: target}
			}
			freshIDs, err := touchedAtomicIDs(ctx, tx, fresh.Lines)
			if err != nil {
				return err
			}
			if !lockSetCovers(ids, freshIDs) {
				return errStaleLockSet
			}
			if effects != nil {
				if err := effects(tx, fresh); err != nil {
					return err
				}
			}
			fresh.Status = target
			if err := tx.Orders().UpdateStatus(ctx, fresh); err != nil {
				return err
			}
			result = fresh
			return nil
		})
		release()

		if errors.Is(err, domain.ErrConflict) || errors.Is(err, errStaleLockSet) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, domain.ErrConflict
}

// mutateDraft runs a line mutation under the same locking and retry regime
// as a transition. The status update with an unchanged status bumps the
// order version, so a concurrent Reserve cannot commit against a line set
// it never validated.
func (s *orderService) mutateDraft(ctx context.Context, orderID int32, op string, fn func(repository.Store, *domain.Order) error) error {
	for attempt := 0; attempt < maxCommitAttempts; attempt++ {
		order, err := s.store.Orders().GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status != domain.OrderStatusDraft {
			return &domain.InvalidStateTransitionError{From: order.Status, Op: op}
		}

		ids, err := touchedAtomicIDs(ctx, s.store, order.Lines)
		if err != nil {
			return err
		}
		release := s.locks.acquire(ids)

		err = s.store.WithinTx(ctx, func(tx repository.Store) error {
			fresh, err := tx.Orders().GetByID(ctx, orderID)
			if err != nil {
				return err
			}
			if fresh.Status != domain.OrderStatusDraft {
				return &domain.InvalidStateTransitionError{From: fresh.Status, Op: op}
			}
			freshIDs, err := touchedAtomicIDs(ctx, tx, fresh.Lines)
			if err != nil {
				return err
			}
			if !lockSetCovers(ids, freshIDs) {
				return errStaleLockSet
			}
			if err := fn(tx, fresh); err != nil {
				return err
			}
			return tx.Orders().UpdateStatus(ctx, fresh)
		})
		release()

		if errors.Is(err, domain.ErrConflict) || errors.Is(err, errStaleLockSet) {
			continue
		}
		return err
	}
	return domain.ErrConflict
}

// checkAvailability verifies that every atomic item the given lines draw on
// can cover the order's demand within its effective window. All shortfalls
// are collected before failing so the caller sees the complete picture.
func (s *orderService) checkAvailability(ctx context.Context, tx repository.Store, order *domain.Order, lines []domain.OrderLine) error {
	demand, err := lineAtomicDemand(ctx, tx, lines)
	if err != nil {
		return err
	}
	if len(demand) == 0 {
		return nil
	}

	start, end := order.EffectiveWindow()
	committed, err := committedAtomicDemand(ctx, tx, start, end, order.ID)
	if err != nil {
		return err
	}

	var shortfalls []domain.Shortfall
	for _, itemID := range sortedKeys(demand) {
		free, err := atomicAvailability(ctx, tx, itemID, committed)
		if err != nil {
			return err
		}
		if demand[itemID] > free {
			shortfalls = append(shortfalls, domain.Shortfall{
				ItemID:    itemID,
				Requested: demand[itemID],
				Available: free,
			})
		}
	}
	if len(shortfalls) > 0 {
		return &domain.InsufficientAvailabilityError{Shortfalls: shortfalls}
	}
	return nil
}

// lineAtomicDemand explodes an order's lines into per-atomic-item unit
// demand. Composite lines multiply through their resolved components;
// service lines contribute nothing.
func lineAtomicDemand(ctx context.Context, store repository.Store, lines []domain.OrderLine) (map[int32]int32, error) {
	demand := make(map[int32]int32)
	for _, line := range lines {
		item, err := store.Items().GetByID(ctx, line.ItemID)
		if err != nil {
			return nil, err
		}
		switch item.Kind {
		case domain.ItemKindAtomic:
			demand[line.ItemID] += line.Quantity
		case domain.ItemKindComposite:
			resolved, err := resolveComponents(ctx, store.Items(), line.ItemID)
			if err != nil {
				return nil, err
			}
			for _, rc := range resolved {
				demand[rc.ItemID] += line.Quantity * rc.Multiplier
			}
		case domain.ItemKindService:
		}
	}
	return demand, nil
}

func touchedAtomicIDs(ctx context.Context, store repository.Store, lines []domain.OrderLine) ([]int32, error) {
	demand, err := lineAtomicDemand(ctx, store, lines)
	if err != nil {
		return nil, err
	}
	return sortedKeys(demand), nil
}

// lockSetCovers reports whether every id in needed is present in held. Both
// slices are sorted ascending.
func lockSetCovers(held, needed []int32) bool {
	i := 0
	for _, id := range needed {
		for i < len(held) && held[i] < id {
			i++
		}
		if i == len(held) || held[i] != id {
			return false
		}
	}
	return true
}

func sortedKeys(m map[int32]int32) []int32 {
	keys := make([]int32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func lineTotal(line *domain.OrderLine) int32 {
	if line.Hours > 0 {
		return line.Quantity*line.PricePerDayCents*line.Hours + line.StartFeeCents
	}
	return line.Quantity*line.PricePerDayCents*line.RentalDays + line.StartFeeCents
}

func lifecycleActor(order *domain.Order) string {
	return fmt.Sprintf("salesperson:%d", order.SalesPersonID)
}
