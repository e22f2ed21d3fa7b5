package domain

import "time"

type OrderStatus string

const (
	OrderStatusDraft      OrderStatus = "DRAFT"
	OrderStatusReserved   OrderStatus = "RESERVED"
	OrderStatusCheckedOut OrderStatus = "CHECKED_OUT"
	OrderStatusReturned   OrderStatus = "RETURNED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// orderTransitions is the closed transition table. Returned and Cancelled
// are terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusDraft:      {OrderStatusReserved, OrderStatusCancelled},
	OrderStatusReserved:   {OrderStatusCheckedOut, OrderStatusCancelled},
	OrderStatusCheckedOut: {OrderStatusReturned},
}

// CanTransition reports whether moving from s to target is a legal
// lifecycle step.
func (s OrderStatus) CanTransition(target OrderStatus) bool {
	for _, t := range orderTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Committed reports whether orders in this status hold availability against
// overlapping windows.
func (s OrderStatus) Committed() bool {
	return s == OrderStatusReserved || s == OrderStatusCheckedOut
}

type Order struct {
	ID            int32       `json:"id"`
	CustomerID    int32       `json:"customer_id"`
	SalesPersonID int32       `json:"sales_person_id"`
	Status        OrderStatus `json:"status"`
	StartDate     time.Time   `json:"start_date"`
	DueDate       time.Time   `json:"due_date"`
	// Optional extended window: setup_start <= start_date and
	// cleanup_end >= due_date. Availability accounting uses the widest
	// bounds so crews setting up or tearing down still hold the stock.
	SetupStart *time.Time  `json:"setup_start,omitempty"`
	CleanupEnd *time.Time  `json:"cleanup_end,omitempty"`
	Version    int32       `json:"version"`
	Lines      []OrderLine `json:"lines,omitempty"`
	CreatedOn  time.Time   `json:"created_on"`
	UpdatedOn  time.Time   `json:"updated_on"`
}

// EffectiveWindow returns the half-open interval during which the order
// holds its items.
func (o *Order) EffectiveWindow() (time.Time, time.Time) {
	start, end := o.StartDate, o.DueDate
	if o.SetupStart != nil && o.SetupStart.Before(start) {
		start = *o.SetupStart
	}
	if o.CleanupEnd != nil && o.CleanupEnd.After(end) {
		end = *o.CleanupEnd
	}
	return start, end
}

// OrderLine captures a priced claim on one item. Prices are snapshots taken
// when the line is added; later catalog price edits do not move them.
type OrderLine struct {
	ID      int32 `json:"id"`
	OrderID int32 `json:"order_id"`
	ItemID  int32 `json:"item_id"`

	Quantity int32 `json:"quantity"`
	// PricePerDayCents holds the hourly rate snapshot for service lines.
	PricePerDayCents int32 `json:"price_per_day_cents"`
	StartFeeCents    int32 `json:"start_fee_cents"`
	RentalDays       int32 `json:"rental_days"`
	// Hours is set only for service lines; service billing ignores
	// RentalDays.
	Hours          int32 `json:"hours,omitempty"`
	LineTotalCents int32 `json:"line_total_cents"`
}

// CommittedLine is a projection used by the availability calculator: one
// line of a Reserved or CheckedOut order whose window overlaps the queried
// one.
type CommittedLine struct {
	ItemID   int32
	Quantity int32
}
