package domain

import "time"

type MovementReason string

const (
	MovementReasonAdjustment MovementReason = "ADJUSTMENT"
	MovementReasonRepair     MovementReason = "REPAIR"
	MovementReasonLoss       MovementReason = "LOSS"
	MovementReasonFound      MovementReason = "FOUND"
	MovementReasonCheckout   MovementReason = "CHECKOUT"
	MovementReasonReturn     MovementReason = "RETURN"
)

func (r MovementReason) Valid() bool {
	switch r {
	case MovementReasonAdjustment, MovementReasonRepair, MovementReasonLoss,
		MovementReasonFound, MovementReasonCheckout, MovementReasonReturn:
		return true
	}
	return false
}

// Lifecycle reports whether the reason is reserved to the order lifecycle
// manager. Manual adjustments may not use these reasons.
func (r MovementReason) Lifecycle() bool {
	return r == MovementReasonCheckout || r == MovementReasonReturn
}

// StockMovement is one immutable entry of the append-only stock ledger.
// On-hand quantity for an atomic item is the running sum of its deltas.
type StockMovement struct {
	ID        int32          `json:"id"`
	ItemID    int32          `json:"item_id"`
	Delta     int32          `json:"delta"`
	Reason    MovementReason `json:"reason"`
	Notes     string         `json:"notes"`
	CreatedBy string         `json:"created_by"`
	OrderID   *int32         `json:"order_id,omitempty"`
	CreatedOn time.Time      `json:"created_on"`
}
