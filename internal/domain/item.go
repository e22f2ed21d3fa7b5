package domain

import "time"

type ItemKind string

const (
	ItemKindAtomic    ItemKind = "ATOMIC"
	ItemKindComposite ItemKind = "COMPOSITE"
	ItemKindService   ItemKind = "SERVICE"
)

// Item is a catalog entry. Atomic items carry physical stock, Composite
// items are bundles of atomic items and have no stock of their own, and
// Service items are time-billed with no stock constraint.
type Item struct {
	ID   int32    `json:"id"`
	SKU  string   `json:"sku"`
	Name string   `json:"name"`
	Kind ItemKind `json:"kind"`
	// Price tiers. A nil tier is "not offered"; pricing fails rather than
	// falling back to zero.
	StartFeeCents   *int32          `json:"start_fee_cents,omitempty"`
	DailyRateCents  *int32          `json:"daily_rate_cents,omitempty"`
	HourlyRateCents *int32          `json:"hourly_rate_cents,omitempty"`
	Components      []ItemComponent `json:"components,omitempty"`
	CreatedOn       time.Time       `json:"created_on"`
}

func (k ItemKind) Valid() bool {
	switch k {
	case ItemKindAtomic, ItemKindComposite, ItemKindService:
		return true
	}
	return false
}

// ItemComponent is one edge of a composite item's bill of materials.
type ItemComponent struct {
	ParentID int32 `json:"parent_id"`
	ChildID  int32 `json:"child_id"`
	Quantity int32 `json:"quantity"`
}

// ResolvedComponent is a flattened bill-of-materials entry: renting one unit
// of the composite consumes Multiplier units of the atomic item.
type ResolvedComponent struct {
	ItemID     int32 `json:"item_id"`
	Multiplier int32 `json:"multiplier"`
}

// Availability is the answer to "how many units are free for a new
// commitment in a window". Service items report Unbounded; callers must not
// treat Quantity as meaningful when Unbounded is set.
type Availability struct {
	ItemID    int32 `json:"item_id"`
	Quantity  int32 `json:"quantity"`
	Unbounded bool  `json:"unbounded"`
}
