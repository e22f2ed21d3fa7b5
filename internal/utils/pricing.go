package utils

import (
	"time"

	"rentdesk-backend/internal/domain"
)

// LineCost is a priced order line: the unit rate snapshot, the one-time
// start fee, and the resulting total.
type LineCost struct {
	UnitRateCents int32
	StartFeeCents int32
	TotalCents    int32
}

// RentalDays derives the billable day count from a half-open rental window:
// the number of whole days covered by [start, due), rounded up, minimum 1.
func RentalDays(start, due time.Time) int32 {
	if !start.Before(due) {
		return 0
	}
	const day = 24 * time.Hour
	d := due.Sub(start)
	days := int32(d / day)
	if d%day > 0 {
		days++
	}
	if days < 1 {
		days = 1
	}
	return days
}

// CalculateLineCost prices quantity units of an item. Atomic and composite
// items bill the daily rate per day plus an optional start fee charged once
// per line. Service items bill the hourly rate against an explicit hour
// count; rentalDays does not apply to them. A missing required tier is a
// validation error, never a silent zero.
func CalculateLineCost(item *domain.Item, quantity, rentalDays, hours int32) (LineCost, error) {
	if quantity < 1 {
		return LineCost{}, domain.NewValidationError("quantity must be at least 1, got %d", quantity)
	}

	switch item.Kind {
	case domain.ItemKindAtomic, domain.ItemKindComposite:
		if item.DailyRateCents == nil {
			return LineCost{}, domain.NewValidationError("item %d has no daily rate", item.ID)
		}
		if rentalDays < 1 {
			return LineCost{}, domain.NewValidationError("rental days must be at least 1, got %d", rentalDays)
		}
		cost := LineCost{UnitRateCents: *item.DailyRateCents}
		if item.StartFeeCents != nil {
			cost.StartFeeCents = *item.StartFeeCents
		}
		cost.TotalCents = quantity**item.DailyRateCents*rentalDays + cost.StartFeeCents
		return cost, nil

	case domain.ItemKindService:
		if item.HourlyRateCents == nil {
			return LineCost{}, domain.NewValidationError("item %d has no hourly rate", item.ID)
		}
		if hours < 1 {
			return LineCost{}, domain.NewValidationError("service lines require an hour count, got %d", hours)
		}
		return LineCost{
			UnitRateCents: *item.HourlyRateCents,
			TotalCents:    quantity * *item.HourlyRateCents * hours,
		}, nil

	default:
		return LineCost{}, domain.NewValidationError("unknown item kind %q", item.Kind)
	}
}
