package service

import (
	"context"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository"
)

type availabilityService struct {
	store repository.Store
}

func NewAvailabilityService(store repository.Store) AvailabilityService {
	return &availabilityService{store: store}
}

func (s *availabilityService) Availability(ctx context.Context, itemID int32, start, end time.Time, excludeOrderID int32) (*domain.Availability, error) {
	return availability(ctx, s.store, itemID, start, end, excludeOrderID)
}

// availability answers the free-quantity question for one item. The helpers
// below are shared with the order lifecycle manager, which runs the same math
// inside its own transactional scope.
func availability(ctx context.Context, store repository.Store, itemID int32, start, end time.Time, excludeOrderID int32) (*domain.Availability, error) {
	if !start.Before(end) {
		return nil, domain.NewValidationError("window end must be after start")
	}

	item, err := store.Items().GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	switch item.Kind {
	case domain.ItemKindService:
		// No stock constraint; callers must not subtract from this.
		return &domain.Availability{ItemID: itemID, Unbounded: true}, nil

	case domain.ItemKindAtomic:
		committed, err := committedAtomicDemand(ctx, store, start, end, excludeOrderID)
		if err != nil {
			return nil, err
		}
		qty, err := atomicAvailability(ctx, store, itemID, committed)
		if err != nil {
			return nil, err
		}
		return &domain.Availability{ItemID: itemID, Quantity: qty}, nil

	case domain.ItemKindComposite:
		resolved, err := resolveComponents(ctx, store.Items(), itemID)
		if err != nil {
			return nil, err
		}
		committed, err := committedAtomicDemand(ctx, store, start, end, excludeOrderID)
		if err != nil {
			return nil, err
		}
		// The composite's availability is bound by its scarcest component:
		// min over components of floor(atomic availability / multiplier).
		var min int32 = -1
		for _, rc := range resolved {
			free, err := atomicAvailability(ctx, store, rc.ItemID, committed)
			if err != nil {
				return nil, err
			}
			bundles := free / rc.Multiplier
			if min < 0 || bundles < min {
				min = bundles
			}
		}
		if min < 0 {
			min = 0
		}
		return &domain.Availability{ItemID: itemID, Quantity: min}, nil

	default:
		return nil, domain.NewValidationError("unknown item kind %q", item.Kind)
	}
}

// atomicAvailability is on-hand stock minus the committed demand for one
// atomic item, floored at zero (stock lost to Adjustment or Loss can push
// the raw difference negative).
func atomicAvailability(ctx context.Context, store repository.Store, itemID int32, committed map[int32]int32) (int32, error) {
	onHand, err := store.Movements().OnHand(ctx, itemID)
	if err != nil {
		return 0, err
	}
	free := onHand - committed[itemID]
	if free < 0 {
		free = 0
	}
	return free, nil
}

// committedAtomicDemand sums, per atomic item, the quantities held by every
// Reserved or CheckedOut order overlapping the window. Composite lines are
// exploded through their resolved components before any availability math
// runs, so bundle consumption is charged against each atom it draws from.
func committedAtomicDemand(ctx context.Context, store repository.Store, start, end time.Time, excludeOrderID int32) (map[int32]int32, error) {
	lines, err := store.Orders().ListCommittedLines(ctx, start, end, excludeOrderID)
	if err != nil {
		return nil, err
	}

	demand := make(map[int32]int32)
	kinds := make(map[int32]domain.ItemKind)
	resolvedCache := make(map[int32][]domain.ResolvedComponent)

	for _, line := range lines {
		kind, ok := kinds[line.ItemID]
		if !ok {
			item, err := store.Items().GetByID(ctx, line.ItemID)
			if err != nil {
				return nil, err
			}
			kind = item.Kind
			kinds[line.ItemID] = kind
		}

		switch kind {
		case domain.ItemKindAtomic:
			demand[line.ItemID] += line.Quantity
		case domain.ItemKindComposite:
			resolved, ok := resolvedCache[line.ItemID]
			if !ok {
				var err error
				resolved, err = resolveComponents(ctx, store.Items(), line.ItemID)
				if err != nil {
					return nil, err
				}
				resolvedCache[line.ItemID] = resolved
			}
			for _, rc := range resolved {
				demand[rc.ItemID] += line.Quantity * rc.Multiplier
			}
		case domain.ItemKindService:
			// Services hold no stock.
		}
	}
	return demand, nil
}
