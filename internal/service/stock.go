package service

import (
	"context"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository"
)

type stockService struct {
	store repository.Store
	locks *ItemLocker
}

func NewStockService(store repository.Store, locks *ItemLocker) StockService {
	return &stockService{store: store, locks: locks}
}

func (s *stockService) OnHand(ctx context.Context, itemID int32) (int32, error) {
	if _, err := s.atomicItem(ctx, itemID); err != nil {
		return 0, err
	}
	return s.store.Movements().OnHand(ctx, itemID)
}

// AdjustStock applies a manual ledger movement. Checkout and Return reasons
// are reserved to the order lifecycle and rejected here.
func (s *stockService) AdjustStock(ctx context.Context, itemID, delta int32, reason domain.MovementReason, actor, notes string) (*domain.StockMovement, error) {
	if !reason.Valid() {
		return nil, domain.NewValidationError("unknown movement reason %q", reason)
	}
	if reason.Lifecycle() {
		return nil, domain.NewValidationError("reason %s is reserved to the order lifecycle", reason)
	}
	if delta == 0 {
		return nil, domain.NewValidationError("adjustment delta must not be zero")
	}
	if actor == "" {
		return nil, domain.NewValidationError("actor is required")
	}
	if _, err := s.atomicItem(ctx, itemID); err != nil {
		return nil, err
	}

	release := s.locks.acquire([]int32{itemID})
	defer release()

	mv := &domain.StockMovement{
		ItemID:    itemID,
		Delta:     delta,
		Reason:    reason,
		Notes:     notes,
		CreatedBy: actor,
	}
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		onHand, err := tx.Movements().OnHand(ctx, itemID)
		if err != nil {
			return err
		}
		if onHand+delta < 0 {
			return &domain.InsufficientStockError{ItemID: itemID, OnHand: onHand, Delta: delta}
		}
		return tx.Movements().Create(ctx, mv)
	})
	if err != nil {
		return nil, err
	}
	return mv, nil
}

// SetStock writes the movement that brings the item's on-hand quantity to
// exactly target. A zero delta still produces a ledger entry so the count
// was visibly verified.
func (s *stockService) SetStock(ctx context.Context, itemID, target int32, actor, notes string) (*domain.StockMovement, error) {
	if target < 0 {
		return nil, domain.NewValidationError("target quantity must not be negative, got %d", target)
	}
	if actor == "" {
		return nil, domain.NewValidationError("actor is required")
	}
	if _, err := s.atomicItem(ctx, itemID); err != nil {
		return nil, err
	}

	release := s.locks.acquire([]int32{itemID})
	defer release()

	mv := &domain.StockMovement{
		ItemID:    itemID,
		Reason:    domain.MovementReasonAdjustment,
		Notes:     notes,
		CreatedBy: actor,
	}
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		onHand, err := tx.Movements().OnHand(ctx, itemID)
		if err != nil {
			return err
		}
		mv.Delta = target - onHand
		return tx.Movements().Create(ctx, mv)
	})
	if err != nil {
		return nil, err
	}
	return mv, nil
}

func (s *stockService) ListMovements(ctx context.Context, itemID int32, page, pageSize int32) ([]domain.StockMovement, int32, error) {
	if _, err := s.atomicItem(ctx, itemID); err != nil {
		return nil, 0, err
	}
	return s.store.Movements().ListByItem(ctx, itemID, page, pageSize)
}

// atomicItem loads the item and confirms it carries stock at all: only
// atomic items have a ledger.
func (s *stockService) atomicItem(ctx context.Context, itemID int32) (*domain.Item, error) {
	item, err := s.store.Items().GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.Kind != domain.ItemKindAtomic {
		return nil, domain.NewValidationError("item %d is %s; only atomic items carry stock", itemID, item.Kind)
	}
	return item, nil
}
