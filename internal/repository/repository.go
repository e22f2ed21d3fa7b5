package repository

import (
	"context"
	"time"

	"rentdesk-backend/internal/domain"
)

type ItemRepository interface {
	Create(ctx context.Context, item *domain.Item) error
	GetByID(ctx context.Context, id int32) (*domain.Item, error)
	GetBySKU(ctx context.Context, sku string) (*domain.Item, error)
	List(ctx context.Context, page, pageSize int32) ([]domain.Item, int32, error)

	// Component graph (composite items)
	AddComponent(ctx context.Context, comp *domain.ItemComponent) error
	RemoveComponent(ctx context.Context, parentID, childID int32) error
	ListComponents(ctx context.Context, parentID int32) ([]domain.ItemComponent, error)
	ListAllComponents(ctx context.Context) ([]domain.ItemComponent, error)
}

type StockMovementRepository interface {
	Create(ctx context.Context, mv *domain.StockMovement) error
	OnHand(ctx context.Context, itemID int32) (int32, error)
	ListByItem(ctx context.Context, itemID int32, page, pageSize int32) ([]domain.StockMovement, int32, error)
	ListByOrder(ctx context.Context, orderID int32, reason domain.MovementReason) ([]domain.StockMovement, error)
}

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id int32) (*domain.Order, error)
	// UpdateStatus persists the order's status guarded by its Version
	// (optimistic concurrency). A lost race returns domain.ErrConflict.
	UpdateStatus(ctx context.Context, order *domain.Order) error
	List(ctx context.Context, status domain.OrderStatus, customerID int32, page, pageSize int32) ([]domain.Order, int32, error)

	AddLine(ctx context.Context, line *domain.OrderLine) error
	GetLine(ctx context.Context, lineID int32) (*domain.OrderLine, error)
	UpdateLine(ctx context.Context, line *domain.OrderLine) error
	DeleteLine(ctx context.Context, lineID int32) error

	// ListCommittedLines returns the lines of all Reserved and CheckedOut
	// orders whose effective window overlaps the half-open interval
	// [start, end), excluding excludeOrderID (0 excludes nothing).
	ListCommittedLines(ctx context.Context, start, end time.Time, excludeOrderID int32) ([]domain.CommittedLine, error)

	// Housekeeping queries for scheduled jobs.
	ListStaleDrafts(ctx context.Context, olderThan time.Time) ([]domain.Order, error)
	ListOverdue(ctx context.Context, asOf time.Time) ([]domain.Order, error)
}

// Store bundles the repositories with a transactional scope. WithinTx runs
// fn against a store whose writes either all commit or all roll back.
type Store interface {
	Items() ItemRepository
	Movements() StockMovementRepository
	Orders() OrderRepository
	WithinTx(ctx context.Context, fn func(Store) error) error
}
