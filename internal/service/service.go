package service

import (
	"context"
	"time"

	"rentdesk-backend/internal/domain"
)

type CatalogService interface {
	CreateItem(ctx context.Context, item *domain.Item) error
	GetItem(ctx context.Context, id int32) (*domain.Item, error)
	ListItems(ctx context.Context, page, pageSize int32) ([]domain.Item, int32, error)
	ResolveComponents(ctx context.Context, compositeID int32) ([]domain.ResolvedComponent, error)
	AddComponent(ctx context.Context, parentID, childID, quantity int32) error
	RemoveComponent(ctx context.Context, parentID, childID int32) error
}

type StockService interface {
	OnHand(ctx context.Context, itemID int32) (int32, error)
	AdjustStock(ctx context.Context, itemID, delta int32, reason domain.MovementReason, actor, notes string) (*domain.StockMovement, error)
	SetStock(ctx context.Context, itemID, target int32, actor, notes string) (*domain.StockMovement, error)
	ListMovements(ctx context.Context, itemID int32, page, pageSize int32) ([]domain.StockMovement, int32, error)
}

type AvailabilityService interface {
	// Availability reports how many units of the item are free for a new
	// commitment over [start, end). excludeOrderID (0 for none) removes
	// that order's own holds from the committed set.
	Availability(ctx context.Context, itemID int32, start, end time.Time, excludeOrderID int32) (*domain.Availability, error)
}

type OrderService interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrder(ctx context.Context, id int32) (*domain.Order, error)
	ListOrders(ctx context.Context, status domain.OrderStatus, customerID int32, page, pageSize int32) ([]domain.Order, int32, error)

	AddLine(ctx context.Context, orderID, itemID, quantity, hours int32) (*domain.OrderLine, error)
	EditLine(ctx context.Context, orderID, lineID int32, quantity, pricePerDayCents *int32) (*domain.OrderLine, error)
	RemoveLine(ctx context.Context, orderID, lineID int32) error

	Reserve(ctx context.Context, orderID int32) (*domain.Order, error)
	Checkout(ctx context.Context, orderID int32) (*domain.Order, error)
	Return(ctx context.Context, orderID int32) (*domain.Order, error)
	Cancel(ctx context.Context, orderID int32) (*domain.Order, error)
}
