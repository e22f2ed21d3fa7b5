package http

import (
	"context"
	"time"

	"rentdesk-backend/internal/domain"

	"github.com/stretchr/testify/mock"
)

type mockCatalogService struct {
	mock.Mock
}

func (m *mockCatalogService) CreateItem(ctx context.Context, item *domain.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *mockCatalogService) GetItem(ctx context.Context, id int32) (*domain.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Item), args.Error(1)
}

func (m *mockCatalogService) ListItems(ctx context.Context, page, pageSize int32) ([]domain.Item, int32, error) {
	args := m.Called(ctx, page, pageSize)
	items, _ := args.Get(0).([]domain.Item)
	return items, args.Get(1).(int32), args.Error(2)
}

func (m *mockCatalogService) ResolveComponents(ctx context.Context, compositeID int32) ([]domain.ResolvedComponent, error) {
	args := m.Called(ctx, compositeID)
	resolved, _ := args.Get(0).([]domain.ResolvedComponent)
	return resolved, args.Error(1)
}

func (m *mockCatalogService) AddComponent(ctx context.Context, parentID, childID, quantity int32) error {
	args := m.Called(ctx, parentID, childID, quantity)
	return args.Error(0)
}

func (m *mockCatalogService) RemoveComponent(ctx context.Context, parentID, childID int32) error {
	args := m.Called(ctx, parentID, childID)
	return args.Error(0)
}

type mockStockService struct {
	mock.Mock
}

func (m *mockStockService) OnHand(ctx context.Context, itemID int32) (int32, error) {
	args := m.Called(ctx, itemID)
	return args.Get(0).(int32), args.Error(1)
}

func (m *mockStockService) AdjustStock(ctx context.Context, itemID, delta int32, reason domain.MovementReason, actor, notes string) (*domain.StockMovement, error) {
	args := m.Called(ctx, itemID, delta, reason, actor, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StockMovement), args.Error(1)
}

func (m *mockStockService) SetStock(ctx context.Context, itemID, target int32, actor, notes string) (*domain.StockMovement, error) {
	args := m.Called(ctx, itemID, target, actor, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StockMovement), args.Error(1)
}

func (m *mockStockService) ListMovements(ctx context.Context, itemID int32, page, pageSize int32) ([]domain.StockMovement, int32, error) {
	args := m.Called(ctx, itemID, page, pageSize)
	movements, _ := args.Get(0).([]domain.StockMovement)
	return movements, args.Get(1).(int32), args.Error(2)
}

type mockAvailabilityService struct {
	mock.Mock
}

func (m *mockAvailabilityService) Availability(ctx context.Context, itemID int32, start, end time.Time, excludeOrderID int32) (*domain.Availability, error) {
	args := m.Called(ctx, itemID, start, end, excludeOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Availability), args.Error(1)
}

type mockOrderService struct {
	mock.Mock
}

func (m *mockOrderService) CreateOrder(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderService) GetOrder(ctx context.Context, id int32) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderService) ListOrders(ctx context.Context, status domain.OrderStatus, customerID int32, page, pageSize int32) ([]domain.Order, int32, error) {
	args := m.Called(ctx, status, customerID, page, pageSize)
	orders, _ := args.Get(0).([]domain.Order)
	return orders, args.Get(1).(int32), args.Error(2)
}

func (m *mockOrderService) AddLine(ctx context.Context, orderID, itemID, quantity, hours int32) (*domain.OrderLine, error) {
	args := m.Called(ctx, orderID, itemID, quantity, hours)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderLine), args.Error(1)
}

func (m *mockOrderService) EditLine(ctx context.Context, orderID, lineID int32, quantity, pricePerDayCents *int32) (*domain.OrderLine, error) {
	args := m.Called(ctx, orderID, lineID, quantity, pricePerDayCents)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderLine), args.Error(1)
}

func (m *mockOrderService) RemoveLine(ctx context.Context, orderID, lineID int32) error {
	args := m.Called(ctx, orderID, lineID)
	return args.Error(0)
}

func (m *mockOrderService) Reserve(ctx context.Context, orderID int32) (*domain.Order, error) {
	args := m.Called(ctx, orderID)
	return orderResult(args.Get(0), args.Error(1))
}

func (m *mockOrderService) Checkout(ctx context.Context, orderID int32) (*domain.Order, error) {
	args := m.Called(ctx, orderID)
	return orderResult(args.Get(0), args.Error(1))
}

func (m *mockOrderService) Return(ctx context.Context, orderID int32) (*domain.Order, error) {
	args := m.Called(ctx, orderID)
	return orderResult(args.Get(0), args.Error(1))
}

func (m *mockOrderService) Cancel(ctx context.Context, orderID int32) (*domain.Order, error) {
	args := m.Called(ctx, orderID)
	return orderResult(args.Get(0), args.Error(1))
}

func orderResult(v any, err error) (*domain.Order, error) {
	if v == nil {
		return nil, err
	}
	return v.(*domain.Order), err
}
