package service

import (
	"context"
	"testing"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository/memory"

	"github.com/stretchr/testify/require"
)

// engine bundles the services under test against one in-memory store, the
// same wiring the server uses with the "memory" driver.
type engine struct {
	store        *memory.Store
	catalog      CatalogService
	stock        StockService
	availability AvailabilityService
	orders       OrderService
}

func newEngine() *engine {
	store := memory.NewStore()
	locks := NewItemLocker()
	return &engine{
		store:        store,
		catalog:      NewCatalogService(store),
		stock:        NewStockService(store, locks),
		availability: NewAvailabilityService(store),
		orders:       NewOrderService(store, locks),
	}
}

func int32Ptr(v int32) *int32 { return &v }

func (e *engine) mustCreateAtomic(t *testing.T, sku string, dailyRateCents int32, onHand int32) *domain.Item {
	t.Helper()
	item := &domain.Item{
		SKU:            sku,
		Name:           sku,
		Kind:           domain.ItemKindAtomic,
		DailyRateCents: int32Ptr(dailyRateCents),
	}
	require.NoError(t, e.catalog.CreateItem(context.Background(), item))
	if onHand > 0 {
		_, err := e.stock.SetStock(context.Background(), item.ID, onHand, "tester", "initial count")
		require.NoError(t, err)
	}
	return item
}

func (e *engine) mustCreateComposite(t *testing.T, sku string, dailyRateCents int32, components map[int32]int32) *domain.Item {
	t.Helper()
	item := &domain.Item{
		SKU:            sku,
		Name:           sku,
		Kind:           domain.ItemKindComposite,
		DailyRateCents: int32Ptr(dailyRateCents),
	}
	require.NoError(t, e.catalog.CreateItem(context.Background(), item))
	for childID, qty := range components {
		require.NoError(t, e.catalog.AddComponent(context.Background(), item.ID, childID, qty))
	}
	return item
}

func (e *engine) mustCreateService(t *testing.T, sku string, hourlyRateCents int32) *domain.Item {
	t.Helper()
	item := &domain.Item{
		SKU:             sku,
		Name:            sku,
		Kind:            domain.ItemKindService,
		HourlyRateCents: int32Ptr(hourlyRateCents),
	}
	require.NoError(t, e.catalog.CreateItem(context.Background(), item))
	return item
}

func (e *engine) mustCreateOrder(t *testing.T, start, due time.Time) *domain.Order {
	t.Helper()
	order := &domain.Order{
		CustomerID:    1,
		SalesPersonID: 1,
		StartDate:     start,
		DueDate:       due,
	}
	require.NoError(t, e.orders.CreateOrder(context.Background(), order))
	return order
}

func testWindow() (time.Time, time.Time) {
	start := time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 3)
}
