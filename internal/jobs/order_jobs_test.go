package jobs

import (
	"context"
	"testing"
	"time"

	"rentdesk-backend/internal/config"
	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository/memory"
	"rentdesk-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner(staleDraftAgeDays int) (*JobRunner, *memory.Store, service.OrderService) {
	store := memory.NewStore()
	orders := service.NewOrderService(store, service.NewItemLocker())
	cfg := &config.Config{}
	cfg.Scheduler.StaleDraftAgeDays = staleDraftAgeDays
	return NewJobRunner(store, orders, cfg), store, orders
}

func TestCancelStaleDrafts(t *testing.T) {
	// Age zero makes every existing draft stale, which sidesteps backdating
	// rows through the repository API.
	runner, _, orders := newTestRunner(0)
	ctx := context.Background()

	start := time.Now().AddDate(0, 0, 7)
	draft := &domain.Order{CustomerID: 1, SalesPersonID: 1, StartDate: start, DueDate: start.AddDate(0, 0, 3)}
	require.NoError(t, orders.CreateOrder(ctx, draft))

	reserved := &domain.Order{CustomerID: 1, SalesPersonID: 1, StartDate: start, DueDate: start.AddDate(0, 0, 3)}
	require.NoError(t, orders.CreateOrder(ctx, reserved))
	_, err := orders.Reserve(ctx, reserved.ID)
	require.NoError(t, err)

	runner.CancelStaleDrafts()

	got, err := orders.GetOrder(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, got.Status)

	got, err = orders.GetOrder(ctx, reserved.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusReserved, got.Status, "only drafts are swept")
}

func TestReportOverdueOrders(t *testing.T) {
	runner, store, orders := newTestRunner(30)
	ctx := context.Background()

	// An order checked out last week and due yesterday.
	start := time.Now().AddDate(0, 0, -7)
	order := &domain.Order{CustomerID: 1, SalesPersonID: 1, StartDate: start, DueDate: time.Now().AddDate(0, 0, -1)}
	require.NoError(t, orders.CreateOrder(ctx, order))
	_, err := orders.Reserve(ctx, order.ID)
	require.NoError(t, err)
	_, err = orders.Checkout(ctx, order.ID)
	require.NoError(t, err)

	overdue, err := store.Orders().ListOverdue(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, order.ID, overdue[0].ID)

	// The sweep logs only; it must not move the order or touch the ledger.
	runner.ReportOverdueOrders()

	got, err := orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCheckedOut, got.Status)
}
