package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"rentdesk-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrder(t *testing.T) {
	e := newEngine()
	ctx := context.Background()
	start, due := testWindow()

	t.Run("Valid order starts as draft", func(t *testing.T) {
		order := &domain.Order{CustomerID: 1, SalesPersonID: 2, StartDate: start, DueDate: due}
		require.NoError(t, e.orders.CreateOrder(ctx, order))
		assert.Equal(t, domain.OrderStatusDraft, order.Status)
		assert.NotZero(t, order.ID)
	})

	t.Run("Requested status is ignored", func(t *testing.T) {
		order := &domain.Order{CustomerID: 1, SalesPersonID: 2, StartDate: start, DueDate: due,
			Status: domain.OrderStatusReserved}
		require.NoError(t, e.orders.CreateOrder(ctx, order))
		assert.Equal(t, domain.OrderStatusDraft, order.Status)
	})

	t.Run("Due before start rejected", func(t *testing.T) {
		order := &domain.Order{CustomerID: 1, SalesPersonID: 2, StartDate: due, DueDate: start}
		assert.Error(t, e.orders.CreateOrder(ctx, order))
	})

	t.Run("Setup after start rejected", func(t *testing.T) {
		late := start.Add(time.Hour)
		order := &domain.Order{CustomerID: 1, SalesPersonID: 2, StartDate: start, DueDate: due, SetupStart: &late}
		assert.Error(t, e.orders.CreateOrder(ctx, order))
	})

	t.Run("Cleanup before due rejected", func(t *testing.T) {
		early := due.Add(-time.Hour)
		order := &domain.Order{CustomerID: 1, SalesPersonID: 2, StartDate: start, DueDate: due, CleanupEnd: &early}
		assert.Error(t, e.orders.CreateOrder(ctx, order))
	})

	t.Run("Missing customer rejected", func(t *testing.T) {
		order := &domain.Order{SalesPersonID: 2, StartDate: start, DueDate: due}
		assert.Error(t, e.orders.CreateOrder(ctx, order))
	})
}

func TestAddLine(t *testing.T) {
	e := newEngine()
	ctx := context.Background()
	start, due := testWindow()

	chair := e.mustCreateAtomic(t, "CHAIR", 500, 10)
	svc := e.mustCreateService(t, "DELIVERY", 8000)
	order := e.mustCreateOrder(t, start, due)

	t.Run("Atomic line priced from window", func(t *testing.T) {
		line, err := e.orders.AddLine(ctx, order.ID, chair.ID, 4, 0)
		require.NoError(t, err)
		assert.Equal(t, int32(3), line.RentalDays)
		assert.Equal(t, int32(500), line.PricePerDayCents)
		// 4 chairs * 500/day * 3 days
		assert.Equal(t, int32(6000), line.LineTotalCents)
	})

	t.Run("Price snapshot survives catalog edits", func(t *testing.T) {
		got, err := e.orders.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		require.Len(t, got.Lines, 1)
		assert.Equal(t, int32(500), got.Lines[0].PricePerDayCents)
	})

	t.Run("Service line priced hourly", func(t *testing.T) {
		line, err := e.orders.AddLine(ctx, order.ID, svc.ID, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, int32(2), line.Hours)
		assert.Equal(t, int32(16000), line.LineTotalCents)
	})

	t.Run("Hours on a non-service line rejected", func(t *testing.T) {
		_, err := e.orders.AddLine(ctx, order.ID, chair.ID, 1, 2)
		assert.Error(t, err)
	})

	t.Run("Demand beyond stock rejected at add time", func(t *testing.T) {
		// 4 already on the order; 7 more would need 11 of 10.
		_, err := e.orders.AddLine(ctx, order.ID, chair.ID, 7, 0)
		var averr *domain.InsufficientAvailabilityError
		require.ErrorAs(t, err, &averr)
		require.Len(t, averr.Shortfalls, 1)
		assert.Equal(t, int32(11), averr.Shortfalls[0].Requested)
		assert.Equal(t, int32(10), averr.Shortfalls[0].Available)
	})

	t.Run("Unknown item", func(t *testing.T) {
		_, err := e.orders.AddLine(ctx, order.ID, 9999, 1, 0)
		var nerr *domain.NotFoundError
		assert.ErrorAs(t, err, &nerr)
	})
}

func TestEditAndRemoveLine(t *testing.T) {
	e := newEngine()
	ctx := context.Background()
	start, due := testWindow()

	chair := e.mustCreateAtomic(t, "CHAIR", 500, 10)
	order := e.mustCreateOrder(t, start, due)
	line, err := e.orders.AddLine(ctx, order.ID, chair.ID, 4, 0)
	require.NoError(t, err)

	t.Run("Quantity edit reprices the line", func(t *testing.T) {
		edited, err := e.orders.EditLine(ctx, order.ID, line.ID, int32Ptr(6), nil)
		require.NoError(t, err)
		assert.Equal(t, int32(6), edited.Quantity)
		assert.Equal(t, int32(9000), edited.LineTotalCents)
	})

	t.Run("Manual price override", func(t *testing.T) {
		edited, err := e.orders.EditLine(ctx, order.ID, line.ID, nil, int32Ptr(400))
		require.NoError(t, err)
		assert.Equal(t, int32(400), edited.PricePerDayCents)
		assert.Equal(t, int32(7200), edited.LineTotalCents)
	})

	t.Run("Quantity edit beyond stock rejected", func(t *testing.T) {
		_, err := e.orders.EditLine(ctx, order.ID, line.ID, int32Ptr(11), nil)
		var averr *domain.InsufficientAvailabilityError
		assert.ErrorAs(t, err, &averr)
	})

	t.Run("Empty edit rejected", func(t *testing.T) {
		_, err := e.orders.EditLine(ctx, order.ID, line.ID, nil, nil)
		assert.Error(t, err)
	})

	t.Run("Line of another order not reachable", func(t *testing.T) {
		other := e.mustCreateOrder(t, start, due)
		_, err := e.orders.EditLine(ctx, other.ID, line.ID, int32Ptr(1), nil)
		var nerr *domain.NotFoundError
		assert.ErrorAs(t, err, &nerr)
	})

	t.Run("Remove line", func(t *testing.T) {
		require.NoError(t, e.orders.RemoveLine(ctx, order.ID, line.ID))
		got, err := e.orders.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Lines)
	})

	t.Run("Mutations rejected outside draft", func(t *testing.T) {
		_, err := e.orders.AddLine(ctx, order.ID, chair.ID, 2, 0)
		require.NoError(t, err)
		_, err = e.orders.Reserve(ctx, order.ID)
		require.NoError(t, err)

		got, err := e.orders.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		lineID := got.Lines[0].ID

		_, err = e.orders.AddLine(ctx, order.ID, chair.ID, 1, 0)
		var terr *domain.InvalidStateTransitionError
		assert.ErrorAs(t, err, &terr)

		_, err = e.orders.EditLine(ctx, order.ID, lineID, int32Ptr(1), nil)
		assert.ErrorAs(t, err, &terr)

		err = e.orders.RemoveLine(ctx, order.ID, lineID)
		assert.ErrorAs(t, err, &terr)
	})
}

func TestReserve(t *testing.T) {
	e := newEngine()
	ctx := context.Background()
	start, due := testWindow()

	chair := e.mustCreateAtomic(t, "CHAIR", 500, 10)

	t.Run("Reserve holds without ledger writes", func(t *testing.T) {
		order := e.mustCreateOrder(t, start, due)
		_, err := e.orders.AddLine(ctx, order.ID, chair.ID, 6, 0)
		require.NoError(t, err)

		reserved, err := e.orders.Reserve(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusReserved, reserved.Status)

		onHand, err := e.stock.OnHand(ctx, chair.ID)
		require.NoError(t, err)
		assert.Equal(t, int32(10), onHand, "reserve is a soft hold")
	})

	t.Run("Overbooking rejected with shortfall detail", func(t *testing.T) {
		order := e.mustCreateOrder(t, start, due)
		line, err := e.orders.AddLine(ctx, order.ID, chair.ID, 4, 0)
		require.NoError(t, err)
		// The first order holds 6; only 4 remain, so bump to 5 has to fail
		// at reserve time even though the line predates the competing hold.
		_, err = e.orders.EditLine(ctx, order.ID, line.ID, int32Ptr(5), nil)
		if err == nil {
			_, err = e.orders.Reserve(ctx, order.ID)
		}
		var averr *domain.InsufficientAvailabilityError
		require.ErrorAs(t, err, &averr)
		require.Len(t, averr.Shortfalls, 1)
		assert.Equal(t, chair.ID, averr.Shortfalls[0].ItemID)
		assert.Equal(t, int32(4), averr.Shortfalls[0].Available)

		got, err := e.orders.GetOrder(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusDraft, got.Status, "failed reserve leaves the draft untouched")
	})

	t.Run("Empty order reserves cleanly", func(t *testing.T) {
		order := e.mustCreateOrder(t, start, due)
		reserved, err := e.orders.Reserve(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusReserved, reserved.Status)
	})
}

func TestCheckoutAndReturn(t *testing.T) {
	e := newEngine()
	ctx := context.Background()
	start, due := testWindow()

	table := e.mustCreateAtomic(t, "TABLE", 1000, 7)
	chair := e.mustCreateAtomic(t, "CHAIR", 500, 10)
	kit := e.mustCreateComposite(t, "KIT", 3000, map[int32]int32{table.ID: 2, chair.ID: 1})

	order := e.mustCreateOrder(t, start, due)
	_, err := e.orders.AddLine(ctx, order.ID, kit.ID, 2, 0)
	require.NoError(t, err)
	_, err = e.orders.AddLine(ctx, order.ID, chair.ID, 3, 0)
	require.NoError(t, err)
	_, err = e.orders.Reserve(ctx, order.ID)
	require.NoError(t, err)

	t.Run("Checkout writes exploded ledger entries", func(t *testing.T) {
		out, err := e.orders.Checkout(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusCheckedOut, out.Status)

		// 2 kits consume 4 tables and 2 chairs; 3 loose chairs on top.
		onHand, err := e.stock.OnHand(ctx, table.ID)
		require.NoError(t, err)
		assert.Equal(t, int32(3), onHand)

		onHand, err = e.stock.OnHand(ctx, chair.ID)
		require.NoError(t, err)
		assert.Equal(t, int32(5), onHand)

		movements, err := e.store.Movements().ListByOrder(ctx, order.ID, domain.MovementReasonCheckout)
		require.NoError(t, err)
		require.Len(t, movements, 2, "one aggregated movement per atomic item")
		for _, mv := range movements {
			assert.Equal(t, domain.MovementReasonCheckout, mv.Reason)
			require.NotNil(t, mv.OrderID)
			assert.Equal(t, order.ID, *mv.OrderID)
			assert.Negative(t, mv.Delta)
		}
	})

	t.Run("Return reverses checkout exactly", func(t *testing.T) {
		back, err := e.orders.Return(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusReturned, back.Status)

		onHand, err := e.stock.OnHand(ctx, table.ID)
		require.NoError(t, err)
		assert.Equal(t, int32(7), onHand)

		onHand, err = e.stock.OnHand(ctx, chair.ID)
		require.NoError(t, err)
		assert.Equal(t, int32(10), onHand)
	})

	t.Run("Return replays the recorded movements after component edits", func(t *testing.T) {
		second := e.mustCreateOrder(t, start, due)
		_, err := e.orders.AddLine(ctx, second.ID, kit.ID, 1, 0)
		require.NoError(t, err)
		_, err = e.orders.Reserve(ctx, second.ID)
		require.NoError(t, err)
		_, err = e.orders.Checkout(ctx, second.ID)
		require.NoError(t, err)

		// Recompose the kit while the order is out.
		require.NoError(t, e.catalog.AddComponent(ctx, kit.ID, table.ID, 5))

		_, err = e.orders.Return(ctx, second.ID)
		require.NoError(t, err)

		onHand, err := e.stock.OnHand(ctx, table.ID)
		require.NoError(t, err)
		assert.Equal(t, int32(7), onHand, "restitution matches what left the shelf, not the new recipe")
	})
}

func TestCheckoutFailureIsAtomic(t *testing.T) {
	e := newEngine()
	ctx := context.Background()
	start, due := testWindow()

	table := e.mustCreateAtomic(t, "TABLE", 1000, 4)
	chair := e.mustCreateAtomic(t, "CHAIR", 500, 10)

	order := e.mustCreateOrder(t, start, due)
	_, err := e.orders.AddLine(ctx, order.ID, table.ID, 4, 0)
	require.NoError(t, err)
	_, err = e.orders.AddLine(ctx, order.ID, chair.ID, 4, 0)
	require.NoError(t, err)
	_, err = e.orders.Reserve(ctx, order.ID)
	require.NoError(t, err)

	// Two tables break between reserve and checkout.
	_, err = e.stock.AdjustStock(ctx, table.ID, -2, domain.MovementReasonRepair, "alice", "")
	require.NoError(t, err)

	_, err = e.orders.Checkout(ctx, order.ID)
	var averr *domain.InsufficientAvailabilityError
	require.ErrorAs(t, err, &averr)

	got, err := e.orders.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusReserved, got.Status)

	movements, err := e.store.Movements().ListByOrder(ctx, order.ID, domain.MovementReasonCheckout)
	require.NoError(t, err)
	assert.Empty(t, movements, "no partial ledger writes for the fulfillable chair line")
}

func TestCancel(t *testing.T) {
	e := newEngine()
	ctx := context.Background()
	start, due := testWindow()

	chair := e.mustCreateAtomic(t, "CHAIR", 500, 10)

	t.Run("Cancel a draft", func(t *testing.T) {
		order := e.mustCreateOrder(t, start, due)
		cancelled, err := e.orders.Cancel(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)
	})

	t.Run("Cancel releases a reservation", func(t *testing.T) {
		order := e.mustCreateOrder(t, start, due)
		_, err := e.orders.AddLine(ctx, order.ID, chair.ID, 10, 0)
		require.NoError(t, err)
		_, err = e.orders.Reserve(ctx, order.ID)
		require.NoError(t, err)

		av, err := e.availability.Availability(ctx, chair.ID, start, due, 0)
		require.NoError(t, err)
		assert.Equal(t, int32(0), av.Quantity)

		_, err = e.orders.Cancel(ctx, order.ID)
		require.NoError(t, err)

		av, err = e.availability.Availability(ctx, chair.ID, start, due, 0)
		require.NoError(t, err)
		assert.Equal(t, int32(10), av.Quantity)
	})

	t.Run("Checked-out orders cannot be cancelled", func(t *testing.T) {
		order := e.mustCreateOrder(t, start, due)
		_, err := e.orders.AddLine(ctx, order.ID, chair.ID, 1, 0)
		require.NoError(t, err)
		_, err = e.orders.Reserve(ctx, order.ID)
		require.NoError(t, err)
		_, err = e.orders.Checkout(ctx, order.ID)
		require.NoError(t, err)

		_, err = e.orders.Cancel(ctx, order.ID)
		var terr *domain.InvalidStateTransitionError
		assert.ErrorAs(t, err, &terr)
	})

	t.Run("Terminal states stay terminal", func(t *testing.T) {
		order := e.mustCreateOrder(t, start, due)
		_, err := e.orders.Cancel(ctx, order.ID)
		require.NoError(t, err)

		_, err = e.orders.Reserve(ctx, order.ID)
		assert.Error(t, err)
		_, err = e.orders.Cancel(ctx, order.ID)
		assert.Error(t, err)
	})
}

func TestConcurrentReservationsDoNotOverbook(t *testing.T) {
	e := newEngine()
	ctx := context.Background()
	start, due := testWindow()

	chair := e.mustCreateAtomic(t, "CHAIR", 500, 10)

	// Each order wants 6 of the 10 chairs over the same window. At most one
	// can win regardless of interleaving.
	const contenders = 4
	orderIDs := make([]int32, contenders)
	for i := range orderIDs {
		order := e.mustCreateOrder(t, start, due)
		_, err := e.orders.AddLine(ctx, order.ID, chair.ID, 6, 0)
		require.NoError(t, err)
		orderIDs[i] = order.ID
	}

	var wg sync.WaitGroup
	results := make([]error, contenders)
	for i, id := range orderIDs {
		wg.Add(1)
		go func(i int, id int32) {
			defer wg.Done()
			_, results[i] = e.orders.Reserve(ctx, id)
		}(i, id)
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		if err == nil {
			wins++
		} else {
			var averr *domain.InsufficientAvailabilityError
			assert.ErrorAs(t, err, &averr)
		}
	}
	assert.Equal(t, 1, wins)

	av, err := e.availability.Availability(ctx, chair.ID, start, due, 0)
	require.NoError(t, err)
	assert.Equal(t, int32(4), av.Quantity)
}

func TestListOrders(t *testing.T) {
	e := newEngine()
	ctx := context.Background()
	start, due := testWindow()

	first := e.mustCreateOrder(t, start, due)
	second := e.mustCreateOrder(t, start, due)
	_, err := e.orders.Cancel(ctx, second.ID)
	require.NoError(t, err)

	t.Run("All orders", func(t *testing.T) {
		orders, total, err := e.orders.ListOrders(ctx, "", 0, 1, 50)
		require.NoError(t, err)
		assert.Equal(t, int32(2), total)
		assert.Len(t, orders, 2)
	})

	t.Run("Filter by status", func(t *testing.T) {
		orders, total, err := e.orders.ListOrders(ctx, domain.OrderStatusDraft, 0, 1, 50)
		require.NoError(t, err)
		assert.Equal(t, int32(1), total)
		require.Len(t, orders, 1)
		assert.Equal(t, first.ID, orders[0].ID)
	})

	t.Run("Unknown status rejected", func(t *testing.T) {
		_, _, err := e.orders.ListOrders(ctx, domain.OrderStatus("PENDING"), 0, 1, 50)
		assert.Error(t, err)
	})
}
