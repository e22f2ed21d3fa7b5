package postgres

import (
	"context"
	"testing"
	"time"

	"rentdesk-backend/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestStockMovementRepository_Create(t *testing.T) {
	store, mock, closeDB := newMockStore(t)
	defer closeDB()
	ctx := context.Background()

	t.Run("Manual adjustment", func(t *testing.T) {
		mv := &domain.StockMovement{
			ItemID:    5,
			Delta:     10,
			Reason:    domain.MovementReasonAdjustment,
			Notes:     "received shipment",
			CreatedBy: "alice",
		}

		mock.ExpectQuery("INSERT INTO stock_movements").
			WithArgs(mv.ItemID, mv.Delta, mv.Reason, mv.Notes, mv.CreatedBy, nil).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_on"}).AddRow(1, time.Now()))

		err := store.Movements().Create(ctx, mv)
		assert.NoError(t, err)
		assert.Equal(t, int32(1), mv.ID)
	})

	t.Run("Lifecycle movement carries order id", func(t *testing.T) {
		orderID := int32(7)
		mv := &domain.StockMovement{
			ItemID:    5,
			Delta:     -4,
			Reason:    domain.MovementReasonCheckout,
			Notes:     "checkout of order 7",
			CreatedBy: "salesperson:3",
			OrderID:   &orderID,
		}

		mock.ExpectQuery("INSERT INTO stock_movements").
			WithArgs(mv.ItemID, mv.Delta, mv.Reason, mv.Notes, mv.CreatedBy, &orderID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_on"}).AddRow(2, time.Now()))

		err := store.Movements().Create(ctx, mv)
		assert.NoError(t, err)
	})
}

func TestStockMovementRepository_OnHand(t *testing.T) {
	store, mock, closeDB := newMockStore(t)
	defer closeDB()
	ctx := context.Background()

	t.Run("Sums deltas", func(t *testing.T) {
		mock.ExpectQuery("SELECT COALESCE\\(SUM\\(delta\\), 0\\) FROM stock_movements").
			WithArgs(int32(5)).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(7))

		onHand, err := store.Movements().OnHand(ctx, 5)
		assert.NoError(t, err)
		assert.Equal(t, int32(7), onHand)
	})

	t.Run("Empty ledger reads zero", func(t *testing.T) {
		mock.ExpectQuery("SELECT COALESCE\\(SUM\\(delta\\), 0\\) FROM stock_movements").
			WithArgs(int32(6)).
			WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))

		onHand, err := store.Movements().OnHand(ctx, 6)
		assert.NoError(t, err)
		assert.Equal(t, int32(0), onHand)
	})
}

func TestStockMovementRepository_ListByOrder(t *testing.T) {
	store, mock, closeDB := newMockStore(t)
	defer closeDB()
	ctx := context.Background()

	orderID := int32(7)
	mock.ExpectQuery("SELECT (.+) FROM stock_movements WHERE order_id = \\$1 AND reason = \\$2").
		WithArgs(orderID, domain.MovementReasonCheckout).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "item_id", "delta", "reason", "notes", "created_by", "order_id", "created_on"}).
			AddRow(1, 5, -4, "CHECKOUT", "checkout of order 7", "salesperson:3", orderID, time.Now()).
			AddRow(2, 8, -2, "CHECKOUT", "checkout of order 7", "salesperson:3", orderID, time.Now()))

	movements, err := store.Movements().ListByOrder(ctx, orderID, domain.MovementReasonCheckout)
	assert.NoError(t, err)
	assert.Len(t, movements, 2)
	assert.Equal(t, int32(-4), movements[0].Delta)
}
