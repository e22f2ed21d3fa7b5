package jobs

import (
	"context"
	"time"

	"rentdesk-backend/internal/logger"
)

// CancelStaleDrafts cancels draft orders untouched for longer than the
// configured age. The cancellation goes through the lifecycle manager, so it
// is an ordinary Draft -> Cancelled transition with all its guarantees.
func (jr *JobRunner) CancelStaleDrafts() {
	jr.runWithRecovery("CancelStaleDrafts", func() {
		ctx := context.Background()
		cutoff := time.Now().AddDate(0, 0, -jr.config.Scheduler.StaleDraftAgeDays)

		drafts, err := jr.store.Orders().ListStaleDrafts(ctx, cutoff)
		if err != nil {
			logger.Error("Failed to list stale drafts", "error", err)
			return
		}

		cancelled := 0
		for _, o := range drafts {
			if _, err := jr.orders.Cancel(ctx, o.ID); err != nil {
				logger.Error("Failed to cancel stale draft", "order_id", o.ID, "error", err)
				continue
			}
			cancelled++
			logger.Debug("Cancelled stale draft", "order_id", o.ID, "updated_on", o.UpdatedOn)
		}
		logger.Info("Cancelled stale drafts", "count", cancelled, "cutoff", cutoff.Format("2006-01-02"))
	})
}

// ReportOverdueOrders surfaces checked-out orders past their due date. It is
// reporting only; overdue stock stays committed until the order is returned.
func (jr *JobRunner) ReportOverdueOrders() {
	jr.runWithRecovery("ReportOverdueOrders", func() {
		ctx := context.Background()

		overdue, err := jr.store.Orders().ListOverdue(ctx, time.Now())
		if err != nil {
			logger.Error("Failed to list overdue orders", "error", err)
			return
		}

		for _, o := range overdue {
			logger.Warn("Order overdue",
				"order_id", o.ID,
				"customer_id", o.CustomerID,
				"due_date", o.DueDate.Format("2006-01-02"),
				"days_overdue", int(time.Since(o.DueDate).Hours()/24))
		}
		logger.Info("Overdue order sweep finished", "count", len(overdue))
	})
}
