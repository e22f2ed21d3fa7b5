package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"rentdesk-backend/internal/domain"
)

type orderRepository struct {
	db dbtx
}

const orderColumns = `id, customer_id, sales_person_id, status, start_date, due_date,
	setup_start, cleanup_end, version, created_on, updated_on`

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `INSERT INTO orders (customer_id, sales_person_id, status, start_date, due_date, setup_start, cleanup_end)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, version, created_on, updated_on`
	return r.db.QueryRowContext(ctx, query,
		order.CustomerID, order.SalesPersonID, order.Status,
		order.StartDate, order.DueDate, order.SetupStart, order.CleanupEnd,
	).Scan(&order.ID, &order.Version, &order.CreatedOn, &order.UpdatedOn)
}

func (r *orderRepository) GetByID(ctx context.Context, id int32) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	var o domain.Order
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&o.ID, &o.CustomerID, &o.SalesPersonID, &o.Status, &o.StartDate, &o.DueDate,
		&o.SetupStart, &o.CleanupEnd, &o.Version, &o.CreatedOn, &o.UpdatedOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("order", id)
	}
	if err != nil {
		return nil, err
	}

	lines, err := r.listLines(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Lines = lines
	return &o, nil
}

// UpdateStatus bumps the version column and fails with domain.ErrConflict
// when another writer got there first.
func (r *orderRepository) UpdateStatus(ctx context.Context, order *domain.Order) error {
	query := `UPDATE orders SET status = $1, version = version + 1, updated_on = NOW()
	          WHERE id = $2 AND version = $3`
	res, err := r.db.ExecContext(ctx, query, order.Status, order.ID, order.Version)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrConflict
	}
	order.Version++
	return nil
}

func (r *orderRepository) List(ctx context.Context, status domain.OrderStatus, customerID int32, page, pageSize int32) ([]domain.Order, int32, error) {
	offset := (page - 1) * pageSize
	query := `SELECT ` + orderColumns + ` FROM orders
	          WHERE ($1 = '' OR status = $1) AND ($2 = 0 OR customer_id = $2)
	          ORDER BY start_date DESC, id DESC LIMIT $3 OFFSET $4`
	rows, err := r.db.QueryContext(ctx, query, string(status), customerID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	orders, err := scanOrders(rows)
	if err != nil {
		return nil, 0, err
	}

	var count int32
	countQuery := `SELECT count(*) FROM orders WHERE ($1 = '' OR status = $1) AND ($2 = 0 OR customer_id = $2)`
	if err := r.db.QueryRowContext(ctx, countQuery, string(status), customerID).Scan(&count); err != nil {
		return nil, 0, err
	}
	return orders, count, nil
}

func (r *orderRepository) AddLine(ctx context.Context, line *domain.OrderLine) error {
	query := `INSERT INTO order_lines (order_id, item_id, quantity, price_per_day_cents, start_fee_cents, rental_days, hours, line_total_cents)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	return r.db.QueryRowContext(ctx, query,
		line.OrderID, line.ItemID, line.Quantity, line.PricePerDayCents,
		line.StartFeeCents, line.RentalDays, line.Hours, line.LineTotalCents,
	).Scan(&line.ID)
}

func (r *orderRepository) GetLine(ctx context.Context, lineID int32) (*domain.OrderLine, error) {
	query := `SELECT id, order_id, item_id, quantity, price_per_day_cents, start_fee_cents, rental_days, hours, line_total_cents
	          FROM order_lines WHERE id = $1`
	var l domain.OrderLine
	err := r.db.QueryRowContext(ctx, query, lineID).Scan(
		&l.ID, &l.OrderID, &l.ItemID, &l.Quantity, &l.PricePerDayCents,
		&l.StartFeeCents, &l.RentalDays, &l.Hours, &l.LineTotalCents)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("order line", lineID)
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *orderRepository) UpdateLine(ctx context.Context, line *domain.OrderLine) error {
	query := `UPDATE order_lines SET quantity = $1, price_per_day_cents = $2, start_fee_cents = $3,
	          rental_days = $4, hours = $5, line_total_cents = $6 WHERE id = $7`
	_, err := r.db.ExecContext(ctx, query,
		line.Quantity, line.PricePerDayCents, line.StartFeeCents,
		line.RentalDays, line.Hours, line.LineTotalCents, line.ID)
	return err
}

func (r *orderRepository) DeleteLine(ctx context.Context, lineID int32) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM order_lines WHERE id = $1`, lineID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.NewNotFoundError("order line", lineID)
	}
	return nil
}

// ListCommittedLines applies the half-open overlap test
// (orderStart < end AND orderEnd > start) against the effective window,
// which widens to setup_start/cleanup_end when present.
func (r *orderRepository) ListCommittedLines(ctx context.Context, start, end time.Time, excludeOrderID int32) ([]domain.CommittedLine, error) {
	query := `SELECT l.item_id, l.quantity
	          FROM order_lines l
	          JOIN orders o ON o.id = l.order_id
	          WHERE o.status IN ($1, $2)
	            AND o.id <> $3
	            AND LEAST(COALESCE(o.setup_start, o.start_date), o.start_date) < $5
	            AND GREATEST(COALESCE(o.cleanup_end, o.due_date), o.due_date) > $4`
	rows, err := r.db.QueryContext(ctx, query,
		domain.OrderStatusReserved, domain.OrderStatusCheckedOut, excludeOrderID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []domain.CommittedLine
	for rows.Next() {
		var l domain.CommittedLine
		if err := rows.Scan(&l.ItemID, &l.Quantity); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *orderRepository) ListStaleDrafts(ctx context.Context, olderThan time.Time) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE status = $1 AND updated_on < $2 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, domain.OrderStatusDraft, olderThan)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (r *orderRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE status = $1 AND due_date < $2 ORDER BY due_date`
	rows, err := r.db.QueryContext(ctx, query, domain.OrderStatusCheckedOut, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

func (r *orderRepository) listLines(ctx context.Context, orderID int32) ([]domain.OrderLine, error) {
	query := `SELECT id, order_id, item_id, quantity, price_per_day_cents, start_fee_cents, rental_days, hours, line_total_cents
	          FROM order_lines WHERE order_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var l domain.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ItemID, &l.Quantity, &l.PricePerDayCents,
			&l.StartFeeCents, &l.RentalDays, &l.Hours, &l.LineTotalCents); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func scanOrders(rows *sql.Rows) ([]domain.Order, error) {
	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.SalesPersonID, &o.Status, &o.StartDate, &o.DueDate,
			&o.SetupStart, &o.CleanupEnd, &o.Version, &o.CreatedOn, &o.UpdatedOn); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
