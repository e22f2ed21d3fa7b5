package postgres

import (
	"context"

	"rentdesk-backend/internal/domain"
)

type stockMovementRepository struct {
	db dbtx
}

func (r *stockMovementRepository) Create(ctx context.Context, mv *domain.StockMovement) error {
	query := `INSERT INTO stock_movements (item_id, delta, reason, notes, created_by, order_id)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_on`
	return r.db.QueryRowContext(ctx, query,
		mv.ItemID, mv.Delta, mv.Reason, mv.Notes, mv.CreatedBy, mv.OrderID,
	).Scan(&mv.ID, &mv.CreatedOn)
}

func (r *stockMovementRepository) OnHand(ctx context.Context, itemID int32) (int32, error) {
	var onHand int32
	query := `SELECT COALESCE(SUM(delta), 0) FROM stock_movements WHERE item_id = $1`
	err := r.db.QueryRowContext(ctx, query, itemID).Scan(&onHand)
	return onHand, err
}

func (r *stockMovementRepository) ListByItem(ctx context.Context, itemID int32, page, pageSize int32) ([]domain.StockMovement, int32, error) {
	offset := (page - 1) * pageSize
	query := `SELECT id, item_id, delta, reason, COALESCE(notes, ''), created_by, order_id, created_on
	          FROM stock_movements WHERE item_id = $1 ORDER BY created_on DESC, id DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, itemID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var movements []domain.StockMovement
	for rows.Next() {
		var mv domain.StockMovement
		if err := rows.Scan(&mv.ID, &mv.ItemID, &mv.Delta, &mv.Reason, &mv.Notes, &mv.CreatedBy, &mv.OrderID, &mv.CreatedOn); err != nil {
			return nil, 0, err
		}
		movements = append(movements, mv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var count int32
	countQuery := `SELECT count(*) FROM stock_movements WHERE item_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, itemID).Scan(&count); err != nil {
		return nil, 0, err
	}
	return movements, count, nil
}

func (r *stockMovementRepository) ListByOrder(ctx context.Context, orderID int32, reason domain.MovementReason) ([]domain.StockMovement, error) {
	query := `SELECT id, item_id, delta, reason, COALESCE(notes, ''), created_by, order_id, created_on
	          FROM stock_movements WHERE order_id = $1 AND reason = $2 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, orderID, reason)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []domain.StockMovement
	for rows.Next() {
		var mv domain.StockMovement
		if err := rows.Scan(&mv.ID, &mv.ItemID, &mv.Delta, &mv.Reason, &mv.Notes, &mv.CreatedBy, &mv.OrderID, &mv.CreatedOn); err != nil {
			return nil, err
		}
		movements = append(movements, mv)
	}
	return movements, rows.Err()
}
