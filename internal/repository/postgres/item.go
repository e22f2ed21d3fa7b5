package postgres

import (
	"context"
	"database/sql"
	"errors"

	"rentdesk-backend/internal/domain"
)

type itemRepository struct {
	db dbtx
}

func (r *itemRepository) Create(ctx context.Context, item *domain.Item) error {
	query := `INSERT INTO items (sku, name, kind, start_fee_cents, daily_rate_cents, hourly_rate_cents)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_on`
	return r.db.QueryRowContext(ctx, query,
		item.SKU, item.Name, item.Kind,
		item.StartFeeCents, item.DailyRateCents, item.HourlyRateCents,
	).Scan(&item.ID, &item.CreatedOn)
}

func (r *itemRepository) GetByID(ctx context.Context, id int32) (*domain.Item, error) {
	query := `SELECT id, sku, name, kind, start_fee_cents, daily_rate_cents, hourly_rate_cents, created_on
	          FROM items WHERE id = $1`
	item, err := scanItem(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("item", id)
	}
	if err != nil {
		return nil, err
	}
	return r.attachComponents(ctx, item)
}

func (r *itemRepository) GetBySKU(ctx context.Context, sku string) (*domain.Item, error) {
	query := `SELECT id, sku, name, kind, start_fee_cents, daily_rate_cents, hourly_rate_cents, created_on
	          FROM items WHERE sku = $1`
	item, err := scanItem(r.db.QueryRowContext(ctx, query, sku))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NotFoundError{Resource: "item sku " + sku}
	}
	if err != nil {
		return nil, err
	}
	return r.attachComponents(ctx, item)
}

func (r *itemRepository) attachComponents(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	if item.Kind != domain.ItemKindComposite {
		return item, nil
	}
	comps, err := r.ListComponents(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	item.Components = comps
	return item, nil
}

func (r *itemRepository) List(ctx context.Context, page, pageSize int32) ([]domain.Item, int32, error) {
	offset := (page - 1) * pageSize
	query := `SELECT id, sku, name, kind, start_fee_cents, daily_rate_cents, hourly_rate_cents, created_on
	          FROM items ORDER BY sku LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		var it domain.Item
		if err := rows.Scan(&it.ID, &it.SKU, &it.Name, &it.Kind,
			&it.StartFeeCents, &it.DailyRateCents, &it.HourlyRateCents, &it.CreatedOn); err != nil {
			return nil, 0, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var count int32
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM items`).Scan(&count); err != nil {
		return nil, 0, err
	}
	return items, count, nil
}

func (r *itemRepository) AddComponent(ctx context.Context, comp *domain.ItemComponent) error {
	query := `INSERT INTO item_components (parent_id, child_id, quantity) VALUES ($1, $2, $3)
	          ON CONFLICT (parent_id, child_id) DO UPDATE SET quantity = EXCLUDED.quantity`
	_, err := r.db.ExecContext(ctx, query, comp.ParentID, comp.ChildID, comp.Quantity)
	return err
}

func (r *itemRepository) RemoveComponent(ctx context.Context, parentID, childID int32) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM item_components WHERE parent_id = $1 AND child_id = $2`, parentID, childID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.NewNotFoundError("component", childID)
	}
	return nil
}

func (r *itemRepository) ListComponents(ctx context.Context, parentID int32) ([]domain.ItemComponent, error) {
	query := `SELECT parent_id, child_id, quantity FROM item_components WHERE parent_id = $1 ORDER BY child_id`
	return r.queryComponents(ctx, query, parentID)
}

func (r *itemRepository) ListAllComponents(ctx context.Context) ([]domain.ItemComponent, error) {
	query := `SELECT parent_id, child_id, quantity FROM item_components ORDER BY parent_id, child_id`
	return r.queryComponents(ctx, query)
}

func (r *itemRepository) queryComponents(ctx context.Context, query string, args ...any) ([]domain.ItemComponent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comps []domain.ItemComponent
	for rows.Next() {
		var c domain.ItemComponent
		if err := rows.Scan(&c.ParentID, &c.ChildID, &c.Quantity); err != nil {
			return nil, err
		}
		comps = append(comps, c)
	}
	return comps, rows.Err()
}

func scanItem(row *sql.Row) (*domain.Item, error) {
	var it domain.Item
	err := row.Scan(&it.ID, &it.SKU, &it.Name, &it.Kind,
		&it.StartFeeCents, &it.DailyRateCents, &it.HourlyRateCents, &it.CreatedOn)
	if err != nil {
		return nil, err
	}
	return &it, nil
}
