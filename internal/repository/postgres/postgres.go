package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/repository"
)

// dbtx is the subset of *sql.DB and *sql.Tx the repositories need, so the
// same repository code serves both transactional and plain access.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db        *sql.DB
	items     *itemRepository
	movements *stockMovementRepository
	orders    *orderRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:        db,
		items:     &itemRepository{db: db},
		movements: &stockMovementRepository{db: db},
		orders:    &orderRepository{db: db},
	}
}

func (s *Store) Items() repository.ItemRepository              { return s.items }
func (s *Store) Movements() repository.StockMovementRepository { return s.movements }
func (s *Store) Orders() repository.OrderRepository            { return s.orders }

// WithinTx runs fn against repositories bound to a single transaction.
// Serialization failures and deadlocks surface as domain.ErrConflict so the
// service layer can retry the whole check-and-commit.
func (s *Store) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txStore := &Store{
		db:        s.db,
		items:     &itemRepository{db: tx},
		movements: &stockMovementRepository{db: tx},
		orders:    &orderRepository{db: tx},
	}

	if err := fn(txStore); err != nil {
		_ = tx.Rollback()
		return mapConflict(err)
	}
	if err := tx.Commit(); err != nil {
		return mapConflict(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// mapConflict translates postgres serialization and deadlock errors into
// the retryable domain conflict error.
func mapConflict(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return domain.ErrConflict
		}
	}
	return err
}
