package postgres

import (
	"context"
	"errors"

	"github.com/dafibh/habitat/habitat-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BookingTxManager implements domain.BookingTxManager. Each unit of work runs
// in a SERIALIZABLE transaction that first locks the space row, so the
// overlap check, quota check and insert of concurrent requests on one space
// are applied one after another.
type BookingTxManager struct {
	pool *pgxpool.Pool
}

// NewBookingTxManager creates a new BookingTxManager
func NewBookingTxManager(pool *pgxpool.Pool) *BookingTxManager {
	return &BookingTxManager{pool: pool}
}

// WithinSpaceTx runs fn inside the space transaction and commits if it succeeds
func (m *BookingTxManager) WithinSpaceTx(ctx context.Context, spaceID uuid.UUID, fn func(ctx context.Context, ledger domain.BookingRepository) error) error {
	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var locked uuid.UUID
	err = tx.QueryRow(ctx,
		`SELECT id FROM common_spaces WHERE id = $1 AND status = 'active' FOR UPDATE`, spaceID,
	).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrCommonSpaceNotFound
		}
		return mapTxError(err)
	}

	if err := fn(ctx, &BookingRepository{db: tx}); err != nil {
		return mapTxError(err)
	}

	return mapTxError(tx.Commit(ctx))
}
