package postgres

import (
	"context"
	"errors"

	"github.com/dafibh/habitat/habitat-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const timeLimitColumns = `id, user_id, common_space_id, limit_type, limit_hours, updated_by, created_at, updated_at`

// TimeLimitRepository implements domain.TimeLimitRepository using PostgreSQL
type TimeLimitRepository struct {
	pool *pgxpool.Pool
}

// NewTimeLimitRepository creates a new TimeLimitRepository
func NewTimeLimitRepository(pool *pgxpool.Pool) *TimeLimitRepository {
	return &TimeLimitRepository{pool: pool}
}

// ListForUserSpace returns rows for (user, space) and the user's global rows
func (r *TimeLimitRepository) ListForUserSpace(ctx context.Context, userID, spaceID uuid.UUID) ([]*domain.TimeLimit, error) {
	return r.list(ctx, `
		SELECT `+timeLimitColumns+`
		FROM user_time_limits
		WHERE user_id = $1 AND (common_space_id = $2 OR common_space_id IS NULL)`, userID, spaceID)
}

// ListByUser lists all limits of a user, space-specific rows first
func (r *TimeLimitRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.TimeLimit, error) {
	return r.list(ctx, `
		SELECT `+timeLimitColumns+`
		FROM user_time_limits
		WHERE user_id = $1
		ORDER BY common_space_id NULLS LAST, limit_type`, userID)
}

// GetByID retrieves a limit by ID
func (r *TimeLimitRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.TimeLimit, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+timeLimitColumns+` FROM user_time_limits WHERE id = $1`, id)
	return scanTimeLimit(row)
}

// Upsert creates or replaces the limit for (user, space-or-null, type)
func (r *TimeLimitRepository) Upsert(ctx context.Context, limit *domain.TimeLimit) (*domain.TimeLimit, error) {
	hours, err := decimalToPgNumeric(limit.LimitHours)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO user_time_limits (user_id, common_space_id, limit_type, limit_hours, updated_by)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, (COALESCE(common_space_id, '00000000-0000-0000-0000-000000000000'::uuid)), limit_type)
		DO UPDATE SET limit_hours = EXCLUDED.limit_hours,
		              updated_by = EXCLUDED.updated_by,
		              updated_at = NOW()
		RETURNING `+timeLimitColumns,
		limit.UserID,
		limit.CommonSpaceID,
		string(limit.LimitType),
		hours,
		limit.UpdatedBy,
	)
	return scanTimeLimit(row)
}

// Delete removes a limit
func (r *TimeLimitRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM user_time_limits WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTimeLimitNotFound
	}
	return nil
}

func (r *TimeLimitRepository) list(ctx context.Context, sql string, args ...any) ([]*domain.TimeLimit, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*domain.TimeLimit, 0)
	for rows.Next() {
		limit, err := scanTimeLimit(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, limit)
	}
	return result, rows.Err()
}

func scanTimeLimit(row pgx.Row) (*domain.TimeLimit, error) {
	var (
		limit     domain.TimeLimit
		limitType string
		hours     pgtype.Numeric
	)
	err := row.Scan(
		&limit.ID,
		&limit.UserID,
		&limit.CommonSpaceID,
		&limitType,
		&hours,
		&limit.UpdatedBy,
		&limit.CreatedAt,
		&limit.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTimeLimitNotFound
		}
		return nil, err
	}
	limit.LimitType = domain.LimitType(limitType)
	limit.LimitHours = pgNumericToDecimal(hours)
	return &limit, nil
}
