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

const restrictionColumns = `id, user_id, common_space_id, is_blocked, reason, updated_by, created_at, updated_at`

// RestrictionRepository implements domain.RestrictionRepository using PostgreSQL
type RestrictionRepository struct {
	pool *pgxpool.Pool
}

// NewRestrictionRepository creates a new RestrictionRepository
func NewRestrictionRepository(pool *pgxpool.Pool) *RestrictionRepository {
	return &RestrictionRepository{pool: pool}
}

// Get retrieves the restriction for a (user, space) pair
func (r *RestrictionRepository) Get(ctx context.Context, userID, spaceID uuid.UUID) (*domain.Restriction, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+restrictionColumns+`
		FROM user_booking_restrictions
		WHERE user_id = $1 AND common_space_id = $2`, userID, spaceID)
	return scanRestriction(row)
}

// Upsert creates or replaces the restriction for a (user, space) pair
func (r *RestrictionRepository) Upsert(ctx context.Context, restriction *domain.Restriction) (*domain.Restriction, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO user_booking_restrictions (user_id, common_space_id, is_blocked, reason, updated_by)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, common_space_id) DO UPDATE
		SET is_blocked = EXCLUDED.is_blocked,
		    reason = EXCLUDED.reason,
		    updated_by = EXCLUDED.updated_by,
		    updated_at = NOW()
		RETURNING `+restrictionColumns,
		restriction.UserID,
		restriction.CommonSpaceID,
		restriction.IsBlocked,
		stringPtrToPgText(restriction.Reason),
		restriction.UpdatedBy,
	)
	return scanRestriction(row)
}

// ListByUser lists restrictions of a user
func (r *RestrictionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Restriction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+restrictionColumns+`
		FROM user_booking_restrictions
		WHERE user_id = $1
		ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*domain.Restriction, 0)
	for rows.Next() {
		restriction, err := scanRestriction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, restriction)
	}
	return result, rows.Err()
}

func scanRestriction(row pgx.Row) (*domain.Restriction, error) {
	var (
		restriction domain.Restriction
		reason      pgtype.Text
	)
	err := row.Scan(
		&restriction.ID,
		&restriction.UserID,
		&restriction.CommonSpaceID,
		&restriction.IsBlocked,
		&reason,
		&restriction.UpdatedBy,
		&restriction.CreatedAt,
		&restriction.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRestrictionNotFound
		}
		return nil, err
	}
	restriction.Reason = pgTextToStringPtr(reason)
	return &restriction, nil
}
