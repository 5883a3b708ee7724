package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/dafibh/habitat/habitat-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const selectUsers = `SELECT id, auth0_id, email, name, role, is_active, created_at, updated_at FROM users`

// userRow mirrors the users table for pgx.RowToStructByName
type userRow struct {
	ID        uuid.UUID   `db:"id"`
	Auth0ID   string      `db:"auth0_id"`
	Email     string      `db:"email"`
	Name      pgtype.Text `db:"name"`
	Role      string      `db:"role"`
	IsActive  bool        `db:"is_active"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

func (r userRow) toDomain() *domain.User {
	return &domain.User{
		ID:        r.ID,
		Auth0ID:   r.Auth0ID,
		Email:     r.Email,
		Name:      pgTextToStringPtr(r.Name),
		Role:      domain.Role(r.Role),
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// UserRepository reads the users owned by the identity service
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	rows, err := r.pool.Query(ctx, selectUsers+" WHERE "+where, arg)
	if err != nil {
		return nil, err
	}
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[userRow])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetByAuth0ID resolves a token subject
func (r *UserRepository) GetByAuth0ID(ctx context.Context, auth0ID string) (*domain.User, error) {
	return r.getOne(ctx, "auth0_id = $1", auth0ID)
}

// ListByIDs loads many users in one round trip
func (r *UserRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.User, error) {
	out := make(map[uuid.UUID]*domain.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx, selectUsers+" WHERE id = ANY($1)", ids)
	if err != nil {
		return nil, err
	}
	users, err := pgx.CollectRows(rows, pgx.RowToStructByName[userRow])
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u.toDomain()
	}
	return out, nil
}

var _ domain.UserRepository = (*UserRepository)(nil)
