package postgres

import (
	"context"
	"errors"

	"github.com/dafibh/habitat/habitat-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DirectoryRepository implements domain.DirectoryRepository over the
// building, organization and residence tables
type DirectoryRepository struct {
	pool *pgxpool.Pool
}

// NewDirectoryRepository creates a new DirectoryRepository
func NewDirectoryRepository(pool *pgxpool.Pool) *DirectoryRepository {
	return &DirectoryRepository{pool: pool}
}

// GetBuilding retrieves an active building
func (r *DirectoryRepository) GetBuilding(ctx context.Context, id uuid.UUID) (*domain.Building, error) {
	var b domain.Building
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, is_active FROM buildings WHERE id = $1 AND is_active`, id,
	).Scan(&b.ID, &b.Name, &b.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBuildingNotFound
		}
		return nil, err
	}
	return &b, nil
}

// ListActiveBuildingIDs lists every active building
func (r *DirectoryRepository) ListActiveBuildingIDs(ctx context.Context) ([]uuid.UUID, error) {
	return r.listIDs(ctx, `SELECT id FROM buildings WHERE is_active`)
}

// ListOrganizationBuildingIDs lists active buildings of the user's active organizations
func (r *DirectoryRepository) ListOrganizationBuildingIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return r.listIDs(ctx, `
		SELECT DISTINCT b.id
		FROM user_organizations uo
		JOIN organizations o ON o.id = uo.organization_id AND o.is_active
		JOIN organization_buildings ob ON ob.organization_id = o.id
		JOIN buildings b ON b.id = ob.building_id AND b.is_active
		WHERE uo.user_id = $1`, userID)
}

// ListResidenceBuildingIDs lists active buildings where the user has an active residence
func (r *DirectoryRepository) ListResidenceBuildingIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return r.listIDs(ctx, `
		SELECT DISTINCT b.id
		FROM user_residences ur
		JOIN residences res ON res.id = ur.residence_id AND res.is_active
		JOIN buildings b ON b.id = res.building_id AND b.is_active
		WHERE ur.user_id = $1 AND ur.is_active`, userID)
}

func (r *DirectoryRepository) listIDs(ctx context.Context, sql string, args ...any) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}
