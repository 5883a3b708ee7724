package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dafibh/habitat/habitat-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const commonSpaceColumns = `id, building_id, name, description, is_reservable, capacity,
	contact_person_id, opening_hours, booking_rules, image_url, status, created_by,
	created_at, updated_at`

// CommonSpaceRepository implements domain.CommonSpaceRepository using PostgreSQL
type CommonSpaceRepository struct {
	pool *pgxpool.Pool
}

// NewCommonSpaceRepository creates a new CommonSpaceRepository
func NewCommonSpaceRepository(pool *pgxpool.Pool) *CommonSpaceRepository {
	return &CommonSpaceRepository{pool: pool}
}

// Create inserts a new common space
func (r *CommonSpaceRepository) Create(ctx context.Context, space *domain.CommonSpace) (*domain.CommonSpace, error) {
	hours, err := marshalOpeningHours(space.OpeningHours)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO common_spaces (building_id, name, description, is_reservable, capacity,
			contact_person_id, opening_hours, booking_rules, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+commonSpaceColumns,
		space.BuildingID,
		space.Name,
		stringPtrToPgText(space.Description),
		space.IsReservable,
		space.Capacity,
		space.ContactPersonID,
		hours,
		stringPtrToPgText(space.BookingRules),
		string(domain.SpaceStatusActive),
		space.CreatedBy,
	)
	created, err := scanCommonSpace(row)
	if err != nil {
		if isPgUniqueViolation(err) {
			return nil, domain.ErrDuplicateSpaceName
		}
		return nil, err
	}
	return created, nil
}

// GetByID retrieves an active common space
func (r *CommonSpaceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.CommonSpace, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+commonSpaceColumns+` FROM common_spaces WHERE id = $1 AND status = 'active'`, id)
	return scanCommonSpace(row)
}

// ListByBuildings lists active spaces in the given buildings ordered by name
func (r *CommonSpaceRepository) ListByBuildings(ctx context.Context, buildingIDs []uuid.UUID) ([]*domain.CommonSpace, error) {
	if len(buildingIDs) == 0 {
		return []*domain.CommonSpace{}, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+commonSpaceColumns+`
		FROM common_spaces
		WHERE building_id = ANY($1) AND status = 'active'
		ORDER BY name, id`, buildingIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*domain.CommonSpace, 0)
	for rows.Next() {
		space, err := scanCommonSpace(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, space)
	}
	return result, rows.Err()
}

// ExistsByName checks for a space with the same name (case-insensitive) in a building
func (r *CommonSpaceRepository) ExistsByName(ctx context.Context, buildingID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM common_spaces
			WHERE building_id = $1 AND lower(name) = lower($2)
			  AND ($3::uuid IS NULL OR id <> $3)
		)`, buildingID, name, excludeID).Scan(&exists)
	return exists, err
}

// Update writes the editable fields of a space
func (r *CommonSpaceRepository) Update(ctx context.Context, space *domain.CommonSpace) (*domain.CommonSpace, error) {
	hours, err := marshalOpeningHours(space.OpeningHours)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE common_spaces
		SET name = $2, description = $3, is_reservable = $4, capacity = $5,
			contact_person_id = $6, opening_hours = $7, booking_rules = $8, updated_at = NOW()
		WHERE id = $1 AND status = 'active'
		RETURNING `+commonSpaceColumns,
		space.ID,
		space.Name,
		stringPtrToPgText(space.Description),
		space.IsReservable,
		space.Capacity,
		space.ContactPersonID,
		hours,
		stringPtrToPgText(space.BookingRules),
	)
	updated, err := scanCommonSpace(row)
	if err != nil {
		if isPgUniqueViolation(err) {
			return nil, domain.ErrDuplicateSpaceName
		}
		return nil, err
	}
	return updated, nil
}

// UpdateImage sets the stored photo path of a space
func (r *CommonSpaceRepository) UpdateImage(ctx context.Context, id uuid.UUID, imageURL *string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE common_spaces SET image_url = $2, updated_at = NOW() WHERE id = $1 AND status = 'active'`,
		id, stringPtrToPgText(imageURL))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCommonSpaceNotFound
	}
	return nil
}

func marshalOpeningHours(hours domain.OpeningHours) ([]byte, error) {
	if hours == nil {
		hours = domain.OpeningHours{}
	}
	data, err := json.Marshal(hours)
	if err != nil {
		return nil, fmt.Errorf("failed to encode opening hours: %w", err)
	}
	return data, nil
}

func scanCommonSpace(row pgx.Row) (*domain.CommonSpace, error) {
	var (
		space        domain.CommonSpace
		description  pgtype.Text
		bookingRules pgtype.Text
		imageURL     pgtype.Text
		hours        []byte
		status       string
	)
	err := row.Scan(
		&space.ID,
		&space.BuildingID,
		&space.Name,
		&description,
		&space.IsReservable,
		&space.Capacity,
		&space.ContactPersonID,
		&hours,
		&bookingRules,
		&imageURL,
		&status,
		&space.CreatedBy,
		&space.CreatedAt,
		&space.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCommonSpaceNotFound
		}
		return nil, err
	}

	space.Description = pgTextToStringPtr(description)
	space.BookingRules = pgTextToStringPtr(bookingRules)
	space.ImageURL = pgTextToStringPtr(imageURL)
	space.Status = domain.SpaceStatus(status)
	space.OpeningHours = domain.OpeningHours{}
	if len(hours) > 0 {
		if err := json.Unmarshal(hours, &space.OpeningHours); err != nil {
			return nil, fmt.Errorf("failed to decode opening hours: %w", err)
		}
	}
	return &space, nil
}
