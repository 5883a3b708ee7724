package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrCommonSpaceNotFound = errors.New("common space not found")
	ErrDuplicateSpaceName  = errors.New("a common space with this name already exists in the building")
	ErrInvalidCapacity     = errors.New("capacity must be a positive number")
	ErrDescriptionTooLong  = errors.New("description exceeds maximum length")
	ErrNotReservable       = errors.New("common space is not reservable")
)

// SpaceStatus is the lifecycle state of a common space. Spaces are never
// physically deleted.
type SpaceStatus string

const (
	SpaceStatusActive   SpaceStatus = "active"
	SpaceStatusInactive SpaceStatus = "inactive"
)

// CommonSpace is a shared building amenity
type CommonSpace struct {
	ID              uuid.UUID    `json:"id"`
	BuildingID      uuid.UUID    `json:"buildingId"`
	Name            string       `json:"name"`
	Description     *string      `json:"description,omitempty"`
	IsReservable    bool         `json:"isReservable"`
	Capacity        *int32       `json:"capacity,omitempty"`
	ContactPersonID *uuid.UUID   `json:"contactPersonId,omitempty"`
	OpeningHours    OpeningHours `json:"openingHours"`
	BookingRules    *string      `json:"bookingRules,omitempty"`
	ImageURL        *string      `json:"imageUrl,omitempty"`
	Status          SpaceStatus  `json:"status"`
	CreatedBy       *uuid.UUID   `json:"createdBy,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// IsActive reports whether the space is visible and bookable at all
func (s *CommonSpace) IsActive() bool {
	return s.Status == SpaceStatusActive
}

// Validate checks the editable fields of a space
func (s *CommonSpace) Validate() error {
	if s.Name == "" {
		return ErrNameRequired
	}
	if len(s.Name) > MaxSpaceNameLength {
		return ErrNameTooLong
	}
	if s.Description != nil && len(*s.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	if s.Capacity != nil && *s.Capacity <= 0 {
		return ErrInvalidCapacity
	}
	return s.OpeningHours.Validate()
}

// CommonSpaceRepository defines persistence operations for common spaces
type CommonSpaceRepository interface {
	Create(ctx context.Context, space *CommonSpace) (*CommonSpace, error)
	GetByID(ctx context.Context, id uuid.UUID) (*CommonSpace, error)
	ListByBuildings(ctx context.Context, buildingIDs []uuid.UUID) ([]*CommonSpace, error)
	ExistsByName(ctx context.Context, buildingID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error)
	Update(ctx context.Context, space *CommonSpace) (*CommonSpace, error)
	UpdateImage(ctx context.Context, id uuid.UUID, imageURL *string) error
}
