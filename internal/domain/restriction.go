package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrBlocked             = errors.New("user is blocked from booking this common space")
	ErrRestrictionNotFound = errors.New("restriction not found")
	ErrReasonTooLong       = errors.New("reason exceeds maximum length")
	ErrSpaceIDMissing      = errors.New("common space id is required")
)

// Restriction blocks or unblocks one user on one space. There is at most
// one row per (user, space).
type Restriction struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"userId"`
	CommonSpaceID uuid.UUID  `json:"commonSpaceId"`
	IsBlocked     bool       `json:"isBlocked"`
	Reason        *string    `json:"reason,omitempty"`
	UpdatedBy     *uuid.UUID `json:"updatedBy,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// RestrictionRepository defines persistence operations for restrictions
type RestrictionRepository interface {
	Get(ctx context.Context, userID, spaceID uuid.UUID) (*Restriction, error)
	Upsert(ctx context.Context, restriction *Restriction) (*Restriction, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Restriction, error)
}
