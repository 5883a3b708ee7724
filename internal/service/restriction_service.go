package service

import (
	"context"
	"errors"

	"github.com/dafibh/habitat/habitat-backend/internal/domain"
	"github.com/dafibh/habitat/habitat-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RestrictionService manages per-user, per-space booking blocks
type RestrictionService struct {
	restrictionRepo domain.RestrictionRepository
	spaceRepo       domain.CommonSpaceRepository
	userRepo        domain.UserRepository
	access          *AccessService
	eventPublisher  websocket.EventPublisher
}

// NewRestrictionService creates a new RestrictionService
func NewRestrictionService(
	restrictionRepo domain.RestrictionRepository,
	spaceRepo domain.CommonSpaceRepository,
	userRepo domain.UserRepository,
	access *AccessService,
) *RestrictionService {
	return &RestrictionService{
		restrictionRepo: restrictionRepo,
		spaceRepo:       spaceRepo,
		userRepo:        userRepo,
		access:          access,
		eventPublisher:  websocket.NoOpPublisher{},
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *RestrictionService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// SetRestrictionInput holds the input for blocking or unblocking a user
type SetRestrictionInput struct {
	CommonSpaceID uuid.UUID
	IsBlocked     bool
	Reason        *string
}

// SetRestriction blocks or unblocks userID on a space. Existing bookings are
// left untouched.
func (s *RestrictionService) SetRestriction(ctx context.Context, actor domain.Actor, userID uuid.UUID, input SetRestrictionInput) (*domain.Restriction, error) {
	if !actor.IsManagerial() {
		return nil, domain.ErrAccessDenied
	}
	if input.CommonSpaceID == uuid.Nil {
		return nil, domain.ErrSpaceIDMissing
	}
	reason := trimOptional(input.Reason)
	if reason != nil && len(*reason) > domain.MaxReasonLength {
		return nil, domain.ErrReasonTooLong
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	space, err := s.spaceRepo.GetByID(ctx, input.CommonSpaceID)
	if err != nil {
		return nil, err
	}
	if err := s.access.RequireManagerAccess(ctx, actor, space.BuildingID); err != nil {
		return nil, err
	}

	restriction, err := s.restrictionRepo.Upsert(ctx, &domain.Restriction{
		UserID:        userID,
		CommonSpaceID: space.ID,
		IsBlocked:     input.IsBlocked,
		Reason:        reason,
		UpdatedBy:     &actor.UserID,
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", userID.String()).
		Str("common_space_id", space.ID.String()).
		Str("updated_by", actor.UserID.String()).
		Bool("is_blocked", restriction.IsBlocked).
		Msg("Booking restriction updated")

	s.eventPublisher.Publish(space.BuildingID, websocket.RestrictionUpdated(restriction))
	return restriction, nil
}

// IsBlocked reports whether userID is blocked from booking spaceID
func (s *RestrictionService) IsBlocked(ctx context.Context, userID, spaceID uuid.UUID) (bool, error) {
	restriction, err := s.restrictionRepo.Get(ctx, userID, spaceID)
	if errors.Is(err, domain.ErrRestrictionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return restriction.IsBlocked, nil
}

// ListRestrictions returns the restrictions of userID. Users may read their
// own rows; managers see rows for spaces in buildings they can access.
func (s *RestrictionService) ListRestrictions(ctx context.Context, actor domain.Actor, userID uuid.UUID) ([]*domain.Restriction, error) {
	if actor.UserID != userID && !actor.IsManagerial() {
		return nil, domain.ErrAccessDenied
	}

	rows, err := s.restrictionRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if actor.UserID == userID {
		return rows, nil
	}

	accessible, err := s.access.AccessibleBuildingIDs(ctx, actor)
	if err != nil {
		return nil, err
	}
	result := make([]*domain.Restriction, 0, len(rows))
	for _, row := range rows {
		space, err := s.spaceRepo.GetByID(ctx, row.CommonSpaceID)
		if errors.Is(err, domain.ErrCommonSpaceNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if accessible.Contains(space.BuildingID) {
			result = append(result, row)
		}
	}
	return result, nil
}
