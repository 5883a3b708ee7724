package service

import (
	"context"
	"errors"
	"time"

	"github.com/dafibh/habitat/habitat-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// TimeLimitService manages per-user booking quotas and evaluates them
type TimeLimitService struct {
	limitRepo   domain.TimeLimitRepository
	spaceRepo   domain.CommonSpaceRepository
	userRepo    domain.UserRepository
	bookingRepo domain.BookingRepository
	access      *AccessService
	location    *time.Location
	now         func() time.Time
}

// NewTimeLimitService creates a new TimeLimitService
func NewTimeLimitService(
	limitRepo domain.TimeLimitRepository,
	spaceRepo domain.CommonSpaceRepository,
	userRepo domain.UserRepository,
	bookingRepo domain.BookingRepository,
	access *AccessService,
) *TimeLimitService {
	return &TimeLimitService{
		limitRepo:   limitRepo,
		spaceRepo:   spaceRepo,
		userRepo:    userRepo,
		bookingRepo: bookingRepo,
		access:      access,
		location:    time.UTC,
		now:         time.Now,
	}
}

// SetLocation sets the location quota periods are anchored in
func (s *TimeLimitService) SetLocation(loc *time.Location) {
	if loc != nil {
		s.location = loc
	}
}

// SetClock replaces the time source (for tests)
func (s *TimeLimitService) SetClock(now func() time.Time) {
	s.now = now
}

// SetTimeLimitInput holds the input for setting a quota. A nil CommonSpaceID
// sets the global limit.
type SetTimeLimitInput struct {
	CommonSpaceID *uuid.UUID
	LimitType     domain.LimitType
	LimitHours    decimal.Decimal
}

// SetTimeLimit creates or replaces the limit for (user, space-or-global, type)
func (s *TimeLimitService) SetTimeLimit(ctx context.Context, actor domain.Actor, userID uuid.UUID, input SetTimeLimitInput) (*domain.TimeLimit, error) {
	if !actor.IsManagerial() {
		return nil, domain.ErrAccessDenied
	}

	limit := &domain.TimeLimit{
		UserID:        userID,
		CommonSpaceID: input.CommonSpaceID,
		LimitType:     input.LimitType,
		LimitHours:    input.LimitHours,
		UpdatedBy:     &actor.UserID,
	}
	if err := limit.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.authorizeScope(ctx, actor, userID, input.CommonSpaceID); err != nil {
		return nil, err
	}

	saved, err := s.limitRepo.Upsert(ctx, limit)
	if err != nil {
		return nil, err
	}

	event := log.Info().
		Str("time_limit_id", saved.ID.String()).
		Str("user_id", userID.String()).
		Str("limit_type", string(saved.LimitType)).
		Str("limit_hours", saved.LimitHours.String()).
		Str("updated_by", actor.UserID.String())
	if saved.CommonSpaceID != nil {
		event = event.Str("common_space_id", saved.CommonSpaceID.String())
	}
	event.Msg("Time limit set")

	return saved, nil
}

// DeleteTimeLimit removes one of userID's limits
func (s *TimeLimitService) DeleteTimeLimit(ctx context.Context, actor domain.Actor, userID, limitID uuid.UUID) error {
	if !actor.IsManagerial() {
		return domain.ErrAccessDenied
	}

	limit, err := s.limitRepo.GetByID(ctx, limitID)
	if err != nil {
		return err
	}
	if limit.UserID != userID {
		return domain.ErrTimeLimitNotFound
	}
	if err := s.authorizeScope(ctx, actor, userID, limit.CommonSpaceID); err != nil {
		return err
	}

	if err := s.limitRepo.Delete(ctx, limitID); err != nil {
		return err
	}

	log.Info().
		Str("time_limit_id", limitID.String()).
		Str("user_id", userID.String()).
		Str("deleted_by", actor.UserID.String()).
		Msg("Time limit deleted")
	return nil
}

// authorizeScope requires manager access to the space's building for a
// space-scoped limit. A global limit applies in every building, so the actor
// must manage a building userID lives in.
func (s *TimeLimitService) authorizeScope(ctx context.Context, actor domain.Actor, userID uuid.UUID, spaceID *uuid.UUID) error {
	if spaceID == nil {
		return s.access.RequireUserManagerAccess(ctx, actor, userID)
	}
	space, err := s.spaceRepo.GetByID(ctx, *spaceID)
	if err != nil {
		return err
	}
	return s.access.RequireManagerAccess(ctx, actor, space.BuildingID)
}

// EffectiveLimits returns the limits that apply to userID on spaceID, one per
// limit type, with space-specific rows taking precedence over global ones
func (s *TimeLimitService) EffectiveLimits(ctx context.Context, userID, spaceID uuid.UUID) ([]*domain.TimeLimit, error) {
	rows, err := s.limitRepo.ListForUserSpace(ctx, userID, spaceID)
	if err != nil {
		return nil, err
	}
	return domain.SelectEffectiveLimits(rows, spaceID), nil
}

// HoursUsed sums the confirmed hours userID booked since the start of the
// limit period containing asOf. A nil scope counts bookings on every space.
func (s *TimeLimitService) HoursUsed(ctx context.Context, ledger domain.BookingRepository, userID uuid.UUID, scope *uuid.UUID, limitType domain.LimitType, asOf time.Time) (decimal.Decimal, error) {
	since := limitType.PeriodStart(asOf, s.location)
	return ledger.SumConfirmedHours(ctx, userID, scope, since)
}

// CheckQuota verifies that booking requested more hours keeps userID within
// every effective limit. Monthly limits are checked before yearly ones and the
// first violation is returned as a *domain.QuotaExceededError.
func (s *TimeLimitService) CheckQuota(ctx context.Context, ledger domain.BookingRepository, userID, spaceID uuid.UUID, requested decimal.Decimal, asOf time.Time) error {
	limits, err := s.EffectiveLimits(ctx, userID, spaceID)
	if err != nil {
		return err
	}

	for _, limit := range limits {
		used, err := s.HoursUsed(ctx, ledger, userID, limit.CommonSpaceID, limit.LimitType, asOf)
		if err != nil {
			return err
		}
		if used.Add(requested).GreaterThan(limit.LimitHours) {
			return &domain.QuotaExceededError{
				LimitType:      limit.LimitType,
				LimitHours:     limit.LimitHours,
				UsedHours:      used,
				RequestedHours: requested,
				RemainingHours: decimal.Max(decimal.Zero, limit.LimitHours.Sub(used)),
				CommonSpaceID:  limit.CommonSpaceID,
			}
		}
	}
	return nil
}

// GetUserLimits returns every limit of userID with its usage in the current
// period. Users may read their own limits. Managers see limits on spaces in
// buildings they can access, and global limits of users living in one.
func (s *TimeLimitService) GetUserLimits(ctx context.Context, actor domain.Actor, userID uuid.UUID) ([]domain.LimitUsage, error) {
	self := actor.UserID == userID
	if !self && !actor.IsManagerial() {
		return nil, domain.ErrAccessDenied
	}

	rows, err := s.limitRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var accessible domain.BuildingSet
	seesGlobal := self
	if !self {
		if accessible, err = s.access.AccessibleBuildingIDs(ctx, actor); err != nil {
			return nil, err
		}
		switch err := s.access.RequireUserManagerAccess(ctx, actor, userID); {
		case err == nil:
			seesGlobal = true
		case !errors.Is(err, domain.ErrAccessDenied):
			return nil, err
		}
	}

	asOf := s.now()
	result := make([]domain.LimitUsage, 0, len(rows))
	for _, row := range rows {
		if row.CommonSpaceID == nil && !seesGlobal {
			continue
		}
		if !self && row.CommonSpaceID != nil {
			space, err := s.spaceRepo.GetByID(ctx, *row.CommonSpaceID)
			if errors.Is(err, domain.ErrCommonSpaceNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			if !accessible.Contains(space.BuildingID) {
				continue
			}
		}

		used, err := s.HoursUsed(ctx, s.bookingRepo, userID, row.CommonSpaceID, row.LimitType, asOf)
		if err != nil {
			return nil, err
		}
		result = append(result, domain.LimitUsage{
			Limit:          row,
			PeriodStart:    row.LimitType.PeriodStart(asOf, s.location),
			UsedHours:      used.Round(2),
			RemainingHours: decimal.Max(decimal.Zero, row.LimitHours.Sub(used)).Round(2),
		})
	}
	return result, nil
}
