package service

import (
	"context"
	"errors"
	"time"

	"github.com/dafibh/habitat/habitat-backend/internal/domain"
	"github.com/dafibh/habitat/habitat-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultLockTimeout bounds how long a booking request waits for its space
const DefaultLockTimeout = 5 * time.Second

// BookingService orchestrates booking requests against the ledger
type BookingService struct {
	bookingRepo    domain.BookingRepository
	txManager      domain.BookingTxManager
	spaceRepo      domain.CommonSpaceRepository
	userRepo       domain.UserRepository
	access         *AccessService
	restrictions   *RestrictionService
	limits         *TimeLimitService
	locker         domain.SpaceLocker
	eventPublisher websocket.EventPublisher
	location       *time.Location
	now            func() time.Time
	lockTimeout    time.Duration
}

// NewBookingService creates a new BookingService
func NewBookingService(
	bookingRepo domain.BookingRepository,
	txManager domain.BookingTxManager,
	spaceRepo domain.CommonSpaceRepository,
	userRepo domain.UserRepository,
	access *AccessService,
	restrictions *RestrictionService,
	limits *TimeLimitService,
	locker domain.SpaceLocker,
) *BookingService {
	return &BookingService{
		bookingRepo:    bookingRepo,
		txManager:      txManager,
		spaceRepo:      spaceRepo,
		userRepo:       userRepo,
		access:         access,
		restrictions:   restrictions,
		limits:         limits,
		locker:         locker,
		eventPublisher: websocket.NoOpPublisher{},
		location:       time.UTC,
		now:            time.Now,
		lockTimeout:    DefaultLockTimeout,
	}
}

// SetLocation sets the location opening hours are evaluated in
func (s *BookingService) SetLocation(loc *time.Location) {
	if loc != nil {
		s.location = loc
	}
}

// SetClock replaces the time source (for tests)
func (s *BookingService) SetClock(now func() time.Time) {
	s.now = now
}

// SetLockTimeout sets how long a request waits for the space lock
func (s *BookingService) SetLockTimeout(d time.Duration) {
	if d > 0 {
		s.lockTimeout = d
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *BookingService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *BookingService) publishEvent(buildingID uuid.UUID, event websocket.Event) {
	s.eventPublisher.Publish(buildingID, event)
}

// CreateBookingInput holds the input for a booking request. UserID books on
// behalf of another user and requires manager access.
type CreateBookingInput struct {
	StartTime time.Time
	EndTime   time.Time
	UserID    *uuid.UUID
}

// CreateBooking validates a booking request and commits it. Checks run in
// this order: range, access, reservability, blocking, opening hours, then
// overlap and quota inside the space-serialized transaction.
func (s *BookingService) CreateBooking(ctx context.Context, actor domain.Actor, spaceID uuid.UUID, input CreateBookingInput) (*domain.Booking, error) {
	now := s.now()
	if err := domain.ValidateRange(input.StartTime, input.EndTime, now); err != nil {
		return nil, err
	}
	start, end := input.StartTime.UTC(), input.EndTime.UTC()

	space, err := s.spaceRepo.GetByID(ctx, spaceID)
	if err != nil {
		return nil, err
	}

	bookerID, err := s.resolveBooker(ctx, actor, space, input.UserID)
	if err != nil {
		return nil, err
	}

	if !space.IsReservable {
		return nil, s.reject(domain.ErrNotReservable, space.ID, bookerID)
	}

	blocked, err := s.restrictions.IsBlocked(ctx, bookerID, space.ID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, s.reject(domain.ErrBlocked, space.ID, bookerID)
	}

	if !space.OpeningHours.Contains(start, end, s.location) {
		return nil, s.reject(domain.ErrOutsideOpeningHours, space.ID, bookerID)
	}

	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()
	unlock, err := s.locker.Lock(lockCtx, space.ID)
	if err != nil {
		log.Warn().Err(err).Str("common_space_id", space.ID.String()).Msg("Failed to acquire space lock")
		return nil, err
	}
	defer unlock()

	booking := &domain.Booking{
		CommonSpaceID: space.ID,
		UserID:        bookerID,
		StartTime:     start,
		EndTime:       end,
		Status:        domain.BookingStatusConfirmed,
		CreatedBy:     &actor.UserID,
	}

	created, err := s.commit(ctx, booking, now)
	if errors.Is(err, domain.ErrSerializationFailure) {
		log.Debug().Str("common_space_id", space.ID.String()).Msg("Retrying booking after serialization failure")
		created, err = s.commit(ctx, booking, now)
		if errors.Is(err, domain.ErrSerializationFailure) {
			err = domain.ErrTimeConflict
		}
	}
	if err != nil {
		return nil, s.reject(err, space.ID, bookerID)
	}

	log.Info().
		Str("booking_id", created.ID.String()).
		Str("common_space_id", space.ID.String()).
		Str("building_id", space.BuildingID.String()).
		Str("user_id", bookerID.String()).
		Time("start_time", created.StartTime).
		Time("end_time", created.EndTime).
		Msg("Booking confirmed")

	s.publishEvent(space.BuildingID, websocket.BookingCreated(created))
	return created, nil
}

// commit runs the overlap check, the quota check and the insert in one
// transaction serialized on the space
func (s *BookingService) commit(ctx context.Context, booking *domain.Booking, now time.Time) (*domain.Booking, error) {
	var created *domain.Booking
	err := s.txManager.WithinSpaceTx(ctx, booking.CommonSpaceID, func(ctx context.Context, ledger domain.BookingRepository) error {
		overlap, err := ledger.HasOverlap(ctx, booking.CommonSpaceID, booking.StartTime, booking.EndTime, nil)
		if err != nil {
			return err
		}
		if overlap {
			return domain.ErrTimeConflict
		}

		requested := domain.HoursBetween(booking.StartTime, booking.EndTime)
		if err := s.limits.CheckQuota(ctx, ledger, booking.UserID, booking.CommonSpaceID, requested, now); err != nil {
			return err
		}

		created, err = ledger.Create(ctx, booking)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// resolveBooker returns the user the booking is for. Booking for someone else
// requires manager access to the building and an existing user.
func (s *BookingService) resolveBooker(ctx context.Context, actor domain.Actor, space *domain.CommonSpace, onBehalfOf *uuid.UUID) (uuid.UUID, error) {
	if onBehalfOf == nil || *onBehalfOf == actor.UserID {
		if err := s.access.RequireBuildingAccess(ctx, actor, space.BuildingID); err != nil {
			return uuid.Nil, err
		}
		return actor.UserID, nil
	}

	if err := s.access.RequireManagerAccess(ctx, actor, space.BuildingID); err != nil {
		return uuid.Nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, *onBehalfOf); err != nil {
		return uuid.Nil, err
	}
	return *onBehalfOf, nil
}

func (s *BookingService) reject(err error, spaceID, userID uuid.UUID) error {
	log.Debug().
		Err(err).
		Str("common_space_id", spaceID.String()).
		Str("user_id", userID.String()).
		Msg("Booking rejected")
	return err
}

// CancelBooking cancels a confirmed booking. The owner may always cancel;
// anyone else needs manager access to the building.
func (s *BookingService) CancelBooking(ctx context.Context, actor domain.Actor, bookingID uuid.UUID) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	space, err := s.spaceRepo.GetByID(ctx, booking.CommonSpaceID)
	if err != nil {
		return nil, err
	}

	if booking.UserID != actor.UserID {
		if err := s.access.RequireManagerAccess(ctx, actor, space.BuildingID); err != nil {
			return nil, err
		}
	}
	if !booking.IsConfirmed() {
		return nil, domain.ErrBookingAlreadyCancelled
	}

	cancelled, err := s.bookingRepo.Cancel(ctx, booking.ID, actor.UserID, s.now())
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("booking_id", cancelled.ID.String()).
		Str("common_space_id", space.ID.String()).
		Str("building_id", space.BuildingID.String()).
		Str("user_id", cancelled.UserID.String()).
		Str("cancelled_by", actor.UserID.String()).
		Msg("Booking cancelled")

	s.publishEvent(space.BuildingID, websocket.BookingCancelled(cancelled))
	return cancelled, nil
}

// ListBookings returns bookings of a space in both statuses ordered by start.
// When given, from and to keep only bookings intersecting [from, to).
func (s *BookingService) ListBookings(ctx context.Context, actor domain.Actor, spaceID uuid.UUID, from, to *time.Time) ([]*domain.Booking, error) {
	space, err := s.spaceRepo.GetByID(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	if err := s.access.RequireBuildingAccess(ctx, actor, space.BuildingID); err != nil {
		return nil, err
	}
	if from != nil && to != nil && !from.Before(*to) {
		return nil, domain.ErrInvalidRange
	}
	return s.bookingRepo.ListBySpace(ctx, space.ID, from, to)
}

// GetBooking returns one booking. Owners can always read their bookings.
func (s *BookingService) GetBooking(ctx context.Context, actor domain.Actor, bookingID uuid.UUID) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID == actor.UserID {
		return booking, nil
	}

	space, err := s.spaceRepo.GetByID(ctx, booking.CommonSpaceID)
	if err != nil {
		return nil, err
	}
	if err := s.access.RequireBuildingAccess(ctx, actor, space.BuildingID); err != nil {
		return nil, err
	}
	return booking, nil
}
