package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrBookingNotFound         = errors.New("booking not found")
	ErrInvalidRange            = errors.New("booking end must be after start and start must not be in the past")
	ErrTimeConflict            = errors.New("requested time overlaps an existing booking")
	ErrOutsideOpeningHours     = errors.New("requested time is outside the opening hours")
	ErrBookingAlreadyCancelled = errors.New("booking is already cancelled")
	ErrSpaceLockTimeout        = errors.New("timed out waiting for the common space lock")
)

// BookingStatus is the state of a booking. Confirmed -> Cancelled is the only
// transition; cancelled is terminal.
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

var secondsPerHour = decimal.NewFromInt(3600)

// Booking is a claim on a common space for the half-open interval [StartTime, EndTime)
type Booking struct {
	ID            uuid.UUID     `json:"id"`
	CommonSpaceID uuid.UUID     `json:"commonSpaceId"`
	UserID        uuid.UUID     `json:"userId"`
	StartTime     time.Time     `json:"startTime"`
	EndTime       time.Time     `json:"endTime"`
	Status        BookingStatus `json:"status"`
	CreatedBy     *uuid.UUID    `json:"createdBy,omitempty"`
	CancelledBy   *uuid.UUID    `json:"cancelledBy,omitempty"`
	CancelledAt   *time.Time    `json:"cancelledAt,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// IsConfirmed reports whether the booking still holds its slot
func (b *Booking) IsConfirmed() bool {
	return b.Status == BookingStatusConfirmed
}

// DurationHours returns the booking length in hours
func (b *Booking) DurationHours() decimal.Decimal {
	return HoursBetween(b.StartTime, b.EndTime)
}

// Overlaps applies the half-open intersection test against [start, end)
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && b.EndTime.After(start)
}

// HoursBetween returns end-start in hours, at second precision
func HoursBetween(start, end time.Time) decimal.Decimal {
	seconds := int64(end.Sub(start) / time.Second)
	return decimal.NewFromInt(seconds).Div(secondsPerHour)
}

// ValidateRange checks start < end and that start is not before now
func ValidateRange(start, end, now time.Time) error {
	if start.IsZero() || end.IsZero() || !start.Before(end) {
		return ErrInvalidRange
	}
	if start.Before(now) {
		return ErrInvalidRange
	}
	return nil
}

// BookingRepository is the booking ledger
type BookingRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	ListBySpace(ctx context.Context, spaceID uuid.UUID, from, to *time.Time) ([]*Booking, error)
	HasOverlap(ctx context.Context, spaceID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error)
	// SumConfirmedHours totals confirmed bookings of a user starting at or
	// after since, optionally restricted to one space
	SumConfirmedHours(ctx context.Context, userID uuid.UUID, spaceID *uuid.UUID, since time.Time) (decimal.Decimal, error)
	Create(ctx context.Context, booking *Booking) (*Booking, error)
	// Cancel moves a confirmed booking to cancelled. It returns
	// ErrBookingAlreadyCancelled when the booking is not confirmed.
	Cancel(ctx context.Context, id uuid.UUID, cancelledBy uuid.UUID, at time.Time) (*Booking, error)
	AggregateUsage(ctx context.Context, spaceID uuid.UUID, since time.Time) ([]UserUsage, error)
}

// BookingTxManager runs fn with a ledger bound to a transaction that is
// serialized on the given space. Either everything fn wrote commits, or nothing.
type BookingTxManager interface {
	WithinSpaceTx(ctx context.Context, spaceID uuid.UUID, fn func(ctx context.Context, ledger BookingRepository) error) error
}

// SpaceLocker serializes booking creation per space. The returned function
// releases the lock.
type SpaceLocker interface {
	Lock(ctx context.Context, spaceID uuid.UUID) (unlock func(), err error)
}
