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
	"github.com/shopspring/decimal"
)

const bookingColumns = `id, common_space_id, user_id, start_time, end_time, status,
	created_by, cancelled_by, cancelled_at, created_at, updated_at`

// BookingRepository implements domain.BookingRepository. It runs against the
// pool, or against a transaction when handed out by BookingTxManager.
type BookingRepository struct {
	db querier
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{db: pool}
}

// GetByID retrieves a booking by ID
func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	return scanBooking(row)
}

// ListBySpace lists bookings of a space intersecting [from, to), ordered by start
func (r *BookingRepository) ListBySpace(ctx context.Context, spaceID uuid.UUID, from, to *time.Time) ([]*domain.Booking, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE common_space_id = $1
		  AND ($2::timestamptz IS NULL OR end_time > $2)
		  AND ($3::timestamptz IS NULL OR start_time < $3)
		ORDER BY start_time, id`, spaceID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*domain.Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, booking)
	}
	return result, rows.Err()
}

// HasOverlap checks for a confirmed booking intersecting [start, end)
func (r *BookingRepository) HasOverlap(ctx context.Context, spaceID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE common_space_id = $1
			  AND status = 'confirmed'
			  AND start_time < $3
			  AND end_time > $2
			  AND ($4::uuid IS NULL OR id <> $4)
		)`, spaceID, start, end, excludeID).Scan(&exists)
	return exists, err
}

// SumConfirmedHours totals confirmed hours of a user starting at or after since
func (r *BookingRepository) SumConfirmedHours(ctx context.Context, userID uuid.UUID, spaceID *uuid.UUID, since time.Time) (decimal.Decimal, error) {
	var total pgtype.Numeric
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(EXTRACT(EPOCH FROM (end_time - start_time)) / 3600), 0)::numeric
		FROM bookings
		WHERE user_id = $1
		  AND status = 'confirmed'
		  AND start_time >= $2
		  AND ($3::uuid IS NULL OR common_space_id = $3)`, userID, since, spaceID).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return pgNumericToDecimal(total), nil
}

// Create inserts a confirmed booking. The exclusion constraint turns a
// concurrent double insert into ErrTimeConflict.
func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	status := booking.Status
	if status == "" {
		status = domain.BookingStatusConfirmed
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO bookings (common_space_id, user_id, start_time, end_time, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+bookingColumns,
		booking.CommonSpaceID,
		booking.UserID,
		booking.StartTime,
		booking.EndTime,
		string(status),
		booking.CreatedBy,
	)
	created, err := scanBooking(row)
	if err != nil {
		return nil, mapTxError(err)
	}
	return created, nil
}

// Cancel moves a confirmed booking to cancelled
func (r *BookingRepository) Cancel(ctx context.Context, id uuid.UUID, cancelledBy uuid.UUID, at time.Time) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE bookings
		SET status = 'cancelled', cancelled_by = $2, cancelled_at = $3, updated_at = $3
		WHERE id = $1 AND status = 'confirmed'
		RETURNING `+bookingColumns, id, cancelledBy, at)
	cancelled, err := scanBooking(row)
	if errors.Is(err, domain.ErrBookingNotFound) {
		// Distinguish a missing booking from one that is already cancelled
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, domain.ErrBookingAlreadyCancelled
	}
	return cancelled, err
}

// AggregateUsage groups confirmed bookings of a space per user since a cutoff
func (r *BookingRepository) AggregateUsage(ctx context.Context, spaceID uuid.UUID, since time.Time) ([]domain.UserUsage, error) {
	rows, err := r.db.Query(ctx, `
		SELECT user_id,
		       COALESCE(SUM(EXTRACT(EPOCH FROM (end_time - start_time)) / 3600), 0)::numeric AS total_hours,
		       COUNT(*) AS booking_count
		FROM bookings
		WHERE common_space_id = $1
		  AND status = 'confirmed'
		  AND start_time >= $2
		GROUP BY user_id`, spaceID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.UserUsage, 0)
	for rows.Next() {
		var (
			usage domain.UserUsage
			hours pgtype.Numeric
			count int64
		)
		if err := rows.Scan(&usage.UserID, &hours, &count); err != nil {
			return nil, err
		}
		usage.TotalHours = pgNumericToDecimal(hours)
		usage.BookingCount = int(count)
		result = append(result, usage)
	}
	return result, rows.Err()
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		booking     domain.Booking
		status      string
		cancelledAt pgtype.Timestamptz
	)
	err := row.Scan(
		&booking.ID,
		&booking.CommonSpaceID,
		&booking.UserID,
		&booking.StartTime,
		&booking.EndTime,
		&status,
		&booking.CreatedBy,
		&booking.CancelledBy,
		&cancelledAt,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	booking.Status = domain.BookingStatus(status)
	if cancelledAt.Valid {
		booking.CancelledAt = &cancelledAt.Time
	}
	return &booking, nil
}
