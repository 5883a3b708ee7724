package service

import (
	"context"
	"sort"
	"time"

	"github.com/dafibh/habitat/habitat-backend/internal/domain"
	"github.com/dafibh/habitat/habitat-backend/internal/util"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultStatsMonths is how far back statistics reach when no cutoff is given
const DefaultStatsMonths = 12

// UsageService aggregates booking history for managers
type UsageService struct {
	bookingRepo   domain.BookingRepository
	spaceRepo     domain.CommonSpaceRepository
	access        *AccessService
	now           func() time.Time
	defaultMonths int
}

// NewUsageService creates a new UsageService
func NewUsageService(bookingRepo domain.BookingRepository, spaceRepo domain.CommonSpaceRepository, access *AccessService, defaultMonths int) *UsageService {
	if defaultMonths <= 0 {
		defaultMonths = DefaultStatsMonths
	}
	return &UsageService{
		bookingRepo:   bookingRepo,
		spaceRepo:     spaceRepo,
		access:        access,
		now:           time.Now,
		defaultMonths: defaultMonths,
	}
}

// SetClock replaces the time source (for tests)
func (s *UsageService) SetClock(now func() time.Time) {
	s.now = now
}

// SpaceStatistics aggregates confirmed bookings of a space per user since the
// cutoff. Rows are sorted by hours, then booking count, both descending.
func (s *UsageService) SpaceStatistics(ctx context.Context, actor domain.Actor, spaceID uuid.UUID, since *time.Time) (*domain.SpaceStatistics, error) {
	space, err := s.spaceRepo.GetByID(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	if err := s.access.RequireManagerAccess(ctx, actor, space.BuildingID); err != nil {
		return nil, err
	}

	cutoff := util.MonthsBefore(s.now().UTC(), s.defaultMonths)
	if since != nil {
		cutoff = since.UTC()
	}

	rows, err := s.bookingRepo.AggregateUsage(ctx, space.ID, cutoff)
	if err != nil {
		return nil, err
	}

	totals := domain.UsageTotals{TotalHours: decimal.Zero, UniqueUsers: len(rows)}
	for i := range rows {
		totals.TotalHours = totals.TotalHours.Add(rows[i].TotalHours)
		totals.BookingCount += rows[i].BookingCount
		rows[i].TotalHours = rows[i].TotalHours.Round(2)
	}
	totals.TotalHours = totals.TotalHours.Round(2)

	sort.Slice(rows, func(i, j int) bool {
		if c := rows[i].TotalHours.Cmp(rows[j].TotalHours); c != 0 {
			return c > 0
		}
		if rows[i].BookingCount != rows[j].BookingCount {
			return rows[i].BookingCount > rows[j].BookingCount
		}
		return rows[i].UserID.String() < rows[j].UserID.String()
	})

	return &domain.SpaceStatistics{
		CommonSpaceID: space.ID,
		Since:         cutoff,
		PerUser:       rows,
		Totals:        totals,
	}, nil
}
