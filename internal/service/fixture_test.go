package service

import (
	"context"
	"testing"
	"time"

	"github.com/dafibh/habitat/habitat-backend/internal/domain"
	"github.com/dafibh/habitat/habitat-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// fixtureNow is Sunday 2026-11-01 08:00 UTC, the day before monday()
var fixtureNow = time.Date(2026, 11, 1, 8, 0, 0, 0, time.UTC)

// monday returns a time on Monday 2026-11-02 in UTC
func monday(hour, minute int) time.Time {
	return time.Date(2026, 11, 2, hour, minute, 0, 0, time.UTC)
}

type reservationFixture struct {
	users        *testutil.MockUserRepository
	directory    *testutil.MockDirectoryRepository
	spaces       *testutil.MockCommonSpaceRepository
	bookings     *testutil.MockBookingRepository
	txManager    *testutil.MockBookingTxManager
	restrictions *testutil.MockRestrictionRepository
	limits       *testutil.MockTimeLimitRepository
	publisher    *testutil.MockEventPublisher
	locker       *KeyedSpaceLocker

	access         *AccessService
	spaceSvc       *CommonSpaceService
	restrictionSvc *RestrictionService
	limitSvc       *TimeLimitService
	bookingSvc     *BookingService
	usageSvc       *UsageService

	building *domain.Building
	space    *domain.CommonSpace
	manager  *domain.User
	admin    *domain.User
	resident *domain.User
}

func newReservationFixture(t *testing.T) *reservationFixture {
	t.Helper()

	f := &reservationFixture{
		users:        testutil.NewMockUserRepository(),
		directory:    testutil.NewMockDirectoryRepository(),
		spaces:       testutil.NewMockCommonSpaceRepository(),
		bookings:     testutil.NewMockBookingRepository(),
		restrictions: testutil.NewMockRestrictionRepository(),
		limits:       testutil.NewMockTimeLimitRepository(),
		publisher:    &testutil.MockEventPublisher{},
		locker:       NewKeyedSpaceLocker(),
	}
	f.txManager = testutil.NewMockBookingTxManager(f.bookings)

	f.building = f.directory.AddBuilding("Maple Court")
	f.manager = f.users.NewUser(domain.RoleManager)
	f.admin = f.users.NewUser(domain.RoleAdmin)
	f.resident = f.users.NewUser(domain.RoleResident)
	f.directory.LinkOrganization(f.manager.ID, f.building.ID)
	f.directory.LinkResidence(f.resident.ID, f.building.ID)

	f.space = f.spaces.AddSpace(&domain.CommonSpace{
		BuildingID:   f.building.ID,
		Name:         "Party Room",
		IsReservable: true,
		OpeningHours: domain.OpeningHours{{Day: "monday", Open: "08:00", Close: "20:00"}},
	})

	clock := func() time.Time { return fixtureNow }

	f.access = NewAccessService(f.directory)
	f.spaceSvc = NewCommonSpaceService(f.spaces, f.directory, f.users, f.access)
	f.spaceSvc.SetEventPublisher(f.publisher)
	f.restrictionSvc = NewRestrictionService(f.restrictions, f.spaces, f.users, f.access)
	f.limitSvc = NewTimeLimitService(f.limits, f.spaces, f.users, f.bookings, f.access)
	f.limitSvc.SetClock(clock)
	f.bookingSvc = NewBookingService(f.bookings, f.txManager, f.spaces, f.users, f.access, f.restrictionSvc, f.limitSvc, f.locker)
	f.bookingSvc.SetClock(clock)
	f.bookingSvc.SetEventPublisher(f.publisher)
	f.usageSvc = NewUsageService(f.bookings, f.spaces, f.access, DefaultStatsMonths)
	f.usageSvc.SetClock(clock)

	return f
}

func actorOf(user *domain.User) domain.Actor {
	return domain.Actor{UserID: user.ID, Role: user.Role}
}

// newResident adds a resident of the fixture building
func (f *reservationFixture) newResident() *domain.User {
	user := f.users.NewUser(domain.RoleResident)
	f.directory.LinkResidence(user.ID, f.building.ID)
	return user
}

// book stores a confirmed booking directly in the ledger
func (f *reservationFixture) book(userID, spaceID uuid.UUID, start, end time.Time) *domain.Booking {
	return f.bookings.AddBooking(&domain.Booking{
		CommonSpaceID: spaceID,
		UserID:        userID,
		StartTime:     start,
		EndTime:       end,
		Status:        domain.BookingStatusConfirmed,
	})
}

func (f *reservationFixture) setLimit(userID uuid.UUID, spaceID *uuid.UUID, limitType domain.LimitType, hours int64) *domain.TimeLimit {
	limit, err := f.limits.Upsert(context.Background(), &domain.TimeLimit{
		UserID:        userID,
		CommonSpaceID: spaceID,
		LimitType:     limitType,
		LimitHours:    decimal.NewFromInt(hours),
	})
	if err != nil {
		panic(err)
	}
	return limit
}

func bookingInput(start, end time.Time) CreateBookingInput {
	return CreateBookingInput{StartTime: start, EndTime: end}
}
