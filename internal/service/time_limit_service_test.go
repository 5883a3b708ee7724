package service

import (
	"context"
	"testing"
	"time"

	"github.com/dafibh/habitat/habitat-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetTimeLimit_SpaceScoped(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()
	spaceID := f.space.ID

	limit, err := f.limitSvc.SetTimeLimit(ctx, actorOf(f.manager), f.resident.ID, SetTimeLimitInput{
		CommonSpaceID: &spaceID,
		LimitType:     domain.LimitTypeMonthly,
		LimitHours:    decimal.NewFromFloat(7.5),
	})
	require.NoError(t, err)
	assert.True(t, limit.LimitHours.Equal(decimal.NewFromFloat(7.5)))

	updated, err := f.limitSvc.SetTimeLimit(ctx, actorOf(f.manager), f.resident.ID, SetTimeLimitInput{
		CommonSpaceID: &spaceID,
		LimitType:     domain.LimitTypeMonthly,
		LimitHours:    decimal.NewFromInt(3),
	})
	require.NoError(t, err)
	assert.Equal(t, limit.ID, updated.ID, "one row per user, scope and type")
	assert.Len(t, f.limits.Limits, 1)
}

func TestSetTimeLimit_GlobalAndScopedCoexist(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()
	spaceID := f.space.ID

	_, err := f.limitSvc.SetTimeLimit(ctx, actorOf(f.manager), f.resident.ID, SetTimeLimitInput{LimitType: domain.LimitTypeYearly, LimitHours: decimal.NewFromInt(100)})
	require.NoError(t, err)
	_, err = f.limitSvc.SetTimeLimit(ctx, actorOf(f.manager), f.resident.ID, SetTimeLimitInput{CommonSpaceID: &spaceID, LimitType: domain.LimitTypeYearly, LimitHours: decimal.NewFromInt(10)})
	require.NoError(t, err)

	assert.Len(t, f.limits.Limits, 2)

	effective, err := f.limitSvc.EffectiveLimits(ctx, f.resident.ID, spaceID)
	require.NoError(t, err)
	require.Len(t, effective, 1)
	assert.True(t, effective[0].LimitHours.Equal(decimal.NewFromInt(10)))
}

func TestSetTimeLimit_Errors(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()
	spaceID := f.space.ID
	unknownSpace := uuid.New()
	otherManager := f.users.NewUser(domain.RoleManager)

	tests := []struct {
		name    string
		actor   domain.Actor
		userID  uuid.UUID
		input   SetTimeLimitInput
		wantErr error
	}{
		{"resident actor", actorOf(f.resident), f.resident.ID, SetTimeLimitInput{LimitType: domain.LimitTypeMonthly, LimitHours: decimal.NewFromInt(1)}, domain.ErrAccessDenied},
		{"bad type", actorOf(f.manager), f.resident.ID, SetTimeLimitInput{LimitType: "daily", LimitHours: decimal.NewFromInt(1)}, domain.ErrInvalidLimitType},
		{"zero hours", actorOf(f.manager), f.resident.ID, SetTimeLimitInput{LimitType: domain.LimitTypeMonthly, LimitHours: decimal.Zero}, domain.ErrInvalidLimitHours},
		{"unknown user", actorOf(f.manager), uuid.New(), SetTimeLimitInput{LimitType: domain.LimitTypeMonthly, LimitHours: decimal.NewFromInt(1)}, domain.ErrUserNotFound},
		{"unknown space", actorOf(f.manager), f.resident.ID, SetTimeLimitInput{CommonSpaceID: &unknownSpace, LimitType: domain.LimitTypeMonthly, LimitHours: decimal.NewFromInt(1)}, domain.ErrCommonSpaceNotFound},
		{"manager of other building", actorOf(otherManager), f.resident.ID, SetTimeLimitInput{CommonSpaceID: &spaceID, LimitType: domain.LimitTypeMonthly, LimitHours: decimal.NewFromInt(1)}, domain.ErrAccessDenied},
		{"global limit from manager of other building", actorOf(otherManager), f.resident.ID, SetTimeLimitInput{LimitType: domain.LimitTypeMonthly, LimitHours: decimal.RequireFromString("0.5")}, domain.ErrAccessDenied},
		{"global limit on a non-resident", actorOf(f.manager), otherManager.ID, SetTimeLimitInput{LimitType: domain.LimitTypeMonthly, LimitHours: decimal.NewFromInt(1)}, domain.ErrAccessDenied},
		{"hours finer than cents", actorOf(f.manager), f.resident.ID, SetTimeLimitInput{LimitType: domain.LimitTypeMonthly, LimitHours: decimal.RequireFromString("0.004")}, domain.ErrInvalidLimitHours},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.limitSvc.SetTimeLimit(ctx, tt.actor, tt.userID, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Empty(t, f.limits.Limits)
}

func TestSetTimeLimit_GlobalByAdmin(t *testing.T) {
	f := newReservationFixture(t)

	limit, err := f.limitSvc.SetTimeLimit(context.Background(), actorOf(f.admin), f.resident.ID, SetTimeLimitInput{
		LimitType:  domain.LimitTypeMonthly,
		LimitHours: decimal.NewFromInt(3),
	})
	require.NoError(t, err)
	assert.True(t, limit.IsGlobal())
}

func TestDeleteTimeLimit_GlobalFromOtherOrganization(t *testing.T) {
	f := newReservationFixture(t)
	limit := f.setLimit(f.resident.ID, nil, domain.LimitTypeMonthly, 5)

	tower := f.directory.AddBuilding("Other Org Tower")
	otherManager := f.users.NewUser(domain.RoleManager)
	f.directory.LinkOrganization(otherManager.ID, tower.ID)

	err := f.limitSvc.DeleteTimeLimit(context.Background(), actorOf(otherManager), f.resident.ID, limit.ID)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
	assert.Len(t, f.limits.Limits, 1)
}

func TestDeleteTimeLimit(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()
	limit := f.setLimit(f.resident.ID, nil, domain.LimitTypeMonthly, 5)

	err := f.limitSvc.DeleteTimeLimit(ctx, actorOf(f.resident), f.resident.ID, limit.ID)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	err = f.limitSvc.DeleteTimeLimit(ctx, actorOf(f.manager), f.manager.ID, limit.ID)
	assert.ErrorIs(t, err, domain.ErrTimeLimitNotFound, "limit must belong to the user in the path")

	require.NoError(t, f.limitSvc.DeleteTimeLimit(ctx, actorOf(f.manager), f.resident.ID, limit.ID))
	assert.Empty(t, f.limits.Limits)

	err = f.limitSvc.DeleteTimeLimit(ctx, actorOf(f.manager), f.resident.ID, limit.ID)
	assert.ErrorIs(t, err, domain.ErrTimeLimitNotFound)
}

func TestHoursUsed_PeriodAnchors(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()
	spaceID := f.space.ID

	f.book(f.resident.ID, spaceID, time.Date(2026, 10, 30, 9, 0, 0, 0, time.UTC), time.Date(2026, 10, 30, 12, 0, 0, 0, time.UTC))
	f.book(f.resident.ID, spaceID, monday(9, 0), monday(10, 30))
	cancelled := f.book(f.resident.ID, spaceID, monday(14, 0), monday(18, 0))
	_, err := f.bookings.Cancel(ctx, cancelled.ID, f.resident.ID, fixtureNow)
	require.NoError(t, err)

	monthly, err := f.limitSvc.HoursUsed(ctx, f.bookings, f.resident.ID, &spaceID, domain.LimitTypeMonthly, fixtureNow)
	require.NoError(t, err)
	assert.True(t, monthly.Equal(decimal.NewFromFloat(1.5)), "monthly = %s", monthly)

	yearly, err := f.limitSvc.HoursUsed(ctx, f.bookings, f.resident.ID, &spaceID, domain.LimitTypeYearly, fixtureNow)
	require.NoError(t, err)
	assert.True(t, yearly.Equal(decimal.NewFromFloat(4.5)), "yearly = %s", yearly)
}

func TestHoursUsed_UsesLocation(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()

	// 2026-10-31 20:00 UTC is already November 1 at UTC+7
	f.book(f.resident.ID, f.space.ID, time.Date(2026, 10, 31, 20, 0, 0, 0, time.UTC), time.Date(2026, 10, 31, 22, 0, 0, 0, time.UTC))

	used, err := f.limitSvc.HoursUsed(ctx, f.bookings, f.resident.ID, nil, domain.LimitTypeMonthly, fixtureNow)
	require.NoError(t, err)
	assert.True(t, used.IsZero())

	f.limitSvc.SetLocation(time.FixedZone("UTC+7", 7*60*60))
	used, err = f.limitSvc.HoursUsed(ctx, f.bookings, f.resident.ID, nil, domain.LimitTypeMonthly, fixtureNow)
	require.NoError(t, err)
	assert.True(t, used.Equal(decimal.NewFromInt(2)))
}

func TestCheckQuota_MonthlyCheckedFirst(t *testing.T) {
	f := newReservationFixture(t)
	f.setLimit(f.resident.ID, nil, domain.LimitTypeMonthly, 1)
	f.setLimit(f.resident.ID, nil, domain.LimitTypeYearly, 1)

	err := f.limitSvc.CheckQuota(context.Background(), f.bookings, f.resident.ID, f.space.ID, decimal.NewFromInt(2), fixtureNow)
	var quotaErr *domain.QuotaExceededError
	require.ErrorAs(t, err, &quotaErr)
	assert.Equal(t, domain.LimitTypeMonthly, quotaErr.LimitType)
}

func TestCheckQuota_ExactlyAtLimit(t *testing.T) {
	f := newReservationFixture(t)
	f.setLimit(f.resident.ID, nil, domain.LimitTypeMonthly, 3)
	f.book(f.resident.ID, f.space.ID, monday(9, 0), monday(11, 0))

	err := f.limitSvc.CheckQuota(context.Background(), f.bookings, f.resident.ID, f.space.ID, decimal.NewFromInt(1), fixtureNow)
	assert.NoError(t, err)
}

func TestCheckQuota_OverdrawnReportsZeroRemaining(t *testing.T) {
	f := newReservationFixture(t)
	f.setLimit(f.resident.ID, nil, domain.LimitTypeMonthly, 1)
	f.book(f.resident.ID, f.space.ID, monday(9, 0), monday(12, 0))

	err := f.limitSvc.CheckQuota(context.Background(), f.bookings, f.resident.ID, f.space.ID, decimal.NewFromInt(1), fixtureNow)
	var quotaErr *domain.QuotaExceededError
	require.ErrorAs(t, err, &quotaErr)
	assert.True(t, quotaErr.RemainingHours.IsZero())
}

func TestGetUserLimits(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()
	spaceID := f.space.ID
	other := f.directory.AddBuilding("Elm House")
	pool := f.spaces.AddSpace(&domain.CommonSpace{BuildingID: other.ID, Name: "Pool"})
	poolID := pool.ID

	f.setLimit(f.resident.ID, &spaceID, domain.LimitTypeMonthly, 5)
	f.setLimit(f.resident.ID, &poolID, domain.LimitTypeMonthly, 5)
	f.setLimit(f.resident.ID, nil, domain.LimitTypeYearly, 50)
	f.book(f.resident.ID, spaceID, monday(9, 0), monday(11, 0))

	own, err := f.limitSvc.GetUserLimits(ctx, actorOf(f.resident), f.resident.ID)
	require.NoError(t, err)
	require.Len(t, own, 3)

	managed, err := f.limitSvc.GetUserLimits(ctx, actorOf(f.manager), f.resident.ID)
	require.NoError(t, err)
	require.Len(t, managed, 2)

	for _, usage := range managed {
		assert.True(t, usage.UsedHours.Equal(decimal.NewFromInt(2)), "used = %s", usage.UsedHours)
		assert.True(t, usage.RemainingHours.Equal(usage.Limit.LimitHours.Sub(decimal.NewFromInt(2))))
	}
	assert.False(t, managed[0].Limit.IsGlobal(), "space-specific rows come first")

	_, err = f.limitSvc.GetUserLimits(ctx, actorOf(f.newResident()), f.resident.ID)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
}

func TestGetUserLimits_GlobalRowsNeedManagedResidence(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()
	f.setLimit(f.resident.ID, nil, domain.LimitTypeYearly, 50)

	tower := f.directory.AddBuilding("Other Org Tower")
	otherManager := f.users.NewUser(domain.RoleManager)
	f.directory.LinkOrganization(otherManager.ID, tower.ID)

	hidden, err := f.limitSvc.GetUserLimits(ctx, actorOf(otherManager), f.resident.ID)
	require.NoError(t, err)
	assert.Empty(t, hidden)

	visible, err := f.limitSvc.GetUserLimits(ctx, actorOf(f.admin), f.resident.ID)
	require.NoError(t, err)
	assert.Len(t, visible, 1)
}
