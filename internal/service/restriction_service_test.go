package service

import (
	"context"
	"strings"
	"testing"

	"github.com/dafibh/habitat/habitat-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetRestriction_Upsert(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()
	reason := "  noise complaints "

	first, err := f.restrictionSvc.SetRestriction(ctx, actorOf(f.manager), f.resident.ID, SetRestrictionInput{
		CommonSpaceID: f.space.ID,
		IsBlocked:     true,
		Reason:        &reason,
	})
	require.NoError(t, err)
	assert.True(t, first.IsBlocked)
	require.NotNil(t, first.Reason)
	assert.Equal(t, "noise complaints", *first.Reason)
	require.NotNil(t, first.UpdatedBy)
	assert.Equal(t, f.manager.ID, *first.UpdatedBy)

	second, err := f.restrictionSvc.SetRestriction(ctx, actorOf(f.manager), f.resident.ID, SetRestrictionInput{
		CommonSpaceID: f.space.ID,
		IsBlocked:     false,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "one row per user and space")
	assert.Len(t, f.restrictions.Restrictions, 1)

	blocked, err := f.restrictionSvc.IsBlocked(ctx, f.resident.ID, f.space.ID)
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestSetRestriction_Errors(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()
	longReason := strings.Repeat("x", domain.MaxReasonLength+1)
	otherManager := f.users.NewUser(domain.RoleManager)

	tests := []struct {
		name    string
		actor   domain.Actor
		userID  uuid.UUID
		input   SetRestrictionInput
		wantErr error
	}{
		{"resident actor", actorOf(f.resident), f.resident.ID, SetRestrictionInput{CommonSpaceID: f.space.ID}, domain.ErrAccessDenied},
		{"missing space id", actorOf(f.manager), f.resident.ID, SetRestrictionInput{}, domain.ErrSpaceIDMissing},
		{"long reason", actorOf(f.manager), f.resident.ID, SetRestrictionInput{CommonSpaceID: f.space.ID, Reason: &longReason}, domain.ErrReasonTooLong},
		{"unknown user", actorOf(f.manager), uuid.New(), SetRestrictionInput{CommonSpaceID: f.space.ID}, domain.ErrUserNotFound},
		{"unknown space", actorOf(f.manager), f.resident.ID, SetRestrictionInput{CommonSpaceID: uuid.New()}, domain.ErrCommonSpaceNotFound},
		{"manager of other building", actorOf(otherManager), f.resident.ID, SetRestrictionInput{CommonSpaceID: f.space.ID}, domain.ErrAccessDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.restrictionSvc.SetRestriction(ctx, tt.actor, tt.userID, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Empty(t, f.restrictions.Restrictions)
}

func TestIsBlocked_NoRow(t *testing.T) {
	f := newReservationFixture(t)

	blocked, err := f.restrictionSvc.IsBlocked(context.Background(), f.resident.ID, f.space.ID)
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestListRestrictions(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()
	other := f.directory.AddBuilding("Elm House")
	pool := f.spaces.AddSpace(&domain.CommonSpace{BuildingID: other.ID, Name: "Pool"})

	_, err := f.restrictions.Upsert(ctx, &domain.Restriction{UserID: f.resident.ID, CommonSpaceID: f.space.ID, IsBlocked: true})
	require.NoError(t, err)
	_, err = f.restrictions.Upsert(ctx, &domain.Restriction{UserID: f.resident.ID, CommonSpaceID: pool.ID, IsBlocked: true})
	require.NoError(t, err)

	own, err := f.restrictionSvc.ListRestrictions(ctx, actorOf(f.resident), f.resident.ID)
	require.NoError(t, err)
	assert.Len(t, own, 2)

	managed, err := f.restrictionSvc.ListRestrictions(ctx, actorOf(f.manager), f.resident.ID)
	require.NoError(t, err)
	require.Len(t, managed, 1)
	assert.Equal(t, f.space.ID, managed[0].CommonSpaceID)

	_, err = f.restrictionSvc.ListRestrictions(ctx, actorOf(f.newResident()), f.resident.ID)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
}
