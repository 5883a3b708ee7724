package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restrictionsPath(f *apiFixture) string {
	return "/api/v1/common-spaces/users/" + f.resident.ID.String() + "/restrictions"
}

func TestSetRestriction(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(http.MethodPost, restrictionsPath(f), `{"common_space_id":"`+f.space.ID.String()+`","is_blocked":true,"reason":"Left the room dirty"}`, f.manager)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var blocked RestrictionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &blocked))
	assert.True(t, blocked.IsBlocked)
	require.NotNil(t, blocked.Reason)
	assert.Equal(t, "Left the room dirty", *blocked.Reason)
	require.NotNil(t, blocked.UpdatedBy)
	assert.Equal(t, f.manager.ID.String(), *blocked.UpdatedBy)

	// Unblocking replaces the same row
	rec = f.do(http.MethodPost, restrictionsPath(f), `{"common_space_id":"`+f.space.ID.String()+`","is_blocked":false}`, f.manager)
	require.Equal(t, http.StatusOK, rec.Code)
	var unblocked RestrictionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &unblocked))
	assert.False(t, unblocked.IsBlocked)
	assert.Equal(t, blocked.ID, unblocked.ID)

	rec = f.do(http.MethodPost, bookingsPath(f), bookingBody(monday(9, 0), monday(10, 0)), f.resident)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestSetRestriction_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		body       func(f *apiFixture) string
		asResident bool
		wantStatus int
		wantField  string
	}{
		{
			name:       "resident cannot block",
			body:       func(f *apiFixture) string { return `{"common_space_id":"` + f.space.ID.String() + `","is_blocked":true}` },
			asResident: true,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "missing blocked flag",
			body:       func(f *apiFixture) string { return `{"common_space_id":"` + f.space.ID.String() + `"}` },
			wantStatus: http.StatusBadRequest,
			wantField:  "is_blocked",
		},
		{
			name:       "missing space",
			body:       func(f *apiFixture) string { return `{"is_blocked":true}` },
			wantStatus: http.StatusBadRequest,
			wantField:  "common_space_id",
		},
		{
			name:       "malformed space id",
			body:       func(f *apiFixture) string { return `{"common_space_id":"room-1","is_blocked":true}` },
			wantStatus: http.StatusBadRequest,
			wantField:  "common_space_id",
		},
		{
			name:       "unknown space",
			body:       func(f *apiFixture) string { return `{"common_space_id":"7d0c4a4e-4c53-4c1e-9d7e-8f7f0f2a9e11","is_blocked":true}` },
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAPIFixture(t)
			user := f.manager
			if tt.asResident {
				user = f.resident
			}

			rec := f.do(http.MethodPost, restrictionsPath(f), tt.body(f), user)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantField != "" {
				problem := decodeProblem(t, rec)
				require.NotEmpty(t, problem.Errors)
				assert.Equal(t, tt.wantField, problem.Errors[0].Field)
			}
		})
	}
}

func TestListRestrictions(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(http.MethodPost, restrictionsPath(f), `{"common_space_id":"`+f.space.ID.String()+`","is_blocked":true}`, f.manager)
	require.Equal(t, http.StatusOK, rec.Code)

	for _, user := range []struct {
		name   string
		status int
		count  int
	}{
		{"resident reads own", http.StatusOK, 1},
		{"manager of building", http.StatusOK, 1},
		{"other tenant", http.StatusForbidden, 0},
	} {
		t.Run(user.name, func(t *testing.T) {
			actor := f.resident
			switch user.name {
			case "manager of building":
				actor = f.manager
			case "other tenant":
				actor = f.outsider
			}

			rec := f.do(http.MethodGet, restrictionsPath(f), "", actor)
			require.Equal(t, user.status, rec.Code)
			if user.status != http.StatusOK {
				return
			}
			var rows []RestrictionResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
			assert.Len(t, rows, user.count)
		})
	}
}
