package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dafibh/habitat/habitat-backend/internal/domain"
	"github.com/dafibh/habitat/habitat-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		wantStatus     int
		wantCode       string
		wantField      string
		wantRetryAfter string
	}{
		{"range", domain.ErrInvalidRange, http.StatusBadRequest, CodeInvalidRange, "", ""},
		{"not reservable", domain.ErrNotReservable, http.StatusBadRequest, CodeNotReservable, "", ""},
		{"outside hours", domain.ErrOutsideOpeningHours, http.StatusBadRequest, CodeOutsideOpeningHours, "", ""},
		{"field error", domain.ErrInvalidLimitType, http.StatusBadRequest, CodeValidation, "limit_type", ""},
		{"image error", service.ErrImageTooSmall, http.StatusBadRequest, CodeValidation, "file", ""},
		{"blocked", domain.ErrBlocked, http.StatusForbidden, CodeBlocked, "", ""},
		{"access denied", domain.ErrAccessDenied, http.StatusForbidden, CodeAccessDenied, "", ""},
		{"wrapped not found", fmt.Errorf("load space: %w", domain.ErrCommonSpaceNotFound), http.StatusNotFound, CodeNotFound, "", ""},
		{"time conflict", domain.ErrTimeConflict, http.StatusConflict, CodeTimeConflict, "", ""},
		{"duplicate name", domain.ErrDuplicateSpaceName, http.StatusConflict, CodeDuplicateName, "", ""},
		{"already cancelled", domain.ErrBookingAlreadyCancelled, http.StatusConflict, CodeAlreadyCancelled, "", ""},
		{"lock timeout", domain.ErrSpaceLockTimeout, http.StatusServiceUnavailable, CodeSpaceBusy, "", "1"},
		{"storage disabled", service.ErrImageStorageNotConfigured, http.StatusServiceUnavailable, CodeStorageDisabled, "", ""},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError, CodeInternal, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/common-spaces", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			require.NoError(t, HandleServiceError(c, tt.err, "do something"))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantRetryAfter, rec.Header().Get("Retry-After"))

			problem := decodeProblem(t, rec)
			assert.Equal(t, tt.wantCode, problem.Code)
			assert.Equal(t, tt.wantStatus, problem.Status)
			assert.Equal(t, "/api/v1/common-spaces", problem.Instance)
			if tt.wantField != "" {
				require.Len(t, problem.Errors, 1)
				assert.Equal(t, tt.wantField, problem.Errors[0].Field)
			}
			if tt.wantStatus == http.StatusInternalServerError {
				assert.Equal(t, "Failed to do something", problem.Detail)
				assert.NotContains(t, rec.Body.String(), "connection reset")
			}
		})
	}
}

func TestHandleServiceError_QuotaExceeded(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/common-spaces/x/bookings", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	quotaErr := &domain.QuotaExceededError{
		LimitType:      domain.LimitTypeMonthly,
		LimitHours:     decimal.NewFromInt(5),
		UsedHours:      decimal.NewFromFloat(4.5),
		RequestedHours: decimal.NewFromInt(1),
		RemainingHours: decimal.NewFromFloat(0.5),
	}
	require.NoError(t, HandleServiceError(c, fmt.Errorf("commit: %w", quotaErr), "create booking"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, CodeQuotaExceeded, body["code"])
	assert.Equal(t, 0.5, body["remainingHours"])
	assert.Contains(t, rec.Body.String(), `"remainingHours":0.50`)
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Booking not found", capitalize("booking not found"))
	assert.Equal(t, "", capitalize(""))
	assert.Equal(t, "9 lives", capitalize("9 lives"))
}
