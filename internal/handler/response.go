package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dafibh/habitat/habitat-backend/internal/domain"
	"github.com/dafibh/habitat/habitat-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type           string            `json:"type"`
	Title          string            `json:"title"`
	Status         int               `json:"status"`
	Detail         string            `json:"detail,omitempty"`
	Instance       string            `json:"instance,omitempty"`
	Code           string            `json:"code"`
	RemainingHours *json.Number      `json:"remainingHours,omitempty" swaggertype:"number"`
	Errors         []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error types
const (
	ErrorTypeValidation   = "https://habitat.app/errors/validation"
	ErrorTypeNotFound     = "https://habitat.app/errors/not-found"
	ErrorTypeUnauthorized = "https://habitat.app/errors/unauthorized"
	ErrorTypeForbidden    = "https://habitat.app/errors/forbidden"
	ErrorTypeConflict     = "https://habitat.app/errors/conflict"
	ErrorTypeUnavailable  = "https://habitat.app/errors/unavailable"
	ErrorTypeInternal     = "https://habitat.app/errors/internal"
)

// Machine-readable error codes
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeInvalidRange        = "INVALID_RANGE"
	CodeNotReservable       = "NOT_RESERVABLE"
	CodeOutsideOpeningHours = "OUTSIDE_OPENING_HOURS"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeAccessDenied        = "ACCESS_DENIED"
	CodeBlocked             = "BLOCKED"
	CodeQuotaExceeded       = "QUOTA_EXCEEDED"
	CodeNotFound            = "NOT_FOUND"
	CodeTimeConflict        = "TIME_CONFLICT"
	CodeDuplicateName       = "DUPLICATE_NAME"
	CodeAlreadyCancelled    = "ALREADY_CANCELLED"
	CodeSpaceBusy           = "SPACE_BUSY"
	CodeStorageDisabled     = "STORAGE_DISABLED"
	CodeInternal            = "INTERNAL_ERROR"
)

// spaceBusyRetryAfter is the Retry-After hint, in seconds, for SPACE_BUSY
const spaceBusyRetryAfter = 1

func problem(c echo.Context, status int, errorType, title, code, detail string) ProblemDetails {
	return ProblemDetails{
		Type:     errorType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Code:     code,
	}
}

// NewValidationError creates a validation error response
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	p := problem(c, http.StatusBadRequest, ErrorTypeValidation, "Validation Error", CodeValidation, detail)
	p.Errors = errors
	return c.JSON(http.StatusBadRequest, p)
}

// NewBadRequestError creates a 400 response with a domain-specific code
func NewBadRequestError(c echo.Context, code, detail string) error {
	return c.JSON(http.StatusBadRequest, problem(c, http.StatusBadRequest, ErrorTypeValidation, "Bad Request", code, detail))
}

// NewNotFoundError creates a not found error response
func NewNotFoundError(c echo.Context, detail string) error {
	return c.JSON(http.StatusNotFound, problem(c, http.StatusNotFound, ErrorTypeNotFound, "Not Found", CodeNotFound, detail))
}

// NewUnauthorizedError creates an unauthorized error response
func NewUnauthorizedError(c echo.Context, detail string) error {
	return c.JSON(http.StatusUnauthorized, problem(c, http.StatusUnauthorized, ErrorTypeUnauthorized, "Unauthorized", CodeUnauthorized, detail))
}

// NewForbiddenError creates a forbidden error response
func NewForbiddenError(c echo.Context, code, detail string) error {
	return c.JSON(http.StatusForbidden, problem(c, http.StatusForbidden, ErrorTypeForbidden, "Forbidden", code, detail))
}

// NewConflictError creates a conflict error response
func NewConflictError(c echo.Context, code, detail string) error {
	return c.JSON(http.StatusConflict, problem(c, http.StatusConflict, ErrorTypeConflict, "Conflict", code, detail))
}

// NewQuotaExceededError creates a 403 response carrying the remaining hours
func NewQuotaExceededError(c echo.Context, quotaErr *domain.QuotaExceededError) error {
	p := problem(c, http.StatusForbidden, ErrorTypeForbidden, "Forbidden", CodeQuotaExceeded, quotaErr.Error())
	remaining := json.Number(quotaErr.RemainingHours.StringFixed(2))
	p.RemainingHours = &remaining
	return c.JSON(http.StatusForbidden, p)
}

// NewServiceUnavailableError creates a 503 response
func NewServiceUnavailableError(c echo.Context, code, detail string, retryAfter int) error {
	if retryAfter > 0 {
		c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
	}
	return c.JSON(http.StatusServiceUnavailable, problem(c, http.StatusServiceUnavailable, ErrorTypeUnavailable, "Service Unavailable", code, detail))
}

// NewInternalError creates an internal error response
func NewInternalError(c echo.Context, detail string) error {
	return c.JSON(http.StatusInternalServerError, problem(c, http.StatusInternalServerError, ErrorTypeInternal, "Internal Server Error", CodeInternal, detail))
}

// validationField maps field-level domain errors to the request field they concern
var validationField = map[error]ValidationError{
	domain.ErrNameRequired:        {Field: "name", Message: "Name is required"},
	domain.ErrNameTooLong:         {Field: "name", Message: "Name must be 255 characters or less"},
	domain.ErrDescriptionTooLong:  {Field: "description", Message: "Description must be 2000 characters or less"},
	domain.ErrInvalidCapacity:     {Field: "capacity", Message: "Capacity must be a positive number"},
	domain.ErrInvalidOpeningDay:   {Field: "opening_hours", Message: "Day must be a weekday name"},
	domain.ErrInvalidOpeningTime:  {Field: "opening_hours", Message: "Times must be HH:MM"},
	domain.ErrOpeningAfterClosing: {Field: "opening_hours", Message: "Opening time must be before closing time"},
	domain.ErrDuplicateOpeningDay: {Field: "opening_hours", Message: "Each day may only be listed once"},
	domain.ErrReasonTooLong:       {Field: "reason", Message: "Reason must be 500 characters or less"},
	domain.ErrSpaceIDMissing:      {Field: "common_space_id", Message: "Common space ID is required"},
	domain.ErrInvalidLimitType:    {Field: "limit_type", Message: "Limit type must be monthly or yearly"},
	domain.ErrInvalidLimitHours:   {Field: "limit_hours", Message: "Limit hours must be between 0.01 and 8784 with at most 2 decimal places"},
	service.ErrImageTooLarge:      {Field: "file", Message: "File too large. Maximum size is 5MB"},
	service.ErrInvalidFormat:      {Field: "file", Message: "Invalid format. Supported: JPEG, PNG, WebP"},
	service.ErrImageTooSmall:      {Field: "file", Message: "Image too small. Minimum 50x50 pixels"},
	service.ErrInvalidImageData:   {Field: "file", Message: "Invalid image data"},
}

// notFoundErrors are the sentinels answered with 404
var notFoundErrors = []error{
	domain.ErrCommonSpaceNotFound,
	domain.ErrBookingNotFound,
	domain.ErrUserNotFound,
	domain.ErrBuildingNotFound,
	domain.ErrTimeLimitNotFound,
	domain.ErrRestrictionNotFound,
	domain.ErrNotFound,
}

// HandleServiceError writes the problem response for err. Unexpected
// errors are logged with the failed action and answered with a bare 500.
func HandleServiceError(c echo.Context, err error, action string) error {
	var quotaErr *domain.QuotaExceededError
	if errors.As(err, &quotaErr) {
		return NewQuotaExceededError(c, quotaErr)
	}

	for sentinel, field := range validationField {
		if errors.Is(err, sentinel) {
			return NewValidationError(c, "Validation failed", []ValidationError{field})
		}
	}
	for _, sentinel := range notFoundErrors {
		if errors.Is(err, sentinel) {
			return NewNotFoundError(c, capitalize(sentinel.Error()))
		}
	}

	switch {
	case errors.Is(err, domain.ErrInvalidRange):
		return NewBadRequestError(c, CodeInvalidRange, "End must be after start and start must not be in the past")
	case errors.Is(err, domain.ErrNotReservable):
		return NewBadRequestError(c, CodeNotReservable, "Common space is not reservable")
	case errors.Is(err, domain.ErrOutsideOpeningHours):
		return NewBadRequestError(c, CodeOutsideOpeningHours, "Requested time is outside the opening hours")
	case errors.Is(err, domain.ErrInvalidInput):
		return NewValidationError(c, "Invalid input", nil)
	case errors.Is(err, domain.ErrBlocked):
		return NewForbiddenError(c, CodeBlocked, "You are blocked from booking this common space")
	case errors.Is(err, domain.ErrAccessDenied):
		return NewForbiddenError(c, CodeAccessDenied, "Access denied")
	case errors.Is(err, domain.ErrTimeConflict):
		return NewConflictError(c, CodeTimeConflict, "Requested time overlaps an existing booking")
	case errors.Is(err, domain.ErrDuplicateSpaceName):
		return NewConflictError(c, CodeDuplicateName, "A common space with this name already exists in the building")
	case errors.Is(err, domain.ErrBookingAlreadyCancelled):
		return NewConflictError(c, CodeAlreadyCancelled, "Booking is already cancelled")
	case errors.Is(err, domain.ErrSpaceLockTimeout):
		return NewServiceUnavailableError(c, CodeSpaceBusy, "Common space is busy, please retry", spaceBusyRetryAfter)
	case errors.Is(err, service.ErrImageStorageNotConfigured):
		return NewServiceUnavailableError(c, CodeStorageDisabled, "Image uploads are disabled (storage not configured)", 0)
	}

	log.Error().Err(err).Str("path", c.Request().URL.Path).Msg("Failed to " + action)
	return NewInternalError(c, "Failed to "+action)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
