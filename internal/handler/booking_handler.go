package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dafibh/habitat/habitat-backend/internal/domain"
	"github.com/dafibh/habitat/habitat-backend/internal/middleware"
	"github.com/dafibh/habitat/habitat-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// BookingHandler handles booking HTTP requests
type BookingHandler struct {
	bookingService *service.BookingService
	exportService  *service.ExportService
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(bookingService *service.BookingService, exportService *service.ExportService) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		exportService:  exportService,
	}
}

// CreateBookingRequest represents the create booking request body
type CreateBookingRequest struct {
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	// UserID books on behalf of another user (managers only)
	UserID *string `json:"user_id,omitempty" validate:"omitempty,uuid"`
}

// BookingResponse represents a booking in API responses
type BookingResponse struct {
	ID            string  `json:"id"`
	CommonSpaceID string  `json:"commonSpaceId"`
	UserID        string  `json:"userId"`
	StartTime     string  `json:"startTime"`
	EndTime       string  `json:"endTime"`
	DurationHours string  `json:"durationHours"`
	Status        string  `json:"status"`
	CreatedBy     *string `json:"createdBy,omitempty"`
	CancelledBy   *string `json:"cancelledBy,omitempty"`
	CancelledAt   *string `json:"cancelledAt,omitempty"`
	CreatedAt     string  `json:"createdAt"`
	UpdatedAt     string  `json:"updatedAt"`
}

// ListBookings handles GET /api/v1/common-spaces/:id/bookings
// @Summary List bookings of a common space
// @Tags bookings
// @Produce json
// @Param id path string true "Common space ID"
// @Param start query string false "Window start (RFC 3339)"
// @Param end query string false "Window end (RFC 3339)"
// @Success 200 {array} BookingResponse
// @Failure 403 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Security BearerAuth
// @Router /common-spaces/{id}/bookings [get]
func (h *BookingHandler) ListBookings(c echo.Context) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return NewUnauthorizedError(c, "Authentication required")
	}
	spaceID, ok := parseUUIDParam(c, "id")
	if !ok {
		return invalidIDError(c, "id")
	}
	from, ok := parseTimeQuery(c, "start")
	if !ok {
		return invalidTimeError(c, "start")
	}
	to, ok := parseTimeQuery(c, "end")
	if !ok {
		return invalidTimeError(c, "end")
	}

	bookings, err := h.bookingService.ListBookings(c.Request().Context(), actor, spaceID, from, to)
	if err != nil {
		return HandleServiceError(c, err, "list bookings")
	}

	response := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		response[i] = toBookingResponse(b)
	}
	return c.JSON(http.StatusOK, response)
}

// CreateBooking handles POST /api/v1/common-spaces/:id/bookings
// @Summary Book a common space
// @Tags bookings
// @Accept json
// @Produce json
// @Param id path string true "Common space ID"
// @Param request body CreateBookingRequest true "Booking"
// @Success 201 {object} BookingResponse
// @Failure 400 {object} ProblemDetails
// @Failure 403 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Failure 429 {object} ProblemDetails
// @Failure 503 {object} ProblemDetails
// @Security BearerAuth
// @Router /common-spaces/{id}/bookings [post]
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return NewUnauthorizedError(c, "Authentication required")
	}
	spaceID, ok := parseUUIDParam(c, "id")
	if !ok {
		return invalidIDError(c, "id")
	}

	var req CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if err := c.Validate(&req); err != nil {
		// An inverted or empty range is a domain rejection, not malformed input
		if !req.StartTime.IsZero() && !req.EndTime.IsZero() && !req.StartTime.Before(req.EndTime) {
			return HandleServiceError(c, domain.ErrInvalidRange, "create booking")
		}
		return NewValidationError(c, "Validation failed", validationErrors(err))
	}

	onBehalfOf, err := parseOptionalUUID(req.UserID)
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "user_id", Message: "Must be a valid UUID"},
		})
	}

	booking, err := h.bookingService.CreateBooking(c.Request().Context(), actor, spaceID, service.CreateBookingInput{
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		UserID:    onBehalfOf,
	})
	if err != nil {
		return HandleServiceError(c, err, "create booking")
	}

	return c.JSON(http.StatusCreated, toBookingResponse(booking))
}

// GetBooking handles GET /api/v1/common-spaces/bookings/:id
// @Summary Get a booking
// @Tags bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} BookingResponse
// @Failure 403 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Security BearerAuth
// @Router /common-spaces/bookings/{id} [get]
func (h *BookingHandler) GetBooking(c echo.Context) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return NewUnauthorizedError(c, "Authentication required")
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return invalidIDError(c, "id")
	}

	booking, err := h.bookingService.GetBooking(c.Request().Context(), actor, id)
	if err != nil {
		return HandleServiceError(c, err, "get booking")
	}
	return c.JSON(http.StatusOK, toBookingResponse(booking))
}

// CancelBooking handles DELETE /api/v1/common-spaces/bookings/:id
// @Summary Cancel a booking
// @Tags bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} BookingResponse
// @Failure 403 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Security BearerAuth
// @Router /common-spaces/bookings/{id} [delete]
func (h *BookingHandler) CancelBooking(c echo.Context) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return NewUnauthorizedError(c, "Authentication required")
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return invalidIDError(c, "id")
	}

	booking, err := h.bookingService.CancelBooking(c.Request().Context(), actor, id)
	if err != nil {
		return HandleServiceError(c, err, "cancel booking")
	}
	return c.JSON(http.StatusOK, toBookingResponse(booking))
}

// ExportCalendar handles GET /api/v1/common-spaces/:id/bookings.ics
// @Summary Export confirmed bookings as iCalendar
// @Tags bookings
// @Produce text/calendar
// @Param id path string true "Common space ID"
// @Param start query string false "Window start (RFC 3339)"
// @Param end query string false "Window end (RFC 3339)"
// @Success 200 {string} string "iCalendar feed"
// @Failure 403 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Security BearerAuth
// @Router /common-spaces/{id}/bookings.ics [get]
func (h *BookingHandler) ExportCalendar(c echo.Context) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return NewUnauthorizedError(c, "Authentication required")
	}
	spaceID, ok := parseUUIDParam(c, "id")
	if !ok {
		return invalidIDError(c, "id")
	}
	from, ok := parseTimeQuery(c, "start")
	if !ok {
		return invalidTimeError(c, "start")
	}
	to, ok := parseTimeQuery(c, "end")
	if !ok {
		return invalidTimeError(c, "end")
	}

	feed, err := h.exportService.BookingsCalendar(c.Request().Context(), actor, spaceID, from, to)
	if err != nil {
		return HandleServiceError(c, err, "export bookings")
	}

	c.Response().Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.ics"`, spaceID))
	return c.Blob(http.StatusOK, "text/calendar; charset=utf-8", feed)
}

func toBookingResponse(b *domain.Booking) BookingResponse {
	resp := BookingResponse{
		ID:            b.ID.String(),
		CommonSpaceID: b.CommonSpaceID.String(),
		UserID:        b.UserID.String(),
		StartTime:     b.StartTime.Format(time.RFC3339),
		EndTime:       b.EndTime.Format(time.RFC3339),
		DurationHours: b.DurationHours().StringFixed(2),
		Status:        string(b.Status),
		CreatedAt:     b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     b.UpdatedAt.Format(time.RFC3339),
	}
	if b.CreatedBy != nil {
		createdBy := b.CreatedBy.String()
		resp.CreatedBy = &createdBy
	}
	if b.CancelledBy != nil {
		cancelledBy := b.CancelledBy.String()
		resp.CancelledBy = &cancelledBy
	}
	if b.CancelledAt != nil {
		cancelledAt := b.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &cancelledAt
	}
	return resp
}
