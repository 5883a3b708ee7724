package handler

import (
	"net/http"
	"time"

	"github.com/dafibh/habitat/habitat-backend/internal/domain"
	"github.com/dafibh/habitat/habitat-backend/internal/middleware"
	"github.com/dafibh/habitat/habitat-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// TimeLimitHandler handles booking quota HTTP requests
type TimeLimitHandler struct {
	timeLimitService *service.TimeLimitService
}

// NewTimeLimitHandler creates a new TimeLimitHandler
func NewTimeLimitHandler(timeLimitService *service.TimeLimitService) *TimeLimitHandler {
	return &TimeLimitHandler{timeLimitService: timeLimitService}
}

// SetTimeLimitRequest represents the set time limit request body. Omitting
// common_space_id sets the global limit.
type SetTimeLimitRequest struct {
	CommonSpaceID *string `json:"common_space_id,omitempty" validate:"omitempty,uuid"`
	LimitType     string  `json:"limit_type" validate:"required"`
	LimitHours    string  `json:"limit_hours" validate:"required,decimal"`
}

// TimeLimitResponse represents a time limit in API responses
type TimeLimitResponse struct {
	ID            string  `json:"id"`
	UserID        string  `json:"userId"`
	CommonSpaceID *string `json:"commonSpaceId"`
	LimitType     string  `json:"limitType"`
	LimitHours    string  `json:"limitHours"`
	UpdatedAt     string  `json:"updatedAt"`
}

// TimeLimitUsageResponse is a time limit with its consumption in the current period
type TimeLimitUsageResponse struct {
	TimeLimitResponse
	PeriodStart    string `json:"periodStart"`
	UsedHours      string `json:"usedHours"`
	RemainingHours string `json:"remainingHours"`
}

// SetTimeLimit handles POST /api/v1/common-spaces/users/:id/time-limits
// @Summary Set a user's booking time limit
// @Tags time-limits
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body SetTimeLimitRequest true "Time limit"
// @Success 200 {object} TimeLimitResponse
// @Failure 400 {object} ProblemDetails
// @Failure 403 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Security BearerAuth
// @Router /common-spaces/users/{id}/time-limits [post]
func (h *TimeLimitHandler) SetTimeLimit(c echo.Context) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return NewUnauthorizedError(c, "Authentication required")
	}
	userID, ok := parseUUIDParam(c, "id")
	if !ok {
		return invalidIDError(c, "id")
	}

	var req SetTimeLimitRequest
	if ok, err := bindRequest(c, &req); !ok {
		return err
	}

	spaceID, err := parseOptionalUUID(req.CommonSpaceID)
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "common_space_id", Message: "Must be a valid UUID"},
		})
	}

	limit, err := h.timeLimitService.SetTimeLimit(c.Request().Context(), actor, userID, service.SetTimeLimitInput{
		CommonSpaceID: spaceID,
		LimitType:     domain.LimitType(req.LimitType),
		LimitHours:    decimal.RequireFromString(req.LimitHours),
	})
	if err != nil {
		return HandleServiceError(c, err, "set time limit")
	}

	return c.JSON(http.StatusOK, toTimeLimitResponse(limit))
}

// GetTimeLimits handles GET /api/v1/common-spaces/users/:id/time-limits
// @Summary List a user's time limits with current usage
// @Tags time-limits
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {array} TimeLimitUsageResponse
// @Failure 403 {object} ProblemDetails
// @Security BearerAuth
// @Router /common-spaces/users/{id}/time-limits [get]
func (h *TimeLimitHandler) GetTimeLimits(c echo.Context) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return NewUnauthorizedError(c, "Authentication required")
	}
	userID, ok := parseUUIDParam(c, "id")
	if !ok {
		return invalidIDError(c, "id")
	}

	usages, err := h.timeLimitService.GetUserLimits(c.Request().Context(), actor, userID)
	if err != nil {
		return HandleServiceError(c, err, "get time limits")
	}

	response := make([]TimeLimitUsageResponse, len(usages))
	for i, u := range usages {
		response[i] = TimeLimitUsageResponse{
			TimeLimitResponse: toTimeLimitResponse(u.Limit),
			PeriodStart:       u.PeriodStart.Format(time.RFC3339),
			UsedHours:         u.UsedHours.StringFixed(2),
			RemainingHours:    u.RemainingHours.StringFixed(2),
		}
	}
	return c.JSON(http.StatusOK, response)
}

// DeleteTimeLimit handles DELETE /api/v1/common-spaces/users/:id/time-limits/:limitId
// @Summary Remove a user's time limit
// @Tags time-limits
// @Param id path string true "User ID"
// @Param limitId path string true "Time limit ID"
// @Success 204
// @Failure 403 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Security BearerAuth
// @Router /common-spaces/users/{id}/time-limits/{limitId} [delete]
func (h *TimeLimitHandler) DeleteTimeLimit(c echo.Context) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return NewUnauthorizedError(c, "Authentication required")
	}
	userID, ok := parseUUIDParam(c, "id")
	if !ok {
		return invalidIDError(c, "id")
	}
	limitID, ok := parseUUIDParam(c, "limitId")
	if !ok {
		return invalidIDError(c, "limitId")
	}

	if err := h.timeLimitService.DeleteTimeLimit(c.Request().Context(), actor, userID, limitID); err != nil {
		return HandleServiceError(c, err, "delete time limit")
	}
	return c.NoContent(http.StatusNoContent)
}

func toTimeLimitResponse(l *domain.TimeLimit) TimeLimitResponse {
	resp := TimeLimitResponse{
		ID:         l.ID.String(),
		UserID:     l.UserID.String(),
		LimitType:  string(l.LimitType),
		LimitHours: l.LimitHours.StringFixed(2),
		UpdatedAt:  l.UpdatedAt.Format(time.RFC3339),
	}
	if l.CommonSpaceID != nil {
		spaceID := l.CommonSpaceID.String()
		resp.CommonSpaceID = &spaceID
	}
	return resp
}
