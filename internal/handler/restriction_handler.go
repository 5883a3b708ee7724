package handler

import (
	"net/http"
	"time"

	"github.com/dafibh/habitat/habitat-backend/internal/domain"
	"github.com/dafibh/habitat/habitat-backend/internal/middleware"
	"github.com/dafibh/habitat/habitat-backend/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RestrictionHandler handles booking restriction HTTP requests
type RestrictionHandler struct {
	restrictionService *service.RestrictionService
}

// NewRestrictionHandler creates a new RestrictionHandler
func NewRestrictionHandler(restrictionService *service.RestrictionService) *RestrictionHandler {
	return &RestrictionHandler{restrictionService: restrictionService}
}

// SetRestrictionRequest represents the block/unblock request body
type SetRestrictionRequest struct {
	CommonSpaceID string  `json:"common_space_id" validate:"omitempty,uuid"`
	IsBlocked     *bool   `json:"is_blocked" validate:"required"`
	Reason        *string `json:"reason,omitempty"`
}

// RestrictionResponse represents a restriction in API responses
type RestrictionResponse struct {
	ID            string  `json:"id"`
	UserID        string  `json:"userId"`
	CommonSpaceID string  `json:"commonSpaceId"`
	IsBlocked     bool    `json:"isBlocked"`
	Reason        *string `json:"reason,omitempty"`
	UpdatedBy     *string `json:"updatedBy,omitempty"`
	UpdatedAt     string  `json:"updatedAt"`
}

// SetRestriction handles POST /api/v1/common-spaces/users/:id/restrictions
// @Summary Block or unblock a user on a common space
// @Tags restrictions
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param request body SetRestrictionRequest true "Restriction"
// @Success 200 {object} RestrictionResponse
// @Failure 400 {object} ProblemDetails
// @Failure 403 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Security BearerAuth
// @Router /common-spaces/users/{id}/restrictions [post]
func (h *RestrictionHandler) SetRestriction(c echo.Context) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return NewUnauthorizedError(c, "Authentication required")
	}
	userID, ok := parseUUIDParam(c, "id")
	if !ok {
		return invalidIDError(c, "id")
	}

	var req SetRestrictionRequest
	if ok, err := bindRequest(c, &req); !ok {
		return err
	}

	// An empty space ID reaches the service, which rejects it after the role check
	var spaceID uuid.UUID
	if req.CommonSpaceID != "" {
		spaceID = uuid.MustParse(req.CommonSpaceID)
	}

	restriction, err := h.restrictionService.SetRestriction(c.Request().Context(), actor, userID, service.SetRestrictionInput{
		CommonSpaceID: spaceID,
		IsBlocked:     *req.IsBlocked,
		Reason:        req.Reason,
	})
	if err != nil {
		return HandleServiceError(c, err, "set restriction")
	}

	return c.JSON(http.StatusOK, toRestrictionResponse(restriction))
}

// ListRestrictions handles GET /api/v1/common-spaces/users/:id/restrictions
// @Summary List a user's booking restrictions
// @Tags restrictions
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {array} RestrictionResponse
// @Failure 403 {object} ProblemDetails
// @Security BearerAuth
// @Router /common-spaces/users/{id}/restrictions [get]
func (h *RestrictionHandler) ListRestrictions(c echo.Context) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return NewUnauthorizedError(c, "Authentication required")
	}
	userID, ok := parseUUIDParam(c, "id")
	if !ok {
		return invalidIDError(c, "id")
	}

	rows, err := h.restrictionService.ListRestrictions(c.Request().Context(), actor, userID)
	if err != nil {
		return HandleServiceError(c, err, "list restrictions")
	}

	response := make([]RestrictionResponse, len(rows))
	for i, r := range rows {
		response[i] = toRestrictionResponse(r)
	}
	return c.JSON(http.StatusOK, response)
}

func toRestrictionResponse(r *domain.Restriction) RestrictionResponse {
	resp := RestrictionResponse{
		ID:            r.ID.String(),
		UserID:        r.UserID.String(),
		CommonSpaceID: r.CommonSpaceID.String(),
		IsBlocked:     r.IsBlocked,
		Reason:        r.Reason,
		UpdatedAt:     r.UpdatedAt.Format(time.RFC3339),
	}
	if r.UpdatedBy != nil {
		updatedBy := r.UpdatedBy.String()
		resp.UpdatedBy = &updatedBy
	}
	return resp
}
