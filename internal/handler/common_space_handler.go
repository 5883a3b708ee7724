package handler

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dafibh/habitat/habitat-backend/internal/domain"
	"github.com/dafibh/habitat/habitat-backend/internal/middleware"
	"github.com/dafibh/habitat/habitat-backend/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// CommonSpaceHandler handles common-space HTTP requests
type CommonSpaceHandler struct {
	spaceService *service.CommonSpaceService
}

// NewCommonSpaceHandler creates a new CommonSpaceHandler
func NewCommonSpaceHandler(spaceService *service.CommonSpaceService) *CommonSpaceHandler {
	return &CommonSpaceHandler{spaceService: spaceService}
}

// CommonSpaceRequest represents the editable fields of a common space
type CommonSpaceRequest struct {
	Name            string              `json:"name" validate:"required,max=255"`
	Description     *string             `json:"description,omitempty" validate:"omitempty,max=2000"`
	IsReservable    bool                `json:"is_reservable"`
	Capacity        *int32              `json:"capacity,omitempty" validate:"omitempty,gt=0"`
	ContactPersonID *string             `json:"contact_person_id,omitempty" validate:"omitempty,uuid"`
	OpeningHours    domain.OpeningHours `json:"opening_hours,omitempty"`
	BookingRules    *string             `json:"booking_rules,omitempty"`
}

// CreateCommonSpaceRequest represents the create common space request body
type CreateCommonSpaceRequest struct {
	BuildingID string `json:"building_id" validate:"required,uuid"`
	CommonSpaceRequest
}

// CommonSpaceResponse represents a common space in API responses
type CommonSpaceResponse struct {
	ID              string              `json:"id"`
	BuildingID      string              `json:"buildingId"`
	Name            string              `json:"name"`
	Description     *string             `json:"description,omitempty"`
	IsReservable    bool                `json:"isReservable"`
	Capacity        *int32              `json:"capacity,omitempty"`
	ContactPersonID *string             `json:"contactPersonId,omitempty"`
	OpeningHours    domain.OpeningHours `json:"openingHours"`
	BookingRules    *string             `json:"bookingRules,omitempty"`
	ImageURL        *string             `json:"imageUrl,omitempty"`
	Status          string              `json:"status"`
	CreatedAt       string              `json:"createdAt"`
	UpdatedAt       string              `json:"updatedAt"`
}

// ListSpaces handles GET /api/v1/common-spaces
// @Summary List common spaces
// @Tags common-spaces
// @Produce json
// @Param building_id query string false "Restrict to one building"
// @Success 200 {array} CommonSpaceResponse
// @Failure 403 {object} ProblemDetails
// @Security BearerAuth
// @Router /common-spaces [get]
func (h *CommonSpaceHandler) ListSpaces(c echo.Context) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var buildingID *uuid.UUID
	if raw := c.QueryParam("building_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return NewValidationError(c, "Invalid building ID", []ValidationError{
				{Field: "building_id", Message: "Must be a valid UUID"},
			})
		}
		buildingID = &id
	}

	spaces, err := h.spaceService.ListSpaces(c.Request().Context(), actor, buildingID)
	if err != nil {
		return HandleServiceError(c, err, "list common spaces")
	}

	response := make([]CommonSpaceResponse, len(spaces))
	for i, space := range spaces {
		response[i] = h.toResponse(c, space)
	}
	return c.JSON(http.StatusOK, response)
}

// GetSpace handles GET /api/v1/common-spaces/:id
// @Summary Get a common space
// @Tags common-spaces
// @Produce json
// @Param id path string true "Common space ID"
// @Success 200 {object} CommonSpaceResponse
// @Failure 403 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Security BearerAuth
// @Router /common-spaces/{id} [get]
func (h *CommonSpaceHandler) GetSpace(c echo.Context) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return NewUnauthorizedError(c, "Authentication required")
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return invalidIDError(c, "id")
	}

	space, err := h.spaceService.GetSpace(c.Request().Context(), actor, id)
	if err != nil {
		return HandleServiceError(c, err, "get common space")
	}
	return c.JSON(http.StatusOK, h.toResponse(c, space))
}

// CreateSpace handles POST /api/v1/common-spaces
// @Summary Create a common space
// @Tags common-spaces
// @Accept json
// @Produce json
// @Param request body CreateCommonSpaceRequest true "Common space"
// @Success 201 {object} CommonSpaceResponse
// @Failure 400 {object} ProblemDetails
// @Failure 403 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Security BearerAuth
// @Router /common-spaces [post]
func (h *CommonSpaceHandler) CreateSpace(c echo.Context) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return NewUnauthorizedError(c, "Authentication required")
	}

	req := CreateCommonSpaceRequest{CommonSpaceRequest: CommonSpaceRequest{IsReservable: true}}
	if ok, err := bindRequest(c, &req); !ok {
		return err
	}

	input, ok := toSpaceInput(req.CommonSpaceRequest)
	if !ok {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "contact_person_id", Message: "Must be a valid UUID"},
		})
	}

	space, err := h.spaceService.CreateSpace(c.Request().Context(), actor, service.CreateSpaceInput{
		BuildingID: uuid.MustParse(req.BuildingID),
		SpaceInput: input,
	})
	if err != nil {
		return HandleServiceError(c, err, "create common space")
	}

	return c.JSON(http.StatusCreated, h.toResponse(c, space))
}

// UpdateSpace handles PUT /api/v1/common-spaces/:id
// @Summary Update a common space
// @Tags common-spaces
// @Accept json
// @Produce json
// @Param id path string true "Common space ID"
// @Param request body CommonSpaceRequest true "Common space"
// @Success 200 {object} CommonSpaceResponse
// @Failure 400 {object} ProblemDetails
// @Failure 403 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Security BearerAuth
// @Router /common-spaces/{id} [put]
func (h *CommonSpaceHandler) UpdateSpace(c echo.Context) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return NewUnauthorizedError(c, "Authentication required")
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return invalidIDError(c, "id")
	}

	req := CommonSpaceRequest{IsReservable: true}
	if ok, err := bindRequest(c, &req); !ok {
		return err
	}

	input, ok := toSpaceInput(req)
	if !ok {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "contact_person_id", Message: "Must be a valid UUID"},
		})
	}

	space, err := h.spaceService.UpdateSpace(c.Request().Context(), actor, id, input)
	if err != nil {
		return HandleServiceError(c, err, "update common space")
	}

	return c.JSON(http.StatusOK, h.toResponse(c, space))
}

// UploadImage handles POST /api/v1/common-spaces/:id/image
// @Summary Upload a common space photo
// @Tags common-spaces
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Common space ID"
// @Param file formData file true "JPEG, PNG or WebP image"
// @Success 200 {object} CommonSpaceResponse
// @Failure 400 {object} ProblemDetails
// @Failure 403 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 503 {object} ProblemDetails
// @Security BearerAuth
// @Router /common-spaces/{id}/image [post]
func (h *CommonSpaceHandler) UploadImage(c echo.Context) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return NewUnauthorizedError(c, "Authentication required")
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return invalidIDError(c, "id")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return NewValidationError(c, "No file provided", []ValidationError{
			{Field: "file", Message: "File is required"},
		})
	}

	src, err := file.Open()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open uploaded file")
		return NewInternalError(c, "Failed to process file")
	}
	defer src.Close()

	// One byte over the limit is enough to reject the upload
	data, err := io.ReadAll(io.LimitReader(src, service.MaxImageSize+1))
	if err != nil {
		log.Error().Err(err).Msg("Failed to read uploaded file")
		return NewInternalError(c, "Failed to read file")
	}

	space, err := h.spaceService.SetSpaceImage(c.Request().Context(), actor, id, data, file.Filename)
	if err != nil {
		return HandleServiceError(c, err, "upload common space image")
	}

	return c.JSON(http.StatusOK, h.toResponse(c, space))
}

func toSpaceInput(req CommonSpaceRequest) (service.SpaceInput, bool) {
	contactID, err := parseOptionalUUID(req.ContactPersonID)
	if err != nil {
		return service.SpaceInput{}, false
	}
	return service.SpaceInput{
		Name:            strings.TrimSpace(req.Name),
		Description:     req.Description,
		IsReservable:    req.IsReservable,
		Capacity:        req.Capacity,
		ContactPersonID: contactID,
		OpeningHours:    req.OpeningHours,
		BookingRules:    req.BookingRules,
	}, true
}

func (h *CommonSpaceHandler) toResponse(c echo.Context, space *domain.CommonSpace) CommonSpaceResponse {
	resp := CommonSpaceResponse{
		ID:           space.ID.String(),
		BuildingID:   space.BuildingID.String(),
		Name:         space.Name,
		Description:  space.Description,
		IsReservable: space.IsReservable,
		Capacity:     space.Capacity,
		OpeningHours: space.OpeningHours,
		BookingRules: space.BookingRules,
		ImageURL:     h.spaceService.PhotoURL(c.Request().Context(), space),
		Status:       string(space.Status),
		CreatedAt:    space.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    space.UpdatedAt.Format(time.RFC3339),
	}
	if resp.OpeningHours == nil {
		resp.OpeningHours = domain.OpeningHours{}
	}
	if space.ContactPersonID != nil {
		contact := space.ContactPersonID.String()
		resp.ContactPersonID = &contact
	}
	return resp
}
