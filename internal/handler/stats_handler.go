package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dafibh/habitat/habitat-backend/internal/middleware"
	"github.com/dafibh/habitat/habitat-backend/internal/service"
	"github.com/labstack/echo/v4"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// StatsHandler handles usage statistics HTTP requests
type StatsHandler struct {
	usageService  *service.UsageService
	exportService *service.ExportService
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(usageService *service.UsageService, exportService *service.ExportService) *StatsHandler {
	return &StatsHandler{
		usageService:  usageService,
		exportService: exportService,
	}
}

// UserUsageResponse is one user's row in the usage report
type UserUsageResponse struct {
	UserID       string `json:"userId"`
	TotalHours   string `json:"totalHours"`
	BookingCount int    `json:"bookingCount"`
}

// UsageTotalsResponse sums the usage report
type UsageTotalsResponse struct {
	TotalHours   string `json:"totalHours"`
	BookingCount int    `json:"bookingCount"`
	UniqueUsers  int    `json:"uniqueUsers"`
}

// SpaceStatisticsResponse represents the usage report of a common space
type SpaceStatisticsResponse struct {
	CommonSpaceID string              `json:"commonSpaceId"`
	Since         string              `json:"since"`
	PerUser       []UserUsageResponse `json:"perUser"`
	Totals        UsageTotalsResponse `json:"totals"`
}

// GetStatistics handles GET /api/v1/common-spaces/:id/stats
// @Summary Usage statistics of a common space
// @Tags stats
// @Produce json
// @Param id path string true "Common space ID"
// @Param since query string false "Cutoff (RFC 3339), defaults to 12 months back"
// @Success 200 {object} SpaceStatisticsResponse
// @Failure 403 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Security BearerAuth
// @Router /common-spaces/{id}/stats [get]
func (h *StatsHandler) GetStatistics(c echo.Context) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return NewUnauthorizedError(c, "Authentication required")
	}
	spaceID, ok := parseUUIDParam(c, "id")
	if !ok {
		return invalidIDError(c, "id")
	}
	since, ok := parseTimeQuery(c, "since")
	if !ok {
		return invalidTimeError(c, "since")
	}

	stats, err := h.usageService.SpaceStatistics(c.Request().Context(), actor, spaceID, since)
	if err != nil {
		return HandleServiceError(c, err, "get statistics")
	}

	perUser := make([]UserUsageResponse, len(stats.PerUser))
	for i, u := range stats.PerUser {
		perUser[i] = UserUsageResponse{
			UserID:       u.UserID.String(),
			TotalHours:   u.TotalHours.StringFixed(2),
			BookingCount: u.BookingCount,
		}
	}

	return c.JSON(http.StatusOK, SpaceStatisticsResponse{
		CommonSpaceID: stats.CommonSpaceID.String(),
		Since:         stats.Since.Format(time.RFC3339),
		PerUser:       perUser,
		Totals: UsageTotalsResponse{
			TotalHours:   stats.Totals.TotalHours.StringFixed(2),
			BookingCount: stats.Totals.BookingCount,
			UniqueUsers:  stats.Totals.UniqueUsers,
		},
	})
}

// ExportStatistics handles GET /api/v1/common-spaces/:id/stats.xlsx
// @Summary Download usage statistics as a spreadsheet
// @Tags stats
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Common space ID"
// @Param since query string false "Cutoff (RFC 3339), defaults to 12 months back"
// @Success 200 {file} file
// @Failure 403 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Security BearerAuth
// @Router /common-spaces/{id}/stats.xlsx [get]
func (h *StatsHandler) ExportStatistics(c echo.Context) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return NewUnauthorizedError(c, "Authentication required")
	}
	spaceID, ok := parseUUIDParam(c, "id")
	if !ok {
		return invalidIDError(c, "id")
	}
	since, ok := parseTimeQuery(c, "since")
	if !ok {
		return invalidTimeError(c, "since")
	}

	buf, filename, err := h.exportService.StatisticsWorkbook(c.Request().Context(), actor, spaceID, since)
	if err != nil {
		return HandleServiceError(c, err, "export statistics")
	}

	c.Response().Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}
