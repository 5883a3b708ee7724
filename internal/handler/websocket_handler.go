package handler

import (
	"context"
	"net/http"

	"github.com/dafibh/habitat/habitat-backend/internal/domain"
	"github.com/dafibh/habitat/habitat-backend/internal/service"
	"github.com/dafibh/habitat/habitat-backend/internal/websocket"
	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// JWTValidator resolves a raw token to the acting user
type JWTValidator interface {
	ValidateToken(ctx context.Context, token string) (domain.Actor, error)
}

// WebSocketHandler upgrades viewers onto a building's live feed
type WebSocketHandler struct {
	hub       *websocket.Hub
	validator JWTValidator
	access    *service.AccessService
	origins   map[string]struct{}
	upgrader  ws.Upgrader
}

func NewWebSocketHandler(hub *websocket.Hub, validator JWTValidator, access *service.AccessService, allowedOrigins []string) *WebSocketHandler {
	h := &WebSocketHandler{
		hub:       hub,
		validator: validator,
		access:    access,
		origins:   make(map[string]struct{}, len(allowedOrigins)),
	}
	for _, o := range allowedOrigins {
		h.origins[o] = struct{}{}
	}
	h.upgrader = ws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// checkOrigin admits listed browser origins and non-browser clients
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if _, ok := h.origins[origin]; ok {
		return true
	}
	log.Warn().Str("origin", origin).Msg("WebSocket origin rejected")
	return false
}

// HandleWS handles GET /ws?token=...&building_id=...
// @Summary Subscribe to a building's live booking feed
// @Description Browsers cannot set headers on an upgrade, so the token travels as a query parameter.
// @Description After connecting, send {"watch": ["<commonSpaceId>", ...]} to narrow the feed.
// @Tags realtime
// @Param token query string true "Access token"
// @Param building_id query string true "Building ID"
// @Success 101 {string} string "Switching Protocols"
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 403 {object} ProblemDetails
// @Router /ws [get]
func (h *WebSocketHandler) HandleWS(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return NewUnauthorizedError(c, "Missing token")
	}
	buildingID, err := uuid.Parse(c.QueryParam("building_id"))
	if err != nil {
		return NewValidationError(c, "Invalid building ID", []ValidationError{
			{Field: "building_id", Message: "Must be a valid UUID"},
		})
	}

	ctx := c.Request().Context()
	actor, err := h.validator.ValidateToken(ctx, token)
	if err != nil {
		log.Debug().Err(err).Msg("WebSocket token rejected")
		return NewUnauthorizedError(c, "Invalid token")
	}
	if err := h.access.RequireBuildingAccess(ctx, actor, buildingID); err != nil {
		return HandleServiceError(c, err, "authorize live feed")
	}

	// The upgrader writes its own error response on failure
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Debug().Err(err).Str("building_id", buildingID.String()).Msg("WebSocket upgrade failed")
		return nil
	}

	client := websocket.NewClient(conn, buildingID, actor.UserID, h.hub)
	h.hub.Register(client)
	go client.WritePump()
	go client.ReadPump()

	log.Info().
		Str("building_id", buildingID.String()).
		Str("user_id", actor.UserID.String()).
		Str("client_id", client.ID()).
		Int("viewers", h.hub.ClientCount(buildingID)).
		Msg("WebSocket viewer connected")
	return nil
}
