package handler

import (
	"github.com/dafibh/habitat/habitat-backend/internal/middleware"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, servers []Server, authMiddleware *middleware.AuthMiddleware, rateLimiter *middleware.RateLimiter, spaceHandler *CommonSpaceHandler, bookingHandler *BookingHandler, restrictionHandler *RestrictionHandler, timeLimitHandler *TimeLimitHandler, statsHandler *StatsHandler, wsHandler *WebSocketHandler) {
	// API documentation
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/openapi.json", OpenAPIHandler(servers))

	// WebSocket authenticates with a query token
	if wsHandler != nil {
		e.GET("/ws", wsHandler.HandleWS)
	}

	// API version 1
	api := e.Group("/api/v1")
	api.Use(authMiddleware.Authenticate())

	// Common space routes (protected)
	spaces := api.Group("/common-spaces")
	spaces.GET("", spaceHandler.ListSpaces)
	spaces.POST("", spaceHandler.CreateSpace)
	spaces.GET("/:id", spaceHandler.GetSpace)
	spaces.PUT("/:id", spaceHandler.UpdateSpace)
	spaces.POST("/:id/image", spaceHandler.UploadImage)

	// Booking routes (protected, mutations rate limited)
	spaces.GET("/:id/bookings", bookingHandler.ListBookings)
	spaces.POST("/:id/bookings", bookingHandler.CreateBooking, rateLimiter.Limit(middleware.ActionCreateBooking))
	spaces.GET("/:id/bookings.ics", bookingHandler.ExportCalendar)
	spaces.GET("/bookings/:id", bookingHandler.GetBooking)
	spaces.DELETE("/bookings/:id", bookingHandler.CancelBooking, rateLimiter.Limit(middleware.ActionCancelBooking))

	// Usage statistics routes (protected)
	spaces.GET("/:id/stats", statsHandler.GetStatistics)
	spaces.GET("/:id/stats.xlsx", statsHandler.ExportStatistics)

	// Per-user restriction and quota routes (protected)
	users := spaces.Group("/users/:id")
	users.GET("/restrictions", restrictionHandler.ListRestrictions)
	users.POST("/restrictions", restrictionHandler.SetRestriction)
	users.GET("/time-limits", timeLimitHandler.GetTimeLimits)
	users.POST("/time-limits", timeLimitHandler.SetTimeLimit)
	users.DELETE("/time-limits/:limitId", timeLimitHandler.DeleteTimeLimit)
}
