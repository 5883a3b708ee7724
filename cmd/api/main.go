package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dafibh/habitat/habitat-backend/internal/config"
	"github.com/dafibh/habitat/habitat-backend/internal/domain"
	"github.com/dafibh/habitat/habitat-backend/internal/handler"
	"github.com/dafibh/habitat/habitat-backend/internal/middleware"
	"github.com/dafibh/habitat/habitat-backend/internal/repository/postgres"
	"github.com/dafibh/habitat/habitat-backend/internal/repository/redis"
	"github.com/dafibh/habitat/habitat-backend/internal/repository/storage"
	"github.com/dafibh/habitat/habitat-backend/internal/scheduler"
	"github.com/dafibh/habitat/habitat-backend/internal/service"
	"github.com/dafibh/habitat/habitat-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// @title Habitat Common Space API
// @version 1.0
// @description Reservation engine for building common spaces: bookings, quotas, restrictions and usage statistics.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Connect to database
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	// Verify database connection
	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	if cfg.RunMigrations {
		if err := postgres.RunMigrations(pool); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
	}

	// Initialize repositories
	userRepo := postgres.NewUserRepository(pool)
	directoryRepo := postgres.NewDirectoryRepository(pool)
	spaceRepo := postgres.NewCommonSpaceRepository(pool)
	bookingRepo := postgres.NewBookingRepository(pool)
	restrictionRepo := postgres.NewRestrictionRepository(pool)
	timeLimitRepo := postgres.NewTimeLimitRepository(pool)
	txManager := postgres.NewBookingTxManager(pool)

	// Space lock: Redis when several instances share the database
	var locker domain.SpaceLocker = service.NewKeyedSpaceLocker()
	if cfg.RedisURL != "" {
		rdb, err := redis.NewClient(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		locker = redis.NewSpaceLocker(rdb)
	} else {
		log.Info().Msg("REDIS_URL not set, using in-process space lock")
	}

	// Photo storage is optional
	var imageRepo storage.ImageRepository
	if cfg.S3.Enabled() {
		photoStore, err := storage.NewS3PhotoStore(context.Background(), cfg.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize S3 storage")
		}
		imageRepo = photoStore
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("S3 photo storage enabled")
	} else {
		log.Warn().Msg("S3_BUCKET not set, common space photo uploads disabled")
	}

	// WebSocket hub publishes domain events per building
	hub := websocket.NewHub()

	// Initialize services
	accessService := service.NewAccessService(directoryRepo)
	spaceService := service.NewCommonSpaceService(spaceRepo, directoryRepo, userRepo, accessService)
	spaceService.SetImageService(service.NewImageService(imageRepo))
	spaceService.SetEventPublisher(hub)
	restrictionService := service.NewRestrictionService(restrictionRepo, spaceRepo, userRepo, accessService)
	restrictionService.SetEventPublisher(hub)
	timeLimitService := service.NewTimeLimitService(timeLimitRepo, spaceRepo, userRepo, bookingRepo, accessService)
	timeLimitService.SetLocation(cfg.BuildingLocation)
	bookingService := service.NewBookingService(bookingRepo, txManager, spaceRepo, userRepo, accessService, restrictionService, timeLimitService, locker)
	bookingService.SetLocation(cfg.BuildingLocation)
	bookingService.SetEventPublisher(hub)
	usageService := service.NewUsageService(bookingRepo, spaceRepo, accessService, cfg.StatsDefaultMonths)
	exportService := service.NewExportService(bookingService, usageService, spaceRepo, userRepo)

	// Initialize auth middleware
	authMiddleware, err := middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience, userRepo)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auth middleware")
	}

	rateLimiter := middleware.NewRateLimiterWithConfig(cfg.BookingRateLimit, cfg.BookingRateBurst)

	// Background jobs
	jobs, err := scheduler.New(cfg.BuildingLocation)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scheduler")
	}
	if err := jobs.Every("rate-limiter-cleanup", middleware.CleanupInterval, func(ctx context.Context) {
		if removed := rateLimiter.Cleanup(); removed > 0 {
			log.Debug().Int("removed", removed).Msg("Pruned idle rate limiters")
		}
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule rate limiter cleanup")
	}
	jobs.Start()

	// Initialize handlers
	spaceHandler := handler.NewCommonSpaceHandler(spaceService)
	bookingHandler := handler.NewBookingHandler(bookingService, exportService)
	restrictionHandler := handler.NewRestrictionHandler(restrictionService)
	timeLimitHandler := handler.NewTimeLimitHandler(timeLimitService)
	statsHandler := handler.NewStatsHandler(usageService, exportService)
	wsHandler := handler.NewWebSocketHandler(hub, authMiddleware, accessService, cfg.CORSOrigins)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		ExposeHeaders:    []string{"Retry-After", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Register API routes
	handler.RegisterRoutes(e,
		handler.DefaultServers(cfg.Port, cfg.PublicURL),
		authMiddleware,
		rateLimiter,
		spaceHandler,
		bookingHandler,
		restrictionHandler,
		timeLimitHandler,
		statsHandler,
		wsHandler,
	)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Str("timezone", cfg.BuildingLocation.String()).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	hub.Shutdown()
	if err := jobs.Shutdown(); err != nil {
		log.Error().Err(err).Msg("Failed to stop scheduler")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			event := log.Info()
			if res.Status >= http.StatusInternalServerError {
				event = log.Error()
			}
			if userID := middleware.GetUserID(c); userID != uuid.Nil {
				event = event.Str("user_id", userID.String())
			}
			event.
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
