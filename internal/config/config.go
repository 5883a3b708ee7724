package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL   string
	RunMigrations bool

	// Auth0
	Auth0Domain   string
	Auth0Audience string

	// Server
	Port        string
	PublicURL   string
	CORSOrigins []string
	Env         string

	// Bookings
	BuildingLocation   *time.Location
	BookingRateLimit   int
	BookingRateBurst   int
	StatsDefaultMonths int

	// Redis enables the cross-instance space lock when set
	RedisURL string

	// S3 Storage
	S3 S3Config
}

// S3Config holds AWS S3 configuration
type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // Optional: for LocalStack local dev
}

// Enabled reports whether photo storage is configured
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	loc, err := time.LoadLocation(getEnv("BUILDING_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("BUILDING_TIMEZONE is invalid: %w", err)
	}

	cfg := &Config{
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RunMigrations:      getEnvBool("RUN_MIGRATIONS", true),
		Auth0Domain:        getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience:      getEnv("AUTH0_AUDIENCE", ""),
		Port:               getEnv("PORT", "8080"),
		PublicURL:          getEnv("PUBLIC_URL", ""),
		CORSOrigins:        strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		Env:                getEnv("ENV", "development"),
		BuildingLocation:   loc,
		BookingRateLimit:   getEnvInt("BOOKING_RATE_LIMIT", 30),
		BookingRateBurst:   getEnvInt("BOOKING_RATE_BURST", 10),
		StatsDefaultMonths: getEnvInt("STATS_DEFAULT_MONTHS", 12),
		RedisURL:           getEnv("REDIS_URL", ""),
		S3: S3Config{
			Region:          getEnv("S3_REGION", "us-east-1"),
			Bucket:          getEnv("S3_BUCKET", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""), // Empty = use AWS
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Auth0Domain == "" {
		return fmt.Errorf("AUTH0_DOMAIN is required")
	}
	if c.Auth0Audience == "" {
		return fmt.Errorf("AUTH0_AUDIENCE is required")
	}
	if c.BookingRateLimit <= 0 || c.BookingRateBurst <= 0 {
		return fmt.Errorf("BOOKING_RATE_LIMIT and BOOKING_RATE_BURST must be positive")
	}
	if c.StatsDefaultMonths <= 0 {
		return fmt.Errorf("STATS_DEFAULT_MONTHS must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return -1
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
