package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/habitat")
	t.Setenv("AUTH0_DOMAIN", "habitat.auth0.com")
	t.Setenv("AUTH0_AUDIENCE", "https://api.habitat.app")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Port)
	}
	if cfg.BuildingLocation != time.UTC {
		t.Errorf("Expected UTC building location, got %v", cfg.BuildingLocation)
	}
	if !cfg.RunMigrations {
		t.Error("Expected migrations to run by default")
	}
	if cfg.StatsDefaultMonths != 12 {
		t.Errorf("Expected 12 default stats months, got %d", cfg.StatsDefaultMonths)
	}
	if cfg.S3.Enabled() {
		t.Error("Expected photo storage disabled without a bucket")
	}
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Error("Expected error for missing DATABASE_URL")
	}
}

func TestLoad_InvalidTimezone(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BUILDING_TIMEZONE", "Mars/Olympus_Mons")

	if _, err := Load(); err == nil {
		t.Error("Expected error for invalid BUILDING_TIMEZONE")
	}
}

func TestLoad_InvalidRateLimit(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BOOKING_RATE_LIMIT", "many")

	if _, err := Load(); err == nil {
		t.Error("Expected error for non-numeric BOOKING_RATE_LIMIT")
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RUN_MIGRATIONS", "false")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("S3_BUCKET", "habitat-photos")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.RunMigrations {
		t.Error("Expected RUN_MIGRATIONS=false to disable migrations")
	}
	if cfg.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("Unexpected redis url %s", cfg.RedisURL)
	}
	if !cfg.S3.Enabled() {
		t.Error("Expected photo storage enabled with a bucket")
	}
}
