package config

import (
	"fmt"
	"hos-trip-planner/internal/platform/db"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string
	Port        string

	DBDialect   db.Dialect
	DatabaseURL string // Postgres URL, or a file path for SQLite
	SeedPath    string

	ORSAPIKey      string
	ORSBaseURL     string
	ORSMaxAttempts int
	ORSMaxBackoff  time.Duration

	// Route cache; empty RedisAddr falls back to the SQL cache.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RouteCacheTTL time.Duration

	// Calendar used for log sheets and daily cycle totals.
	Location *time.Location

	PlannerConfigPath string
	BatchConcurrency  int
}

// Get returns the environment value for key, or fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func Load() (*Config, error) {
	cfg := &Config{
		Environment:       Get("APP_ENV", "development"),
		Port:              Get("PORT", "8080"),
		DatabaseURL:       Get("DATABASE_URL", "data/app.db"),
		SeedPath:          Get("SEED_PATH", "data/seeds/drivers.json"),
		ORSAPIKey:         strings.TrimSpace(os.Getenv("ORS_API_KEY")),
		ORSBaseURL:        Get("ORS_BASE_URL", "https://api.openrouteservice.org"),
		ORSMaxAttempts:    getInt("ORS_MAX_ATTEMPTS", 4),
		ORSMaxBackoff:     time.Duration(getInt("ORS_MAX_BACKOFF_SECONDS", 5)) * time.Second,
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           getInt("REDIS_DB", 0),
		RouteCacheTTL:     time.Duration(getInt("ROUTE_CACHE_TTL_HOURS", 24)) * time.Hour,
		PlannerConfigPath: os.Getenv("PLANNER_CONFIG"),
		BatchConcurrency:  getInt("BATCH_CONCURRENCY", 4),
	}

	dialect, err := db.ParseDialect(Get("DB_DIALECT", string(db.SQLite)))
	if err != nil {
		return nil, fmt.Errorf("load config: DB_DIALECT: %w", err)
	}
	cfg.DBDialect = dialect

	if dialect == db.Postgres && !strings.Contains(cfg.DatabaseURL, "://") && !strings.Contains(cfg.DatabaseURL, "=") {
		return nil, fmt.Errorf("load config: DATABASE_URL must be a postgres URL or DSN when DB_DIALECT=postgres")
	}

	tz := Get("TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load config: TIMEZONE %q: %w", tz, err)
	}
	cfg.Location = loc

	if cfg.ORSMaxAttempts < 1 {
		return nil, fmt.Errorf("load config: ORS_MAX_ATTEMPTS must be at least 1, got %d", cfg.ORSMaxAttempts)
	}

	if cfg.BatchConcurrency < 1 {
		return nil, fmt.Errorf("load config: BATCH_CONCURRENCY must be at least 1, got %d", cfg.BatchConcurrency)
	}

	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}
