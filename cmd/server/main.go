package main

import (
	"context"
	"database/sql"
	"fmt"
	"hos-trip-planner/internal/adapters/cache"
	"hos-trip-planner/internal/adapters/repositories"
	"hos-trip-planner/internal/adapters/routing"
	"hos-trip-planner/internal/api"
	"hos-trip-planner/internal/config"
	"hos-trip-planner/internal/platform/db"
	"hos-trip-planner/internal/platform/obs"
	"hos-trip-planner/internal/ports"
	"hos-trip-planner/internal/services"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// main is the application composition root.
// It wires concrete adapters (SQL, ORS, Redis) behind ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger := obs.Setup(cfg.Environment)

	conn, err := openDB(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	defer conn.Close()

	// Initialize schema and seed driver profiles on startup for local runs.
	if err := initAndSeed(conn, cfg.DBDialect, cfg.SeedPath); err != nil {
		logger.Fatal().Err(err).Msg("init database")
	}

	simCfg, err := config.LoadPlannerProfile(cfg.PlannerConfigPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load planner profile")
	}

	routes, closeRoutes, err := buildRouteProvider(cfg, conn, simCfg.AverageSpeedMPH, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("init route provider")
	}
	defer closeRoutes()

	drivers := repositories.NewSQLDriverRepository(conn, cfg.DBDialect, cfg.Location)
	trips := repositories.NewSQLTripRepository(conn, cfg.DBDialect, cfg.Location)
	planner := services.NewTripPlanner(routes, drivers, trips, simCfg, cfg.Location)

	router := api.NewRouter(api.Deps{
		Planner:    planner,
		DB:         conn,
		BatchLimit: cfg.BatchConcurrency,
	})

	// Timeouts are tuned for cold-cache route planning (external API latency).
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Str("timezone", cfg.Location.String()).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func openDB(cfg *config.Config) (*sql.DB, error) {
	if cfg.DBDialect == db.Postgres {
		return db.Open(cfg.DatabaseURL)
	}
	return db.OpenSQLite(cfg.DatabaseURL)
}

func initAndSeed(conn *sql.DB, dialect db.Dialect, seedPath string) error {
	if err := repositories.InitSchema(conn, dialect); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	if _, err := os.Stat(seedPath); err != nil {
		log.Warn().Str("path", seedPath).Msg("driver seed file not found, skipping seed")
		return nil
	}
	if err := repositories.SeedDriversFromJSON(conn, dialect, seedPath); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	return nil
}

// buildRouteProvider picks ORS when a key is configured and the straight-line
// provider otherwise, then puts a route cache in front: Redis when REDIS_ADDR
// is set, the SQL route_cache table otherwise.
func buildRouteProvider(cfg *config.Config, conn *sql.DB, speedMPH float64, logger zerolog.Logger) (ports.RouteProvider, func(), error) {
	geocodeCache := cache.NewSQLGeocodeCache(conn, cfg.DBDialect)

	var (
		next     ports.RouteProvider
		geocoder ports.Geocoder
	)
	if cfg.ORSAPIKey != "" {
		ors, err := routing.NewORSRouteProvider(cfg.ORSAPIKey, geocodeCache,
			routing.WithBaseURL(cfg.ORSBaseURL),
			routing.WithRetryPolicy(routing.RetryPolicy{
				Attempts:   cfg.ORSMaxAttempts,
				MaxBackoff: cfg.ORSMaxBackoff,
			}),
		)
		if err != nil {
			return nil, nil, err
		}
		next, geocoder = ors, ors
		logger.Info().Str("base_url", cfg.ORSBaseURL).Msg("routing via openrouteservice")
	} else {
		next = routing.NewStraightLineProvider(speedMPH, nil)
		logger.Warn().Msg("ORS_API_KEY not set: routing along straight lines, stops need coordinates")
	}

	var (
		routeCache ports.RouteCache
		closeFn    = func() {}
	)
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisRouteCache(context.Background(), cache.RedisConfig{
			Addr:           cfg.RedisAddr,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DisableOnError: true,
		}, logger)
		routeCache = redisCache
		closeFn = func() {
			if err := redisCache.Close(); err != nil {
				logger.Warn().Err(err).Msg("close redis route cache")
			}
		}
	} else {
		routeCache = cache.NewSQLRouteCache(conn, cfg.DBDialect)
	}

	return &routing.CachedRouteProvider{
		Next:     next,
		Geocoder: geocoder,
		Cache:    routeCache,
		TTL:      cfg.RouteCacheTTL,
	}, closeFn, nil
}
