package main

import (
	"database/sql"
	"hos-trip-planner/internal/adapters/repositories"
	"hos-trip-planner/internal/config"
	"hos-trip-planner/internal/platform/db"
	"hos-trip-planner/internal/platform/obs"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	obs.Setup(cfg.Environment)

	var conn *sql.DB
	if cfg.DBDialect == db.Postgres {
		conn, err = db.Open(cfg.DatabaseURL)
	} else {
		conn, err = db.OpenSQLite(cfg.DatabaseURL)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer conn.Close()

	initAndSeed(conn, cfg.DBDialect, cfg.SeedPath)
}

func initAndSeed(conn *sql.DB, dialect db.Dialect, seedPath string) {
	log.Info().Str("dialect", string(dialect)).Msg("Initializing database schema...")
	if err := repositories.InitSchema(conn, dialect); err != nil {
		log.Fatal().Err(err).Msg("schema initialization failed")
	}
	log.Info().Msg("Schema ready.")

	log.Info().Str("path", seedPath).Msg("Seeding drivers...")
	if err := repositories.SeedDriversFromJSON(conn, dialect, seedPath); err != nil {
		log.Fatal().Err(err).Msg("seeding failed")
	}
	log.Info().Msg("Seeding complete.")
}
