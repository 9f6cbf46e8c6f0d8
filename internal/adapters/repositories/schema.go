package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"hos-trip-planner/internal/platform/db"
	"strings"
)

// Initialize the database schema for either dialect.
func InitSchema(conn *sql.DB, dialect db.Dialect) error {
	if conn == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createDriversQuery := `
	CREATE TABLE IF NOT EXISTS drivers (
		driver_id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		license TEXT NOT NULL DEFAULT '',
		cycle_type TEXT NOT NULL
	);
	`

	createDailyHoursQuery := `
	CREATE TABLE IF NOT EXISTS driver_daily_hours (
		driver_id TEXT NOT NULL,
		day TEXT NOT NULL,
		on_duty_hours {{float}} NOT NULL,
		driving_hours {{float}} NOT NULL,
		PRIMARY KEY (driver_id, day)
	);
	`

	createTripsQuery := `
	CREATE TABLE IF NOT EXISTS trips (
		trip_id TEXT PRIMARY KEY,
		driver_id TEXT NOT NULL,
		current_label TEXT NOT NULL,
		current_lon {{float}} NOT NULL,
		current_lat {{float}} NOT NULL,
		pickup_label TEXT NOT NULL,
		pickup_lon {{float}} NOT NULL,
		pickup_lat {{float}} NOT NULL,
		dropoff_label TEXT NOT NULL,
		dropoff_lon {{float}} NOT NULL,
		dropoff_lat {{float}} NOT NULL,
		start_at {{timestamp}} NOT NULL,
		arrive_at {{timestamp}} NOT NULL,
		end_at {{timestamp}} NOT NULL,
		total_miles {{float}} NOT NULL,
		driving_hours {{float}} NOT NULL,
		provider TEXT NOT NULL DEFAULT '',
		created_at {{timestamp}} NOT NULL
	);
	`

	createWaypointsQuery := `
	CREATE TABLE IF NOT EXISTS waypoints (
		trip_id TEXT NOT NULL REFERENCES trips(trip_id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		kind TEXT NOT NULL,
		label TEXT NOT NULL,
		lon {{float}} NOT NULL,
		lat {{float}} NOT NULL,
		distance_miles {{float}} NOT NULL,
		arrive_at {{timestamp}} NOT NULL,
		depart_at {{timestamp}} NOT NULL,
		duration_seconds BIGINT NOT NULL,
		merged TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (trip_id, seq)
	);
	`

	createDutyRecordsQuery := `
	CREATE TABLE IF NOT EXISTS duty_records (
		record_id TEXT PRIMARY KEY,
		driver_id TEXT NOT NULL,
		trip_id TEXT REFERENCES trips(trip_id) ON DELETE CASCADE,
		status TEXT NOT NULL,
		start_at {{timestamp}} NOT NULL,
		end_at {{timestamp}},
		label TEXT NOT NULL DEFAULT '',
		lon {{float}} NOT NULL DEFAULT 0,
		lat {{float}} NOT NULL DEFAULT 0,
		odometer_miles {{float}} NOT NULL DEFAULT 0,
		distance_miles {{float}} NOT NULL DEFAULT 0,
		notes TEXT NOT NULL DEFAULT '',
		automatic BOOLEAN NOT NULL DEFAULT FALSE
	);
	`

	createViolationsQuery := `
	CREATE TABLE IF NOT EXISTS violations (
		violation_id TEXT PRIMARY KEY,
		trip_id TEXT NOT NULL REFERENCES trips(trip_id) ON DELETE CASCADE,
		driver_id TEXT NOT NULL,
		type TEXT NOT NULL,
		severity TEXT NOT NULL,
		actual_value {{float}} NOT NULL,
		limit_value {{float}} NOT NULL,
		occurred_at {{timestamp}} NOT NULL,
		description TEXT NOT NULL DEFAULT ''
	);
	`

	createGeocodeCacheQuery := `
	CREATE TABLE IF NOT EXISTS geocode_cache (
		address TEXT PRIMARY KEY,
		lon {{float}} NOT NULL,
		lat {{float}} NOT NULL,
		resolved_at {{timestamp}} NOT NULL
	);
	`

	createRouteCacheQuery := `
	CREATE TABLE IF NOT EXISTS route_cache (
		cache_key TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		expires_at {{timestamp}} NOT NULL
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_duty_records_driver_start
	ON duty_records(driver_id, start_at);
	`

	statements := []string{
		createDriversQuery,
		createDailyHoursQuery,
		createTripsQuery,
		createWaypointsQuery,
		createDutyRecordsQuery,
		createViolationsQuery,
		createGeocodeCacheQuery,
		createRouteCacheQuery,
		createIndexQuery,
	}

	types := strings.NewReplacer(
		"{{float}}", dialect.FloatType(),
		"{{timestamp}}", dialect.TimestampType(),
	)

	for i, stmt := range statements {
		if _, err := tx.Exec(types.Replace(stmt)); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
