package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"hos-trip-planner/internal/domain"
	"hos-trip-planner/internal/platform/db"
	"os"
	"strings"
	"time"
)

type DriverSeedDay struct {
	Day          string  `json:"day"`
	OnDutyHours  float64 `json:"on_duty_hours"`
	DrivingHours float64 `json:"driving_hours"`
}

type DriverSeedRow struct {
	DriverID  string          `json:"driver_id"`
	Name      string          `json:"name"`
	License   string          `json:"license"`
	CycleType string          `json:"cycle_type"`
	History   []DriverSeedDay `json:"history"`
}

// Populate the database with drivers and their prior on-duty days from a JSON file.
func SeedDriversFromJSON(conn *sql.DB, dialect db.Dialect, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed drivers: read %q: %w", jsonPath, err)
	}

	var data []DriverSeedRow
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("seed drivers: parse json: %w", err)
	}

	for i, item := range data {
		if strings.TrimSpace(item.DriverID) == "" {
			return fmt.Errorf("seed drivers: item at index %d: driver_id cannot be empty", i+1)
		}
		if !domain.CycleType(item.CycleType).Valid() {
			return fmt.Errorf("seed drivers: driver %q: unknown cycle_type %q", item.DriverID, item.CycleType)
		}
		for _, h := range item.History {
			if _, err := time.Parse(time.DateOnly, h.Day); err != nil {
				return fmt.Errorf("seed drivers: driver %q: bad day %q: %w", item.DriverID, h.Day, err)
			}
			if h.OnDutyHours < 0 || h.OnDutyHours > 24 || h.DrivingHours < 0 || h.DrivingHours > h.OnDutyHours {
				return fmt.Errorf("seed drivers: driver %q: day %s hours out of range", item.DriverID, h.Day)
			}
		}
	}

	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("seed drivers: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	driverStmt, err := tx.Prepare(dialect.Rebind(`
	INSERT INTO drivers (driver_id, name, license, cycle_type)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (driver_id) DO UPDATE
	SET name = excluded.name,
		license = excluded.license,
		cycle_type = excluded.cycle_type;
	`))
	if err != nil {
		return fmt.Errorf("seed drivers: prepare driver insert: %w", err)
	}
	defer driverStmt.Close()

	dayStmt, err := tx.Prepare(dialect.Rebind(`
	INSERT INTO driver_daily_hours (driver_id, day, on_duty_hours, driving_hours)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (driver_id, day) DO UPDATE
	SET on_duty_hours = excluded.on_duty_hours,
		driving_hours = excluded.driving_hours;
	`))
	if err != nil {
		return fmt.Errorf("seed drivers: prepare history insert: %w", err)
	}
	defer dayStmt.Close()

	for _, d := range data {
		if _, err := driverStmt.Exec(d.DriverID, d.Name, d.License, d.CycleType); err != nil {
			return fmt.Errorf("seed drivers: insert driver_id=%s: %w", d.DriverID, err)
		}
		for _, h := range d.History {
			if _, err := dayStmt.Exec(d.DriverID, h.Day, h.OnDutyHours, h.DrivingHours); err != nil {
				return fmt.Errorf("seed drivers: insert driver_id=%s day=%s: %w", d.DriverID, h.Day, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed drivers: commit tx: %w", err)
	}

	return nil
}
