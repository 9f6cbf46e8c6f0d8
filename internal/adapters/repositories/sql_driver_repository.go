package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hos-trip-planner/internal/domain"
	"hos-trip-planner/internal/platform/db"
	"hos-trip-planner/internal/platform/obs"
	"math"
	"time"
)

// SQL-backed implementation of the DriverRepository port.
// Calendar days are taken in Location.
type SQLDriverRepository struct {
	DB       *sql.DB
	Dialect  db.Dialect
	Location *time.Location
}

func NewSQLDriverRepository(conn *sql.DB, dialect db.Dialect, loc *time.Location) *SQLDriverRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &SQLDriverRepository{DB: conn, Dialect: dialect, Location: loc}
}

func (s *SQLDriverRepository) GetDriver(ctx context.Context, driverID string) (_ domain.Driver, err error) {
	defer obs.Time(ctx, "drivers.Get")(&err)

	if s.DB == nil {
		return domain.Driver{}, errors.New("sql driver repository: DB is nil")
	}

	var d domain.Driver
	var cycle string
	err = s.DB.QueryRowContext(ctx, s.Dialect.Rebind(`
	SELECT driver_id, name, license, cycle_type
	FROM drivers
	WHERE driver_id = ?;
	`), driverID).Scan(&d.DriverID, &d.Name, &d.License, &cycle)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Driver{}, fmt.Errorf("get driver %q: %w", driverID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Driver{}, fmt.Errorf("get driver: query drivers table: %w", err)
	}
	d.CycleType = domain.CycleType(cycle)

	return d, nil
}

// DriverSeed fills History with the completed days of the rolling window
// before at's calendar day, zero for days without a row.
func (s *SQLDriverRepository) DriverSeed(ctx context.Context, driverID string, at time.Time) (_ domain.DriverSeed, err error) {
	defer obs.Time(ctx, "drivers.Seed")(&err)

	d, err := s.GetDriver(ctx, driverID)
	if err != nil {
		return domain.DriverSeed{}, err
	}

	local := at.In(s.Location)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.Location)
	prior := d.CycleType.Days() - 1
	first := today.AddDate(0, 0, -prior)

	rows, err := s.DB.QueryContext(ctx, s.Dialect.Rebind(`
	SELECT day, on_duty_hours
	FROM driver_daily_hours
	WHERE driver_id = ? AND day >= ? AND day < ?
	ORDER BY day;
	`), driverID, first.Format(time.DateOnly), today.Format(time.DateOnly))
	if err != nil {
		return domain.DriverSeed{}, fmt.Errorf("driver seed: query driver_daily_hours table: %w", err)
	}
	defer rows.Close()

	byDay := make(map[string]float64, prior)
	for rows.Next() {
		var day string
		var hours float64
		if err := rows.Scan(&day, &hours); err != nil {
			return domain.DriverSeed{}, fmt.Errorf("driver seed: scan row: %w", err)
		}
		byDay[day] = hours
	}
	if err := rows.Err(); err != nil {
		return domain.DriverSeed{}, fmt.Errorf("driver seed: row iteration: %w", err)
	}

	seed := domain.DriverSeed{CycleType: d.CycleType, History: make([]float64, prior)}
	for i := range prior {
		h := math.Min(byDay[first.AddDate(0, 0, i).Format(time.DateOnly)], 24)
		seed.History[i] = h
		seed.CycleUsedHours += h
	}
	seed.CycleUsedHours = math.Min(seed.CycleUsedHours, d.CycleType.Limit())

	return seed, nil
}

// Insert or update a driver profile.
func (s *SQLDriverRepository) SaveDriver(ctx context.Context, d domain.Driver) (err error) {
	defer obs.Time(ctx, "drivers.Save")(&err)

	if s.DB == nil {
		return errors.New("sql driver repository: DB is nil")
	}
	if !d.CycleType.Valid() {
		return domain.NewInputError("cycle_type", fmt.Sprintf("unknown cycle type %q", d.CycleType))
	}

	_, err = s.DB.ExecContext(ctx, s.Dialect.Rebind(`
	INSERT INTO drivers (driver_id, name, license, cycle_type)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (driver_id) DO UPDATE
	SET name = excluded.name,
		license = excluded.license,
		cycle_type = excluded.cycle_type;
	`), d.DriverID, d.Name, d.License, string(d.CycleType))
	if err != nil {
		return fmt.Errorf("save driver %q: %w", d.DriverID, err)
	}
	return nil
}
