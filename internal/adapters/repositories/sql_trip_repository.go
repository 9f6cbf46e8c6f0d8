package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hos-trip-planner/internal/domain"
	"hos-trip-planner/internal/platform/db"
	"hos-trip-planner/internal/platform/obs"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SQL-backed implementation of the TripRepository port.
type SQLTripRepository struct {
	DB       *sql.DB
	Dialect  db.Dialect
	Location *time.Location
}

func NewSQLTripRepository(conn *sql.DB, dialect db.Dialect, loc *time.Location) *SQLTripRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &SQLTripRepository{DB: conn, Dialect: dialect, Location: loc}
}

// SaveTrip writes the trip with its waypoints, records and violations in one
// transaction and adds its on-duty time to the driver's daily totals.
// Missing record and violation IDs are generated.
func (s *SQLTripRepository) SaveTrip(ctx context.Context, trip *domain.Trip) (err error) {
	defer obs.Time(ctx, "trips.Save")(&err)

	if s.DB == nil {
		return errors.New("sql trip repository: DB is nil")
	}
	if trip == nil || strings.TrimSpace(trip.DriverID) == "" {
		return domain.NewInputError("driver_id", "must be non-empty")
	}
	if trip.ID == "" {
		trip.ID = uuid.NewString()
	}
	if trip.CreatedAt.IsZero() {
		trip.CreatedAt = time.Now()
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save trip: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, s.Dialect.Rebind(`
	INSERT INTO trips (
		trip_id, driver_id,
		current_label, current_lon, current_lat,
		pickup_label, pickup_lon, pickup_lat,
		dropoff_label, dropoff_lon, dropoff_lat,
		start_at, arrive_at, end_at,
		total_miles, driving_hours, provider, created_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`),
		trip.ID, trip.DriverID,
		trip.Current.Label, trip.Current.Lon, trip.Current.Lat,
		trip.Pickup.Label, trip.Pickup.Lon, trip.Pickup.Lat,
		trip.Dropoff.Label, trip.Dropoff.Lon, trip.Dropoff.Lat,
		trip.StartAt.UTC(), trip.ArriveAt.UTC(), trip.EndAt.UTC(),
		trip.TotalMiles, trip.DrivingHours, trip.Provider, trip.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("save trip %s: insert trip: %w", trip.ID, err)
	}

	if err := s.insertWaypoints(ctx, tx, trip); err != nil {
		return err
	}
	if err := s.insertRecords(ctx, tx, trip); err != nil {
		return err
	}
	if err := s.insertViolations(ctx, tx, trip); err != nil {
		return err
	}
	if err := s.addDailyHours(ctx, tx, trip); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save trip %s: commit: %w", trip.ID, err)
	}

	return nil
}

func (s *SQLTripRepository) insertWaypoints(ctx context.Context, tx *sql.Tx, trip *domain.Trip) error {
	if len(trip.Waypoints) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, s.Dialect.Rebind(`
	INSERT INTO waypoints (
		trip_id, seq, kind, label, lon, lat, distance_miles,
		arrive_at, depart_at, duration_seconds, merged, notes
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`))
	if err != nil {
		return fmt.Errorf("save trip: prepare waypoints: %w", err)
	}
	defer stmt.Close()

	for _, w := range trip.Waypoints {
		merged := make([]string, 0, len(w.Merged))
		for _, k := range w.Merged {
			merged = append(merged, k.String())
		}
		_, err := stmt.ExecContext(ctx,
			trip.ID, w.Sequence, w.Kind.String(), w.Location.Label, w.Location.Lon, w.Location.Lat, w.DistanceMiles,
			w.ArriveAt.UTC(), w.DepartAt.UTC(), int64(w.Duration/time.Second), strings.Join(merged, ","), w.Notes,
		)
		if err != nil {
			return fmt.Errorf("save trip: insert waypoint seq=%d: %w", w.Sequence, err)
		}
	}
	return nil
}

func (s *SQLTripRepository) insertRecords(ctx context.Context, tx *sql.Tx, trip *domain.Trip) error {
	if len(trip.Records) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, s.Dialect.Rebind(`
	INSERT INTO duty_records (
		record_id, driver_id, trip_id, status, start_at, end_at,
		label, lon, lat, odometer_miles, distance_miles, notes, automatic
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`))
	if err != nil {
		return fmt.Errorf("save trip: prepare duty records: %w", err)
	}
	defer stmt.Close()

	for i := range trip.Records {
		r := &trip.Records[i]
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		var end any
		if r.End != nil {
			end = r.End.UTC()
		}
		_, err := stmt.ExecContext(ctx,
			r.ID, trip.DriverID, trip.ID, r.Status.String(), r.Start.UTC(), end,
			r.Location.Label, r.Location.Lon, r.Location.Lat, r.OdometerMiles, r.DistanceMiles, r.Notes, r.Automatic,
		)
		if err != nil {
			return fmt.Errorf("save trip: insert duty record #%d: %w", i, err)
		}
	}
	return nil
}

func (s *SQLTripRepository) insertViolations(ctx context.Context, tx *sql.Tx, trip *domain.Trip) error {
	if len(trip.Violations) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, s.Dialect.Rebind(`
	INSERT INTO violations (
		violation_id, trip_id, driver_id, type, severity,
		actual_value, limit_value, occurred_at, description
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
	`))
	if err != nil {
		return fmt.Errorf("save trip: prepare violations: %w", err)
	}
	defer stmt.Close()

	for i, v := range trip.Violations {
		_, err := stmt.ExecContext(ctx,
			uuid.NewString(), trip.ID, trip.DriverID, string(v.Type), string(v.Severity),
			v.ActualValue, v.LimitValue, v.Time.UTC(), v.Description,
		)
		if err != nil {
			return fmt.Errorf("save trip: insert violation #%d: %w", i, err)
		}
	}
	return nil
}

func (s *SQLTripRepository) addDailyHours(ctx context.Context, tx *sql.Tx, trip *domain.Trip) error {
	days := domain.DailyHoursFromRecords(trip.Records, s.Location)
	if len(days) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, s.Dialect.Rebind(`
	INSERT INTO driver_daily_hours (driver_id, day, on_duty_hours, driving_hours)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (driver_id, day) DO UPDATE
	SET on_duty_hours = driver_daily_hours.on_duty_hours + excluded.on_duty_hours,
		driving_hours = driver_daily_hours.driving_hours + excluded.driving_hours;
	`))
	if err != nil {
		return fmt.Errorf("save trip: prepare daily hours: %w", err)
	}
	defer stmt.Close()

	for _, d := range days {
		if _, err := stmt.ExecContext(ctx, trip.DriverID, d.Day, d.OnDutyHours, d.DrivingHours); err != nil {
			return fmt.Errorf("save trip: add daily hours day=%s: %w", d.Day, err)
		}
	}
	return nil
}

// Return the driver's records overlapping [from, to), ordered by start.
func (s *SQLTripRepository) ListDutyRecords(
	ctx context.Context,
	driverID string,
	from, to time.Time,
) (_ []domain.DutyStatusRecord, err error) {
	defer obs.Time(ctx, "trips.ListDutyRecords")(&err)

	if s.DB == nil {
		return nil, errors.New("sql trip repository: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, s.Dialect.Rebind(`
	SELECT record_id, status, start_at, end_at, label, lon, lat,
		odometer_miles, distance_miles, notes, automatic
	FROM duty_records
	WHERE driver_id = ?
		AND start_at < ?
		AND (end_at IS NULL OR end_at > ?)
	ORDER BY start_at, record_id;
	`), driverID, to.UTC(), from.UTC())
	if err != nil {
		return nil, fmt.Errorf("list duty records: query duty_records table: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("list duty records: %w", err)
	}
	return records, nil
}

func scanRecords(rows *sql.Rows) ([]domain.DutyStatusRecord, error) {
	records := make([]domain.DutyStatusRecord, 0, 32)
	for rows.Next() {
		var r domain.DutyStatusRecord
		var status string
		var start, end db.Time
		err := rows.Scan(
			&r.ID, &status, &start, &end, &r.Location.Label, &r.Location.Lon, &r.Location.Lat,
			&r.OdometerMiles, &r.DistanceMiles, &r.Notes, &r.Automatic,
		)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if r.Status, err = domain.ParseDutyStatus(status); err != nil {
			return nil, fmt.Errorf("record %s: %w", r.ID, err)
		}
		r.Start = start.Time
		r.End = end.Ptr()
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}
	return records, nil
}

// GetTrip loads a saved trip with its waypoints, records and violations.
// Waypoint driving offsets are not stored and come back as zero.
func (s *SQLTripRepository) GetTrip(ctx context.Context, tripID string) (_ domain.Trip, err error) {
	defer obs.Time(ctx, "trips.Get")(&err)

	if s.DB == nil {
		return domain.Trip{}, errors.New("sql trip repository: DB is nil")
	}

	var t domain.Trip
	var startAt, arriveAt, endAt, createdAt db.Time
	err = s.DB.QueryRowContext(ctx, s.Dialect.Rebind(`
	SELECT trip_id, driver_id,
		current_label, current_lon, current_lat,
		pickup_label, pickup_lon, pickup_lat,
		dropoff_label, dropoff_lon, dropoff_lat,
		start_at, arrive_at, end_at,
		total_miles, driving_hours, provider, created_at
	FROM trips
	WHERE trip_id = ?;
	`), tripID).Scan(
		&t.ID, &t.DriverID,
		&t.Current.Label, &t.Current.Lon, &t.Current.Lat,
		&t.Pickup.Label, &t.Pickup.Lon, &t.Pickup.Lat,
		&t.Dropoff.Label, &t.Dropoff.Lon, &t.Dropoff.Lat,
		&startAt, &arriveAt, &endAt,
		&t.TotalMiles, &t.DrivingHours, &t.Provider, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Trip{}, fmt.Errorf("get trip %q: %w", tripID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Trip{}, fmt.Errorf("get trip: query trips table: %w", err)
	}
	t.StartAt, t.ArriveAt, t.EndAt, t.CreatedAt = startAt.Time, arriveAt.Time, endAt.Time, createdAt.Time

	if t.Waypoints, err = s.tripWaypoints(ctx, tripID); err != nil {
		return domain.Trip{}, err
	}
	if t.Records, err = s.tripRecords(ctx, tripID); err != nil {
		return domain.Trip{}, err
	}
	if t.Violations, err = s.tripViolations(ctx, tripID); err != nil {
		return domain.Trip{}, err
	}

	return t, nil
}

func (s *SQLTripRepository) tripWaypoints(ctx context.Context, tripID string) ([]domain.Waypoint, error) {
	rows, err := s.DB.QueryContext(ctx, s.Dialect.Rebind(`
	SELECT seq, kind, label, lon, lat, distance_miles,
		arrive_at, depart_at, duration_seconds, merged, notes
	FROM waypoints
	WHERE trip_id = ?
	ORDER BY seq;
	`), tripID)
	if err != nil {
		return nil, fmt.Errorf("get trip: query waypoints table: %w", err)
	}
	defer rows.Close()

	var out []domain.Waypoint
	for rows.Next() {
		var w domain.Waypoint
		var kind, merged string
		var arrive, depart db.Time
		var seconds int64
		err := rows.Scan(
			&w.Sequence, &kind, &w.Location.Label, &w.Location.Lon, &w.Location.Lat, &w.DistanceMiles,
			&arrive, &depart, &seconds, &merged, &w.Notes,
		)
		if err != nil {
			return nil, fmt.Errorf("get trip: scan waypoint: %w", err)
		}
		if w.Kind, err = domain.ParseWaypointKind(kind); err != nil {
			return nil, fmt.Errorf("get trip: waypoint seq=%d: %w", w.Sequence, err)
		}
		for _, m := range strings.Split(merged, ",") {
			if m == "" {
				continue
			}
			k, err := domain.ParseWaypointKind(m)
			if err != nil {
				return nil, fmt.Errorf("get trip: waypoint seq=%d: %w", w.Sequence, err)
			}
			w.Merged = append(w.Merged, k)
		}
		w.ArriveAt, w.DepartAt = arrive.Time, depart.Time
		w.Duration = time.Duration(seconds) * time.Second
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get trip: waypoint iteration: %w", err)
	}
	return out, nil
}

func (s *SQLTripRepository) tripRecords(ctx context.Context, tripID string) ([]domain.DutyStatusRecord, error) {
	rows, err := s.DB.QueryContext(ctx, s.Dialect.Rebind(`
	SELECT record_id, status, start_at, end_at, label, lon, lat,
		odometer_miles, distance_miles, notes, automatic
	FROM duty_records
	WHERE trip_id = ?
	ORDER BY start_at, record_id;
	`), tripID)
	if err != nil {
		return nil, fmt.Errorf("get trip: query duty_records table: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("get trip: %w", err)
	}
	return records, nil
}

func (s *SQLTripRepository) tripViolations(ctx context.Context, tripID string) ([]domain.Violation, error) {
	rows, err := s.DB.QueryContext(ctx, s.Dialect.Rebind(`
	SELECT type, severity, actual_value, limit_value, occurred_at, description
	FROM violations
	WHERE trip_id = ?
	ORDER BY occurred_at, type;
	`), tripID)
	if err != nil {
		return nil, fmt.Errorf("get trip: query violations table: %w", err)
	}
	defer rows.Close()

	var out []domain.Violation
	for rows.Next() {
		var v domain.Violation
		var typ, severity string
		var occurred db.Time
		if err := rows.Scan(&typ, &severity, &v.ActualValue, &v.LimitValue, &occurred, &v.Description); err != nil {
			return nil, fmt.Errorf("get trip: scan violation: %w", err)
		}
		v.Type, v.Severity, v.Time = domain.ViolationType(typ), domain.Severity(severity), occurred.Time
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get trip: violation iteration: %w", err)
	}
	return out, nil
}
