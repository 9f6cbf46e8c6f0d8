package services

import (
	"context"
	"errors"
	"fmt"
	"hos-trip-planner/internal/domain"
	"hos-trip-planner/internal/platform/obs"
	"time"
)

// Trip reloads a saved trip. Its log sheets are rebuilt from the stored
// records and the summary is the driver's clock at the trip's end.
func (p *TripPlanner) Trip(ctx context.Context, tripID string) (_ *TripPlan, err error) {
	defer obs.Time(ctx, "planner.Trip")(&err)

	if p.Trips == nil {
		return nil, errors.New("get trip: trip repository is required")
	}

	trip, err := p.Trips.GetTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("get trip: %w", err)
	}
	trip.Records = inLocation(trip.Records, p.Location)

	sheets, err := BuildLogSheets(trip.Records, trip.Violations, LogSheetOptions{
		DriverID: trip.DriverID,
		Location: p.Location,
	})
	if err != nil {
		return nil, fmt.Errorf("get trip %s: %w", tripID, err)
	}

	report, err := p.Compliance(ctx, trip.DriverID, trip.EndAt)
	if err != nil {
		return nil, fmt.Errorf("get trip %s: %w", tripID, err)
	}

	exhausted := false
	for _, v := range trip.Violations {
		if v.Type == domain.ViolationCycle70h || v.Type == domain.ViolationCycle60h {
			exhausted = true
		}
	}

	return &TripPlan{
		Trip: trip,
		Route: domain.Route{
			Provider:     trip.Provider,
			TotalMiles:   trip.TotalMiles,
			TotalSeconds: trip.DrivingHours * 3600,
		},
		LogSheets:      sheets,
		Summary:        report.Summary,
		CycleExhausted: exhausted,
	}, nil
}

// DriverLog is one day of a driver's stored records rendered as a log sheet.
type DriverLog struct {
	DriverID string
	Sheet    domain.LogSheet
}

// DriverLog rebuilds the log sheet of the local calendar day containing day.
// Time without stored records is shown as off duty. For the current day the
// sheet runs to now and the remainder is padded.
func (p *TripPlanner) DriverLog(ctx context.Context, driverID string, day time.Time) (_ *DriverLog, err error) {
	defer obs.Time(ctx, "planner.DriverLog")(&err)

	if p.Drivers == nil || p.Trips == nil {
		return nil, errors.New("driver log: driver and trip repositories are required")
	}

	now := p.Now().In(p.Location)
	if day.IsZero() {
		day = now
	}
	dayStart := startOfLocalDay(day.In(p.Location))
	if !dayStart.Before(now) {
		return nil, domain.NewInputError("date", "must not be in the future")
	}
	to := nextMidnight(dayStart)
	if to.After(now) {
		to = now
	}

	if _, err := p.Drivers.GetDriver(ctx, driverID); err != nil {
		return nil, fmt.Errorf("driver log: %w", err)
	}

	// The previous day is replayed as well so limits running over midnight
	// are detected.
	from := dayStart.AddDate(0, 0, -1)
	seed, err := p.Drivers.DriverSeed(ctx, driverID, from)
	if err != nil {
		return nil, fmt.Errorf("driver log: %w", err)
	}
	stored, err := p.Trips.ListDutyRecords(ctx, driverID, from, to)
	if err != nil {
		return nil, fmt.Errorf("driver log: %w", err)
	}
	records := StitchTimeline(inLocation(stored, p.Location), from, to)

	violations, err := DetectViolations(records, seed, DetectOptions{Now: to})
	if err != nil {
		return nil, fmt.Errorf("driver log: %w", err)
	}

	sheets, err := BuildLogSheets(StitchTimeline(records, dayStart, to), violations, LogSheetOptions{
		DriverID: driverID,
		Location: p.Location,
	})
	if err != nil {
		return nil, fmt.Errorf("driver log: %w", err)
	}
	if len(sheets) != 1 {
		return nil, fmt.Errorf("driver log: %w: %d sheets for one day", domain.ErrInvariant, len(sheets))
	}

	return &DriverLog{DriverID: driverID, Sheet: sheets[0]}, nil
}
