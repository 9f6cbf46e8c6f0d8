package services

import (
	"context"
	"errors"
	"fmt"
	"hos-trip-planner/internal/domain"
	"hos-trip-planner/internal/hos"
	"hos-trip-planner/internal/platform/obs"
	"slices"
	"time"
)

const gapNote = "No records"

// ReplayState runs a contiguous timeline through the clock and returns the
// counters at instant at. Time after the last record counts as off duty.
func ReplayState(records []domain.DutyStatusRecord, seed domain.DriverSeed, at time.Time, ignoreRestart bool) (hos.State, error) {
	start := at
	if len(records) > 0 {
		start = records[0].Start
	}

	s, err := hos.NewState(seed, start)
	if err != nil {
		return hos.State{}, fmt.Errorf("replay: %w", err)
	}

	step := func(status domain.DutyStatus, until time.Time) {
		s = hos.Apply(s, status, until.Sub(s.At))
		if status.IsRest() && !ignoreRestart {
			s = hos.CompleteRestart(s)
		}
	}

	for _, r := range records {
		if !r.Start.Before(at) {
			break
		}
		end := r.EndOr(at)
		if end.After(at) {
			end = at
		}
		step(r.Status, end)
	}
	if s.At.Before(at) {
		step(domain.OffDuty, at)
	}
	return s, nil
}

// StitchTimeline orders records, clips them to [from, to] and fills every
// gap with an off-duty record so the result is contiguous and closed.
// Where records overlap the earlier one wins.
func StitchTimeline(records []domain.DutyStatusRecord, from, to time.Time) []domain.DutyStatusRecord {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b domain.DutyStatusRecord) int { return a.Start.Compare(b.Start) })

	out := make([]domain.DutyStatusRecord, 0, len(sorted)+2)
	cursor := from
	gap := func(until time.Time) {
		if !until.After(cursor) {
			return
		}
		start, end := cursor, until
		out = append(out, domain.DutyStatusRecord{
			Status:    domain.OffDuty,
			Start:     start,
			End:       &end,
			Notes:     gapNote,
			Automatic: true,
		})
		cursor = until
	}

	for _, r := range sorted {
		end := r.EndOr(to)
		if end.After(to) {
			end = to
		}
		start := r.Start
		if start.Before(cursor) {
			start = cursor
		}
		if !end.After(start) {
			continue
		}

		gap(start)
		r.Start = start
		r.End = &end
		out = append(out, r)
		cursor = end
	}
	gap(to)

	return out
}

// ComplianceReport is a driver's regulatory position at one instant.
type ComplianceReport struct {
	DriverID   string
	At         time.Time
	CycleType  domain.CycleType
	Summary    hos.Summary
	Violations []domain.Violation
	Records    []domain.DutyStatusRecord
}

// Compliance rebuilds the driver's clock from stored history. Records since
// local midnight of the previous day are replayed on top of the daily totals
// kept for earlier days.
func (p *TripPlanner) Compliance(ctx context.Context, driverID string, at time.Time) (_ *ComplianceReport, err error) {
	defer obs.Time(ctx, "planner.Compliance")(&err)

	if p.Drivers == nil || p.Trips == nil {
		return nil, errors.New("compliance: driver and trip repositories are required")
	}
	if at.IsZero() {
		at = p.Now()
	}
	at = at.In(p.Location)

	driver, err := p.Drivers.GetDriver(ctx, driverID)
	if err != nil {
		return nil, fmt.Errorf("compliance: %w", err)
	}

	from := startOfLocalDay(at).AddDate(0, 0, -1)
	seed, err := p.Drivers.DriverSeed(ctx, driverID, from)
	if err != nil {
		return nil, fmt.Errorf("compliance: %w", err)
	}

	stored, err := p.Trips.ListDutyRecords(ctx, driverID, from, at)
	if err != nil {
		return nil, fmt.Errorf("compliance: %w", err)
	}
	records := StitchTimeline(inLocation(stored, p.Location), from, at)

	violations, err := DetectViolations(records, seed, DetectOptions{Now: at})
	if err != nil {
		return nil, fmt.Errorf("compliance: %w", err)
	}
	state, err := ReplayState(records, seed, at, false)
	if err != nil {
		return nil, fmt.Errorf("compliance: %w", err)
	}

	return &ComplianceReport{
		DriverID:   driver.DriverID,
		At:         at,
		CycleType:  driver.CycleType,
		Summary:    hos.Summarize(state),
		Violations: violations,
		Records:    records,
	}, nil
}
