package services

import (
	"fmt"
	"hos-trip-planner/internal/domain"
	"hos-trip-planner/internal/hos"
	"slices"
	"time"
)

// EvaluateRequest carries a driver's logged records, for example after a
// dispatcher edited them.
type EvaluateRequest struct {
	DriverID       string
	Records        []domain.DutyStatusRecord
	Seed           domain.DriverSeed
	Now            time.Time
	Certifications map[string]domain.Certification
	// Keep the cycle running through 34-hour rests.
	IgnoreCycleRestart bool
}

type LogEvaluation struct {
	Violations []domain.Violation
	LogSheets  []domain.LogSheet
	Summary    hos.Summary
}

// EvaluateLogs judges recorded duty status the same way a simulated trip is
// judged, then renders the daily sheets.
func EvaluateLogs(req EvaluateRequest, loc *time.Location) (*LogEvaluation, error) {
	if len(req.Records) == 0 {
		return nil, domain.NewInputError("records", "at least one record required")
	}
	if loc == nil {
		loc = time.UTC
	}
	if req.Seed.CycleType == "" {
		req.Seed.CycleType = domain.Cycle70Hour8Day
	}

	records := make([]domain.DutyStatusRecord, len(req.Records))
	for i, r := range req.Records {
		r.Start = r.Start.In(loc)
		if r.End != nil {
			end := r.End.In(loc)
			r.End = &end
		}
		records[i] = r
	}
	slices.SortStableFunc(records, func(a, b domain.DutyStatusRecord) int { return a.Start.Compare(b.Start) })

	now := req.Now
	last := records[len(records)-1]
	if now.IsZero() {
		now = last.EndOr(time.Now())
	}
	if last.End == nil && now.Before(last.Start) {
		return nil, domain.NewInputError("now", "must not be before the start of the open record")
	}
	now = now.In(loc)

	violations, err := DetectViolations(records, req.Seed, DetectOptions{
		Now:                now,
		IgnoreCycleRestart: req.IgnoreCycleRestart,
	})
	if err != nil {
		return nil, fmt.Errorf("evaluate logs: %w", err)
	}

	sheets, err := BuildLogSheets(records, violations, LogSheetOptions{
		DriverID:       req.DriverID,
		Location:       loc,
		Now:            now,
		Certifications: req.Certifications,
	})
	if err != nil {
		return nil, fmt.Errorf("evaluate logs: %w", err)
	}

	state, err := ReplayState(records, req.Seed, now, req.IgnoreCycleRestart)
	if err != nil {
		return nil, fmt.Errorf("evaluate logs: %w", err)
	}

	return &LogEvaluation{
		Violations: violations,
		LogSheets:  sheets,
		Summary:    hos.Summarize(state),
	}, nil
}
