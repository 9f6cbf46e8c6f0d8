package services

import (
	"context"
	"errors"
	"hos-trip-planner/internal/domain"
	"math"
	"testing"
	"time"
)

func TestStitchTimelineFillsGapsAndClips(t *testing.T) {
	from, to := at(2, 0, 0), at(3, 0, 0)
	records := []domain.DutyStatusRecord{
		rec(domain.Driving, at(2, 10, 0), at(2, 12, 0)),
		rec(domain.OnDutyNotDriving, at(1, 22, 0), at(2, 1, 0)),
		rec(domain.OffDuty, at(2, 11, 0), at(2, 13, 0)), // overlaps the driving record
		{Status: domain.Driving, Start: at(2, 20, 0)},    // open
	}

	out := StitchTimeline(records, from, to)
	if err := domain.ValidateTimeline(out); err != nil {
		t.Fatalf("stitched timeline is not contiguous: %v", err)
	}

	want := []struct {
		status     domain.DutyStatus
		start, end time.Time
	}{
		{domain.OnDutyNotDriving, at(2, 0, 0), at(2, 1, 0)},
		{domain.OffDuty, at(2, 1, 0), at(2, 10, 0)},
		{domain.Driving, at(2, 10, 0), at(2, 12, 0)},
		{domain.OffDuty, at(2, 12, 0), at(2, 13, 0)},
		{domain.OffDuty, at(2, 13, 0), at(2, 20, 0)},
		{domain.Driving, at(2, 20, 0), at(3, 0, 0)},
	}
	if len(out) != len(want) {
		t.Fatalf("records = %d, want %d: %+v", len(out), len(want), out)
	}
	for i, w := range want {
		r := out[i]
		if r.Status != w.status || !r.Start.Equal(w.start) || r.End == nil || !r.End.Equal(w.end) {
			t.Errorf("record %d = %s %v-%v, want %s %v-%v", i, r.Status, r.Start, r.End, w.status, w.start, w.end)
		}
	}
	if out[1].Notes != gapNote || !out[1].Automatic {
		t.Fatalf("gap record = %+v", out[1])
	}
}

func TestStitchTimelineEmpty(t *testing.T) {
	out := StitchTimeline(nil, at(2, 0, 0), at(2, 6, 0))
	if len(out) != 1 || out[0].Status != domain.OffDuty || !out[0].End.Equal(at(2, 6, 0)) {
		t.Fatalf("out = %+v, want one off-duty record", out)
	}
}

func TestReplayStateAppliesRestart(t *testing.T) {
	seed := domain.DriverSeed{CycleType: domain.Cycle70Hour8Day, CycleUsedHours: 60}
	records := timeline(
		span{domain.Driving, 5 * time.Hour},
		span{domain.OffDuty, 34 * time.Hour},
		span{domain.Driving, 2 * time.Hour},
	)
	end := *records[len(records)-1].End

	s, err := ReplayState(records, seed, end, false)
	if err != nil {
		t.Fatalf("ReplayState: %v", err)
	}
	if s.CycleUsed() != 2*time.Hour {
		t.Fatalf("CycleUsed = %s, want 2h after a restart", s.CycleUsed())
	}

	s, err = ReplayState(records, seed, end, true)
	if err != nil {
		t.Fatalf("ReplayState: %v", err)
	}
	if s.CycleUsed() <= 2*time.Hour {
		t.Fatalf("CycleUsed = %s, want the restart ignored", s.CycleUsed())
	}
}

func TestReplayStateStopsAtInstant(t *testing.T) {
	records := timeline(span{domain.Driving, 6 * time.Hour})
	records[0].End = nil

	s, err := ReplayState(records, domain.DriverSeed{CycleType: domain.Cycle70Hour8Day}, tripStart.Add(4*time.Hour), false)
	if err != nil {
		t.Fatalf("ReplayState: %v", err)
	}
	if s.DailyDrivingUsed != 4*time.Hour || !s.At.Equal(tripStart.Add(4*time.Hour)) {
		t.Fatalf("state = driving %s at %v", s.DailyDrivingUsed, s.At)
	}
}

func TestEvaluateLogs(t *testing.T) {
	records := timeline(
		span{domain.OnDutyNotDriving, 30 * time.Minute},
		span{domain.Driving, 12 * time.Hour},
	)
	records[0], records[1] = records[1], records[0]

	eval, err := EvaluateLogs(EvaluateRequest{DriverID: "D-1", Records: records}, time.UTC)
	if err != nil {
		t.Fatalf("EvaluateLogs: %v", err)
	}

	if _, ok := findViolation(eval.Violations, domain.ViolationDrive11h); !ok {
		t.Fatalf("violations = %v, want drive_11h", eval.Violations)
	}
	if _, ok := findViolation(eval.Violations, domain.ViolationRestBreak); !ok {
		t.Fatalf("violations = %v, want rest_break", eval.Violations)
	}
	if len(eval.LogSheets) != 1 || eval.LogSheets[0].DriverID != "D-1" {
		t.Fatalf("log sheets = %+v", eval.LogSheets)
	}
	if eval.Summary.DailyDrivingAvailable != 0 || !eval.Summary.NeedsDailyRest {
		t.Fatalf("summary = %+v", eval.Summary)
	}
}

func TestEvaluateLogsOpenRecord(t *testing.T) {
	records := timeline(span{domain.Driving, time.Hour})
	records[0].End = nil

	eval, err := EvaluateLogs(EvaluateRequest{Records: records, Now: tripStart.Add(3 * time.Hour)}, time.UTC)
	if err != nil {
		t.Fatalf("EvaluateLogs: %v", err)
	}
	if eval.Summary.DailyDrivingUsed != 3 {
		t.Fatalf("DailyDrivingUsed = %v, want 3 up to now", eval.Summary.DailyDrivingUsed)
	}

	_, err = EvaluateLogs(EvaluateRequest{Records: records, Now: tripStart.Add(-time.Hour)}, time.UTC)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput for now before the open record", err)
	}
	if _, err := EvaluateLogs(EvaluateRequest{}, time.UTC); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput without records", err)
	}
}

func TestCompliance(t *testing.T) {
	p, _, _ := newTestPlanner(serviceRoute())
	ctx := context.Background()

	if _, err := p.Plan(ctx, tripRequest("D-1")); err != nil {
		t.Fatalf("Plan: %v", err)
	}

	// Mid-dropoff: 7h driven, 8.5h on duty since 06:00.
	now := tripStart.Add(8*time.Hour + 30*time.Minute)
	report, err := p.Compliance(ctx, "D-1", now)
	if err != nil {
		t.Fatalf("Compliance: %v", err)
	}

	if report.CycleType != domain.Cycle70Hour8Day || !report.At.Equal(now) {
		t.Fatalf("report = %+v", report)
	}
	if err := domain.ValidateTimeline(report.Records); err != nil {
		t.Fatalf("report records: %v", err)
	}
	if first := report.Records[0]; !first.Start.Equal(at(1, 0, 0)) || first.Status != domain.OffDuty {
		t.Fatalf("first record = %+v, want off duty from the previous midnight", first)
	}
	s := report.Summary
	if s.DailyDrivingUsed != 7 || math.Abs(s.CycleUsed-8.5) > 1e-9 || math.Abs(s.DailyDutyUsed-8.5) > 1e-9 {
		t.Fatalf("summary = %+v", s)
	}
	if len(report.Violations) != 0 {
		t.Fatalf("violations = %v, want none", report.Violations)
	}

	if _, err := p.Compliance(ctx, "D-404", now); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
