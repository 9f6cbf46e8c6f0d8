package services

import (
	"hos-trip-planner/internal/domain"
	"reflect"
	"testing"
	"time"
)

type span struct {
	status domain.DutyStatus
	dur    time.Duration
}

// timeline lays spans end to end from tripStart.
func timeline(spans ...span) []domain.DutyStatusRecord {
	out := make([]domain.DutyStatusRecord, 0, len(spans))
	at := tripStart
	for _, s := range spans {
		end := at.Add(s.dur)
		out = append(out, domain.DutyStatusRecord{Status: s.status, Start: at, End: &end})
		at = end
	}
	return out
}

func detect(t *testing.T, records []domain.DutyStatusRecord, seed domain.DriverSeed) []domain.Violation {
	t.Helper()
	if seed.CycleType == "" {
		seed.CycleType = domain.Cycle70Hour8Day
	}
	vs, err := DetectViolations(records, seed, DetectOptions{})
	if err != nil {
		t.Fatalf("DetectViolations: unexpected error: %v", err)
	}
	return vs
}

func findViolation(vs []domain.Violation, typ domain.ViolationType) (domain.Violation, bool) {
	for _, v := range vs {
		if v.Type == typ {
			return v, true
		}
	}
	return domain.Violation{}, false
}

func TestDetectCycleOverrun(t *testing.T) {
	vs := detect(t, timeline(span{domain.Driving, 5 * time.Hour}), domain.DriverSeed{CycleUsedHours: 68})

	if len(vs) != 1 {
		t.Fatalf("violations = %v, want exactly one", vs)
	}
	v := vs[0]
	if v.Type != domain.ViolationCycle70h {
		t.Fatalf("Type = %s, want cycle_70h", v.Type)
	}
	if v.ActualValue != 73 || v.LimitValue != 70 {
		t.Fatalf("actual/limit = %v/%v, want 73/70", v.ActualValue, v.LimitValue)
	}
	if v.Severity != domain.SeverityWarning {
		t.Fatalf("Severity = %s, want warning for a 4.3%% overrun", v.Severity)
	}
	if !v.Time.Equal(tripStart.Add(2 * time.Hour)) {
		t.Fatalf("Time = %v, want the moment the cycle reached 70h", v.Time)
	}
}

func TestDetectSixtyHourCycle(t *testing.T) {
	vs := detect(t, timeline(span{domain.OnDutyNotDriving, 6 * time.Hour}), domain.DriverSeed{
		CycleType:      domain.Cycle60Hour7Day,
		CycleUsedHours: 58,
	})
	v, ok := findViolation(vs, domain.ViolationCycle60h)
	if !ok {
		t.Fatalf("violations = %v, want cycle_60h", vs)
	}
	if v.ActualValue != 64 || v.LimitValue != 60 || v.Severity != domain.SeverityViolation {
		t.Fatalf("violation = %v, want 64/60 violation", v)
	}
}

func TestDetectShortRestDoesNotResetDriving(t *testing.T) {
	vs := detect(t, timeline(
		span{domain.Driving, 8 * time.Hour},
		span{domain.OffDuty, 9*time.Hour + 30*time.Minute},
		span{domain.Driving, 4 * time.Hour},
	), domain.DriverSeed{})

	v, ok := findViolation(vs, domain.ViolationDrive11h)
	if !ok {
		t.Fatalf("violations = %v, want drive_11h after a 9.5h rest", vs)
	}
	if v.ActualValue != 12 || v.LimitValue != 11 {
		t.Fatalf("actual/limit = %v/%v, want 12/11", v.ActualValue, v.LimitValue)
	}
	// The short rest is a corrective record, so the overrun is not critical.
	if v.Severity != domain.SeverityViolation {
		t.Fatalf("Severity = %s, want violation", v.Severity)
	}
	if want := tripStart.Add(17*time.Hour + 30*time.Minute + 3*time.Hour); !v.Time.Equal(want) {
		t.Fatalf("Time = %v, want %v", v.Time, want)
	}

	if _, ok := findViolation(vs, domain.ViolationDuty14h); !ok {
		t.Fatalf("violations = %v, want duty_14h once the window passed 14h", vs)
	}
}

func TestDetectTenHourRestResets(t *testing.T) {
	vs := detect(t, timeline(
		span{domain.Driving, 8 * time.Hour},
		span{domain.SleeperBerth, 10 * time.Hour},
		span{domain.Driving, 8 * time.Hour},
	), domain.DriverSeed{})

	if len(vs) != 0 {
		t.Fatalf("violations = %v, want none", vs)
	}
}

func TestDetectUnbrokenDrivingIsCritical(t *testing.T) {
	vs := detect(t, timeline(span{domain.Driving, 12 * time.Hour}), domain.DriverSeed{})

	if len(vs) != 2 {
		t.Fatalf("violations = %v, want rest_break and drive_11h", vs)
	}
	if vs[0].Type != domain.ViolationRestBreak || vs[1].Type != domain.ViolationDrive11h {
		t.Fatalf("order = %s, %s; want rest_break then drive_11h", vs[0].Type, vs[1].Type)
	}
	for _, v := range vs {
		if v.Severity != domain.SeverityCritical {
			t.Errorf("%s severity = %s, want critical", v.Type, v.Severity)
		}
	}
	if !vs[0].Time.Equal(tripStart.Add(8 * time.Hour)) {
		t.Fatalf("rest_break Time = %v, want after 8h", vs[0].Time)
	}
}

func TestDetectSmallOverrunIsWarning(t *testing.T) {
	vs := detect(t, timeline(
		span{domain.Driving, 8 * time.Hour},
		span{domain.OffDuty, 30 * time.Minute},
		span{domain.Driving, 3*time.Hour + 30*time.Minute},
	), domain.DriverSeed{})

	v, ok := findViolation(vs, domain.ViolationDrive11h)
	if !ok || len(vs) != 1 {
		t.Fatalf("violations = %v, want a single drive_11h", vs)
	}
	if v.Severity != domain.SeverityWarning || v.ActualValue != 11.5 {
		t.Fatalf("violation = %v, want 11.5h warning", v)
	}
}

func TestDetectShortDailyRest(t *testing.T) {
	vs := detect(t, timeline(
		span{domain.Driving, 7 * time.Hour},
		span{domain.OffDuty, time.Hour},
		span{domain.Driving, 4 * time.Hour},
		span{domain.OffDuty, 8 * time.Hour},
		span{domain.OnDutyNotDriving, time.Hour},
	), domain.DriverSeed{})

	v, ok := findViolation(vs, domain.ViolationDailyRest)
	if !ok {
		t.Fatalf("violations = %v, want daily_rest", vs)
	}
	if v.ActualValue != 8 || v.LimitValue != 10 || v.Severity != domain.SeverityViolation {
		t.Fatalf("violation = %v, want 8/10 violation", v)
	}
	if want := tripStart.Add(20 * time.Hour); !v.Time.Equal(want) {
		t.Fatalf("Time = %v, want %v", v.Time, want)
	}
}

func TestDetectIgnoresHowRecordsWereMade(t *testing.T) {
	seed := domain.DriverSeed{CycleType: domain.Cycle70Hour8Day, CycleUsedHours: 66}
	res := simulate(t, DefaultSimConfig(), straightRoute(700), seed)

	simulated, err := DetectViolations(res.Records, seed, DetectOptions{})
	if err != nil {
		t.Fatalf("DetectViolations: unexpected error: %v", err)
	}

	edited := make([]domain.DutyStatusRecord, len(res.Records))
	for i, r := range res.Records {
		end := *r.End
		edited[i] = domain.DutyStatusRecord{
			ID:        "manual",
			Status:    r.Status,
			Start:     r.Start,
			End:       &end,
			Notes:     "entered by dispatcher",
			Automatic: false,
		}
	}
	manual, err := DetectViolations(edited, seed, DetectOptions{})
	if err != nil {
		t.Fatalf("DetectViolations: unexpected error: %v", err)
	}

	if len(simulated) == 0 {
		t.Fatalf("expected the cycle overrun to be reported")
	}
	if !reflect.DeepEqual(simulated, manual) {
		t.Fatalf("violations differ:\nsimulated %v\nmanual    %v", simulated, manual)
	}
}

func TestDetectOpenRecord(t *testing.T) {
	records := timeline(span{domain.Driving, 6 * time.Hour})
	records[0].End = nil

	if vs := detect(t, records, domain.DriverSeed{}); len(vs) != 0 {
		t.Fatalf("violations = %v, want none when the open record has no end", vs)
	}

	vs, err := DetectViolations(records, domain.DriverSeed{CycleType: domain.Cycle70Hour8Day}, DetectOptions{Now: tripStart.Add(12 * time.Hour)})
	if err != nil {
		t.Fatalf("DetectViolations: unexpected error: %v", err)
	}
	if _, ok := findViolation(vs, domain.ViolationDrive11h); !ok {
		t.Fatalf("violations = %v, want drive_11h when the open record runs to now", vs)
	}
}

func TestDetectRejectsGaps(t *testing.T) {
	records := timeline(span{domain.Driving, time.Hour}, span{domain.OffDuty, time.Hour})
	records[1].Start = records[1].Start.Add(time.Minute)

	if _, err := DetectViolations(records, domain.DriverSeed{CycleType: domain.Cycle70Hour8Day}, DetectOptions{}); err == nil {
		t.Fatalf("expected an error for non-contiguous records")
	}
}
