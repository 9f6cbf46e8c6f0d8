package services

import (
	"fmt"
	"hos-trip-planner/internal/domain"
	"hos-trip-planner/internal/hos"
	"math"
	"slices"
	"strings"
	"time"
)

// Excess below this fraction of the limit is reported as a warning.
const warningThreshold = 0.05

type DetectOptions struct {
	// End time used for an open (current) last record. Zero leaves it empty.
	Now time.Time
	// Skip zeroing the cycle after 34 consecutive hours off duty.
	IgnoreCycleRestart bool
}

// episode tracks one continuous stretch above a limit.
type episode struct {
	typ        domain.ViolationType
	limit      time.Duration
	start      time.Time
	peak       time.Duration
	corrective bool
}

// detector replays records through the clock, independently of how they were produced.
type detector struct {
	opts   DetectOptions
	clock  hos.State
	out    []domain.Violation
	active map[domain.ViolationType]*episode

	// Whether any corrective record was seen since the counter last reset.
	restSinceReset  bool
	pauseSinceBreak bool
}

// DetectViolations re-walks a duty-status timeline and reports every HOS limit
// it exceeds. The result depends only on the records and the seed, so
// simulated and hand-edited logs are judged the same way.
func DetectViolations(records []domain.DutyStatusRecord, seed domain.DriverSeed, opts DetectOptions) ([]domain.Violation, error) {
	if len(records) == 0 {
		return nil, nil
	}
	if err := domain.ValidateTimeline(records); err != nil {
		return nil, fmt.Errorf("detect violations: %w", err)
	}

	clock, err := hos.NewState(seed, records[0].Start)
	if err != nil {
		return nil, fmt.Errorf("detect violations: %w", err)
	}

	d := &detector{
		opts:   opts,
		clock:  clock,
		active: make(map[domain.ViolationType]*episode),
	}

	for _, rec := range records {
		if rec.End == nil && opts.Now.IsZero() {
			continue
		}
		d.record(rec, rec.EndOr(opts.Now))
	}
	d.closeAll()

	return d.out, nil
}

func (d *detector) record(rec domain.DutyStatusRecord, end time.Time) {
	if !end.After(rec.Start) {
		return
	}

	if rec.Status.CountsTowardDuty() {
		d.checkDailyRest(rec.Start)
	}

	// Walk the record in calendar-day pieces so cycle crossings stay linear.
	loc := d.clock.At.Location()
	at, end := rec.Start.In(loc), end.In(loc)
	for at.Before(end) {
		next := nextMidnight(at)
		if next.After(end) {
			next = end
		}
		d.piece(rec.Status, at, next.Sub(at))
		at = next
	}
}

func (d *detector) piece(status domain.DutyStatus, at time.Time, dur time.Duration) {
	before := d.clock
	after := hos.Apply(before, status, dur)
	if status.IsRest() && !d.opts.IgnoreCycleRestart {
		after = hos.CompleteRestart(after)
	}

	switch status {
	case domain.Driving:
		d.rising(domain.ViolationDrive11h, hos.MaxDailyDriving, at, before.DailyDrivingUsed, after.DailyDrivingUsed, d.restSinceReset)
		d.rising(domain.ViolationRestBreak, hos.BreakAfterDriving, at, before.DrivingSinceBreak, after.DrivingSinceBreak, d.pauseSinceBreak)
		d.dutyWindow(at, before, after)
		d.cycle(at, after)

	case domain.OnDutyNotDriving:
		d.dutyWindow(at, before, after)
		d.cycle(at, after)
		d.pauseSinceBreak = d.pauseSinceBreak || before.DrivingSinceBreak > 0

	default:
		d.pauseSinceBreak = d.pauseSinceBreak || before.DrivingSinceBreak > 0
		d.restSinceReset = d.restSinceReset || before.WindowOpen
	}

	// Counters that reset close their episodes.
	if after.DailyDrivingUsed < before.DailyDrivingUsed || (!after.WindowOpen && before.WindowOpen) {
		d.close(domain.ViolationDrive11h)
		d.close(domain.ViolationDuty14h)
		d.restSinceReset = false
	}
	if after.DrivingSinceBreak < before.DrivingSinceBreak {
		d.close(domain.ViolationRestBreak)
		d.pauseSinceBreak = false
	}
	if after.CycleUsed() <= after.CycleLimit() {
		d.close(after.CycleType.ViolationType())
	}

	d.clock = after
}

// rising opens or extends an episode for a counter that grew linearly from
// v0 to v1 over a record piece starting at at.
func (d *detector) rising(typ domain.ViolationType, limit time.Duration, at time.Time, v0, v1 time.Duration, corrective bool) {
	if v1 <= limit {
		return
	}
	ep, ok := d.active[typ]
	if !ok {
		cross := at
		if v0 < limit {
			cross = at.Add(limit - v0)
		}
		ep = &episode{typ: typ, limit: limit, start: cross, corrective: corrective}
		d.active[typ] = ep
	}
	ep.peak = max(ep.peak, v1)
}

// dutyWindow flags work performed after the 14th hour of the window.
func (d *detector) dutyWindow(at time.Time, before, after hos.State) {
	v0 := time.Duration(0)
	if before.WindowOpen {
		v0 = before.DailyDutyUsed
	}
	d.rising(domain.ViolationDuty14h, hos.MaxDutyWindow, at, v0, after.DailyDutyUsed, d.restSinceReset)
}

func (d *detector) cycle(at time.Time, after hos.State) {
	// Midnight rolls happen at piece boundaries, so the increase within the
	// piece is exactly the on-duty time added.
	v1 := after.CycleUsed()
	v0 := v1 - after.At.Sub(at)
	d.rising(after.CycleType.ViolationType(), after.CycleLimit(), at, v0, v1, true)
}

// checkDailyRest flags work that resumes after a rest shorter than 10 hours
// when the driving or window limit had already been reached.
func (d *detector) checkDailyRest(at time.Time) {
	c := d.clock
	if !c.WindowOpen || c.RestStreak <= 0 || c.RestStreak >= hos.DailyRestMinimum {
		return
	}
	windowBeforeRest := c.DailyDutyUsed - c.RestStreak
	if c.DailyDrivingUsed < hos.MaxDailyDriving && windowBeforeRest < hos.MaxDutyWindow {
		return
	}

	actual := c.RestStreak
	deficit := float64(hos.DailyRestMinimum-actual) / float64(hos.DailyRestMinimum)
	sev := domain.SeverityViolation
	if deficit < warningThreshold {
		sev = domain.SeverityWarning
	}
	d.out = append(d.out, domain.Violation{
		Type:        domain.ViolationDailyRest,
		Severity:    sev,
		ActualValue: roundHours(actual),
		LimitValue:  roundHours(hos.DailyRestMinimum),
		Time:        at,
		Description: fmt.Sprintf("%s: resumed work after %.2fh off duty", domain.ViolationDailyRest.Label(), actual.Hours()),
	})
}

func (d *detector) close(typ domain.ViolationType) {
	ep, ok := d.active[typ]
	if !ok {
		return
	}
	delete(d.active, typ)
	d.out = append(d.out, ep.violation())
}

// closeAll flushes open episodes in a stable order.
func (d *detector) closeAll() {
	for _, typ := range []domain.ViolationType{
		domain.ViolationDrive11h,
		domain.ViolationDuty14h,
		domain.ViolationRestBreak,
		domain.ViolationCycle70h,
		domain.ViolationCycle60h,
	} {
		d.close(typ)
	}
	sortViolations(d.out)
}

func (e *episode) violation() domain.Violation {
	excess := float64(e.peak-e.limit) / float64(e.limit)

	sev := domain.SeverityViolation
	switch {
	case !e.corrective:
		sev = domain.SeverityCritical
	case excess < warningThreshold:
		sev = domain.SeverityWarning
	}

	return domain.Violation{
		Type:        e.typ,
		Severity:    sev,
		ActualValue: roundHours(e.peak),
		LimitValue:  roundHours(e.limit),
		Time:        e.start,
		Description: fmt.Sprintf("%s: %.2fh against a %.0fh limit", e.typ.Label(), e.peak.Hours(), e.limit.Hours()),
	}
}

// sortViolations orders by time, then type, keeping output deterministic.
func sortViolations(vs []domain.Violation) {
	slices.SortStableFunc(vs, func(a, b domain.Violation) int {
		if c := a.Time.Compare(b.Time); c != 0 {
			return c
		}
		return strings.Compare(string(a.Type), string(b.Type))
	})
}

func roundHours(d time.Duration) float64 {
	return math.Round(d.Hours()*100) / 100
}

func nextMidnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, t.Location())
}
