package services

import (
	"fmt"
	"hos-trip-planner/internal/domain"
	"hos-trip-planner/internal/hos"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// Limits closer than this are treated as reached; the remainder is not driven.
	limitTolerance   = time.Second
	fuelEpsilonMiles = 1e-6
	maxSimSteps      = 100_000
)

// SimConfig holds the trip simulator's tunables. Start from DefaultSimConfig;
// zero durations for service and inspection time disable those stops.
type SimConfig struct {
	AverageSpeedMPH float64

	FuelIntervalMiles float64
	FuelStopDuration  time.Duration

	BreakDuration time.Duration
	BreakStatus   domain.DutyStatus

	DailyRestDuration time.Duration
	DailyRestStatus   domain.DutyStatus

	// When false the simulator keeps driving once the cycle is spent and
	// reports it through SimResult.CycleExhausted.
	InsertCycleRestart   bool
	CycleRestartDuration time.Duration

	PickupDuration     time.Duration
	DropoffDuration    time.Duration
	InspectionDuration time.Duration

	// Optional hard arrival time at the end of the route.
	Deadline *time.Time
}

func DefaultSimConfig() SimConfig {
	return SimConfig{
		AverageSpeedMPH:      DefaultAverageSpeedMPH,
		FuelIntervalMiles:    1000,
		FuelStopDuration:     30 * time.Minute,
		BreakDuration:        hos.BreakMinimum,
		BreakStatus:          domain.OffDuty,
		DailyRestDuration:    hos.DailyRestMinimum,
		DailyRestStatus:      domain.SleeperBerth,
		CycleRestartDuration: hos.CycleRestartMinimum,
		PickupDuration:       time.Hour,
		DropoffDuration:      time.Hour,
	}
}

// normalized clamps values that would let the simulator schedule an illegal rest.
func (c SimConfig) normalized() SimConfig {
	def := DefaultSimConfig()
	if c.AverageSpeedMPH <= 0 {
		c.AverageSpeedMPH = def.AverageSpeedMPH
	}
	if c.FuelIntervalMiles <= 0 {
		c.FuelIntervalMiles = def.FuelIntervalMiles
	}
	if c.FuelStopDuration <= 0 {
		c.FuelStopDuration = def.FuelStopDuration
	}
	if c.BreakDuration < hos.BreakMinimum {
		c.BreakDuration = hos.BreakMinimum
	}
	if !c.BreakStatus.Valid() || c.BreakStatus == domain.Driving {
		c.BreakStatus = def.BreakStatus
	}
	if c.DailyRestDuration < hos.DailyRestMinimum {
		c.DailyRestDuration = hos.DailyRestMinimum
	}
	if !c.DailyRestStatus.IsRest() {
		c.DailyRestStatus = def.DailyRestStatus
	}
	if c.CycleRestartDuration < hos.CycleRestartMinimum {
		c.CycleRestartDuration = hos.CycleRestartMinimum
	}
	c.PickupDuration = max(c.PickupDuration, 0)
	c.DropoffDuration = max(c.DropoffDuration, 0)
	c.InspectionDuration = max(c.InspectionDuration, 0)
	return c
}

// SimResult is the complete simulated timeline of one trip.
type SimResult struct {
	Waypoints []domain.Waypoint
	Records   []domain.DutyStatusRecord
	Final     hos.State
	// Set when the cycle ran out and no restart was inserted.
	CycleExhausted bool
	TotalMiles     float64
	DrivingTime    time.Duration
	StartAt        time.Time
	ArriveAt       time.Time
	EndAt          time.Time
}

// Simulator walks a mapped route through the HOS clock, inserting the stops
// needed to keep the driver legal. It holds no per-trip state and is safe
// for concurrent use.
type Simulator struct {
	cfg SimConfig
}

func NewSimulator(cfg SimConfig) *Simulator {
	return &Simulator{cfg: cfg.normalized()}
}

// Config returns the effective configuration after defaults were applied.
func (s *Simulator) Config() SimConfig { return s.cfg }

// Simulate schedules the trip from startAt for a driver in the given state.
func (s *Simulator) Simulate(mapped MappedRoute, seed domain.DriverSeed, startAt time.Time) (*SimResult, error) {
	if mapped.Legs() == 0 {
		return nil, &domain.InputError{Field: "route", Reason: "mapped route has no legs", Cause: domain.ErrEmptyRoute}
	}

	clock, err := hos.NewState(seed, startAt)
	if err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}
	return s.SimulateFrom(mapped, clock)
}

// SimulateFrom schedules the trip from clock.At, continuing counters that
// were replayed from the driver's earlier records.
func (s *Simulator) SimulateFrom(mapped MappedRoute, clock hos.State) (*SimResult, error) {
	if mapped.Legs() == 0 {
		return nil, &domain.InputError{Field: "route", Reason: "mapped route has no legs", Cause: domain.ErrEmptyRoute}
	}
	startAt := clock.At

	r := &tripRun{cfg: s.cfg, route: mapped, clock: clock}
	if err := r.execute(); err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}

	res := &SimResult{
		Waypoints:      r.waypoints,
		Records:        r.records,
		Final:          r.clock,
		CycleExhausted: r.cycleExhausted,
		TotalMiles:     r.miles,
		DrivingTime:    r.driving,
		StartAt:        startAt,
		ArriveAt:       r.arrivedAt,
		EndAt:          r.clock.At,
	}

	if s.cfg.Deadline != nil && res.ArriveAt.After(*s.cfg.Deadline) {
		return nil, fmt.Errorf("simulate: %w", &domain.InfeasibleError{
			Deadline:   s.cfg.Deadline.Format(time.RFC3339),
			EarliestAt: res.ArriveAt.Format(time.RFC3339),
		})
	}

	return res, nil
}

// tripRun is the mutable cursor of one simulation.
type tripRun struct {
	cfg   SimConfig
	route MappedRoute
	clock hos.State

	records   []domain.DutyStatusRecord
	waypoints []domain.Waypoint

	leg        int
	legElapsed time.Duration

	miles          float64
	milesSinceFuel float64
	driving        time.Duration
	cycleExhausted bool
	arrivedAt      time.Time
}

func (r *tripRun) execute() error {
	if err := r.terminal(domain.WaypointStart, "Pre-trip inspection"); err != nil {
		return err
	}

	for steps := 0; ; steps++ {
		if steps > maxSimSteps {
			return fmt.Errorf("%w: no progress after %d steps at mile %.1f", domain.ErrInvariant, steps, r.miles)
		}

		// Consume finished legs, servicing any stop at their end.
		for r.leg < r.route.Legs() && r.legElapsed >= r.legDuration(r.leg) {
			r.leg++
			r.legElapsed = 0
			r.miles = r.route.Track[r.leg].DistanceMiles
			if tp := r.route.Track[r.leg]; tp.Stop.IsServiceStop() {
				if err := r.serviceStop(tp); err != nil {
					return err
				}
			}
		}
		if r.leg >= r.route.Legs() {
			break
		}

		inserted, err := r.insertDueStop()
		if err != nil {
			return err
		}
		if inserted {
			continue
		}

		if err := r.drive(); err != nil {
			return err
		}
	}

	r.arrivedAt = r.clock.At
	for i := len(r.waypoints) - 1; i >= 0; i-- {
		if r.waypoints[i].Kind == domain.WaypointDropoff {
			r.arrivedAt = r.waypoints[i].ArriveAt
			break
		}
	}
	return r.terminal(domain.WaypointEnd, "Post-trip inspection")
}

func (r *tripRun) legDuration(i int) time.Duration {
	return r.route.Track[i+1].Driving - r.route.Track[i].Driving
}

func (r *tripRun) legMiles(i int) float64 {
	return r.route.Track[i+1].DistanceMiles - r.route.Track[i].DistanceMiles
}

// here is the truck's current location, interpolated within the current leg.
func (r *tripRun) here() domain.Location {
	track := r.route.Track
	if r.leg >= r.route.Legs() {
		last := track[len(track)-1]
		return domain.Location{Coordinates: last.Coordinates, Label: labelOr(last.Label, MileLabel(r.miles))}
	}

	from, to := track[r.leg], track[r.leg+1]
	if r.legElapsed == 0 && from.Label != "" {
		return domain.Location{Coordinates: from.Coordinates, Label: from.Label}
	}

	f := 1.0
	if d := r.legDuration(r.leg); d > 0 {
		f = float64(r.legElapsed) / float64(d)
	}
	return domain.Location{
		Coordinates: from.Coordinates.Interpolate(to.Coordinates, f),
		Label:       MileLabel(r.miles),
	}
}

func (r *tripRun) fuelDue() bool {
	return r.milesSinceFuel >= r.cfg.FuelIntervalMiles-fuelEpsilonMiles
}

// insertDueStop inserts at most one stop for the limits reached at the current
// position. Coinciding thresholds fold into the most restrictive stop.
func (r *tripRun) insertDueStop() (bool, error) {
	restDue := hos.RemainingDriving(r.clock) <= limitTolerance || hos.RemainingDuty(r.clock) <= limitTolerance
	breakDue := hos.RemainingBeforeBreak(r.clock) <= limitTolerance
	restartDue := r.cfg.InsertCycleRestart && hos.RemainingCycle(r.clock) <= limitTolerance

	var folded []domain.WaypointKind
	switch {
	case restartDue:
		if restDue {
			folded = append(folded, domain.WaypointDailyRest)
		}
		if breakDue {
			folded = append(folded, domain.WaypointMeal)
		}
		return true, r.cycleRestart(folded...)

	case restDue:
		if breakDue {
			folded = append(folded, domain.WaypointMeal)
		}
		return true, r.dailyRest(folded...)

	case breakDue:
		if r.cfg.BreakStatus.CountsTowardDuty() {
			n := len(r.waypoints)
			if err := r.ensureOnDuty(r.cfg.BreakDuration); err != nil || len(r.waypoints) > n {
				return true, err
			}
		}
		return true, r.rest(domain.WaypointMeal, r.cfg.BreakDuration, r.cfg.BreakStatus, "", folded...)

	case r.fuelDue():
		n := len(r.waypoints)
		if err := r.ensureOnDuty(r.cfg.FuelStopDuration); err != nil || len(r.waypoints) > n {
			// A rest inserted to make room has already absorbed the fuel stop.
			return true, err
		}
		return true, r.rest(domain.WaypointFuel, r.cfg.FuelStopDuration, domain.OnDutyNotDriving, "")
	}

	return false, nil
}

func (r *tripRun) dailyRest(folded ...domain.WaypointKind) error {
	return r.rest(domain.WaypointDailyRest, r.cfg.DailyRestDuration, r.cfg.DailyRestStatus, "", folded...)
}

func (r *tripRun) cycleRestart(folded ...domain.WaypointKind) error {
	if err := r.rest(domain.WaypointRest, r.cfg.CycleRestartDuration, domain.OffDuty, "34-hour cycle restart", folded...); err != nil {
		return err
	}
	r.clock = hos.CompleteRestart(r.clock)
	return nil
}

// ensureOnDuty makes room for d of on-duty work, resting first when the
// window or (with restarts enabled) the cycle cannot hold it.
func (r *tripRun) ensureOnDuty(d time.Duration) error {
	if d <= 0 {
		return nil
	}
	if r.cfg.InsertCycleRestart && hos.RemainingCycle(r.clock) < d {
		return r.cycleRestart()
	}
	if hos.RemainingDuty(r.clock) < d {
		return r.dailyRest()
	}
	return nil
}

// rest inserts a stationary stop. A due fuel stop is folded in: the longer
// duration wins and the host status is kept.
func (r *tripRun) rest(kind domain.WaypointKind, d time.Duration, status domain.DutyStatus, notes string, folded ...domain.WaypointKind) error {
	fuel := kind != domain.WaypointFuel && r.fuelDue()
	if fuel {
		folded = append(folded, domain.WaypointFuel)
		d = max(d, r.cfg.FuelStopDuration)
	}
	if notes == "" {
		notes = stopNotes(kind, d, folded)
	}

	loc := r.here()
	arrive := r.clock.At
	if err := r.emit(status, d, loc, notes, 0); err != nil {
		return err
	}
	if fuel || kind == domain.WaypointFuel {
		r.milesSinceFuel = 0
	}

	r.addWaypoint(domain.Waypoint{
		Kind:     kind,
		Location: loc,
		ArriveAt: arrive,
		DepartAt: r.clock.At,
		Duration: d,
		Merged:   folded,
		Notes:    notes,
	})
	return nil
}

func (r *tripRun) serviceStop(tp TrackPoint) error {
	d := r.cfg.PickupDuration
	if tp.Stop == domain.WaypointDropoff {
		d = r.cfg.DropoffDuration
	}

	need := d
	if r.fuelDue() {
		need = max(d, r.cfg.FuelStopDuration)
	}
	if err := r.ensureOnDuty(need); err != nil {
		return err
	}

	var folded []domain.WaypointKind
	if r.fuelDue() {
		folded = append(folded, domain.WaypointFuel)
		d = max(d, r.cfg.FuelStopDuration)
		r.milesSinceFuel = 0
	}

	notes := stopNotes(tp.Stop, d, folded)
	loc := domain.Location{Coordinates: tp.Coordinates, Label: tp.Label}
	arrive := r.clock.At
	if err := r.emit(domain.OnDutyNotDriving, d, loc, notes, 0); err != nil {
		return err
	}

	r.addWaypoint(domain.Waypoint{
		Kind:     tp.Stop,
		Location: loc,
		ArriveAt: arrive,
		DepartAt: r.clock.At,
		Duration: d,
		Merged:   folded,
		Notes:    notes,
	})
	return nil
}

// terminal records the start or end waypoint with its inspection time.
func (r *tripRun) terminal(kind domain.WaypointKind, inspection string) error {
	d := r.cfg.InspectionDuration
	if kind == domain.WaypointEnd {
		if err := r.ensureOnDuty(d); err != nil {
			return err
		}
	}

	r.addWaypoint(domain.Waypoint{
		Kind:     kind,
		Location: r.here(),
		ArriveAt: r.clock.At,
		DepartAt: r.clock.At,
	})
	if d <= 0 {
		return nil
	}

	n := len(r.waypoints)
	if err := r.ensureOnDuty(d); err != nil {
		return err
	}
	if err := r.emit(domain.OnDutyNotDriving, d, r.here(), inspection, 0); err != nil {
		return err
	}
	if len(r.waypoints) == n {
		wp := &r.waypoints[n-1]
		wp.DepartAt = r.clock.At
		wp.Duration = d
		wp.Notes = inspection
	}
	return nil
}

// drive advances along the current leg up to the nearest limit or threshold.
func (r *tripRun) drive() error {
	legDur := r.legDuration(r.leg)
	legMiles := r.legMiles(r.leg)

	step := min(
		legDur-r.legElapsed,
		hos.RemainingDriving(r.clock),
		hos.RemainingDuty(r.clock),
		hos.RemainingBeforeBreak(r.clock),
	)
	if legMiles > 0 {
		toFuel := r.cfg.FuelIntervalMiles - r.milesSinceFuel
		step = min(step, time.Duration(toFuel/legMiles*float64(legDur)))
	}
	if r.cfg.InsertCycleRestart {
		step = min(step, hos.RemainingCycle(r.clock))
	}
	if step <= 0 {
		return fmt.Errorf("%w: zero driving step at mile %.1f", domain.ErrInvariant, r.miles)
	}

	loc := r.here()
	startMiles := r.miles

	r.legElapsed += step
	endMiles := r.route.Track[r.leg+1].DistanceMiles
	if r.legElapsed < legDur {
		endMiles = r.route.Track[r.leg].DistanceMiles + legMiles*float64(r.legElapsed)/float64(legDur)
	}
	covered := endMiles - startMiles

	if err := r.emit(domain.Driving, step, loc, "", covered); err != nil {
		return err
	}

	r.miles = endMiles
	r.milesSinceFuel += covered
	r.driving += step
	if hos.RemainingCycle(r.clock) <= 0 {
		r.cycleExhausted = true
	}
	return nil
}

// emit advances the clock and appends the matching record. Contiguous driving
// is merged into one record.
func (r *tripRun) emit(status domain.DutyStatus, d time.Duration, loc domain.Location, notes string, miles float64) error {
	if d <= 0 {
		return nil
	}

	start := r.clock.At
	var err error
	switch status {
	case domain.Driving:
		r.clock, err = hos.AdvanceDriving(r.clock, d)
	case domain.OnDutyNotDriving:
		r.clock, err = hos.AdvanceOnDuty(r.clock, d)
	case domain.OffDuty:
		r.clock, err = hos.AdvanceOffDuty(r.clock, d)
	case domain.SleeperBerth:
		r.clock, err = hos.AdvanceSleeper(r.clock, d)
	default:
		err = fmt.Errorf("unknown duty status %d", int(status))
	}
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvariant, err)
	}
	end := r.clock.At

	if n := len(r.records); n > 0 && status == domain.Driving {
		last := &r.records[n-1]
		if last.Status == domain.Driving && last.End != nil && last.End.Equal(start) {
			last.End = &end
			last.DistanceMiles += miles
			return nil
		}
	}

	r.records = append(r.records, domain.DutyStatusRecord{
		Status:        status,
		Start:         start,
		End:           &end,
		Location:      loc,
		OdometerMiles: r.miles,
		DistanceMiles: miles,
		Notes:         notes,
		Automatic:     true,
	})
	return nil
}

func (r *tripRun) addWaypoint(wp domain.Waypoint) {
	wp.Sequence = len(r.waypoints)
	wp.DistanceMiles = r.miles
	wp.DrivingOffset = r.driving
	r.waypoints = append(r.waypoints, wp)
}

// stopNotes renders a short remark such as "Daily Rest (10.0h), with Fuel".
func stopNotes(kind domain.WaypointKind, d time.Duration, folded []domain.WaypointKind) string {
	caser := cases.Title(language.English)
	note := fmt.Sprintf("%s (%.1fh)", caser.String(strings.ReplaceAll(kind.String(), "_", " ")), d.Hours())
	if len(folded) == 0 {
		return note
	}
	names := make([]string, 0, len(folded))
	for _, k := range folded {
		names = append(names, caser.String(strings.ReplaceAll(k.String(), "_", " ")))
	}
	return note + ", with " + strings.Join(names, " and ")
}
