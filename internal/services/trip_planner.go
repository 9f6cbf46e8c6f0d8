package services

import (
	"context"
	"errors"
	"fmt"
	"hos-trip-planner/internal/domain"
	"hos-trip-planner/internal/hos"
	"hos-trip-planner/internal/platform/obs"
	"hos-trip-planner/internal/ports"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TripRequest describes one trip to plan. Stops need a label, coordinates, or both.
type TripRequest struct {
	DriverID string
	Current  domain.Location
	Pickup   domain.Location
	Dropoff  domain.Location

	// Zero means now.
	StartAt time.Time
	// Explicit cycle state. When nil it is read from the driver repository,
	// or a fresh 70-hour driver is assumed.
	Seed     *domain.DriverSeed
	Deadline *time.Time
}

// TripPlan is everything produced for one trip.
type TripPlan struct {
	Trip           domain.Trip
	Route          domain.Route
	LogSheets      []domain.LogSheet
	Summary        hos.Summary
	CycleExhausted bool
}

// TripPlanner coordinates routing, simulation, detection and log building.
//
// Drivers and Trips are optional; without them plans use the request seed
// and are not persisted.
type TripPlanner struct {
	Routes   ports.RouteProvider
	Drivers  ports.DriverRepository
	Trips    ports.TripRepository
	Sim      SimConfig
	Location *time.Location
	Now      func() time.Time
}

func NewTripPlanner(
	routes ports.RouteProvider,
	drivers ports.DriverRepository,
	trips ports.TripRepository,
	cfg SimConfig,
	loc *time.Location,
) *TripPlanner {
	if loc == nil {
		loc = time.UTC
	}
	return &TripPlanner{
		Routes:   routes,
		Drivers:  drivers,
		Trips:    trips,
		Sim:      cfg,
		Location: loc,
		Now:      time.Now,
	}
}

// Plan routes the trip, schedules it legally and renders its log sheets.
func (p *TripPlanner) Plan(ctx context.Context, req TripRequest) (_ *TripPlan, err error) {
	defer obs.Time(ctx, "planner.Plan")(&err)
	defer func() { obs.ObserveTrip(outcome(err)) }()

	if err := validateStops(req); err != nil {
		return nil, err
	}
	if p.Routes == nil {
		return nil, errors.New("plan trip: route provider is nil")
	}

	startAt := req.StartAt
	if startAt.IsZero() {
		startAt = p.Now()
	}
	startAt = startAt.In(p.Location)

	start, err := p.startState(ctx, req, startAt)
	if err != nil {
		return nil, err
	}

	route, err := p.Routes.Route(ctx, ports.RouteRequest{
		Current: req.Current,
		Pickup:  req.Pickup,
		Dropoff: req.Dropoff,
	})
	if err != nil {
		return nil, fmt.Errorf("plan trip: route: %w", err)
	}

	mapped, err := MapRoute(route, startAt, p.Sim.AverageSpeedMPH)
	if err != nil {
		return nil, fmt.Errorf("plan trip: %w", err)
	}

	cfg := p.Sim
	cfg.Deadline = req.Deadline
	simStart := time.Now()
	res, err := NewSimulator(cfg).SimulateFrom(mapped, start.clock)
	obs.ObserveSimulation(time.Since(simStart))
	if err != nil {
		return nil, fmt.Errorf("plan trip: %w", err)
	}

	// Earlier records are checked with the trip so limits carried in from
	// them are reported; only violations from startAt on belong to the trip.
	timeline := append(slices.Clone(start.prior), res.Records...)
	detected, err := DetectViolations(timeline, start.seed, DetectOptions{})
	if err != nil {
		return nil, fmt.Errorf("plan trip: %w", err)
	}
	violations := make([]domain.Violation, 0, len(detected))
	for _, v := range detected {
		if !v.Time.Before(startAt) {
			violations = append(violations, v)
		}
	}
	obs.ObserveViolations(violations)

	sheets, err := BuildLogSheets(append(earlierToday(start.prior, startAt), res.Records...), violations, LogSheetOptions{
		DriverID: req.DriverID,
		Location: p.Location,
	})
	if err != nil {
		return nil, fmt.Errorf("plan trip: %w", err)
	}

	for i := range res.Records {
		res.Records[i].ID = uuid.NewString()
	}

	current, pickup, dropoff := stopLocations(route, req)
	plan := &TripPlan{
		Trip: domain.Trip{
			ID:           uuid.NewString(),
			DriverID:     req.DriverID,
			Current:      current,
			Pickup:       pickup,
			Dropoff:      dropoff,
			StartAt:      res.StartAt,
			ArriveAt:     res.ArriveAt,
			EndAt:        res.EndAt,
			TotalMiles:   res.TotalMiles,
			DrivingHours: res.DrivingTime.Hours(),
			Provider:     route.Provider,
			Waypoints:    res.Waypoints,
			Records:      res.Records,
			Violations:   violations,
			CreatedAt:    p.Now(),
		},
		Route:          route,
		LogSheets:      sheets,
		Summary:        hos.Summarize(res.Final),
		CycleExhausted: res.CycleExhausted,
	}

	if p.Trips != nil && req.DriverID != "" {
		if err := p.Trips.SaveTrip(ctx, &plan.Trip); err != nil {
			return nil, fmt.Errorf("plan trip: save: %w", err)
		}
	}

	return plan, nil
}

// startingPoint is the driver's position when a trip begins.
type startingPoint struct {
	// Seed the prior records are replayed from.
	seed domain.DriverSeed
	// Stored records from the previous local midnight up to the trip start,
	// gaps filled with off duty. Empty for an explicit seed.
	prior []domain.DutyStatusRecord
	clock hos.State
}

// startState seeds the clock for a trip. An explicit seed is used as given.
// Otherwise the driver's daily totals before the previous local midnight seed
// a replay of the records stored since then, so time already worked today
// counts against the trip.
func (p *TripPlanner) startState(ctx context.Context, req TripRequest, startAt time.Time) (startingPoint, error) {
	var st startingPoint
	from := startAt
	switch {
	case req.Seed != nil:
		st.seed = *req.Seed
	case p.Drivers != nil && req.DriverID != "":
		if p.Trips != nil {
			from = startOfLocalDay(startAt).AddDate(0, 0, -1)
		}
		s, err := p.Drivers.DriverSeed(ctx, req.DriverID, from)
		if err != nil {
			return startingPoint{}, fmt.Errorf("plan trip: driver seed: %w", err)
		}
		st.seed = s
	}

	if st.seed.CycleType == "" {
		st.seed.CycleType = domain.Cycle70Hour8Day
	}
	if err := st.seed.Validate(); err != nil {
		return startingPoint{}, fmt.Errorf("plan trip: %w", err)
	}

	if from.Before(startAt) {
		stored, err := p.Trips.ListDutyRecords(ctx, req.DriverID, from, startAt)
		if err != nil {
			return startingPoint{}, fmt.Errorf("plan trip: driver records: %w", err)
		}
		st.prior = StitchTimeline(inLocation(stored, p.Location), from, startAt)
	}

	clock, err := ReplayState(st.prior, st.seed, startAt, false)
	if err != nil {
		return startingPoint{}, fmt.Errorf("plan trip: %w", err)
	}
	st.clock = clock
	return st, nil
}

// earlierToday returns the stored records of startAt's local day, from the
// first real record on. Leading filler is left for the log sheet to pad.
func earlierToday(prior []domain.DutyStatusRecord, startAt time.Time) []domain.DutyStatusRecord {
	today := StitchTimeline(prior, startOfLocalDay(startAt), startAt)
	for i, r := range today {
		if !(r.Automatic && r.Notes == gapNote) {
			return slices.Clone(today[i:])
		}
	}
	return nil
}

func inLocation(records []domain.DutyStatusRecord, loc *time.Location) []domain.DutyStatusRecord {
	out := make([]domain.DutyStatusRecord, len(records))
	for i, r := range records {
		r.Start = r.Start.In(loc)
		if r.End != nil {
			end := r.End.In(loc)
			r.End = &end
		}
		out[i] = r
	}
	return out
}

func validateStops(req TripRequest) error {
	stops := []struct {
		field string
		loc   domain.Location
	}{
		{"current_location", req.Current},
		{"pickup_location", req.Pickup},
		{"dropoff_location", req.Dropoff},
	}
	for _, s := range stops {
		if s.loc.IsZero() && strings.TrimSpace(s.loc.Label) == "" {
			return domain.NewInputError(s.field, "address or coordinates required")
		}
	}
	return nil
}

// stopLocations returns the routed coordinates of the three stops with the
// caller's labels.
func stopLocations(route domain.Route, req TripRequest) (current, pickup, dropoff domain.Location) {
	current, pickup, dropoff = req.Current, req.Pickup, req.Dropoff
	if len(route.Segments) == 0 {
		return current, pickup, dropoff
	}

	current.Coordinates = route.Segments[0].Start
	dropoff.Coordinates = route.Segments[len(route.Segments)-1].End
	for _, s := range route.Segments {
		if s.EndStop == domain.WaypointPickup {
			pickup.Coordinates = s.End
			break
		}
	}
	return current, pickup, dropoff
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, domain.ErrInfeasibleTrip):
		return "infeasible"
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return "upstream"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	}
	return "error"
}
