package services

import (
	"context"
	"errors"
	"hos-trip-planner/internal/adapters/routing"
	"hos-trip-planner/internal/domain"
	"math"
	"sync"
	"testing"
	"time"
)

type fakeDrivers struct {
	drivers map[string]domain.Driver
	seeds   map[string]domain.DriverSeed
}

func (f *fakeDrivers) GetDriver(ctx context.Context, id string) (domain.Driver, error) {
	d, ok := f.drivers[id]
	if !ok {
		return domain.Driver{}, domain.ErrNotFound
	}
	return d, nil
}

func (f *fakeDrivers) DriverSeed(ctx context.Context, id string, at time.Time) (domain.DriverSeed, error) {
	d, err := f.GetDriver(ctx, id)
	if err != nil {
		return domain.DriverSeed{}, err
	}
	seed := f.seeds[id]
	seed.CycleType = d.CycleType
	return seed, nil
}

type fakeTrips struct {
	mu      sync.Mutex
	saved   []domain.Trip
	records map[string][]domain.DutyStatusRecord
}

func (f *fakeTrips) SaveTrip(ctx context.Context, trip *domain.Trip) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, *trip)
	if f.records == nil {
		f.records = make(map[string][]domain.DutyStatusRecord)
	}
	f.records[trip.DriverID] = append(f.records[trip.DriverID], trip.Records...)
	return nil
}

func (f *fakeTrips) GetTrip(ctx context.Context, id string) (domain.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.saved {
		if t.ID == id {
			return t, nil
		}
	}
	return domain.Trip{}, domain.ErrNotFound
}

func (f *fakeTrips) ListDutyRecords(ctx context.Context, driverID string, from, to time.Time) ([]domain.DutyStatusRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.DutyStatusRecord
	for _, r := range f.records[driverID] {
		if r.Start.Before(to) && (r.End == nil || r.End.After(from)) {
			out = append(out, r)
		}
	}
	return out, nil
}

func serviceRoute() domain.Route {
	r := domain.Route{
		Provider: "mock",
		Segments: []domain.RouteSegment{
			{Start: domain.Coordinates{Lon: -96.8, Lat: 32.78}, End: domain.Coordinates{Lon: -97.15, Lat: 31.55}, DistanceMiles: 55, DurationSeconds: 3600, EndStop: domain.WaypointPickup},
			{Start: domain.Coordinates{Lon: -97.15, Lat: 31.55}, End: domain.Coordinates{Lon: -95.37, Lat: 29.76}, DistanceMiles: 330, DurationSeconds: 6 * 3600, EndStop: domain.WaypointDropoff},
		},
	}
	r.ComputeTotals()
	return r
}

func tripRequest(driverID string) TripRequest {
	return TripRequest{
		DriverID: driverID,
		Current:  domain.Location{Label: "Dallas, TX"},
		Pickup:   domain.Location{Label: "Waco, TX"},
		Dropoff:  domain.Location{Label: "Houston, TX"},
		StartAt:  tripStart,
	}
}

func newTestPlanner(route domain.Route) (*TripPlanner, *routing.MockRouteProvider, *fakeTrips) {
	provider := &routing.MockRouteProvider{Result: route}
	trips := &fakeTrips{}
	drivers := &fakeDrivers{
		drivers: map[string]domain.Driver{
			"D-1": {DriverID: "D-1", CycleType: domain.Cycle70Hour8Day},
			"D-2": {DriverID: "D-2", CycleType: domain.Cycle70Hour8Day},
		},
		seeds: map[string]domain.DriverSeed{
			"D-2": {CycleUsedHours: 68},
		},
	}
	p := NewTripPlanner(provider, drivers, trips, DefaultSimConfig(), time.UTC)
	p.Now = func() time.Time { return tripStart }
	return p, provider, trips
}

func TestPlanTrip(t *testing.T) {
	p, provider, trips := newTestPlanner(serviceRoute())

	plan, err := p.Plan(context.Background(), tripRequest("D-1"))
	if err != nil {
		t.Fatalf("Plan: unexpected error: %v", err)
	}

	if provider.Calls() != 1 {
		t.Fatalf("provider calls = %d, want 1", provider.Calls())
	}
	trip := plan.Trip
	if trip.ID == "" || trip.DriverID != "D-1" {
		t.Fatalf("trip = %+v", trip)
	}
	if !trip.ArriveAt.Equal(tripStart.Add(8*time.Hour)) || !trip.EndAt.Equal(tripStart.Add(9*time.Hour)) {
		t.Fatalf("ArriveAt/EndAt = %v/%v", trip.ArriveAt, trip.EndAt)
	}
	if trip.TotalMiles != 385 || trip.DrivingHours != 7 {
		t.Fatalf("miles/hours = %v/%v", trip.TotalMiles, trip.DrivingHours)
	}
	if trip.Pickup.Label != "Waco, TX" || trip.Pickup.Lon != -97.15 || trip.Dropoff.Lat != 29.76 {
		t.Fatalf("stops = %+v / %+v", trip.Pickup, trip.Dropoff)
	}
	for i, r := range trip.Records {
		if r.ID == "" {
			t.Fatalf("record %d has no ID", i)
		}
	}
	if len(trip.Violations) != 0 {
		t.Fatalf("violations = %v, want none", trip.Violations)
	}

	if len(plan.LogSheets) != 1 || plan.LogSheets[0].Totals.Driving != 7 {
		t.Fatalf("log sheets = %d", len(plan.LogSheets))
	}
	if plan.Summary.CycleUsed != 9 || plan.Summary.DailyDrivingAvailable != 4 {
		t.Fatalf("summary = %+v", plan.Summary)
	}

	if len(trips.saved) != 1 || trips.saved[0].ID != trip.ID {
		t.Fatalf("saved trips = %d, want the planned trip", len(trips.saved))
	}
}

func TestPlanTripUsesStoredCycle(t *testing.T) {
	p, _, _ := newTestPlanner(serviceRoute())

	plan, err := p.Plan(context.Background(), tripRequest("D-2"))
	if err != nil {
		t.Fatalf("Plan: unexpected error: %v", err)
	}
	if !plan.CycleExhausted {
		t.Fatalf("CycleExhausted = false for a driver with 68h used")
	}
	v, ok := findViolation(plan.Trip.Violations, domain.ViolationCycle70h)
	if !ok {
		t.Fatalf("violations = %v, want cycle_70h", plan.Trip.Violations)
	}
	if math.Abs(v.ActualValue-77) > 1e-9 {
		t.Fatalf("cycle peak = %v, want 77", v.ActualValue)
	}
}

func TestPlanTripContinuesFromEarlierTripToday(t *testing.T) {
	p, _, _ := newTestPlanner(serviceRoute())
	ctx := context.Background()

	first, err := p.Plan(ctx, tripRequest("D-1"))
	if err != nil {
		t.Fatalf("Plan first trip: %v", err)
	}

	req := tripRequest("D-1")
	req.StartAt = first.Trip.EndAt
	second, err := p.Plan(ctx, req)
	if err != nil {
		t.Fatalf("Plan second trip: %v", err)
	}

	rested := false
	for _, w := range second.Trip.Waypoints {
		if w.Kind == domain.WaypointDailyRest {
			rested = true
		}
	}
	if !rested {
		t.Fatalf("second trip has no daily rest after 9h already on duty today")
	}
	if len(second.Trip.Violations) != 0 {
		t.Fatalf("second trip violations = %v, want none", second.Trip.Violations)
	}

	both := append(append([]domain.DutyStatusRecord{}, first.Trip.Records...), second.Trip.Records...)
	vs, err := DetectViolations(both, domain.DriverSeed{CycleType: domain.Cycle70Hour8Day}, DetectOptions{})
	if err != nil {
		t.Fatalf("DetectViolations: %v", err)
	}
	if len(vs) != 0 {
		t.Fatalf("violations across both trips = %v, want none", vs)
	}

	if math.Abs(second.Summary.CycleUsed-18) > 1e-9 {
		t.Fatalf("CycleUsed = %v, want 18 including the first trip", second.Summary.CycleUsed)
	}
	today := second.LogSheets[0]
	if !today.Date.Equal(at(2, 0, 0)) || today.Totals.TotalOnDuty <= 9 {
		t.Fatalf("first sheet %s on duty = %vh, want the first trip's 9h plus more", today.Date.Format(time.DateOnly), today.Totals.TotalOnDuty)
	}
}

func TestPlanTripCarriesDrivingOverMidnight(t *testing.T) {
	p, _, trips := newTestPlanner(serviceRoute())

	// Ten hours of driving ending at 02:00 leave one hour for the next trip.
	end := at(2, 2, 0)
	trips.records = map[string][]domain.DutyStatusRecord{
		"D-1": {rec(domain.Driving, at(1, 16, 0), end)},
	}
	req := tripRequest("D-1")
	req.StartAt = end
	plan, err := p.Plan(context.Background(), req)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	var firstDrive time.Duration
	for _, r := range plan.Trip.Records {
		if r.Status != domain.Driving {
			if firstDrive > 0 {
				break
			}
			continue
		}
		firstDrive += r.Duration(time.Time{})
	}
	if firstDrive > time.Hour {
		t.Fatalf("first driving stretch = %s, want at most the 1h left from the stored records", firstDrive)
	}
	if len(plan.Trip.Violations) != 0 {
		t.Fatalf("violations = %v, want none", plan.Trip.Violations)
	}
}

func TestPlanTripExplicitSeedWins(t *testing.T) {
	p, _, _ := newTestPlanner(serviceRoute())
	req := tripRequest("D-2")
	req.Seed = &domain.DriverSeed{CycleType: domain.Cycle70Hour8Day, CycleUsedHours: 10}

	plan, err := p.Plan(context.Background(), req)
	if err != nil {
		t.Fatalf("Plan: unexpected error: %v", err)
	}
	if plan.CycleExhausted || len(plan.Trip.Violations) != 0 {
		t.Fatalf("plan should use the request seed, got %v", plan.Trip.Violations)
	}
}

func TestPlanTripErrors(t *testing.T) {
	p, provider, trips := newTestPlanner(serviceRoute())
	ctx := context.Background()

	req := tripRequest("D-1")
	req.Pickup = domain.Location{}
	if _, err := p.Plan(ctx, req); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("missing pickup err = %v, want ErrInvalidInput", err)
	}
	if provider.Calls() != 0 {
		t.Fatalf("provider should not be called for invalid input")
	}

	if _, err := p.Plan(ctx, tripRequest("D-404")); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown driver err = %v, want ErrNotFound", err)
	}

	deadline := tripStart.Add(6 * time.Hour)
	req = tripRequest("D-1")
	req.Deadline = &deadline
	if _, err := p.Plan(ctx, req); !errors.Is(err, domain.ErrInfeasibleTrip) {
		t.Fatalf("deadline err = %v, want ErrInfeasibleTrip", err)
	}

	provider.Err = &domain.UpstreamError{Provider: "mock", Err: errors.New("timeout")}
	if _, err := p.Plan(ctx, tripRequest("D-1")); !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("routing err = %v, want ErrUpstreamUnavailable", err)
	}

	if len(trips.saved) != 0 {
		t.Fatalf("failed plans should not be saved, got %d", len(trips.saved))
	}
}

func TestPlanTripWithoutDriverIsNotSaved(t *testing.T) {
	p, _, trips := newTestPlanner(serviceRoute())

	if _, err := p.Plan(context.Background(), tripRequest("")); err != nil {
		t.Fatalf("Plan: unexpected error: %v", err)
	}
	if len(trips.saved) != 0 {
		t.Fatalf("anonymous plan saved %d trips, want 0", len(trips.saved))
	}
}

func TestPlanTripsKeepsOrderAndIsolatesFailures(t *testing.T) {
	p, _, _ := newTestPlanner(serviceRoute())

	bad := tripRequest("D-1")
	bad.Dropoff = domain.Location{}
	reqs := []TripRequest{tripRequest("D-1"), bad, tripRequest("D-2"), tripRequest("")}

	results, err := p.PlanTrips(context.Background(), reqs, 2)
	if err != nil {
		t.Fatalf("PlanTrips: unexpected error: %v", err)
	}
	if len(results) != len(reqs) {
		t.Fatalf("results = %d, want %d", len(results), len(reqs))
	}
	for i, r := range results {
		if r.Index != i {
			t.Fatalf("result %d has Index %d", i, r.Index)
		}
	}
	if results[0].Err != nil || results[0].Plan == nil {
		t.Fatalf("first result = %+v", results[0])
	}
	if !errors.Is(results[1].Err, domain.ErrInvalidInput) || results[1].Plan != nil {
		t.Fatalf("second result = %+v, want invalid input", results[1])
	}
	if results[2].Plan == nil || !results[2].Plan.CycleExhausted {
		t.Fatalf("third result should be planned with the stored cycle")
	}
}

func TestPlanTripsRejectsBadBatches(t *testing.T) {
	p, _, _ := newTestPlanner(serviceRoute())

	if _, err := p.PlanTrips(context.Background(), nil, 4); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("empty batch err = %v, want ErrInvalidInput", err)
	}
	if _, err := p.PlanTrips(context.Background(), make([]TripRequest, MaxBatchTrips+1), 4); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("oversized batch err = %v, want ErrInvalidInput", err)
	}
}
