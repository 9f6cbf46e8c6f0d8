package routing

import (
	"context"
	"errors"
	"hos-trip-planner/internal/domain"
	"hos-trip-planner/internal/ports"
	"math"
	"sync"
	"testing"
	"time"
)

func TestStraightLineRoute(t *testing.T) {
	p := NewStraightLineProvider(0, nil)
	route, err := p.Route(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Route: %v", err)
	}

	if len(route.Segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(route.Segments))
	}
	if route.Segments[0].EndStop != domain.WaypointPickup || route.Segments[1].EndStop != domain.WaypointDropoff {
		t.Fatalf("end stops = %v, %v", route.Segments[0].EndStop, route.Segments[1].EndStop)
	}
	for _, s := range route.Segments {
		if math.Abs(s.DurationSeconds-s.DistanceMiles/55*3600) > 1e-6 {
			t.Fatalf("segment %+v not at 55 mph", s)
		}
	}
	// Dallas to Waco is roughly 88 miles as the crow flies.
	if d := route.Segments[0].DistanceMiles; d < 80 || d > 95 {
		t.Fatalf("Dallas to Waco = %v mi", d)
	}
	if route.Provider != "straight_line" {
		t.Fatalf("Provider = %q", route.Provider)
	}
}

func TestStraightLineGeocodesMissingStops(t *testing.T) {
	geo := NewMockGeocoder([]MockPlace{{Address: "Waco, TX", Lon: -97.15, Lat: 31.55}})
	req := testRequest()
	req.Pickup = domain.Location{Label: "Waco,  TX"}

	route, err := NewStraightLineProvider(55, geo).Route(context.Background(), req)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if route.Segments[0].End.Lon != -97.15 {
		t.Fatalf("pickup = %+v, want geocoded coordinates", route.Segments[0].End)
	}

	_, err = NewStraightLineProvider(55, nil).Route(context.Background(), req)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput without a geocoder", err)
	}
}

type memRouteCache struct {
	mu   sync.Mutex
	m    map[string]domain.Route
	fail bool
}

func (c *memRouteCache) GetRoute(ctx context.Context, key string) (domain.Route, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return domain.Route{}, false, errors.New("cache down")
	}
	r, ok := c.m[key]
	return r, ok, nil
}

func (c *memRouteCache) PutRoute(ctx context.Context, key string, route domain.Route, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("cache down")
	}
	if c.m == nil {
		c.m = map[string]domain.Route{}
	}
	c.m[key] = route
	return nil
}

func mockRoute() domain.Route {
	r := domain.Route{
		Provider: "mock",
		Segments: []domain.RouteSegment{
			{DistanceMiles: 95, DurationSeconds: 5400, EndStop: domain.WaypointPickup},
			{DistanceMiles: 185, DurationSeconds: 11000, EndStop: domain.WaypointDropoff},
		},
	}
	r.ComputeTotals()
	return r
}

func TestCachedRouteProviderServesRepeats(t *testing.T) {
	next := &MockRouteProvider{Result: mockRoute()}
	p := &CachedRouteProvider{Next: next, Cache: &memRouteCache{}}

	if _, err := p.Route(context.Background(), testRequest()); err != nil {
		t.Fatalf("Route: %v", err)
	}

	req := testRequest()
	req.Pickup.Label = "Waco Distribution Center"
	route, err := p.Route(context.Background(), req)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}

	if next.Calls() != 1 {
		t.Fatalf("provider calls = %d, want 1", next.Calls())
	}
	if route.PickupLabel != "Waco Distribution Center" {
		t.Fatalf("PickupLabel = %q, want the caller's label", route.PickupLabel)
	}
}

func TestCachedRouteProviderFallsThroughOnCacheErrors(t *testing.T) {
	next := &MockRouteProvider{Result: mockRoute()}
	p := &CachedRouteProvider{Next: next, Cache: &memRouteCache{fail: true}}

	for range 2 {
		if _, err := p.Route(context.Background(), testRequest()); err != nil {
			t.Fatalf("Route: %v", err)
		}
	}
	if next.Calls() != 2 {
		t.Fatalf("provider calls = %d, want 2 when the cache is down", next.Calls())
	}
}

func TestCachedRouteProviderGeocodesBeforeKeying(t *testing.T) {
	geo := NewMockGeocoder([]MockPlace{
		{Address: "Dallas, TX", Lon: -96.80, Lat: 32.78},
		{Address: "Waco, TX", Lon: -97.15, Lat: 31.55},
		{Address: "Houston, TX", Lon: -95.37, Lat: 29.76},
	})
	next := &MockRouteProvider{Result: mockRoute()}
	cache := &memRouteCache{}
	p := &CachedRouteProvider{Next: next, Geocoder: geo, Cache: cache}

	req := ports.RouteRequest{
		Current: domain.Location{Label: "Dallas, TX"},
		Pickup:  domain.Location{Label: "Waco, TX"},
		Dropoff: domain.Location{Label: "Houston, TX"},
	}
	if _, err := p.Route(context.Background(), req); err != nil {
		t.Fatalf("Route: %v", err)
	}

	key, ok := RouteKey(testRequest())
	if !ok {
		t.Fatalf("RouteKey should be cacheable for located stops")
	}
	if _, found := cache.m[key]; !found {
		t.Fatalf("cache keys = %v, want %s", cache.m, key)
	}
}

func TestRouteKeyNeedsCoordinates(t *testing.T) {
	req := testRequest()
	req.Dropoff = domain.Location{Label: "Houston, TX"}
	if _, ok := RouteKey(req); ok {
		t.Fatalf("RouteKey should not be cacheable with an unlocated stop")
	}
}

func TestMockProviderError(t *testing.T) {
	p := &MockRouteProvider{Err: &domain.UpstreamError{Provider: "mock", Err: errors.New("down")}}
	if _, err := p.Route(context.Background(), testRequest()); !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("err = %v, want ErrUpstreamUnavailable", err)
	}
}
