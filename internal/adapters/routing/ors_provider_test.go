package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hos-trip-planner/internal/domain"
	"hos-trip-planner/internal/ports"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type memGeocodeCache struct {
	mu sync.Mutex
	m  map[string]domain.Coordinates
}

func (c *memGeocodeCache) GetMany(ctx context.Context, addresses []string) (map[string]domain.Coordinates, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := map[string]domain.Coordinates{}
	for _, a := range addresses {
		if v, ok := c.m[a]; ok {
			out[a] = v
		}
	}
	return out, nil
}

func (c *memGeocodeCache) PutMany(ctx context.Context, results map[string]domain.Coordinates) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.m == nil {
		c.m = map[string]domain.Coordinates{}
	}
	for k, v := range results {
		c.m[k] = v
	}
	return nil
}

const directionsBody = `{
  "features": [{
    "geometry": {"coordinates": [[-96.80, 32.78], [-97.00, 32.00], [-97.15, 31.55], [-96.00, 30.50], [-95.37, 29.76]]},
    "properties": {"segments": [
      {"distance": 95, "duration": 5400, "steps": [
        {"distance": 60, "duration": 3300, "name": "I-35E", "way_points": [0, 1]},
        {"distance": 35, "duration": 2100, "name": "-", "way_points": [1, 2]}
      ]},
      {"distance": 185, "duration": 11000, "steps": [
        {"distance": 185, "duration": 11000, "name": "US-84", "way_points": [2, 4]}
      ]}
    ]}
  }]
}`

func located(label string, lon, lat float64) domain.Location {
	return domain.Location{Label: label, Coordinates: domain.Coordinates{Lon: lon, Lat: lat}}
}

func testRequest() ports.RouteRequest {
	return ports.RouteRequest{
		Current: located("Dallas, TX", -96.80, 32.78),
		Pickup:  located("Waco, TX", -97.15, 31.55),
		Dropoff: located("Houston, TX", -95.37, 29.76),
	}
}

func newTestProvider(t *testing.T, srv *httptest.Server, cache ports.GeocodeCache) *ORSRouteProvider {
	t.Helper()
	p, err := NewORSRouteProvider("test-key", cache, WithBaseURL(srv.URL), WithRetryPolicy(RetryPolicy{Attempts: 3, Backoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}))
	if err != nil {
		t.Fatalf("NewORSRouteProvider: %v", err)
	}
	return p
}

func TestNewORSRouteProviderRequiresKey(t *testing.T) {
	if _, err := NewORSRouteProvider("  ", nil); err == nil {
		t.Fatalf("expected an error for an empty api key")
	}
}

func TestORSRouteSendsTruckProfile(t *testing.T) {
	var got directionsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/directions/driving-hgv/geojson" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "test-key" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		fmt.Fprint(w, directionsBody)
	}))
	defer srv.Close()

	route, err := newTestProvider(t, srv, nil).Route(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Route: %v", err)
	}

	if got.Units != "mi" || got.Options.VehicleType != "hgv" || len(got.Coordinates) != 3 {
		t.Fatalf("request = %+v", got)
	}
	if got.Options.ProfileParams.Restrictions != DefaultTruckRestrictions() {
		t.Fatalf("restrictions = %+v", got.Options.ProfileParams.Restrictions)
	}

	if len(route.Segments) != 3 {
		t.Fatalf("segments = %d, want 3", len(route.Segments))
	}
	if route.TotalMiles != 280 || route.TotalSeconds != 16400 {
		t.Fatalf("totals = %v mi / %v s", route.TotalMiles, route.TotalSeconds)
	}
	if s := route.Segments[0]; s.RoadName != "I-35E" || s.EndStop != domain.WaypointNone {
		t.Fatalf("first segment = %+v", s)
	}
	if s := route.Segments[1]; s.RoadName != "" || s.EndStop != domain.WaypointPickup || s.End.Lon != -97.15 {
		t.Fatalf("pickup segment = %+v", s)
	}
	if s := route.Segments[2]; s.EndStop != domain.WaypointDropoff || s.End.Lat != 29.76 {
		t.Fatalf("dropoff segment = %+v", s)
	}
	if route.Provider != "openrouteservice" || route.PickupLabel != "Waco, TX" {
		t.Fatalf("route = %+v", route)
	}
}

func TestORSRouteRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, directionsBody)
	}))
	defer srv.Close()

	if _, err := newTestProvider(t, srv, nil).Route(context.Background(), testRequest()); err != nil {
		t.Fatalf("Route: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3", calls.Load())
	}
}

func TestORSRouteDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"bad coordinates"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestProvider(t, srv, nil).Route(context.Background(), testRequest())
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("err = %v, want ErrUpstreamUnavailable", err)
	}
	var he *statusError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("err = %v, want a wrapped 400", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}

func TestORSRouteReportsRateLimitAfterLastAttempt(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "120")
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestProvider(t, srv, nil).Route(context.Background(), testRequest())
	var se *statusError
	if !errors.As(err, &se) || se.Code != http.StatusTooManyRequests {
		t.Fatalf("err = %v, want a wrapped 429", err)
	}
	if se.RetryAfter != 2*time.Minute {
		t.Fatalf("RetryAfter = %v, want 2m", se.RetryAfter)
	}
	// The header asks for two minutes; MaxBackoff keeps the test at milliseconds.
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3", calls.Load())
	}
}

func TestRetryPolicyDelay(t *testing.T) {
	p := RetryPolicy{Attempts: 5, Backoff: 10 * time.Millisecond, MaxBackoff: 25 * time.Millisecond}
	plain := &statusError{Code: http.StatusBadGateway}

	tests := []struct {
		name    string
		attempt int
		err     error
		want    time.Duration
	}{
		{"first", 1, plain, 10 * time.Millisecond},
		{"doubled", 2, plain, 20 * time.Millisecond},
		{"capped", 3, plain, 25 * time.Millisecond},
		{"retry after longer", 1, &statusError{Code: 503, RetryAfter: 15 * time.Millisecond}, 15 * time.Millisecond},
		{"retry after shorter", 2, &statusError{Code: 503, RetryAfter: time.Millisecond}, 20 * time.Millisecond},
		{"retry after capped", 1, &statusError{Code: 429, RetryAfter: time.Hour}, 25 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.delay(tt.attempt, tt.err); got != tt.want {
				t.Fatalf("delay = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", 0},
		{"7", 7 * time.Second},
		{"-3", 0},
		{now.Add(90 * time.Second).Format(http.TimeFormat), 90 * time.Second},
		{now.Add(-time.Minute).Format(http.TimeFormat), 0},
		{"soon", 0},
	}
	for _, tt := range tests {
		if got := parseRetryAfter(tt.in, now); got != tt.want {
			t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestORSGeocodeUsesCache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/geocode/search" || r.URL.Query().Get("text") != "Waco, TX" {
			t.Errorf("request = %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		fmt.Fprint(w, `{"features":[{"geometry":{"coordinates":[-97.15,31.55]}}]}`)
	}))
	defer srv.Close()

	cache := &memGeocodeCache{}
	p := newTestProvider(t, srv, cache)

	for range 2 {
		c, err := p.Geocode(context.Background(), "  Waco,   TX ")
		if err != nil {
			t.Fatalf("Geocode: %v", err)
		}
		if c.Lon != -97.15 || c.Lat != 31.55 {
			t.Fatalf("coordinates = %+v", c)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("upstream calls = %d, want 1 with a warm cache", calls.Load())
	}
	if _, ok := cache.m["Waco, TX"]; !ok {
		t.Fatalf("cache = %v, want the normalized address stored", cache.m)
	}
}

func TestORSGeocodeNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"features":[]}`)
	}))
	defer srv.Close()

	_, err := newTestProvider(t, srv, nil).Geocode(context.Background(), "Nowhere")
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("err = %v, want ErrUpstreamUnavailable", err)
	}
	if _, err := newTestProvider(t, srv, nil).Geocode(context.Background(), " "); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("empty address err = %v, want ErrInvalidInput", err)
	}
}

func TestToRouteRejectsWrongLegCount(t *testing.T) {
	var dr directionsResponse
	if err := json.Unmarshal([]byte(`{"features":[{"properties":{"segments":[{"distance":1,"duration":60}]}}]}`), &dr); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, err := toRoute(dr, testRequest()); err == nil {
		t.Fatalf("expected an error for a single leg")
	}
}
