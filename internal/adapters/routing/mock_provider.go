package routing

import (
	"context"
	"fmt"
	"hos-trip-planner/internal/domain"
	"hos-trip-planner/internal/ports"
	"sync/atomic"
)

type MockPlace struct {
	Address  string
	Lon, Lat float64
}

// MockGeocoder resolves a fixed set of addresses.
type MockGeocoder struct {
	m map[string]domain.Coordinates
}

func NewMockGeocoder(places []MockPlace) *MockGeocoder {
	m := make(map[string]domain.Coordinates, len(places))
	for _, p := range places {
		m[normalize(p.Address)] = domain.Coordinates{Lon: p.Lon, Lat: p.Lat}
	}
	return &MockGeocoder{m: m}
}

func (g *MockGeocoder) Geocode(ctx context.Context, address string) (domain.Coordinates, error) {
	c, ok := g.m[normalize(address)]
	if !ok {
		return domain.Coordinates{}, &domain.UpstreamError{Provider: "mock", Err: fmt.Errorf("unknown address %q", address)}
	}
	return c, nil
}

// MockRouteProvider returns the same route for every request and counts calls.
type MockRouteProvider struct {
	Result domain.Route
	Err    error
	calls  atomic.Int64
}

func (p *MockRouteProvider) Route(ctx context.Context, req ports.RouteRequest) (domain.Route, error) {
	p.calls.Add(1)
	if p.Err != nil {
		return domain.Route{}, p.Err
	}
	route := p.Result
	route.Segments = append([]domain.RouteSegment(nil), p.Result.Segments...)
	if route.StartLabel == "" {
		route.StartLabel = req.Current.Label
	}
	if route.PickupLabel == "" {
		route.PickupLabel = req.Pickup.Label
	}
	if route.DropoffLabel == "" {
		route.DropoffLabel = req.Dropoff.Label
	}
	return route, nil
}

func (p *MockRouteProvider) Calls() int64 { return p.calls.Load() }
