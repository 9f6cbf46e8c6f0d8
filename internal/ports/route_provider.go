package ports

import (
	"context"
	"hos-trip-planner/internal/domain"
)

// Stops to route through, in driving order.
type RouteRequest struct {
	Current domain.Location
	Pickup  domain.Location
	Dropoff domain.Location
}

// Contract for turning located stops into a routed path.
// The returned segments mark the pickup and dropoff with EndStop.
type RouteProvider interface {
	Route(ctx context.Context, req RouteRequest) (domain.Route, error)
}

// Contract for resolving a free-text address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (domain.Coordinates, error)
}
