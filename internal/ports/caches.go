package ports

import (
	"context"
	"hos-trip-planner/internal/domain"
	"time"
)

// Persistent address -> coordinates cache.
type GeocodeCache interface {
	GetMany(ctx context.Context, addresses []string) (map[string]domain.Coordinates, error)
	PutMany(ctx context.Context, results map[string]domain.Coordinates) error
}

// Route cache keyed by a stable digest of the stop coordinates.
// A miss is reported as found == false with a nil error.
type RouteCache interface {
	GetRoute(ctx context.Context, key string) (route domain.Route, found bool, err error)
	PutRoute(ctx context.Context, key string, route domain.Route, ttl time.Duration) error
}
