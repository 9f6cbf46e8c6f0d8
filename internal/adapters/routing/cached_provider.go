package routing

import (
	"context"
	"fmt"
	"hos-trip-planner/internal/domain"
	"hos-trip-planner/internal/platform/obs"
	"hos-trip-planner/internal/ports"
	"time"

	"github.com/rs/zerolog/log"
)

const DefaultRouteTTL = 24 * time.Hour

// CachedRouteProvider serves repeated stop sequences from a RouteCache.
// Cache failures are logged and fall through to the wrapped provider.
type CachedRouteProvider struct {
	Next     ports.RouteProvider
	Geocoder ports.Geocoder
	Cache    ports.RouteCache
	TTL      time.Duration
}

func (p *CachedRouteProvider) Route(ctx context.Context, req ports.RouteRequest) (_ domain.Route, err error) {
	defer obs.Time(ctx, "route.cached")(&err)

	// Keys are built from coordinates, so stops are located first.
	if p.Geocoder != nil {
		for _, s := range []*domain.Location{&req.Current, &req.Pickup, &req.Dropoff} {
			if !s.IsZero() {
				continue
			}
			c, err := p.Geocoder.Geocode(ctx, s.Label)
			if err != nil {
				return domain.Route{}, fmt.Errorf("cached route: %w", err)
			}
			s.Coordinates = c
		}
	}

	key, cacheable := RouteKey(req)
	if cacheable && p.Cache != nil {
		route, found, err := p.Cache.GetRoute(ctx, key)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("route cache read failed")
		} else if found {
			return relabel(route, req), nil
		}
	}

	route, err := p.Next.Route(ctx, req)
	if err != nil {
		return domain.Route{}, err
	}

	if cacheable && p.Cache != nil {
		ttl := p.TTL
		if ttl <= 0 {
			ttl = DefaultRouteTTL
		}
		if err := p.Cache.PutRoute(ctx, key, route, ttl); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("route cache write failed")
		}
	}
	return route, nil
}

// RouteKey identifies a stop sequence to about a metre. Requests with an
// unlocated stop are not cacheable.
func RouteKey(req ports.RouteRequest) (string, bool) {
	stops := []domain.Location{req.Current, req.Pickup, req.Dropoff}
	key := "hos:route:v1"
	for _, s := range stops {
		if s.IsZero() {
			return "", false
		}
		key += fmt.Sprintf(":%.5f,%.5f", s.Lon, s.Lat)
	}
	return key, true
}

// relabel applies the caller's labels; the same coordinates may be addressed differently.
func relabel(route domain.Route, req ports.RouteRequest) domain.Route {
	route.StartLabel = req.Current.Label
	route.PickupLabel = req.Pickup.Label
	route.DropoffLabel = req.Dropoff.Label
	return route
}
