package routing

import (
	"context"
	"errors"
	"fmt"
	"hos-trip-planner/internal/domain"
	"hos-trip-planner/internal/platform/obs"
	"hos-trip-planner/internal/ports"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const orsProviderName = "openrouteservice"

// TruckRestrictions are the ORS heavy-goods-vehicle limits, in metres and tonnes.
type TruckRestrictions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Weight float64 `json:"weight"`
}

// DefaultTruckRestrictions describe a loaded 53 ft tractor-trailer:
// 40,000 lb, 13.6 ft high, 8.5 ft wide.
func DefaultTruckRestrictions() TruckRestrictions {
	return TruckRestrictions{
		Length: 16.15,
		Width:  2.59,
		Height: 4.15,
		Weight: 18.14,
	}
}

// ORSRouteProvider implements RouteProvider and Geocoder using OpenRouteService.
//
// It coordinates:
//   - Address normalization
//   - Persistent geocode caching
//   - Truck-profile directions
//   - External API calls with retry/backoff
//
// The provider is safe for concurrent use.
type ORSRouteProvider struct {
	session      *http.Client
	apiKey       string
	baseURL      string
	profile      string
	restrictions TruckRestrictions
	geocodeCache ports.GeocodeCache

	retry RetryPolicy
}

type ORSOption func(*ORSRouteProvider)

// WithBaseURL points the provider at another ORS deployment.
func WithBaseURL(u string) ORSOption {
	return func(o *ORSRouteProvider) { o.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(c *http.Client) ORSOption {
	return func(o *ORSRouteProvider) { o.session = c }
}

func WithRestrictions(r TruckRestrictions) ORSOption {
	return func(o *ORSRouteProvider) { o.restrictions = r }
}

// WithRetryPolicy replaces DefaultRetryPolicy. Zero fields keep the default.
func WithRetryPolicy(p RetryPolicy) ORSOption {
	return func(o *ORSRouteProvider) {
		if p.Attempts > 0 {
			o.retry.Attempts = p.Attempts
		}
		if p.Backoff > 0 {
			o.retry.Backoff = p.Backoff
		}
		if p.MaxBackoff > 0 {
			o.retry.MaxBackoff = p.MaxBackoff
		}
	}
}

func NewORSRouteProvider(apiKey string, geocodeCache ports.GeocodeCache, opts ...ORSOption) (*ORSRouteProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("ORS api key is empty")
	}

	provider := &ORSRouteProvider{
		session:      &http.Client{Timeout: 15 * time.Second},
		apiKey:       apiKey,
		baseURL:      "https://api.openrouteservice.org",
		profile:      "driving-hgv",
		restrictions: DefaultTruckRestrictions(),
		geocodeCache: geocodeCache,
		retry:        DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(provider)
	}

	return provider, nil
}

// normalize ensures consistent cache keys by collapsing whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Geocode resolves an address, consulting the persistent cache first.
func (o *ORSRouteProvider) Geocode(ctx context.Context, address string) (_ domain.Coordinates, err error) {
	defer obs.Time(ctx, "ors.Geocode")(&err)

	norm := normalize(address)
	if norm == "" {
		return domain.Coordinates{}, domain.NewInputError("address", "must be non-empty")
	}

	if o.geocodeCache != nil {
		hits, err := o.geocodeCache.GetMany(ctx, []string{norm})
		if err != nil {
			log.Warn().Err(err).Str("address", norm).Msg("geocode cache read failed")
		} else if c, ok := hits[norm]; ok {
			return c, nil
		}
	}

	c, err := o.geocodeOne(ctx, norm)
	if err != nil {
		return domain.Coordinates{}, &domain.UpstreamError{Provider: orsProviderName, Err: err}
	}

	if o.geocodeCache != nil {
		if err := o.geocodeCache.PutMany(ctx, map[string]domain.Coordinates{norm: c}); err != nil {
			log.Warn().Err(err).Str("address", norm).Msg("geocode cache write failed")
		}
	}

	return c, nil
}

// Route geocodes any stop without coordinates and requests truck directions
// through current, pickup and dropoff.
func (o *ORSRouteProvider) Route(ctx context.Context, req ports.RouteRequest) (_ domain.Route, err error) {
	defer obs.Time(ctx, "ors.Route")(&err)

	stops := []*domain.Location{&req.Current, &req.Pickup, &req.Dropoff}
	for _, s := range stops {
		if !s.IsZero() {
			continue
		}
		c, err := o.Geocode(ctx, s.Label)
		if err != nil {
			return domain.Route{}, fmt.Errorf("ORS route: geocode %q: %w", s.Label, err)
		}
		s.Coordinates = c
	}

	route, err := o.fetchDirections(ctx, req)
	if err != nil {
		return domain.Route{}, &domain.UpstreamError{Provider: orsProviderName, Err: fmt.Errorf("directions: %w", err)}
	}

	return route, nil
}
