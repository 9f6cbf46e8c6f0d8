package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"hos-trip-planner/internal/domain"
	"net/http"
	"net/url"
)

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// geocodeOne resolves a normalized address with /geocode/search.
func (o *ORSRouteProvider) geocodeOne(ctx context.Context, address string) (domain.Coordinates, error) {
	resp, err := o.call(ctx, orsCall{
		method: http.MethodGet,
		path:   "/geocode/search",
		query: url.Values{
			"text":             {address},
			"boundary.country": {"US"},
			"size":             {"1"},
		},
	})
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: %w", address, err)
	}
	defer resp.Body.Close()

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Coordinates{}, fmt.Errorf("decode geocode response: %w", err)
	}

	if len(decoded.Features) == 0 {
		return domain.Coordinates{}, fmt.Errorf("no geocode results for %q", address)
	}

	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) != 2 {
		return domain.Coordinates{}, fmt.Errorf("invalid coordinate format for %q", address)
	}

	return domain.Coordinates{Lon: coords[0], Lat: coords[1]}, nil
}
