package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hos-trip-planner/internal/domain"
	"hos-trip-planner/internal/ports"
	"net/http"
)

type directionsRequest struct {
	Coordinates  [][]float64       `json:"coordinates"`
	Units        string            `json:"units"`
	Instructions bool              `json:"instructions"`
	Options      directionsOptions `json:"options"`
}

type directionsOptions struct {
	VehicleType   string `json:"vehicle_type"`
	ProfileParams struct {
		Restrictions TruckRestrictions `json:"restrictions"`
	} `json:"profile_params"`
}

type directionsResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Segments []directionsLeg `json:"segments"`
		} `json:"properties"`
	} `json:"features"`
}

type directionsLeg struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
	Steps    []struct {
		Distance  float64 `json:"distance"`
		Duration  float64 `json:"duration"`
		Name      string  `json:"name"`
		WayPoints []int   `json:"way_points"`
	} `json:"steps"`
}

// fetchDirections requests a truck route in miles and flattens its steps
// into route segments.
func (o *ORSRouteProvider) fetchDirections(ctx context.Context, req ports.RouteRequest) (domain.Route, error) {
	path := "/v2/directions/" + o.profile + "/geojson"

	body := directionsRequest{
		Coordinates: [][]float64{
			req.Current.CoordsToList(),
			req.Pickup.CoordsToList(),
			req.Dropoff.CoordsToList(),
		},
		Units:        "mi",
		Instructions: true,
	}
	body.Options.VehicleType = "hgv"
	body.Options.ProfileParams.Restrictions = o.restrictions

	payload, err := json.Marshal(body)
	if err != nil {
		return domain.Route{}, fmt.Errorf("marshal directions request: %w", err)
	}

	resp, err := o.call(ctx, orsCall{method: http.MethodPost, path: path, body: payload})
	if err != nil {
		return domain.Route{}, fmt.Errorf("directions request failed: %w", err)
	}
	defer resp.Body.Close()

	var dr directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return domain.Route{}, fmt.Errorf("decode directions response: %w", err)
	}

	return toRoute(dr, req)
}

func toRoute(dr directionsResponse, req ports.RouteRequest) (domain.Route, error) {
	if len(dr.Features) == 0 {
		return domain.Route{}, errors.New("directions returned no route")
	}
	feature := dr.Features[0]
	legs := feature.Properties.Segments
	if len(legs) != 2 {
		return domain.Route{}, fmt.Errorf("expected 2 legs (current->pickup->dropoff), got %d", len(legs))
	}

	geometry := feature.Geometry.Coordinates
	point := func(i int) (domain.Coordinates, bool) {
		if i < 0 || i >= len(geometry) || len(geometry[i]) < 2 {
			return domain.Coordinates{}, false
		}
		return domain.Coordinates{Lon: geometry[i][0], Lat: geometry[i][1]}, true
	}

	ends := [][2]domain.Coordinates{
		{req.Current.Coordinates, req.Pickup.Coordinates},
		{req.Pickup.Coordinates, req.Dropoff.Coordinates},
	}
	stops := []domain.WaypointKind{domain.WaypointPickup, domain.WaypointDropoff}

	route := domain.Route{
		StartLabel:   req.Current.Label,
		PickupLabel:  req.Pickup.Label,
		DropoffLabel: req.Dropoff.Label,
		Provider:     orsProviderName,
	}

	for li, leg := range legs {
		if len(leg.Steps) == 0 {
			route.Segments = append(route.Segments, domain.RouteSegment{
				Start:           ends[li][0],
				End:             ends[li][1],
				DistanceMiles:   leg.Distance,
				DurationSeconds: leg.Duration,
				EndStop:         stops[li],
			})
			continue
		}

		for si, step := range leg.Steps {
			if len(step.WayPoints) != 2 {
				return domain.Route{}, fmt.Errorf("leg %d step %d: expected 2 way points, got %d", li, si, len(step.WayPoints))
			}
			start, ok1 := point(step.WayPoints[0])
			end, ok2 := point(step.WayPoints[1])
			if !ok1 || !ok2 {
				return domain.Route{}, fmt.Errorf("leg %d step %d: way point outside geometry", li, si)
			}

			seg := domain.RouteSegment{
				Start:           start,
				End:             end,
				DistanceMiles:   step.Distance,
				DurationSeconds: step.Duration,
			}
			if step.Name != "-" {
				seg.RoadName = step.Name
			}
			if si == len(leg.Steps)-1 {
				seg.EndStop = stops[li]
			}
			route.Segments = append(route.Segments, seg)
		}
	}

	route.ComputeTotals()
	return route, nil
}
