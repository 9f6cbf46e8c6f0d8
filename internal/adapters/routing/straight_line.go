package routing

import (
	"context"
	"hos-trip-planner/internal/domain"
	"hos-trip-planner/internal/ports"
)

const straightLineProviderName = "straight_line"

// StraightLineProvider routes along great-circle legs at a fixed speed.
// It needs no network and is used offline and when no ORS key is configured.
type StraightLineProvider struct {
	SpeedMPH float64
	// Optional; stops without coordinates are geocoded through it.
	Geocoder ports.Geocoder
}

func NewStraightLineProvider(speedMPH float64, geocoder ports.Geocoder) *StraightLineProvider {
	if speedMPH <= 0 {
		speedMPH = 55
	}
	return &StraightLineProvider{SpeedMPH: speedMPH, Geocoder: geocoder}
}

func (p *StraightLineProvider) Route(ctx context.Context, req ports.RouteRequest) (domain.Route, error) {
	stops := []*domain.Location{&req.Current, &req.Pickup, &req.Dropoff}
	fields := []string{"current_location", "pickup_location", "dropoff_location"}
	for i, s := range stops {
		if !s.IsZero() {
			continue
		}
		if p.Geocoder == nil {
			return domain.Route{}, domain.NewInputError(fields[i], "coordinates are required without a geocoder")
		}
		c, err := p.Geocoder.Geocode(ctx, s.Label)
		if err != nil {
			return domain.Route{}, err
		}
		s.Coordinates = c
	}

	route := domain.Route{
		Segments: []domain.RouteSegment{
			p.leg(req.Current, req.Pickup, domain.WaypointPickup),
			p.leg(req.Pickup, req.Dropoff, domain.WaypointDropoff),
		},
		StartLabel:   req.Current.Label,
		PickupLabel:  req.Pickup.Label,
		DropoffLabel: req.Dropoff.Label,
		Provider:     straightLineProviderName,
	}
	route.ComputeTotals()
	return route, nil
}

func (p *StraightLineProvider) leg(from, to domain.Location, stop domain.WaypointKind) domain.RouteSegment {
	miles := from.DistanceMiles(to.Coordinates)
	return domain.RouteSegment{
		Start:           from.Coordinates,
		End:             to.Coordinates,
		DistanceMiles:   miles,
		DurationSeconds: miles / p.SpeedMPH * 3600,
		EndStop:         stop,
	}
}
