package domain

// Represents one leg of a routed path as returned by a route provider.
// Segments are immutable and ordered; the end of one is the start of the next.
type RouteSegment struct {
	Start           Coordinates
	End             Coordinates
	DistanceMiles   float64
	DurationSeconds float64
	RoadName        string
	HighwayType     string
	SpeedLimitMPH   int
	// Optional service stop reached at the end of the segment (pickup or dropoff).
	EndStop WaypointKind
}

// Represents the full routed path for a trip.
// Labels carry the addresses of the start and of any service stops.
type Route struct {
	Segments     []RouteSegment
	StartLabel   string
	PickupLabel  string
	DropoffLabel string
	Provider     string
	TotalMiles   float64
	TotalSeconds float64
}

// Sum segment distance and duration into the route totals.
func (r *Route) ComputeTotals() {
	r.TotalMiles = 0
	r.TotalSeconds = 0
	for _, s := range r.Segments {
		r.TotalMiles += s.DistanceMiles
		r.TotalSeconds += s.DurationSeconds
	}
}
