package domain

import "math"

const earthRadiusMiles = 3958.8

// Immutable geographic coordinates (longitude, latitude).
type Coordinates struct {
	Lon float64
	Lat float64
}

// Return coordinates as [lon, lat] for external API compatibility.
func (c Coordinates) CoordsToList() []float64 { return []float64{c.Lon, c.Lat} }

// IsZero reports whether the coordinates were never set.
func (c Coordinates) IsZero() bool { return c.Lon == 0 && c.Lat == 0 }

// Great-circle distance in miles between two coordinates (haversine).
func (c Coordinates) DistanceMiles(o Coordinates) float64 {
	lat1 := c.Lat * math.Pi / 180
	lat2 := o.Lat * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (o.Lon - c.Lon) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMiles * math.Asin(math.Min(1, math.Sqrt(a)))
}

// Interpolate returns the point at fraction f (0..1) of the straight line from c to o.
func (c Coordinates) Interpolate(o Coordinates, f float64) Coordinates {
	if f <= 0 {
		return c
	}
	if f >= 1 {
		return o
	}
	return Coordinates{
		Lon: c.Lon + (o.Lon-c.Lon)*f,
		Lat: c.Lat + (o.Lat-c.Lat)*f,
	}
}

// A named place on the route. Label is free text (address, "Mile 1000 along route").
type Location struct {
	Coordinates
	Label string
}
