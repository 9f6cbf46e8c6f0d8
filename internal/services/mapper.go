package services

import (
	"fmt"
	"hos-trip-planner/internal/domain"
	"math"
	"time"
)

// DefaultAverageSpeedMPH is used when a segment carries distance but no travel time.
const DefaultAverageSpeedMPH = 55.0

// TrackPoint is a segment boundary with cumulative distance and continuous driving time.
type TrackPoint struct {
	Coordinates   domain.Coordinates
	DistanceMiles float64
	Driving       time.Duration
	// Service stop reached at this point, if any.
	Stop  domain.WaypointKind
	Label string
}

// MappedRoute is a route flattened into cumulative distance/time.
// Track has one more point than the route has segments.
type MappedRoute struct {
	Waypoints    []domain.Waypoint
	Track        []TrackPoint
	TotalMiles   float64
	TotalDriving time.Duration
	StartLabel   string
	EndLabel     string
}

// Legs returns the number of driveable legs in the track.
func (m MappedRoute) Legs() int {
	if len(m.Track) == 0 {
		return 0
	}
	return len(m.Track) - 1
}

// MapRoute converts ordered route segments into cumulative waypoints assuming
// continuous driving from startAt. Segments without a duration are timed at
// avgSpeedMPH (DefaultAverageSpeedMPH when zero or negative).
func MapRoute(route domain.Route, startAt time.Time, avgSpeedMPH float64) (MappedRoute, error) {
	if len(route.Segments) == 0 {
		return MappedRoute{}, &domain.InputError{
			Field:  "segments",
			Reason: "at least one segment is required",
			Cause:  domain.ErrEmptyRoute,
		}
	}
	if avgSpeedMPH <= 0 || math.IsNaN(avgSpeedMPH) || math.IsInf(avgSpeedMPH, 0) {
		avgSpeedMPH = DefaultAverageSpeedMPH
	}

	for i, seg := range route.Segments {
		if invalidMeasure(seg.DistanceMiles) || invalidMeasure(seg.DurationSeconds) {
			return MappedRoute{}, &domain.InputError{
				Field:  fmt.Sprintf("segments[%d]", i),
				Reason: fmt.Sprintf("distance %g mi and duration %g s must be finite and non-negative", seg.DistanceMiles, seg.DurationSeconds),
				Cause:  domain.ErrInvalidSegment,
			}
		}
		if seg.EndStop != domain.WaypointNone && !seg.EndStop.IsServiceStop() {
			return MappedRoute{}, &domain.InputError{
				Field:  fmt.Sprintf("segments[%d].end_stop", i),
				Reason: fmt.Sprintf("only pickup or dropoff may end a segment, got %q", seg.EndStop),
				Cause:  domain.ErrInvalidSegment,
			}
		}
	}

	startLabel := route.StartLabel
	if startLabel == "" {
		startLabel = "Route start"
	}

	out := MappedRoute{
		Track:      make([]TrackPoint, 0, len(route.Segments)+1),
		StartLabel: startLabel,
	}
	out.Track = append(out.Track, TrackPoint{
		Coordinates: route.Segments[0].Start,
		Label:       startLabel,
	})

	out.Waypoints = append(out.Waypoints, domain.Waypoint{
		Kind:     domain.WaypointStart,
		Location: domain.Location{Coordinates: route.Segments[0].Start, Label: startLabel},
		ArriveAt: startAt,
		DepartAt: startAt,
	})

	var miles float64
	var driving time.Duration
	for _, seg := range route.Segments {
		d := segmentDuration(seg, avgSpeedMPH)
		miles += seg.DistanceMiles
		driving += d

		tp := TrackPoint{
			Coordinates:   seg.End,
			DistanceMiles: miles,
			Driving:       driving,
			Stop:          seg.EndStop,
		}
		switch seg.EndStop {
		case domain.WaypointPickup:
			tp.Label = labelOr(route.PickupLabel, "Pickup")
		case domain.WaypointDropoff:
			tp.Label = labelOr(route.DropoffLabel, "Dropoff")
		}
		out.Track = append(out.Track, tp)

		if seg.EndStop != domain.WaypointNone {
			at := startAt.Add(driving)
			out.Waypoints = append(out.Waypoints, domain.Waypoint{
				Sequence:      len(out.Waypoints),
				Kind:          seg.EndStop,
				Location:      domain.Location{Coordinates: seg.End, Label: tp.Label},
				DistanceMiles: miles,
				ArriveAt:      at,
				DepartAt:      at,
				DrivingOffset: driving,
			})
		}
	}

	last := route.Segments[len(route.Segments)-1]
	out.EndLabel = labelOr(route.DropoffLabel, MileLabel(miles))
	out.Track[len(out.Track)-1].Label = labelOr(out.Track[len(out.Track)-1].Label, out.EndLabel)

	endAt := startAt.Add(driving)
	out.Waypoints = append(out.Waypoints, domain.Waypoint{
		Sequence:      len(out.Waypoints),
		Kind:          domain.WaypointEnd,
		Location:      domain.Location{Coordinates: last.End, Label: out.EndLabel},
		DistanceMiles: miles,
		ArriveAt:      endAt,
		DepartAt:      endAt,
		DrivingOffset: driving,
	})

	out.TotalMiles = miles
	out.TotalDriving = driving
	return out, nil
}

func segmentDuration(seg domain.RouteSegment, avgSpeedMPH float64) time.Duration {
	if seg.DurationSeconds > 0 {
		return time.Duration(seg.DurationSeconds * float64(time.Second))
	}
	if seg.DistanceMiles > 0 {
		return time.Duration(seg.DistanceMiles / avgSpeedMPH * float64(time.Hour))
	}
	return 0
}

func invalidMeasure(v float64) bool {
	return v < 0 || math.IsNaN(v) || math.IsInf(v, 0)
}

func labelOr(label, fallback string) string {
	if label != "" {
		return label
	}
	return fallback
}

// MileLabel names an unnamed point on the route by its distance from the start.
func MileLabel(miles float64) string {
	return fmt.Sprintf("Mile %d along route", int(math.Round(miles)))
}
