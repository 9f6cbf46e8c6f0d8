package domain

import (
	"fmt"
	"time"
)

// WaypointKind classifies a point in the simulated timeline.
type WaypointKind int

const (
	WaypointNone WaypointKind = iota
	WaypointStart
	WaypointPickup
	WaypointFuel
	WaypointRest
	WaypointMeal
	WaypointDailyRest
	WaypointDropoff
	WaypointEnd
)

var waypointKindNames = map[WaypointKind]string{
	WaypointStart:     "start",
	WaypointPickup:    "pickup",
	WaypointFuel:      "fuel",
	WaypointRest:      "rest",
	WaypointMeal:      "meal",
	WaypointDailyRest: "daily_rest",
	WaypointDropoff:   "dropoff",
	WaypointEnd:       "end",
}

func (k WaypointKind) String() string {
	if n, ok := waypointKindNames[k]; ok {
		return n
	}
	if k == WaypointNone {
		return ""
	}
	return fmt.Sprintf("waypoint_kind(%d)", int(k))
}

func ParseWaypointKind(v string) (WaypointKind, error) {
	if v == "" {
		return WaypointNone, nil
	}
	for k, n := range waypointKindNames {
		if n == v {
			return k, nil
		}
	}
	return WaypointNone, NewInputError("waypoint_type", fmt.Sprintf("unknown waypoint type %q", v))
}

func (k WaypointKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *WaypointKind) UnmarshalText(b []byte) error {
	v, err := ParseWaypointKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// IsServiceStop reports whether the kind marks freight handling at a customer.
func (k WaypointKind) IsServiceStop() bool { return k == WaypointPickup || k == WaypointDropoff }

// Represents a stop or marker in a simulated trip.
// Waypoints are produced by the simulator and never edited afterwards;
// a new simulation supersedes them.
type Waypoint struct {
	Sequence      int
	Kind          WaypointKind
	Location      Location
	DistanceMiles float64
	ArriveAt      time.Time
	DepartAt      time.Time
	Duration      time.Duration
	// Stops folded into this one when thresholds coincided (e.g. fuel during a break).
	Merged []WaypointKind
	Notes  string
	// Cumulative continuous driving time from the route start, ignoring stops.
	DrivingOffset time.Duration
}
