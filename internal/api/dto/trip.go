package dto

import "time"

// LocationInput is a stop given by address, by coordinates, or both.
type LocationInput struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// SeedInput is the driver's HOS position when the trip starts.
type SeedInput struct {
	CycleType         string    `json:"cycle_type"`
	CurrentCycleUsed  *float64  `json:"current_cycle_used"`
	DailyDrivingUsed  float64   `json:"daily_driving_used"`
	DailyDutyUsed     float64   `json:"daily_duty_used"`
	DrivingSinceBreak float64   `json:"driving_since_break"`
	History           []float64 `json:"history"`
}

// IsSet reports whether the caller supplied any seed data.
func (s SeedInput) IsSet() bool {
	return s.CycleType != "" || s.CurrentCycleUsed != nil || s.DailyDrivingUsed != 0 ||
		s.DailyDutyUsed != 0 || s.DrivingSinceBreak != 0 || len(s.History) > 0
}

type PlanTripRequest struct {
	DriverID         string        `json:"driver_id"`
	CurrentLocation  LocationInput `json:"current_location"`
	PickupLocation   LocationInput `json:"pickup_location"`
	DropoffLocation  LocationInput `json:"dropoff_location"`
	PlannedStartTime *time.Time    `json:"planned_start_time"`
	Deadline         *time.Time    `json:"deadline"`
	SeedInput
}

type PlanBatchRequest struct {
	Trips []PlanTripRequest `json:"trips"`
}

type LocationResponse struct {
	Label string  `json:"label"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
}

type WaypointResponse struct {
	Sequence        int              `json:"sequence"`
	Type            string           `json:"type"`
	Location        LocationResponse `json:"location"`
	DistanceMiles   float64          `json:"distance_miles"`
	ArriveAt        time.Time        `json:"arrive_at"`
	DepartAt        time.Time        `json:"depart_at"`
	DurationMinutes float64          `json:"duration_minutes"`
	Merged          []string         `json:"merged,omitempty"`
	Notes           string           `json:"notes,omitempty"`
}

type RouteSummaryResponse struct {
	Provider     string  `json:"provider"`
	TotalMiles   float64 `json:"total_miles"`
	TotalHours   float64 `json:"total_hours"`
	Segments     int     `json:"segments"`
	DrivingHours float64 `json:"driving_hours"`
}

type TripResponse struct {
	TripID         string               `json:"trip_id"`
	DriverID       string               `json:"driver_id,omitempty"`
	Current        LocationResponse     `json:"current_location"`
	Pickup         LocationResponse     `json:"pickup_location"`
	Dropoff        LocationResponse     `json:"dropoff_location"`
	StartAt        time.Time            `json:"start_at"`
	ArriveAt       time.Time            `json:"estimated_arrival"`
	EndAt          time.Time            `json:"estimated_completion"`
	Route          RouteSummaryResponse `json:"route_summary"`
	CycleExhausted bool                 `json:"cycle_exhausted"`
	Waypoints      []WaypointResponse   `json:"waypoints"`
	Records        []RecordResponse     `json:"duty_records"`
	Violations     []ViolationResponse  `json:"violations"`
	LogSheets      []LogSheetResponse   `json:"log_sheets"`
	Compliance     SummaryResponse      `json:"hos_compliance"`
}

type BatchResult struct {
	Index int           `json:"index"`
	Trip  *TripResponse `json:"trip,omitempty"`
	Error string        `json:"error,omitempty"`
}

type PlanBatchResponse struct {
	Results []BatchResult `json:"results"`
}
