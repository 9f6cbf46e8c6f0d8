package domain

import "time"

// Represents one planned trip: current location to pickup to dropoff.
type Trip struct {
	ID       string
	DriverID string

	Current Location
	Pickup  Location
	Dropoff Location

	StartAt  time.Time
	ArriveAt time.Time
	EndAt    time.Time

	TotalMiles   float64
	DrivingHours float64
	Provider     string

	Waypoints  []Waypoint
	Records    []DutyStatusRecord
	Violations []Violation

	CreatedAt time.Time
}

// On-duty and driving hours accrued on one calendar day.
type DailyHours struct {
	Day          string // 2006-01-02
	OnDutyHours  float64
	DrivingHours float64
}

// DailyHoursFromRecords totals closed records per calendar day in loc.
// Days are returned in chronological order; days without on-duty time are omitted.
func DailyHoursFromRecords(records []DutyStatusRecord, loc *time.Location) []DailyHours {
	if loc == nil {
		loc = time.UTC
	}

	var out []DailyHours
	index := make(map[string]int)
	for _, r := range records {
		if r.End == nil || !r.Status.CountsTowardDuty() {
			continue
		}
		start, end := r.Start.In(loc), r.End.In(loc)
		for start.Before(end) {
			next := time.Date(start.Year(), start.Month(), start.Day()+1, 0, 0, 0, 0, loc)
			if next.After(end) {
				next = end
			}
			day := start.Format(time.DateOnly)
			i, ok := index[day]
			if !ok {
				i = len(out)
				index[day] = i
				out = append(out, DailyHours{Day: day})
			}
			h := next.Sub(start).Hours()
			out[i].OnDutyHours += h
			if r.Status == Driving {
				out[i].DrivingHours += h
			}
			start = next
		}
	}
	return out
}
