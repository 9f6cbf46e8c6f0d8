package domain

import "time"

const (
	MinutesPerInterval = 15
	IntervalsPerHour   = 60 / MinutesPerInterval
	IntervalsPerDay    = 24 * IntervalsPerHour
)

// One 15-minute cell of the 24-hour grid.
type GridInterval struct {
	Index   int
	Start   string
	End     string
	Hour    int
	Quarter int
	Status  DutyStatus
	Line    int
}

// Daily totals in hours. The four status totals always add up to 24.
type DailyTotals struct {
	OffDuty          float64
	SleeperBerth     float64
	Driving          float64
	OnDutyNotDriving float64
	TotalOnDuty      float64
}

// ByStatus returns the hours recorded for a single status.
func (t DailyTotals) ByStatus(s DutyStatus) float64 {
	switch s {
	case OffDuty:
		return t.OffDuty
	case SleeperBerth:
		return t.SleeperBerth
	case Driving:
		return t.Driving
	case OnDutyNotDriving:
		return t.OnDutyNotDriving
	}
	return 0
}

func (t DailyTotals) Sum() float64 {
	return t.OffDuty + t.SleeperBerth + t.Driving + t.OnDutyNotDriving
}

// Hourly label along the top of the grid.
type TimeMarker struct {
	Hour          int
	Label12h      string
	Label24h      string
	IntervalIndex int
}

// Certification state is owned by the ELD system of record and only referenced here.
type Certification struct {
	Certified   bool
	CertifiedAt *time.Time
	CertifiedBy string
}

// ChartPoint is an (x, y) pair for drawing the duty line: x is the interval index, y the status line.
type ChartPoint struct {
	X int
	Y int
}

// Represents one driver-day of ELD data ready for rendering.
type LogSheet struct {
	DriverID      string
	Date          time.Time
	Intervals     [IntervalsPerDay]GridInterval
	Totals        DailyTotals
	Records       []DutyStatusRecord
	Violations    []Violation
	Certification *Certification
	Remarks       []string
	TimeMarkers   []TimeMarker
	MilesDriven   float64
}

// ChartCoordinates returns one point per grid interval.
func (s LogSheet) ChartCoordinates() []ChartPoint {
	out := make([]ChartPoint, 0, len(s.Intervals))
	for _, iv := range s.Intervals {
		out = append(out, ChartPoint{X: iv.Index, Y: iv.Line})
	}
	return out
}
