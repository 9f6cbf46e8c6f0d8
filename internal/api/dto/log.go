package dto

import "time"

type RecordInput struct {
	Status        string     `json:"status"`
	Start         time.Time  `json:"start_time"`
	End           *time.Time `json:"end_time"`
	Location      string     `json:"location"`
	Lat           float64    `json:"lat"`
	Lng           float64    `json:"lng"`
	OdometerMiles float64    `json:"odometer_miles"`
	DistanceMiles float64    `json:"distance_miles"`
	Notes         string     `json:"notes"`
}

type CertificationInput struct {
	Certified   bool       `json:"certified"`
	CertifiedAt *time.Time `json:"certified_at"`
	CertifiedBy string     `json:"certified_by"`
}

type EvaluateLogsRequest struct {
	DriverID           string                        `json:"driver_id"`
	Records            []RecordInput                 `json:"records"`
	Now                *time.Time                    `json:"now"`
	IgnoreCycleRestart bool                          `json:"ignore_cycle_restart"`
	Certifications     map[string]CertificationInput `json:"certifications"`
	SeedInput
}

type RecordResponse struct {
	ID            string           `json:"id,omitempty"`
	Status        string           `json:"status"`
	StatusLabel   string           `json:"status_label"`
	Start         time.Time        `json:"start_time"`
	End           *time.Time       `json:"end_time"`
	Location      LocationResponse `json:"location"`
	OdometerMiles float64          `json:"odometer_miles"`
	DistanceMiles float64          `json:"distance_miles"`
	Notes         string           `json:"notes,omitempty"`
	Automatic     bool             `json:"is_automatic"`
}

type ViolationResponse struct {
	Type        string    `json:"violation_type"`
	Label       string    `json:"label"`
	Severity    string    `json:"severity"`
	ActualValue float64   `json:"actual_value"`
	LimitValue  float64   `json:"limit_value"`
	Time        time.Time `json:"violation_time"`
	Description string    `json:"description"`
}

type SummaryResponse struct {
	DailyDrivingUsed      float64 `json:"daily_driving_used"`
	DailyDrivingAvailable float64 `json:"daily_driving_available"`
	DailyDutyUsed         float64 `json:"daily_duty_used"`
	DailyDutyAvailable    float64 `json:"daily_duty_available"`
	CycleUsed             float64 `json:"cycle_used"`
	CycleAvailable        float64 `json:"cycle_available"`
	CycleLimit            float64 `json:"cycle_limit"`
	NeedsBreakSoon        bool    `json:"needs_break_soon"`
	NeedsDailyRest        bool    `json:"needs_daily_rest"`
}

type IntervalResponse struct {
	Index   int    `json:"index"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Hour    int    `json:"hour"`
	Quarter int    `json:"quarter"`
	Status  string `json:"status"`
	Line    int    `json:"line"`
}

type TotalsResponse struct {
	OffDuty          float64 `json:"off_duty"`
	SleeperBerth     float64 `json:"sleeper_berth"`
	Driving          float64 `json:"driving"`
	OnDutyNotDriving float64 `json:"on_duty_not_driving"`
	TotalOnDuty      float64 `json:"total_on_duty"`
}

type TimeMarkerResponse struct {
	Hour          int    `json:"hour"`
	Label12h      string `json:"label_12h"`
	Label24h      string `json:"label_24h"`
	IntervalIndex int    `json:"interval_index"`
}

type ChartPointResponse struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type LogSheetResponse struct {
	DriverID         string               `json:"driver_id,omitempty"`
	Date             string               `json:"log_date"`
	Totals           TotalsResponse       `json:"totals"`
	MilesDriven      float64              `json:"total_miles_driven"`
	Intervals        []IntervalResponse   `json:"grid_data"`
	ChartCoordinates []ChartPointResponse `json:"chart_coordinates"`
	TimeMarkers      []TimeMarkerResponse `json:"time_markers"`
	Records          []RecordResponse     `json:"duty_records"`
	Violations       []ViolationResponse  `json:"violations"`
	Remarks          []string             `json:"remarks"`
	Certification    *CertificationInput  `json:"certification,omitempty"`
}

type EvaluateLogsResponse struct {
	Violations []ViolationResponse `json:"violations"`
	LogSheets  []LogSheetResponse  `json:"log_sheets"`
	Compliance SummaryResponse     `json:"hos_compliance"`
}

type ComplianceResponse struct {
	DriverID   string              `json:"driver_id"`
	At         time.Time           `json:"at"`
	CycleType  string              `json:"cycle_type"`
	Compliance SummaryResponse     `json:"hos_compliance"`
	Violations []ViolationResponse `json:"violations"`
	Records    []RecordResponse    `json:"duty_records"`
}

type DriverLogResponse struct {
	DriverID string           `json:"driver_id"`
	LogSheet LogSheetResponse `json:"log_sheet"`
}
