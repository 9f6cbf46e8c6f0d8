package dto

import (
	"hos-trip-planner/internal/domain"
	"hos-trip-planner/internal/hos"
	"hos-trip-planner/internal/services"
	"time"
)

func NewLocationResponse(l domain.Location) LocationResponse {
	return LocationResponse{Label: l.Label, Lat: l.Lat, Lng: l.Lon}
}

func NewSummaryResponse(s hos.Summary) SummaryResponse {
	return SummaryResponse{
		DailyDrivingUsed:      s.DailyDrivingUsed,
		DailyDrivingAvailable: s.DailyDrivingAvailable,
		DailyDutyUsed:         s.DailyDutyUsed,
		DailyDutyAvailable:    s.DailyDutyAvailable,
		CycleUsed:             s.CycleUsed,
		CycleAvailable:        s.CycleAvailable,
		CycleLimit:            s.CycleLimit,
		NeedsBreakSoon:        s.NeedsBreakSoon,
		NeedsDailyRest:        s.NeedsDailyRest,
	}
}

func NewRecordResponses(records []domain.DutyStatusRecord) []RecordResponse {
	out := make([]RecordResponse, 0, len(records))
	for _, r := range records {
		var end *time.Time
		if r.End != nil {
			e := *r.End
			end = &e
		}
		out = append(out, RecordResponse{
			ID:            r.ID,
			Status:        r.Status.String(),
			StatusLabel:   r.Status.Label(),
			Start:         r.Start,
			End:           end,
			Location:      NewLocationResponse(r.Location),
			OdometerMiles: r.OdometerMiles,
			DistanceMiles: r.DistanceMiles,
			Notes:         r.Notes,
			Automatic:     r.Automatic,
		})
	}
	return out
}

func NewViolationResponses(vs []domain.Violation) []ViolationResponse {
	out := make([]ViolationResponse, 0, len(vs))
	for _, v := range vs {
		out = append(out, ViolationResponse{
			Type:        string(v.Type),
			Label:       v.Type.Label(),
			Severity:    string(v.Severity),
			ActualValue: v.ActualValue,
			LimitValue:  v.LimitValue,
			Time:        v.Time,
			Description: v.Description,
		})
	}
	return out
}

func NewLogSheetResponses(sheets []domain.LogSheet) []LogSheetResponse {
	out := make([]LogSheetResponse, 0, len(sheets))
	for _, s := range sheets {
		intervals := make([]IntervalResponse, 0, len(s.Intervals))
		for _, iv := range s.Intervals {
			intervals = append(intervals, IntervalResponse{
				Index:   iv.Index,
				Start:   iv.Start,
				End:     iv.End,
				Hour:    iv.Hour,
				Quarter: iv.Quarter,
				Status:  iv.Status.String(),
				Line:    iv.Line,
			})
		}

		points := s.ChartCoordinates()
		chart := make([]ChartPointResponse, 0, len(points))
		for _, p := range points {
			chart = append(chart, ChartPointResponse{X: p.X, Y: p.Y})
		}

		markers := make([]TimeMarkerResponse, 0, len(s.TimeMarkers))
		for _, m := range s.TimeMarkers {
			markers = append(markers, TimeMarkerResponse{
				Hour:          m.Hour,
				Label12h:      m.Label12h,
				Label24h:      m.Label24h,
				IntervalIndex: m.IntervalIndex,
			})
		}

		var cert *CertificationInput
		if s.Certification != nil {
			cert = &CertificationInput{
				Certified:   s.Certification.Certified,
				CertifiedAt: s.Certification.CertifiedAt,
				CertifiedBy: s.Certification.CertifiedBy,
			}
		}

		remarks := s.Remarks
		if remarks == nil {
			remarks = []string{}
		}

		out = append(out, LogSheetResponse{
			DriverID: s.DriverID,
			Date:     s.Date.Format(time.DateOnly),
			Totals: TotalsResponse{
				OffDuty:          s.Totals.OffDuty,
				SleeperBerth:     s.Totals.SleeperBerth,
				Driving:          s.Totals.Driving,
				OnDutyNotDriving: s.Totals.OnDutyNotDriving,
				TotalOnDuty:      s.Totals.TotalOnDuty,
			},
			MilesDriven:      s.MilesDriven,
			Intervals:        intervals,
			ChartCoordinates: chart,
			TimeMarkers:      markers,
			Records:          NewRecordResponses(s.Records),
			Violations:       NewViolationResponses(s.Violations),
			Remarks:          remarks,
			Certification:    cert,
		})
	}
	return out
}

func NewTripResponse(p *services.TripPlan) TripResponse {
	t := p.Trip

	waypoints := make([]WaypointResponse, 0, len(t.Waypoints))
	for _, wp := range t.Waypoints {
		var merged []string
		for _, k := range wp.Merged {
			merged = append(merged, k.String())
		}
		waypoints = append(waypoints, WaypointResponse{
			Sequence:        wp.Sequence,
			Type:            wp.Kind.String(),
			Location:        NewLocationResponse(wp.Location),
			DistanceMiles:   wp.DistanceMiles,
			ArriveAt:        wp.ArriveAt,
			DepartAt:        wp.DepartAt,
			DurationMinutes: wp.Duration.Minutes(),
			Merged:          merged,
			Notes:           wp.Notes,
		})
	}

	return TripResponse{
		TripID:   t.ID,
		DriverID: t.DriverID,
		Current:  NewLocationResponse(t.Current),
		Pickup:   NewLocationResponse(t.Pickup),
		Dropoff:  NewLocationResponse(t.Dropoff),
		StartAt:  t.StartAt,
		ArriveAt: t.ArriveAt,
		EndAt:    t.EndAt,
		Route: RouteSummaryResponse{
			Provider:     p.Route.Provider,
			TotalMiles:   t.TotalMiles,
			TotalHours:   p.Route.TotalSeconds / 3600,
			Segments:     len(p.Route.Segments),
			DrivingHours: t.DrivingHours,
		},
		CycleExhausted: p.CycleExhausted,
		Waypoints:      waypoints,
		Records:        NewRecordResponses(t.Records),
		Violations:     NewViolationResponses(t.Violations),
		LogSheets:      NewLogSheetResponses(p.LogSheets),
		Compliance:     NewSummaryResponse(p.Summary),
	}
}

func NewEvaluateLogsResponse(e *services.LogEvaluation) EvaluateLogsResponse {
	return EvaluateLogsResponse{
		Violations: NewViolationResponses(e.Violations),
		LogSheets:  NewLogSheetResponses(e.LogSheets),
		Compliance: NewSummaryResponse(e.Summary),
	}
}

func NewComplianceResponse(c *services.ComplianceReport) ComplianceResponse {
	return ComplianceResponse{
		DriverID:   c.DriverID,
		At:         c.At,
		CycleType:  string(c.CycleType),
		Compliance: NewSummaryResponse(c.Summary),
		Violations: NewViolationResponses(c.Violations),
		Records:    NewRecordResponses(c.Records),
	}
}

func NewDriverLogResponse(l *services.DriverLog) DriverLogResponse {
	return DriverLogResponse{
		DriverID: l.DriverID,
		LogSheet: NewLogSheetResponses([]domain.LogSheet{l.Sheet})[0],
	}
}
