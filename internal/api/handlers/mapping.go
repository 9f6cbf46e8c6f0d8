package handlers

import (
	"fmt"
	"hos-trip-planner/internal/api/dto"
	"hos-trip-planner/internal/domain"
	"hos-trip-planner/internal/services"
	"strings"
	"time"
)

func toLocation(in dto.LocationInput) domain.Location {
	return domain.Location{
		Coordinates: domain.Coordinates{Lon: in.Lng, Lat: in.Lat},
		Label:       strings.TrimSpace(in.Address),
	}
}

func toSeed(in dto.SeedInput) domain.DriverSeed {
	seed := domain.DriverSeed{
		CycleType:              domain.CycleType(in.CycleType),
		DailyDrivingHours:      in.DailyDrivingUsed,
		DailyDutyHours:         in.DailyDutyUsed,
		DrivingSinceBreakHours: in.DrivingSinceBreak,
		History:                in.History,
	}
	if in.CurrentCycleUsed != nil {
		seed.CycleUsedHours = *in.CurrentCycleUsed
	}
	if seed.CycleType == "" {
		seed.CycleType = domain.Cycle70Hour8Day
	}
	return seed
}

func toTripRequest(in dto.PlanTripRequest) services.TripRequest {
	req := services.TripRequest{
		DriverID: strings.TrimSpace(in.DriverID),
		Current:  toLocation(in.CurrentLocation),
		Pickup:   toLocation(in.PickupLocation),
		Dropoff:  toLocation(in.DropoffLocation),
		Deadline: in.Deadline,
	}
	if in.PlannedStartTime != nil {
		req.StartAt = *in.PlannedStartTime
	}
	if in.SeedInput.IsSet() {
		seed := toSeed(in.SeedInput)
		req.Seed = &seed
	}
	return req
}

func toEvaluateRequest(in dto.EvaluateLogsRequest) (services.EvaluateRequest, error) {
	records := make([]domain.DutyStatusRecord, 0, len(in.Records))
	for i, r := range in.Records {
		status, err := domain.ParseDutyStatus(r.Status)
		if err != nil {
			return services.EvaluateRequest{}, domain.NewInputError(fmt.Sprintf("records[%d].status", i), fmt.Sprintf("unknown duty status %q", r.Status))
		}
		if r.Start.IsZero() {
			return services.EvaluateRequest{}, domain.NewInputError(fmt.Sprintf("records[%d].start_time", i), "required")
		}
		records = append(records, domain.DutyStatusRecord{
			Status: status,
			Start:  r.Start,
			End:    r.End,
			Location: domain.Location{
				Coordinates: domain.Coordinates{Lon: r.Lng, Lat: r.Lat},
				Label:       r.Location,
			},
			OdometerMiles: r.OdometerMiles,
			DistanceMiles: r.DistanceMiles,
			Notes:         r.Notes,
		})
	}

	var certs map[string]domain.Certification
	if len(in.Certifications) > 0 {
		certs = make(map[string]domain.Certification, len(in.Certifications))
		for day, c := range in.Certifications {
			if _, err := time.Parse(time.DateOnly, day); err != nil {
				return services.EvaluateRequest{}, domain.NewInputError("certifications", fmt.Sprintf("key %q is not a YYYY-MM-DD date", day))
			}
			certs[day] = domain.Certification{Certified: c.Certified, CertifiedAt: c.CertifiedAt, CertifiedBy: c.CertifiedBy}
		}
	}

	req := services.EvaluateRequest{
		DriverID:           strings.TrimSpace(in.DriverID),
		Records:            records,
		Seed:               toSeed(in.SeedInput),
		Certifications:     certs,
		IgnoreCycleRestart: in.IgnoreCycleRestart,
	}
	if in.Now != nil {
		req.Now = *in.Now
	}
	return req, nil
}
