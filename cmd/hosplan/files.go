package main

import (
	"errors"
	"fmt"
	"hos-trip-planner/internal/domain"
	"hos-trip-planner/internal/services"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type locationFile struct {
	Address string  `yaml:"address"`
	Lat     float64 `yaml:"lat"`
	Lng     float64 `yaml:"lng"`
}

func (l locationFile) location() domain.Location {
	return domain.Location{
		Coordinates: domain.Coordinates{Lon: l.Lng, Lat: l.Lat},
		Label:       strings.TrimSpace(l.Address),
	}
}

type seedFile struct {
	CycleType         string    `yaml:"cycle_type"`
	CurrentCycleUsed  float64   `yaml:"current_cycle_used"`
	DailyDrivingUsed  float64   `yaml:"daily_driving_used"`
	DailyDutyUsed     float64   `yaml:"daily_duty_used"`
	DrivingSinceBreak float64   `yaml:"driving_since_break"`
	History           []float64 `yaml:"history"`
}

func (s seedFile) seed() domain.DriverSeed {
	cycle := domain.CycleType(s.CycleType)
	if cycle == "" {
		cycle = domain.Cycle70Hour8Day
	}
	return domain.DriverSeed{
		CycleType:              cycle,
		CycleUsedHours:         s.CurrentCycleUsed,
		DailyDrivingHours:      s.DailyDrivingUsed,
		DailyDutyHours:         s.DailyDutyUsed,
		DrivingSinceBreakHours: s.DrivingSinceBreak,
		History:                s.History,
	}
}

type tripFile struct {
	DriverID string       `yaml:"driver_id"`
	StartAt  time.Time    `yaml:"start_at"`
	Deadline *time.Time   `yaml:"deadline"`
	Current  locationFile `yaml:"current"`
	Pickup   locationFile `yaml:"pickup"`
	Dropoff  locationFile `yaml:"dropoff"`
	Seed     seedFile     `yaml:"seed"`
}

type tripsFile struct {
	Trips []tripFile `yaml:"trips"`
}

type recordFile struct {
	Status        string     `yaml:"status"`
	Start         time.Time  `yaml:"start"`
	End           *time.Time `yaml:"end"`
	Location      string     `yaml:"location"`
	DistanceMiles float64    `yaml:"distance_miles"`
	Notes         string     `yaml:"notes"`
}

type logFile struct {
	DriverID           string       `yaml:"driver_id"`
	Now                *time.Time   `yaml:"now"`
	IgnoreCycleRestart bool         `yaml:"ignore_cycle_restart"`
	Seed               seedFile     `yaml:"seed"`
	Records            []recordFile `yaml:"records"`
}

// decodeYAML reads one document from path and rejects unknown keys.
func decodeYAML(path string, dst any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%s is empty", path)
		}
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func readTrips(path string) ([]services.TripRequest, error) {
	var file tripsFile
	if err := decodeYAML(path, &file); err != nil {
		return nil, fmt.Errorf("read trips: %w", err)
	}
	if len(file.Trips) == 0 {
		return nil, fmt.Errorf("read trips: %s lists no trips", path)
	}

	reqs := make([]services.TripRequest, 0, len(file.Trips))
	for _, t := range file.Trips {
		seed := t.Seed.seed()
		reqs = append(reqs, services.TripRequest{
			DriverID: t.DriverID,
			Current:  t.Current.location(),
			Pickup:   t.Pickup.location(),
			Dropoff:  t.Dropoff.location(),
			StartAt:  t.StartAt,
			Deadline: t.Deadline,
			Seed:     &seed,
		})
	}
	return reqs, nil
}

func readLogs(path string) (services.EvaluateRequest, error) {
	var file logFile
	if err := decodeYAML(path, &file); err != nil {
		return services.EvaluateRequest{}, fmt.Errorf("read records: %w", err)
	}

	records := make([]domain.DutyStatusRecord, 0, len(file.Records))
	for i, r := range file.Records {
		status, err := domain.ParseDutyStatus(r.Status)
		if err != nil {
			return services.EvaluateRequest{}, fmt.Errorf("read records: record %d: %w", i, err)
		}
		records = append(records, domain.DutyStatusRecord{
			Status:        status,
			Start:         r.Start,
			End:           r.End,
			Location:      domain.Location{Label: r.Location},
			DistanceMiles: r.DistanceMiles,
			Notes:         r.Notes,
		})
	}

	req := services.EvaluateRequest{
		DriverID:           file.DriverID,
		Records:            records,
		Seed:               file.Seed.seed(),
		IgnoreCycleRestart: file.IgnoreCycleRestart,
	}
	if file.Now != nil {
		req.Now = *file.Now
	}
	return req, nil
}
