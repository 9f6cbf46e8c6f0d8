package config

import (
	"fmt"
	"hos-trip-planner/internal/domain"
	"hos-trip-planner/internal/services"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// PlannerProfile is the YAML form of the simulator settings.
// Keys absent from the file keep their default values.
type PlannerProfile struct {
	AverageSpeedMPH    float64 `yaml:"average_speed_mph"`
	FuelIntervalMiles  float64 `yaml:"fuel_interval_miles"`
	FuelStopMinutes    float64 `yaml:"fuel_stop_minutes"`
	BreakMinutes       float64 `yaml:"break_minutes"`
	BreakStatus        string  `yaml:"break_status"`
	DailyRestHours     float64 `yaml:"daily_rest_hours"`
	DailyRestStatus    string  `yaml:"daily_rest_status"`
	InsertCycleRestart bool    `yaml:"insert_cycle_restart"`
	CycleRestartHours  float64 `yaml:"cycle_restart_hours"`
	PickupMinutes      float64 `yaml:"pickup_minutes"`
	DropoffMinutes     float64 `yaml:"dropoff_minutes"`
	InspectionMinutes  float64 `yaml:"inspection_minutes"`
}

func ProfileFromSimConfig(c services.SimConfig) PlannerProfile {
	return PlannerProfile{
		AverageSpeedMPH:    c.AverageSpeedMPH,
		FuelIntervalMiles:  c.FuelIntervalMiles,
		FuelStopMinutes:    c.FuelStopDuration.Minutes(),
		BreakMinutes:       c.BreakDuration.Minutes(),
		BreakStatus:        c.BreakStatus.String(),
		DailyRestHours:     c.DailyRestDuration.Hours(),
		DailyRestStatus:    c.DailyRestStatus.String(),
		InsertCycleRestart: c.InsertCycleRestart,
		CycleRestartHours:  c.CycleRestartDuration.Hours(),
		PickupMinutes:      c.PickupDuration.Minutes(),
		DropoffMinutes:     c.DropoffDuration.Minutes(),
		InspectionMinutes:  c.InspectionDuration.Minutes(),
	}
}

func (p PlannerProfile) SimConfig() (services.SimConfig, error) {
	breakStatus, err := domain.ParseDutyStatus(p.BreakStatus)
	if err != nil {
		return services.SimConfig{}, fmt.Errorf("planner profile: break_status: %w", err)
	}
	restStatus, err := domain.ParseDutyStatus(p.DailyRestStatus)
	if err != nil {
		return services.SimConfig{}, fmt.Errorf("planner profile: daily_rest_status: %w", err)
	}
	if restStatus.CountsTowardDuty() {
		return services.SimConfig{}, fmt.Errorf("planner profile: daily_rest_status must be off_duty or sleeper_berth")
	}

	for name, v := range map[string]float64{
		"pickup_minutes":     p.PickupMinutes,
		"dropoff_minutes":    p.DropoffMinutes,
		"inspection_minutes": p.InspectionMinutes,
	} {
		if v < 0 {
			return services.SimConfig{}, fmt.Errorf("planner profile: %s must not be negative", name)
		}
	}

	return services.SimConfig{
		AverageSpeedMPH:      p.AverageSpeedMPH,
		FuelIntervalMiles:    p.FuelIntervalMiles,
		FuelStopDuration:     minutes(p.FuelStopMinutes),
		BreakDuration:        minutes(p.BreakMinutes),
		BreakStatus:          breakStatus,
		DailyRestDuration:    minutes(p.DailyRestHours * 60),
		DailyRestStatus:      restStatus,
		InsertCycleRestart:   p.InsertCycleRestart,
		CycleRestartDuration: minutes(p.CycleRestartHours * 60),
		PickupDuration:       minutes(p.PickupMinutes),
		DropoffDuration:      minutes(p.DropoffMinutes),
		InspectionDuration:   minutes(p.InspectionMinutes),
	}, nil
}

// LoadPlannerProfile reads a YAML profile over the simulator defaults.
// An empty path returns the defaults.
func LoadPlannerProfile(path string) (services.SimConfig, error) {
	profile := ProfileFromSimConfig(services.DefaultSimConfig())
	if path == "" {
		return profile.SimConfig()
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return services.SimConfig{}, fmt.Errorf("planner profile: read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &profile); err != nil {
		return services.SimConfig{}, fmt.Errorf("planner profile: parse %q: %w", path, err)
	}

	return profile.SimConfig()
}

func minutes(m float64) time.Duration {
	return time.Duration(m * float64(time.Minute)).Round(time.Second)
}
