package domain

import (
	"fmt"
	"math"
)

type CycleType string

const (
	Cycle70Hour8Day CycleType = "70_8"
	Cycle60Hour7Day CycleType = "60_7"
)

// Limit returns the on-duty hour cap for the cycle.
func (c CycleType) Limit() float64 {
	if c == Cycle60Hour7Day {
		return 60
	}
	return 70
}

// Days returns the length of the rolling window in calendar days.
func (c CycleType) Days() int {
	if c == Cycle60Hour7Day {
		return 7
	}
	return 8
}

func (c CycleType) ViolationType() ViolationType {
	if c == Cycle60Hour7Day {
		return ViolationCycle60h
	}
	return ViolationCycle70h
}

func (c CycleType) Valid() bool { return c == Cycle70Hour8Day || c == Cycle60Hour7Day }

// Represents a driver known to the system.
type Driver struct {
	DriverID  string
	Name      string
	License   string
	CycleType CycleType
}

// DriverSeed is the regulatory state a simulation starts from.
// CycleUsedHours includes today's accrued on-duty time. History, when set,
// lists on-duty hours of completed prior days (oldest first) and takes
// precedence over CycleUsedHours for filling the rolling window.
type DriverSeed struct {
	CycleType              CycleType
	CycleUsedHours         float64
	DailyDrivingHours      float64
	DailyDutyHours         float64
	DrivingSinceBreakHours float64
	History                []float64
}

// Validate rejects seeds that no compliant driver could be in.
func (s DriverSeed) Validate() error {
	if !s.CycleType.Valid() {
		return NewInputError("cycle_type", fmt.Sprintf("must be %q or %q", Cycle70Hour8Day, Cycle60Hour7Day))
	}

	check := func(field string, v, max float64) error {
		if math.IsNaN(v) || v < 0 || v > max {
			return NewInputError(field, fmt.Sprintf("must be between 0 and %g, got %g", max, v))
		}
		return nil
	}

	if err := check("current_cycle_used", s.CycleUsedHours, s.CycleType.Limit()); err != nil {
		return err
	}
	if err := check("daily_driving_used", s.DailyDrivingHours, 11); err != nil {
		return err
	}
	if err := check("daily_duty_used", s.DailyDutyHours, 14); err != nil {
		return err
	}
	if err := check("driving_since_break", s.DrivingSinceBreakHours, 8); err != nil {
		return err
	}
	if s.DailyDrivingHours > s.DailyDutyHours && s.DailyDutyHours > 0 {
		return NewInputError("daily_driving_used", "cannot exceed daily_duty_used")
	}
	if len(s.History) > s.CycleType.Days()-1 {
		return NewInputError("history", fmt.Sprintf("at most %d prior days allowed", s.CycleType.Days()-1))
	}
	for i, h := range s.History {
		if err := check(fmt.Sprintf("history[%d]", i), h, 24); err != nil {
			return err
		}
	}
	return nil
}
