// Package hos models a driver's Hours-of-Service counters.
//
// State is a plain value. Every transition takes a State and an elapsed
// duration and returns a new State; nothing is mutated in place, so one
// simulation can never observe another's counters.
package hos

import (
	"errors"
	"fmt"
	"hos-trip-planner/internal/domain"
	"time"
)

// Federal property-carrying limits.
const (
	MaxDailyDriving     = 11 * time.Hour
	MaxDutyWindow       = 14 * time.Hour
	DailyRestMinimum    = 10 * time.Hour
	BreakAfterDriving   = 8 * time.Hour
	BreakMinimum        = 30 * time.Minute
	CycleRestartMinimum = 34 * time.Hour
)

// ErrDrivingLimitExceeded is returned when a caller asks to drive past the
// 11-hour or 14-hour limit. The simulator must never do this.
var ErrDrivingLimitExceeded = errors.New("driving limit exceeded")

// State holds one driver's regulatory counters at instant At.
type State struct {
	CycleType domain.CycleType
	At        time.Time
	Status    domain.DutyStatus

	// Driving time since the last 10-hour reset.
	DailyDrivingUsed time.Duration
	// Elapsed time since the duty window opened.
	DailyDutyUsed time.Duration
	WindowOpen    bool

	DrivingSinceBreak time.Duration
	// Consecutive time not driving (any status).
	NonDrivingStreak time.Duration
	// Consecutive off-duty or sleeper time.
	RestStreak time.Duration

	Cycle CycleWindow

	LastDailyReset   time.Time
	LastCycleRestart time.Time
}

// NewState seeds a clock from a driver's persisted history.
func NewState(seed domain.DriverSeed, at time.Time) (State, error) {
	if err := seed.Validate(); err != nil {
		return State{}, fmt.Errorf("new hos state: %w", err)
	}

	var prior []time.Duration
	var today time.Duration
	if len(seed.History) > 0 {
		var sum float64
		prior = make([]time.Duration, 0, len(seed.History))
		for _, h := range seed.History {
			prior = append(prior, hoursToDuration(h))
			sum += h
		}
		if seed.CycleUsedHours > sum {
			today = hoursToDuration(seed.CycleUsedHours - sum)
		}
	} else if seed.CycleUsedHours > 0 {
		// Without a per-day breakdown the whole figure is kept in yesterday's
		// slot, the latest it could have been accrued before today.
		prior = []time.Duration{hoursToDuration(seed.CycleUsedHours)}
	}

	s := State{
		CycleType:         seed.CycleType,
		At:                at,
		Status:            domain.OffDuty,
		DailyDrivingUsed:  hoursToDuration(seed.DailyDrivingHours),
		DailyDutyUsed:     hoursToDuration(seed.DailyDutyHours),
		DrivingSinceBreak: hoursToDuration(seed.DrivingSinceBreakHours),
		Cycle:             NewCycleWindow(seed.CycleType.Days(), at, prior).add(today),
	}
	if s.DailyDutyUsed < s.DailyDrivingUsed {
		s.DailyDutyUsed = s.DailyDrivingUsed
	}
	s.WindowOpen = s.DailyDutyUsed > 0

	return s, nil
}

// CycleUsed is the on-duty time in the rolling window.
func (s State) CycleUsed() time.Duration { return s.Cycle.Total() }

// CycleLimit is the cap for the driver's cycle type.
func (s State) CycleLimit() time.Duration { return hoursToDuration(s.CycleType.Limit()) }

func AdvanceDriving(s State, d time.Duration) (State, error) {
	if d < 0 {
		return s, fmt.Errorf("advance driving: negative duration %s", d)
	}
	if s.DailyDrivingUsed+d > MaxDailyDriving {
		return s, fmt.Errorf(
			"advance driving: %w: %s used + %s requested > %s",
			ErrDrivingLimitExceeded, s.DailyDrivingUsed, d, MaxDailyDriving,
		)
	}
	if s.WindowOpen && s.DailyDutyUsed+d > MaxDutyWindow {
		return s, fmt.Errorf(
			"advance driving: %w: window %s elapsed + %s requested > %s",
			ErrDrivingLimitExceeded, s.DailyDutyUsed, d, MaxDutyWindow,
		)
	}
	return Apply(s, domain.Driving, d), nil
}

func AdvanceOnDuty(s State, d time.Duration) (State, error) {
	if d < 0 {
		return s, fmt.Errorf("advance on duty: negative duration %s", d)
	}
	return Apply(s, domain.OnDutyNotDriving, d), nil
}

// AdvanceOffDuty never counts toward the cycle. Ten consecutive hours of
// off-duty or sleeper time close the duty window.
func AdvanceOffDuty(s State, d time.Duration) (State, error) {
	if d < 0 {
		return s, fmt.Errorf("advance off duty: negative duration %s", d)
	}
	return Apply(s, domain.OffDuty, d), nil
}

func AdvanceSleeper(s State, d time.Duration) (State, error) {
	if d < 0 {
		return s, fmt.Errorf("advance sleeper: negative duration %s", d)
	}
	return Apply(s, domain.SleeperBerth, d), nil
}

// ApplyCycleRestart advances off-duty by d and, once the consecutive rest
// reaches 34 hours, zeroes the rolling cycle.
func ApplyCycleRestart(s State, d time.Duration) (State, error) {
	s, err := AdvanceOffDuty(s, d)
	if err != nil {
		return s, fmt.Errorf("apply cycle restart: %w", err)
	}
	return CompleteRestart(s), nil
}

// CompleteRestart zeroes the cycle if the current rest streak qualifies.
func CompleteRestart(s State) State {
	if s.RestStreak < CycleRestartMinimum {
		return s
	}
	s.Cycle = s.Cycle.clear()
	s.LastCycleRestart = s.At.Add(CycleRestartMinimum - s.RestStreak)
	return s
}

// Apply records d spent in status without enforcing any limit.
// It is the accounting shared by the checked transitions and by log audits.
func Apply(s State, status domain.DutyStatus, d time.Duration) State {
	if d <= 0 {
		return s
	}

	s.Cycle = s.Cycle.rollTo(s.At)
	for d > 0 {
		chunk := d
		if untilMidnight := nextDay(startOfDay(s.At)).Sub(s.At); untilMidnight > 0 && untilMidnight < chunk {
			chunk = untilMidnight
		}
		s = applyChunk(s, status, chunk)
		s.Cycle = s.Cycle.rollTo(s.At)
		d -= chunk
	}
	s.Status = status
	return s
}

func applyChunk(s State, status domain.DutyStatus, d time.Duration) State {
	switch status {
	case domain.Driving:
		if !s.WindowOpen {
			s.WindowOpen = true
			s.DailyDutyUsed = 0
		}
		s.DailyDrivingUsed += d
		s.DailyDutyUsed += d
		s.DrivingSinceBreak += d
		s.NonDrivingStreak = 0
		s.RestStreak = 0
		s.Cycle = s.Cycle.add(d)

	case domain.OnDutyNotDriving:
		if !s.WindowOpen {
			s.WindowOpen = true
			s.DailyDutyUsed = 0
		}
		s.DailyDutyUsed += d
		s.NonDrivingStreak += d
		s.RestStreak = 0
		s.Cycle = s.Cycle.add(d)

	case domain.OffDuty, domain.SleeperBerth:
		if s.WindowOpen {
			s.DailyDutyUsed += d
		}
		s.NonDrivingStreak += d
		s.RestStreak += d
		if s.RestStreak >= DailyRestMinimum && (s.WindowOpen || s.DailyDrivingUsed > 0) {
			s.DailyDrivingUsed = 0
			s.DailyDutyUsed = 0
			s.WindowOpen = false
			s.DrivingSinceBreak = 0
			s.LastDailyReset = s.At.Add(d - (s.RestStreak - DailyRestMinimum))
		}
	}

	if s.NonDrivingStreak >= BreakMinimum {
		s.DrivingSinceBreak = 0
	}
	s.At = s.At.Add(d)
	return s
}

func RemainingDriving(s State) time.Duration {
	return nonNegative(MaxDailyDriving - s.DailyDrivingUsed)
}

// RemainingDuty is the time left in the 14-hour window. A closed window
// offers the full 14 hours.
func RemainingDuty(s State) time.Duration {
	if !s.WindowOpen {
		return MaxDutyWindow
	}
	return nonNegative(MaxDutyWindow - s.DailyDutyUsed)
}

func RemainingCycle(s State) time.Duration {
	return nonNegative(s.CycleLimit() - s.CycleUsed())
}

// RemainingBeforeBreak is the driving allowed before a 30-minute break is due.
func RemainingBeforeBreak(s State) time.Duration {
	return nonNegative(BreakAfterDriving - s.DrivingSinceBreak)
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}

func hoursToDuration(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour)).Round(time.Second)
}

// Hours converts a duration to fractional hours.
func Hours(d time.Duration) float64 { return d.Hours() }
