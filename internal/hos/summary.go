package hos

import "time"

const (
	breakWarningAt = 7 * time.Hour
	restWarningAt  = 13 * time.Hour
)

// Summary is the compliance snapshot reported with every plan. Values are in hours.
type Summary struct {
	DailyDrivingUsed      float64
	DailyDrivingAvailable float64
	DailyDutyUsed         float64
	DailyDutyAvailable    float64
	CycleUsed             float64
	CycleAvailable        float64
	CycleLimit            float64
	NeedsBreakSoon        bool
	NeedsDailyRest        bool
}

func Summarize(s State) Summary {
	duty := time.Duration(0)
	if s.WindowOpen {
		duty = s.DailyDutyUsed
	}

	return Summary{
		DailyDrivingUsed:      Hours(s.DailyDrivingUsed),
		DailyDrivingAvailable: Hours(RemainingDriving(s)),
		DailyDutyUsed:         Hours(duty),
		DailyDutyAvailable:    Hours(RemainingDuty(s)),
		CycleUsed:             Hours(s.CycleUsed()),
		CycleAvailable:        Hours(RemainingCycle(s)),
		CycleLimit:            s.CycleType.Limit(),
		NeedsBreakSoon:        s.DrivingSinceBreak >= breakWarningAt,
		NeedsDailyRest:        duty >= restWarningAt || s.DailyDrivingUsed >= MaxDailyDriving,
	}
}
