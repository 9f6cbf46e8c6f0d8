package domain

import (
	"fmt"
	"time"
)

type ViolationType string

const (
	ViolationDrive11h  ViolationType = "drive_11h"
	ViolationDuty14h   ViolationType = "duty_14h"
	ViolationCycle70h  ViolationType = "cycle_70h"
	ViolationCycle60h  ViolationType = "cycle_60h"
	ViolationRestBreak ViolationType = "rest_break"
	ViolationDailyRest ViolationType = "daily_rest"
)

func (t ViolationType) Label() string {
	switch t {
	case ViolationDrive11h:
		return "Driving more than 11 hours"
	case ViolationDuty14h:
		return "On duty more than 14 hours"
	case ViolationCycle70h:
		return "Cycle limit exceeded (70 hours)"
	case ViolationCycle60h:
		return "Cycle limit exceeded (60 hours)"
	case ViolationRestBreak:
		return "Required rest break missed"
	case ViolationDailyRest:
		return "10-hour daily rest period not met"
	}
	return string(t)
}

type Severity string

const (
	SeverityWarning   Severity = "warning"
	SeverityViolation Severity = "violation"
	SeverityCritical  Severity = "critical"
)

// Represents one breach of an HOS limit. Values are in hours.
// Violations are output data describing a non-compliant schedule, not errors.
type Violation struct {
	Type        ViolationType
	Severity    Severity
	ActualValue float64
	LimitValue  float64
	Time        time.Time
	Description string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s[%s] actual=%.2fh limit=%.2fh at %s", v.Type, v.Severity, v.ActualValue, v.LimitValue, v.Time.Format(time.RFC3339))
}
