package domain

import (
	"fmt"
	"time"
)

// DutyStatus is one of the four legally defined driver activity states.
type DutyStatus int

const (
	OffDuty DutyStatus = iota + 1
	SleeperBerth
	Driving
	OnDutyNotDriving
)

// DutyStatuses lists every status in rendering-line order.
var DutyStatuses = []DutyStatus{OffDuty, SleeperBerth, Driving, OnDutyNotDriving}

func (s DutyStatus) String() string {
	switch s {
	case OffDuty:
		return "off_duty"
	case SleeperBerth:
		return "sleeper_berth"
	case Driving:
		return "driving"
	case OnDutyNotDriving:
		return "on_duty_not_driving"
	}
	return fmt.Sprintf("duty_status(%d)", int(s))
}

// Label is the human-readable name printed on log sheets.
func (s DutyStatus) Label() string {
	switch s {
	case OffDuty:
		return "Off Duty"
	case SleeperBerth:
		return "Sleeper Berth"
	case Driving:
		return "Driving"
	case OnDutyNotDriving:
		return "On Duty (Not Driving)"
	}
	return s.String()
}

// Line is the fixed grid row (1-4) the status is drawn on.
func (s DutyStatus) Line() int {
	switch s {
	case OffDuty:
		return 1
	case SleeperBerth:
		return 2
	case Driving:
		return 3
	case OnDutyNotDriving:
		return 4
	}
	return 0
}

// CountsTowardDuty reports whether time in this status accrues to the on-duty cycle.
func (s DutyStatus) CountsTowardDuty() bool { return s == Driving || s == OnDutyNotDriving }

// IsRest reports whether time in this status counts toward a 10h or 34h rest.
func (s DutyStatus) IsRest() bool { return s == OffDuty || s == SleeperBerth }

func (s DutyStatus) Valid() bool { return s >= OffDuty && s <= OnDutyNotDriving }

func ParseDutyStatus(v string) (DutyStatus, error) {
	for _, s := range DutyStatuses {
		if s.String() == v {
			return s, nil
		}
	}
	return 0, NewInputError("duty_status", fmt.Sprintf("unknown duty status %q", v))
}

func (s DutyStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("marshal duty status: invalid value %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *DutyStatus) UnmarshalText(b []byte) error {
	v, err := ParseDutyStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// DutyStatusRecord is one contiguous interval spent in a single duty status.
// End is nil while the record is still current (open interval).
type DutyStatusRecord struct {
	ID            string
	Status        DutyStatus
	Start         time.Time
	End           *time.Time
	Location      Location
	OdometerMiles float64
	// Miles covered while in this record; non-zero only for driving.
	DistanceMiles float64
	Notes         string
	Automatic     bool
}

// Duration of the record; open records are measured up to now.
func (r DutyStatusRecord) Duration(now time.Time) time.Duration {
	end := now
	if r.End != nil {
		end = *r.End
	}
	if end.Before(r.Start) {
		return 0
	}
	return end.Sub(r.Start)
}

// EndOr returns the record end, or fallback when the record is open.
func (r DutyStatusRecord) EndOr(fallback time.Time) time.Time {
	if r.End != nil {
		return *r.End
	}
	return fallback
}

// ValidateTimeline checks that records are ordered, contiguous and non-overlapping.
// Only the last record may be open.
func ValidateTimeline(records []DutyStatusRecord) error {
	for i, r := range records {
		if !r.Status.Valid() {
			return NewInputError("records", fmt.Sprintf("record %d has invalid status", i))
		}
		if r.End == nil {
			if i != len(records)-1 {
				return NewInputError("records", fmt.Sprintf("record %d is open but not last", i))
			}
			continue
		}
		if r.End.Before(r.Start) {
			return NewInputError("records", fmt.Sprintf("record %d ends before it starts", i))
		}
		if i+1 < len(records) && !r.End.Equal(records[i+1].Start) {
			return NewInputError(
				"records",
				fmt.Sprintf("record %d ends at %s but record %d starts at %s", i, r.End.Format(time.RFC3339), i+1, records[i+1].Start.Format(time.RFC3339)),
			)
		}
	}
	return nil
}
