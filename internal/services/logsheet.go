package services

import (
	"fmt"
	"hos-trip-planner/internal/domain"
	"math"
	"time"
)

const (
	gridStep   = domain.MinutesPerInterval * time.Minute
	totalsTol  = 1e-6
	paddedNote = "No activity recorded"
)

type LogSheetOptions struct {
	DriverID string
	// Calendar used to split days. Nil means UTC.
	Location *time.Location
	// End time for an open last record. Zero uses the record start.
	Now time.Time
	// Certification metadata keyed by sheet date (2006-01-02). Owned elsewhere.
	Certifications map[string]domain.Certification
}

// BuildLogSheets renders a duty-status timeline into one log sheet per
// calendar day it touches. Days run from local midnight to the next local
// midnight, so a DST change gives a 23h or 25h day; its 96 cells follow the
// wall clock and its totals are scaled onto 24h. Time not covered by any
// record is shown as off duty. The output depends only on the inputs, so
// repeated builds are identical.
func BuildLogSheets(records []domain.DutyStatusRecord, violations []domain.Violation, opts LogSheetOptions) ([]domain.LogSheet, error) {
	if len(records) == 0 {
		return nil, nil
	}
	if err := domain.ValidateTimeline(records); err != nil {
		return nil, fmt.Errorf("build log sheets: %w", err)
	}

	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	first := records[0].Start.In(loc)
	last := records[len(records)-1]
	end := last.EndOr(opts.Now)
	if end.Before(last.Start) {
		end = last.Start
	}

	var sheets []domain.LogSheet
	for dayStart := startOfLocalDay(first); ; dayStart = nextMidnight(dayStart) {
		sheet, err := buildDay(records, violations, dayStart, end, opts)
		if err != nil {
			return nil, fmt.Errorf("build log sheets: %s: %w", dayStart.Format(time.DateOnly), err)
		}
		sheets = append(sheets, sheet)
		if !nextMidnight(dayStart).Before(end) {
			break
		}
	}

	return sheets, nil
}

// dayRecord is a record clipped to one sheet.
type dayRecord struct {
	domain.DutyStatusRecord
	start, end time.Time
	padded     bool
}

func buildDay(records []domain.DutyStatusRecord, violations []domain.Violation, dayStart, timelineEnd time.Time, opts LogSheetOptions) (domain.LogSheet, error) {
	dayEnd := nextMidnight(dayStart)
	clipped := clipToDay(records, dayStart, dayEnd, timelineEnd)

	sheet := domain.LogSheet{
		DriverID:    opts.DriverID,
		Date:        dayStart,
		TimeMarkers: timeMarkers(),
	}

	for _, r := range clipped {
		d := r.end.Sub(r.start)

		out := r.DutyStatusRecord
		start, end := r.start, r.end
		out.Start = start
		out.End = &end
		if full := r.DutyStatusRecord.Duration(r.end); !r.padded && full > 0 && r.DistanceMiles > 0 {
			out.DistanceMiles = r.DistanceMiles * float64(d) / float64(full)
		}
		if r.Status == domain.Driving {
			sheet.MilesDriven += out.DistanceMiles
		}
		sheet.Records = append(sheet.Records, out)

		if !r.padded {
			sheet.Remarks = append(sheet.Remarks, remark(r))
		}
	}
	sheet.MilesDriven = math.Round(sheet.MilesDriven*10) / 10

	var byStatus [domain.OnDutyNotDriving + 1]time.Duration
	for i := range sheet.Intervals {
		from := wallClockInstant(dayStart, i*domain.MinutesPerInterval)
		to := wallClockInstant(dayStart, (i+1)*domain.MinutesPerInterval)
		cell := cellCoverage(clipped, from, to)

		status := cell.dominant()
		sheet.Intervals[i] = domain.GridInterval{
			Index:   i,
			Start:   wallLabel(i * domain.MinutesPerInterval),
			End:     wallLabel((i + 1) * domain.MinutesPerInterval),
			Hour:    i / domain.IntervalsPerHour,
			Quarter: i % domain.IntervalsPerHour,
			Status:  status,
			Line:    status.Line(),
		}

		width := to.Sub(from)
		switch {
		case width == gridStep:
			for st, d := range cell.cover {
				byStatus[st] += d
			}
		case width <= 0:
			// Skipped by a spring-forward change.
			byStatus[status] += gridStep
		default:
			for st, d := range cell.cover {
				byStatus[st] += time.Duration(int64(d) * int64(gridStep) / int64(width))
			}
		}
	}

	sheet.Totals = domain.DailyTotals{
		OffDuty:          byStatus[domain.OffDuty].Hours(),
		SleeperBerth:     byStatus[domain.SleeperBerth].Hours(),
		Driving:          byStatus[domain.Driving].Hours(),
		OnDutyNotDriving: byStatus[domain.OnDutyNotDriving].Hours(),
	}
	sheet.Totals.TotalOnDuty = sheet.Totals.Driving + sheet.Totals.OnDutyNotDriving
	if sum := sheet.Totals.Sum(); math.Abs(sum-24) > totalsTol {
		return domain.LogSheet{}, fmt.Errorf("%w: daily totals sum to %.9fh, want 24h", domain.ErrInvariant, sum)
	}

	for _, v := range violations {
		if !v.Time.Before(dayStart) && v.Time.Before(dayEnd) {
			sheet.Violations = append(sheet.Violations, v)
		}
	}

	if c, ok := opts.Certifications[dayStart.Format(time.DateOnly)]; ok {
		sheet.Certification = &c
	}

	return sheet, nil
}

// clipToDay cuts records to [dayStart, dayEnd) and fills the gaps with off duty.
func clipToDay(records []domain.DutyStatusRecord, dayStart, dayEnd, timelineEnd time.Time) []dayRecord {
	var out []dayRecord
	loc := dayStart.Location()
	cursor := dayStart

	pad := func(until time.Time) {
		if until.After(cursor) {
			out = append(out, dayRecord{
				DutyStatusRecord: domain.DutyStatusRecord{Status: domain.OffDuty, Notes: paddedNote, Automatic: true},
				start:            cursor,
				end:              until,
				padded:           true,
			})
			cursor = until
		}
	}

	for _, r := range records {
		start := r.Start.In(loc)
		end := r.EndOr(timelineEnd).In(loc)
		if !end.After(dayStart) || !start.Before(dayEnd) || !end.After(start) {
			continue
		}
		if start.Before(dayStart) {
			start = dayStart
		}
		if end.After(dayEnd) {
			end = dayEnd
		}
		pad(start)
		out = append(out, dayRecord{DutyStatusRecord: r, start: start, end: end})
		cursor = end
	}
	pad(dayEnd)

	return out
}

type coverage struct {
	cover     [domain.OnDutyNotDriving + 1]time.Duration
	firstSeen [domain.OnDutyNotDriving + 1]int
}

// cellCoverage measures how long each status covers [from, to). An empty
// range records the status in effect at from.
func cellCoverage(records []dayRecord, from, to time.Time) coverage {
	var c coverage
	if !to.After(from) {
		for _, r := range records {
			if !from.Before(r.start) && from.Before(r.end) {
				c.firstSeen[r.Status] = 1
				break
			}
		}
		return c
	}

	order := 0
	for _, r := range records {
		s, e := r.start, r.end
		if !e.After(from) || !s.Before(to) {
			continue
		}
		if s.Before(from) {
			s = from
		}
		if e.After(to) {
			e = to
		}
		if c.cover[r.Status] == 0 {
			order++
			c.firstSeen[r.Status] = order
		}
		c.cover[r.Status] += e.Sub(s)
	}
	return c
}

// dominant picks the status covering most of the cell. Ties go to the status
// whose record started first.
func (c coverage) dominant() domain.DutyStatus {
	var best domain.DutyStatus
	for _, st := range domain.DutyStatuses {
		if c.firstSeen[st] == 0 {
			continue
		}
		if best == 0 || c.cover[st] > c.cover[best] || (c.cover[st] == c.cover[best] && c.firstSeen[st] < c.firstSeen[best]) {
			best = st
		}
	}
	if best == 0 {
		return domain.OffDuty
	}
	return best
}

// wallClockInstant returns the earliest instant on or after local midnight
// day whose wall clock reads at least minutes past midnight. Wall times
// skipped by a DST change map to the instant of the change.
func wallClockInstant(day time.Time, minutes int) time.Time {
	loc := day.Location()
	t := time.Date(day.Year(), day.Month(), day.Day(), 0, minutes, 0, 0, loc)

	want := time.Date(day.Year(), day.Month(), day.Day(), 0, minutes, 0, 0, time.UTC)
	got := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
	if got.Equal(want) {
		return t
	}
	start, end := t.ZoneBounds()
	if got.Before(want) {
		return end
	}
	return start
}

func wallLabel(minutes int) string {
	minutes %= 24 * 60
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func remark(r dayRecord) string {
	text := r.Status.Label()
	if r.Location.Label != "" {
		text += ", " + r.Location.Label
	}
	if r.Notes != "" {
		text += ": " + r.Notes
	}
	return fmt.Sprintf("%s - %s", r.start.Format("15:04"), text)
}

func timeMarkers() []domain.TimeMarker {
	markers := make([]domain.TimeMarker, 0, 24)
	for h := 0; h < 24; h++ {
		markers = append(markers, domain.TimeMarker{
			Hour:          h,
			Label12h:      twelveHour(h),
			Label24h:      fmt.Sprintf("%02d:00", h),
			IntervalIndex: h * domain.IntervalsPerHour,
		})
	}
	return markers
}

func twelveHour(h int) string {
	switch {
	case h == 0:
		return "12 AM"
	case h < 12:
		return fmt.Sprintf("%d AM", h)
	case h == 12:
		return "12 PM"
	}
	return fmt.Sprintf("%d PM", h-12)
}

func startOfLocalDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
