package main

import (
	"fmt"
	"hos-trip-planner/internal/domain"
	"hos-trip-planner/internal/hos"
	"hos-trip-planner/internal/services"
	"io"
	"strings"
	"text/tabwriter"
	"time"
)

const clock = "Jan 02 15:04 MST"

var gridRows = []struct {
	status domain.DutyStatus
	label  string
}{
	{domain.OffDuty, "OFF"},
	{domain.SleeperBerth, "SB"},
	{domain.Driving, "D"},
	{domain.OnDutyNotDriving, "ON"},
}

func renderPlan(w io.Writer, n int, p *services.TripPlan, loc *time.Location) {
	t := p.Trip
	fmt.Fprintf(w, "Trip %d: %s -> %s -> %s\n", n, t.Current.Label, t.Pickup.Label, t.Dropoff.Label)
	fmt.Fprintf(w, "  %s, %.1f mi, %.2f h driving\n", t.Provider, t.TotalMiles, t.DrivingHours)
	fmt.Fprintf(w, "  start %s, arrive %s, complete %s\n",
		t.StartAt.In(loc).Format(clock), t.ArriveAt.In(loc).Format(clock), t.EndAt.In(loc).Format(clock))
	if p.CycleExhausted {
		fmt.Fprintln(w, "  cycle exhausted: the driver needs a 34-hour restart before more on-duty time")
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  #\tSTOP\tARRIVE\tDEPART\tMILE\tLOCATION\tNOTES")
	for _, wp := range t.Waypoints {
		fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\t%.1f\t%s\t%s\n",
			wp.Sequence, wp.Kind, wp.ArriveAt.In(loc).Format(clock), wp.DepartAt.In(loc).Format(clock),
			wp.DistanceMiles, wp.Location.Label, wp.Notes)
	}
	tw.Flush()
	fmt.Fprintln(w)

	renderViolations(w, t.Violations)
	renderSummary(w, p.Summary)
	fmt.Fprintln(w)
}

func renderViolations(w io.Writer, vs []domain.Violation) {
	if len(vs) == 0 {
		fmt.Fprintln(w, "  violations: none")
		return
	}
	fmt.Fprintf(w, "  violations: %d\n", len(vs))
	for _, v := range vs {
		fmt.Fprintf(w, "    [%s] %s: %.2fh of %.2fh at %s\n",
			v.Severity, v.Type.Label(), v.ActualValue, v.LimitValue, v.Time.Format(clock))
	}
}

func renderSummary(w io.Writer, s hos.Summary) {
	fmt.Fprintf(w, "  driving %.2fh used, %.2fh left; duty window %.2fh used, %.2fh left; cycle %.2f/%.0fh\n",
		s.DailyDrivingUsed, s.DailyDrivingAvailable, s.DailyDutyUsed, s.DailyDutyAvailable, s.CycleUsed, s.CycleLimit)
	var flags []string
	if s.NeedsBreakSoon {
		flags = append(flags, "30-minute break due soon")
	}
	if s.NeedsDailyRest {
		flags = append(flags, "10-hour rest needed")
	}
	if len(flags) > 0 {
		fmt.Fprintf(w, "  %s\n", strings.Join(flags, "; "))
	}
}

// renderSheet draws the 24-hour grid with one character per 15-minute interval.
func renderSheet(w io.Writer, s domain.LogSheet) {
	fmt.Fprintf(w, "%s", s.Date.Format("Mon 2006-01-02"))
	if s.DriverID != "" {
		fmt.Fprintf(w, "  driver %s", s.DriverID)
	}
	fmt.Fprintf(w, "  %.1f mi\n", s.MilesDriven)

	var header strings.Builder
	header.WriteString("      ")
	for _, m := range s.TimeMarkers {
		header.WriteString(fmt.Sprintf("%-4s", m.Label24h[:2]))
	}
	fmt.Fprintln(w, strings.TrimRight(header.String(), " "))

	for _, row := range gridRows {
		var line strings.Builder
		for _, iv := range s.Intervals {
			if iv.Status == row.status {
				line.WriteByte('#')
			} else {
				line.WriteByte('.')
			}
		}
		fmt.Fprintf(w, "  %-3s %s %6.2f\n", row.label, line.String(), s.Totals.ByStatus(row.status))
	}

	for _, r := range s.Remarks {
		fmt.Fprintf(w, "    %s\n", r)
	}
	for _, v := range s.Violations {
		fmt.Fprintf(w, "    ! %s\n", v.Type.Label())
	}
	fmt.Fprintln(w)
}
