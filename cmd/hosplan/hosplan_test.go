package main

import (
	"bytes"
	"encoding/json"
	"hos-trip-planner/internal/api/dto"
	"hos-trip-planner/internal/domain"
	"hos-trip-planner/internal/services"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const tripsYAML = `trips:
  - driver_id: D-1
    start_at: 2026-03-02T08:00:00Z
    current: {address: "Dallas, TX", lat: 32.7767, lng: -96.7970}
    pickup: {address: "Waco, TX", lat: 31.5493, lng: -97.1467}
    dropoff: {address: "Houston, TX", lat: 29.7604, lng: -95.3698}
    seed:
      current_cycle_used: 12
  - current: {address: "Nowhere"}
    pickup: {address: "Waco, TX", lat: 31.5493, lng: -97.1467}
    dropoff: {address: "Houston, TX", lat: 29.7604, lng: -95.3698}
`

const recordsYAML = `driver_id: D-2
records:
  - status: driving
    start: 2026-03-02T06:00:00Z
    end: 2026-03-02T18:00:00Z
    location: Amarillo, TX
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		jsonOutput, planGrid, auditStrict = false, false, false
		timezone = "UTC"
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestReadTrips(t *testing.T) {
	reqs, err := readTrips(writeFile(t, "trips.yaml", tripsYAML))
	if err != nil {
		t.Fatalf("readTrips: %v", err)
	}
	if len(reqs) != 2 {
		t.Fatalf("trips = %d, want 2", len(reqs))
	}
	r := reqs[0]
	if r.DriverID != "D-1" || r.Pickup.Label != "Waco, TX" || r.Pickup.Lon != -97.1467 {
		t.Fatalf("first trip = %+v", r)
	}
	if !r.StartAt.Equal(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("StartAt = %v", r.StartAt)
	}
	if r.Seed == nil || r.Seed.CycleType != domain.Cycle70Hour8Day || r.Seed.CycleUsedHours != 12 {
		t.Fatalf("seed = %+v, want 70_8 with 12h used", r.Seed)
	}
}

func TestReadTripsRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, "trips.yaml", "trips:\n  - truck_count: 3\n")
	if _, err := readTrips(path); err == nil {
		t.Fatalf("expected an error for an unknown key")
	}
	if _, err := readTrips(writeFile(t, "empty.yaml", "trips: []\n")); err == nil {
		t.Fatalf("expected an error for an empty trip list")
	}
}

func TestReadLogs(t *testing.T) {
	req, err := readLogs(writeFile(t, "records.yaml", recordsYAML))
	if err != nil {
		t.Fatalf("readLogs: %v", err)
	}
	if req.DriverID != "D-2" || len(req.Records) != 1 || req.Records[0].Status != domain.Driving {
		t.Fatalf("request = %+v", req)
	}
	if req.Seed.CycleType != domain.Cycle70Hour8Day {
		t.Fatalf("cycle = %s, want the 70-hour default", req.Seed.CycleType)
	}

	bad := strings.Replace(recordsYAML, "driving", "napping", 1)
	if _, err := readLogs(writeFile(t, "bad.yaml", bad)); err == nil {
		t.Fatalf("expected an error for an unknown status")
	}
}

func TestRenderSheetDrawsFourRows(t *testing.T) {
	req, err := readLogs(writeFile(t, "records.yaml", recordsYAML))
	if err != nil {
		t.Fatalf("readLogs: %v", err)
	}
	eval, err := services.EvaluateLogs(req, time.UTC)
	if err != nil {
		t.Fatalf("EvaluateLogs: %v", err)
	}

	var out bytes.Buffer
	renderSheet(&out, eval.LogSheets[0])
	lines := strings.Split(out.String(), "\n")

	if !strings.HasPrefix(lines[0], "Mon 2026-03-02  driver D-2") {
		t.Fatalf("title = %q", lines[0])
	}
	driving := lines[4]
	if !strings.HasPrefix(driving, "  D   ") {
		t.Fatalf("driving row = %q", driving)
	}
	grid := driving[6 : 6+domain.IntervalsPerDay]
	if strings.Count(grid, "#") != 48 || grid[24] != '#' || grid[23] != '.' {
		t.Fatalf("driving grid = %q, want 06:00-18:00 filled", grid)
	}
	if !strings.HasSuffix(driving, "12.00") {
		t.Fatalf("driving row total = %q", driving)
	}
}

func TestPlanCommand(t *testing.T) {
	path := writeFile(t, "trips.yaml", tripsYAML)

	out, err := run(t, "plan", "-f", path)
	if err == nil || !strings.Contains(err.Error(), "1 of 2 trips failed") {
		t.Fatalf("err = %v, want the trip without coordinates to fail", err)
	}
	if !strings.Contains(out, "Trip 1: Dallas, TX -> Waco, TX -> Houston, TX") {
		t.Fatalf("output = %s", out)
	}
	if !strings.Contains(out, "Trip 2: failed:") || !strings.Contains(out, "invalid input: current_location") {
		t.Fatalf("output = %s, want the second trip's input error", out)
	}
}

func TestPlanCommandJSON(t *testing.T) {
	path := writeFile(t, "trips.yaml", tripsYAML)

	out, _ := run(t, "plan", "-f", path, "--json")
	var res dto.PlanBatchResponse
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode: %v (output %s)", err, out)
	}
	if len(res.Results) != 2 || res.Results[0].Trip == nil || res.Results[1].Error == "" {
		t.Fatalf("results = %+v", res.Results)
	}
	if got := res.Results[0].Trip.Route.Provider; got != "straight_line" {
		t.Fatalf("provider = %q, want straight_line", got)
	}
}

func TestAuditCommandStrict(t *testing.T) {
	path := writeFile(t, "records.yaml", recordsYAML)

	out, err := run(t, "audit", "-f", path, "--strict")
	if err == nil {
		t.Fatalf("expected --strict to fail on violations")
	}
	if !strings.Contains(out, "Driving more than 11 hours") || !strings.Contains(out, "Required rest break missed") {
		t.Fatalf("output = %s", out)
	}
}
