package main

import (
	"context"
	"encoding/json"
	"fmt"
	"hos-trip-planner/internal/adapters/routing"
	"hos-trip-planner/internal/api/dto"
	"hos-trip-planner/internal/config"
	"hos-trip-planner/internal/ports"
	"hos-trip-planner/internal/services"
	"io"

	"github.com/spf13/cobra"
)

var (
	planFile        string
	planProvider    string
	planConcurrency int
	planGrid        bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan the trips listed in a YAML file",
	Long: `Plan every trip in a YAML file: route, HOS schedule, violations and log sheets.

The straight-line provider needs coordinates for every stop. The ORS provider
geocodes addresses and reads the key from ORS_API_KEY.`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planFile, "file", "f", "", "YAML file with a trips list")
	planCmd.Flags().StringVar(&planProvider, "provider", "straight", "Route provider: straight or ors")
	planCmd.Flags().IntVar(&planConcurrency, "concurrency", 4, "Trips planned at once")
	planCmd.Flags().BoolVar(&planGrid, "grid", false, "Also draw the daily log grids")
	_ = planCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	loc, err := location()
	if err != nil {
		return err
	}
	simCfg, err := config.LoadPlannerProfile(profilePath)
	if err != nil {
		return err
	}
	reqs, err := readTrips(planFile)
	if err != nil {
		return err
	}
	routes, err := routeProvider(planProvider, simCfg.AverageSpeedMPH)
	if err != nil {
		return err
	}

	planner := services.NewTripPlanner(routes, nil, nil, simCfg, loc)
	results, err := planner.PlanTrips(withContext(cmd), reqs, planConcurrency)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writePlanJSON(out, results)
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(out, "Trip %d: failed: %v\n\n", r.Index+1, r.Err)
			continue
		}
		renderPlan(out, r.Index+1, r.Plan, loc)
		if planGrid {
			for _, s := range r.Plan.LogSheets {
				renderSheet(out, s)
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d trips failed", failed, len(results))
	}
	return nil
}

func routeProvider(name string, speedMPH float64) (ports.RouteProvider, error) {
	switch name {
	case "straight":
		return routing.NewStraightLineProvider(speedMPH, nil), nil
	case "ors":
		ors, err := routing.NewORSRouteProvider(
			config.Get("ORS_API_KEY", ""),
			nil,
			routing.WithBaseURL(config.Get("ORS_BASE_URL", "https://api.openrouteservice.org")),
		)
		if err != nil {
			return nil, err
		}
		return ors, nil
	}
	return nil, fmt.Errorf("unknown provider %q (want straight or ors)", name)
}

func writePlanJSON(w io.Writer, results []services.TripResult) error {
	res := dto.PlanBatchResponse{Results: make([]dto.BatchResult, 0, len(results))}
	for _, r := range results {
		item := dto.BatchResult{Index: r.Index}
		if r.Err != nil {
			item.Error = r.Err.Error()
		} else {
			t := dto.NewTripResponse(r.Plan)
			item.Trip = &t
		}
		res.Results = append(res.Results, item)
	}
	return writeJSON(w, res)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// withContext keeps cobra's context non-nil when commands run from tests.
func withContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
