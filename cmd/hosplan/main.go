package main

import (
	"fmt"
	"hos-trip-planner/internal/config"
	"hos-trip-planner/internal/platform/obs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	timezone    string
	profilePath string
	jsonOutput  bool
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "hosplan",
	Short: "Plan HOS-compliant truck trips and audit driver logs offline",
	Long: `hosplan runs the trip planner and the log evaluator against YAML files,
without the HTTP server or a database.

Examples:
  # Plan every trip in a file with the default planner profile
  hosplan plan -f data/examples/trips.yaml

  # Audit dispatcher-edited records and fail on any violation
  hosplan audit -f data/examples/records.yaml --strict

  # Draw the daily log grids for a set of records
  hosplan logs -f data/examples/records.yaml --timezone America/Chicago
`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		env := "production"
		if verbose {
			env = "development"
		}
		obs.SetupWithWriter(env, os.Stderr)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&timezone, "timezone", config.Get("TIMEZONE", "UTC"), "IANA time zone for log sheet days")
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", config.Get("PLANNER_CONFIG", ""), "YAML planner profile overriding simulator defaults")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug timings to stderr")
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func location() (*time.Location, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", timezone, err)
	}
	return loc, nil
}
