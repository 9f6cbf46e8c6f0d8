package main

import (
	"fmt"
	"hos-trip-planner/internal/api/dto"
	"hos-trip-planner/internal/services"

	"github.com/spf13/cobra"
)

var (
	auditFile   string
	auditStrict bool
	logsFile    string
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Check recorded duty status for HOS violations",
	RunE:  runAudit,
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Draw the daily ELD log grids for recorded duty status",
	RunE:  runLogs,
}

func init() {
	auditCmd.Flags().StringVarP(&auditFile, "file", "f", "", "YAML file with duty status records")
	auditCmd.Flags().BoolVar(&auditStrict, "strict", false, "Exit non-zero when any violation is found")
	_ = auditCmd.MarkFlagRequired("file")

	logsCmd.Flags().StringVarP(&logsFile, "file", "f", "", "YAML file with duty status records")
	_ = logsCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(auditCmd, logsCmd)
}

func evaluate(path string) (*services.LogEvaluation, error) {
	loc, err := location()
	if err != nil {
		return nil, err
	}
	req, err := readLogs(path)
	if err != nil {
		return nil, err
	}
	return services.EvaluateLogs(req, loc)
}

func runAudit(cmd *cobra.Command, args []string) error {
	eval, err := evaluate(auditFile)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		if err := writeJSON(out, dto.NewEvaluateLogsResponse(eval)); err != nil {
			return err
		}
	} else {
		renderViolations(out, eval.Violations)
		renderSummary(out, eval.Summary)
	}

	if auditStrict && len(eval.Violations) > 0 {
		return fmt.Errorf("%d HOS violations found", len(eval.Violations))
	}
	return nil
}

func runLogs(cmd *cobra.Command, args []string) error {
	eval, err := evaluate(logsFile)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, dto.NewLogSheetResponses(eval.LogSheets))
	}
	for _, s := range eval.LogSheets {
		renderSheet(out, s)
	}
	return nil
}
