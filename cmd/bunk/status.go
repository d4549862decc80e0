package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/bunk/internal/attendance"
	"github.com/verte-zerg/bunk/internal/stats"
)

const defaultTrendWindow = 3

var (
	statusJSON        bool
	statusTrendWindow int
	statusFocus       int
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show attendance stats for every subject",
		Args:  cobra.NoArgs,
		RunE:  runStatusCmd,
	}
	cmd.Flags().BoolVar(&statusJSON, "json", false, "print the report as JSON")
	cmd.Flags().IntVar(&statusTrendWindow, "trend-window", defaultTrendWindow, "moving average window for the trend column")
	cmd.Flags().IntVar(&statusFocus, "focus", 3, "list up to N subjects at risk (0 disables)")
	return cmd
}

func runStatusCmd(cmd *cobra.Command, _ []string) error {
	if statusTrendWindow < 1 {
		return fmt.Errorf("--trend-window must be >= 1")
	}
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	sem, err := a.semester(ctx)
	if err != nil {
		return err
	}
	report, err := stats.BuildReport(ctx, a.store, sem.ID)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}

	out := cmd.OutOrStdout()
	if statusJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	opts := stats.RenderOptions{
		Decimals:    globalDecimals,
		Color:       stats.ShouldUseColor(out),
		TrendWidth:  stats.TrendWidthFor(stats.TerminalWidth()),
		TrendWindow: statusTrendWindow,
	}
	if err := stats.RenderSemester(out, report, opts); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if statusFocus <= 0 {
		return nil
	}
	for _, row := range stats.AtRisk(report.Rows, statusFocus) {
		if !row.Stats.Reachable {
			continue
		}
		if _, err := fmt.Fprintf(out, "Focus: %s needs %d straight classes to reach %d%%\n",
			row.Subject.Name, row.Stats.ClassesNeededToReachTarget, attendance.TargetPct); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Compare subject counters with the daily log",
		Args:  cobra.NoArgs,
		RunE:  runCheckCmd,
	}
}

func runCheckCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	sem, err := a.semester(ctx)
	if err != nil {
		return err
	}
	drift, err := a.store.Drift(ctx, sem.ID)
	if err != nil {
		return fmt.Errorf("failed to check counters: %w", err)
	}
	if err := stats.RenderDrift(cmd.OutOrStdout(), drift); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
