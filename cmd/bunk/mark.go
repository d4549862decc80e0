package main

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/bunk/internal/attendance"
	"github.com/verte-zerg/bunk/internal/model"
	"github.com/verte-zerg/bunk/internal/stats"
	"github.com/verte-zerg/bunk/internal/store"
)

var (
	markDate   string
	dayDate    string
	adjustUndo bool
)

func newMarkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mark SUBJECT STATUS",
		Short: "Record present, absent or no-class for a subject on a date",
		Long: `Record a subject's status for one date and reconcile its counters.

STATUS is present (p), absent (a, x) or no-class (n, -).
Changing an existing entry undoes its old effect first.`,
		Args: cobra.ExactArgs(2),
		RunE: runMarkCmd,
	}
	cmd.Flags().StringVar(&markDate, "date", "", "date as YYYY-MM-DD (default: today)")
	return cmd
}

func runMarkCmd(cmd *cobra.Command, args []string) error {
	status, err := model.ParseStatus(args[1])
	if err != nil {
		return err
	}
	day := markDate
	if day == "" {
		day = today()
	}
	day, err = store.ParseDay(day)
	if err != nil {
		return err
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
	sub, err := a.store.ResolveSubject(ctx, sem.ID, args[0])
	if err != nil {
		return err
	}
	updated, changed, err := a.store.SetDayStatus(ctx, sem.ID, day, sub.ID, status)
	if err != nil {
		return err
	}
	if !changed {
		log.Info("already recorded", "subject", sub.Name, "day", day, "status", status)
	}
	return printSubjectLine(cmd, updated)
}

func newDayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "day",
		Short: "Show the daily log for a date",
		Args:  cobra.NoArgs,
		RunE:  runDayCmd,
	}
	cmd.Flags().StringVar(&dayDate, "date", "", "date as YYYY-MM-DD (default: today)")
	return cmd
}

func runDayCmd(cmd *cobra.Command, _ []string) error {
	day := dayDate
	if day == "" {
		day = today()
	}
	day, err := store.ParseDay(day)
	if err != nil {
		return err
	}
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	info, err := a.semester(ctx)
	if err != nil {
		return err
	}
	sem, err := a.store.LoadSemester(ctx, info.ID)
	if err != nil {
		return err
	}
	if err := stats.RenderDay(cmd.OutOrStdout(), sem, day); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newAdjustCmd(action, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   action + " SUBJECT",
		Short: short,
		Long: short + `.

This edits the counters directly without touching the daily log;
use "bunk mark" to record a specific date.`,
		Args: cobra.ExactArgs(1),
		RunE: runAdjustCmd,
	}
	cmd.Flags().BoolVar(&adjustUndo, "undo", false, "decrement instead of increment")
	return cmd
}

func runAdjustCmd(cmd *cobra.Command, args []string) error {
	kind, err := attendance.ParseAdjustKind(cmd.Name(), adjustUndo)
	if err != nil {
		return err
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
	sub, err := a.store.ResolveSubject(ctx, sem.ID, args[0])
	if err != nil {
		return err
	}
	updated, changed, err := a.store.AdjustSubject(ctx, sem.ID, sub.ID, kind)
	if err != nil {
		return err
	}
	if !changed {
		log.Warn("adjustment not possible", "subject", sub.Name, "kind", kind.String(),
			"attended", sub.ClassesAttended, "conducted", sub.ConductedClasses, "total", sub.FixedTotalClasses)
	}
	return printSubjectLine(cmd, updated)
}

func printSubjectLine(cmd *cobra.Command, sub model.Subject) error {
	s := attendance.ForSubject(sub)
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: %d/%d (%s) %s, need %d, can miss %d\n",
		sub.Name, sub.ClassesAttended, sub.ConductedClasses,
		attendance.FormatPercent(s.Percentage, globalDecimals), s.Level,
		s.ClassesNeededToReachTarget, s.ClassesCanMiss)
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
