package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/bunk/internal/attendance"
	"github.com/verte-zerg/bunk/internal/config"
	"github.com/verte-zerg/bunk/internal/model"
)

var subjectTotal int

func newSubjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subject",
		Short: "Manage subjects of the current semester",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List subjects with their ids and counters",
		Args:  cobra.NoArgs,
		RunE:  runSubjectListCmd,
	}
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a subject",
		Args:  cobra.ExactArgs(1),
		RunE:  runSubjectAddCmd,
	}
	add.Flags().IntVar(&subjectTotal, "total", config.DefaultSubjectTotal, "classes planned for the semester")
	remove := &cobra.Command{
		Use:   "remove SUBJECT",
		Short: "Remove a subject",
		Args:  cobra.ExactArgs(1),
		RunE:  runSubjectRemoveCmd,
	}
	rename := &cobra.Command{
		Use:   "rename SUBJECT NAME",
		Short: "Rename a subject",
		Args:  cobra.ExactArgs(2),
		RunE:  runSubjectRenameCmd,
	}
	total := &cobra.Command{
		Use:   "total SUBJECT N",
		Short: "Change the planned number of classes",
		Args:  cobra.ExactArgs(2),
		RunE:  runSubjectTotalCmd,
	}

	cmd.AddCommand(list, add, remove, rename, total)
	return cmd
}

func runSubjectListCmd(cmd *cobra.Command, _ []string) error {
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
	subjects, err := a.store.ListSubjects(ctx, sem.ID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(subjects) == 0 {
		_, err := fmt.Fprintln(out, "No subjects yet.")
		return err
	}
	for _, sub := range subjects {
		if _, err := fmt.Fprintf(out, "%s  %s  %d/%d of %d\n", sub.ID, sub.Name,
			sub.ClassesAttended, sub.ConductedClasses, sub.FixedTotalClasses); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func runSubjectAddCmd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	applyIntConfig(cmd, "total", &subjectTotal, a.cfg.Subjects.DefaultTotal)
	ctx := cmd.Context()
	sem, err := a.semester(ctx)
	if err != nil {
		return err
	}
	sub, err := a.store.AddSubject(ctx, sem.ID, model.NewSubject{Name: args[0], FixedTotal: subjectTotal})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s), %d classes\n", sub.Name, sub.ID, sub.FixedTotalClasses)
	return err
}

func runSubjectRemoveCmd(cmd *cobra.Command, args []string) error {
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
	if err := a.store.RemoveSubject(ctx, sem.ID, sub.ID); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", sub.Name)
	return err
}

func runSubjectRenameCmd(cmd *cobra.Command, args []string) error {
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
	return a.store.RenameSubject(ctx, sem.ID, sub.ID, args[1])
}

func runSubjectTotalCmd(cmd *cobra.Command, args []string) error {
	total, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid total %q", args[1])
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
	updated, err := a.store.SetFixedTotal(ctx, sem.ID, sub.ID, total)
	if err != nil {
		return err
	}
	if updated.ConductedClasses != sub.ConductedClasses || updated.ClassesAttended != sub.ClassesAttended {
		log.Warn("counters clamped to the new total", "attended", updated.ClassesAttended, "conducted", updated.ConductedClasses)
	}
	s := attendance.ForSubject(updated)
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d classes, need %d, can miss %d\n",
		updated.Name, updated.FixedTotalClasses, s.ClassesNeededToReachTarget, s.ClassesCanMiss)
	return err
}
