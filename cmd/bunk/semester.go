package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/bunk/internal/model"
)

var (
	semesterCopyFrom string
	semesterYes      bool
)

func newSemesterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "semester",
		Short: "Manage semesters",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List semesters; * marks the current one",
		Args:  cobra.NoArgs,
		RunE:  runSemesterListCmd,
	}
	create := &cobra.Command{
		Use:   "new NAME",
		Short: "Create a semester and make it current",
		Args:  cobra.ExactArgs(1),
		RunE:  runSemesterNewCmd,
	}
	create.Flags().StringVar(&semesterCopyFrom, "copy-from", "", "copy subjects (with zeroed counters) from this semester")
	use := &cobra.Command{
		Use:   "use SEMESTER",
		Short: "Switch the current semester",
		Args:  cobra.ExactArgs(1),
		RunE:  runSemesterUseCmd,
	}
	rename := &cobra.Command{
		Use:   "rename SEMESTER NAME",
		Short: "Rename a semester",
		Args:  cobra.ExactArgs(2),
		RunE:  runSemesterRenameCmd,
	}
	del := &cobra.Command{
		Use:   "delete SEMESTER",
		Short: "Delete a semester with its subjects and daily log",
		Args:  cobra.ExactArgs(1),
		RunE:  runSemesterDeleteCmd,
	}
	del.Flags().BoolVar(&semesterYes, "yes", false, "confirm deletion")
	reset := &cobra.Command{
		Use:   "reset SEMESTER",
		Short: "Zero every counter and clear the daily log",
		Args:  cobra.ExactArgs(1),
		RunE:  runSemesterResetCmd,
	}
	reset.Flags().BoolVar(&semesterYes, "yes", false, "confirm reset")

	cmd.AddCommand(list, create, use, rename, del, reset)
	return cmd
}

func runSemesterListCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	infos, err := a.store.ListSemesters(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(infos) == 0 {
		_, err := fmt.Fprintln(out, "No semesters yet.")
		return err
	}
	for _, info := range infos {
		mark := " "
		if info.Current {
			mark = "*"
		}
		if _, err := fmt.Fprintf(out, "%s %s  %s  (%d subjects)\n", mark, info.ID, info.Name, info.SubjectCount); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func runSemesterNewCmd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	ns := model.NewSemester{Name: args[0]}
	if strings.TrimSpace(semesterCopyFrom) != "" {
		src, err := resolveSemester(ctx, a.store, semesterCopyFrom)
		if err != nil {
			return err
		}
		ns.CopyFrom = src.ID
	}
	info, err := a.store.CreateSemester(ctx, ns)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s) with %d subjects\n", info.Name, info.ID, info.SubjectCount)
	return err
}

func runSemesterUseCmd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	info, err := resolveSemester(ctx, a.store, args[0])
	if err != nil {
		return err
	}
	if err := a.store.UseSemester(ctx, info.ID); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Now using %s\n", info.Name)
	return err
}

func runSemesterRenameCmd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	info, err := resolveSemester(ctx, a.store, args[0])
	if err != nil {
		return err
	}
	return a.store.RenameSemester(ctx, info.ID, args[1])
}

func runSemesterDeleteCmd(cmd *cobra.Command, args []string) error {
	if !semesterYes {
		return fmt.Errorf("refusing to delete without --yes")
	}
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	info, err := resolveSemester(ctx, a.store, args[0])
	if err != nil {
		return err
	}
	if err := a.store.DeleteSemester(ctx, info.ID); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", info.Name)
	return err
}

func runSemesterResetCmd(cmd *cobra.Command, args []string) error {
	if !semesterYes {
		return fmt.Errorf("refusing to reset without --yes")
	}
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	info, err := resolveSemester(ctx, a.store, args[0])
	if err != nil {
		return err
	}
	if err := a.store.ResetSemester(ctx, info.ID); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Reset %s\n", info.Name)
	return err
}
