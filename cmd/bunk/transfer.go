package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/bunk/internal/store"
)

var (
	importLegacy bool
	importName   string
)

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [FILE]",
		Short: "Export every semester as JSON (stdout when FILE is omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runExportCmd,
	}
}

func runExportCmd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	doc, err := a.store.ExportDocument(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to export: %w", err)
	}
	if len(args) == 0 {
		return store.WriteDocument(cmd.OutOrStdout(), doc)
	}

	path := args[0]
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := store.WriteDocument(f, doc); err != nil {
		if cerr := f.Close(); cerr != nil { // Best-effort close after write failure.
			_ = cerr
		}
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close export file: %w", err)
	}
	log.Info("exported", "semesters", len(doc), "path", path)
	return nil
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import semesters from an export file",
		Long: `Import semesters from a file written by "bunk export".

Semesters whose id already exists are replaced. Nothing is written if any
semester in the file fails validation.

With --legacy, FILE is a JSON array of {id, name, totalClasses,
classesAttended} subjects and becomes one new semester. Fixed totals come
from [import.totals] in the config, else import.legacy-total.`,
		Args: cobra.ExactArgs(1),
		RunE: runImportCmd,
	}
	cmd.Flags().BoolVar(&importLegacy, "legacy", false, "read the single-semester legacy format")
	cmd.Flags().StringVar(&importName, "name", "Imported semester", "semester name for --legacy imports")
	return cmd
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	if !importLegacy && cmd.Flags().Changed("name") {
		return fmt.Errorf("--name only applies with --legacy")
	}
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open import file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil { // Best-effort close for read-only file.
			_ = cerr
		}
	}()

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	if importLegacy {
		legacy, err := store.ReadLegacy(f)
		if err != nil {
			return err
		}
		info, err := a.store.ImportLegacy(ctx, strings.TrimSpace(importName), legacy, a.cfg.Import.Totals, a.cfg.LegacyTotal())
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "Imported %s (%s) with %d subjects\n", info.Name, info.ID, info.SubjectCount)
		return err
	}

	doc, err := store.ReadDocument(f)
	if err != nil {
		return err
	}
	infos, err := a.store.ImportDocument(ctx, doc)
	if err != nil {
		return err
	}
	for _, info := range infos {
		if _, err := fmt.Fprintf(out, "Imported %s (%s) with %d subjects\n", info.Name, info.ID, info.SubjectCount); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}
