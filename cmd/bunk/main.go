// Package main provides the CLI entrypoint for bunk.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/bunk/internal/config"
	"github.com/verte-zerg/bunk/internal/dashboard"
	"github.com/verte-zerg/bunk/internal/model"
	"github.com/verte-zerg/bunk/internal/store"
)

const defaultSemesterName = "Semester 1"

var (
	globalSemester string
	globalDB       string
	globalVerbose  bool
	globalDecimals int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "bunk",
		Short:         "Semester attendance tracker",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runDashboardCmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&globalSemester, "semester", "", "semester id or name (default: current)")
	flags.StringVar(&globalDB, "db", "", "database path (default: $BUNK_DB or XDG data dir)")
	flags.BoolVarP(&globalVerbose, "verbose", "v", false, "enable debug logging")
	flags.IntVar(&globalDecimals, "decimals", config.DefaultDecimals, "decimals shown for percentages")

	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newMarkCmd())
	rootCmd.AddCommand(newDayCmd())
	rootCmd.AddCommand(newAdjustCmd("attend", "Count an attended class (or undo one)"))
	rootCmd.AddCommand(newAdjustCmd("miss", "Count a missed class (or undo one)"))
	rootCmd.AddCommand(newSemesterCmd())
	rootCmd.AddCommand(newSubjectCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// app holds what every data command needs: merged config and an open store.
type app struct {
	cfg   config.FileConfig
	store *store.Store
}

func openApp(cmd *cobra.Command) (*app, error) {
	if err := config.LoadEnv(config.DefaultEnvPath()); err != nil {
		return nil, err
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := setupLogging(fileCfg.LogLevel(), globalVerbose); err != nil {
		return nil, err
	}
	applyIntConfig(cmd, "decimals", &globalDecimals, fileCfg.Display.Decimals)
	if globalDecimals < 0 || globalDecimals > 6 {
		return nil, fmt.Errorf("--decimals must be between 0 and 6")
	}

	dbPath := globalDB
	if dbPath == "" {
		dbPath = config.DefaultDBPath()
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	log.Debug("store opened", "path", dbPath)
	return &app{cfg: fileCfg, store: st}, nil
}

func (a *app) close() {
	if cerr := a.store.Close(); cerr != nil {
		log.Error("failed to close db", "err", cerr)
	}
}

// semester resolves --semester by id, id prefix or name, falling back to the
// current semester. A first semester is created when none exist.
func (a *app) semester(ctx context.Context) (model.SemesterInfo, error) {
	if strings.TrimSpace(globalSemester) == "" {
		return a.store.EnsureSemester(ctx, defaultSemesterName)
	}
	return resolveSemester(ctx, a.store, globalSemester)
}

func resolveSemester(ctx context.Context, st *store.Store, ref string) (model.SemesterInfo, error) {
	infos, err := st.ListSemesters(ctx)
	if err != nil {
		return model.SemesterInfo{}, err
	}
	ref = strings.TrimSpace(ref)
	for _, info := range infos {
		if info.ID == ref {
			return info, nil
		}
	}
	var byName, byPrefix []model.SemesterInfo
	for _, info := range infos {
		if strings.EqualFold(info.Name, ref) {
			byName = append(byName, info)
		}
		if ref != "" && strings.HasPrefix(info.ID, ref) {
			byPrefix = append(byPrefix, info)
		}
	}
	switch {
	case len(byName) == 1:
		return byName[0], nil
	case len(byName) > 1:
		return model.SemesterInfo{}, fmt.Errorf("semester name %q is ambiguous; use its id", ref)
	case len(byPrefix) == 1:
		return byPrefix[0], nil
	case len(byPrefix) > 1:
		return model.SemesterInfo{}, fmt.Errorf("semester id prefix %q matches %d semesters", ref, len(byPrefix))
	}
	return model.SemesterInfo{}, fmt.Errorf("%w: %s", store.ErrSemesterNotFound, ref)
}

func setupLogging(level string, verbose bool) error {
	log.SetOutput(os.Stderr)
	log.SetReportTimestamp(false)
	if verbose {
		log.SetLevel(log.DebugLevel)
		return nil
	}
	parsed, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log.SetLevel(parsed)
	return nil
}

func runDashboardCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	sem, err := a.semester(cmd.Context())
	if err != nil {
		return err
	}
	m := dashboard.NewModel(a.store, sem.ID, dashboard.Options{
		Decimals:     globalDecimals,
		DefaultTotal: a.cfg.SubjectTotal(),
		Now:          time.Now,
	})

	// Store debug logs would tear the alt screen.
	log.SetOutput(io.Discard)
	defer log.SetOutput(os.Stderr)

	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func today() string {
	return time.Now().Format(model.DateLayout)
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}
