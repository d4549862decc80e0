package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/bunk/internal/config"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := writeConfigTemplate(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// writeConfigTemplate creates the commented template unless a config exists.
func writeConfigTemplate(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat config: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# bunk configuration
# Uncomment a value to enable it. CLI flags override config values.
# Environment overrides can live in %s.

[subjects]
# default-total = %d       # Classes planned for a new subject

[import]
# legacy-total = %d        # Fixed total for legacy subjects without an entry below
# [import.totals]          # Fixed totals by legacy subject id
# web-prog = 60

[display]
# decimals = %d            # Decimals shown for percentages (0-6)

[log]
# level = %q           # debug, info, warn or error
`,
		config.DefaultEnvPath(),
		config.DefaultSubjectTotal,
		config.DefaultLegacyTotal,
		config.DefaultDecimals,
		config.DefaultLogLevel,
	)
}
