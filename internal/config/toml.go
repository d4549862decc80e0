// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Defaults used when neither a flag nor the config file sets a value.
const (
	DefaultSubjectTotal = 40
	DefaultLegacyTotal  = 60
	DefaultDecimals     = 2
	DefaultLogLevel     = "info"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Subjects SubjectsConfig `toml:"subjects"`
	Import   ImportConfig   `toml:"import"`
	Display  DisplayConfig  `toml:"display"`
	Log      LogConfig      `toml:"log"`
}

// SubjectsConfig maps subject defaults.
type SubjectsConfig struct {
	DefaultTotal *int `toml:"default-total"`
}

// ImportConfig maps legacy import settings.
type ImportConfig struct {
	LegacyTotal *int           `toml:"legacy-total"`
	Totals      map[string]int `toml:"totals"`
}

// DisplayConfig maps output formatting settings.
type DisplayConfig struct {
	Decimals *int `toml:"decimals"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return FileConfig{}, err
	}
	return cfg, nil
}

func (c FileConfig) validate() error {
	if v := c.Subjects.DefaultTotal; v != nil && *v < 1 {
		return fmt.Errorf("subjects.default-total must be >= 1")
	}
	if v := c.Import.LegacyTotal; v != nil && *v < 1 {
		return fmt.Errorf("import.legacy-total must be >= 1")
	}
	for id, total := range c.Import.Totals {
		if total < 1 {
			return fmt.Errorf("import.totals.%s must be >= 1", id)
		}
	}
	if v := c.Display.Decimals; v != nil && (*v < 0 || *v > 6) {
		return fmt.Errorf("display.decimals must be between 0 and 6")
	}
	return nil
}

// SubjectTotal returns the configured default fixed total for new subjects.
func (c FileConfig) SubjectTotal() int {
	if c.Subjects.DefaultTotal != nil {
		return *c.Subjects.DefaultTotal
	}
	return DefaultSubjectTotal
}

// LegacyTotal returns the fallback fixed total for legacy imports.
func (c FileConfig) LegacyTotal() int {
	if c.Import.LegacyTotal != nil {
		return *c.Import.LegacyTotal
	}
	return DefaultLegacyTotal
}

// Decimals returns the number of decimals for percentages.
func (c FileConfig) Decimals() int {
	if c.Display.Decimals != nil {
		return *c.Display.Decimals
	}
	return DefaultDecimals
}

// LogLevel returns the log level, preferring BUNK_LOG_LEVEL.
func (c FileConfig) LogLevel() string {
	if v := os.Getenv(EnvLogLevel); v != "" {
		return v
	}
	if c.Log.Level != nil {
		return *c.Log.Level
	}
	return DefaultLogLevel
}
