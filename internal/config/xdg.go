// Package config provides XDG path helpers.
package config

import (
	"os"
	"path/filepath"
)

const appName = "bunk"

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// DefaultConfigDir returns the directory holding config.toml and .env.
func DefaultConfigDir() string {
	return filepath.Join(XDGConfigHome(), appName)
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.toml")
}

// DefaultEnvPath returns the optional dotenv file path.
func DefaultEnvPath() string {
	return filepath.Join(DefaultConfigDir(), ".env")
}

// DefaultDBPath returns the SQLite database path. BUNK_DB overrides it.
func DefaultDBPath() string {
	if v := os.Getenv(EnvDB); v != "" {
		return v
	}
	return filepath.Join(XDGDataHome(), appName, appName+".db")
}
