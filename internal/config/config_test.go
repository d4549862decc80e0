package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SubjectTotal() != DefaultSubjectTotal {
		t.Fatalf("expected default subject total, got %d", cfg.SubjectTotal())
	}
	if cfg.LegacyTotal() != DefaultLegacyTotal {
		t.Fatalf("expected default legacy total, got %d", cfg.LegacyTotal())
	}
	if cfg.Decimals() != DefaultDecimals {
		t.Fatalf("expected default decimals, got %d", cfg.Decimals())
	}
}

func TestLoadConfigValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[subjects]
default-total = 45

[import]
legacy-total = 75

[import.totals]
web-prog = 60
ml = 75

[display]
decimals = 1

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(EnvLogLevel, "")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.SubjectTotal() != 45 || cfg.LegacyTotal() != 75 || cfg.Decimals() != 1 {
		t.Fatalf("unexpected values: %+v", cfg)
	}
	if cfg.Import.Totals["web-prog"] != 60 || cfg.Import.Totals["ml"] != 75 {
		t.Fatalf("unexpected totals: %v", cfg.Import.Totals)
	}
	if cfg.LogLevel() != "debug" {
		t.Fatalf("expected debug level, got %s", cfg.LogLevel())
	}
}

func TestLoadConfigRejectsBadTotal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[subjects]\ndefault-total = 0\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadEnvSetsDBPath(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	dbPath := filepath.Join(dir, "custom.db")
	if err := os.WriteFile(envPath, []byte(EnvDB+"="+dbPath+"\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv(EnvDB, "")
	if err := os.Unsetenv(EnvDB); err != nil {
		t.Fatalf("unset env: %v", err)
	}
	if err := LoadEnv(envPath); err != nil {
		t.Fatalf("load env: %v", err)
	}
	if got := DefaultDBPath(); got != dbPath {
		t.Fatalf("expected %s, got %s", dbPath, got)
	}
}

func TestLoadEnvMissingFile(t *testing.T) {
	if err := LoadEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDefaultPathsFollowXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "cfg"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv(EnvDB, "")
	if got := DefaultConfigPath(); got != filepath.Join(dir, "cfg", "bunk", "config.toml") {
		t.Fatalf("unexpected config path: %s", got)
	}
	if got := DefaultDBPath(); got != filepath.Join(dir, "data", "bunk", "bunk.db") {
		t.Fatalf("unexpected db path: %s", got)
	}
}
