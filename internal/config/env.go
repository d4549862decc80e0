package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables read by bunk.
const (
	EnvDB       = "BUNK_DB"
	EnvLogLevel = "BUNK_LOG_LEVEL"
)

// LoadEnv loads a dotenv file into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}
