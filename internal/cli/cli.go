// Package cli implements the traitmix command-line interface.
package cli

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/matzehuels/traitmix/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "traitmix"

	// envFile is read from the working directory before any command runs.
	envFile = ".env"

	// envRedisURL supplies --redis-url when the flag is not given.
	envRedisURL = "TRAITMIX_REDIS_URL"

	// envSQLitePath supplies --sqlite-path when the flag is not given.
	envSQLitePath = "TRAITMIX_SQLITE_PATH"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. The store is opened per
// run from the options.
func (c *CLI) newRunner() *pipeline.Runner {
	return pipeline.NewRunner(nil, c.Logger)
}

// =============================================================================
// Environment
// =============================================================================

// loadEnv reads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func loadEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// envOr returns value, or the environment variable key when value is empty.
func envOr(value, key string) string {
	if value != "" {
		return value
	}
	return os.Getenv(key)
}

// =============================================================================
// Paths
// =============================================================================

// dataDir returns the data directory using XDG standard (~/.local/share/traitmix/).
func dataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName), nil
}

// defaultSQLitePath returns where the sqlite store keeps fingerprints when
// neither flag nor environment names a file.
func defaultSQLitePath() string {
	dir, err := dataDir()
	if err != nil {
		return pipeline.DefaultSQLitePath
	}
	return filepath.Join(dir, "fingerprints.db")
}
