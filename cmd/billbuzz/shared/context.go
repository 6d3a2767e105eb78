// Package shared holds the context passed to all CLI commands.
package shared

import (
	"log/slog"
	"os"

	"github.com/billbuzz/billbuzz/internal/config"
)

// Context carries global CLI state (flags set on the root command).
type Context struct {
	// ConfigPath points at an optional YAML config file.
	ConfigPath string
	Verbose    bool
}

// Config loads the configuration named by the --config flag.
func (c *Context) Config() (*config.Config, error) {
	return config.Load(c.ConfigPath)
}

// SetupLogging installs the process-wide slog handler.
func (c *Context) SetupLogging() {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
