// Package cli provides the release command line: a Base holding the root command and logger,
// the build, upload, release and version commands, and the wiring from configuration to the
// release lane.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/smartcontractkit/app-release-framework/pkg/logger"
)

// Base is a base struct for creating CLI applications using Cobra. It holds the root command and
// the logger shared by its commands. Log starts as the bootstrap logger and is replaced by
// NewLogger once the commands know the configured level and format.
type Base struct {
	Log logger.Logger

	rootCmd *cobra.Command
}

// NewBase creates a new Base instance.
func NewBase(log logger.Logger, rootCmd *cobra.Command) *Base {
	return &Base{
		Log:     log,
		rootCmd: rootCmd,
	}
}

// AddCommand adds one or more commands to the root command of the CLI application.
func (base *Base) AddCommand(cmds ...*cobra.Command) {
	base.rootCmd.AddCommand(cmds...)
}

// Run executes the root command of the CLI application and flushes Log, whether or not the
// command succeeded.
func (base *Base) Run() error {
	err := base.rootCmd.Execute()
	if base.Log != nil {
		_ = base.Log.Sync()
	}

	return err
}

// NewLogger creates a logger like the package level NewLogger and makes it the Log of base.
// On error Log is left unchanged.
func (base *Base) NewLogger(level, format string) (logger.Logger, error) {
	lggr, err := NewLogger(level, format)
	if err != nil {
		return nil, err
	}
	base.Log = lggr

	return lggr, nil
}

// RootCmd returns the root command of the CLI application.
func (base *Base) RootCmd() *cobra.Command {
	return base.rootCmd
}

// NewLogger creates the CLI logger. level is a zap level name such as "debug" or "info"; format
// is "json" or "console".
func NewLogger(level, format string) (logger.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var f logger.Format
	switch format {
	case "", string(logger.FormatJSON):
		f = logger.FormatJSON
	case string(logger.FormatConsole), "human":
		f = logger.FormatConsole
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}

	cfg := logger.Config{Level: lvl, Format: f}

	return cfg.New()
}
