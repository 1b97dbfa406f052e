// Package commands provides the subcommands of the release CLI.
package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smartcontractkit/app-release-framework/cli"
	"github.com/smartcontractkit/app-release-framework/cli/flags"
	"github.com/smartcontractkit/app-release-framework/cli/text"
	"github.com/smartcontractkit/app-release-framework/config"
	"github.com/smartcontractkit/app-release-framework/pkg/logger"
	"github.com/smartcontractkit/app-release-framework/release"
)

var (
	rootShort = "Build and publish an app to its stores"

	rootLong = text.LongDesc(`
		Resolves the highest version the app has published across its stores, stamps the next
		version into every selected target, builds the targets and uploads them.

		A failing target never stops the others. The command exits non-zero when any target
		failed and names the failed targets.`)
)

// Config holds the configuration of the release commands.
type Config struct {
	// Deps holds optional dependencies that can be overridden.
	// If fields are nil, production defaults are used.
	Deps Deps
}

// Deps holds the injectable dependencies of the commands.
type Deps struct {
	// ConfigLoader loads the release configuration from a file path.
	ConfigLoader func(path string) (*config.Config, error)
	// LoggerFactory creates the logger from a level and format name.
	LoggerFactory func(level, format string) (logger.Logger, error)
	// LaneFactory builds the release lane of a configuration.
	LaneFactory cli.LaneFactory
}

func (d *Deps) applyDefaults() {
	if d.ConfigLoader == nil {
		d.ConfigLoader = config.Load
	}
	if d.LoggerFactory == nil {
		d.LoggerFactory = cli.NewLogger
	}
	if d.LaneFactory == nil {
		d.LaneFactory = cli.NewLane
	}
}

// deps returns the Deps with defaults applied.
func (c *Config) deps() *Deps {
	c.Deps.applyDefaults()

	return &c.Deps
}

// session is the state shared by the subcommands of one invocation. It is loaded before any
// subcommand runs.
type session struct {
	deps *Deps
	cfg  *config.Config
	lggr logger.Logger
}

func (s *session) load(cmd *cobra.Command) error {
	path := flags.MustString(cmd.Flags().GetString("config"))
	cfg, err := s.deps.ConfigLoader(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if lvl := flags.MustString(cmd.Flags().GetString("log-level")); lvl != "" {
		cfg.Log.Level = lvl
	}
	if format := flags.MustString(cmd.Flags().GetString("log-format")); format != "" {
		cfg.Log.Format = format
	}
	lggr, err := s.deps.LoggerFactory(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return &config.ConfigurationError{Problems: []string{err.Error()}}
	}

	s.cfg = cfg
	s.lggr = lggr

	return nil
}

func (s *session) lane(ctx context.Context) (*release.Lane, error) {
	if s.cfg == nil {
		return nil, errors.New("configuration not loaded")
	}

	return s.deps.LaneFactory(ctx, s.cfg, s.lggr)
}

// NewCommand creates the release root command with all subcommands.
//
// Usage:
//
//	var base *cli.Base
//	root := commands.NewCommand(commands.Config{Deps: commands.Deps{
//		LoggerFactory: func(level, format string) (logger.Logger, error) {
//			return base.NewLogger(level, format)
//		},
//	}})
//	base = cli.NewBase(lggr, root)
//	err := base.Run() // flushes the logger the commands used
func NewCommand(cfg Config) *cobra.Command {
	s := &session{deps: cfg.deps()}

	cmd := &cobra.Command{
		Use:          "release",
		Short:        rootShort,
		Long:         rootLong,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return s.load(cmd)
		},
	}

	cmd.PersistentFlags().StringP("config", "c", config.DefaultFile, "Path to the release configuration file")
	cmd.PersistentFlags().String("log-level", "", "Log level, overrides the configuration (debug, info, warn, error)")
	cmd.PersistentFlags().String("log-format", "", "Log format, overrides the configuration (json, console)")

	cmd.AddCommand(
		newBuildCmd(s),
		newUploadCmd(s),
		newReleaseCmd(s),
		newVersionCmd(s),
	)

	return cmd
}
