// Command release resolves, builds and publishes an app to its stores.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/smartcontractkit/app-release-framework/cli"
	"github.com/smartcontractkit/app-release-framework/cli/commands"
	"github.com/smartcontractkit/app-release-framework/config"
	"github.com/smartcontractkit/app-release-framework/pkg/logger"
)

// Exit codes.
const (
	exitFailure = 1
	exitConfig  = 2
)

func main() {
	lggr, err := cli.NewLogger("info", "console")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitFailure)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// the configured logger replaces the bootstrap one on base, so Run flushes it on every exit path
	var base *cli.Base
	root := commands.NewCommand(commands.Config{Deps: commands.Deps{
		LoggerFactory: func(level, format string) (logger.Logger, error) {
			return base.NewLogger(level, format)
		},
	}})
	base = cli.NewBase(lggr, root)
	base.RootCmd().SetContext(ctx)

	if err := base.Run(); err != nil {
		stop()

		var cerr *config.ConfigurationError
		if errors.As(err, &cerr) {
			os.Exit(exitConfig)
		}
		os.Exit(exitFailure)
	}
}
