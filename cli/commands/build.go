package commands

import (
	"github.com/spf13/cobra"

	"github.com/smartcontractkit/app-release-framework/cli/flags"
	"github.com/smartcontractkit/app-release-framework/cli/text"
)

var (
	buildLong = text.LongDesc(`
		Builds the selected targets stamped with the next release version. Without target flags
		every configured target is built.

		The version is the patch increment of the highest version published by any configured
		source, or the --version given when it is higher.`)

	buildExample = text.Examples(`
		# Build every configured target
		release build

		# Build iOS and Android with at least version 2.0.0
		release build --ios --android --version 2.0.0`)
)

func newBuildCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "build",
		Short:   "Build the selected targets",
		Long:    buildLong,
		Example: buildExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, s)
		},
	}

	flags.Platforms(cmd)
	flags.Version(cmd)

	return cmd
}

func runBuild(cmd *cobra.Command, s *session) error {
	requested, err := flags.RequestedVersion(cmd)
	if err != nil {
		return err
	}
	if err := s.cfg.Validate(); err != nil {
		return err
	}

	lane, err := s.lane(cmd.Context())
	if err != nil {
		return err
	}
	out, err := lane.Build(cmd.Context(), flags.SelectedPlatforms(cmd), requested)
	if out == nil {
		return err
	}
	printPlan(cmd, out.Plan)
	printOutcome(cmd, out)

	return err
}
