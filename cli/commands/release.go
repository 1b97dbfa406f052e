package commands

import (
	"github.com/spf13/cobra"

	"github.com/smartcontractkit/app-release-framework/cli/flags"
	"github.com/smartcontractkit/app-release-framework/cli/text"
)

var (
	releaseLong = text.LongDesc(`
		Builds the selected targets and uploads each one whose build succeeded. Uploads of
		targets that failed to build are skipped and reported.`)

	releaseExample = text.Examples(`
		# Release every configured target
		release release

		# Release the web target only
		release release --web`)
)

func newReleaseCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "release",
		Short:   "Build and upload the selected targets",
		Long:    releaseLong,
		Example: releaseExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRelease(cmd, s)
		},
	}

	flags.Platforms(cmd)
	flags.Version(cmd)

	return cmd
}

func runRelease(cmd *cobra.Command, s *session) error {
	requested, err := flags.RequestedVersion(cmd)
	if err != nil {
		return err
	}
	platforms := flags.SelectedPlatforms(cmd)
	if err := validateUpload(s, platforms); err != nil {
		return err
	}

	lane, err := s.lane(cmd.Context())
	if err != nil {
		return err
	}
	out, err := lane.Release(cmd.Context(), platforms, requested)
	if out == nil {
		return err
	}
	printPlan(cmd, out.Plan)
	printOutcome(cmd, out)

	return err
}
