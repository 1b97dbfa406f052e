package commands

import (
	"github.com/spf13/cobra"

	"github.com/smartcontractkit/app-release-framework/cli/flags"
	"github.com/smartcontractkit/app-release-framework/cli/text"
)

var (
	versionLong = text.LongDesc(`
		Queries every configured version source and prints the published version, the next
		release version and its build number. Nothing is built.`)

	versionExample = text.Examples(`
		# Show what the next release would be
		release version

		# Print only the next version name, e.g. for scripts
		release version --short`)
)

func newVersionCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "version",
		Short:   "Show the published and next release version",
		Long:    versionLong,
		Example: versionExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVersion(cmd, s)
		},
	}

	flags.Version(cmd)
	cmd.Flags().Bool("short", false, "Print only the next version name")

	return cmd
}

func runVersion(cmd *cobra.Command, s *session) error {
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
	plan, err := lane.Plan(cmd.Context(), requested)
	if err != nil {
		return err
	}

	if flags.MustBool(cmd.Flags().GetBool("short")) {
		cmd.Println(plan.Stamp.Name())

		return nil
	}
	printSources(cmd, plan.Resolved)
	printPlan(cmd, &plan)

	return nil
}
