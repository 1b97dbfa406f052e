package commands

import (
	"github.com/spf13/cobra"

	"github.com/smartcontractkit/app-release-framework/cli/flags"
	"github.com/smartcontractkit/app-release-framework/cli/text"
	"github.com/smartcontractkit/app-release-framework/target"
)

var (
	uploadLong = text.LongDesc(`
		Uploads the artifacts a previous build left for the selected targets. Without target
		flags every configured target is uploaded.

		Apple targets go to App Store Connect, Android to the configured Play Console track and
		web to the configured S3 bucket. A target without an artifact fails as not built.`)

	uploadExample = text.Examples(`
		# Upload the Android bundle
		release upload --android`)
)

func newUploadCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "upload",
		Short:   "Upload previously built targets",
		Long:    uploadLong,
		Example: uploadExample,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUpload(cmd, s)
		},
	}

	flags.Platforms(cmd)

	return cmd
}

func runUpload(cmd *cobra.Command, s *session) error {
	platforms := flags.SelectedPlatforms(cmd)
	if err := validateUpload(s, platforms); err != nil {
		return err
	}

	lane, err := s.lane(cmd.Context())
	if err != nil {
		return err
	}
	out, err := lane.Upload(cmd.Context(), platforms)
	if out == nil {
		return err
	}
	printOutcome(cmd, out)

	return err
}

// validateUpload checks the configuration of the platforms to upload, every configured
// platform when none is selected.
func validateUpload(s *session, platforms []target.Platform) error {
	if err := s.cfg.Validate(); err != nil {
		return err
	}
	if len(platforms) == 0 {
		platforms = s.cfg.Platforms()
	}

	return s.cfg.ValidateUpload(platforms)
}
