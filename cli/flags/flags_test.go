package flags

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/app-release-framework/target"
	"github.com/smartcontractkit/app-release-framework/version"
)

func newCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	Platforms(cmd)
	Version(cmd)

	return cmd
}

func TestSelectedPlatforms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want []target.Platform
	}{
		{name: "none", args: nil, want: nil},
		{name: "canonical order", args: []string{"--web", "--ios"}, want: []target.Platform{target.IOS, target.Web}},
		{name: "apple", args: []string{"--tvos", "--macos"}, want: []target.Platform{target.MacOS, target.TvOS}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cmd := newCmd()
			require.NoError(t, cmd.ParseFlags(tt.args))
			assert.Equal(t, tt.want, SelectedPlatforms(cmd))
		})
	}
}

func TestRequestedVersion(t *testing.T) {
	t.Parallel()

	cmd := newCmd()
	require.NoError(t, cmd.ParseFlags(nil))
	v, err := RequestedVersion(cmd)
	require.NoError(t, err)
	assert.False(t, v.IsValid())

	cmd = newCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--version", "2.1.0"}))
	v, err = RequestedVersion(cmd)
	require.NoError(t, err)
	assert.Equal(t, "2.1.0", v.String())

	cmd = newCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--build-version=3.0"}))
	v, err = RequestedVersion(cmd)
	require.NoError(t, err)
	assert.True(t, v.Equal(version.MustParse("3.0.0")))

	cmd = newCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--version", " 2.2.0 "}))
	v, err = RequestedVersion(cmd)
	require.NoError(t, err)
	assert.Equal(t, "2.2.0", v.String())

	cmd = newCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--version", "v2"}))
	_, err = RequestedVersion(cmd)
	require.ErrorIs(t, err, version.ErrNotNumeric)
}

func TestMustHelpers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "x", MustString("x", assert.AnError))
	assert.True(t, MustBool(true, nil))
}
