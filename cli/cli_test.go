package cli

import (
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/app-release-framework/config"
	"github.com/smartcontractkit/app-release-framework/pkg/logger"
	"github.com/smartcontractkit/app-release-framework/target"
	"github.com/smartcontractkit/app-release-framework/version"
)

func TestBase(t *testing.T) {
	t.Parallel()

	var ran bool
	root := &cobra.Command{Use: "release"}
	base := NewBase(logger.Nop(), root)
	base.AddCommand(&cobra.Command{
		Use: "noop",
		Run: func(*cobra.Command, []string) { ran = true },
	})
	root.SetArgs([]string{"noop"})

	require.NoError(t, base.Run())
	assert.True(t, ran)
	assert.Same(t, root, base.RootCmd())
	assert.NotNil(t, base.Log)
}

type syncCountingLogger struct {
	logger.Logger
	syncs *atomic.Int32
}

func (l syncCountingLogger) Sync() error {
	l.syncs.Add(1)

	return nil
}

func TestBase_RunSyncsLoggerOnFailure(t *testing.T) {
	t.Parallel()

	var syncs atomic.Int32
	root := &cobra.Command{
		Use:           "release",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(*cobra.Command, []string) error {
			return errors.New("target android failed")
		},
	}
	root.SetArgs([]string{})
	base := NewBase(syncCountingLogger{Logger: logger.Nop(), syncs: &syncs}, root)

	require.ErrorContains(t, base.Run(), "target android failed")
	assert.Equal(t, int32(1), syncs.Load())
}

func TestBase_NewLogger(t *testing.T) {
	t.Parallel()

	bootstrap := logger.Nop()
	base := NewBase(bootstrap, &cobra.Command{Use: "release"})

	_, err := base.NewLogger("info", "xml")
	require.ErrorContains(t, err, `invalid log format "xml"`)
	assert.Same(t, bootstrap, base.Log)

	lggr, err := base.NewLogger("debug", "json")
	require.NoError(t, err)
	assert.Same(t, lggr, base.Log)
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		level   string
		format  string
		wantErr string
	}{
		{name: "console", level: "debug", format: "console"},
		{name: "human alias", level: "info", format: "human"},
		{name: "json", level: "warn", format: "json"},
		{name: "default format", level: "error", format: ""},
		{name: "bad level", level: "loud", format: "json", wantErr: `invalid log level "loud"`},
		{name: "bad format", level: "info", format: "xml", wantErr: `invalid log format "xml"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			lggr, err := NewLogger(tt.level, tt.format)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)

				return
			}
			require.NoError(t, err)
			assert.NotNil(t, lggr)
		})
	}
}

func TestNewLane(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		App: config.AppConfig{Identifier: "com.example.app", PackageName: "com.example.app"},
		Sources: []config.SourceConfig{
			{Kind: "static", Name: "pinned", Value: "1.4.2"},
		},
		Targets: map[string]string{"android": "flutter", "web": "flutter", "macos": "xcode"},
		Toolchains: config.ToolchainsConfig{
			Xcode: config.XcodeConfig{Scheme: "Runner"},
		},
		Reports: config.ReportsConfig{Path: filepath.Join(t.TempDir(), "reports", "run.yaml")},
	}

	lane, err := NewLane(t.Context(), cfg, logger.Test(t))
	require.NoError(t, err)
	assert.Equal(t, []target.Platform{target.Android, target.Web, target.MacOS}, lane.Platforms())

	plan, err := lane.Plan(t.Context(), version.Version{})
	require.NoError(t, err)
	assert.Equal(t, "1.4.3", plan.Stamp.Name())
}

func TestNewLane_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     *config.Config
		wantErr string
	}{
		{
			name: "unknown toolchain",
			cfg: &config.Config{
				Targets: map[string]string{"ios": "gradle"},
			},
			wantErr: `unknown toolchain "gradle"`,
		},
		{
			name: "play store source without credentials",
			cfg: &config.Config{
				Sources: []config.SourceConfig{{Kind: "playstore"}},
			},
			wantErr: "store client not configured",
		},
		{
			name: "unknown report format",
			cfg: &config.Config{
				Reports: config.ReportsConfig{Path: "reports/run.txt"},
			},
			wantErr: "unknown report format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewLane(t.Context(), tt.cfg, logger.Nop())
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}
