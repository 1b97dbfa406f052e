package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestConfig_New(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config Config
	}{
		{name: "json", config: Config{Level: zapcore.InfoLevel, Format: FormatJSON}},
		{name: "console", config: Config{Level: zapcore.DebugLevel, Format: FormatConsole}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			lggr, err := tt.config.New()
			require.NoError(t, err)
			require.NotNil(t, lggr)
		})
	}
}

func TestLogger_Named(t *testing.T) {
	t.Parallel()

	lggr, logs := TestObserved(t, zapcore.InfoLevel)
	child := lggr.Named("resolver")
	assert.Equal(t, "resolver", child.Name())

	child.Infow("resolved", "version", "1.2.3")
	child.Debugw("not observed")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "resolved", entries[0].Message)
	assert.Equal(t, "resolver", entries[0].LoggerName)
	assert.Equal(t, "1.2.3", entries[0].ContextMap()["version"])
}

func TestNop(t *testing.T) {
	t.Parallel()

	lggr := Nop()
	lggr.Errorw("ignored", "k", "v")
	assert.Empty(t, lggr.Name())
}

func TestLogger_With(t *testing.T) {
	t.Parallel()

	lggr, logs := TestObserved(t, zapcore.InfoLevel)
	lggr.With("pipeline", "build").Infow("started", "targets", 3)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "build", entries[0].ContextMap()["pipeline"])
	assert.EqualValues(t, 3, entries[0].ContextMap()["targets"])
}
