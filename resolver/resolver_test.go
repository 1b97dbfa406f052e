package resolver

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/smartcontractkit/app-release-framework/pkg/logger"
	"github.com/smartcontractkit/app-release-framework/source"
	"github.com/smartcontractkit/app-release-framework/version"
)

// funcSource adapts a function into a source.
type funcSource struct {
	name  string
	fetch func(ctx context.Context, q source.Query) source.Result
}

func (s funcSource) Name() string       { return s.name }
func (s funcSource) Kind() source.Kind  { return source.KindStatic }
func (s funcSource) Fetch(ctx context.Context, q source.Query) source.Result {
	return s.fetch(ctx, q)
}

func TestResolver_Resolve(t *testing.T) {
	t.Parallel()

	boom := errors.New("network unreachable")

	tests := []struct {
		name             string
		sources          []source.Source
		opts             []ResolveOption
		want             string
		wantAuth         bool
		wantFloor        bool
		wantContributors []string
		wantFailures     []string
	}{
		{
			name: "max of successes ignoring failures",
			sources: []source.Source{
				source.NewStatic("a", "1.2.0"),
				source.NewFailing("b", boom),
				source.NewStatic("c", "1.3.1"),
			},
			want:             "1.3.1",
			wantAuth:         true,
			wantContributors: []string{"a", "c"},
			wantFailures:     []string{"b"},
		},
		{
			name: "all sources fail",
			sources: []source.Source{
				source.NewFailing("a", boom),
				source.NewFailing("b", boom),
			},
			want:         "0.0.0",
			wantFailures: []string{"a", "b"},
		},
		{
			name: "no sources",
			want: "0.0.0",
		},
		{
			name: "unparsable answer counts as failure",
			sources: []source.Source{
				source.NewStatic("a", "v1.2"),
				source.NewStatic("b", "1.0"),
			},
			want:             "1.0",
			wantAuth:         true,
			wantContributors: []string{"b"},
			wantFailures:     []string{"a"},
		},
		{
			name: "floor above resolved wins",
			sources: []source.Source{
				source.NewStatic("a", "1.2.0"),
			},
			opts:             []ResolveOption{WithFloor(version.MustParse("2.0.0"))},
			want:             "2.0.0",
			wantAuth:         true,
			wantFloor:        true,
			wantContributors: []string{"a"},
		},
		{
			name: "floor below resolved is ignored",
			sources: []source.Source{
				source.NewStatic("a", "3.0.0"),
			},
			opts:             []ResolveOption{WithFloor(version.MustParse("2.0.0"))},
			want:             "3.0.0",
			wantAuth:         true,
			wantContributors: []string{"a"},
		},
		{
			name:         "floor with every source failing",
			sources:      []source.Source{source.NewFailing("a", boom)},
			opts:         []ResolveOption{WithFloor(version.MustParse("1.0.0"))},
			want:         "1.0.0",
			wantFloor:    true,
			wantFailures: []string{"a"},
		},
		{
			name: "nil source is a failure",
			sources: []source.Source{
				nil,
				source.NewStatic("a", "1.0.0"),
			},
			want:             "1.0.0",
			wantAuth:         true,
			wantContributors: []string{"a"},
			wantFailures:     []string{"<nil>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := New(logger.Test(t))
			got := r.Resolve(t.Context(), source.Query{AppIdentifier: "com.example.app"}, tt.sources, tt.opts...)

			assert.Equal(t, tt.want, got.Version.String())
			assert.Equal(t, tt.wantAuth, got.Authoritative)
			assert.Equal(t, tt.wantFloor, got.FloorApplied)
			assert.Equal(t, tt.wantContributors, got.Contributors)

			var failed []string
			for _, f := range got.Failures {
				require.Error(t, f.Err)
				failed = append(failed, f.Source)
			}
			assert.Equal(t, tt.wantFailures, failed)
			assert.Len(t, got.Outcomes, len(tt.sources))
		})
	}
}

func TestResolver_Resolve_CandidatesAreASet(t *testing.T) {
	t.Parallel()

	sources := []source.Source{
		source.NewStatic("a", "1.2"),
		source.NewStatic("b", "1.2.0"),
		source.NewStatic("c", "1.1.9"),
	}

	got := New(logger.Nop()).Resolve(t.Context(), source.Query{}, sources)
	require.Len(t, got.Candidates, 2)
	assert.True(t, got.Candidates[0].Equal(version.MustParse("1.1.9")))
	assert.True(t, got.Candidates[1].Equal(version.MustParse("1.2.0")))
	assert.True(t, got.Version.Equal(version.MustParse("1.2")))
}

func TestResolver_Resolve_OrderIndependent(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewPCG(21, 42))
	boom := errors.New("boom")
	resolver := New(logger.Nop(), WithConcurrency(3))

	for range 50 {
		n := r.IntN(6) + 1
		sources := make([]source.Source, 0, n)
		var successes []version.Version
		for i := range n {
			if r.IntN(3) == 0 {
				sources = append(sources, source.NewFailing("f", boom))
				continue
			}
			v, err := version.New(uint64(r.IntN(3)), uint64(r.IntN(10)), uint64(r.IntN(10)))
			require.NoError(t, err)
			successes = append(successes, v)
			sources = append(sources, source.NewStatic(string(rune('a'+i)), v.String()))
		}

		want := version.Max(successes...)
		got := resolver.Resolve(t.Context(), source.Query{}, sources)
		assert.True(t, got.Version.Equal(want), "got %s want %s", got.Version, want)
		assert.Equal(t, len(successes) > 0, got.Authoritative)
		for _, c := range got.Candidates {
			assert.False(t, c.GreaterThan(got.Version))
		}

		r.Shuffle(len(sources), func(i, j int) { sources[i], sources[j] = sources[j], sources[i] })
		shuffled := resolver.Resolve(t.Context(), source.Query{}, sources)
		assert.True(t, shuffled.Version.Equal(got.Version))
	}
}

func TestResolver_Resolve_RecoversPanics(t *testing.T) {
	t.Parallel()

	sources := []source.Source{
		funcSource{name: "panics", fetch: func(context.Context, source.Query) source.Result {
			panic("third-party bug")
		}},
		source.NewStatic("ok", "1.0.0"),
	}

	got := New(logger.Nop()).Resolve(t.Context(), source.Query{}, sources)
	assert.Equal(t, "1.0.0", got.Version.String())
	require.Len(t, got.Failures, 1)
	require.ErrorIs(t, got.Failures[0].Err, ErrSourcePanic)
	assert.Contains(t, got.Failures[0].Err.Error(), "third-party bug")
}

func TestResolver_Resolve_SourceTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	sources := []source.Source{
		funcSource{name: "hangs", fetch: func(context.Context, source.Query) source.Result {
			<-release

			return source.Ok("9.9.9")
		}},
		source.NewStatic("ok", "1.0.0"),
	}

	got := New(logger.Nop(), WithSourceTimeout(20*time.Millisecond)).Resolve(t.Context(), source.Query{}, sources)
	assert.Equal(t, "1.0.0", got.Version.String())
	require.Len(t, got.Failures, 1)
	assert.Equal(t, "hangs", got.Failures[0].Source)
	require.ErrorIs(t, got.Failures[0].Err, ErrSourceTimeout)
	require.ErrorIs(t, got.Failures[0].Err, context.DeadlineExceeded)
}

func TestResolver_Resolve_ConcurrencyLimit(t *testing.T) {
	t.Parallel()

	var running, peak atomic.Int32
	src := func(name string) source.Source {
		return funcSource{name: name, fetch: func(context.Context, source.Query) source.Result {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)

			return source.Ok("1.0.0")
		}}
	}

	sources := []source.Source{src("a"), src("b"), src("c"), src("d"), src("e")}
	got := New(logger.Nop(), WithConcurrency(2)).Resolve(t.Context(), source.Query{}, sources)
	assert.True(t, got.Authoritative)
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Len(t, got.Contributors, 5)
}

func TestResolver_Resolve_LogsWithoutCredentials(t *testing.T) {
	t.Parallel()

	lggr, logs := logger.TestObserved(t, zapcore.DebugLevel)
	q := source.Query{AppIdentifier: "com.example.app", Credentials: source.NewCredentials("hunter2")}
	sources := []source.Source{
		source.NewStatic("a", "1.0.0"),
		source.NewFailing("b", errors.New("denied")),
	}

	New(lggr).Resolve(t.Context(), q, sources)

	assert.Equal(t, 1, logs.FilterMessage("Version source answered").Len())
	assert.Equal(t, 1, logs.FilterMessage("Version source failed").Len())
	for _, entry := range logs.All() {
		for k, v := range entry.ContextMap() {
			assert.NotContains(t, k+"="+toString(v), "hunter2")
		}
	}
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}

	return ""
}

func TestResolver_Resolve_PartialAnswerCounts(t *testing.T) {
	t.Parallel()

	lggr, logs := logger.TestObserved(t, zapcore.WarnLevel)
	partial := funcSource{name: "appstore", fetch: func(context.Context, source.Query) source.Result {
		return source.Result{Raw: "1.3.1", Partial: errors.New("platform ios: unauthorized")}
	}}

	res := New(lggr).Resolve(t.Context(), source.Query{AppIdentifier: "com.example.app"},
		[]source.Source{partial, source.NewStatic("pinned", "1.2.0")})

	assert.True(t, res.Authoritative)
	assert.Equal(t, "1.3.1", res.Version.String())
	assert.ElementsMatch(t, []string{"appstore", "pinned"}, res.Contributors)
	assert.Empty(t, res.Failures)
	assert.Equal(t, 1, logs.FilterMessage("Version source answered partially").Len())
}
