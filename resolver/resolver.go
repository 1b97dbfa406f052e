// Package resolver decides the current published version of an app by querying every configured
// version source and taking the highest version any of them reports. Sources that fail do not
// stop resolution; when none succeeds the baseline version is returned and flagged as not
// authoritative.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/smartcontractkit/app-release-framework/pkg/logger"
	"github.com/smartcontractkit/app-release-framework/source"
	"github.com/smartcontractkit/app-release-framework/version"
)

var (
	// ErrSourcePanic wraps a panic raised by a source.
	ErrSourcePanic = errors.New("version source panicked")
	// ErrSourceTimeout is returned when a source does not answer within the configured timeout.
	ErrSourceTimeout = errors.New("version source timed out")
	// ErrNilSource is recorded for nil entries in the source list.
	ErrNilSource = errors.New("nil version source")
)

// Outcome is the answer of a single source.
type Outcome struct {
	Source string
	Kind   source.Kind
	// Raw is the unparsed answer, empty on failure.
	Raw string
	// Version is the parsed answer; invalid on failure.
	Version  version.Version
	Err      error
	Duration time.Duration
}

// Failure is a source that could not contribute a candidate.
type Failure struct {
	Source string
	Err    error
}

// Resolved is the outcome of a resolution.
type Resolved struct {
	// Version is the highest candidate, raised to the floor when one was given.
	Version version.Version
	// Authoritative is true when at least one source produced a candidate.
	Authoritative bool
	// FloorApplied is true when the floor was greater than every candidate.
	FloorApplied bool
	// Candidates are the distinct versions reported, ascending.
	Candidates []version.Version
	// Contributors are the sources that produced a candidate, in query order.
	Contributors []string
	// Failures are the sources that did not, in query order.
	Failures []Failure
	// Outcomes holds every source answer in query order.
	Outcomes []Outcome
}

// Resolver queries version sources.
type Resolver struct {
	lggr        logger.Logger
	concurrency int
	timeout     time.Duration
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithConcurrency limits how many sources are queried at once. Zero or less means one worker
// per source.
func WithConcurrency(n int) Option {
	return func(r *Resolver) {
		r.concurrency = n
	}
}

// WithSourceTimeout bounds the time each source may take. Zero disables the bound.
func WithSourceTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		r.timeout = d
	}
}

// New creates a Resolver.
func New(lggr logger.Logger, opts ...Option) *Resolver {
	r := &Resolver{lggr: lggr.Named("resolver")}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

type resolveConfig struct {
	floor version.Version
}

// ResolveOption configures a single resolution.
type ResolveOption func(*resolveConfig)

// WithFloor makes the resolution return at least floor.
func WithFloor(floor version.Version) ResolveOption {
	return func(c *resolveConfig) {
		c.floor = floor
	}
}

// Resolve queries every source and returns the highest reported version. Failed sources and
// unparsable answers are recorded in the result and never abort the resolution.
func (r *Resolver) Resolve(ctx context.Context, q source.Query, sources []source.Source, opts ...ResolveOption) Resolved {
	cfg := resolveConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	r.lggr.Infow("Resolving version",
		"app", q.AppIdentifier, "platform", q.Platform, "live", q.Live, "sources", len(sources))

	candidates := version.NewSet()
	outcomes := make([]Outcome, len(sources))

	var g errgroup.Group
	limit := r.concurrency
	if limit <= 0 {
		limit = max(len(sources), 1)
	}
	g.SetLimit(limit)

	for i, s := range sources {
		g.Go(func() error {
			o := r.query(ctx, s, q)
			if o.Err == nil {
				candidates.Add(o.Version)
			}
			outcomes[i] = o

			return nil
		})
	}
	_ = g.Wait()

	res := Resolved{Outcomes: outcomes, Candidates: candidates.Sorted()}
	for _, o := range outcomes {
		if o.Err != nil {
			res.Failures = append(res.Failures, Failure{Source: o.Source, Err: o.Err})
			continue
		}
		res.Contributors = append(res.Contributors, o.Source)
	}

	res.Version = version.Baseline()
	if best, ok := candidates.Max(); ok {
		res.Version = best
		res.Authoritative = true
	}
	if cfg.floor.IsValid() && cfg.floor.GreaterThan(res.Version) {
		res.Version = cfg.floor
		res.FloorApplied = true
	}

	r.lggr.Infow("Resolved version",
		"version", res.Version.String(),
		"authoritative", res.Authoritative,
		"floorApplied", res.FloorApplied,
		"contributors", res.Contributors,
		"failures", len(res.Failures),
	)
	if !res.Authoritative {
		r.lggr.Warnw("No version source answered, falling back to baseline", "version", res.Version.String())
	}

	return res
}

// query runs a single source, converting panics, timeouts and unparsable answers into failures.
func (r *Resolver) query(ctx context.Context, s source.Source, q source.Query) Outcome {
	if s == nil {
		return Outcome{Source: "<nil>", Err: ErrNilSource}
	}

	o := Outcome{Source: s.Name(), Kind: s.Kind()}
	start := time.Now()
	res := r.fetch(ctx, s, q)
	o.Duration = time.Since(start)

	switch {
	case res.Err != nil:
		o.Err = res.Err
	default:
		if res.Partial != nil {
			r.lggr.Warnw("Version source answered partially",
				"source", o.Source, "kind", o.Kind, "error", res.Partial)
		}
		o.Raw = res.Raw
		v, err := version.Parse(res.Raw)
		if err != nil {
			o.Err = err
		} else {
			o.Version = v
		}
	}

	if o.Err != nil {
		r.lggr.Warnw("Version source failed",
			"source", o.Source, "kind", o.Kind, "duration", o.Duration, "error", o.Err)
	} else {
		r.lggr.Infow("Version source answered",
			"source", o.Source, "kind", o.Kind, "version", o.Version.String(), "duration", o.Duration)
	}

	return o
}

func (r *Resolver) fetch(ctx context.Context, s source.Source, q source.Query) source.Result {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	done := make(chan source.Result, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- source.Failed(fmt.Errorf("%w: %v", ErrSourcePanic, p))
			}
		}()
		done <- s.Fetch(ctx, q)
	}()

	select {
	case res := <-done:
		return res
	case <-ctx.Done():
		if r.timeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return source.Failed(fmt.Errorf("%w after %s: %w", ErrSourceTimeout, r.timeout, ctx.Err()))
		}

		return source.Failed(ctx.Err())
	}
}
