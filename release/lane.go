// Package release wires version resolution and the per-target operations into the build, upload
// and release runs of an app.
package release

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/smartcontractkit/app-release-framework/artifact"
	"github.com/smartcontractkit/app-release-framework/operations"
	"github.com/smartcontractkit/app-release-framework/pipeline"
	"github.com/smartcontractkit/app-release-framework/pkg/logger"
	"github.com/smartcontractkit/app-release-framework/resolver"
	"github.com/smartcontractkit/app-release-framework/source"
	"github.com/smartcontractkit/app-release-framework/target"
	"github.com/smartcontractkit/app-release-framework/toolchain"
	"github.com/smartcontractkit/app-release-framework/version"
)

// Pipeline names.
const (
	PipelineBuild   = "build"
	PipelineUpload  = "upload"
	PipelineRelease = "release"
)

// ErrNoTargets is returned when a run selects no target.
var ErrNoTargets = errors.New("no targets selected")

// Target binds a platform to the toolchain that builds it and the uploader that ships it.
type Target struct {
	Platform  target.Platform
	Toolchain target.Toolchain
	// Uploader may be nil, in which case uploads of the target fail as unsupported.
	Uploader target.Uploader
}

// Deps are the collaborators of a Lane.
type Deps struct {
	Resolver     *resolver.Resolver
	Sources      []source.Source
	Query        source.Query
	Executor     toolchain.Executor
	Finder       *artifact.Finder
	Orchestrator *pipeline.Orchestrator
	Targets      []Target
}

// Lane runs the release pipelines of one app.
type Lane struct {
	lggr          logger.Logger
	deps          Deps
	targets       map[target.Platform]Target
	buildTimeout  time.Duration
	uploadTimeout time.Duration
	uploadOpts    []target.UploadOption
}

// Option configures a Lane.
type Option func(*Lane)

// WithBuildTimeout bounds each build operation. Zero disables the bound.
func WithBuildTimeout(d time.Duration) Option {
	return func(l *Lane) {
		l.buildTimeout = d
	}
}

// WithUploadTimeout bounds each upload operation, retries included. Zero disables the bound.
func WithUploadTimeout(d time.Duration) Option {
	return func(l *Lane) {
		l.uploadTimeout = d
	}
}

// WithUploadOptions configures every upload operation, e.g. its retry policy.
func WithUploadOptions(opts ...target.UploadOption) Option {
	return func(l *Lane) {
		l.uploadOpts = append(l.uploadOpts, opts...)
	}
}

// New creates a Lane.
func New(lggr logger.Logger, deps Deps, opts ...Option) (*Lane, error) {
	if deps.Resolver == nil {
		return nil, errors.New("release lane requires a resolver")
	}
	if deps.Executor == nil {
		return nil, errors.New("release lane requires a toolchain executor")
	}
	if deps.Finder == nil {
		deps.Finder = artifact.NewFinder(nil)
	}
	if deps.Orchestrator == nil {
		deps.Orchestrator = pipeline.New(lggr)
	}

	l := &Lane{
		lggr:    lggr.Named("release"),
		deps:    deps,
		targets: make(map[target.Platform]Target, len(deps.Targets)),
	}
	for _, t := range deps.Targets {
		if t.Toolchain == nil {
			return nil, fmt.Errorf("target %s has no toolchain", t.Platform)
		}
		if !t.Toolchain.Supports(t.Platform) {
			return nil, fmt.Errorf("%w: toolchain %s cannot build %s", target.ErrUnsupported, t.Toolchain.Name(), t.Platform)
		}
		l.targets[t.Platform] = t
	}
	for _, opt := range opts {
		opt(l)
	}

	return l, nil
}

// Platforms returns the configured platforms in canonical order.
func (l *Lane) Platforms() []target.Platform {
	var ps []target.Platform
	for _, p := range target.Platforms() {
		if _, ok := l.targets[p]; ok {
			ps = append(ps, p)
		}
	}

	return ps
}

// Plan is the version decision for a build.
type Plan struct {
	Resolved resolver.Resolved
	// Version is the version the build is stamped with.
	Version version.Version
	Stamp   target.Stamp
}

// Plan resolves the published version once and derives the version of the next build: the
// patch increment of the highest published version, or the requested version when it is higher.
// A zero requested version means none.
func (l *Lane) Plan(ctx context.Context, requested version.Version) (Plan, error) {
	resolved := l.deps.Resolver.Resolve(ctx, l.deps.Query, l.deps.Sources, resolver.WithFloor(requested))

	next := resolved.Version.Next()
	if resolved.FloorApplied {
		next = resolved.Version
	}
	stamp, err := target.NewStamp(next)
	if err != nil {
		return Plan{}, fmt.Errorf("failed to stamp version %s: %w", next, err)
	}
	l.lggr.Infow("Planned release version",
		"published", resolved.Version.String(), "version", stamp.Name(), "buildNumber", stamp.BuildNumber)

	return Plan{Resolved: resolved, Version: next, Stamp: stamp}, nil
}

// Outcome is the result of a run.
type Outcome struct {
	// Plan is nil for upload runs, which do not stamp anything.
	Plan      *Plan
	Result    *pipeline.Result
	Artifacts map[target.Platform]target.Artifact
	Receipts  map[target.Platform]target.Receipt
}

func newOutcome(plan *Plan) *Outcome {
	return &Outcome{
		Plan:      plan,
		Artifacts: make(map[target.Platform]target.Artifact),
		Receipts:  make(map[target.Platform]target.Receipt),
	}
}

// Build builds the selected platforms, stamped per Plan. The error is a *pipeline.PipelineError
// when any target failed; the outcome is complete either way.
func (l *Lane) Build(ctx context.Context, platforms []target.Platform, requested version.Version) (*Outcome, error) {
	ts, err := l.selectTargets(platforms)
	if err != nil {
		return nil, err
	}
	plan, err := l.Plan(ctx, requested)
	if err != nil {
		return nil, err
	}

	out := newOutcome(&plan)
	steps := make([]pipeline.Step, 0, len(ts))
	for _, t := range ts {
		steps = append(steps, l.buildStep(t.Platform.String(), t, plan.Stamp, out))
	}

	return l.run(ctx, PipelineBuild, steps, out)
}

// Upload uploads the artifacts previous builds left for the selected platforms.
func (l *Lane) Upload(ctx context.Context, platforms []target.Platform) (*Outcome, error) {
	ts, err := l.selectTargets(platforms)
	if err != nil {
		return nil, err
	}

	out := newOutcome(nil)
	steps := make([]pipeline.Step, 0, len(ts))
	for _, t := range ts {
		steps = append(steps, pipeline.Step{
			Name: t.Platform.String(),
			Run: func(b operations.Bundle) error {
				a, err := target.Locate(t.Platform, t.Toolchain, l.deps.Finder)
				if err != nil {
					return err
				}
				out.Artifacts[t.Platform] = a

				return l.upload(b, t, a, out)
			},
		})
	}

	return l.run(ctx, PipelineUpload, steps, out)
}

// Release builds every selected platform and then uploads each one whose build succeeded. Uploads
// of failed builds are skipped.
func (l *Lane) Release(ctx context.Context, platforms []target.Platform, requested version.Version) (*Outcome, error) {
	ts, err := l.selectTargets(platforms)
	if err != nil {
		return nil, err
	}
	plan, err := l.Plan(ctx, requested)
	if err != nil {
		return nil, err
	}

	out := newOutcome(&plan)
	steps := make([]pipeline.Step, 0, 2*len(ts))
	for _, t := range ts {
		steps = append(steps, l.buildStep(t.Platform.BuildStep(), t, plan.Stamp, out))
	}
	for _, t := range ts {
		steps = append(steps, pipeline.Step{
			Name:     t.Platform.UploadStep(),
			Requires: []string{t.Platform.BuildStep()},
			Run: func(b operations.Bundle) error {
				return l.upload(b, t, out.Artifacts[t.Platform], out)
			},
		})
	}

	return l.run(ctx, PipelineRelease, steps, out)
}

func (l *Lane) buildStep(name string, t Target, stamp target.Stamp, out *Outcome) pipeline.Step {
	op := target.NewBuildOperation(t.Platform, t.Toolchain, l.deps.Executor, l.deps.Finder)

	return pipeline.Step{
		Name: name,
		Run: func(b operations.Bundle) error {
			a, err := target.Execute(b, t.Platform.String(), op, stamp, target.KindToolchain,
				operations.WithTimeout(l.buildTimeout))
			if err != nil {
				return err
			}
			out.Artifacts[t.Platform] = a

			return nil
		},
	}
}

func (l *Lane) upload(b operations.Bundle, t Target, a target.Artifact, out *Outcome) error {
	op := target.NewUploadOperation(t.Platform, t.Uploader, l.uploadOpts...)
	r, err := target.Execute(b, t.Platform.String(), op, a, target.KindUploadRejected,
		operations.WithTimeout(l.uploadTimeout))
	if err != nil {
		return err
	}
	out.Receipts[t.Platform] = r

	return nil
}

func (l *Lane) run(ctx context.Context, name string, steps []pipeline.Step, out *Outcome) (*Outcome, error) {
	res, err := l.deps.Orchestrator.Run(ctx, name, steps)
	out.Result = res

	return out, err
}

// selectTargets returns the configured targets of platforms in canonical order. An empty
// selection means every configured target.
func (l *Lane) selectTargets(platforms []target.Platform) ([]Target, error) {
	if len(platforms) == 0 {
		platforms = l.Platforms()
	}
	if len(platforms) == 0 {
		return nil, ErrNoTargets
	}

	var ts []Target
	for _, p := range target.Platforms() {
		if !slices.Contains(platforms, p) {
			continue
		}
		t, ok := l.targets[p]
		if !ok {
			return nil, fmt.Errorf("target %s is not configured", p)
		}
		ts = append(ts, t)
	}
	for _, p := range platforms {
		if !slices.Contains(target.Platforms(), p) {
			return nil, fmt.Errorf("unknown platform %q", p)
		}
	}

	return ts, nil
}
