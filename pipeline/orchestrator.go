// Package pipeline runs the per-target steps of a release in order. A failing target never stops
// the run: every step is attempted, failures are recorded per target and the run ends with a
// single aggregate verdict.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/smartcontractkit/app-release-framework/operations"
	"github.com/smartcontractkit/app-release-framework/pkg/logger"
)

var (
	// ErrInvalidPipeline is returned when the steps cannot form a run.
	ErrInvalidPipeline = errors.New("invalid pipeline")
	// ErrStepPanic wraps a panic raised by a step.
	ErrStepPanic = errors.New("step panicked")
	// ErrPrerequisite is the cause of a skipped step.
	ErrPrerequisite = errors.New("prerequisite did not succeed")
)

// Step is one target of a run.
type Step struct {
	// Name identifies the target, e.g. "ios" or "upload-android".
	Name string
	// Requires names earlier steps that must have succeeded for this step to run.
	Requires []string
	// Run performs the step. The bundle's context is the run context.
	Run func(b operations.Bundle) error
}

// Orchestrator runs steps sequentially with continue-on-error semantics.
type Orchestrator struct {
	lggr     logger.Logger
	reporter operations.Reporter
	now      func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithReporter sets the reporter that receives operation reports and one report per target.
func WithReporter(r operations.Reporter) Option {
	return func(o *Orchestrator) {
		o.reporter = r
	}
}

// New creates an Orchestrator.
func New(lggr logger.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		lggr: lggr.Named("pipeline"),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.reporter == nil {
		o.reporter = operations.NewMemoryReporter()
	}

	return o
}

// Reporter returns the reporter receiving the run reports.
func (o *Orchestrator) Reporter() operations.Reporter {
	return o.reporter
}

// Validate checks that step names are unique and non-empty, and that every prerequisite names
// an earlier step.
func Validate(steps []Step) error {
	seen := make(map[string]bool, len(steps))
	for i, s := range steps {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("%w: step %d has no name", ErrInvalidPipeline, i)
		}
		if seen[s.Name] {
			return fmt.Errorf("%w: duplicate step %q", ErrInvalidPipeline, s.Name)
		}
		if s.Run == nil {
			return fmt.Errorf("%w: step %q has nothing to run", ErrInvalidPipeline, s.Name)
		}
		for _, req := range s.Requires {
			if !seen[req] {
				return fmt.Errorf("%w: step %q requires %q, which does not run before it",
					ErrInvalidPipeline, s.Name, req)
			}
		}
		seen[s.Name] = true
	}

	return nil
}

// Run executes steps in declared order. Every step is attempted unless a prerequisite did not
// succeed, in which case it is skipped. The returned Result is always complete; the error is a
// *PipelineError when any target did not succeed. Invalid steps are rejected before anything
// runs.
func (o *Orchestrator) Run(ctx context.Context, name string, steps []Step) (*Result, error) {
	res := &Result{
		ID:      uuid.New().String(),
		Name:    name,
		State:   StateNotStarted,
		Reports: make([]TargetReport, len(steps)),
	}
	for i, s := range steps {
		res.Reports[i] = TargetReport{Target: s.Name, Status: StatusPending}
	}

	if err := Validate(steps); err != nil {
		return res, err
	}

	lggr := o.lggr.With("pipeline", name, "run", res.ID)
	lggr.Infow("Starting pipeline", "targets", len(steps))
	res.State = StateInProgress
	res.StartedAt = o.now()

	status := make(map[string]Status, len(steps))
	for i, s := range steps {
		rep := &res.Reports[i]
		rep.StartedAt = o.now()

		if blocked := unmet(s.Requires, status); len(blocked) > 0 {
			rep.Status = StatusSkipped
			rep.Err = fmt.Errorf("%s: %w: %s", s.Name, ErrPrerequisite, strings.Join(blocked, ", "))
			rep.Message = fmt.Sprintf("skipped, prerequisite did not succeed: %s", strings.Join(blocked, ", "))
			lggr.Warnw("Skipping target", "target", s.Name, "blockedBy", blocked)
		} else {
			rep.Status = StatusRunning
			lggr.Infow("Running target", "target", s.Name)

			if err := o.runStep(ctx, lggr, s); err != nil {
				rep.Status = StatusFailed
				rep.Err = fmt.Errorf("%s: %w", s.Name, err)
				rep.Message = err.Error()
				lggr.Errorw("Target failed", "target", s.Name, "error", err)
			} else {
				rep.Status = StatusSucceeded
				lggr.Infow("Target succeeded", "target", s.Name)
			}
		}

		rep.EndedAt = o.now()
		status[s.Name] = rep.Status
		o.record(lggr, name, *rep)
	}

	res.State = StateCompleted
	res.EndedAt = o.now()

	err := res.Err()
	if err != nil {
		lggr.Errorw("Pipeline failed", "failed", res.Failed(), "skipped", res.Skipped())
	} else {
		lggr.Infow("Pipeline succeeded")
	}

	return res, err
}

func (o *Orchestrator) runStep(ctx context.Context, lggr logger.Logger, s Step) (err error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("not started: %w", ctxErr)
	}

	defer func() {
		if p := recover(); p != nil {
			lggr.Errorw("Target panicked", "target", s.Name, "panic", p, "stack", string(debug.Stack()))
			err = fmt.Errorf("%w: %v", ErrStepPanic, p)
		}
	}()

	b := operations.NewBundle(func() context.Context { return ctx }, lggr.Named(s.Name), o.reporter)

	return s.Run(b)
}

func (o *Orchestrator) record(lggr logger.Logger, pipeline string, rep TargetReport) {
	def := operations.Definition{ID: pipeline + "/" + rep.Target, Description: "pipeline target"}
	report := operations.NewReport[any, any](def, nil, rep, rep.Err, rep.StartedAt, rep.EndedAt)
	if err := o.reporter.AddReport(report); err != nil {
		lggr.Warnw("Failed to record target report", "target", rep.Target, "error", err)
	}
}

func unmet(requires []string, status map[string]Status) []string {
	var blocked []string
	for _, req := range requires {
		if status[req] != StatusSucceeded {
			blocked = append(blocked, req)
		}
	}
	slices.Sort(blocked)

	return blocked
}

// OperationStep adapts an operation into a step. input is evaluated when the step runs, so it
// may use the output of earlier steps; output, when non-nil, receives the result.
func OperationStep[IN, OUT any](
	name string,
	op *operations.Operation[IN, OUT],
	input func() (IN, error),
	output func(OUT),
	opts ...operations.ExecuteOption,
) Step {
	return Step{
		Name: name,
		Run: func(b operations.Bundle) error {
			in, err := input()
			if err != nil {
				return err
			}
			report, err := operations.ExecuteOperation(b, op, in, opts...)
			if err != nil {
				return err
			}
			if output != nil {
				output(report.Output)
			}

			return nil
		},
	}
}
