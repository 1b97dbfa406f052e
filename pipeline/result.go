package pipeline

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
)

// TargetReport is the outcome of one step of a run.
type TargetReport struct {
	Target  string `json:"target" yaml:"target" toml:"target"`
	Status  Status `json:"status" yaml:"status" toml:"status"`
	Message string `json:"message,omitempty" yaml:"message,omitempty" toml:"message,omitempty"`
	// Err is the underlying failure of a failed or skipped target.
	Err       error     `json:"-" yaml:"-" toml:"-"`
	StartedAt time.Time `json:"startedAt" yaml:"startedAt" toml:"startedAt"`
	EndedAt   time.Time `json:"endedAt" yaml:"endedAt" toml:"endedAt"`
}

// Duration returns how long the target ran.
func (r TargetReport) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.EndedAt.IsZero() {
		return 0
	}

	return r.EndedAt.Sub(r.StartedAt)
}

// Result is the outcome of a pipeline run.
type Result struct {
	ID        string         `json:"id" yaml:"id" toml:"id"`
	Name      string         `json:"name" yaml:"name" toml:"name"`
	State     State          `json:"state" yaml:"state" toml:"state"`
	Reports   []TargetReport `json:"reports" yaml:"reports" toml:"reports"`
	StartedAt time.Time      `json:"startedAt" yaml:"startedAt" toml:"startedAt"`
	EndedAt   time.Time      `json:"endedAt" yaml:"endedAt" toml:"endedAt"`
}

// Succeeded is true when every target succeeded. An empty run succeeds.
func (r *Result) Succeeded() bool {
	for _, rep := range r.Reports {
		if rep.Status != StatusSucceeded {
			return false
		}
	}

	return true
}

// Failed returns the names of failed targets in run order.
func (r *Result) Failed() []string {
	return r.withStatus(StatusFailed)
}

// Skipped returns the names of skipped targets in run order.
func (r *Result) Skipped() []string {
	return r.withStatus(StatusSkipped)
}

// Report returns the report of a target.
func (r *Result) Report(target string) (TargetReport, bool) {
	for _, rep := range r.Reports {
		if rep.Target == target {
			return rep, true
		}
	}

	return TargetReport{}, false
}

// Err returns a *PipelineError naming every target that did not succeed, or nil.
func (r *Result) Err() error {
	var unsuccessful []TargetReport
	var errs error
	for _, rep := range r.Reports {
		if rep.Status == StatusSucceeded {
			continue
		}
		unsuccessful = append(unsuccessful, rep)
		err := rep.Err
		if err == nil {
			err = fmt.Errorf("%s: %s", rep.Target, rep.Status)
		}
		errs = multierr.Append(errs, err)
	}
	if len(unsuccessful) == 0 {
		return nil
	}

	return &PipelineError{Pipeline: r.Name, Targets: unsuccessful, err: errs}
}

func (r *Result) withStatus(s Status) []string {
	var names []string
	for _, rep := range r.Reports {
		if rep.Status == s {
			names = append(names, rep.Target)
		}
	}

	return names
}

// PipelineError is the single terminal error of a run in which some targets did not succeed.
// It wraps every underlying target error.
type PipelineError struct {
	Pipeline string
	// Targets are the failed and skipped targets in run order.
	Targets []TargetReport
	err     error
}

func (e *PipelineError) Error() string {
	var failed, skipped []string
	var details []string
	for _, t := range e.Targets {
		switch t.Status {
		case StatusSkipped:
			skipped = append(skipped, t.Target)
		default:
			failed = append(failed, t.Target)
		}
		details = append(details, fmt.Sprintf("%s: %s", t.Target, t.Message))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s failed for the following targets: [%s]", e.Pipeline, strings.Join(failed, ", "))
	if len(skipped) > 0 {
		fmt.Fprintf(&b, ", skipped: [%s]", strings.Join(skipped, ", "))
	}
	b.WriteString("\n")
	b.WriteString(strings.Join(details, "\n"))

	return b.String()
}

// Unwrap returns every underlying target error.
func (e *PipelineError) Unwrap() []error {
	return multierr.Errors(e.err)
}

// FailedTargets returns the names of the failed targets.
func (e *PipelineError) FailedTargets() []string {
	var names []string
	for _, t := range e.Targets {
		if t.Status == StatusFailed {
			names = append(names, t.Target)
		}
	}

	return names
}
