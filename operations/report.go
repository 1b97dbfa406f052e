package operations

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Report is the result of an operation.
// It contains the input and other metadata that was used to execute the operation.
type Report[IN, OUT any] struct {
	ID        string       `json:"id" yaml:"id" toml:"id"`
	Def       Definition   `json:"definition" yaml:"definition" toml:"definition"`
	Input     IN           `json:"input" yaml:"input" toml:"input,omitempty"`
	Output    OUT          `json:"output" yaml:"output" toml:"output,omitempty"`
	StartedAt time.Time    `json:"startedAt" yaml:"startedAt" toml:"startedAt"`
	EndedAt   time.Time    `json:"endedAt" yaml:"endedAt" toml:"endedAt"`
	Err       *ReportError `json:"error,omitempty" yaml:"error,omitempty" toml:"error,omitempty"`
}

// Duration returns how long the operation ran.
func (r Report[IN, OUT]) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// ToGenericReport converts the Report to a generic Report.
func (r Report[IN, OUT]) ToGenericReport() Report[any, any] {
	return genericReport(r)
}

// NewReport creates a new report with a fresh ID.
func NewReport[IN, OUT any](
	def Definition, input IN, output OUT, err error, startedAt, endedAt time.Time,
) Report[IN, OUT] {
	r := Report[IN, OUT]{
		ID:        uuid.New().String(),
		Def:       def,
		Input:     input,
		Output:    output,
		StartedAt: startedAt,
		EndedAt:   endedAt,
	}
	if err != nil {
		r.Err = &ReportError{Message: err.Error()}
	}

	return r
}

// ReportError represents an error in the Report.
// Its purpose is to have an exported field `Message` for marshalling as the
// native error cant be marshaled.
type ReportError struct {
	Message string `json:"message" yaml:"message" toml:"message"`
}

// Error implements the error interface.
func (o ReportError) Error() string {
	return o.Message
}

var ErrReportNotFound = errors.New("report not found")

// Reporter manages reports. It can store them in memory, in the FS, etc.
type Reporter interface {
	GetReport(id string) (Report[any, any], error)
	GetReports() ([]Report[any, any], error)
	AddReport(report Report[any, any]) error
}

// MemoryReporter stores reports in memory.
// This is thread-safe and can be used in a multi-threaded environment.
type MemoryReporter struct {
	reports []Report[any, any]
	mu      sync.RWMutex
}

type MemoryReporterOption func(*MemoryReporter)

// WithReports is an option to initialize the MemoryReporter with a list of reports.
func WithReports(reports []Report[any, any]) MemoryReporterOption {
	return func(mr *MemoryReporter) {
		mr.reports = reports
	}
}

// NewMemoryReporter creates a new MemoryReporter.
// It can be initialized with a list of reports using the WithReports option.
func NewMemoryReporter(options ...MemoryReporterOption) *MemoryReporter {
	reporter := &MemoryReporter{}
	for _, opt := range options {
		opt(reporter)
	}

	return reporter
}

// AddReport adds a report to the memory reporter.
func (e *MemoryReporter) AddReport(report Report[any, any]) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.reports = append(e.reports, report)

	return nil
}

// GetReports returns all reports in the order they were added.
func (e *MemoryReporter) GetReports() ([]Report[any, any], error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	reports := make([]Report[any, any], len(e.reports))
	copy(reports, e.reports)

	return reports, nil
}

// GetReport returns a report by ID.
// Returns ErrReportNotFound if the report is not found.
func (e *MemoryReporter) GetReport(id string) (Report[any, any], error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, report := range e.reports {
		if report.ID == id {
			return report, nil
		}
	}

	return Report[any, any]{}, fmt.Errorf("report_id %s: %w", id, ErrReportNotFound)
}

func genericReport[IN, OUT any](r Report[IN, OUT]) Report[any, any] {
	return Report[any, any]{
		ID:        r.ID,
		Def:       r.Def,
		Input:     r.Input,
		Output:    r.Output,
		StartedAt: r.StartedAt,
		EndedAt:   r.EndedAt,
		Err:       r.Err,
	}
}
