package operations

import (
	"context"

	"github.com/Masterminds/semver/v3"

	"github.com/smartcontractkit/app-release-framework/pkg/logger"
)

// Bundle contains the dependencies passed to every operation handler: the logger, the context
// of the run and the reporter receiving execution reports. Use NewBundle to create one.
type Bundle struct {
	Logger     logger.Logger
	GetContext func() context.Context
	reporter   Reporter
}

// NewBundle creates and returns a new Bundle. A nil reporter is replaced by a MemoryReporter.
func NewBundle(getContext func() context.Context, lggr logger.Logger, reporter Reporter) Bundle {
	if reporter == nil {
		reporter = NewMemoryReporter()
	}

	return Bundle{
		Logger:     lggr,
		GetContext: getContext,
		reporter:   reporter,
	}
}

// Reporter returns the reporter receiving the bundle's execution reports.
func (b Bundle) Reporter() Reporter {
	return b.reporter
}

// withContext returns a copy of b whose GetContext returns ctx.
func (b Bundle) withContext(ctx context.Context) Bundle {
	b.GetContext = func() context.Context { return ctx }

	return b
}

// Handler is the function signature of an operation handler.
type Handler[IN, OUT any] func(b Bundle, input IN) (output OUT, err error)

// Definition is the metadata of an operation.
type Definition struct {
	ID          string          `json:"id" yaml:"id" toml:"id"`
	Version     *semver.Version `json:"version" yaml:"version" toml:"version,omitempty"`
	Description string          `json:"description" yaml:"description" toml:"description"`
}

// Operation is a named and versioned step of a release, such as building the iOS archive or
// uploading the Android bundle. Use NewOperation to create one.
type Operation[IN, OUT any] struct {
	def     Definition
	handler Handler[IN, OUT]
}

// ID returns the operation ID.
func (o *Operation[IN, OUT]) ID() string {
	return o.def.ID
}

// Version returns the operation semver version in string.
func (o *Operation[IN, OUT]) Version() string {
	if o.def.Version == nil {
		return ""
	}

	return o.def.Version.String()
}

// Description returns the operation description.
func (o *Operation[IN, OUT]) Description() string {
	return o.def.Description
}

// Def returns the operation definition.
func (o *Operation[IN, OUT]) Def() Definition {
	return o.def
}

func (o *Operation[IN, OUT]) execute(b Bundle, input IN) (OUT, error) {
	b.Logger.Infow("Executing operation",
		"id", o.def.ID, "version", o.Version(), "description", o.def.Description)

	return o.handler(b, input)
}

// NewOperation creates a new operation.
// Version can be created using semver.MustParse("1.0.0") or semver.New("1.0.0").
func NewOperation[IN, OUT any](
	id string, version *semver.Version, description string, handler Handler[IN, OUT],
) *Operation[IN, OUT] {
	return &Operation[IN, OUT]{
		def: Definition{
			ID:          id,
			Version:     version,
			Description: description,
		},
		handler: handler,
	}
}

// EmptyInput is a placeholder for operations that do not require input.
type EmptyInput struct{}
