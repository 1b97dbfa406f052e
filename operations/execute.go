package operations

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/smartcontractkit/app-release-framework/pkg/logger"
)

var (
	// ErrTimeout is returned when an operation does not finish within its timeout.
	ErrTimeout = errors.New("operation timed out")
	// ErrPanic is returned when an operation handler panics.
	ErrPanic = errors.New("operation panicked")
)

type executeConfig struct {
	timeout time.Duration
}

// ExecuteOption configures ExecuteOperation.
type ExecuteOption func(*executeConfig)

// WithTimeout bounds the execution time of the operation. The handler's context is cancelled
// at the deadline and, once the handler has stopped, the execution fails with ErrTimeout. Zero
// disables the bound.
func WithTimeout(d time.Duration) ExecuteOption {
	return func(c *executeConfig) {
		c.timeout = d
	}
}

type outcome[OUT any] struct {
	output OUT
	err    error
}

// ExecuteOperation runs an operation once with the given input and records a Report in the
// bundle's reporter.
//
// Panics raised by the handler are recovered and returned as errors wrapping ErrPanic. When the
// context is done before the handler returns, ExecuteOperation still waits for the handler to
// stop, so no work of this operation outlives the call; the error wraps the context error, and
// ErrTimeout when the operation's own timeout expired.
//
// The returned error is the handler error. A report that cannot be recorded is logged and never
// changes the outcome of the operation.
func ExecuteOperation[IN, OUT any](
	b Bundle,
	operation *Operation[IN, OUT],
	input IN,
	opts ...ExecuteOption,
) (Report[IN, OUT], error) {
	cfg := executeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx := context.Background()
	if b.GetContext != nil {
		ctx = b.GetContext()
	}
	if cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}
	b = b.withContext(ctx)
	if b.Logger == nil {
		b.Logger = logger.Nop()
	}
	if b.reporter == nil {
		b.reporter = NewMemoryReporter()
	}

	startedAt := time.Now()
	done := make(chan outcome[OUT], 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				b.Logger.Errorw("Operation panicked",
					"id", operation.def.ID, "panic", p, "stack", string(debug.Stack()))
				done <- outcome[OUT]{err: fmt.Errorf("%w: %v", ErrPanic, p)}
			}
		}()
		output, err := operation.execute(b, input)
		done <- outcome[OUT]{output: output, err: err}
	}()

	var res outcome[OUT]
	select {
	case res = <-done:
	case <-ctx.Done():
		// prefer a result that raced with the deadline
		select {
		case res = <-done:
		default:
			b.Logger.Warnw("Operation context done, waiting for the handler to stop",
				"id", operation.def.ID, "error", ctx.Err())
			res = <-done
			res.err = interrupted(ctx.Err(), cfg.timeout, res.err)
		}
	}

	report := NewReport(operation.def, input, res.output, res.err, startedAt, time.Now())
	if err := b.reporter.AddReport(genericReport(report)); err != nil {
		b.Logger.Warnw("Failed to record operation report", "id", operation.def.ID, "error", err)
	}

	if res.err != nil {
		b.Logger.Errorw("Operation failed",
			"id", operation.def.ID, "duration", report.Duration(), "error", res.err)

		return report, res.err
	}
	b.Logger.Infow("Operation completed", "id", operation.def.ID, "duration", report.Duration())

	return report, nil
}

// interrupted is the error of a handler that was still running when its context ended.
func interrupted(ctxErr error, timeout time.Duration, handlerErr error) error {
	err := ctxErr
	if errors.Is(ctxErr, context.DeadlineExceeded) && timeout > 0 {
		err = fmt.Errorf("%w after %s: %w", ErrTimeout, timeout, ctxErr)
	}
	if handlerErr != nil && !errors.Is(handlerErr, ctxErr) {
		err = fmt.Errorf("%w: %w", err, handlerErr)
	}

	return err
}
