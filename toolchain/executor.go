// Package toolchain is the boundary to external build and upload tools such as flutter,
// xcodebuild and xcrun. Every invocation goes through an Executor, which reports the combined
// stdout and stderr of the tool and treats any non-zero exit as a failure.
package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/smartcontractkit/app-release-framework/pkg/logger"
)

// redacted replaces secret values when a command is rendered.
const redacted = "[redacted]"

// outputTailLines is the number of trailing output lines kept in ExitError messages.
const outputTailLines = 20

// defaultWaitDelay bounds how long Execute waits for the output pipes to close once the process
// group has been killed.
const defaultWaitDelay = 10 * time.Second

// Command describes a single external tool invocation.
type Command struct {
	// Name is the program to run, resolved through PATH.
	Name string
	// Args are passed to the program verbatim.
	Args []string
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// Env is appended to the current process environment.
	Env map[string]string
	// Secrets are values that must never appear in logs or errors.
	Secrets []string
}

// String renders the command line with secrets replaced.
func (c Command) String() string {
	line := strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
	for _, s := range c.Secrets {
		if s != "" {
			line = strings.ReplaceAll(line, s, redacted)
		}
	}

	return line
}

// Result is the outcome of a command that ran to completion.
type Result struct {
	// Output holds the interleaved stdout and stderr of the command.
	Output   string
	ExitCode int
	Duration time.Duration
}

// ExitError is returned when a command exits with a non-zero status or cannot be started.
type ExitError struct {
	Command  string
	ExitCode int
	Output   string
	Err      error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("command %q failed with exit code %d", e.Command, e.ExitCode)
	if e.Err != nil && e.ExitCode < 0 {
		msg = fmt.Sprintf("command %q failed: %v", e.Command, e.Err)
	}
	if tail := Tail(e.Output, outputTailLines); tail != "" {
		msg += "\n" + tail
	}

	return msg
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Executor runs external commands.
type Executor interface {
	// Execute runs cmd and returns its combined output. Any non-zero exit status is returned as
	// an *ExitError; cancellation of ctx kills the process and the children it started.
	Execute(ctx context.Context, cmd Command) (Result, error)
}

// OSExecutor runs commands as child processes.
type OSExecutor struct {
	lggr logger.Logger
	// stream, when set, receives the command output while it runs.
	stream    io.Writer
	waitDelay time.Duration
}

// OSExecutorOption configures an OSExecutor.
type OSExecutorOption func(*OSExecutor)

// WithStream mirrors command output to w while the command runs.
func WithStream(w io.Writer) OSExecutorOption {
	return func(e *OSExecutor) {
		e.stream = w
	}
}

// WithWaitDelay sets how long a cancelled command may keep its output open before Execute
// returns anyway.
func WithWaitDelay(d time.Duration) OSExecutorOption {
	return func(e *OSExecutor) {
		e.waitDelay = d
	}
}

// NewOSExecutor creates an Executor backed by os/exec.
func NewOSExecutor(lggr logger.Logger, opts ...OSExecutorOption) *OSExecutor {
	e := &OSExecutor{lggr: lggr, waitDelay: defaultWaitDelay}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Execute implements Executor.
func (e *OSExecutor) Execute(ctx context.Context, c Command) (Result, error) {
	if c.Name == "" {
		return Result{}, &ExitError{ExitCode: -1, Err: errors.New("command name is empty")}
	}

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	// cancellation kills the whole process group, so tools that fork (gradle daemons, xcodebuild
	// helpers) do not survive the release
	setProcessGroup(cmd)
	cmd.WaitDelay = e.waitDelay
	if len(c.Env) > 0 {
		cmd.Env = os.Environ()
		keys := make([]string, 0, len(c.Env))
		for k := range c.Env {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			cmd.Env = append(cmd.Env, k+"="+c.Env[k])
		}
	}

	var combined bytes.Buffer
	var out io.Writer = &combined
	if e.stream != nil {
		out = io.MultiWriter(&combined, e.stream)
	}
	cmd.Stdout = out
	cmd.Stderr = out

	line := c.String()
	e.lggr.Debugw("Running command", "command", line, "dir", c.Dir)

	start := time.Now()
	err := cmd.Run()
	result := Result{
		Output:   redact(combined.String(), c.Secrets),
		Duration: time.Since(start),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}

		return result, &ExitError{Command: line, ExitCode: result.ExitCode, Output: result.Output, Err: err}
	}

	e.lggr.Debugw("Command finished", "command", line, "duration", result.Duration)

	return result, nil
}

// Tail returns the last n non-empty-trailing lines of s.
func Tail(s string, n int) string {
	s = strings.TrimRight(s, "\n")
	if s == "" || n <= 0 {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}

	return strings.Join(lines, "\n")
}

func redact(s string, secrets []string) string {
	for _, secret := range secrets {
		if secret != "" {
			s = strings.ReplaceAll(s, secret, redacted)
		}
	}

	return s
}
