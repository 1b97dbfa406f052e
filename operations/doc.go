/*
Package operations provides the runtime for the build and upload steps of a release.

An Operation is a named, versioned unit of work with typed input and output. Executing it
through ExecuteOperation records a Report describing what ran, with which input, what it
produced, when it started and ended, and why it failed.

# Core Components

Operation:
  - Pairs a Definition (ID, semver version, description) with a handler
  - Handlers receive a Bundle carrying the logger and the context of the run

ExecuteOperation:
  - Runs the handler once; there are no retries at this level
  - Converts handler panics into errors wrapping ErrPanic
  - Applies an optional timeout; expiry returns an error wrapping ErrTimeout

Reporter:
  - MemoryReporter keeps reports in memory
  - FileReporter additionally persists every report as JSON, YAML or TOML

# Basic Usage

	op := operations.NewOperation(
		"build-ios", semver.MustParse("1.0.0"), "Builds the iOS archive",
		func(b operations.Bundle, in Stamp) (Artifact, error) { ... },
	)

	bundle := operations.NewBundle(ctx.Context, lggr, operations.NewMemoryReporter())
	report, err := operations.ExecuteOperation(bundle, op, stamp, operations.WithTimeout(30*time.Minute))
*/
package operations
