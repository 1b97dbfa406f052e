// Package source defines the version sources queried during release planning. Each source asks a
// single backend (a store API, a hosted web manifest, local build metadata) for the version that
// is currently published and reports either the raw version string or the reason it could not.
//
// Sources never panic and never return errors across the boundary: every outcome is a Result.
package source

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrNoVersions is returned when a backend answered but had no usable version.
	ErrNoVersions = errors.New("no versions published")
	// ErrUnknownKind is returned for source kinds outside the supported set.
	ErrUnknownKind = errors.New("unknown source kind")
)

// Kind identifies a source variant.
type Kind string

const (
	KindAppStore    Kind = "appstore"
	KindPlayStore   Kind = "playstore"
	KindWebManifest Kind = "web"
	KindPubspec     Kind = "pubspec"
	KindGitTag      Kind = "gittag"
	KindStatic      Kind = "static"
)

var kinds = []Kind{KindAppStore, KindPlayStore, KindWebManifest, KindPubspec, KindGitTag, KindStatic}

// Kinds returns every supported source kind.
func Kinds() []Kind {
	return slices.Clone(kinds)
}

// ParseKind validates a kind name. Matching is case insensitive.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(kinds, k) {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}

	return k, nil
}

func (k Kind) String() string {
	return string(k)
}

// Query is the input of a version lookup.
type Query struct {
	// AppIdentifier is the bundle id or package name, e.g. "com.example.app".
	AppIdentifier string
	// Platform is the target platform tag the lookup is made for, e.g. "ios".
	Platform string
	// Live selects the released version; otherwise pre-release channels are consulted.
	Live bool
	// Credentials is an optional per-query secret, such as a bearer token.
	Credentials Credentials
}

// Result is the outcome of a single lookup: either a raw version string or a failure.
type Result struct {
	// Source is the name of the source that produced the result.
	Source string
	Raw    string
	Err    error
	// Partial holds the errors of sub-queries that failed while others answered, e.g. one Apple
	// sub-platform of an App Store lookup. Raw is still the answer when Partial is set.
	Partial error
}

// Ok returns a successful result.
func Ok(raw string) Result {
	return Result{Raw: raw}
}

// Failed returns a failed result. A nil err is recorded as ErrNoVersions.
func Failed(err error) Result {
	if err == nil {
		err = ErrNoVersions
	}

	return Result{Err: err}
}

// IsOk reports whether the lookup succeeded.
func (r Result) IsOk() bool {
	return r.Err == nil
}

// Source is a backend reporting the currently published version of an app.
type Source interface {
	// Name identifies the source in logs and diagnostics.
	Name() string
	Kind() Kind
	// Fetch queries the backend. Implementations report every failure through Result.
	Fetch(ctx context.Context, q Query) Result
}
