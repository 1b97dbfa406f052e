// Package version implements the dotted numeric version used to compare releases across
// distribution backends, together with the build number and version code encodings that the
// stores require.
//
// A Version has any positive number of non-negative integer components. Versions compare
// lexicographically with missing trailing components treated as zero, so "1.2" and "1.2.0" are
// equal.
package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrEmpty is returned when parsing an empty version string.
	ErrEmpty = errors.New("version string is empty")
	// ErrNotNumeric is returned when a version component is not a base-10 non-negative integer.
	ErrNotNumeric = errors.New("version component is not numeric")
)

// ParseError describes a version string that could not be parsed.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse version %q: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Version is an immutable dotted numeric version. The zero value has no components and is not a
// valid version; use Parse or Baseline.
type Version struct {
	components []uint64
}

// Parse parses a dotted numeric version such as "1.2.3". The input must be exactly the version:
// whitespace anywhere, including around it, is ErrNotNumeric. Callers reading versions from
// files or responses trim them first.
func Parse(s string) (Version, error) {
	if s == "" {
		return Version{}, &ParseError{Input: s, Err: ErrEmpty}
	}

	parts := strings.Split(s, ".")
	components := make([]uint64, 0, len(parts))
	for _, p := range parts {
		if !isDigits(p) {
			return Version{}, &ParseError{Input: s, Err: ErrNotNumeric}
		}
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return Version{}, &ParseError{Input: s, Err: fmt.Errorf("%w: %w", ErrNotNumeric, err)}
		}
		components = append(components, n)
	}

	return Version{components: components}, nil
}

// MustParse is like Parse but panics if the string cannot be parsed.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}

	return v
}

// New creates a Version from its components. At least one component is required.
func New(components ...uint64) (Version, error) {
	if len(components) == 0 {
		return Version{}, &ParseError{Err: ErrEmpty}
	}

	return Version{components: append([]uint64(nil), components...)}, nil
}

// Baseline returns 0.0.0, the version used whenever no real version is available. It sorts below
// every version with at least one positive component.
func Baseline() Version {
	return Version{components: []uint64{0, 0, 0}}
}

// IsValid reports whether v was constructed by Parse, New or Baseline.
func (v Version) IsValid() bool {
	return len(v.components) > 0
}

// Components returns a copy of the version components.
func (v Version) Components() []uint64 {
	return append([]uint64(nil), v.components...)
}

// Len returns the number of stored components.
func (v Version) Len() int {
	return len(v.components)
}

// Component returns the i-th component, or zero when v has fewer components.
func (v Version) Component(i int) uint64 {
	if i < 0 || i >= len(v.components) {
		return 0
	}

	return v.components[i]
}

// String renders the stored components joined by dots.
func (v Version) String() string {
	parts := make([]string, len(v.components))
	for i, c := range v.components {
		parts[i] = strconv.FormatUint(c, 10)
	}

	return strings.Join(parts, ".")
}

// MarshalText implements encoding.TextMarshaler.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*v = parsed

	return nil
}

// Compare returns -1, 0 or 1 when v is less than, equal to or greater than o. The shorter
// version is padded with zeros.
func (v Version) Compare(o Version) int {
	n := max(len(v.components), len(o.components))
	for i := range n {
		a, b := v.Component(i), o.Component(i)
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
	}

	return 0
}

// Compare is the function form of Version.Compare, usable with slices.SortFunc.
func Compare(a, b Version) int {
	return a.Compare(b)
}

// Equal reports whether v and o compare equal.
func (v Version) Equal(o Version) bool { return v.Compare(o) == 0 }

// LessThan reports whether v sorts before o.
func (v Version) LessThan(o Version) bool { return v.Compare(o) < 0 }

// GreaterThan reports whether v sorts after o.
func (v Version) GreaterThan(o Version) bool { return v.Compare(o) > 0 }

// Next returns the version with its patch (third) component incremented. Versions with fewer than
// three components are padded first and components after the patch are reset to zero.
func (v Version) Next() Version {
	n := max(len(v.components), 3)
	next := make([]uint64, n)
	copy(next, v.components)
	next[2]++
	for i := 3; i < n; i++ {
		next[i] = 0
	}

	return Version{components: next}
}

// Max returns the greatest of vs, or Baseline when vs is empty. Invalid versions are ignored.
func Max(vs ...Version) Version {
	var best Version
	for _, v := range vs {
		if !v.IsValid() {
			continue
		}
		if !best.IsValid() || v.GreaterThan(best) {
			best = v
		}
	}
	if !best.IsValid() {
		return Baseline()
	}

	return best
}

// canonical returns the components without trailing zeros; equal versions share it.
func (v Version) canonical() string {
	end := len(v.components)
	for end > 1 && v.components[end-1] == 0 {
		end--
	}

	return Version{components: v.components[:end]}.String()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
