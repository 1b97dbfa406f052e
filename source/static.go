package source

import "context"

// Static reports a fixed outcome. It pins a version in configuration and stands in for real
// backends in tests.
type Static struct {
	name string
	raw  string
	err  error
}

var _ Source = (*Static)(nil)

// NewStatic returns a source that always reports raw.
func NewStatic(name, raw string) *Static {
	if name == "" {
		name = string(KindStatic)
	}

	return &Static{name: name, raw: raw}
}

// NewFailing returns a source that always fails with err.
func NewFailing(name string, err error) *Static {
	s := NewStatic(name, "")
	s.err = err
	if s.err == nil {
		s.err = ErrNoVersions
	}

	return s
}

func (s *Static) Name() string { return s.name }

func (s *Static) Kind() Kind { return KindStatic }

// Fetch implements Source.
func (s *Static) Fetch(ctx context.Context, _ Query) Result {
	if err := ctx.Err(); err != nil {
		return Failed(err)
	}
	if s.err != nil {
		return Failed(s.err)
	}

	return Ok(s.raw)
}
