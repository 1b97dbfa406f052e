package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// DefaultPubspecPath is the Flutter project manifest read when no path is configured.
const DefaultPubspecPath = "pubspec.yaml"

// Pubspec reads the version declared in a Flutter pubspec.yaml. The "+build" suffix is dropped,
// so "1.4.2+17" reports 1.4.2.
type Pubspec struct {
	name string
	fs   afero.Fs
	path string
}

var _ Source = (*Pubspec)(nil)

// NewPubspec creates a pubspec source reading path from fs. A nil fs means the OS filesystem.
func NewPubspec(name string, fs afero.Fs, path string) *Pubspec {
	if name == "" {
		name = string(KindPubspec)
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if path == "" {
		path = DefaultPubspecPath
	}

	return &Pubspec{name: name, fs: fs, path: path}
}

func (s *Pubspec) Name() string { return s.name }

func (s *Pubspec) Kind() Kind { return KindPubspec }

// Fetch implements Source.
func (s *Pubspec) Fetch(_ context.Context, _ Query) Result {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return Failed(fmt.Errorf("read %s: %w", s.path, err))
	}

	var pubspec struct {
		Version string `yaml:"version"`
	}
	if err := yaml.Unmarshal(data, &pubspec); err != nil {
		return Failed(fmt.Errorf("parse %s: %w", s.path, err))
	}

	raw, _, _ := strings.Cut(pubspec.Version, "+")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Failed(fmt.Errorf("%w: %s declares no version", ErrNoVersions, s.path))
	}

	return Ok(raw)
}
