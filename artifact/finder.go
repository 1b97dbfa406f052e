// Package artifact locates the files produced by a build.
package artifact

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// ErrNotFound is returned when no file matches the requested pattern.
var ErrNotFound = errors.New("artifact not found")

// Finder discovers build artifacts on a filesystem.
type Finder struct {
	fs afero.Fs
}

// NewFinder returns a Finder reading from fs. A nil fs means the OS filesystem.
func NewFinder(fs afero.Fs) *Finder {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	return &Finder{fs: fs}
}

// Fs returns the filesystem the finder reads from.
func (f *Finder) Fs() afero.Fs {
	return f.fs
}

// FindLatest returns the most recently modified path in dir matching pattern. An empty pattern
// matches dir itself, which must exist. Ties on modification time resolve to the lexically last
// path so the result is deterministic.
func (f *Finder) FindLatest(dir, pattern string) (string, error) {
	if pattern == "" {
		if _, err := f.fs.Stat(dir); err != nil {
			return "", fmt.Errorf("%w: %s: %w", ErrNotFound, dir, err)
		}

		return dir, nil
	}

	glob := filepath.Join(dir, pattern)
	matches, err := afero.Glob(f.fs, glob)
	if err != nil {
		return "", fmt.Errorf("glob %s: %w", glob, err)
	}

	var (
		latest   string
		latestAt int64
	)
	for _, m := range matches {
		info, err := f.fs.Stat(m)
		if err != nil {
			continue
		}
		at := info.ModTime().UnixNano()
		if latest == "" || at > latestAt || (at == latestAt && m > latest) {
			latest, latestAt = m, at
		}
	}

	if latest == "" {
		return "", fmt.Errorf("%w: no match for %s", ErrNotFound, glob)
	}

	return latest, nil
}
