package source

import (
	"context"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// GitTag reports the highest release tag of a git repository. Tags are read as semantic
// versions with an optional "v" prefix; pre-release tags and tags that are not versions are
// ignored.
type GitTag struct {
	name string
	dir  string
}

var _ Source = (*GitTag)(nil)

// NewGitTag creates a git tag source for the repository containing dir.
func NewGitTag(name, dir string) *GitTag {
	if name == "" {
		name = string(KindGitTag)
	}
	if dir == "" {
		dir = "."
	}

	return &GitTag{name: name, dir: dir}
}

func (s *GitTag) Name() string { return s.name }

func (s *GitTag) Kind() Kind { return KindGitTag }

// Fetch implements Source.
func (s *GitTag) Fetch(ctx context.Context, _ Query) Result {
	repo, err := git.PlainOpenWithOptions(s.dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return Failed(fmt.Errorf("open repository %s: %w", s.dir, err))
	}

	refs, err := repo.Tags()
	if err != nil {
		return Failed(fmt.Errorf("list tags: %w", err))
	}
	defer refs.Close()

	var latest *semver.Version
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		v, err := semver.NewVersion(ref.Name().Short())
		if err != nil || v.Prerelease() != "" {
			return nil //nolint:nilerr // not a release tag
		}
		if latest == nil || v.GreaterThan(latest) {
			latest = v
		}

		return nil
	})
	if err != nil {
		return Failed(fmt.Errorf("iterate tags: %w", err))
	}
	if latest == nil {
		return Failed(fmt.Errorf("%w: no release tags in %s", ErrNoVersions, s.dir))
	}

	return Ok(fmt.Sprintf("%d.%d.%d", latest.Major(), latest.Minor(), latest.Patch()))
}
