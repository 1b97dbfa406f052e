package source

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/smartcontractkit/app-release-framework/store/appstore"
	"github.com/smartcontractkit/app-release-framework/version"
)

// AppStoreAPI is the subset of the App Store Connect client used by AppStore.
type AppStoreAPI interface {
	FindApp(ctx context.Context, bundleID string) (appstore.App, error)
	AppStoreVersions(ctx context.Context, appID string, platform appstore.Platform) ([]string, error)
	PreReleaseVersions(ctx context.Context, appID string, platform appstore.Platform) ([]string, error)
}

var _ AppStoreAPI = (*appstore.Client)(nil)

// AppStore reports the highest version published on App Store Connect across every Apple
// sub-platform of the app. Live queries read App Store versions, otherwise TestFlight
// pre-release versions.
type AppStore struct {
	name      string
	api       AppStoreAPI
	platforms []appstore.Platform
}

var _ Source = (*AppStore)(nil)

// NewAppStore creates an App Store source. With no platforms, every sub-platform is queried.
func NewAppStore(name string, api AppStoreAPI, platforms ...appstore.Platform) *AppStore {
	if name == "" {
		name = string(KindAppStore)
	}
	if len(platforms) == 0 {
		platforms = appstore.AllPlatforms
	}

	return &AppStore{name: name, api: api, platforms: platforms}
}

func (s *AppStore) Name() string { return s.name }

func (s *AppStore) Kind() Kind { return KindAppStore }

// Fetch implements Source. A sub-platform that fails does not hide the versions of the others:
// the highest answered version is returned and the failures are kept in Result.Partial. The
// lookup fails only when no sub-platform answered.
func (s *AppStore) Fetch(ctx context.Context, q Query) Result {
	app, err := s.api.FindApp(ctx, q.AppIdentifier)
	if err != nil {
		return Failed(err)
	}

	var (
		found    []version.Version
		answered int
		errs     error
	)
	for _, p := range s.platforms {
		var raws []string
		if q.Live {
			raws, err = s.api.AppStoreVersions(ctx, app.ID, p)
		} else {
			raws, err = s.api.PreReleaseVersions(ctx, app.ID, p)
		}
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("platform %s: %w", p, err))
			continue
		}
		answered++
		found = append(found, parseAll(raws)...)
	}

	if answered == 0 {
		return Failed(errs)
	}
	if len(found) == 0 {
		return Failed(multierr.Append(fmt.Errorf("%w: %s", ErrNoVersions, q.AppIdentifier), errs))
	}

	res := Ok(version.Max(found...).String())
	res.Partial = errs

	return res
}

// parseAll parses every raw version as returned by the store, skipping strings that are not
// versions.
func parseAll(raws []string) []version.Version {
	out := make([]version.Version, 0, len(raws))
	for _, raw := range raws {
		if v, err := version.Parse(strings.TrimSpace(raw)); err == nil {
			out = append(out, v)
		}
	}

	return out
}
