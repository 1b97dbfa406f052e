package source

import (
	"context"
	"fmt"

	"github.com/smartcontractkit/app-release-framework/store/playstore"
	"github.com/smartcontractkit/app-release-framework/version"
)

// PlayStoreAPI is the subset of the Android Publisher client used by PlayStore.
type PlayStoreAPI interface {
	TrackVersionCodes(ctx context.Context, pkg, track string) ([]string, error)
}

var _ PlayStoreAPI = (*playstore.Client)(nil)

// PlayStore reports the highest version code released on a Google Play track, decoded with
// version.DecodeVersionCode. Live queries read the production track.
type PlayStore struct {
	name            string
	api             PlayStoreAPI
	preReleaseTrack string
}

var _ Source = (*PlayStore)(nil)

// NewPlayStore creates a Play Store source. preReleaseTrack is read for non-live queries and
// defaults to the internal track.
func NewPlayStore(name string, api PlayStoreAPI, preReleaseTrack string) *PlayStore {
	if name == "" {
		name = string(KindPlayStore)
	}
	if preReleaseTrack == "" {
		preReleaseTrack = playstore.TrackInternal
	}

	return &PlayStore{name: name, api: api, preReleaseTrack: preReleaseTrack}
}

func (s *PlayStore) Name() string { return s.name }

func (s *PlayStore) Kind() Kind { return KindPlayStore }

// Track returns the track read for q.
func (s *PlayStore) Track(q Query) string {
	if q.Live {
		return playstore.TrackProduction
	}

	return s.preReleaseTrack
}

// Fetch implements Source.
func (s *PlayStore) Fetch(ctx context.Context, q Query) Result {
	track := s.Track(q)
	codes, err := s.api.TrackVersionCodes(ctx, q.AppIdentifier, track)
	if err != nil {
		return Failed(err)
	}

	found := make([]version.Version, 0, len(codes))
	for _, code := range codes {
		v, err := version.DecodeVersionCode(code)
		if err != nil {
			return Failed(fmt.Errorf("track %s: %w", track, err))
		}
		found = append(found, v)
	}
	if len(found) == 0 {
		return Failed(fmt.Errorf("%w: track %s", ErrNoVersions, track))
	}

	return Ok(version.Max(found...).String())
}
