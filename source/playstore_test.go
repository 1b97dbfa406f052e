package source

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/app-release-framework/store/playstore"
	"github.com/smartcontractkit/app-release-framework/version"
)

type fakePlayStoreAPI struct {
	tracks map[string][]string
	err    error
	asked  []string
}

func (f *fakePlayStoreAPI) TrackVersionCodes(_ context.Context, pkg, track string) ([]string, error) {
	f.asked = append(f.asked, pkg+"/"+track)
	if f.err != nil {
		return nil, f.err
	}

	return f.tracks[track], nil
}

func TestPlayStore_Fetch(t *testing.T) {
	t.Parallel()

	api := &fakePlayStoreAPI{tracks: map[string][]string{
		playstore.TrackProduction: {"1002000", "001003001", "1002009"},
		playstore.TrackInternal:   {"2000000"},
		"beta":                    {"000001002"},
	}}

	res := NewPlayStore("", api, "").Fetch(t.Context(), Query{AppIdentifier: "com.example.app", Live: true})
	require.NoError(t, res.Err)
	assert.Equal(t, "1.3.1", res.Raw)

	res = NewPlayStore("", api, "").Fetch(t.Context(), Query{AppIdentifier: "com.example.app"})
	require.NoError(t, res.Err)
	assert.Equal(t, "2.0.0", res.Raw)

	res = NewPlayStore("", api, "beta").Fetch(t.Context(), Query{AppIdentifier: "com.example.app"})
	require.NoError(t, res.Err)
	assert.True(t, version.MustParse(res.Raw).Equal(version.MustParse("0.1.2")))

	assert.Equal(t, []string{
		"com.example.app/production",
		"com.example.app/internal",
		"com.example.app/beta",
	}, api.asked)
}

func TestPlayStore_Fetch_Failures(t *testing.T) {
	t.Parallel()

	boom := errors.New("quota exceeded")
	res := NewPlayStore("", &fakePlayStoreAPI{err: boom}, "").Fetch(t.Context(), Query{Live: true})
	require.ErrorIs(t, res.Err, boom)

	res = NewPlayStore("", &fakePlayStoreAPI{}, "").Fetch(t.Context(), Query{Live: true})
	require.ErrorIs(t, res.Err, ErrNoVersions)

	bad := &fakePlayStoreAPI{tracks: map[string][]string{playstore.TrackProduction: {"12345678901"}}}
	res = NewPlayStore("", bad, "").Fetch(t.Context(), Query{Live: true})
	require.ErrorIs(t, res.Err, version.ErrInvalidCode)
}
