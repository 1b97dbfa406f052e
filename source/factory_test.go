package source

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	t.Parallel()

	deps := Deps{
		AppStore:  &mockAppStoreAPI{},
		PlayStore: &fakePlayStoreAPI{},
		Fs:        afero.NewMemMapFs(),
	}

	tests := []struct {
		name     string
		spec     Spec
		deps     Deps
		wantKind Kind
		wantName string
		wantErr  error
		errMsg   string
	}{
		{name: "appstore", spec: Spec{Kind: KindAppStore}, deps: deps, wantKind: KindAppStore, wantName: "appstore"},
		{name: "playstore", spec: Spec{Kind: KindPlayStore, Name: "play", Track: "beta"}, deps: deps, wantKind: KindPlayStore, wantName: "play"},
		{name: "web", spec: Spec{Kind: KindWebManifest, URL: "https://example.com/v.json"}, deps: deps, wantKind: KindWebManifest, wantName: "web"},
		{name: "pubspec", spec: Spec{Kind: KindPubspec}, deps: deps, wantKind: KindPubspec, wantName: "pubspec"},
		{name: "gittag", spec: Spec{Kind: KindGitTag, Path: "."}, deps: deps, wantKind: KindGitTag, wantName: "gittag"},
		{name: "static", spec: Spec{Kind: KindStatic, Value: "1.0.0"}, deps: deps, wantKind: KindStatic, wantName: "static"},
		{name: "static without value", spec: Spec{Kind: KindStatic}, deps: deps, errMsg: "value is required"},
		{name: "static blank value", spec: Spec{Kind: KindStatic, Value: "  "}, deps: deps, errMsg: "value is required"},
		{name: "appstore without client", spec: Spec{Kind: KindAppStore}, wantErr: ErrMissingClient},
		{name: "playstore without client", spec: Spec{Kind: KindPlayStore}, wantErr: ErrMissingClient},
		{name: "unknown", spec: Spec{Kind: "ftp"}, wantErr: ErrUnknownKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Build(tt.spec, tt.deps)
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.errMsg != "":
				require.ErrorContains(t, err, tt.errMsg)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantKind, got.Kind())
				assert.Equal(t, tt.wantName, got.Name())
			}
		})
	}
}

func TestBuild_PlayStoreTrack(t *testing.T) {
	t.Parallel()

	s, err := Build(Spec{Kind: KindPlayStore, Track: "alpha"}, Deps{PlayStore: &fakePlayStoreAPI{}})
	require.NoError(t, err)
	assert.Equal(t, "alpha", s.(*PlayStore).Track(Query{}))
	assert.Equal(t, "production", s.(*PlayStore).Track(Query{Live: true}))
}

func TestBuildAll(t *testing.T) {
	t.Parallel()

	got, err := BuildAll([]Spec{{Kind: KindStatic, Value: "1"}, {Kind: KindPubspec}}, Deps{})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = BuildAll([]Spec{{Kind: KindStatic, Value: "1"}, {Kind: "nope"}}, Deps{})
	require.ErrorIs(t, err, ErrUnknownKind)
	assert.Contains(t, err.Error(), "source 1")
}
