package source

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/afero"

	"github.com/smartcontractkit/app-release-framework/store/appstore"
)

// ErrMissingClient is returned when a store source is requested without its API client, which
// happens when the store credentials are not configured.
var ErrMissingClient = errors.New("store client not configured")

// Spec describes a configured source.
type Spec struct {
	Kind Kind
	// Name overrides the default name, which is the kind.
	Name string
	// Track is the Play Store pre-release track.
	Track string
	// Path is the pubspec file or the git repository directory.
	Path string
	// URL overrides the web manifest location.
	URL string
	// Value is the fixed version of a static source.
	Value string
	// Platforms limits the App Store sub-platforms queried.
	Platforms []appstore.Platform
}

// Deps carries the clients and resources sources are built from.
type Deps struct {
	AppStore      AppStoreAPI
	PlayStore     PlayStoreAPI
	HTTPClient    *http.Client
	ManifestToken Credentials
	Fs            afero.Fs
}

// Build creates the source described by spec.
func Build(spec Spec, deps Deps) (Source, error) {
	switch spec.Kind {
	case KindAppStore:
		if deps.AppStore == nil {
			return nil, fmt.Errorf("%s: %w", spec.Kind, ErrMissingClient)
		}

		return NewAppStore(spec.Name, deps.AppStore, spec.Platforms...), nil
	case KindPlayStore:
		if deps.PlayStore == nil {
			return nil, fmt.Errorf("%s: %w", spec.Kind, ErrMissingClient)
		}

		return NewPlayStore(spec.Name, deps.PlayStore, spec.Track), nil
	case KindWebManifest:
		opts := []WebManifestOption{WithManifestToken(deps.ManifestToken)}
		if spec.URL != "" {
			opts = append(opts, WithManifestURL(spec.URL))
		}
		if deps.HTTPClient != nil {
			opts = append(opts, WithManifestHTTPClient(deps.HTTPClient))
		}

		return NewWebManifest(spec.Name, opts...), nil
	case KindPubspec:
		return NewPubspec(spec.Name, deps.Fs, spec.Path), nil
	case KindGitTag:
		return NewGitTag(spec.Name, spec.Path), nil
	case KindStatic:
		value := strings.TrimSpace(spec.Value)
		if value == "" {
			return nil, fmt.Errorf("%s: value is required", spec.Kind)
		}

		return NewStatic(spec.Name, value), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, spec.Kind)
	}
}

// BuildAll creates every source in specs, failing on the first invalid one.
func BuildAll(specs []Spec, deps Deps) ([]Source, error) {
	out := make([]Source, 0, len(specs))
	for i, spec := range specs {
		s, err := Build(spec, deps)
		if err != nil {
			return nil, fmt.Errorf("source %d: %w", i, err)
		}
		out = append(out, s)
	}

	return out, nil
}
