package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"
)

// ErrManifestVersionMissing is returned when version.json has no usable version field.
var ErrManifestVersionMissing = errors.New("manifest has no version field")

// WebManifest reads the version of a deployed web build from the version.json file served at
// the reversed application identifier, e.g. com.example.app -> https://app.example.com/version.json.
type WebManifest struct {
	name       string
	url        string
	token      Credentials
	httpClient *http.Client
}

var _ Source = (*WebManifest)(nil)

// WebManifestOption configures a WebManifest.
type WebManifestOption func(*WebManifest)

// WithManifestURL overrides the manifest location derived from the app identifier.
func WithManifestURL(u string) WebManifestOption {
	return func(s *WebManifest) {
		s.url = u
	}
}

// WithManifestToken sets the bearer token used when the query carries no credentials.
func WithManifestToken(token Credentials) WebManifestOption {
	return func(s *WebManifest) {
		s.token = token
	}
}

// WithManifestHTTPClient sets the HTTP client.
func WithManifestHTTPClient(hc *http.Client) WebManifestOption {
	return func(s *WebManifest) {
		s.httpClient = hc
	}
}

// NewWebManifest creates a web manifest source.
func NewWebManifest(name string, opts ...WebManifestOption) *WebManifest {
	if name == "" {
		name = string(KindWebManifest)
	}
	s := &WebManifest{
		name: name,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *WebManifest) Name() string { return s.name }

func (s *WebManifest) Kind() Kind { return KindWebManifest }

// ManifestURL returns the URL fetched for appID.
func (s *WebManifest) ManifestURL(appID string) string {
	if s.url != "" {
		return s.url
	}

	return "https://" + ReverseDomain(appID) + "/version.json"
}

// Fetch implements Source.
func (s *WebManifest) Fetch(ctx context.Context, q Query) Result {
	raw, err := s.fetch(ctx, q)
	if err != nil {
		return Failed(err)
	}

	return Ok(raw)
}

func (s *WebManifest) fetch(ctx context.Context, q Query) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.ManifestURL(q.AppIdentifier), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	token := q.Credentials
	if token.IsZero() {
		token = s.token
	}
	if !token.IsZero() {
		req.Header.Set("Authorization", "Bearer "+token.Reveal())
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("manifest returned status %d", resp.StatusCode)
	}

	var manifest struct {
		Version *string `json:"version"`
	}
	if err := json.Unmarshal(body, &manifest); err != nil {
		return "", fmt.Errorf("failed to parse manifest: %w", err)
	}
	if manifest.Version == nil || strings.TrimSpace(*manifest.Version) == "" {
		return "", ErrManifestVersionMissing
	}

	return strings.TrimSpace(*manifest.Version), nil
}

// ReverseDomain reverses the dot separated labels of an identifier.
func ReverseDomain(id string) string {
	labels := strings.Split(id, ".")
	slices.Reverse(labels)

	return strings.Join(labels, ".")
}
