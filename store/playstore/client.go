// Package playstore is a minimal Google Play Android Publisher (v3) client covering track reads
// and bundle uploads.
package playstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/smartcontractkit/app-release-framework/pkg/logger"
)

const (
	// DefaultBaseURL is the Google APIs endpoint.
	DefaultBaseURL = "https://androidpublisher.googleapis.com"
	// Scope is the OAuth2 scope required by the publisher API.
	Scope = "https://www.googleapis.com/auth/androidpublisher"

	// discardTimeout bounds the deletion of an edit, which also runs after ctx is done.
	discardTimeout = 30 * time.Second
)

// Well known tracks.
const (
	TrackProduction = "production"
	TrackInternal   = "internal"
)

// Release statuses.
const (
	StatusCompleted = "completed"
	StatusDraft     = "draft"
)

// APIError is a non-2xx response from the publisher API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("android publisher returned status %d: %s", e.StatusCode, e.Body)
}

// Track is the release configuration of a track.
type Track struct {
	Track    string    `json:"track"`
	Releases []Release `json:"releases,omitempty"`
}

// Release is a single release on a track. Version codes are decimal strings.
type Release struct {
	Name         string   `json:"name,omitempty"`
	VersionCodes []string `json:"versionCodes,omitempty"`
	Status       string   `json:"status,omitempty"`
}

// Bundle is an uploaded app bundle.
type Bundle struct {
	VersionCode int64  `json:"versionCode"`
	SHA256      string `json:"sha256"`
}

type edit struct {
	ID string `json:"id"`
}

// Client talks to the Android Publisher REST API. Authentication is carried by the HTTP client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	lggr       logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithLogger sets the logger reporting edits that could not be discarded.
func WithLogger(lggr logger.Logger) Option {
	return func(c *Client) {
		c.lggr = lggr.Named("playstore")
	}
}

// NewClient creates a client sending requests through hc, which must add authorization.
func NewClient(hc *http.Client, opts ...Option) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	c := &Client{baseURL: DefaultBaseURL, httpClient: hc, lggr: logger.Nop()}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewServiceAccountClient creates a client authenticated with a service account JSON key.
func NewServiceAccountClient(ctx context.Context, serviceAccountJSON []byte, opts ...Option) (*Client, error) {
	if len(serviceAccountJSON) == 0 {
		return nil, errors.New("play service account json is required")
	}
	creds, err := google.CredentialsFromJSON(ctx, serviceAccountJSON, Scope)
	if err != nil {
		return nil, fmt.Errorf("failed to load play service account: %w", err)
	}

	return NewClient(oauth2.NewClient(context.WithoutCancel(ctx), creds.TokenSource), opts...), nil
}

// InsertEdit opens a new edit for the package.
func (c *Client) InsertEdit(ctx context.Context, pkg string) (string, error) {
	var e edit
	if err := c.do(ctx, http.MethodPost, c.editsURL(pkg), nil, "", &e); err != nil {
		return "", fmt.Errorf("insert edit: %w", err)
	}

	return e.ID, nil
}

// DeleteEdit discards an edit without committing it.
func (c *Client) DeleteEdit(ctx context.Context, pkg, editID string) error {
	if err := c.do(ctx, http.MethodDelete, c.editsURL(pkg, editID), nil, "", nil); err != nil {
		return fmt.Errorf("delete edit: %w", err)
	}

	return nil
}

// CommitEdit publishes the changes made in an edit.
func (c *Client) CommitEdit(ctx context.Context, pkg, editID string) error {
	u := c.editsURL(pkg, editID) + ":commit"
	if err := c.do(ctx, http.MethodPost, u, nil, "", nil); err != nil {
		return fmt.Errorf("commit edit: %w", err)
	}

	return nil
}

// GetTrack reads a track within an edit.
func (c *Client) GetTrack(ctx context.Context, pkg, editID, track string) (Track, error) {
	var t Track
	if err := c.do(ctx, http.MethodGet, c.editsURL(pkg, editID, "tracks", track), nil, "", &t); err != nil {
		return Track{}, fmt.Errorf("get track %s: %w", track, err)
	}

	return t, nil
}

// UpdateTrack replaces the releases of a track within an edit.
func (c *Client) UpdateTrack(ctx context.Context, pkg, editID string, t Track) error {
	body, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode track: %w", err)
	}
	u := c.editsURL(pkg, editID, "tracks", t.Track)
	if err := c.do(ctx, http.MethodPut, u, bytes.NewReader(body), "application/json", nil); err != nil {
		return fmt.Errorf("update track %s: %w", t.Track, err)
	}

	return nil
}

// UploadBundle uploads an .aab within an edit.
func (c *Client) UploadBundle(ctx context.Context, pkg, editID string, aab io.Reader) (Bundle, error) {
	u := c.baseURL + "/upload/androidpublisher/v3/applications/" + url.PathEscape(pkg) +
		"/edits/" + url.PathEscape(editID) + "/bundles?uploadType=media"

	var b Bundle
	if err := c.do(ctx, http.MethodPost, u, aab, "application/octet-stream", &b); err != nil {
		return Bundle{}, fmt.Errorf("upload bundle: %w", err)
	}

	return b, nil
}

// TrackVersionCodes returns every version code released on a track. The edit opened for the read
// is always discarded; failing to discard it is logged and does not fail the read.
func (c *Client) TrackVersionCodes(ctx context.Context, pkg, track string) ([]string, error) {
	editID, err := c.InsertEdit(ctx, pkg)
	if err != nil {
		return nil, err
	}
	defer func() {
		if derr := c.discardEdit(ctx, pkg, editID); derr != nil {
			c.lggr.Warnw("Failed to discard edit", "package", pkg, "edit", editID, "error", derr)
		}
	}()

	t, err := c.GetTrack(ctx, pkg, editID, track)
	if err != nil {
		return nil, err
	}
	var codes []string
	for _, r := range t.Releases {
		codes = append(codes, r.VersionCodes...)
	}

	return codes, nil
}

// PublishBundle uploads aab and releases it on track with the given status in a single edit.
// The edit is discarded on any failure before commit.
func (c *Client) PublishBundle(ctx context.Context, pkg, track, status string, aab io.Reader) (Bundle, error) {
	editID, err := c.InsertEdit(ctx, pkg)
	if err != nil {
		return Bundle{}, err
	}

	b, err := c.publishInEdit(ctx, pkg, editID, track, status, aab)
	if err != nil {
		if derr := c.discardEdit(ctx, pkg, editID); derr != nil {
			err = errors.Join(err, derr)
		}

		return Bundle{}, err
	}

	return b, nil
}

func (c *Client) publishInEdit(ctx context.Context, pkg, editID, track, status string, aab io.Reader) (Bundle, error) {
	b, err := c.UploadBundle(ctx, pkg, editID, aab)
	if err != nil {
		return Bundle{}, err
	}

	t := Track{
		Track: track,
		Releases: []Release{{
			VersionCodes: []string{fmt.Sprint(b.VersionCode)},
			Status:       status,
		}},
	}
	if err := c.UpdateTrack(ctx, pkg, editID, t); err != nil {
		return Bundle{}, err
	}
	if err := c.CommitEdit(ctx, pkg, editID); err != nil {
		return Bundle{}, err
	}

	return b, nil
}

// discardEdit deletes an edit even when ctx is already done.
func (c *Client) discardEdit(ctx context.Context, pkg, editID string) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), discardTimeout)
	defer cancel()

	return c.DeleteEdit(ctx, pkg, editID)
}

func (c *Client) editsURL(pkg string, parts ...string) string {
	u := c.baseURL + "/androidpublisher/v3/applications/" + url.PathEscape(pkg) + "/edits"
	for _, p := range parts {
		u += "/" + url.PathEscape(p)
	}

	return u
}

func (c *Client) do(ctx context.Context, method, reqURL string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse android publisher response: %w", err)
	}

	return nil
}
