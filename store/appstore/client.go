// Package appstore is a minimal App Store Connect API client covering the version lookups used
// for release planning.
package appstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the App Store Connect API endpoint.
const DefaultBaseURL = "https://api.appstoreconnect.apple.com"

// Platform is an App Store Connect platform filter value.
type Platform string

const (
	PlatformIOS   Platform = "IOS"
	PlatformMacOS Platform = "MAC_OS"
	PlatformTvOS  Platform = "TV_OS"
)

// AllPlatforms lists every Apple sub-platform a single app record may ship to.
var AllPlatforms = []Platform{PlatformIOS, PlatformTvOS, PlatformMacOS}

// ErrAppNotFound is returned when no app matches the bundle identifier.
var ErrAppNotFound = errors.New("app not found")

// APIError is a non-2xx response from App Store Connect.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("app store connect returned status %d: %s", e.StatusCode, e.Body)
}

// App is an app record.
type App struct {
	ID       string
	BundleID string
	Name     string
}

// Client talks to the App Store Connect REST API.
type Client struct {
	baseURL    string
	tokens     *tokenSource
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a client authenticating with the given API key.
func NewClient(creds Credentials, opts ...Option) (*Client, error) {
	tokens, err := newTokenSource(creds)
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL: DefaultBaseURL,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

type resource struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Attributes json.RawMessage `json:"attributes"`
}

type listResponse struct {
	Data  []resource `json:"data"`
	Links struct {
		Next string `json:"next"`
	} `json:"links"`
}

// FindApp looks up the app record for a bundle identifier.
func (c *Client) FindApp(ctx context.Context, bundleID string) (App, error) {
	q := url.Values{}
	q.Set("filter[bundleId]", bundleID)
	q.Set("limit", "1")

	var app App
	err := c.list(ctx, "/v1/apps", q, func(r resource) error {
		var attrs struct {
			BundleID string `json:"bundleId"`
			Name     string `json:"name"`
		}
		if err := json.Unmarshal(r.Attributes, &attrs); err != nil {
			return fmt.Errorf("failed to parse app attributes: %w", err)
		}
		// filter[bundleId] is a prefix match on some accounts
		if attrs.BundleID == bundleID && app.ID == "" {
			app = App{ID: r.ID, BundleID: attrs.BundleID, Name: attrs.Name}
		}

		return nil
	})
	if err != nil {
		return App{}, err
	}
	if app.ID == "" {
		return App{}, fmt.Errorf("%w: %s", ErrAppNotFound, bundleID)
	}

	return app, nil
}

// AppStoreVersions returns the version strings of every App Store version of the app on platform.
func (c *Client) AppStoreVersions(ctx context.Context, appID string, platform Platform) ([]string, error) {
	q := url.Values{}
	q.Set("filter[platform]", string(platform))
	q.Set("limit", "200")

	var versions []string
	err := c.list(ctx, "/v1/apps/"+url.PathEscape(appID)+"/appStoreVersions", q, func(r resource) error {
		var attrs struct {
			VersionString string `json:"versionString"`
		}
		if err := json.Unmarshal(r.Attributes, &attrs); err != nil {
			return fmt.Errorf("failed to parse app store version attributes: %w", err)
		}
		versions = append(versions, attrs.VersionString)

		return nil
	})

	return versions, err
}

// PreReleaseVersions returns the TestFlight pre-release versions of the app on platform.
func (c *Client) PreReleaseVersions(ctx context.Context, appID string, platform Platform) ([]string, error) {
	q := url.Values{}
	q.Set("filter[app]", appID)
	q.Set("filter[platform]", string(platform))
	q.Set("limit", "200")

	var versions []string
	err := c.list(ctx, "/v1/preReleaseVersions", q, func(r resource) error {
		var attrs struct {
			Version string `json:"version"`
		}
		if err := json.Unmarshal(r.Attributes, &attrs); err != nil {
			return fmt.Errorf("failed to parse pre-release version attributes: %w", err)
		}
		versions = append(versions, attrs.Version)

		return nil
	})

	return versions, err
}

// list walks every page of a collection endpoint.
func (c *Client) list(ctx context.Context, path string, q url.Values, fn func(resource) error) error {
	reqURL := c.baseURL + path
	if len(q) > 0 {
		reqURL += "?" + q.Encode()
	}

	for reqURL != "" {
		var page listResponse
		if err := c.get(ctx, reqURL, &page); err != nil {
			return err
		}
		for _, r := range page.Data {
			if err := fn(r); err != nil {
				return err
			}
		}
		reqURL = page.Links.Next
	}

	return nil
}

func (c *Client) get(ctx context.Context, reqURL string, out any) error {
	token, err := c.tokens.Token()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse app store connect response: %w", err)
	}

	return nil
}
