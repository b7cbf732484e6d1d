// Package pypi provides a client for the PyPI JSON API, used as the
// default version catalog for dependency resolution.
//
// Reference: https://docs.pypi.org/api/json/
package pypi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/reqmerge/go-reqmerge/version"
)

// Client configuration defaults.
const (
	DefaultIndexURL            = "https://pypi.org"
	DefaultMaxIdleConns        = 50
	DefaultMaxIdleConnsPerHost = 20
	DefaultIdleConnTimeout     = 90 * time.Second
	DefaultRequestTimeout      = 5 * time.Second

	defaultUserAgent = "go-reqmerge"
)

// Client fetches published version data from a PyPI-compatible JSON index.
// It caches per-package answers and is safe for concurrent use.
type Client struct {
	baseURL   string
	client    *http.Client
	userAgent string

	versionCache sync.Map // map[string][]version.Version keyed by package name
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithTimeout sets a custom HTTP request timeout.
// Zero or negative values fall back to the default timeout (5 seconds).
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.client.Timeout = timeout
		} else {
			c.client.Timeout = DefaultRequestTimeout
		}
	}
}

// WithUserAgent sets the User-Agent header sent on index requests.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient creates a client for the given index base URL, e.g.
// "https://pypi.org". Connection pooling and a short request timeout are
// configured by default.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	transport := &http.Transport{
		MaxIdleConns:        DefaultMaxIdleConns,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:     DefaultIdleConnTimeout,
		DisableCompression:  false,
	}

	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout:   DefaultRequestTimeout,
			Transport: transport,
		},
		userAgent: defaultUserAgent,
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the index base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// IndexError reports a non-success response from the package index.
type IndexError struct {
	Package    string
	StatusCode int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index returned status %d for package %s", e.StatusCode, e.Package)
}

// releaseDocument models the subset of the PyPI JSON API response we read:
// the keys of "releases" are the published version strings.
type releaseDocument struct {
	Releases map[string]json.RawMessage `json:"releases"`
}

// Versions fetches the published versions for a package from
// {base}/pypi/{name}/json.
//
// A 404 means the package is unknown and yields an empty result with a nil
// error. Other non-200 responses yield an *IndexError. Version strings
// that do not parse under the PEP 440 grammar are skipped: PyPI still
// hosts legacy pre-PEP 440 version strings.
func (c *Client) Versions(ctx context.Context, name string) ([]version.Version, error) {
	key := strings.ToLower(name)
	if cached, ok := c.versionCache.Load(key); ok {
		return cached.([]version.Version), nil
	}

	url := fmt.Sprintf("%s/pypi/%s/json", c.baseURL, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.versionCache.Store(key, []version.Version(nil))
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &IndexError{Package: key, StatusCode: resp.StatusCode}
	}

	var doc releaseDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode index response for %s: %w", key, err)
	}

	versions := make([]version.Version, 0, len(doc.Releases))
	for raw := range doc.Releases {
		v, err := version.Parse(raw)
		if err != nil {
			continue
		}
		versions = append(versions, v)
	}

	c.versionCache.Store(key, versions)
	return versions, nil
}
