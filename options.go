package reqmerge

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/reqmerge/go-reqmerge/pypi"
)

// Option configures resolution behavior.
type Option func(*resolverConfig) error

// resolverConfig holds all resolution configuration.
type resolverConfig struct {
	catalog        Catalog
	indexURL       string
	timeout        time.Duration
	httpClient     *http.Client
	maxConcurrency int

	// logger is the structured logger for debug/info output.
	// If nil, logging is disabled (silent mode).
	//
	// Design decision: we use *slog.Logger (Go 1.21+ stdlib) rather than a
	// custom interface because slog provides frontend/backend separation;
	// users can plug in any backend (zap, zerolog, etc.) via slog handlers.
	logger *slog.Logger
}

// WithCatalog sets the version catalog the resolver consults.
// When unset, a PyPI JSON API client is used.
func WithCatalog(catalog Catalog) Option {
	return func(c *resolverConfig) error {
		c.catalog = catalog
		return nil
	}
}

// WithIndexURL sets the package index base URL for the default catalog.
// Ignored when WithCatalog is also given.
func WithIndexURL(url string) Option {
	return func(c *resolverConfig) error {
		c.indexURL = url
		return nil
	}
}

// WithTimeout sets the per-lookup HTTP request timeout for the default
// catalog. Defaults to 5 seconds.
func WithTimeout(d time.Duration) Option {
	return func(c *resolverConfig) error {
		c.timeout = d
		return nil
	}
}

// WithHTTPClient sets a custom HTTP client for index requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *resolverConfig) error {
		c.httpClient = client
		return nil
	}
}

// WithMaxConcurrency bounds the number of packages resolved in flight at
// once. Zero selects the default (5).
func WithMaxConcurrency(n int) Option {
	return func(c *resolverConfig) error {
		c.maxConcurrency = n
		return nil
	}
}

// WithLogger sets a structured logger for resolution diagnostics.
// If not set, logging is disabled (silent mode).
//
// Example:
//
//	report, err := reqmerge.Merge(ctx, a, b, reqmerge.WithLogger(slog.Default()))
func WithLogger(l *slog.Logger) Option {
	return func(c *resolverConfig) error {
		c.logger = l
		return nil
	}
}

// validate checks the configuration for logical consistency.
func (c *resolverConfig) validate() error {
	if c.timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	if c.maxConcurrency < 0 {
		return errors.New("max concurrency must not be negative")
	}
	return nil
}

// log returns the configured logger, or a no-op logger if none was set.
//
// Libraries should be silent by default; users opt in via WithLogger.
func (c *resolverConfig) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.New(discardHandler{})
}

// discardHandler is a slog.Handler that discards all log records.
// Used when no logger is configured to avoid nil checks throughout.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// newResolverConfig applies options and validates the result.
func newResolverConfig(opts ...Option) (*resolverConfig, error) {
	c := &resolverConfig{}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// catalogFromConfig returns the configured catalog, building a PyPI client
// from the HTTP-related options when none was set explicitly.
func (c *resolverConfig) catalogFromConfig() Catalog {
	if c.catalog != nil {
		return c.catalog
	}

	baseURL := c.indexURL
	if baseURL == "" {
		baseURL = pypi.DefaultIndexURL
	}

	var clientOpts []pypi.ClientOption
	if c.httpClient != nil {
		clientOpts = append(clientOpts, pypi.WithHTTPClient(c.httpClient))
	}
	if c.timeout > 0 {
		clientOpts = append(clientOpts, pypi.WithTimeout(c.timeout))
	}
	return pypi.NewClient(baseURL, clientOpts...)
}
