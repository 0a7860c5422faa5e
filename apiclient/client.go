// Package apiclient is the authenticated HTTP client for the care portal API.
//
// Every request reads the access token from the session store at the moment it
// is sent. A 401 hands the request to a single-flight refresh coordinator: the
// first 401 starts one call to /auth/refresh, later 401s queue behind it, and
// every queued request is resent exactly once when the refresh settles.
package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

const (
	DefaultRefreshTimeout = 10 * time.Second
	DefaultRequestTimeout = 30 * time.Second

	HeaderRequestID = "X-Request-ID"

	maxResponseBytes = 10 << 20
)

// Client performs requests against the backend on behalf of one session.
type Client struct {
	baseURL        *url.URL
	httpClient     *http.Client
	store          SessionStore
	refresher      *refreshCoordinator
	renewer        Renewer
	listener       SessionListener
	refreshTimeout time.Duration
	logger         zerolog.Logger
	metrics        *Metrics
	userAgent      string
	newRequestID   func() string
}

type Option func(*Client)

// WithHTTPClient sets the transport. It must carry a cookie jar, since the
// refresh credential is an HTTP-only cookie.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRenewer replaces the default POST /auth/refresh exchange.
func WithRenewer(renewer Renewer) Option {
	return func(c *Client) {
		c.renewer = renewer
	}
}

// WithRefreshTimeout bounds a single renewal. A renewal that has not settled by
// then counts as failed.
func WithRefreshTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.refreshTimeout = timeout
	}
}

func WithSessionListener(listener SessionListener) Option {
	return func(c *Client) {
		c.listener = listener
	}
}

func WithMetrics(metrics *Metrics) Option {
	return func(c *Client) {
		c.metrics = metrics
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithRequestIDFunc overrides the X-Request-ID generator.
func WithRequestIDFunc(fn func() string) Option {
	return func(c *Client) {
		c.newRequestID = fn
	}
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, store SessionStore, options ...Option) (*Client, error) {
	if store == nil {
		return nil, errors.New("apiclient: session store is required")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("apiclient: parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("apiclient: base url %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL:        u,
		store:          store,
		refreshTimeout: DefaultRefreshTimeout,
		logger:         zerolog.Nop(),
		newRequestID:   func() string { return ulid.Make().String() },
	}
	for _, opt := range options {
		opt(c)
	}

	if c.httpClient == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("apiclient: cookie jar: %w", err)
		}
		c.httpClient = &http.Client{Jar: jar, Timeout: DefaultRequestTimeout}
	}
	if c.httpClient.Jar == nil {
		c.logger.Warn().Msg("apiclient: http client has no cookie jar, session refresh cannot succeed")
	}
	if c.refreshTimeout <= 0 {
		c.refreshTimeout = DefaultRefreshTimeout
	}
	if c.renewer == nil {
		c.renewer = RenewerFunc(c.renewSession)
	}

	c.refresher = &refreshCoordinator{
		store:    c.store,
		renewer:  c.renewer,
		timeout:  c.refreshTimeout,
		listener: c.listener,
		logger:   c.logger,
		metrics:  c.metrics,
	}
	return c, nil
}

// Store returns the session store the client reads tokens from.
func (c *Client) Store() SessionStore {
	return c.store
}

// HTTPClient returns the underlying transport.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// BaseURL returns the API root.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}
