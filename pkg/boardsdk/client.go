package boardsdk

import (
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// DefaultTimeout bounds every request made by a Client built with NewClient.
const DefaultTimeout = 10 * time.Second

// Client is a client for the job board API.
// All operations share one http.Client whose cookie jar holds the session.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. If it has no cookie jar,
// NewClient installs an in-memory one.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTPClient = hc }
}

// WithJar sets the cookie jar that stores session credentials.
func WithJar(jar http.CookieJar) Option {
	return func(c *Client) { c.HTTPClient.Jar = jar }
}

// WithTransport sets the RoundTripper used for outbound requests, typically a
// chain of slogx.Transport and httpx.LimitedTransport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.HTTPClient.Transport = rt }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.HTTPClient.Timeout = d }
}

// NewClient creates a job board client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.HTTPClient.Jar == nil {
		// cookiejar.New only fails on a bad PublicSuffixList, and we pass none.
		jar, _ := cookiejar.New(nil)
		c.HTTPClient.Jar = jar
	}

	return c
}
