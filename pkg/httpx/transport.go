package httpx

import (
	"net/http"

	"golang.org/x/time/rate"
)

// LimitedTransport paces outgoing requests through a token bucket so a
// runaway loop in the CLI cannot hammer the API. Requests wait for a token
// and give up when their context is done.
type LimitedTransport struct {
	Base    http.RoundTripper
	Limiter *rate.Limiter
}

// NewLimitedTransport wraps base (http.DefaultTransport when nil). A
// disabled config returns base unchanged.
func NewLimitedTransport(base http.RoundTripper, config RateLimitConfig) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	if !config.Enabled() {
		return base
	}
	return &LimitedTransport{Base: base, Limiter: config.NewLimiter()}
}

// RoundTrip implements http.RoundTripper.
func (t *LimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.Limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.Base.RoundTrip(req)
}
