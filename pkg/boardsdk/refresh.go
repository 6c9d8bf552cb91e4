package boardsdk

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/aussiebroadwan/jobboard/pkg/slogx"
)

type retriedKey struct{}

// markRetried flags ctx so requests made with it are never refreshed and
// replayed again.
func markRetried(ctx context.Context) context.Context {
	return context.WithValue(ctx, retriedKey{}, true)
}

func isRetried(ctx context.Context) bool {
	v, _ := ctx.Value(retriedKey{}).(bool)
	return v
}

// refreshOnExpiry wraps next so that a 401 TOKEN_EXPIRED response triggers
// one refresh followed by one replay of the same request. When the refresh
// fails the original response is handed back untouched.
func (c *Client) refreshOnExpiry(next sendFunc) sendFunc {
	return func(ctx context.Context, r request) (*http.Response, error) {
		resp, err := next(ctx, r)
		if err != nil || isRetried(ctx) || resp.StatusCode != http.StatusUnauthorized {
			return resp, err
		}

		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}
		resp.Body = io.NopCloser(bytes.NewReader(body))

		if !isTokenExpired(body) {
			return resp, nil
		}

		log := slogx.FromContext(ctx)
		ctx = markRetried(ctx)

		if rerr := c.RefreshToken(ctx); rerr != nil {
			log.Debug("token refresh failed", "path", r.path, "error", rerr)
			return resp, nil
		}

		log.Debug("token refreshed, replaying request", "method", r.method, "path", r.path)
		return next(ctx, r)
	}
}
