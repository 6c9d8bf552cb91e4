package boardsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// request describes one API call. It is replayable: the body is kept as
// bytes so a retry can send it again.
type request struct {
	method string
	path   string
	query  url.Values
	body   []byte
}

// sendFunc performs a request. Middlewares such as refreshOnExpiry wrap it.
type sendFunc func(ctx context.Context, r request) (*http.Response, error)

// url builds a complete URL by appending the path and query to the base URL.
func (c *Client) url(path string, query url.Values) string {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// newRequest builds a request, JSON encoding payload when it is not nil.
func newRequest(method, path string, payload any) (request, error) {
	r := request{method: method, path: path}
	if payload == nil {
		return r, nil
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return r, fmt.Errorf("failed to marshal request: %w", err)
	}
	r.body = b
	return r, nil
}

// send performs a single HTTP round trip. The cookie jar attaches the current
// credentials, so each call picks up cookies refreshed since the last one.
func (c *Client) send(ctx context.Context, r request) (*http.Response, error) {
	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.url(r.path, r.query), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	return resp, nil
}

// do performs a request with the token refresh middleware applied.
func (c *Client) do(ctx context.Context, r request) (*http.Response, error) {
	return c.refreshOnExpiry(c.send)(ctx, r)
}

// call performs a request and decodes a 2xx body into target (skipped when
// target is nil).
func (c *Client) call(ctx context.Context, method, path string, payload, target any) error {
	r, err := newRequest(method, path, payload)
	if err != nil {
		return err
	}

	resp, err := c.do(ctx, r)
	if err != nil {
		return err
	}

	return decodeJSON(resp, target)
}

// decodeJSON decodes a JSON response into target.
// Returns an *APIError if the response is not 2xx.
func decodeJSON(resp *http.Response, target any) error {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := parseErrorResponse(resp, bodyBytes); err != nil {
		return err
	}

	if target == nil || len(bytes.TrimSpace(bodyBytes)) == 0 {
		return nil
	}

	if err := json.Unmarshal(bodyBytes, target); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return nil
}
