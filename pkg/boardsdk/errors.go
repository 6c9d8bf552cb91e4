package boardsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const (
	// CodeTokenExpired is the error code the server uses for an expired
	// access cookie. It is the only 401 that triggers a refresh.
	CodeTokenExpired = "TOKEN_EXPIRED"

	// RateLimitMarker appears in the message of rate limited responses.
	RateLimitMarker = "Too many"
)

// ErrMalformedResponse is returned when a success response does not match
// the expected schema.
var ErrMalformedResponse = errors.New("boardsdk: malformed response")

// APIError is a non-2xx response from the job board API.
type APIError struct {
	// StatusCode is the HTTP status code of the response
	StatusCode int

	// Code is the machine readable error code, if the server sent one
	Code string

	// Message is the human readable message, if the server sent one
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, msg)
}

// errorBody is the error schema. Some endpoints use "error" instead of
// "message" for the text.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

// parseErrorResponse converts a non-2xx response into an *APIError.
// Returns nil if the response indicates success.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		apiErr.Code = eb.Code
		apiErr.Message = eb.Message
		if apiErr.Message == "" {
			apiErr.Message = eb.Error
		}
	}

	return apiErr
}

// isTokenExpired reports whether a 401 body carries the TOKEN_EXPIRED code.
func isTokenExpired(body []byte) bool {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return false
	}
	return eb.Code == CodeTokenExpired
}

// ErrorMessage returns the server-reported message carried by err, or
// fallback when err is not an *APIError or the server sent no message.
func ErrorMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// IsRateLimited reports whether err came from the server's rate limiter,
// either by status or by the marker in its message.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusTooManyRequests || HasRateLimitMarker(apiErr.Message)
}

// HasRateLimitMarker reports whether msg is a rate limit message.
func HasRateLimitMarker(msg string) bool {
	return strings.Contains(msg, RateLimitMarker)
}

// IsStatus reports whether err is an *APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}
