package boardsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Register creates an account. The new account is not logged in.
//
// The returned profile is nil with a nil error when the server confirms the
// registration with only a message and no user.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*UserProfile, error) {
	var env userEnvelope
	if err := c.call(ctx, http.MethodPost, "/auth/register", req, &env); err != nil {
		return nil, err
	}

	if env.User == nil {
		return nil, nil
	}
	if err := env.User.Validate(); err != nil {
		return nil, err
	}
	return env.User, nil
}

// Login authenticates with username and password. When the account has MFA
// enabled and req.MFAToken is empty, the result has RequiresMFA set and no
// user; call Login again with the same credentials plus the code.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	var resp loginResponse
	if err := c.call(ctx, http.MethodPost, "/auth/login", req, &resp); err != nil {
		return nil, err
	}

	if resp.RequiresMFA {
		if resp.UserID == "" {
			return nil, fmt.Errorf("%w: mfa challenge without user id", ErrMalformedResponse)
		}
		return &LoginResult{RequiresMFA: true, UserID: resp.UserID}, nil
	}

	if err := resp.User.Validate(); err != nil {
		return nil, err
	}
	return &LoginResult{User: resp.User}, nil
}

// Logout ends the server session and clears the session cookies.
func (c *Client) Logout(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// RefreshToken exchanges the refresh cookie for a new access cookie.
// It is never itself refreshed and retried.
func (c *Client) RefreshToken(ctx context.Context) error {
	return c.call(markRetried(ctx), http.MethodPost, "/auth/refresh-token", nil, nil)
}

// Me returns the profile of the user owning the current session.
func (c *Client) Me(ctx context.Context) (*UserProfile, error) {
	var raw json.RawMessage
	if err := c.call(ctx, http.MethodGet, "/auth/me", nil, &raw); err != nil {
		return nil, err
	}

	return parseUser(raw)
}

// parseUser accepts either {"user": {...}} or a bare user object.
func parseUser(raw json.RawMessage) (*UserProfile, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}

	var env userEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	user := env.User
	if user == nil {
		user = &UserProfile{}
		if err := json.Unmarshal(raw, user); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}
	return user, nil
}

// OAuthURL returns the URL that starts an OAuth login with provider. The
// user opens it in a browser; the server redirects back with the result.
func (c *Client) OAuthURL(provider Provider) (string, error) {
	if !provider.Valid() {
		return "", fmt.Errorf("unsupported oauth provider %q", provider)
	}
	return c.url("/auth/"+string(provider), nil), nil
}
