package flows

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/aussiebroadwan/jobboard/pkg/boardsdk"
)

const (
	MsgOAuthNoUser  = "Authentication failed. User data not received."
	MsgOAuthBadUser = "Error processing user data."
)

// ErrOAuthCallback is wrapped by every callback parsing failure.
var ErrOAuthCallback = errors.New("flows: oauth callback rejected")

// OAuthURLs is the part of the API client that builds provider URLs.
type OAuthURLs interface {
	OAuthURL(provider boardsdk.Provider) (string, error)
}

// OAuthStartURL returns the URL the browser opens to sign in with provider.
func OAuthStartURL(api OAuthURLs, provider string) (string, error) {
	return api.OAuthURL(boardsdk.Provider(provider))
}

// ParseOAuthCallback reads the user the server put on the redirect URL. The
// "user" parameter is JSON; "provider" is copied into the user when the
// payload names none.
func ParseOAuthCallback(query url.Values) (*boardsdk.UserProfile, error) {
	raw := query.Get("user")
	if raw == "" {
		return nil, fmt.Errorf("%w: %s", ErrOAuthCallback, MsgOAuthNoUser)
	}

	// Values are already decoded once; some servers encode the JSON twice.
	if decoded, err := url.QueryUnescape(raw); err == nil && json.Valid([]byte(decoded)) {
		raw = decoded
	}

	var user boardsdk.UserProfile
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrOAuthCallback, MsgOAuthBadUser)
	}
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOAuthCallback, MsgOAuthBadUser, err)
	}

	if p := query.Get("provider"); p != "" && user.Provider == "" {
		user.Provider = p
	}
	return &user, nil
}

// CompleteOAuth parses the redirect URL and signs the user in. The URL is
// used once and not kept.
func CompleteOAuth(sess Session, redirect string) (*Navigation, error) {
	u, err := url.Parse(redirect)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrOAuthCallback, MsgOAuthNoUser)
	}

	user, err := ParseOAuthCallback(u.Query())
	if err != nil {
		return nil, err
	}

	sess.OAuthLoginSuccess(user)
	return &Navigation{To: DashboardPath}, nil
}
