package boardsdk

import (
	"context"
	"net/http"
	"net/url"
)

// VerifyEmail confirms an email address with the token from the
// verification mail.
func (c *Client) VerifyEmail(ctx context.Context, token string) (*MessageResponse, error) {
	r := request{
		method: http.MethodGet,
		path:   "/auth/verify-email",
		query:  url.Values{"token": {token}},
	}

	resp, err := c.do(ctx, r)
	if err != nil {
		return nil, err
	}

	var out MessageResponse
	if err := decodeJSON(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResendVerification asks the server to mail a new verification link to the
// current user.
func (c *Client) ResendVerification(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "/auth/resend-verification", nil, nil)
}

// ForgotPassword requests a password reset mail for email.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.call(ctx, http.MethodPost, "/auth/forgot-password", emailRequest{Email: email}, nil)
}

// ResetPassword sets a new password using the token from the reset mail.
func (c *Client) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	return c.call(ctx, http.MethodPost, "/auth/reset-password", req, nil)
}
