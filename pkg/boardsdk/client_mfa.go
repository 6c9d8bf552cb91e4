package boardsdk

import (
	"context"
	"fmt"
	"net/http"
)

// SetupMFA starts TOTP enrollment for the current user.
func (c *Client) SetupMFA(ctx context.Context) (*MFASetup, error) {
	var out MFASetup
	if err := c.call(ctx, http.MethodPost, "/auth/mfa/setup", nil, &out); err != nil {
		return nil, err
	}

	if out.Secret == "" {
		return nil, fmt.Errorf("%w: mfa secret missing", ErrMalformedResponse)
	}
	return &out, nil
}

// VerifyMFA completes enrollment with a code from the authenticator app and
// returns the backup codes. They are only ever returned once.
func (c *Client) VerifyMFA(ctx context.Context, code string) (*MFAVerifyResult, error) {
	var out MFAVerifyResult
	if err := c.call(ctx, http.MethodPost, "/auth/mfa/verify", mfaVerifyRequest{Token: code}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DisableMFA turns MFA off. The server requires both the password and a
// current code.
func (c *Client) DisableMFA(ctx context.Context, req MFADisableRequest) error {
	return c.call(ctx, http.MethodPost, "/auth/mfa/disable", req, nil)
}
