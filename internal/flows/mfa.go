package flows

import (
	"context"
	"errors"
	"strings"

	"github.com/aussiebroadwan/jobboard/internal/mfasetup"
	"github.com/aussiebroadwan/jobboard/pkg/boardsdk"
)

const (
	MsgVerifyEmailFirst = "You need to verify your email address before enabling two-factor authentication."
	MsgMFADisabled      = "Two-factor authentication has been disabled successfully."
	MsgDisableFailed    = "Failed to disable MFA. Please try again."
	MsgMFANotEnabled    = "Two-factor authentication is not enabled for your account."
)

// ErrEmailUnverified is returned by CanEnableMFA for accounts with an
// unverified email.
var ErrEmailUnverified = errors.New("flows: email not verified")

// CanEnableMFA reports whether user may start MFA enrollment. Accounts with
// an email must have verified it first; accounts without one may proceed.
func CanEnableMFA(user *boardsdk.UserProfile) error {
	if user == nil {
		return invalid(MsgRequiredFields)
	}
	if user.MFAEnabled {
		return invalid(mfasetup.MsgAlreadyEnabled)
	}
	if ShowVerificationBanner(user) {
		return &ValidationError{Message: MsgVerifyEmailFirst, Fields: map[string]string{"email": ErrEmailUnverified.Error()}}
	}
	return nil
}

// DisableMFAForm is the disable screen's input. Code may be a TOTP code or a
// backup code, so it is only trimmed.
type DisableMFAForm struct {
	Password string
	Code     string
}

// DisableMFA turns MFA off and clears the flag on the stored profile.
func DisableMFA(ctx context.Context, api AccountAPI, sess Session, form DisableMFAForm) (*Navigation, error) {
	user := sess.State().User.Clone()
	if user == nil || !user.MFAEnabled {
		return nil, invalid(MsgMFANotEnabled)
	}
	form.Code = strings.TrimSpace(form.Code)
	if form.Password == "" || form.Code == "" {
		return nil, invalid(MsgRequiredFields)
	}

	if err := api.DisableMFA(ctx, boardsdk.MFADisableRequest{Password: form.Password, MFAToken: form.Code}); err != nil {
		return nil, serverError(err, MsgDisableFailed)
	}

	user.MFAEnabled = false
	sess.UpdateUserProfile(user)
	return &Navigation{To: ProfilePath, Message: MsgMFADisabled}, nil
}
