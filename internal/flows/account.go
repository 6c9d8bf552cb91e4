package flows

import (
	"context"
	"errors"
	"strings"

	"github.com/aussiebroadwan/jobboard/pkg/boardsdk"
	"github.com/aussiebroadwan/jobboard/pkg/slogx"
	"github.com/aussiebroadwan/jobboard/pkg/strength"
)

const (
	MsgVerifyTokenMissing = "Verification token is missing. Please check your email for the correct verification link."
	MsgEmailVerified      = "Email verified successfully! You can now log in."
	MsgVerifyFailed       = "Email verification failed. The token may be invalid or expired."

	MsgResendFailed = "Failed to resend verification email. Please try again later."
	MsgResendSent   = "Verification email sent! Please check your inbox."

	MsgEmailRequired  = "Please enter your email address"
	MsgResetRequested = "If an account exists with that email, we've sent instructions on how to reset your password. The reset link will expire in 1 hour."

	MsgResetTokenMissing = "Reset token is missing. Please check your email for the correct reset link."
	MsgPasswordReset     = "Password has been reset successfully! You can now log in with your new password."
	MsgResetFailed       = "Password reset failed. The token may be invalid or expired."
)

// VerifyEmail confirms the address with the token from the mail and
// navigates to the login screen.
func VerifyEmail(ctx context.Context, api AccountAPI, token string) (*Navigation, error) {
	if strings.TrimSpace(token) == "" {
		return nil, invalid(MsgVerifyTokenMissing)
	}

	if _, err := api.VerifyEmail(ctx, token); err != nil {
		return nil, serverError(err, MsgVerifyFailed)
	}
	return &Navigation{To: LoginPath, Message: MsgEmailVerified}, nil
}

// ShowVerificationBanner reports whether user should be nagged to verify
// their email.
func ShowVerificationBanner(user *boardsdk.UserProfile) bool {
	return user != nil && user.Email != "" && !user.EmailVerified
}

// ResendVerification mails a new verification link and returns the
// confirmation to show.
func ResendVerification(ctx context.Context, api AccountAPI) (string, error) {
	if err := api.ResendVerification(ctx); err != nil {
		return "", serverError(err, MsgResendFailed)
	}
	return MsgResendSent, nil
}

// ForgotPassword requests a reset mail. Whether the address exists is never
// revealed: server failures are logged and the same confirmation is
// returned.
func ForgotPassword(ctx context.Context, api AccountAPI, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", invalid(MsgEmailRequired)
	}

	if err := api.ForgotPassword(ctx, email); err != nil {
		slogx.FromContext(ctx).Warn("password reset request failed", "error", err)
	}
	return MsgResetRequested, nil
}

// ResetPasswordForm is the reset screen's input.
type ResetPasswordForm struct {
	Token           string
	Password        string
	ConfirmPassword string
}

// Validate checks the token, the confirmation and the strength score.
func (f ResetPasswordForm) Validate() error {
	if strings.TrimSpace(f.Token) == "" {
		return invalid(MsgResetTokenMissing)
	}
	if f.Password != f.ConfirmPassword {
		return invalid(MsgPasswordMismatch)
	}
	if res := strength.Evaluate(f.Password, strength.Identity{}); !res.Acceptable {
		return invalid(res.Warning)
	}
	return nil
}

// ResetPassword sets a new password and navigates to the login screen.
func ResetPassword(ctx context.Context, api AccountAPI, form ResetPasswordForm) (*Navigation, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	err := api.ResetPassword(ctx, boardsdk.ResetPasswordRequest{Token: form.Token, Password: form.Password})
	if err != nil {
		return nil, serverError(err, MsgResetFailed)
	}
	return &Navigation{To: LoginPath, Message: MsgPasswordReset}, nil
}

// IsValidation reports whether err is a local validation failure.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

