// Package flows implements the authentication screens as plain Go: form
// validation, the two-step login, registration, OAuth completion, email
// verification, password reset and MFA management. Each flow validates
// locally before anything reaches the server and reports where the user
// should go next as a Navigation.
package flows

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aussiebroadwan/jobboard/internal/session"
	"github.com/aussiebroadwan/jobboard/pkg/boardsdk"
)

// Locations the flows navigate to.
const (
	LoginPath          = "/login"
	DashboardPath      = "/dashboard"
	ProfilePath        = "/profile"
	ForgotPasswordPath = "/forgot-password"
)

// Navigation tells the front end where to go next, with an optional
// message for the destination to show.
type Navigation struct {
	To      string
	Message string
}

// ValidationError is a form that failed local validation. Message is the
// single line to show; Fields holds per-field messages when there are any.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}

	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

func invalid(msg string) *ValidationError { return &ValidationError{Message: msg} }

// Session is the part of the session store the flows drive.
type Session interface {
	State() session.Session
	Login(ctx context.Context, username, password string) (*boardsdk.LoginResult, error)
	VerifyMFA(ctx context.Context, creds session.Credentials, code string) (*boardsdk.UserProfile, error)
	Register(ctx context.Context, req boardsdk.RegisterRequest) (*boardsdk.UserProfile, error)
	OAuthLoginSuccess(user *boardsdk.UserProfile)
	UpdateUserProfile(user *boardsdk.UserProfile)
	ClearError()
	ResetMFAState()
}

// AccountAPI is the part of the API used outside the session store.
type AccountAPI interface {
	VerifyEmail(ctx context.Context, token string) (*boardsdk.MessageResponse, error)
	ResendVerification(ctx context.Context) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req boardsdk.ResetPasswordRequest) error
	DisableMFA(ctx context.Context, req boardsdk.MFADisableRequest) error
}

// ServerError is a server rejection with the message to show.
type ServerError struct {
	Message string
	Err     error
}

func (e *ServerError) Error() string { return e.Message }

func (e *ServerError) Unwrap() error { return e.Err }

func serverError(err error, fallback string) *ServerError {
	return &ServerError{Message: boardsdk.ErrorMessage(err, fallback), Err: err}
}
