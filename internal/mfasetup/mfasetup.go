// Package mfasetup walks a signed-in user through TOTP enrollment:
// generating a secret, verifying a first code, and showing the backup codes.
package mfasetup

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aussiebroadwan/jobboard/internal/session"
	"github.com/aussiebroadwan/jobboard/pkg/boardsdk"
)

// Step is the position in the enrollment flow.
type Step string

const (
	StepGenerating Step = "generating"
	StepVerifying  Step = "verifying"
	StepCompleted  Step = "completed"
)

// CodeLength is the number of digits in a TOTP code.
const CodeLength = 6

const (
	LoginPath   = "/login"
	ProfilePath = "/profile"
)

const (
	MsgAlreadyEnabled = "MFA is already enabled for your account."
	MsgEnabled        = "MFA has been successfully enabled for your account."
	MsgSetupFailed    = "Failed to set up MFA. Please try again."
	MsgInvalidCode    = "Invalid verification code. Please try again."
)

var (
	// ErrAlreadyEnabled is wrapped by the Redirect returned when MFA is on.
	ErrAlreadyEnabled = errors.New("mfasetup: MFA already enabled")

	// ErrNotAuthenticated is wrapped by the Redirect returned to anonymous users.
	ErrNotAuthenticated = errors.New("mfasetup: not authenticated")

	// ErrIncompleteCode is returned by Verify before six digits are entered.
	ErrIncompleteCode = errors.New("mfasetup: code must be 6 digits")

	// ErrWrongStep is returned when an operation does not fit the current step.
	ErrWrongStep = errors.New("mfasetup: not allowed at this step")
)

// Redirect sends the user away from the flow.
type Redirect struct {
	To      string
	Message string
	Err     error
}

func (r *Redirect) Error() string {
	if r.Message != "" {
		return fmt.Sprintf("redirect to %s: %s", r.To, r.Message)
	}
	return "redirect to " + r.To
}

func (r *Redirect) Unwrap() error { return r.Err }

// API is the MFA part of the job board API.
type API interface {
	SetupMFA(ctx context.Context) (*boardsdk.MFASetup, error)
	VerifyMFA(ctx context.Context, code string) (*boardsdk.MFAVerifyResult, error)
}

// Profiles is the session as seen by the flow.
type Profiles interface {
	State() session.Session
	UpdateUserProfile(user *boardsdk.UserProfile)
}

// State is a snapshot of the flow.
type State struct {
	Step        Step
	Loading     bool
	Error       string
	Secret      string
	QRCode      string
	OTPAuthURL  string
	Code        string
	BackupCodes []string
}

// Flow is one enrollment attempt.
type Flow struct {
	api      API
	profiles Profiles

	mu    sync.Mutex
	state State
}

// New returns a flow at StepGenerating.
func New(api API, profiles Profiles) *Flow {
	return &Flow{
		api:      api,
		profiles: profiles,
		state:    State{Step: StepGenerating},
	}
}

// State returns a snapshot.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	st := f.state
	st.BackupCodes = append([]string(nil), f.state.BackupCodes...)
	return st
}

func (f *Flow) update(fn func(*State)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(&f.state)
}

// Start checks that the user may enroll and asks the server for a secret.
// An anonymous session or an account with MFA already on yields a
// *Redirect. A server failure stays at StepGenerating with Error set.
func (f *Flow) Start(ctx context.Context) error {
	sess := f.profiles.State()
	if !sess.IsAuthenticated || sess.User == nil {
		return &Redirect{To: LoginPath, Err: ErrNotAuthenticated}
	}
	if sess.User.MFAEnabled {
		return &Redirect{To: ProfilePath, Message: MsgAlreadyEnabled, Err: ErrAlreadyEnabled}
	}

	if st := f.State(); st.Step != StepGenerating || st.Loading {
		return ErrWrongStep
	}
	f.update(func(s *State) {
		s.Loading = true
		s.Error = ""
	})

	setup, err := f.api.SetupMFA(ctx)
	if err != nil {
		msg := boardsdk.ErrorMessage(err, MsgSetupFailed)
		f.update(func(s *State) {
			s.Loading = false
			s.Error = msg
		})
		return fmt.Errorf("setup mfa: %w", err)
	}

	f.update(func(s *State) {
		s.Loading = false
		s.Step = StepVerifying
		s.Secret = setup.Secret
		s.QRCode = setup.QRCode
		s.OTPAuthURL = setup.OTPAuthURL
	})
	return nil
}

// SanitizeCode keeps the digits of input, up to CodeLength of them.
func SanitizeCode(input string) string {
	out := make([]rune, 0, CodeLength)
	for _, r := range input {
		if len(out) == CodeLength {
			break
		}
		if r >= '0' && r <= '9' {
			out = append(out, r)
		}
	}
	return string(out)
}

// SetCode stores the sanitised code and returns it.
func (f *Flow) SetCode(input string) string {
	code := SanitizeCode(input)
	f.update(func(s *State) { s.Code = code })
	return code
}

// Verify submits the entered code. A rejected code keeps the flow at
// StepVerifying with Error set so the user can try again. Success moves to
// StepCompleted and marks the session's user as MFA enabled.
func (f *Flow) Verify(ctx context.Context) ([]string, error) {
	st := f.State()
	if st.Step != StepVerifying || st.Loading {
		return nil, ErrWrongStep
	}
	if len(st.Code) != CodeLength {
		return nil, ErrIncompleteCode
	}

	f.update(func(s *State) {
		s.Loading = true
		s.Error = ""
	})

	res, err := f.api.VerifyMFA(ctx, st.Code)
	if err != nil {
		msg := boardsdk.ErrorMessage(err, MsgInvalidCode)
		f.update(func(s *State) {
			s.Loading = false
			s.Error = msg
		})
		return nil, fmt.Errorf("verify mfa: %w", err)
	}

	codes := append([]string(nil), res.BackupCodes...)
	f.update(func(s *State) {
		s.Loading = false
		s.Step = StepCompleted
		s.BackupCodes = codes
		s.Code = ""
	})

	if user := f.profiles.State().User.Clone(); user != nil {
		user.MFAEnabled = true
		f.profiles.UpdateUserProfile(user)
	}
	return append([]string(nil), codes...), nil
}

// Finish leaves a completed flow.
func (f *Flow) Finish() (*Redirect, error) {
	if f.State().Step != StepCompleted {
		return nil, ErrWrongStep
	}
	return &Redirect{To: ProfilePath, Message: MsgEnabled}, nil
}
