package flows

import (
	"context"
	"errors"
	"sync"

	"github.com/aussiebroadwan/jobboard/internal/mfasetup"
	"github.com/aussiebroadwan/jobboard/internal/session"
)

const (
	MsgRequiredFields = "Please fill in all required fields"
	MsgIncompleteCode = "Please enter the 6-digit code from your authenticator app"
)

// ErrNoChallenge is returned by SubmitCode when no MFA step is open.
var ErrNoChallenge = errors.New("flows: no MFA challenge open")

// LoginForm is the password step's input.
type LoginForm struct {
	Username string
	Password string
}

// Validate requires both fields.
func (f LoginForm) Validate() error {
	if f.Username == "" || f.Password == "" {
		return invalid(MsgRequiredFields)
	}
	return nil
}

// LoginStep is what the user sees after a submit.
type LoginStep int

const (
	// StepDone means the user is signed in.
	StepDone LoginStep = iota
	// StepMFA means a code from the authenticator app is needed.
	StepMFA
)

// Login is the two-step login screen. It holds the credentials between the
// password step and the MFA step; they never enter the session store.
type Login struct {
	sess Session

	mu    sync.Mutex
	creds *session.Credentials
}

// NewLogin clears any stale session error, as the screen does on entry.
func NewLogin(sess Session) *Login {
	sess.ClearError()
	return &Login{sess: sess}
}

// Submit runs the password step. Errors are either a *ValidationError or
// the session's *session.Error; the session holds the message as well.
func (l *Login) Submit(ctx context.Context, form LoginForm) (LoginStep, *Navigation, error) {
	if err := form.Validate(); err != nil {
		return StepDone, nil, err
	}

	res, err := l.sess.Login(ctx, form.Username, form.Password)
	if err != nil {
		return StepDone, nil, err
	}

	if res.RequiresMFA {
		l.mu.Lock()
		l.creds = &session.Credentials{Username: form.Username, Password: form.Password}
		l.mu.Unlock()
		return StepMFA, nil, nil
	}
	return StepDone, &Navigation{To: DashboardPath}, nil
}

// SubmitCode runs the MFA step. The code is sanitised first; anything
// short of six digits is rejected locally. A wrong code leaves the step
// open for another try.
func (l *Login) SubmitCode(ctx context.Context, code string) (*Navigation, error) {
	l.mu.Lock()
	creds := l.creds
	l.mu.Unlock()
	if creds == nil {
		return nil, ErrNoChallenge
	}

	code = mfasetup.SanitizeCode(code)
	if len(code) != mfasetup.CodeLength {
		return nil, invalid(MsgIncompleteCode)
	}

	if _, err := l.sess.VerifyMFA(ctx, *creds, code); err != nil {
		return nil, err
	}

	l.forget()
	return &Navigation{To: DashboardPath}, nil
}

// Cancel abandons the MFA step.
func (l *Login) Cancel() {
	l.forget()
	l.sess.ResetMFAState()
}

// AwaitingCode reports whether the MFA step is open.
func (l *Login) AwaitingCode() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.creds != nil
}

func (l *Login) forget() {
	l.mu.Lock()
	l.creds = nil
	l.mu.Unlock()
}
