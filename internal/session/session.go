// Package session holds the client's authentication state machine.
//
// The Session value is owned by a statex store and changes only through the
// actions in this package. Asynchronous operations (Login, VerifyMFA,
// Register, Logout, GetCurrentUser) dispatch a pending action that takes a
// ticket, call the API, then dispatch a completion carrying that ticket. A
// completion whose ticket is no longer the newest is dropped, so a slow
// response can never overwrite the result of a later operation.
package session

import "github.com/aussiebroadwan/jobboard/pkg/boardsdk"

// Phase is the externally visible state of a Session.
type Phase string

const (
	PhaseAnonymous      Phase = "anonymous"
	PhaseAuthenticating Phase = "authenticating"
	PhaseMFAPending     Phase = "mfa_pending"
	PhaseAuthenticated  Phase = "authenticated"
	PhaseError          Phase = "error"
)

// Session is a snapshot of the authentication state.
//
// isAuthenticated implies a user is present and no MFA challenge is open;
// an open MFA challenge implies no user.
type Session struct {
	User              *boardsdk.UserProfile
	IsAuthenticated   bool
	Loading           bool
	Error             string
	MFARequired       bool
	PendingMFAUserID  string
	RateLimitExceeded bool

	// seq is the ticket of the newest operation started.
	seq uint64
}

// Phase derives the state machine state from the flags.
func (s Session) Phase() Phase {
	switch {
	case s.Loading:
		return PhaseAuthenticating
	case s.MFARequired:
		return PhaseMFAPending
	case s.IsAuthenticated:
		return PhaseAuthenticated
	case s.Error != "":
		return PhaseError
	default:
		return PhaseAnonymous
	}
}

// clone detaches the snapshot from the store's copy of the user.
func (s Session) clone() Session {
	s.User = s.User.Clone()
	return s
}

// Credentials are kept by the login flow between the password step and the
// MFA step. They are never stored on the Session.
type Credentials struct {
	Username string
	Password string
}
