package session

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/jobboard/pkg/boardsdk"
	"github.com/aussiebroadwan/jobboard/pkg/statex"
)

// AuthAPI is the part of the job board API the session needs.
type AuthAPI interface {
	Register(ctx context.Context, req boardsdk.RegisterRequest) (*boardsdk.UserProfile, error)
	Login(ctx context.Context, req boardsdk.LoginRequest) (*boardsdk.LoginResult, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*boardsdk.UserProfile, error)
}

var (
	// ErrSuperseded is returned when a newer operation started while this
	// one was in flight; its result was not applied.
	ErrSuperseded = errors.New("session: superseded by a newer operation")

	// ErrNoMFAChallenge is returned by VerifyMFA without an open challenge.
	ErrNoMFAChallenge = errors.New("session: no MFA challenge pending")
)

// Error is a rejected operation. Message is what the session stores and
// what views show.
type Error struct {
	Op          Op
	Message     string
	RateLimited bool
	Err         error
}

func (e *Error) Error() string { return string(e.Op) + ": " + e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Store is the auth session store.
type Store struct {
	api    AuthAPI
	state  *statex.Store[Session]
	logger *slog.Logger
}

// NewStore starts an anonymous session store. Call Close when done.
func NewStore(api AuthAPI, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		api:    api,
		state:  statex.New(Session{}, reduce, statex.WithLogger(logger)),
		logger: logger,
	}
}

// Close stops the store. Subscriptions are closed.
func (s *Store) Close() { s.state.Close() }

// State returns a snapshot of the session.
func (s *Store) State() Session { return s.state.State().clone() }

// Subscribe delivers a snapshot after every transition. Call cancel to stop.
func (s *Store) Subscribe() (<-chan Session, func()) {
	return s.state.Subscribe()
}

func (s *Store) begin(op Op) uint64 {
	return s.state.Dispatch(pendingAction{op: op}).seq
}

// settle dispatches a completion and reports whether it was applied.
func (s *Store) settle(ticket uint64, a statex.Action) error {
	if s.state.Dispatch(a).seq != ticket {
		return ErrSuperseded
	}
	return nil
}

func (s *Store) reject(op Op, ticket uint64, err error) error {
	rej := &Error{
		Op:          op,
		Message:     boardsdk.ErrorMessage(err, op.defaultMessage()),
		RateLimited: boardsdk.IsRateLimited(err),
		Err:         err,
	}
	if !rej.RateLimited {
		rej.RateLimited = boardsdk.HasRateLimitMarker(rej.Message)
	}

	s.logger.Debug("auth operation rejected", "op", op, "error", err)

	if serr := s.settle(ticket, rejectedAction{
		op:          op,
		ticket:      ticket,
		message:     rej.Message,
		rateLimited: rej.RateLimited,
	}); serr != nil {
		return serr
	}
	return rej
}

// Login starts a password login. On an MFA challenge the result has
// RequiresMFA set and the session moves to mfa_pending.
func (s *Store) Login(ctx context.Context, username, password string) (*boardsdk.LoginResult, error) {
	ticket := s.begin(OpLogin)

	res, err := s.api.Login(ctx, boardsdk.LoginRequest{Username: username, Password: password})
	if err != nil {
		return nil, s.reject(OpLogin, ticket, err)
	}

	if err := s.settle(ticket, loginFulfilled{ticket: ticket, result: *res}); err != nil {
		return nil, err
	}
	return res, nil
}

// VerifyMFA completes an open MFA challenge by repeating the login with the
// code. A failure keeps the challenge open so the user can retry.
func (s *Store) VerifyMFA(ctx context.Context, creds Credentials, code string) (*boardsdk.UserProfile, error) {
	if !s.state.State().MFARequired {
		return nil, ErrNoMFAChallenge
	}

	ticket := s.begin(OpVerifyMFA)

	res, err := s.api.Login(ctx, boardsdk.LoginRequest{
		Username: creds.Username,
		Password: creds.Password,
		MFAToken: code,
	})
	if err == nil && res.RequiresMFA {
		err = errors.New("server repeated the MFA challenge")
	}
	if err != nil {
		return nil, s.reject(OpVerifyMFA, ticket, err)
	}

	if err := s.settle(ticket, verifyMFAFulfilled{ticket: ticket, user: res.User}); err != nil {
		return nil, err
	}
	return res.User.Clone(), nil
}

// Register creates an account. It does not sign the user in.
func (s *Store) Register(ctx context.Context, req boardsdk.RegisterRequest) (*boardsdk.UserProfile, error) {
	ticket := s.begin(OpRegister)

	user, err := s.api.Register(ctx, req)
	if err != nil {
		return nil, s.reject(OpRegister, ticket, err)
	}

	if err := s.settle(ticket, registerFulfilled{ticket: ticket}); err != nil {
		return nil, err
	}
	return user, nil
}

// Logout clears the local session and tells the server. The local session
// is cleared even when the server call fails; that error is returned for
// logging only.
func (s *Store) Logout(ctx context.Context) error {
	ticket := s.begin(OpLogout)

	err := s.api.Logout(ctx)
	if err != nil {
		s.logger.Warn("server logout failed, local session cleared", "error", err)
	}

	_ = s.settle(ticket, logoutSettled{ticket: ticket})
	return err
}

// GetCurrentUser rehydrates the session from the server's cookies. Failure
// leaves the session anonymous and stores no error.
func (s *Store) GetCurrentUser(ctx context.Context) (*boardsdk.UserProfile, error) {
	ticket := s.begin(OpGetCurrentUser)

	user, err := s.api.Me(ctx)
	if err != nil {
		s.logger.Debug("session rehydration failed", "error", err)
		if serr := s.settle(ticket, rejectedAction{op: OpGetCurrentUser, ticket: ticket}); serr != nil {
			return nil, serr
		}
		return nil, err
	}

	if err := s.settle(ticket, currentUserFulfilled{ticket: ticket, user: user}); err != nil {
		return nil, err
	}
	return user.Clone(), nil
}

// OAuthLoginSuccess signs in a user delivered by an OAuth redirect. A nil
// user is ignored.
func (s *Store) OAuthLoginSuccess(user *boardsdk.UserProfile) {
	s.state.Dispatch(oauthLoginSuccess{user: user.Clone()})
}

// ClearError clears the error and the rate limit flag together.
func (s *Store) ClearError() {
	s.state.Dispatch(clearError{})
}

// UpdateUserProfile replaces the signed-in user's profile, e.g. after MFA
// was enabled or disabled. It is ignored while signed out.
func (s *Store) UpdateUserProfile(user *boardsdk.UserProfile) {
	s.state.Dispatch(updateUserProfile{user: user.Clone()})
}

// ResetMFAState abandons an open MFA challenge.
func (s *Store) ResetMFAState() {
	s.state.Dispatch(resetMFAState{})
}
