// Package fakeapi is an in-process implementation of the job board REST API.
//
// It follows the server's contract closely enough to exercise the client end
// to end: HS256 access cookies that expire with TOKEN_EXPIRED, rotating
// refresh cookies, TOTP MFA, email verification and reset tokens delivered
// to an inspectable outbox, OAuth redirects and job CRUD with ownership. Time
// is controllable so token expiry can be forced without sleeping.
package fakeapi

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/aussiebroadwan/jobboard/pkg/boardsdk"
	"github.com/aussiebroadwan/jobboard/pkg/cryptox"
	"github.com/aussiebroadwan/jobboard/pkg/httpx"
	"github.com/aussiebroadwan/jobboard/pkg/jwtx"
	"github.com/aussiebroadwan/jobboard/pkg/slogx"
)

// Cookie names used by the API.
const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"
)

// account is a stored user.
type account struct {
	profile      boardsdk.UserProfile
	passwordHash []byte

	mfaSecret     string
	pendingSecret string
	backupCodes   map[string]bool
}

// Server is the fake API. Use Handler to mount it or NewTestServer to run it.
type Server struct {
	logger      *slog.Logger
	key         []byte
	accessTTL   time.Duration
	loginLimit  httpx.RateLimitConfig
	callbackURL string

	mu            sync.Mutex
	offset        time.Duration
	failRefresh   bool
	refreshCalls  int
	accounts      map[string]*account // by id
	byUsername    map[string]string
	refreshTokens map[string]string // token -> user id
	verifyTokens  map[string]string
	resetTokens   map[string]string
	outbox        []Mail
	jobs          []boardsdk.Job
}

// Mail is a message the server would have sent.
type Mail struct {
	To    string
	Kind  string
	Token string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger logs served requests at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithLoginLimit rate limits POST /auth/login per client IP.
func WithLoginLimit(cfg httpx.RateLimitConfig) Option {
	return func(s *Server) { s.loginLimit = cfg }
}

// WithAccessTTL sets the access cookie lifetime.
func WithAccessTTL(d time.Duration) Option {
	return func(s *Server) { s.accessTTL = d }
}

// WithCallbackURL sets where OAuth logins redirect to.
func WithCallbackURL(u string) Option {
	return func(s *Server) { s.callbackURL = u }
}

// New returns an empty server.
func New(opts ...Option) *Server {
	s := &Server{
		logger:        slogx.Discard(),
		key:           []byte(cryptox.MustGenerateToken(cryptox.TokenSize256)),
		accessTTL:     jwtx.DefaultAccessTokenTTL,
		callbackURL:   "http://localhost:3000/oauth-callback",
		accounts:      make(map[string]*account),
		byUsername:    make(map[string]string),
		refreshTokens: make(map[string]string),
		verifyTokens:  make(map[string]string),
		resetTokens:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	login := http.Handler(http.HandlerFunc(s.handleLogin))
	if s.loginLimit.Enabled() {
		login = httpx.Chain(login, httpx.RateLimitByIP(s.loginLimit))
	}

	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.Handle("POST /auth/login", login)
	mux.HandleFunc("POST /auth/logout", s.handleLogout)
	mux.HandleFunc("POST /auth/refresh-token", s.handleRefresh)
	mux.Handle("GET /auth/me", s.authn(s.handleMe))
	mux.HandleFunc("GET /auth/google", s.handleOAuth(boardsdk.ProviderGoogle))
	mux.HandleFunc("GET /auth/github", s.handleOAuth(boardsdk.ProviderGitHub))
	mux.HandleFunc("GET /auth/verify-email", s.handleVerifyEmail)
	mux.Handle("POST /auth/resend-verification", s.authn(s.handleResendVerification))
	mux.HandleFunc("POST /auth/forgot-password", s.handleForgotPassword)
	mux.HandleFunc("POST /auth/reset-password", s.handleResetPassword)

	mux.Handle("POST /auth/mfa/setup", s.authn(s.handleMFASetup))
	mux.Handle("POST /auth/mfa/verify", s.authn(s.handleMFAVerify))
	mux.Handle("POST /auth/mfa/disable", s.authn(s.handleMFADisable))

	mux.Handle("GET /jobs", s.authn(s.handleListJobs))
	mux.Handle("POST /jobs", s.authn(s.handleCreateJob))
	mux.Handle("GET /jobs/{id}", s.authn(s.handleGetJob))
	mux.Handle("PUT /jobs/{id}", s.authn(s.handleUpdateJob))
	mux.Handle("DELETE /jobs/{id}", s.authn(s.handleDeleteJob))

	return httpx.Chain(mux, slogx.HTTPMiddleware(s.logger))
}

// NewTestServer starts s on a loopback listener. Call Close when done.
func NewTestServer(s *Server) *httptest.Server {
	return httptest.NewServer(s.Handler())
}

// now is the server clock.
func (s *Server) now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Now().Add(s.offset)
}

// Advance moves the server clock forward.
func (s *Server) Advance(d time.Duration) {
	s.mu.Lock()
	s.offset += d
	s.mu.Unlock()
}

// ExpireAccessTokens makes every access cookie issued so far expired.
func (s *Server) ExpireAccessTokens() {
	s.Advance(s.accessTTL + time.Second)
}

// SetFailRefresh makes POST /auth/refresh-token reject every request.
func (s *Server) SetFailRefresh(fail bool) {
	s.mu.Lock()
	s.failRefresh = fail
	s.mu.Unlock()
}

// RefreshCalls counts refresh requests received.
func (s *Server) RefreshCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCalls
}

// Outbox returns the mails sent so far.
func (s *Server) Outbox() []Mail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Mail(nil), s.outbox...)
}

// LastMail returns the newest mail of kind sent to to.
func (s *Server) LastMail(to, kind string) (Mail, bool) {
	mails := s.Outbox()
	for i := len(mails) - 1; i >= 0; i-- {
		if mails[i].To == to && mails[i].Kind == kind {
			return mails[i], true
		}
	}
	return Mail{}, false
}

// User returns the stored profile for username.
func (s *Server) User(username string) (boardsdk.UserProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byUsername[username]
	if !ok {
		return boardsdk.UserProfile{}, false
	}
	return s.accounts[id].profile, true
}

// MFASecret returns the active TOTP secret for username, for generating
// codes in tests.
func (s *Server) MFASecret(username string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byUsername[username]
	if !ok {
		return ""
	}
	acc := s.accounts[id]
	if acc.mfaSecret != "" {
		return acc.mfaSecret
	}
	return acc.pendingSecret
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	httpx.WriteJSON(w, status, boardsdk.MessageResponse{Message: message})
}
