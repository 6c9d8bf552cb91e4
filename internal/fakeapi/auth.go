package fakeapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/jobboard/pkg/boardsdk"
	"github.com/aussiebroadwan/jobboard/pkg/cryptox"
	"github.com/aussiebroadwan/jobboard/pkg/httpx"
	"github.com/aussiebroadwan/jobboard/pkg/idx"
	"github.com/aussiebroadwan/jobboard/pkg/jwtx"
	"github.com/aussiebroadwan/jobboard/pkg/slogx"
	"golang.org/x/crypto/bcrypt"
)

const (
	MailVerify = "verify-email"
	MailReset  = "reset-password"
)

// ErrUsernameTaken is returned by CreateUser for a duplicate username.
var ErrUsernameTaken = errors.New("fakeapi: username already taken")

type userIDKey struct{}

func userIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}

// authn requires a valid access cookie. An expired one is answered with
// the TOKEN_EXPIRED code the client refreshes on.
func (s *Server) authn(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(AccessCookie)
		if err != nil || c.Value == "" {
			httpx.WriteError(w, http.StatusUnauthorized, "Not authenticated", "")
			return
		}

		claims, err := jwtx.VerifyHS256(c.Value, s.key, s.now())
		switch {
		case errors.Is(err, jwtx.ErrExpired):
			httpx.WriteError(w, http.StatusUnauthorized, "Token expired", boardsdk.CodeTokenExpired)
			return
		case err != nil:
			httpx.WriteError(w, http.StatusUnauthorized, "Invalid token", "")
			return
		}

		s.mu.Lock()
		_, ok := s.accounts[claims.Subject]
		s.mu.Unlock()
		if !ok {
			httpx.WriteError(w, http.StatusUnauthorized, "User not found", "")
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), userIDKey{}, claims.Subject)))
	})
}

// issueSession sets fresh access and refresh cookies for the user.
// s.mu must not be held.
func (s *Server) issueSession(w http.ResponseWriter, id, username string) error {
	now := s.now()
	access, err := jwtx.SignHS256(jwtx.NewAccessClaims(id, username, s.accessTTL, now), s.key)
	if err != nil {
		return err
	}
	refresh := cryptox.MustGenerateToken(cryptox.TokenSize256)

	s.mu.Lock()
	s.refreshTokens[refresh] = id
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: AccessCookie, Value: access, Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	http.SetCookie(w, &http.Cookie{
		Name: RefreshCookie, Value: refresh, Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode,
		MaxAge: int(jwtx.DefaultRefreshTokenTTL / time.Second),
	})
	return nil
}

func clearSession(w http.ResponseWriter) {
	for _, name := range []string{AccessCookie, RefreshCookie} {
		http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	}
}

type registerBody struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body registerBody
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body", "")
		return
	}
	if body.Username == "" || body.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Username and password are required", "")
		return
	}

	profile, err := s.CreateUser(body.Name, body.Username, body.Email, body.Password)
	switch {
	case errors.Is(err, ErrUsernameTaken):
		httpx.WriteError(w, http.StatusBadRequest, "Username already taken", "")
		return
	case err != nil:
		httpx.WriteError(w, http.StatusInternalServerError, "Server error", "")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user":    profile,
	})
}

// CreateUser stores a new account. An email gets a verification mail.
func (s *Server) CreateUser(name, username, email, password string) (boardsdk.UserProfile, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return boardsdk.UserProfile{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byUsername[username]; taken {
		return boardsdk.UserProfile{}, ErrUsernameTaken
	}

	acc := &account{
		profile: boardsdk.UserProfile{
			ID:       idx.New().String(),
			Username: username,
			Name:     name,
			Email:    strings.TrimSpace(email),
		},
		passwordHash: hash,
	}
	s.accounts[acc.profile.ID] = acc
	s.byUsername[username] = acc.profile.ID

	if acc.profile.Email != "" {
		s.mailLocked(acc.profile.Email, MailVerify, s.verifyTokens, acc.profile.ID)
	}
	return acc.profile, nil
}

// mailLocked issues a one-time token into tokens and records the mail.
func (s *Server) mailLocked(to, kind string, tokens map[string]string, userID string) {
	tok := cryptox.MustGenerateToken(cryptox.TokenSize128)
	tokens[tok] = userID
	s.outbox = append(s.outbox, Mail{To: to, Kind: kind, Token: tok})
}

func (s *Server) checkPassword(acc *account, password string) bool {
	s.mu.Lock()
	hash := acc.passwordHash
	s.mu.Unlock()
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	var body boardsdk.LoginRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body", "")
		return
	}

	s.mu.Lock()
	acc := s.accounts[s.byUsername[body.Username]]
	s.mu.Unlock()

	if acc == nil || !s.checkPassword(acc, body.Password) {
		log.Debug("login rejected", "username", body.Username)
		httpx.WriteError(w, http.StatusUnauthorized, "Invalid credentials", "")
		return
	}

	s.mu.Lock()
	mfaOn := acc.profile.MFAEnabled
	secret := acc.mfaSecret
	s.mu.Unlock()

	if mfaOn {
		if body.MFAToken == "" {
			httpx.WriteJSON(w, http.StatusOK, map[string]any{
				"message":     "MFA verification required",
				"requiresMfa": true,
				"userId":      acc.profile.ID,
			})
			return
		}
		if !s.checkCode(acc, secret, body.MFAToken) {
			httpx.WriteError(w, http.StatusUnauthorized, "Invalid MFA token", "")
			return
		}
	}

	s.signIn(w, acc)
}

func (s *Server) signIn(w http.ResponseWriter, acc *account) {
	s.mu.Lock()
	profile := acc.profile
	s.mu.Unlock()

	if err := s.issueSession(w, profile.ID, profile.Username); err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Server error", "")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"user": profile})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(RefreshCookie); err == nil {
		s.mu.Lock()
		delete(s.refreshTokens, c.Value)
		s.mu.Unlock()
	}
	clearSession(w)
	writeMessage(w, http.StatusOK, "Logged out successfully")
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.refreshCalls++
	fail := s.failRefresh
	s.mu.Unlock()

	c, err := r.Cookie(RefreshCookie)
	if fail || err != nil {
		httpx.WriteError(w, http.StatusUnauthorized, "Refresh token required", "")
		return
	}

	s.mu.Lock()
	id, ok := s.refreshTokens[c.Value]
	delete(s.refreshTokens, c.Value)
	acc := s.accounts[id]
	s.mu.Unlock()

	if !ok || acc == nil {
		httpx.WriteError(w, http.StatusUnauthorized, "Invalid refresh token", "")
		return
	}

	if err := s.issueSession(w, acc.profile.ID, acc.profile.Username); err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Server error", "")
		return
	}
	writeMessage(w, http.StatusOK, "Token refreshed")
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	profile := s.accounts[userIDFrom(r.Context())].profile
	s.mu.Unlock()

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"user": profile})
}

// handleOAuth skips the provider round trip: it links a fixed provider
// account and redirects straight to the callback with the user attached.
func (s *Server) handleOAuth(provider boardsdk.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := string(provider) + "-user"

		s.mu.Lock()
		acc := s.accounts[s.byUsername[username]]
		s.mu.Unlock()

		if acc == nil {
			if _, err := s.CreateUser("", username, "", cryptox.MustGenerateToken(cryptox.TokenSize128)); err != nil {
				httpx.WriteError(w, http.StatusInternalServerError, "Server error", "")
				return
			}
			s.mu.Lock()
			acc = s.accounts[s.byUsername[username]]
			switch provider {
			case boardsdk.ProviderGoogle:
				acc.profile.GoogleID = "g-" + acc.profile.ID
			case boardsdk.ProviderGitHub:
				acc.profile.GithubID = "gh-" + acc.profile.ID
			}
			s.mu.Unlock()
		}

		s.mu.Lock()
		profile := acc.profile
		s.mu.Unlock()

		if err := s.issueSession(w, profile.ID, profile.Username); err != nil {
			httpx.WriteError(w, http.StatusInternalServerError, "Server error", "")
			return
		}

		payload, _ := json.Marshal(profile)
		q := url.Values{"user": {string(payload)}, "provider": {string(provider)}}
		http.Redirect(w, r, s.callbackURL+"?"+q.Encode(), http.StatusFound)
	}
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")

	s.mu.Lock()
	id, ok := s.verifyTokens[token]
	if ok {
		delete(s.verifyTokens, token)
		s.accounts[id].profile.EmailVerified = true
	}
	s.mu.Unlock()

	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid or expired verification token", "")
		return
	}
	writeMessage(w, http.StatusOK, "Email verified successfully")
}

func (s *Server) handleResendVerification(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.accounts[userIDFrom(r.Context())]
	switch {
	case acc.profile.Email == "":
		httpx.WriteError(w, http.StatusBadRequest, "No email address on this account", "")
	case acc.profile.EmailVerified:
		httpx.WriteError(w, http.StatusBadRequest, "Email is already verified", "")
	default:
		s.mailLocked(acc.profile.Email, MailVerify, s.verifyTokens, acc.profile.ID)
		writeMessage(w, http.StatusOK, "Verification email sent")
	}
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil || body.Email == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Email is required", "")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, acc := range s.accounts {
		if strings.EqualFold(acc.profile.Email, body.Email) {
			s.mailLocked(acc.profile.Email, MailReset, s.resetTokens, acc.profile.ID)
			writeMessage(w, http.StatusOK, "Password reset email sent")
			return
		}
	}
	httpx.WriteError(w, http.StatusNotFound, "No account with that email", "")
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var body boardsdk.ResetPasswordRequest
	if err := httpx.DecodeJSON(r, &body); err != nil || body.Token == "" || body.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Token and password are required", "")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.MinCost)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "Server error", "")
		return
	}

	s.mu.Lock()
	id, ok := s.resetTokens[body.Token]
	if ok {
		delete(s.resetTokens, body.Token)
		s.accounts[id].passwordHash = hash
	}
	s.mu.Unlock()

	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid or expired reset token", "")
		return
	}
	writeMessage(w, http.StatusOK, "Password has been reset")
}
