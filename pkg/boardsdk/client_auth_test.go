package boardsdk_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/jobboard/internal/fakeapi"
	"github.com/aussiebroadwan/jobboard/pkg/boardsdk"
	"github.com/aussiebroadwan/jobboard/pkg/httpx"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := testContext(t)

	user, err := h.client.Register(ctx, boardsdk.RegisterRequest{
		Name: "Alice", Username: "alice", Email: "alice@example.com", Password: testPassword,
	})
	require.NoError(t, err)
	require.Equal(t, "alice", user.Username)
	require.False(t, user.EmailVerified)

	_, err = h.client.Me(ctx)
	require.True(t, boardsdk.IsStatus(err, http.StatusUnauthorized), "register must not sign in")

	_, err = h.client.Register(ctx, boardsdk.RegisterRequest{Username: "alice", Password: testPassword})
	require.Equal(t, "Username already taken", boardsdk.ErrorMessage(err, ""))

	_, err = h.client.Login(ctx, boardsdk.LoginRequest{Username: "alice", Password: "wrong"})
	var apiErr *boardsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, "Invalid credentials", apiErr.Message)

	res, err := h.client.Login(ctx, boardsdk.LoginRequest{Username: "alice", Password: testPassword})
	require.NoError(t, err)
	require.Equal(t, user.ID, res.User.ID)

	me, err := h.client.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, "alice", me.Username)

	require.NoError(t, h.client.Logout(ctx))
	_, err = h.client.Me(ctx)
	require.True(t, boardsdk.IsStatus(err, http.StatusUnauthorized))
}

func TestLoginMFAChallenge(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := testContext(t)
	h.signIn(t, "bob")

	setup, err := h.client.SetupMFA(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, setup.Secret)
	require.True(t, strings.HasPrefix(setup.QRCode, "data:image/png;base64,"))

	_, err = h.client.VerifyMFA(ctx, "000000")
	require.Error(t, err)

	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	verified, err := h.client.VerifyMFA(ctx, code)
	require.NoError(t, err)
	require.Len(t, verified.BackupCodes, 8)

	_, err = h.client.SetupMFA(ctx)
	require.Equal(t, "MFA is already enabled", boardsdk.ErrorMessage(err, ""))

	require.NoError(t, h.client.Logout(ctx))

	res, err := h.client.Login(ctx, boardsdk.LoginRequest{Username: "bob", Password: testPassword})
	require.NoError(t, err)
	require.True(t, res.RequiresMFA)
	require.Nil(t, res.User)
	require.NotEmpty(t, res.UserID)

	_, err = h.client.Me(ctx)
	require.Error(t, err, "challenge must not issue a session")

	res, err = h.client.Login(ctx, boardsdk.LoginRequest{
		Username: "bob", Password: testPassword, MFAToken: verified.BackupCodes[0],
	})
	require.NoError(t, err)
	require.True(t, res.User.MFAEnabled)

	code, err = totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, h.client.DisableMFA(ctx, boardsdk.MFADisableRequest{Password: testPassword, MFAToken: code}))

	me, err := h.client.Me(ctx)
	require.NoError(t, err)
	require.False(t, me.MFAEnabled)
}

func TestRegisterMessageOnly(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusCreated, map[string]string{"message": "User registered"})
	}))
	t.Cleanup(srv.Close)

	user, err := boardsdk.NewClient(srv.URL).Register(testContext(t), boardsdk.RegisterRequest{Username: "zoe", Password: testPassword})
	require.NoError(t, err)
	require.Nil(t, user)
}

func TestRefreshOnExpiredToken(t *testing.T) {
	t.Parallel()

	t.Run("refreshes once and replays", func(t *testing.T) {
		h := newHarness(t)
		ctx := testContext(t)
		h.signIn(t, "carol")

		h.api.ExpireAccessTokens()

		me, err := h.client.Me(ctx)
		require.NoError(t, err)
		require.Equal(t, "carol", me.Username)
		require.Equal(t, 1, h.api.RefreshCalls())

		_, err = h.client.Me(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, h.api.RefreshCalls(), "fresh cookie needs no refresh")
	})

	t.Run("failed refresh surfaces original error", func(t *testing.T) {
		h := newHarness(t)
		ctx := testContext(t)
		h.signIn(t, "dave")

		h.api.ExpireAccessTokens()
		h.api.SetFailRefresh(true)

		_, err := h.client.Me(ctx)
		var apiErr *boardsdk.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
		require.Equal(t, boardsdk.CodeTokenExpired, apiErr.Code)
		require.Equal(t, 1, h.api.RefreshCalls())
	})

	t.Run("replay still expired surfaces post-refresh error", func(t *testing.T) {
		var calls, refreshes atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/auth/refresh-token" {
				refreshes.Add(1)
				httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Token refreshed"})
				return
			}
			n := calls.Add(1)
			msg := "Access token expired"
			if n > 1 {
				msg = "Access token still expired"
			}
			httpx.WriteError(w, http.StatusUnauthorized, msg, boardsdk.CodeTokenExpired)
		}))
		t.Cleanup(srv.Close)

		_, err := boardsdk.NewClient(srv.URL).Me(testContext(t))

		var apiErr *boardsdk.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
		require.Equal(t, boardsdk.CodeTokenExpired, apiErr.Code)
		require.Equal(t, "Access token still expired", apiErr.Message)
		require.EqualValues(t, 1, refreshes.Load())
		require.EqualValues(t, 2, calls.Load())
	})

	t.Run("other 401s are not refreshed", func(t *testing.T) {
		h := newHarness(t)
		ctx := testContext(t)

		_, err := h.client.Me(ctx)
		require.True(t, boardsdk.IsStatus(err, http.StatusUnauthorized))
		require.Zero(t, h.api.RefreshCalls())
	})

	t.Run("request body is replayed", func(t *testing.T) {
		h := newHarness(t)
		ctx := testContext(t)
		h.signIn(t, "erin")

		h.api.ExpireAccessTokens()

		job, err := h.client.CreateJob(ctx, boardsdk.JobInput{Title: "Replayed", EmploymentType: boardsdk.Contract, IsActive: true})
		require.NoError(t, err)
		require.Equal(t, "Replayed", job.Title)
		require.Equal(t, 1, h.api.RefreshCalls())
	})
}

func TestLoginRateLimited(t *testing.T) {
	t.Parallel()

	h := newHarness(t, fakeapi.WithLoginLimit(httpx.RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute, Burst: 2}))
	ctx := testContext(t)

	var err error
	for range 3 {
		_, err = h.client.Login(ctx, boardsdk.LoginRequest{Username: "x", Password: "y"})
	}

	require.True(t, boardsdk.IsRateLimited(err))
	require.True(t, boardsdk.HasRateLimitMarker(boardsdk.ErrorMessage(err, "")))
}

func TestEmailVerificationAndReset(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	ctx := testContext(t)
	h.signIn(t, "frank")

	require.NoError(t, h.client.ResendVerification(ctx))
	mail, ok := h.api.LastMail("frank@example.com", fakeapi.MailVerify)
	require.True(t, ok)

	_, err := h.client.VerifyEmail(ctx, "bogus")
	require.Equal(t, "Invalid or expired verification token", boardsdk.ErrorMessage(err, ""))

	msg, err := h.client.VerifyEmail(ctx, mail.Token)
	require.NoError(t, err)
	require.NotEmpty(t, msg.Message)

	me, err := h.client.Me(ctx)
	require.NoError(t, err)
	require.True(t, me.EmailVerified)

	require.NoError(t, h.client.ForgotPassword(ctx, "frank@example.com"))
	reset, ok := h.api.LastMail("frank@example.com", fakeapi.MailReset)
	require.True(t, ok)

	require.NoError(t, h.client.ResetPassword(ctx, boardsdk.ResetPasswordRequest{Token: reset.Token, Password: "N3w!password"}))

	_, err = h.client.Login(ctx, boardsdk.LoginRequest{Username: "frank", Password: testPassword})
	require.Error(t, err)
	_, err = h.client.Login(ctx, boardsdk.LoginRequest{Username: "frank", Password: "N3w!password"})
	require.NoError(t, err)
}

func TestOAuthURL(t *testing.T) {
	t.Parallel()

	c := boardsdk.NewClient("https://api.example.com/api/")
	u, err := c.OAuthURL(boardsdk.ProviderGitHub)
	require.NoError(t, err)
	require.Equal(t, "https://api.example.com/api/auth/github", u)

	_, err = c.OAuthURL("gitlab")
	require.Error(t, err)
}

func TestErrorHelpers(t *testing.T) {
	t.Parallel()

	plain := errors.New("dial tcp: refused")
	require.Equal(t, "Login failed", boardsdk.ErrorMessage(plain, "Login failed"))
	require.False(t, boardsdk.IsRateLimited(plain))

	apiErr := &boardsdk.APIError{StatusCode: http.StatusTooManyRequests}
	require.True(t, boardsdk.IsRateLimited(apiErr))
	require.Equal(t, "HTTP 429: Too Many Requests", apiErr.Error())

	marker := &boardsdk.APIError{StatusCode: http.StatusBadRequest, Message: "Too many login attempts"}
	require.True(t, boardsdk.IsRateLimited(marker))
}
