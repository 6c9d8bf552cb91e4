package board_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/jobboard/internal/fakeapi"
	"github.com/aussiebroadwan/jobboard/internal/flows"
	"github.com/aussiebroadwan/jobboard/internal/guard"
	"github.com/aussiebroadwan/jobboard/internal/session"
	"github.com/aussiebroadwan/jobboard/pkg/httpx"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

// TestSessionRefreshAfterRestart verifies that a process started after the
// access token expired rehydrates through a single refresh.
func TestSessionRefreshAfterRestart(t *testing.T) {
	b := setupBoard(t)
	b.createUser(t, "alice", "")
	dev := newDevice(t, b)
	ctx := testContext(t)

	first := dev.start(t)
	_, err := first.Session.Login(ctx, "alice", testPassword)
	require.NoError(t, err)
	oldAccess, ok := first.AccessToken()
	require.True(t, ok)
	require.NoError(t, first.Close())

	b.api.ExpireAccessTokens()

	second := dev.start(t)
	require.NoError(t, second.Guard.Require(ctx))
	require.Equal(t, session.PhaseAuthenticated, second.Session.State().Phase())
	require.Equal(t, 1, b.api.RefreshCalls())

	newAccess, ok := second.AccessToken()
	require.True(t, ok)
	require.NotEqual(t, oldAccess, newAccess, "rotated cookie replaces the old one")

	// The rotated cookies were persisted: a third process needs no refresh.
	require.NoError(t, second.Close())
	third := dev.start(t)
	require.NoError(t, third.Guard.Require(ctx))
	require.Equal(t, 1, b.api.RefreshCalls())
}

// TestRefreshFailureSendsToLogin verifies the guard redirects when the
// refresh token is rejected, and that no error is stored on the session.
func TestRefreshFailureSendsToLogin(t *testing.T) {
	b := setupBoard(t)
	b.createUser(t, "bob", "")
	dev := newDevice(t, b)
	ctx := testContext(t)

	first := dev.start(t)
	_, err := first.Session.Login(ctx, "bob", testPassword)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	b.api.ExpireAccessTokens()
	b.api.SetFailRefresh(true)

	second := dev.start(t)
	err = second.Guard.Require(ctx)
	require.ErrorIs(t, err, guard.ErrLoginRequired)

	var redirect *guard.RedirectError
	require.ErrorAs(t, err, &redirect)
	require.Equal(t, guard.DefaultLoginPath, redirect.To)

	st := second.Session.State()
	require.Equal(t, session.PhaseAnonymous, st.Phase())
	require.Empty(t, st.Error)
	require.Equal(t, 1, b.api.RefreshCalls())
}

// TestMFALoginScenario walks the two-step login and checks the resulting
// session survives a restart.
func TestMFALoginScenario(t *testing.T) {
	b := setupBoard(t)
	b.createUser(t, "carol", "")
	dev := newDevice(t, b)
	ctx := testContext(t)

	// Enroll with the raw client.
	a := dev.start(t)
	_, err := a.Session.Login(ctx, "carol", testPassword)
	require.NoError(t, err)
	setup, err := a.Client.SetupMFA(ctx)
	require.NoError(t, err)
	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	res, err := a.Client.VerifyMFA(ctx, code)
	require.NoError(t, err)
	require.Len(t, res.BackupCodes, 8)
	require.NoError(t, a.Session.Logout(ctx))
	require.NoError(t, a.Close())

	// Sign in again on a fresh process with a backup code.
	a = dev.start(t)
	login := flows.NewLogin(a.Session)
	step, _, err := login.Submit(ctx, flows.LoginForm{Username: "carol", Password: testPassword})
	require.NoError(t, err)
	require.Equal(t, flows.StepMFA, step)
	require.Equal(t, session.PhaseMFAPending, a.Session.State().Phase())

	_, err = login.SubmitCode(ctx, "12")
	require.True(t, flows.IsValidation(err))

	// Backup codes are not six digits, so they go through the store directly.
	_, err = a.Session.VerifyMFA(ctx, session.Credentials{Username: "carol", Password: testPassword}, res.BackupCodes[0])
	require.NoError(t, err)
	require.True(t, a.Session.State().User.MFAEnabled)
	require.NoError(t, a.Close())

	a = dev.start(t)
	require.NoError(t, a.Guard.Require(ctx))
	require.Equal(t, "carol", a.Session.State().User.Username)
}

// TestLoginRateLimitScenario verifies the session reports rate limiting as
// its own condition.
func TestLoginRateLimitScenario(t *testing.T) {
	b := setupBoard(t, fakeapi.WithLoginLimit(httpx.RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute, Burst: 2}))
	b.createUser(t, "dave", "")
	a := newDevice(t, b).start(t)
	ctx := testContext(t)

	for range 2 {
		_, err := a.Session.Login(ctx, "dave", "wrong")
		require.Error(t, err)
		require.False(t, a.Session.State().RateLimitExceeded)
	}

	_, err := a.Session.Login(ctx, "dave", testPassword)
	var sessErr *session.Error
	require.ErrorAs(t, err, &sessErr)
	require.True(t, sessErr.RateLimited)

	st := a.Session.State()
	require.True(t, st.RateLimitExceeded)
	require.Equal(t, session.PhaseError, st.Phase())
	require.Contains(t, st.Error, "Too many requests")

	a.Session.ClearError()
	require.False(t, a.Session.State().RateLimitExceeded)
}
