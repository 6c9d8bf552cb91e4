package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/jobboard/internal/app"
	"github.com/aussiebroadwan/jobboard/internal/fakeapi"
	"github.com/aussiebroadwan/jobboard/pkg/boardsdk"
	"github.com/aussiebroadwan/jobboard/pkg/httpx"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

const testPassword = "Str0ng!pass"

type env struct {
	api *fakeapi.Server
	url string
	cfg app.Config
}

func newEnv(t *testing.T, opts ...fakeapi.Option) *env {
	t.Helper()

	api := fakeapi.New(opts...)
	srv := fakeapi.NewTestServer(api)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	return &env{
		api: api,
		url: srv.URL,
		cfg: app.Config{
			APIURL:        srv.URL,
			Timeout:       5 * time.Second,
			DataFile:      filepath.Join(dir, "jobboard.db"),
			MasterKeyFile: filepath.Join(dir, "master.key"),
			AccessCookie:  fakeapi.AccessCookie,
			Env:           "test",
			LogLevel:      "error",
			Output:        app.OutputText,
		},
	}
}

type result struct {
	code   int
	out    string
	errOut string
}

// run executes one CLI invocation, like a separate process sharing the
// data file.
func (e *env) run(t *testing.T, in io.Reader, args ...string) result {
	t.Helper()

	if in == nil {
		in = strings.NewReader("")
	}
	var out, errOut bytes.Buffer
	c := New(
		WithIO(in, &out, &errOut),
		WithConfig(e.cfg),
		WithAppOptions(app.WithLogOutput(io.Discard)),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	code := c.Run(ctx, args)
	return result{code: code, out: out.String(), errOut: errOut.String()}
}

func lines(l ...string) io.Reader {
	return strings.NewReader(strings.Join(l, "\n") + "\n")
}

func (e *env) login(t *testing.T, username string) {
	t.Helper()
	res := e.run(t, lines(testPassword), "login", "-u", username)
	require.Equal(t, 0, res.code, res.errOut)
}

func TestRegisterLoginWhoamiLogout(t *testing.T) {
	e := newEnv(t)

	res := e.run(t, lines(testPassword, testPassword),
		"register", "--name", "Alice", "-u", "alice", "--email", "alice@example.com")
	require.Equal(t, 0, res.code, res.errOut)
	require.Contains(t, res.out, "Registration successful")
	require.Contains(t, res.out, "alice@example.com")

	res = e.run(t, nil, "whoami")
	require.Equal(t, 1, res.code)
	require.Contains(t, res.errOut, "log in first")

	res = e.run(t, lines(testPassword), "login", "-u", "alice")
	require.Equal(t, 0, res.code, res.errOut)
	require.Contains(t, res.out, "Logged in as alice.")
	require.Contains(t, res.errOut, "not verified")

	// A new invocation rehydrates from the stored cookies.
	res = e.run(t, nil, "whoami")
	require.Equal(t, 0, res.code, res.errOut)
	require.Contains(t, res.out, "Username\talice")
	require.Contains(t, res.out, "Email verified\tno")

	res = e.run(t, nil, "status", "-o", "json")
	require.Equal(t, 0, res.code, res.errOut)
	var st statusInfo
	require.NoError(t, json.Unmarshal([]byte(res.out), &st))
	require.True(t, st.Token)
	require.Equal(t, "alice", st.Username)
	require.NotNil(t, st.ExpiresAt)

	res = e.run(t, nil, "logout")
	require.Equal(t, 0, res.code, res.errOut)
	require.Contains(t, res.out, "Logged out.")

	res = e.run(t, nil, "whoami")
	require.Equal(t, 1, res.code)
}

func TestLoginPrefillsLastUsername(t *testing.T) {
	e := newEnv(t)
	_, err := e.api.CreateUser("Bob", "bob", "", testPassword)
	require.NoError(t, err)

	e.login(t, "bob")
	require.Equal(t, 0, e.run(t, nil, "logout").code)

	// Empty username answer takes the remembered default.
	res := e.run(t, lines("", testPassword), "login")
	require.Equal(t, 0, res.code, res.errOut)
	require.Contains(t, res.errOut, "Username [bob]")
	require.Contains(t, res.out, "Logged in as bob.")
}

func TestRegisterValidation(t *testing.T) {
	e := newEnv(t)

	t.Run("mismatch", func(t *testing.T) {
		res := e.run(t, lines(testPassword, "other"),
			"register", "--name", "A", "-u", "a", "--email", "")
		require.Equal(t, 1, res.code)
		require.Contains(t, res.errOut, "Passwords do not match")
	})

	t.Run("weak password", func(t *testing.T) {
		res := e.run(t, lines("abcdefgh", "abcdefgh"),
			"register", "--name", "A", "-u", "a", "--email", "")
		require.Equal(t, 1, res.code)
		require.Contains(t, res.errOut, "Password strength")
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, err := e.api.CreateUser("Taken", "taken", "", testPassword)
		require.NoError(t, err)

		res := e.run(t, lines(testPassword, testPassword),
			"register", "--name", "T", "-u", "taken", "--email", "")
		require.Equal(t, 1, res.code)
		require.Contains(t, res.errOut, "Username already taken")
	})
}

func TestLoginErrors(t *testing.T) {
	t.Run("bad credentials", func(t *testing.T) {
		e := newEnv(t)
		res := e.run(t, lines("nope"), "login", "-u", "ghost")
		require.Equal(t, 1, res.code)
		require.Contains(t, res.errOut, "Error: Invalid credentials")
	})

	t.Run("rate limit is a warning", func(t *testing.T) {
		e := newEnv(t, fakeapi.WithLoginLimit(httpx.RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}))

		_ = e.run(t, lines("nope"), "login", "-u", "ghost")
		res := e.run(t, lines("nope"), "login", "-u", "ghost")
		require.Equal(t, 1, res.code)
		require.Contains(t, res.errOut, "Warning: Too many requests")
	})

	t.Run("missing fields", func(t *testing.T) {
		e := newEnv(t)
		res := e.run(t, lines(""), "login", "-u", "ghost")
		require.Equal(t, 1, res.code)
		require.Contains(t, res.errOut, "Please fill in all required fields")
	})
}

// lazyInput computes its content on first read, after earlier steps of the
// command have run.
type lazyInput struct {
	fn func() string
	r  io.Reader
}

func (l *lazyInput) Read(p []byte) (int, error) {
	if l.r == nil {
		l.r = strings.NewReader(l.fn())
	}
	return l.r.Read(p)
}

func currentCode(t *testing.T, api *fakeapi.Server, username string) string {
	t.Helper()
	code, err := totp.GenerateCode(api.MFASecret(username), time.Now())
	require.NoError(t, err)
	return code
}

func TestMFASetupAndLogin(t *testing.T) {
	e := newEnv(t)
	_, err := e.api.CreateUser("Carol", "carol", "", testPassword)
	require.NoError(t, err)
	e.login(t, "carol")

	qr := filepath.Join(t.TempDir(), "qr.png")
	in := &lazyInput{fn: func() string { return "12\n" + currentCode(t, e.api, "carol") + "\n" }}
	res := e.run(t, in, "mfa", "setup", "--qr", qr)
	require.Equal(t, 0, res.code, res.errOut)
	require.Contains(t, res.out, "Secret: ")
	require.Contains(t, res.out, "otpauth://totp/")
	require.Contains(t, res.errOut, "6-digit code")
	require.Contains(t, res.out, "MFA has been successfully enabled")
	require.FileExists(t, qr)

	u, _ := e.api.User("carol")
	require.True(t, u.MFAEnabled)

	res = e.run(t, nil, "mfa", "setup")
	require.Equal(t, 1, res.code)
	require.Contains(t, res.errOut, "already enabled")

	require.Equal(t, 0, e.run(t, nil, "logout").code)

	t.Run("login asks for a code", func(t *testing.T) {
		res := e.run(t, lines(testPassword, "000000", currentCode(t, e.api, "carol")), "login", "-u", "carol")
		require.Equal(t, 0, res.code, res.errOut)
		require.Contains(t, res.out, "Two-factor authentication is enabled")
		require.Contains(t, res.errOut, "Error: ")
		require.Contains(t, res.out, "Logged in as carol.")
	})

	t.Run("empty code cancels", func(t *testing.T) {
		require.Equal(t, 0, e.run(t, nil, "logout").code)
		res := e.run(t, lines(testPassword, ""), "login", "-u", "carol")
		require.Equal(t, 1, res.code)
		require.Contains(t, res.errOut, "login cancelled")
	})

	t.Run("disable", func(t *testing.T) {
		res := e.run(t, lines(testPassword, currentCode(t, e.api, "carol")), "login", "-u", "carol", "--code", currentCode(t, e.api, "carol"))
		require.Equal(t, 0, res.code, res.errOut)

		res = e.run(t, lines(testPassword, currentCode(t, e.api, "carol")), "mfa", "disable")
		require.Equal(t, 0, res.code, res.errOut)
		require.Contains(t, res.out, "has been disabled")

		u, _ := e.api.User("carol")
		require.False(t, u.MFAEnabled)
	})
}

func TestEmailVerificationAndPasswordReset(t *testing.T) {
	e := newEnv(t)
	_, err := e.api.CreateUser("Dave", "dave", "dave@example.com", testPassword)
	require.NoError(t, err)

	mail, ok := e.api.LastMail("dave@example.com", fakeapi.MailVerify)
	require.True(t, ok)

	res := e.run(t, nil, "verify-email")
	require.Equal(t, 1, res.code)
	require.Contains(t, res.errOut, "Verification token is missing")

	res = e.run(t, nil, "verify-email", mail.Token)
	require.Equal(t, 0, res.code, res.errOut)
	require.Contains(t, res.out, "Email verified successfully! You can now log in.")

	res = e.run(t, nil, "forgot-password", "--email", "nobody@example.com")
	require.Equal(t, 0, res.code, res.errOut)
	require.Contains(t, res.out, "If an account exists")

	res = e.run(t, nil, "forgot-password", "--email", "dave@example.com")
	require.Equal(t, 0, res.code, res.errOut)

	reset, ok := e.api.LastMail("dave@example.com", fakeapi.MailReset)
	require.True(t, ok)

	const newPassword = "N3w!secret"
	res = e.run(t, lines(newPassword, newPassword), "reset-password", reset.Token)
	require.Equal(t, 0, res.code, res.errOut)
	require.Contains(t, res.out, "Password has been reset successfully!")

	res = e.run(t, lines(newPassword), "login", "-u", "dave")
	require.Equal(t, 0, res.code, res.errOut)
	require.NotContains(t, res.errOut, "not verified")
}

func TestOAuthCommands(t *testing.T) {
	e := newEnv(t)

	res := e.run(t, nil, "oauth", "url", "github")
	require.Equal(t, 0, res.code, res.errOut)
	require.Equal(t, e.url+"/auth/github\n", res.out)

	res = e.run(t, nil, "oauth", "url", "myspace")
	require.Equal(t, 1, res.code)

	res = e.run(t, nil, "oauth", "callback",
		`http://localhost:3000/oauth-callback?user=%7B%22id%22%3A%22u1%22%2C%22username%22%3A%22gh%22%7D&provider=github`)
	require.Equal(t, 0, res.code, res.errOut)
	require.Contains(t, res.out, "Logged in as gh via github.")

	res = e.run(t, nil, "oauth", "callback", "http://localhost:3000/oauth-callback")
	require.Equal(t, 1, res.code)
	require.Contains(t, res.errOut, "User data not received")
}

func TestJobsCommands(t *testing.T) {
	e := newEnv(t)
	_, err := e.api.CreateUser("Erin", "erin", "", testPassword)
	require.NoError(t, err)

	res := e.run(t, nil, "jobs", "create", "--title", "Ghost")
	require.Equal(t, 1, res.code)
	require.Contains(t, res.errOut, "log in first")

	e.login(t, "erin")

	res = e.run(t, nil, "jobs", "create", "--title", "Go developer", "--salary", "lots")
	require.Equal(t, 1, res.code)
	require.Contains(t, res.errOut, "Salary must be a number")

	res = e.run(t, nil, "-o", "json", "jobs", "create", "--title", "Go developer", "--location", "Sydney", "--salary", "150000")
	require.Equal(t, 0, res.code, res.errOut)
	var job boardsdk.Job
	require.NoError(t, json.Unmarshal([]byte(res.out), &job))
	require.Equal(t, "Go developer", job.Title)
	require.Equal(t, boardsdk.FullTime, job.EmploymentType)
	require.True(t, job.IsActive)

	res = e.run(t, nil, "jobs", "edit", job.ID, "--type", "contract", "--active=false", "-o", "json")
	require.Equal(t, 0, res.code, res.errOut)
	var edited boardsdk.Job
	require.NoError(t, json.Unmarshal([]byte(res.out), &edited))
	require.Equal(t, boardsdk.Contract, edited.EmploymentType)
	require.False(t, edited.IsActive)
	require.Equal(t, "Sydney", edited.Location, "unchanged fields are kept")

	res = e.run(t, nil, "jobs", "list", "-o", "yaml")
	require.Equal(t, 0, res.code, res.errOut)
	require.Contains(t, res.out, "title: Go developer")

	res = e.run(t, nil, "jobs", "show", job.ID)
	require.Equal(t, 0, res.code, res.errOut)
	require.Contains(t, res.out, "Location\tSydney")

	res = e.run(t, lines("n"), "jobs", "delete", job.ID)
	require.Equal(t, 0, res.code, res.errOut)
	require.Contains(t, res.out, "Nothing deleted.")

	res = e.run(t, nil, "jobs", "delete", job.ID, "--yes")
	require.Equal(t, 0, res.code, res.errOut)

	res = e.run(t, nil, "jobs", "show", job.ID)
	require.Equal(t, 1, res.code)
	require.Contains(t, res.errOut, "Job not found")
}

func TestShell(t *testing.T) {
	e := newEnv(t)
	_, err := e.api.CreateUser("Fay", "fay", "", testPassword)
	require.NoError(t, err)

	res := e.run(t, lines(
		"whoami",
		"login -u fay",
		testPassword,
		"whoami",
		`jobs create --title "Site reliability engineer"`,
		"jobs list",
		"shell",
		"bogus",
		"logout",
		"whoami",
		"exit",
		"whoami",
	), "shell")

	require.Equal(t, 0, res.code, res.errOut)
	require.Contains(t, res.out, "Not logged in.")
	require.Contains(t, res.out, "Logged in as fay.")
	require.Contains(t, res.out, "Username\tfay")
	require.Contains(t, res.out, "Site reliability engineer")
	require.Contains(t, res.out, "Logged out.")
	require.Contains(t, res.errOut, "jobboard (fay)> ")
	require.Contains(t, res.errOut, "already in the shell")
	require.Contains(t, res.errOut, `unknown command "bogus"`)
	require.Equal(t, 2, strings.Count(res.errOut, "log in first"))
}
