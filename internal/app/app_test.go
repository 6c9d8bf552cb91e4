package app_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/jobboard/internal/app"
	"github.com/aussiebroadwan/jobboard/internal/fakeapi"
	"github.com/aussiebroadwan/jobboard/internal/session"
	"github.com/stretchr/testify/require"
)

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestLoadConfigDefaults(t *testing.T) {
	home := isolateHome(t)

	cfg, err := app.LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, "http://localhost:5000/api", cfg.APIURL)
	require.Equal(t, 10*time.Second, cfg.Timeout)
	require.Equal(t, filepath.Join(home, ".jobboard", "jobboard.db"), cfg.DataFile)
	require.Equal(t, "accessToken", cfg.AccessCookie)
	require.Equal(t, app.OutputTable, cfg.Output)
	require.True(t, cfg.Colors)
	require.Equal(t, 10, cfg.RateLimit.RequestsPerWindow)
	require.Equal(t, time.Second, cfg.RateLimit.Window)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	home := isolateHome(t)

	path := filepath.Join(home, ".jobboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_url: https://jobs.example.com/api
timeout: 3s
output: json
rate_limit:
  requests: 2
  window: 1m
`), 0o600))

	t.Run("default file is picked up", func(t *testing.T) {
		cfg, err := app.LoadConfig("")
		require.NoError(t, err)
		require.Equal(t, "https://jobs.example.com/api", cfg.APIURL)
		require.Equal(t, 3*time.Second, cfg.Timeout)
		require.Equal(t, app.OutputJSON, cfg.Output)
		require.Equal(t, 2, cfg.RateLimit.RequestsPerWindow)
		require.Equal(t, time.Minute, cfg.RateLimit.Window)
	})

	t.Run("environment wins over file", func(t *testing.T) {
		t.Setenv("JOBBOARD_OUTPUT", "yaml")
		t.Setenv("JOBBOARD_RATE_LIMIT_REQUESTS", "7")

		cfg, err := app.LoadConfig(path)
		require.NoError(t, err)
		require.Equal(t, app.OutputYAML, cfg.Output)
		require.Equal(t, 7, cfg.RateLimit.RequestsPerWindow)
	})

	t.Run("explicit missing file fails", func(t *testing.T) {
		_, err := app.LoadConfig(filepath.Join(home, "nope.yaml"))
		require.Error(t, err)
	})
}

func TestConfigValidate(t *testing.T) {
	isolateHome(t)

	base, err := app.LoadConfig("")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*app.Config)
	}{
		{"bad url", func(c *app.Config) { c.APIURL = "localhost:5000" }},
		{"zero timeout", func(c *app.Config) { c.Timeout = 0 }},
		{"unknown output", func(c *app.Config) { c.Output = "xml" }},
		{"no data file", func(c *app.Config) { c.DataFile = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func testConfig(t *testing.T, apiURL string) app.Config {
	t.Helper()
	dir := t.TempDir()
	return app.Config{
		APIURL:        apiURL,
		Timeout:       5 * time.Second,
		DataFile:      filepath.Join(dir, "jobboard.db"),
		MasterKeyFile: filepath.Join(dir, "master.key"),
		AccessCookie:  fakeapi.AccessCookie,
		Env:           "test",
		LogLevel:      "error",
		Output:        app.OutputText,
	}
}

func TestSessionSurvivesRestart(t *testing.T) {
	api := fakeapi.New()
	srv := fakeapi.NewTestServer(api)
	defer srv.Close()

	_, err := api.CreateUser("Alice", "alice", "", "Str0ng!pass")
	require.NoError(t, err)

	cfg := testConfig(t, srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	first, err := app.New(ctx, cfg, app.WithLogOutput(io.Discard))
	require.NoError(t, err)

	_, err = first.Session.Login(ctx, "alice", "Str0ng!pass")
	require.NoError(t, err)
	_, ok := first.AccessToken()
	require.True(t, ok)
	require.NoError(t, first.Close())

	second, err := app.New(ctx, cfg, app.WithLogOutput(io.Discard))
	require.NoError(t, err)
	defer func() { _ = second.Close() }()

	_, ok = second.AccessToken()
	require.True(t, ok, "access cookie restored from disk")

	second.Guard.Mount(ctx)
	require.NoError(t, second.Guard.Require(ctx))
	require.Equal(t, session.PhaseAuthenticated, second.Session.State().Phase())
	require.Equal(t, "alice", second.Session.State().User.Username)

	require.NoError(t, second.Session.Logout(ctx))
	_, ok = second.AccessToken()
	require.False(t, ok)
}
