package board_test

import (
	"context"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/jobboard/internal/app"
	"github.com/aussiebroadwan/jobboard/internal/fakeapi"
	"github.com/stretchr/testify/require"
)

/*
 * End-to-end scenarios: the whole client stack (config, local store,
 * persistent cookie jar, API client, session and jobs stores, guard and
 * flows) against an in-process job board API.
 */

const testPassword = "Str0ng!pass"

type board struct {
	api *fakeapi.Server
	srv *httptest.Server
}

// setupBoard starts the API and returns it with its base URL.
func setupBoard(t *testing.T, opts ...fakeapi.Option) *board {
	t.Helper()

	api := fakeapi.New(opts...)
	srv := fakeapi.NewTestServer(api)
	t.Cleanup(srv.Close)
	return &board{api: api, srv: srv}
}

// createUser adds an account directly on the server.
func (b *board) createUser(t *testing.T, username, email string) {
	t.Helper()
	_, err := b.api.CreateUser("Test "+username, username, email, testPassword)
	require.NoError(t, err)
}

// device is one client installation: a data directory shared by every
// process started on it.
type device struct {
	cfg app.Config
}

func newDevice(t *testing.T, b *board) *device {
	t.Helper()
	dir := t.TempDir()
	return &device{cfg: app.Config{
		APIURL:        b.srv.URL,
		Timeout:       5 * time.Second,
		DataFile:      filepath.Join(dir, "jobboard.db"),
		MasterKeyFile: filepath.Join(dir, "master.key"),
		AccessCookie:  fakeapi.AccessCookie,
		Env:           "test",
		LogLevel:      "error",
		Output:        app.OutputJSON,
	}}
}

// start opens the application as a fresh process would.
func (d *device) start(t *testing.T) *app.Application {
	t.Helper()
	a, err := app.New(testContext(t), d.cfg, app.WithLogOutput(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}
