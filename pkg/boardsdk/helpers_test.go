package boardsdk_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/jobboard/internal/fakeapi"
	"github.com/aussiebroadwan/jobboard/pkg/boardsdk"
	"github.com/stretchr/testify/require"
)

const testPassword = "Str0ng!pass"

type harness struct {
	api    *fakeapi.Server
	srv    *httptest.Server
	client *boardsdk.Client
}

func newHarness(t *testing.T, opts ...fakeapi.Option) *harness {
	t.Helper()

	api := fakeapi.New(opts...)
	srv := fakeapi.NewTestServer(api)
	t.Cleanup(srv.Close)

	return &harness{
		api:    api,
		srv:    srv,
		client: boardsdk.NewClient(srv.URL),
	}
}

// signIn creates username and logs the harness client in.
func (h *harness) signIn(t *testing.T, username string) *boardsdk.UserProfile {
	t.Helper()

	_, err := h.api.CreateUser("Test User", username, username+"@example.com", testPassword)
	require.NoError(t, err)

	res, err := h.client.Login(testContext(t), boardsdk.LoginRequest{Username: username, Password: testPassword})
	require.NoError(t, err)
	require.False(t, res.RequiresMFA)
	return res.User
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}
