package fakeapi_test

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"testing"

	"github.com/aussiebroadwan/jobboard/internal/fakeapi"
	"github.com/aussiebroadwan/jobboard/pkg/boardsdk"
	"github.com/stretchr/testify/require"
)

func TestOAuthRedirect(t *testing.T) {
	t.Parallel()

	api := fakeapi.New(fakeapi.WithCallbackURL("http://app.test/oauth-callback"))
	srv := fakeapi.NewTestServer(api)
	defer srv.Close()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	hc := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := hc.Get(srv.URL + "/auth/github")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "app.test", loc.Host)
	require.Equal(t, "github", loc.Query().Get("provider"))
	require.Contains(t, loc.Query().Get("user"), `"username":"github-user"`)

	// The redirect also carries a session.
	client := boardsdk.NewClient(srv.URL, boardsdk.WithHTTPClient(hc))
	me, err := client.Me(t.Context())
	require.NoError(t, err)
	require.Equal(t, "github-user", me.Username)
	require.Equal(t, []boardsdk.Provider{boardsdk.ProviderGitHub}, me.LinkedProviders())
}

func TestProtectedRoutesNeedCookie(t *testing.T) {
	t.Parallel()

	srv := fakeapi.NewTestServer(fakeapi.New())
	defer srv.Close()

	for _, path := range []string{"/auth/me", "/jobs"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		_ = resp.Body.Close()
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}
}

func TestCreateUserRejectsDuplicates(t *testing.T) {
	t.Parallel()

	api := fakeapi.New()
	_, err := api.CreateUser("Judy", "judy", "judy@example.com", "pw")
	require.NoError(t, err)

	_, err = api.CreateUser("Judy", "judy", "", "pw")
	require.ErrorIs(t, err, fakeapi.ErrUsernameTaken)

	u, ok := api.User("judy")
	require.True(t, ok)
	require.Equal(t, "judy@example.com", u.Email)

	mail, ok := api.LastMail("judy@example.com", fakeapi.MailVerify)
	require.True(t, ok)
	require.NotEmpty(t, mail.Token)
}
