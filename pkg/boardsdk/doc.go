/*
Package boardsdk provides a client SDK for the job board REST API.

# Overview

The boardsdk package wraps the job board's JSON-over-HTTP API: account
registration and login (with an optional multi-factor challenge), session
rehydration, email verification, password reset, MFA enrollment, and job
CRUD. Every response body is validated at this boundary, so callers only
ever see well-formed UserProfile and Job values or a typed error.

# Credentials

Session credentials travel as HTTP cookies set by the server. The Client's
http.Client carries a cookie jar, so once Login succeeds every later call is
authenticated without the caller touching tokens:

	client := boardsdk.NewClient("https://jobs.example.com/api")

	res, err := client.Login(ctx, boardsdk.LoginRequest{
		Username: "alice",
		Password: "Tr0ub4dor&9",
	})
	if err != nil {
		return err
	}
	if res.RequiresMFA {
		res, err = client.Login(ctx, boardsdk.LoginRequest{
			Username: "alice",
			Password: "Tr0ub4dor&9",
			MFAToken: "123456",
		})
	}

	jobs, err := client.ListJobs(ctx)

Pass WithJar to persist cookies across processes (see internal/localstore).

# Token Refresh

Access cookies are short lived. When the server answers HTTP 401 with the
body code TOKEN_EXPIRED, the client calls POST /auth/refresh-token once and
replays the original request with the refreshed cookies. A replayed request
is marked on its context and is never retried again, and neither is the
refresh call itself. If the refresh fails, the original 401 is returned to
the caller unchanged.

# Errors

Non-2xx responses become *APIError carrying the HTTP status and the server's
message and code fields:

	var apiErr *boardsdk.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		// ...
	}

ErrorMessage picks the server message for display with a fallback, and
IsRateLimited reports whether an error came from the server's rate limiter.
Malformed success bodies are reported as ErrMalformedResponse.
*/
package boardsdk
