package localstore

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"
)

// CookieJar is an http.CookieJar that mirrors every cookie the API sets into
// the store, so a session survives between CLI invocations. Lookups are
// served by an in-memory net/http/cookiejar seeded from the store.
type CookieJar struct {
	inner  *cookiejar.Jar
	store  *Store
	origin string
	logger *slog.Logger
	now    func() time.Time

	mu sync.Mutex
}

var _ http.CookieJar = (*CookieJar)(nil)

// Origin returns scheme://host for u, the key cookies are stored under.
func Origin(u *url.URL) string {
	return u.Scheme + "://" + u.Host
}

// NewCookieJar loads the persisted cookies for base and returns a jar that
// keeps them in sync.
func NewCookieJar(ctx context.Context, store *Store, base *url.URL, logger *slog.Logger) (*CookieJar, error) {
	if logger == nil {
		logger = slog.Default()
	}
	inner, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	j := &CookieJar{
		inner:  inner,
		store:  store,
		origin: Origin(base),
		logger: logger.With("component", "cookiejar"),
		now:    time.Now,
	}

	purged, err := store.PurgeExpired(ctx, j.now())
	if err != nil {
		return nil, err
	}
	if purged > 0 {
		j.logger.Debug("expired cookies purged", "count", purged)
	}

	stored, err := store.LoadCookies(ctx, j.origin, j.now())
	if err != nil {
		return nil, err
	}
	cookies := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		cookies = append(cookies, c.Cookie())
	}
	if len(cookies) > 0 {
		root := &url.URL{Scheme: base.Scheme, Host: base.Host, Path: "/"}
		inner.SetCookies(root, cookies)
		j.logger.Debug("cookies restored", "origin", j.origin, "count", len(cookies))
	}
	return j, nil
}

// Cookies implements http.CookieJar.
func (j *CookieJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.inner.Cookies(u)
}

// SetCookies implements http.CookieJar. Persistence failures are logged; the
// in-memory jar is always updated.
func (j *CookieJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.inner.SetCookies(u, cookies)
	if Origin(u) != j.origin {
		return
	}

	now := j.now()
	err := j.store.WithTx(context.Background(), func(tx *sql.Tx) error {
		for _, c := range cookies {
			path := cookiePath(u, c)
			if removed(c, now) {
				if err := deleteCookie(context.Background(), tx, j.origin, c.Name, path); err != nil {
					return err
				}
				continue
			}

			sc := StoredCookie{
				Origin:   j.origin,
				Name:     c.Name,
				Path:     path,
				Domain:   c.Domain,
				Value:    c.Value,
				Expires:  c.Expires,
				Secure:   c.Secure,
				HTTPOnly: c.HttpOnly,
			}
			if c.MaxAge > 0 {
				sc.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
			}
			if err := j.store.saveCookie(context.Background(), tx, sc); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		j.logger.Warn("failed to persist cookies", "origin", j.origin, "error", err)
	}
}

// Clear forgets every cookie for the jar's origin, in memory and on disk.
func (j *CookieJar) Clear(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	inner, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	j.inner = inner
	return j.store.ClearCookies(ctx, j.origin)
}

// Value returns the current value of the named cookie for the jar's origin.
func (j *CookieJar) Value(name string) (string, bool) {
	u, err := url.Parse(j.origin + "/")
	if err != nil {
		return "", false
	}
	for _, c := range j.Cookies(u) {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

// cookiePath is the path the jar scopes c to: its Path attribute, or the
// default-path of the request URL (RFC 6265 section 5.1.4).
func cookiePath(u *url.URL, c *http.Cookie) string {
	if strings.HasPrefix(c.Path, "/") {
		return c.Path
	}
	dir := u.Path
	if !strings.HasPrefix(dir, "/") {
		return "/"
	}
	i := strings.LastIndex(dir, "/")
	if i == 0 {
		return "/"
	}
	return dir[:i]
}

func removed(c *http.Cookie, now time.Time) bool {
	if c.MaxAge < 0 {
		return true
	}
	return !c.Expires.IsZero() && c.MaxAge == 0 && !c.Expires.After(now)
}
