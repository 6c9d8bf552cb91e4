package localstore

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"
)

// StoredCookie is one persisted cookie for an origin.
type StoredCookie struct {
	Origin   string
	Name     string
	Path     string
	Domain   string
	Value    string
	Expires  time.Time // zero for session cookies
	Secure   bool
	HTTPOnly bool
}

// Cookie converts the stored row back into an *http.Cookie.
func (c StoredCookie) Cookie() *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     c.Path,
		Domain:   c.Domain,
		Expires:  c.Expires,
		Secure:   c.Secure,
		HttpOnly: c.HTTPOnly,
	}
}

func cookieAD(origin, name string) []byte {
	return []byte(origin + "|" + name)
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SaveCookie inserts or replaces a cookie. The value is sealed before it
// touches the disk.
func (s *Store) SaveCookie(ctx context.Context, c StoredCookie) error {
	return s.saveCookie(ctx, s.db, c)
}

func (s *Store) saveCookie(ctx context.Context, db execer, c StoredCookie) error {
	if c.Path == "" {
		c.Path = "/"
	}
	sealed, err := s.sealer.Seal([]byte(c.Value), cookieAD(c.Origin, c.Name))
	if err != nil {
		return fmt.Errorf("seal cookie %s: %w", c.Name, err)
	}

	var expires sql.NullInt64
	if !c.Expires.IsZero() {
		expires = sql.NullInt64{Int64: c.Expires.Unix(), Valid: true}
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO cookies (origin, name, path, domain, value, expires_at, secure, http_only, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (origin, name, path) DO UPDATE SET
			domain = excluded.domain,
			value = excluded.value,
			expires_at = excluded.expires_at,
			secure = excluded.secure,
			http_only = excluded.http_only,
			updated_at = excluded.updated_at`,
		c.Origin, c.Name, c.Path, c.Domain, sealed, expires, c.Secure, c.HTTPOnly, time.Now().Unix(),
	)
	return err
}

// DeleteCookie removes a cookie. Deleting a missing cookie is not an error.
func (s *Store) DeleteCookie(ctx context.Context, origin, name, path string) error {
	return deleteCookie(ctx, s.db, origin, name, path)
}

func deleteCookie(ctx context.Context, db execer, origin, name, path string) error {
	if path == "" {
		path = "/"
	}
	_, err := db.ExecContext(ctx,
		`DELETE FROM cookies WHERE origin = ? AND name = ? AND path = ?`,
		origin, name, path)
	return err
}

// LoadCookies returns the unexpired cookies stored for origin. Rows that no
// longer decrypt (for example after the master key changed) are dropped.
func (s *Store) LoadCookies(ctx context.Context, origin string, now time.Time) ([]StoredCookie, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, path, domain, value, expires_at, secure, http_only
		FROM cookies
		WHERE origin = ? AND (expires_at IS NULL OR expires_at > ?)
		ORDER BY name`, origin, now.Unix())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var (
		out   []StoredCookie
		stale []StoredCookie
	)
	for rows.Next() {
		var (
			c       = StoredCookie{Origin: origin}
			sealed  []byte
			expires sql.NullInt64
		)
		if err := rows.Scan(&c.Name, &c.Path, &c.Domain, &sealed, &expires, &c.Secure, &c.HTTPOnly); err != nil {
			return nil, err
		}
		if expires.Valid {
			c.Expires = time.Unix(expires.Int64, 0)
		}

		plain, err := s.sealer.Open(sealed, cookieAD(origin, c.Name))
		if err != nil {
			stale = append(stale, c)
			continue
		}
		c.Value = string(plain)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Release the connection before writing.
	_ = rows.Close()

	for _, c := range stale {
		if err := s.DeleteCookie(ctx, origin, c.Name, c.Path); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// PurgeExpired deletes every cookie that expired before now and returns how
// many were removed.
func (s *Store) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM cookies WHERE expires_at IS NOT NULL AND expires_at <= ?`, now.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ClearCookies forgets every cookie for origin.
func (s *Store) ClearCookies(ctx context.Context, origin string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cookies WHERE origin = ?`, origin)
	return err
}
