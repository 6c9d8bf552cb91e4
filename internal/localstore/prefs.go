package localstore

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PrefLastUsername remembers who signed in last, to prefill the login prompt.
const PrefLastUsername = "last_username"

// SetPref stores a preference value.
func (s *Store) SetPref(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO prefs (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().Unix())
	return err
}

// GetPref returns ErrNotFound when key is unset.
func (s *Store) GetPref(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM prefs WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return value, err
}

// DeletePref removes key.
func (s *Store) DeletePref(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM prefs WHERE key = ?`, key)
	return err
}

// LastUsername is a convenience over GetPref that treats unset as "".
func (s *Store) LastUsername(ctx context.Context) string {
	v, err := s.GetPref(ctx, PrefLastUsername)
	if err != nil {
		return ""
	}
	return v
}
