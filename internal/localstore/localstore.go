package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/billfold/billfold/internal/model"
	_ "modernc.org/sqlite"
)

// Scopes control what Purge removes. Session-scoped entries belong to the
// signed-in user and must not survive a sign-out; device-scoped entries
// (theme, do-not-disturb) do.
const (
	ScopeSession = "session"
	ScopeDevice  = "device"
)

// ProfileKey is the fixed key the profile row is cached under
const ProfileKey = "cached_profile"

// Store is the sqlite-backed persistent cache shared by the contexts
type Store struct {
	db *sql.DB
}

// DefaultPath returns the default cache path (~/.billfold/cache.db)
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".billfold", "cache.db"), nil
}

// Open opens or creates the cache database
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to cache: %w", err)
	}

	s := &Store{db: sqlDB}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// OpenDefault opens the cache at the default path
func OpenDefault() (*Store, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return Open(path)
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(migrationCreateEntries)
	return err
}

const migrationCreateEntries = `
CREATE TABLE IF NOT EXISTS entries (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    scope TEXT NOT NULL DEFAULT 'session',
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);
`

// Get returns the value for key, or ok=false if absent
func (s *Store) Get(ctx context.Context, key string) (string, bool) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM entries WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", false
	}
	return value, true
}

// Set stores value under key with the given scope, replacing any previous value
func (s *Store) Set(ctx context.Context, key, value, scope string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entries (key, value, scope, updated_at)
		VALUES (?, ?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, scope = excluded.scope, updated_at = excluded.updated_at`,
		key, value, scope,
	)
	return err
}

// Delete removes key if present
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE key = ?`, key)
	return err
}

// PurgeSession removes every session-scoped entry. Called on sign-out so a
// later sign-in by a different user never observes the previous user's data.
func (s *Store) PurgeSession(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE scope = ?`, ScopeSession)
	return err
}

// GetProfile returns the cached profile row, or ok=false if none is cached
func (s *Store) GetProfile(ctx context.Context) (model.Profile, bool) {
	raw, ok := s.Get(ctx, ProfileKey)
	if !ok {
		return model.Profile{}, false
	}

	var p model.Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return model.Profile{}, false
	}
	return p, true
}

// SetProfile caches the profile row under the fixed profile key
func (s *Store) SetProfile(ctx context.Context, p model.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.Set(ctx, ProfileKey, string(data), ScopeSession)
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}
