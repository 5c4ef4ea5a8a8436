// Package sqlite provides a SQLite-backed settings slot and local cache.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dshills/modkit/internal/storage"
)

// DefaultSlot is the slot name used when none is given.
const DefaultSlot = "settings"

const schema = `
CREATE TABLE IF NOT EXISTS slots (
	name       TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS local_cache (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);`

var (
	_ storage.Slot  = (*Slot)(nil)
	_ storage.Cache = (*Store)(nil)
)

// Store persists settings slots and local cache entries in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// Open opens a SQLite store and creates its tables.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Slot returns the named settings slot.
func (s *Store) Slot(name string) *Slot {
	if strings.TrimSpace(name) == "" {
		name = DefaultSlot
	}
	return &Slot{store: s, name: name}
}

// Get returns one local cache entry.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if err := s.check(ctx); err != nil {
		return "", false, err
	}
	var value string
	err := s.sqlDB.QueryRowContext(ctx, `SELECT value FROM local_cache WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get local cache %q: %w", key, err)
	}
	return value, true, nil
}

// Set writes one local cache entry.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("cache key is required")
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO local_cache (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, toMillis(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("set local cache %q: %w", key, err)
	}
	return nil
}

func (s *Store) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// Slot is one named settings payload in a Store.
type Slot struct {
	store *Store
	name  string
}

// Name returns the slot name.
func (sl *Slot) Name() string {
	return sl.name
}

// Load returns the stored payload, or "" when the slot was never saved.
func (sl *Slot) Load(ctx context.Context) (string, error) {
	if err := sl.store.check(ctx); err != nil {
		return "", err
	}
	var payload string
	err := sl.store.sqlDB.QueryRowContext(ctx, `SELECT payload FROM slots WHERE name = ?`, sl.name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load slot %q: %w", sl.name, err)
	}
	return payload, nil
}

// Save replaces the stored payload.
func (sl *Slot) Save(ctx context.Context, payload string) error {
	if err := sl.store.check(ctx); err != nil {
		return err
	}
	_, err := sl.store.sqlDB.ExecContext(ctx,
		`INSERT INTO slots (name, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		sl.name, payload, toMillis(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("save slot %q: %w", sl.name, err)
	}
	return nil
}
