package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/stickylist/internal/apperror"
)

// SQLiteMirror implements Mirror using a local SQLite database.
type SQLiteMirror struct {
	db *sqlx.DB
}

// NewSQLiteMirror opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteMirror(dbPath string) (*SQLiteMirror, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
			return nil, apperror.Storage("creating mirror directory", err)
		}
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, apperror.Storage("opening mirror", fmt.Errorf("opening sqlite db: %w", err))
	}

	// An in-memory database lives as long as its connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, apperror.Storage("opening mirror", fmt.Errorf("enabling WAL mode: %w", err))
	}

	s := &SQLiteMirror{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, apperror.Storage("opening mirror", fmt.Errorf("running migrations: %w", err))
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteMirror) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteMirror) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// Read returns the payload stored under key.
func (s *SQLiteMirror) Read(ctx context.Context, key string) ([]byte, bool, error) {
	var payload string
	err := s.db.GetContext(ctx, &payload, "SELECT payload FROM mirror_entries WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperror.Storage("reading mirror "+key, err)
	}
	return []byte(payload), true, nil
}

// Write inserts or replaces the payload stored under key.
func (s *SQLiteMirror) Write(ctx context.Context, key string, payload []byte, itemCount int) error {
	const query = `
		INSERT INTO mirror_entries (key, payload, item_count, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			payload    = excluded.payload,
			item_count = excluded.item_count,
			updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query, key, string(payload), itemCount, time.Now().UTC())
	if err != nil {
		return apperror.Storage("writing mirror "+key, err)
	}
	return nil
}

// Remove deletes key.
func (s *SQLiteMirror) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM mirror_entries WHERE key = ?", key); err != nil {
		return apperror.Storage("removing mirror "+key, err)
	}
	return nil
}

// Entries lists stored keys with their item counts.
func (s *SQLiteMirror) Entries(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	err := s.db.SelectContext(ctx, &entries,
		"SELECT key, item_count, updated_at FROM mirror_entries ORDER BY key")
	if err != nil {
		return nil, apperror.Storage("listing mirror", err)
	}
	return entries, nil
}

// Clear removes every entry.
func (s *SQLiteMirror) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM mirror_entries"); err != nil {
		return apperror.Storage("clearing mirror", err)
	}
	return nil
}
