package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/hammamikhairi/recipebox/internal/domain"
	"github.com/hammamikhairi/recipebox/internal/logger"
)

// Compile-time interface check.
var _ domain.TokenStore = (*SQLiteStore)(nil)

// SQLiteStore keeps client state in a key/value table. It is the default
// durable backend for the CLI.
type SQLiteStore struct {
	db   *sql.DB
	path string
	log  *logger.Logger
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string, log *logger.Logger) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("storage: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", err)
	}
	// One writer is all a CLI needs and it avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, path: path, log: log}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	log.Debug("sqlite token store ready at %s", path)
	return s, nil
}

func (s *SQLiteStore) initialize() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("storage: create schema: %w", err)
	}
	return nil
}

// Get returns the stored token or domain.ErrNoToken.
func (s *SQLiteStore) Get(ctx context.Context) (string, error) {
	var tok string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, domain.TokenKey).Scan(&tok)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && tok == "") {
		return "", domain.ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("storage: read token: %w", err)
	}
	return tok, nil
}

// Set stores the token.
func (s *SQLiteStore) Set(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		domain.TokenKey, token)
	if err != nil {
		return fmt.Errorf("storage: write token: %w", err)
	}
	s.log.Debug("token written to %s", s.path)
	return nil
}

// Remove deletes the token row.
func (s *SQLiteStore) Remove(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, domain.TokenKey); err != nil {
		return fmt.Errorf("storage: remove token: %w", err)
	}
	s.log.Debug("token removed from %s", s.path)
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
