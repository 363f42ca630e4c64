package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// SQLiteKV is a KV persisted in a SQLite database.
type SQLiteKV struct {
	conn *sqlx.DB
}

// OpenSQLite opens the database at dsn and ensures the schema exists.
// Use ":memory:" for a throwaway database.
func OpenSQLite(dsn string) (*SQLiteKV, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: SQLite has a single writer, and every ":memory:"
	// connection would otherwise be its own empty database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	slog.Debug("storage: database ready", "dsn", dsn)
	return &SQLiteKV{conn: db}, nil
}

// Close closes the database connection.
func (s *SQLiteKV) Close() error {
	return s.conn.Close()
}

// Get returns the value stored under key and whether it exists.
func (s *SQLiteKV) Get(key string) (string, bool, error) {
	var value string
	err := s.conn.Get(&value, `SELECT value FROM kv WHERE key = ?`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *SQLiteKV) Set(key, value string) error {
	_, err := s.conn.Exec(`
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// Keys returns the keys starting with prefix in ascending order.
func (s *SQLiteKV) Keys(prefix string) ([]string, error) {
	var keys []string
	err := s.conn.Select(&keys, `
		SELECT key FROM kv
		WHERE substr(key, 1, ?) = ?
		ORDER BY key
	`, utf8.RuneCountInString(prefix), prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys with prefix %s: %w", prefix, err)
	}
	return keys, nil
}
