// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps values and lists in a SQLite database. Expiry is
// stored as Unix nanoseconds; expired rows are removed lazily on read.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens or creates the database at path and its schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite store requires a path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			expires_at INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS lists (
			key TEXT PRIMARY KEY,
			expires_at INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS list_items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			list_key TEXT NOT NULL REFERENCES lists(key) ON DELETE CASCADE,
			item BLOB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_list_items_key ON list_items(list_key)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) expiry(ttl time.Duration) sql.NullInt64 {
	if ttl <= 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: s.now().Add(ttl).UnixNano(), Valid: true}
}

func (s *SQLiteStore) expired(exp sql.NullInt64) bool {
	return exp.Valid && s.now().UnixNano() >= exp.Int64
}

// Get returns the value at key, or nil when missing or expired.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var (
		value []byte
		exp   sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `SELECT value, expires_at FROM kv WHERE key = ?`, key).Scan(&value, &exp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	if s.expired(exp) {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
			return nil, fmt.Errorf("expiring %s: %w", key, err)
		}
		return nil, nil
	}
	return value, nil
}

// Set upserts the value at key.
func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, s.expiry(ttl))
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Append adds item to the list and refreshes the list expiry in one
// transaction. An expired list is emptied first.
func (s *SQLiteStore) Append(ctx context.Context, listKey string, item []byte, ttl time.Duration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exp sql.NullInt64
	err = tx.QueryRowContext(ctx, `SELECT expires_at FROM lists WHERE key = ?`, listKey).Scan(&exp)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("reading list %s: %w", listKey, err)
	case s.expired(exp):
		if _, err := tx.ExecContext(ctx, `DELETE FROM list_items WHERE list_key = ?`, listKey); err != nil {
			return fmt.Errorf("expiring list %s: %w", listKey, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO lists (key, expires_at) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET expires_at = excluded.expires_at`,
		listKey, s.expiry(ttl)); err != nil {
		return fmt.Errorf("writing list %s: %w", listKey, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO list_items (list_key, item) VALUES (?, ?)`, listKey, item); err != nil {
		return fmt.Errorf("appending to %s: %w", listKey, err)
	}
	return tx.Commit()
}

// GetList returns the list items in append order.
func (s *SQLiteStore) GetList(ctx context.Context, listKey string) ([][]byte, error) {
	var exp sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT expires_at FROM lists WHERE key = ?`, listKey).Scan(&exp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading list %s: %w", listKey, err)
	}
	if s.expired(exp) {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT item FROM list_items WHERE list_key = ? ORDER BY id`, listKey)
	if err != nil {
		return nil, fmt.Errorf("querying list %s: %w", listKey, err)
	}
	defer rows.Close()

	var items [][]byte
	for rows.Next() {
		var item []byte
		if err := rows.Scan(&item); err != nil {
			return nil, fmt.Errorf("scanning list item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
