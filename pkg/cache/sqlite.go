package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteBusyTimeout = 2 * time.Second

const sqliteSchema = `create table if not exists cache_entries (
	key        text primary key,
	data       blob not null,
	updated_at integer not null
)`

// SQLiteBackend stores entries as rows of a single table.
// Each Set is one upsert statement, which SQLite applies atomically.
type SQLiteBackend struct {
	db   *sql.DB
	path string
}

// NewSQLiteBackend opens (or creates) the database at path.
func NewSQLiteBackend(ctx context.Context, path string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite cache: ensure dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite cache: open: %w", err)
	}
	// One connection keeps writes serialized inside this process; the busy
	// timeout covers other processes.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		fmt.Sprintf("pragma busy_timeout=%d", sqliteBusyTimeout.Milliseconds()),
		"pragma journal_mode=WAL",
		"pragma synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite cache: %s: %w", p, err)
		}
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite cache: create schema: %w", err)
	}
	return &SQLiteBackend{db: db, path: path}, nil
}

// Path returns the database file path.
func (c *SQLiteBackend) Path() string { return c.path }

// Get retrieves a value from the cache.
func (c *SQLiteBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := c.db.QueryRowContext(ctx, `select data from cache_entries where key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set upserts the value stored under key.
func (c *SQLiteBackend) Set(ctx context.Context, key string, data []byte) error {
	_, err := c.db.ExecContext(ctx,
		`insert into cache_entries (key, data, updated_at) values (?, ?, ?)
		 on conflict(key) do update set data = excluded.data, updated_at = excluded.updated_at`,
		key, data, time.Now().UTC().Unix())
	return err
}

// Delete removes a value from the cache.
func (c *SQLiteBackend) Delete(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, `delete from cache_entries where key = ?`, key)
	return err
}

// Keys returns every stored key in lexical order.
func (c *SQLiteBackend) Keys(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `select key from cache_entries order by key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Close closes the database.
func (c *SQLiteBackend) Close() error {
	return c.db.Close()
}

var _ Backend = (*SQLiteBackend)(nil)
