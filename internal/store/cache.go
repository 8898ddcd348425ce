// Package store persists a (run_id, step_name, phase) -> handle cache,
// so a restarted driver can reattach to an
// in-progress run instead of resubmitting. It is grounded on the
// prior internal/learning.Store: a database/sql handle over
// github.com/mattn/go-sqlite3, with an embedded schema and a directory
// created on first use.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Phase identifies which launcher operation a cache entry belongs to.
type Phase string

const (
	PhaseSubmit Phase = "submit"
	PhaseQuery  Phase = "query"
)

// Key is the cache key, composed as "<run_id>_<step_name>_<phase>".
type Key struct {
	RunID string
	Step  string
	Phase Phase
}

func (k Key) String() string {
	return fmt.Sprintf("%s_%s_%s", k.RunID, k.Step, k.Phase)
}

// Cache is a durable (run_id, step_name, phase) -> handle map backed by
// SQLite, matching the Store wrapping pattern.
type Cache struct {
	db *sql.DB
}

// Open creates (if necessary) and opens the cache database at path. Pass
// ":memory:" for an ephemeral cache, matching the NewStore
// special-case.
func Open(path string) (*Cache, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open cache database: %w", err)
	}

	c := &Cache{db: db}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init schema: %w", err)
	}
	return c, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached handle for key, and whether it was present.
func (c *Cache) Get(ctx context.Context, key Key) (string, bool, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT handle FROM task_cache WHERE run_id = ? AND step_name = ? AND phase = ?`,
		key.RunID, key.Step, string(key.Phase))

	var handle string
	if err := row.Scan(&handle); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("store: get %s: %w", key, err)
	}
	return handle, true, nil
}

// Put records handle for key. It is idempotent: a second Put with the same
// key and the same handle is a no-op; a second Put with a different
// handle for a submit-phase key is rejected, since at most one
// successful submit is ever recorded for a given key.
func (c *Cache) Put(ctx context.Context, key Key, handle string) error {
	if existing, ok, err := c.Get(ctx, key); err != nil {
		return err
	} else if ok {
		if existing != handle && key.Phase == PhaseSubmit {
			return fmt.Errorf("store: cache key %s already holds handle %q, refusing to overwrite with %q", key, existing, handle)
		}
		return nil
	}

	_, err := c.db.ExecContext(ctx,
		`INSERT INTO task_cache (run_id, step_name, phase, handle) VALUES (?, ?, ?, ?)`,
		key.RunID, key.Step, string(key.Phase), handle)
	if err != nil {
		return fmt.Errorf("store: put %s: %w", key, err)
	}
	return nil
}
