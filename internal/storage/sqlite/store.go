// Package sqlite implements the storage interface using SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	// Import SQLite driver
	sqlite3 "github.com/ncruces/go-sqlite3"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/tetratelabs/wazero"
)

// Store implements the storage.Storage interface using SQLite
type Store struct {
	db     *sql.DB
	dbPath string
	closed atomic.Bool // Tracks whether Close() has been called
}

// setupWASMCache configures WASM compilation caching to reduce SQLite
// startup time. The driver compiles its WASM module once and reuses it from
// ~/.cache/tm/wasm/ on subsequent runs; falls back to an in-memory cache if
// the directory cannot be created.
func setupWASMCache() {
	var cache wazero.CompilationCache
	if userCache, err := os.UserCacheDir(); err == nil {
		dir := filepath.Join(userCache, "tm", "wasm")
		if c, err := wazero.NewCompilationCacheWithDir(dir); err == nil {
			cache = c
		}
	}
	if cache == nil {
		cache = wazero.NewCompilationCache()
	}
	sqlite3.RuntimeConfig = wazero.NewRuntimeConfig().WithCompilationCache(cache)
}

func init() {
	setupWASMCache()
}

// New creates a new SQLite storage backend
func New(ctx context.Context, path string) (*Store, error) {
	// Build connection string with proper URI syntax.
	// For :memory: databases, use shared cache so multiple connections see
	// the same data. WAL mode doesn't work with shared in-memory databases,
	// so those use DELETE mode.
	var connStr string
	isInMemory := path == ":memory:" ||
		(strings.HasPrefix(path, "file:") && strings.Contains(path, "mode=memory"))
	switch {
	case path == ":memory:":
		connStr = "file:memdb?mode=memory&cache=shared&_pragma=journal_mode(DELETE)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(30000)&_time_format=sqlite"
	case strings.HasPrefix(path, "file:"):
		connStr = path
		if !strings.Contains(path, "_pragma=foreign_keys") {
			connStr += "&_pragma=foreign_keys(ON)&_pragma=busy_timeout(30000)&_time_format=sqlite"
		}
	default:
		// Ensure directory exists for file-based databases
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		connStr = "file:" + path + "?_pragma=foreign_keys(ON)&_pragma=busy_timeout(30000)&_time_format=sqlite"
	}

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if isInMemory {
		// In-memory databases are isolated per connection by default; force
		// a single connection so every caller sees the same data.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		// WAL supports 1 writer + N readers; cap the pool so write-lock
		// contention doesn't pile up goroutines.
		db.SetMaxOpenConns(runtime.NumCPU() + 1)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(0) // SQLite doesn't need connection recycling
	}

	if !isInMemory {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	absPath := path
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		absPath, err = filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path: %w", err)
		}
	}

	return &Store{db: db, dbPath: absPath}, nil
}

// Close closes the database connection.
// It checkpoints the WAL to ensure all writes are flushed to the main
// database file; without this, writes may be stranded in the WAL between
// CLI invocations.
func (s *Store) Close() error {
	s.closed.Store(true)
	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return s.db.Close()
}

// Path returns the path the store was opened with
func (s *Store) Path() string {
	return s.dbPath
}

// beginImmediate starts an IMMEDIATE transaction on conn, retrying with
// exponential backoff while SQLite reports the database as busy/locked.
func beginImmediate(ctx context.Context, conn *sql.Conn) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 10 * time.Millisecond
	bo.MaxElapsedTime = 5 * time.Second

	return backoff.Retry(func() error {
		_, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE")
		if err == nil {
			return nil
		}
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "busy") || strings.Contains(msg, "locked") {
			return err // retryable
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(bo, ctx))
}
