// Package sqlitestore is a cache.Store kept in a SQLite database, for single
// instance deployments that want cached responses to survive restarts.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/jonwraymond/routecache/cache"
	"github.com/jonwraymond/routecache/observe"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const schema = `CREATE TABLE IF NOT EXISTS cache (
	key     TEXT PRIMARY KEY,
	expires INTEGER NOT NULL,
	value   BLOB NOT NULL
)`

// Store implements cache.Store.
type Store struct {
	db     *sql.DB
	logger observe.Logger
	ready  atomic.Bool
	now    func() time.Time

	// SQLite allows a single writer.
	writeMu sync.Mutex
}

// Open opens or creates the database at path and prepares the cache table.
func Open(ctx context.Context, path string, logger observe.Logger) (*Store, error) {
	if logger == nil {
		logger = observe.NopLogger()
	}
	if path == "" {
		path = MemoryPath
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open %s: %w", path, err)
	}
	if path == MemoryPath {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	for _, stmt := range []string{
		schema,
		"CREATE INDEX IF NOT EXISTS cache_expires_idx ON cache (expires)",
		"PRAGMA journal_mode=WAL",
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlitestore: prepare schema: %w", err)
		}
	}

	s := &Store{db: db, logger: logger, now: time.Now}
	s.ready.Store(true)
	logger.Info(ctx, "sqlite cache store ready", observe.Field{Key: "path", Value: path})
	return s, nil
}

// Get returns the value at key, or "" when it is absent or expired. Expired
// rows are deleted.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var expires int64
	var value []byte
	err := s.db.QueryRowContext(ctx, "SELECT expires, value FROM cache WHERE key = ?", key).Scan(&expires, &value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("sqlitestore: get: %w", err)
	}

	if s.now().UnixMilli() >= expires {
		s.writeMu.Lock()
		_, err := s.db.ExecContext(ctx, "DELETE FROM cache WHERE key = ? AND expires = ?", key, expires)
		s.writeMu.Unlock()
		if err != nil {
			s.logger.Debug(ctx, "sqlite purge failed", observe.Field{Key: "error", Value: err})
		}
		return "", nil
	}
	return string(value), nil
}

// Set writes value at key, replacing any existing row. A non-positive ttl
// stores nothing.
func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	expires := s.now().Add(ttl).UnixMilli()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO cache (key, expires, value) VALUES (?, ?, ?)",
		key, expires, []byte(value),
	)
	if err != nil {
		return fmt.Errorf("sqlitestore: set: %w", err)
	}
	return nil
}

// Len returns the number of rows, expired or not.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cache").Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlitestore: count: %w", err)
	}
	return n, nil
}

// Ready reports whether the database is open.
func (s *Store) Ready() bool {
	return s.ready.Load()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close marks the store not ready and closes the database.
func (s *Store) Close() error {
	if !s.ready.Swap(false) {
		return nil
	}
	return s.db.Close()
}

var _ cache.Store = (*Store)(nil)
