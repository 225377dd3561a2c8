// Package cache provides a SQLite-backed store of normalized symbol query
// results, keyed by file path and invalidated when a file's mtime or size
// changes.
package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite" // register sqlite driver

	"github.com/xonecas/stree/internal/lsp"
)

const schema = `
CREATE TABLE IF NOT EXISTS symbol_cache (
	path    TEXT PRIMARY KEY,
	mtime   INTEGER NOT NULL,
	size    INTEGER NOT NULL,
	data    TEXT NOT NULL
);
`

// Store caches symbol results between runs. A nil *Store is a valid,
// permanently-missing cache, so callers never branch on "cache disabled".
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// Open creates or opens a cache database at the given path.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	// SQLite pragmas for performance.
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database. Safe on a nil receiver.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns the cached symbols for path when the stored mtime and size
// still match fi. Safe on a nil receiver (always a miss).
func (s *Store) Get(path string, fi os.FileInfo) ([]lsp.SymbolNode, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var data string
	err := s.db.QueryRow(
		"SELECT data FROM symbol_cache WHERE path = ? AND mtime = ? AND size = ?",
		path, fi.ModTime().UnixNano(), fi.Size(),
	).Scan(&data)
	if err != nil {
		return nil, false
	}

	var symbols []lsp.SymbolNode
	if err := json.Unmarshal([]byte(data), &symbols); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("cache: dropping corrupt entry")
		s.db.Exec("DELETE FROM symbol_cache WHERE path = ?", path) //nolint:errcheck // best-effort cleanup
		return nil, false
	}
	return symbols, true
}

// Put stores the symbols for path together with its current mtime and
// size. No-op on a nil receiver; storage failures are logged, not fatal.
func (s *Store) Put(path string, fi os.FileInfo, symbols []lsp.SymbolNode) {
	if s == nil {
		return
	}

	data, err := json.Marshal(symbols)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("cache: marshal symbols")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO symbol_cache (path, mtime, size, data) VALUES (?, ?, ?, ?)",
		path, fi.ModTime().UnixNano(), fi.Size(), string(data),
	)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("cache: store symbols")
	}
}
