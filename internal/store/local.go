// Package store implements the local persistent store for wonderlens
// using SQLite. Two tiers: a key-value singleton tier (profile,
// settings) and indexed collections (explorations, cards,
// conversations). The store exclusively owns all persisted entities;
// no other component touches the database directly.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"wonderlens/internal/logging"
)

var (
	// ErrStorageUnavailable wraps any failure of the underlying engine.
	// Callers treat reads as empty and surface a non-fatal notice on
	// writes instead of crashing.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrNotFound is returned by point lookups when no record exists.
	ErrNotFound = errors.New("record not found")
)

// LocalStore is the single shared mutable resource of the client. Each
// operation is a self-contained transaction; the engine serializes
// same-collection writes (MaxOpenConns=1 + WAL). Callers must not
// assume read-after-write consistency across two independently issued
// calls without awaiting the first.
type LocalStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// NewLocalStore opens (or creates) the SQLite database at the given
// path and runs any pending schema migrations before returning.
func NewLocalStore(path string) (*LocalStore, error) {
	timer := logging.StartTimer(logging.CategoryStore, "NewLocalStore")
	defer timer.Stop()

	logging.Store("Initializing LocalStore at path: %s", path)

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			logging.Get(logging.CategoryStore).Error("Failed to create directory %s: %v", dir, err)
			return nil, fmt.Errorf("create data directory: %w: %v", ErrStorageUnavailable, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to open database at %s: %v", path, err)
		return nil, fmt.Errorf("open database: %w: %v", ErrStorageUnavailable, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite synchronous=NORMAL: %v", err)
	}

	store := &LocalStore{db: db, dbPath: path}
	if err := store.migrate(); err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to migrate schema: %v", err)
		db.Close()
		return nil, err
	}

	logging.Store("LocalStore ready (singleton + collection tiers)")
	return store, nil
}

// Close closes the database connection.
func (s *LocalStore) Close() error {
	logging.Store("Closing LocalStore database connection")
	return s.db.Close()
}

// unavailable wraps a driver-level failure so callers can detect the
// storage-unavailable condition with errors.Is.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrStorageUnavailable, err)
}

// Stats returns per-collection record counts.
func (s *LocalStore) Stats() (map[string]int64, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Stats")
	defer timer.Stop()

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]int64)
	for _, table := range []string{"singletons", "explorations", "cards", "conversations"} {
		var count int64
		err := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count)
		if err != nil {
			logging.StoreDebug("Table %s count failed: %v", table, err)
			continue
		}
		stats[table] = count
	}
	return stats, nil
}
