// Package store provides the SQLite snapshot of the school locations dataset.
//
// A CSV is imported once into a single database file holding:
// - one row per school (state, name, coordinates)
// - one row per (school, attribute) code
// - import metadata (source file, time, sentinel)
//
// After import the snapshot is only read: LoadView rebuilds the in-memory
// engine.RecordView and Summarize answers frequency queries in SQL.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/spektr-org/campusmap/engine"
)

// DefaultDBPath is the default snapshot location.
const DefaultDBPath = "~/.campusmap/campusmap.db"

// DefaultBatchSize is how many schools ImportView writes between progress
// log lines. The whole import runs in one transaction.
const DefaultBatchSize = 500

// School is one stored row with its attribute codes.
type School struct {
	ID         int64
	State      string
	Name       string
	Lat        float64
	Lon        float64
	Attributes map[string]string
}

// StoreStats holds snapshot statistics.
type StoreStats struct {
	SchoolCount    int64
	StateCount     int64
	AttributeCount int64
	CodeCount      int64
	Source         string
	ImportedAt     string
	DBSizeBytes    int64
}

// StoreConfig holds configuration for NewStore.
type StoreConfig struct {
	DBPath    string
	BatchSize int
}

// Store defines the snapshot interface.
type Store interface {
	// Import
	ImportView(ctx context.Context, view engine.RecordView, attributes []string, source string) (int, error)

	// Read
	ListSchools(ctx context.Context) ([]*School, error)
	LoadView(ctx context.Context) (engine.RecordView, error)
	Attributes(ctx context.Context) ([]string, error)
	States(ctx context.Context) ([]string, error)
	Summarize(ctx context.Context, state, attribute string) ([]engine.Frequency, error)

	// Observability
	Stats(ctx context.Context) (*StoreStats, error)

	Close() error
}

// SQLiteStore implements Store on modernc.org/sqlite.
type SQLiteStore struct {
	db        *sql.DB
	dbPath    string
	batchSize int
}

// NewStore opens (or creates) a snapshot.
// Pass ":memory:" for in-memory databases (testing).
func NewStore(cfg StoreConfig) (Store, error) {
	if cfg.DBPath == "" {
		cfg.DBPath = ExpandPath(DefaultDBPath)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}

	if cfg.DBPath != ":memory:" {
		dir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Every pooled connection to ":memory:" would be a separate database.
	if cfg.DBPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	s := &SQLiteStore{
		db:        db,
		dbPath:    cfg.DBPath,
		batchSize: cfg.BatchSize,
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ExpandPath expands ~ to home directory.
func ExpandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
