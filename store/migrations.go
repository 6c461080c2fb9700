package store

import (
	"fmt"
)

// migrate creates all tables if they don't exist.
func (s *SQLiteStore) migrate() error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS schools (
			id    INTEGER PRIMARY KEY,
			state TEXT NOT NULL,
			name  TEXT NOT NULL DEFAULT '',
			lat   REAL NOT NULL DEFAULT 0,
			lon   REAL NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_schools_state ON schools(state)`,
		`CREATE TABLE IF NOT EXISTS attributes (
			key      TEXT PRIMARY KEY,
			position INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS school_codes (
			school_id INTEGER NOT NULL REFERENCES schools(id) ON DELETE CASCADE,
			attribute TEXT NOT NULL REFERENCES attributes(key) ON DELETE CASCADE,
			value     TEXT NOT NULL,
			PRIMARY KEY (school_id, attribute)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_codes_attribute ON school_codes(attribute, value)`,
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning migration: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range ddl {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}
	return tx.Commit()
}
