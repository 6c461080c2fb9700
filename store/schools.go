package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spektr-org/campusmap/engine"
)

// ImportView replaces the snapshot contents with every record of view.
// attributes names the statistical columns to store; nil stores every
// dimension except state and name. Returns the number of schools written.
func (s *SQLiteStore) ImportView(ctx context.Context, view engine.RecordView, attributes []string, source string) (int, error) {
	if attributes == nil {
		for _, k := range view.DimensionKeys() {
			if k != engine.StateKey && k != engine.NameKey {
				attributes = append(attributes, k)
			}
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning import: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DELETE FROM school_codes",
		"DELETE FROM schools",
		"DELETE FROM attributes",
		"DELETE FROM meta",
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return 0, fmt.Errorf("clearing snapshot: %w", err)
		}
	}

	for i, key := range attributes {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO attributes (key, position) VALUES (?, ?)", key, i,
		); err != nil {
			return 0, fmt.Errorf("inserting attribute %q: %w", key, err)
		}
	}

	schoolStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO schools (id, state, name, lat, lon) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("preparing school insert: %w", err)
	}
	defer schoolStmt.Close()

	codeStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO school_codes (school_id, attribute, value) VALUES (?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("preparing code insert: %w", err)
	}
	defer codeStmt.Close()

	n := view.Len()
	for i := 0; i < n; i++ {
		id := int64(i + 1)
		if _, err := schoolStmt.ExecContext(ctx, id,
			view.Dimension(i, engine.StateKey),
			view.Dimension(i, engine.NameKey),
			view.Measure(i, engine.LatKey),
			view.Measure(i, engine.LonKey),
		); err != nil {
			return 0, fmt.Errorf("inserting school %d: %w", id, err)
		}
		for _, key := range attributes {
			if _, err := codeStmt.ExecContext(ctx, id, key, view.Dimension(i, key)); err != nil {
				return 0, fmt.Errorf("inserting %s code for school %d: %w", key, id, err)
			}
		}
		if (i+1)%s.batchSize == 0 {
			log.Printf("📥 imported %d/%d schools", i+1, n)
		}
	}

	meta := map[string]string{
		"source":      source,
		"imported_at": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, "INSERT INTO meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return 0, fmt.Errorf("writing meta %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing import: %w", err)
	}
	return n, nil
}

// Attributes returns the stored attribute keys in import order.
func (s *SQLiteStore) Attributes(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key FROM attributes ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("listing attributes: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning attribute: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// States returns the distinct non-blank states in ascending order.
func (s *SQLiteStore) States(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT state FROM schools WHERE state != '' ORDER BY state")
	if err != nil {
		return nil, fmt.Errorf("listing states: %w", err)
	}
	defer rows.Close()

	states := []string{}
	for rows.Next() {
		var st string
		if err := rows.Scan(&st); err != nil {
			return nil, fmt.Errorf("scanning state: %w", err)
		}
		states = append(states, st)
	}
	return states, rows.Err()
}

// ListSchools returns every school with its codes, in import order.
func (s *SQLiteStore) ListSchools(ctx context.Context) ([]*School, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, state, name, lat, lon FROM schools ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("listing schools: %w", err)
	}
	defer rows.Close()

	var schools []*School
	byID := make(map[int64]*School)
	for rows.Next() {
		sc := &School{Attributes: make(map[string]string)}
		if err := rows.Scan(&sc.ID, &sc.State, &sc.Name, &sc.Lat, &sc.Lon); err != nil {
			return nil, fmt.Errorf("scanning school: %w", err)
		}
		schools = append(schools, sc)
		byID[sc.ID] = sc
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	codes, err := s.db.QueryContext(ctx, "SELECT school_id, attribute, value FROM school_codes")
	if err != nil {
		return nil, fmt.Errorf("listing codes: %w", err)
	}
	defer codes.Close()

	for codes.Next() {
		var id int64
		var attr, value string
		if err := codes.Scan(&id, &attr, &value); err != nil {
			return nil, fmt.Errorf("scanning code: %w", err)
		}
		if sc, ok := byID[id]; ok {
			sc.Attributes[attr] = value
		}
	}
	return schools, codes.Err()
}

// LoadView rebuilds the dataset as an engine.RecordView over School rows.
func (s *SQLiteStore) LoadView(ctx context.Context) (engine.RecordView, error) {
	attrs, err := s.Attributes(ctx)
	if err != nil {
		return nil, err
	}
	schools, err := s.ListSchools(ctx)
	if err != nil {
		return nil, err
	}

	acc := engine.NewAccessors[*School]().
		Dimension(engine.StateKey, func(sc *School) string { return sc.State }).
		Dimension(engine.NameKey, func(sc *School) string { return sc.Name }).
		Measure(engine.LatKey, func(sc *School) float64 { return sc.Lat }).
		Measure(engine.LonKey, func(sc *School) float64 { return sc.Lon })
	for _, key := range attrs {
		acc.Dimension(key, func(sc *School) string { return sc.Attributes[key] })
	}
	return acc.View(schools), nil
}

// Summarize counts attribute codes of one state in SQL. Output matches
// engine.Summarize over the same records: ascending byte order (SQLite
// BINARY collation), sentinel included, empty non-nil slice when no school
// matches.
func (s *SQLiteStore) Summarize(ctx context.Context, state, attribute string) ([]engine.Frequency, error) {
	var schools, known int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schools").Scan(&schools); err != nil {
		return nil, fmt.Errorf("counting schools: %w", err)
	}
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM attributes WHERE key = ?", attribute,
	).Scan(&known); err != nil {
		return nil, fmt.Errorf("checking attribute: %w", err)
	}
	if schools > 0 && known == 0 {
		return nil, fmt.Errorf("%w: %q", engine.ErrUnknownAttribute, attribute)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.value, COUNT(*)
		FROM school_codes c
		JOIN schools s ON s.id = c.school_id
		WHERE s.state = ? AND c.attribute = ?
		GROUP BY c.value
		ORDER BY c.value`, state, attribute)
	if err != nil {
		return nil, fmt.Errorf("summarizing %s in %s: %w", attribute, state, err)
	}
	defer rows.Close()

	freqs := []engine.Frequency{}
	for rows.Next() {
		var f engine.Frequency
		if err := rows.Scan(&f.Value, &f.Count); err != nil {
			return nil, fmt.Errorf("scanning frequency: %w", err)
		}
		freqs = append(freqs, f)
	}
	return freqs, rows.Err()
}

// Stats returns snapshot statistics.
func (s *SQLiteStore) Stats(ctx context.Context) (*StoreStats, error) {
	stats := &StoreStats{}

	queries := []struct {
		query string
		dest  *int64
	}{
		{"SELECT COUNT(*) FROM schools", &stats.SchoolCount},
		{"SELECT COUNT(DISTINCT state) FROM schools WHERE state != ''", &stats.StateCount},
		{"SELECT COUNT(*) FROM attributes", &stats.AttributeCount},
		{"SELECT COUNT(DISTINCT attribute || '/' || value) FROM school_codes", &stats.CodeCount},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("querying stats (%s): %w", q.query, err)
		}
	}

	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM meta")
	if err != nil {
		return nil, fmt.Errorf("reading meta: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scanning meta: %w", err)
		}
		switch k {
		case "source":
			stats.Source = v
		case "imported_at":
			stats.ImportedAt = v
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Only meaningful for file-based DBs
	if s.dbPath != ":memory:" {
		var pageCount, pageSize int64
		s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
		s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		stats.DBSizeBytes = pageCount * pageSize
	}

	return stats, nil
}
