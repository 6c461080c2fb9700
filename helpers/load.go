package helpers

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/spektr-org/campusmap/engine"
	"github.com/spektr-org/campusmap/schema"
	"github.com/spektr-org/campusmap/store"
)

// IsSnapshot reports whether path names a SQLite snapshot rather than a CSV.
func IsSnapshot(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

// Load reads the dataset from a CSV file or a SQLite snapshot, chosen by
// extension.
func Load(ctx context.Context, path string, sch schema.Config) (engine.RecordView, error) {
	if !IsSnapshot(path) {
		return ReadFile(path, sch)
	}

	st, err := store.NewStore(store.StoreConfig{DBPath: path})
	if err != nil {
		return nil, err
	}
	defer st.Close()

	view, err := st.LoadView(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot %s: %w", filepath.Base(path), err)
	}
	return view, nil
}

// Import parses a CSV file and replaces the snapshot contents with it.
// Returns the number of schools stored.
func Import(ctx context.Context, csvPath string, st store.Store, sch schema.Config) (int, error) {
	view, err := ReadFile(csvPath, sch)
	if err != nil {
		return 0, err
	}
	n, err := st.ImportView(ctx, view, sch.AttributeKeys(), filepath.Base(csvPath))
	if err != nil {
		return 0, err
	}
	log.Printf("✅ imported %d schools from %s", n, filepath.Base(csvPath))
	return n, nil
}
