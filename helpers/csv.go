package helpers

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/spektr-org/campusmap/engine"
	"github.com/spektr-org/campusmap/schema"
)

// ============================================================================
// CSV HELPER — Parses the school locations file into []engine.Record
// ============================================================================
// The file is read once at startup into a gota DataFrame with every column
// kept as text, so attribute codes like "01" or "N" survive verbatim. Source
// columns are then mapped onto the canonical keys from the schema.
// ============================================================================

// ErrMissingColumns is returned when the dataset lacks a required column.
var ErrMissingColumns = errors.New("missing required columns")

// ParseCSV parses CSV bytes into Records using the schema column mapping.
func ParseCSV(data []byte, sch schema.Config) ([]engine.Record, error) {
	headers, err := schema.ReadHeaders(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if missing := sch.MissingColumns(headers); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	if !hasRows(data) {
		return []engine.Record{}, nil
	}

	df := dataframe.ReadCSV(bytes.NewReader(data),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{}),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", df.Err)
	}

	// gota keeps header text as-is; map cleaned names back to frame names.
	names := make(map[string]string)
	for _, n := range df.Names() {
		names[schema.CleanHeader(n)] = n
	}
	column := func(source string) []string {
		name, ok := names[source]
		if !ok {
			return nil
		}
		return df.Col(name).Records()
	}

	dims := map[string][]string{
		engine.StateKey: column(sch.Columns.State),
		engine.NameKey:  column(sch.Columns.Name),
	}
	for _, a := range sch.Attributes {
		dims[a.Key] = column(a.SourceColumn())
	}
	lats := column(sch.Columns.Lat)
	lons := column(sch.Columns.Lon)

	n := df.Nrow()
	records := make([]engine.Record, n)
	badCoords := 0
	for i := 0; i < n; i++ {
		rec := engine.Record{
			Dimensions: make(map[string]string, len(dims)),
			Measures:   make(map[string]float64, 2),
		}
		for key, values := range dims {
			if values == nil {
				continue
			}
			rec.Dimensions[key] = strings.TrimSpace(values[i])
		}
		if !setCoord(rec.Measures, engine.LatKey, lats[i]) {
			badCoords++
		}
		if !setCoord(rec.Measures, engine.LonKey, lons[i]) {
			badCoords++
		}
		records[i] = rec
	}

	if badCoords > 0 {
		log.Printf("⚠️  %d unparseable coordinates left unset", badCoords)
	}
	return records, nil
}

// ParseCSVView parses CSV into a RecordView (convenience wrapper).
func ParseCSVView(data []byte, sch schema.Config) (engine.RecordView, error) {
	records, err := ParseCSV(data, sch)
	if err != nil {
		return nil, err
	}
	return engine.NewSliceView(records), nil
}

// ReadFile loads a CSV file from disk into a RecordView.
func ReadFile(path string, sch schema.Config) (engine.RecordView, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	view, err := ParseCSVView(data, sch)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return view, nil
}

func setCoord(m map[string]float64, key, raw string) bool {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return false
	}
	m[key] = f
	return true
}

// hasRows reports whether the CSV has at least one record after the header.
func hasRows(data []byte) bool {
	r := csv.NewReader(bytes.NewReader(data))
	if _, err := r.Read(); err != nil {
		return false
	}
	_, err := r.Read()
	return err != io.EOF
}
