package helpers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spektr-org/campusmap/engine"
	"github.com/spektr-org/campusmap/schema"
	"github.com/spektr-org/campusmap/store"
)

const header = "X,Y,NAME,STATE,LAT,LON,LOCALE,CBSA,CSA,NECTA,CD,SLDL,SLDU\n"

var sampleCSV = []byte(header +
	"-71.0,42.0,Harbor College,MA,42.0,-71.0,11,14460,148,71650,2501,25010,25002\n" +
	"-72.6,42.4,Pioneer Institute,MA,42.4,-72.6,41,N,N,N,2502,25011,25003\n" +
	"-118.0,34.0,Golden Coast University,CA,34.0,-118.0,21,31080,348,N,0637,06050,06026\n" +
	"-66.1,18.4,Isla Tech,PR,not-a-number,-66.1,13,NA,490,N,7298,72001,72002\n")

func TestParseCSV(t *testing.T) {
	records, err := ParseCSV(sampleCSV, *schema.Default())
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(records))
	}

	first := records[0]
	if first.Dimensions[engine.StateKey] != "MA" || first.Dimensions[engine.NameKey] != "Harbor College" {
		t.Errorf("unexpected dimensions: %v", first.Dimensions)
	}
	if first.Measures[engine.LatKey] != 42.0 || first.Measures[engine.LonKey] != -71.0 {
		t.Errorf("unexpected measures: %v", first.Measures)
	}
	// X/Y are not mapped
	if _, ok := first.Dimensions["X"]; ok {
		t.Error("unmapped column X should not become a dimension")
	}
}

func TestParseCSVKeepsCodesVerbatim(t *testing.T) {
	records, err := ParseCSV(sampleCSV, *schema.Default())
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}

	tests := []struct {
		row  int
		key  string
		want string
	}{
		{1, "NECTA", "N"},
		{2, "CD", "0637"},
		{2, "SLDL", "06050"},
		{3, "CBSA", "NA"},
	}
	for _, tt := range tests {
		if got := records[tt.row].Dimensions[tt.key]; got != tt.want {
			t.Errorf("row %d %s = %q, want %q", tt.row, tt.key, got, tt.want)
		}
	}
}

func TestParseCSVBadCoordinateLeftUnset(t *testing.T) {
	records, err := ParseCSV(sampleCSV, *schema.Default())
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	pr := records[3]
	if _, ok := pr.Measures[engine.LatKey]; ok {
		t.Errorf("unparseable LAT should be unset, got %v", pr.Measures[engine.LatKey])
	}
	if pr.Measures[engine.LonKey] != -66.1 {
		t.Errorf("LON = %v", pr.Measures[engine.LonKey])
	}
}

func TestParseCSVMissingColumns(t *testing.T) {
	data := []byte("NAME,STATE,LAT,LON,LOCALE\nHarbor College,MA,42,-71,11\n")
	_, err := ParseCSV(data, *schema.Default())
	if !errors.Is(err, ErrMissingColumns) {
		t.Fatalf("expected ErrMissingColumns, got %v", err)
	}
}

func TestParseCSVHeaderOnly(t *testing.T) {
	records, err := ParseCSV([]byte(header), *schema.Default())
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestParseCSVByteOrderMark(t *testing.T) {
	data := append([]byte("\ufeff"), sampleCSV...)
	view, err := ParseCSVView(data, *schema.Default())
	if err != nil {
		t.Fatalf("ParseCSVView: %v", err)
	}
	if view.Len() != 4 {
		t.Errorf("expected 4 records, got %d", view.Len())
	}
	if !engine.HasDimension(view, "LOCALE") {
		t.Error("LOCALE missing after BOM header")
	}
}

func TestParseCSVCustomColumns(t *testing.T) {
	sch, err := schema.Parse([]byte(`
columns:
  state: ST
  lat: LATITUDE
  lon: LONGITUDE
attributes:
  - key: LOCALE
    column: LOCALE_CODE
`))
	if err != nil {
		t.Fatalf("schema.Parse: %v", err)
	}
	data := []byte("ST,LATITUDE,LONGITUDE,LOCALE_CODE\nMA,42.0,-71.0,11\n")
	records, err := ParseCSV(data, *sch)
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(records) != 1 || records[0].Dimensions[engine.StateKey] != "MA" || records[0].Dimensions["LOCALE"] != "11" {
		t.Errorf("unexpected records: %+v", records)
	}
}

func TestLoadCSVAndSnapshot(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "schools.csv")
	if err := os.WriteFile(csvPath, sampleCSV, 0o644); err != nil {
		t.Fatal(err)
	}
	sch := *schema.Default()

	fromCSV, err := Load(ctx, csvPath, sch)
	if err != nil {
		t.Fatalf("Load csv: %v", err)
	}

	dbPath := filepath.Join(dir, "schools.db")
	st, err := store.NewStore(store.StoreConfig{DBPath: dbPath})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	n, err := Import(ctx, csvPath, st, sch)
	st.Close()
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if n != 4 {
		t.Errorf("imported %d, want 4", n)
	}

	fromDB, err := Load(ctx, dbPath, sch)
	if err != nil {
		t.Fatalf("Load snapshot: %v", err)
	}
	if fromDB.Len() != fromCSV.Len() {
		t.Fatalf("snapshot has %d schools, csv %d", fromDB.Len(), fromCSV.Len())
	}

	for _, state := range []string{"MA", "CA", "PR"} {
		a, _ := engine.Summarize(fromCSV, state, "NECTA")
		b, _ := engine.Summarize(fromDB, state, "NECTA")
		if len(a) != len(b) {
			t.Errorf("%s: csv %v vs snapshot %v", state, a, b)
		}
	}
}

func TestIsSnapshot(t *testing.T) {
	tests := map[string]bool{
		"schools.csv":  false,
		"schools.db":   true,
		"a/b.SQLITE":   true,
		"x.sqlite3":    true,
		"no-extension": false,
	}
	for path, want := range tests {
		if got := IsSnapshot(path); got != want {
			t.Errorf("IsSnapshot(%q) = %v, want %v", path, got, want)
		}
	}
}
