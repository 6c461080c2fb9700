package schema

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spektr-org/campusmap/engine"
)

// ============================================================================
// SCHEMA TESTS
// ============================================================================

func TestDefaultConfig(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	keys := c.AttributeKeys()
	for i, want := range engine.DefaultAttributes {
		assertEqual(t, keys[i], want, "attribute order")
	}
	for i, want := range engine.DefaultSchemes {
		assertEqual(t, c.SchemeNames()[i], want, "scheme order")
	}

	necta, ok := c.Attribute("NECTA")
	if !ok {
		t.Fatal("NECTA attribute missing")
	}
	if !strings.Contains(necta.Description, "New England") || necta.Source == "" {
		t.Errorf("NECTA definition = %+v", necta)
	}

	table := c.PaletteTable()
	if table["Green"] != engine.DefaultPalettes()["Green"] {
		t.Errorf("Green palette round trip = %+v", table["Green"])
	}
}

func TestRequiredColumns(t *testing.T) {
	c := Default()
	cols := c.RequiredColumns()
	assertContains(t, cols, "STATE", "state column")
	assertContains(t, cols, "LAT", "lat column")
	assertContains(t, cols, "SLDU", "attribute column")
	assertNotContains(t, cols, "NAME", "NAME is optional")
}

func TestMissingColumns(t *testing.T) {
	c := Default()
	headers := []string{"\uFEFFSTATE", " NAME ", "LAT", "LON", "LOCALE", "CBSA", "CSA", "NECTA", "CD", "SLDL"}
	missing := c.MissingColumns(headers)
	if len(missing) != 1 || missing[0] != "SLDU" {
		t.Errorf("MissingColumns = %v, want [SLDU]", missing)
	}
}

func TestReadHeaders(t *testing.T) {
	headers, err := ReadHeaders(strings.NewReader("\uFEFFSTATE, LOCALE\nMA,11\n"))
	if err != nil {
		t.Fatalf("ReadHeaders: %v", err)
	}
	if len(headers) != 2 || headers[0] != "STATE" || headers[1] != "LOCALE" {
		t.Errorf("headers = %q", headers)
	}
	if _, err := ReadHeaders(strings.NewReader("")); err == nil {
		t.Error("expected error on empty input")
	}
}

func TestCleanHeader(t *testing.T) {
	tests := map[string]string{
		"\uFEFFSTATE": "STATE",
		" LOCALE ":    "LOCALE",
		"\uFEFF LAT ": "LAT",
		"NAME":        "NAME",
	}
	for in, want := range tests {
		if got := CleanHeader(in); got != want {
			t.Errorf("CleanHeader(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseOverridesAndDefaults(t *testing.T) {
	data := []byte(`
name: Test Schools
columns:
  state: ST
attributes:
  - key: LOCALE
    column: LOCALE_CODE
    display_name: Locale
sentinel: "-"
palettes:
  - name: Gray
    ramp: [[240,240,240],[180,180,180],[100,100,100],[20,20,20]]
    marker: [50,50,50]
    tooltip: white
    bar: gray
`)
	c, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	assertEqual(t, c.Name, "Test Schools", "name")
	assertEqual(t, c.Columns.State, "ST", "state column")
	assertEqual(t, c.Columns.Lat, "LAT", "lat column falls back to default")
	assertEqual(t, c.Sentinel, "-", "sentinel")
	assertEqual(t, c.Attributes[0].SourceColumn(), "LOCALE_CODE", "source column")
	if c.Heatmap.Weight != 0.5 {
		t.Errorf("heatmap weight = %v, want default 0.5", c.Heatmap.Weight)
	}

	gray := c.PaletteTable()["Gray"]
	if gray.Ramp[3] != (engine.RGB{20, 20, 20}) || gray.Marker != (engine.RGB{50, 50, 50}) {
		t.Errorf("Gray palette = %+v", gray)
	}
}

func TestParseRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "duplicate attribute",
			yaml: "attributes:\n  - key: CD\n  - key: CD\n",
			want: "duplicate attribute",
		},
		{
			name: "short ramp",
			yaml: "palettes:\n  - name: X\n    ramp: [[1,2,3]]\n    marker: [1,2,3]\n",
			want: "ramp needs 4 colors",
		},
		{
			name: "channel out of range",
			yaml: "palettes:\n  - name: X\n    ramp: [[1,2,3],[1,2,3],[1,2,3],[1,2,3]]\n    marker: [1,2,300]\n",
			want: "out of range",
		},
		{
			name: "malformed yaml",
			yaml: "attributes: [",
			want: "",
		},
	}
	for _, tt := range tests {
		_, err := Parse([]byte(tt.yaml))
		if err == nil {
			t.Errorf("%s: expected error", tt.name)
			continue
		}
		if tt.want != "" && !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: error %q does not mention %q", tt.name, err, tt.want)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	if err := os.WriteFile(path, []byte("sentinel: X\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	assertEqual(t, c.Sentinel, "X", "sentinel")
	if len(c.Attributes) != 7 {
		t.Errorf("attributes = %d, want defaults", len(c.Attributes))
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestEngineOptions(t *testing.T) {
	c := Default()
	c.Sentinel = "11"
	view := engine.NewSliceView([]engine.Record{
		{Dimensions: map[string]string{"STATE": "MA", "LOCALE": "11", "CBSA": "1", "CSA": "1", "NECTA": "1", "CD": "1", "SLDL": "1", "SLDU": "1"},
			Measures: map[string]float64{"LAT": 42, "LON": -71}},
		{Dimensions: map[string]string{"STATE": "MA", "LOCALE": "12", "CBSA": "1", "CSA": "1", "NECTA": "1", "CD": "1", "SLDL": "1", "SLDU": "1"},
			Measures: map[string]float64{"LAT": 42, "LON": -71}},
	})
	dash, err := engine.Execute(engine.Selection{State: "MA", Attribute: "LOCALE", Scheme: "Red"}, view, c.EngineOptions()...)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(dash.Heatmap.Points) != 1 {
		t.Errorf("heatmap points = %d, want 1 with sentinel 11", len(dash.Heatmap.Points))
	}
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func assertContains(t *testing.T, slice []string, val string, msg string) {
	t.Helper()
	for _, s := range slice {
		if s == val {
			return
		}
	}
	t.Errorf("%s -- %q not found in %v", msg, val, slice)
}

func assertNotContains(t *testing.T, slice []string, val string, msg string) {
	t.Helper()
	for _, s := range slice {
		if s == val {
			t.Errorf("%s -- %q should not be in %v", msg, val, slice)
			return
		}
	}
}

func assertEqual(t *testing.T, got, want, msg string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: got %q, want %q", msg, got, want)
	}
}
