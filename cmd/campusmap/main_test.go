package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spektr-org/campusmap/config"
	"github.com/spektr-org/campusmap/engine"
	"github.com/spektr-org/campusmap/schema"
	"github.com/spektr-org/campusmap/store"
)

func school(state, name string, lat, lon float64, locale, necta string) engine.Record {
	return engine.Record{
		Dimensions: map[string]string{
			engine.StateKey: state,
			engine.NameKey:  name,
			"LOCALE":        locale,
			"NECTA":         necta,
		},
		Measures: map[string]float64{engine.LatKey: lat, engine.LonKey: lon},
	}
}

func testView() engine.RecordView {
	return engine.NewSliceView([]engine.Record{
		school("MA", "Harbor College", 42.0, -71.0, "11", "71650"),
		school("MA", "Pioneer Institute", 42.4, -72.6, "41", "N"),
		school("MA", "Bay State Tech", 42.2, -71.2, "11", "71650"),
		school("CA", "Golden Coast University", 34.0, -118.0, "21", "N"),
	})
}

func testConsole() (*console, *bytes.Buffer) {
	var buf bytes.Buffer
	return newConsole(testView(), schema.Default(), &buf), &buf
}

func TestWriteStates(t *testing.T) {
	var buf bytes.Buffer
	writeStates(&buf, testView())
	want := "CA   1\nMA   3\n"
	if buf.String() != want {
		t.Errorf("writeStates = %q, want %q", buf.String(), want)
	}
}

func TestWriteConfig(t *testing.T) {
	cfg := config.ResolvedConfig{
		ConfigPath: "/etc/campusmap.yaml",
		Addr:       config.ResolvedValue{Value: ":9000", Source: config.SourceEnv, From: "CAMPUSMAP_ADDR"},
	}
	var buf bytes.Buffer
	writeConfig(&buf, cfg)
	out := buf.String()
	if !strings.Contains(out, ":9000  [env: CAMPUSMAP_ADDR]") {
		t.Errorf("missing provenance:\n%s", out)
	}
	if !strings.Contains(out, "state      (unset)") {
		t.Errorf("unset values should be marked:\n%s", out)
	}
}

func TestWriteJSONFormats(t *testing.T) {
	v := map[string]int{"a": 1}

	var compact, pretty bytes.Buffer
	writeJSON(&compact, v, "json")
	writeJSON(&pretty, v, "pretty")

	if compact.String() != "{\"a\":1}\n" {
		t.Errorf("compact = %q", compact.String())
	}
	if pretty.String() != "{\n  \"a\": 1\n}\n" {
		t.Errorf("pretty = %q", pretty.String())
	}
}

func TestConsoleSelection(t *testing.T) {
	c, buf := testConsole()

	if c.sel != (engine.Selection{State: "CA", Attribute: "LOCALE", Scheme: "Red"}) {
		t.Fatalf("initial selection = %+v", c.sel)
	}
	if c.prompt() != "CA/LOCALE/Red> " {
		t.Errorf("prompt = %q", c.prompt())
	}

	if quit := c.exec("ma necta blue"); quit {
		t.Fatal("selection change should not quit")
	}
	if c.sel != (engine.Selection{State: "MA", Attribute: "NECTA", Scheme: "Blue"}) {
		t.Errorf("selection = %+v", c.sel)
	}
	out := buf.String()
	if !strings.Contains(out, "Showing NECTA codes in MA with the Blue scheme") {
		t.Errorf("missing interpretation:\n%s", out)
	}
	if !strings.Contains(out, "71650") || !strings.Contains(out, "50.0%") {
		t.Errorf("missing frequency rows:\n%s", out)
	}
}

func TestConsoleBadInputKeepsSelection(t *testing.T) {
	c, buf := testConsole()
	before := c.sel

	c.exec("scheme=orange")
	if c.sel != before {
		t.Errorf("selection changed on error: %+v", c.sel)
	}
	if !strings.Contains(buf.String(), "unknown color scheme") {
		t.Errorf("expected scheme error, got:\n%s", buf.String())
	}
}

func TestConsoleVerbs(t *testing.T) {
	tests := []struct {
		line string
		want string
		quit bool
	}{
		{"help", "export csv|xlsx PATH", false},
		{"states", "MA   3", false},
		{"attributes", "NECTA    New England City and Town Area", false},
		{"schemes", "Red, Green, Blue, Purple", false},
		{"define census division", "Census Division (CD)", false},
		{"define ZIP", "unknown attribute", false},
		{"export pdf out.pdf", "unknown export format", false},
		{"quit", "", true},
		{"exit", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			c, buf := testConsole()
			if quit := c.exec(tt.line); quit != tt.quit {
				t.Errorf("quit = %v, want %v", quit, tt.quit)
			}
			if tt.want != "" && !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, buf.String())
			}
		})
	}
}

func TestConsoleExportAndRender(t *testing.T) {
	c, buf := testConsole()
	dir := t.TempDir()
	c.exec("state=MA attribute=NECTA")

	csvPath := filepath.Join(dir, "ma.csv")
	c.exec("export csv " + csvPath)
	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("csv not written: %v\n%s", err, buf.String())
	}
	if !strings.Contains(string(data), "71650") {
		t.Errorf("csv missing code:\n%s", data)
	}

	xlsxPath := filepath.Join(dir, "ma.xlsx")
	c.exec("export xlsx " + xlsxPath)
	if info, err := os.Stat(xlsxPath); err != nil || info.Size() == 0 {
		t.Errorf("xlsx not written: %v", err)
	}

	c.exec("render " + dir)
	for _, name := range []string{"frequency.png", "heatmap.png", "scatter.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not rendered: %v", name, err)
		}
	}
}

func TestOpenSnapshotRefusesEmpty(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "schools.db")

	if _, err := openSnapshot(ctx, path); err == nil || !strings.Contains(err.Error(), "is empty") {
		t.Fatalf("expected empty snapshot error, got %v", err)
	}

	st, err := store.NewStore(store.StoreConfig{DBPath: path})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, err := st.ImportView(ctx, testView(), nil, "test.csv"); err != nil {
		t.Fatalf("ImportView: %v", err)
	}
	st.Close()

	st, err = openSnapshot(ctx, path)
	if err != nil {
		t.Fatalf("openSnapshot: %v", err)
	}
	defer st.Close()
	view, err := st.LoadView(ctx)
	if err != nil {
		t.Fatalf("LoadView: %v", err)
	}
	if view.Len() != testView().Len() {
		t.Errorf("snapshot has %d schools, want %d", view.Len(), testView().Len())
	}
}
