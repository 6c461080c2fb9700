package render

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/plot"

	"github.com/spektr-org/campusmap/engine"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

func testDashboard(t *testing.T, state string) *engine.Dashboard {
	t.Helper()
	school := func(st, name, locale string, lat, lon float64) engine.Record {
		return engine.Record{
			Dimensions: map[string]string{engine.StateKey: st, engine.NameKey: name, "LOCALE": locale},
			Measures:   map[string]float64{engine.LatKey: lat, engine.LonKey: lon},
		}
	}
	view := engine.NewSliceView([]engine.Record{
		school("MA", "Harbor College", "11", 42.0, -71.0),
		school("MA", "Pioneer Institute", "41", 42.4, -72.6),
		school("MA", "Bay State Tech", "N", 42.2, -71.2),
		school("CA", "Golden Coast University", "21", 34.0, -118.0),
	})
	dash, err := engine.Execute(engine.Selection{State: state, Attribute: "LOCALE", Scheme: "Purple"}, view)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	return dash
}

func assertPNG(t *testing.T, name string, data []byte) {
	t.Helper()
	if !bytes.HasPrefix(data, pngSignature) {
		t.Errorf("%s: output is not a PNG (%d bytes)", name, len(data))
	}
}

func TestWritePNG(t *testing.T) {
	for _, state := range []string{"MA", "NY"} {
		dash := testDashboard(t, state)

		chart, err := FrequencyChart(dash.Chart)
		if err != nil {
			t.Fatalf("%s FrequencyChart: %v", state, err)
		}
		heat, err := Heatmap(dash.Heatmap)
		if err != nil {
			t.Fatalf("%s Heatmap: %v", state, err)
		}
		scatter, err := ScatterMap(dash.Scatter)
		if err != nil {
			t.Fatalf("%s ScatterMap: %v", state, err)
		}

		tests := []struct {
			name string
			plot *plot.Plot
			size Size
		}{
			{"chart", chart, Size{}},
			{"heatmap", heat, Size{Width: 300, Height: 200}},
			{"scatter", scatter, DefaultSize},
		}
		for _, tt := range tests {
			var buf bytes.Buffer
			if err := WritePNG(&buf, tt.plot, tt.size); err != nil {
				t.Fatalf("%s %s png: %v", state, tt.name, err)
			}
			assertPNG(t, state+" "+tt.name, buf.Bytes())
		}
	}
}

func TestEmptyLayersStillRender(t *testing.T) {
	heat, err := Heatmap(&engine.HeatmapLayer{Attribute: "CBSA"})
	if err != nil {
		t.Fatalf("Heatmap: %v", err)
	}
	scatter, err := ScatterMap(&engine.ScatterLayer{})
	if err != nil {
		t.Fatalf("ScatterMap: %v", err)
	}
	chart, err := FrequencyChart(&engine.ChartConfig{Title: "empty", Series: []engine.ChartSeries{{}}})
	if err != nil {
		t.Fatalf("FrequencyChart: %v", err)
	}
	for name, p := range map[string]*plot.Plot{"heatmap": heat, "scatter": scatter, "chart": chart} {
		var buf bytes.Buffer
		if err := WritePNG(&buf, p, Size{}); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		assertPNG(t, name, buf.Bytes())
	}
}

func TestDensityGrid(t *testing.T) {
	points := []engine.LonLat{
		{Lon: -71, Lat: 42}, {Lon: -71, Lat: 42}, {Lon: -118, Lat: 34},
	}
	g := newDensityGrid(points, 0.5, 4, 2)

	cols, rows := g.Dims()
	if cols != 4 || rows != 2 {
		t.Fatalf("Dims = %d x %d", cols, rows)
	}
	// The two identical points share the top-right cell.
	if got := g.Z(3, 1); got != 1.0 {
		t.Errorf("Z(3,1) = %v, want 1.0", got)
	}
	if got := g.Z(0, 0); got != 0.5 {
		t.Errorf("Z(0,0) = %v, want 0.5", got)
	}
	if g.max() != 1.0 {
		t.Errorf("max = %v", g.max())
	}
	if x := g.X(0); x <= -118 || x >= -71 {
		t.Errorf("X(0) = %v out of range", x)
	}

	single := newDensityGrid([]engine.LonLat{{Lon: 10, Lat: 10}}, 1, 2, 2)
	if single.cellW <= 0 || single.cellH <= 0 {
		t.Errorf("degenerate extent not widened: %+v", single)
	}
}

func TestWriteDashboard(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	paths, err := WriteDashboard(dir, testDashboard(t, "MA"), Size{Width: 200, Height: 150})
	if err != nil {
		t.Fatalf("WriteDashboard: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("paths = %v", paths)
	}
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			t.Fatal(err)
		}
		assertPNG(t, filepath.Base(p), data)
	}
}
