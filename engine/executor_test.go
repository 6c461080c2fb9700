package engine

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/d4l3k/messagediff"
)

// ============================================================================
// DASHBOARD TESTS
// ============================================================================

func located(state, name string, lat, lon float64, dims ...string) Record {
	r := school(state, dims...)
	r.Dimensions[NameKey] = name
	r.Measures[LatKey] = lat
	r.Measures[LonKey] = lon
	return r
}

func campusDataset() RecordView {
	return NewSliceView([]Record{
		located("MA", "Harbor College", 42.0, -71.0, "LOCALE", "11", "NECTA", "71650"),
		located("MA", "Pioneer Institute", 42.4, -72.6, "LOCALE", "41", "NECTA", "N"),
		located("MA", "Bay State Tech", 42.2, -71.2, "LOCALE", "11", "NECTA", "71650"),
		located("CA", "Golden Coast University", 34.0, -118.0, "LOCALE", "21", "NECTA", "N"),
	})
}

type fixedShare float64

func (f fixedShare) Share(attribute, value string) float64 { return float64(f) }

func TestExecuteBuildsEveryVisual(t *testing.T) {
	sel := Selection{State: "MA", Attribute: "NECTA", Scheme: "Blue"}
	dash, err := Execute(sel, campusDataset())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	wantFreq := []Frequency{{Value: "71650", Count: 2}, {Value: "N", Count: 1}}
	if diff, equal := messagediff.PrettyDiff(wantFreq, dash.Frequency); !equal {
		t.Errorf("frequency mismatch:\n%s", diff)
	}

	if diff, equal := messagediff.PrettyDiff([]string{"CA", "MA"}, dash.States); !equal {
		t.Errorf("states mismatch:\n%s", diff)
	}
	if len(dash.Attributes) != 7 || dash.Attributes[0] != "LOCALE" {
		t.Errorf("unexpected attributes: %v", dash.Attributes)
	}
	if diff, equal := messagediff.PrettyDiff([]string{"Red", "Green", "Blue", "Purple"}, dash.Schemes); !equal {
		t.Errorf("schemes mismatch:\n%s", diff)
	}

	// Chart
	if dash.Chart.Title != "Displaying frequency of NECTA codes in MA" {
		t.Errorf("chart title = %q", dash.Chart.Title)
	}
	if dash.Chart.XAxis != "Identifier Codes" || dash.Chart.YAxis != "Code Frequency" {
		t.Errorf("chart axes = %q / %q", dash.Chart.XAxis, dash.Chart.YAxis)
	}
	if got := dash.Chart.Series[0].Color; got != "#0000ff" {
		t.Errorf("bar color = %q, want #0000ff", got)
	}
	if n := len(dash.Chart.Series[0].Data); n != 2 {
		t.Errorf("chart points = %d, want 2", n)
	}

	// Heatmap drops the two sentinel-coded schools, across all states.
	if n := len(dash.Heatmap.Points); n != 2 {
		t.Errorf("heatmap points = %d, want 2", n)
	}
	if dash.Heatmap.Weight != 0.5 || dash.Heatmap.Threshold != 0.1 || dash.Heatmap.Aggregation != "MEAN" {
		t.Errorf("heatmap settings = %+v", dash.Heatmap)
	}
	if dash.Heatmap.ColorRange[3] != (RGB{0, 0, 255}) {
		t.Errorf("heatmap darkest color = %v", dash.Heatmap.ColorRange[3])
	}
	if got := dash.Heatmap.View.Latitude; math.Abs(got-42.1) > 1e-9 {
		t.Errorf("heatmap center latitude = %v, want 42.1", got)
	}

	// Scatter keeps every school.
	if n := len(dash.Scatter.Points); n != 4 {
		t.Errorf("scatter points = %d, want 4", n)
	}
	if dash.Scatter.Color != (RGB{0, 0, 255}) || dash.Scatter.TooltipColor != "lightblue" {
		t.Errorf("scatter colors = %v / %q", dash.Scatter.Color, dash.Scatter.TooltipColor)
	}

	// Text
	if dash.Text.Total != 3 || dash.Text.Unclassified != 1 || dash.Text.TopValue != "71650" {
		t.Errorf("text = %+v", dash.Text)
	}

	if dash.Records != nil {
		t.Error("record table should be omitted without WithRecordTable")
	}
	if !strings.Contains(dash.Captions.Chart[0], "'N'") {
		t.Errorf("chart caption = %q", dash.Captions.Chart[0])
	}
}

func TestExecuteEmptyStateIsNotAnError(t *testing.T) {
	dash, err := Execute(Selection{State: "NY", Attribute: "LOCALE", Scheme: "Red"}, campusDataset())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(dash.Frequency) != 0 {
		t.Errorf("expected no codes, got %v", dash.Frequency)
	}
	if dash.Chart == nil || len(dash.Chart.Series) != 1 || len(dash.Chart.Series[0].Data) != 0 {
		t.Errorf("expected one empty series, got %+v", dash.Chart)
	}
	if len(dash.FrequencyTable.Rows) != 0 {
		t.Errorf("expected empty table, got %v", dash.FrequencyTable.Rows)
	}
	if dash.Text.Value != "No schools found in NY." {
		t.Errorf("text = %q", dash.Text.Value)
	}
}

func TestExecuteInvalidSelection(t *testing.T) {
	view := campusDataset()

	_, err := Execute(Selection{State: "MA", Attribute: "ZIP", Scheme: "Red"}, view)
	if !errors.Is(err, ErrUnknownAttribute) {
		t.Errorf("expected ErrUnknownAttribute, got %v", err)
	}

	_, err = Execute(Selection{State: "MA", Attribute: "LOCALE", Scheme: "Orange"}, view)
	if !errors.Is(err, ErrUnknownScheme) {
		t.Errorf("expected ErrUnknownScheme, got %v", err)
	}

	// Listed in the config but absent from the data still fails fast.
	_, err = Execute(Selection{State: "MA", Attribute: "CBSA", Scheme: "Red"}, view)
	if !errors.Is(err, ErrUnknownAttribute) {
		t.Errorf("expected ErrUnknownAttribute for missing column, got %v", err)
	}
}

func TestExecuteOptions(t *testing.T) {
	palettes := map[string]Palette{
		"Mono": {Name: "Mono", Marker: RGB{10, 10, 10}, Tooltip: "white", Bar: "#123456"},
	}
	dash, err := Execute(
		Selection{State: "MA", Attribute: "LOCALE", Scheme: "Mono"},
		campusDataset(),
		WithAttributes([]string{"LOCALE"}),
		WithPalettes(palettes, []string{"Mono"}),
		WithSentinel("11"),
		WithHeatmapWeight(1, 0.2),
		WithShareEstimator(fixedShare(0.25)),
		WithRecordTable([]string{StateKey, NameKey}),
	)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if got := dash.Chart.Series[0].Color; got != "#123456" {
		t.Errorf("bar color = %q", got)
	}
	// Custom sentinel "11" drops both MA 11s from the heatmap.
	if n := len(dash.Heatmap.Points); n != 2 {
		t.Errorf("heatmap points = %d, want 2", n)
	}
	if dash.Heatmap.Weight != 1 || dash.Heatmap.Threshold != 0.2 {
		t.Errorf("heatmap weight/threshold = %v/%v", dash.Heatmap.Weight, dash.Heatmap.Threshold)
	}
	if len(dash.FrequencyTable.Columns) != 3 || dash.FrequencyTable.Rows[0][2] != "25.0%" {
		t.Errorf("share column missing: %+v", dash.FrequencyTable)
	}
	if dash.Records == nil || len(dash.Records.Rows) != 4 || len(dash.Records.Columns) != 4 {
		t.Fatalf("record table = %+v", dash.Records)
	}
	if dash.Records.Rows[0][1] != "Harbor College" || dash.Records.Rows[0][2] != "42" {
		t.Errorf("first record row = %v", dash.Records.Rows[0])
	}
}

func TestDefaultSelection(t *testing.T) {
	sel := DefaultSelection(campusDataset())
	want := Selection{State: "CA", Attribute: "LOCALE", Scheme: "Red"}
	if sel != want {
		t.Errorf("DefaultSelection = %+v, want %+v", sel, want)
	}
}

func TestPaletteFor(t *testing.T) {
	p, err := PaletteFor("Purple")
	if err != nil {
		t.Fatalf("PaletteFor: %v", err)
	}
	if p.Tooltip != "thistle" || p.Marker != (RGB{128, 0, 128}) {
		t.Errorf("Purple palette = %+v", p)
	}
	if _, err := PaletteFor("purple"); !errors.Is(err, ErrUnknownScheme) {
		t.Errorf("scheme lookup should be exact, got %v", err)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want RGB
		ok   bool
	}{
		{"red", RGB{255, 0, 0}, true},
		{"#0a0B0c", RGB{10, 11, 12}, true},
		{"#zz0000", RGB{}, false},
		{"chartreuse", RGB{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseColor(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseColor(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
	if hex := (RGB{255, 0, 128}).Hex(); hex != "#ff0080" {
		t.Errorf("Hex = %q", hex)
	}
}
