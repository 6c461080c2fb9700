package engine

import "testing"

func TestApplyFilters(t *testing.T) {
	view := campusDataset()

	tests := []struct {
		name    string
		filters Filters
		want    int
	}{
		{"empty filter keeps all", Filters{}, 4},
		{"single state", Filters{Dimensions: map[string][]string{StateKey: {"MA"}}}, 3},
		{"OR within dimension", Filters{Dimensions: map[string][]string{StateKey: {"MA", "CA"}}}, 4},
		{"AND across dimensions", Filters{Dimensions: map[string][]string{StateKey: {"MA"}, "LOCALE": {"11"}}}, 2},
		{"exact match only", Filters{Dimensions: map[string][]string{StateKey: {"ma"}}}, 0},
		{"empty value list ignored", Filters{Dimensions: map[string][]string{StateKey: {}}}, 4},
	}

	for _, tt := range tests {
		if got := ApplyFilters(view, tt.filters).Len(); got != tt.want {
			t.Errorf("%s: got %d records, want %d", tt.name, got, tt.want)
		}
	}
}

func TestExcludeValue(t *testing.T) {
	view := campusDataset()
	kept := ExcludeValue(view, "NECTA", "N")
	if kept.Len() != 2 {
		t.Fatalf("ExcludeValue kept %d, want 2", kept.Len())
	}
	for i := 0; i < kept.Len(); i++ {
		if kept.Dimension(i, "NECTA") == "N" {
			t.Errorf("sentinel record survived at %d", i)
		}
	}
}

func TestSubViewBounds(t *testing.T) {
	sub := FilterEqual(campusDataset(), StateKey, "CA")
	if sub.Len() != 1 {
		t.Fatalf("FilterEqual CA = %d, want 1", sub.Len())
	}
	if got := sub.Dimension(0, NameKey); got != "Golden Coast University" {
		t.Errorf("Dimension(0) = %q", got)
	}
	if got := sub.Dimension(5, NameKey); got != "" {
		t.Errorf("out of range Dimension = %q, want empty", got)
	}
	if got := sub.Measure(-1, LatKey); got != 0 {
		t.Errorf("out of range Measure = %v, want 0", got)
	}
}

type campus struct {
	state  string
	locale string
	lat    float64
}

func TestSliceViewKeysSorted(t *testing.T) {
	view := NewSliceView([]Record{
		{Dimensions: map[string]string{StateKey: "MA", "NECTA": "71650"}, Measures: map[string]float64{LonKey: -71}},
		{Dimensions: map[string]string{StateKey: "CA", "CBSA": "31080"}, Measures: map[string]float64{LatKey: 34}},
	})
	want := []string{"CBSA", "NECTA", StateKey}
	got := view.DimensionKeys()
	if len(got) != len(want) {
		t.Fatalf("DimensionKeys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("DimensionKeys = %v, want %v", got, want)
			break
		}
	}
	if m := view.MeasureKeys(); len(m) != 2 || m[0] != LatKey {
		t.Errorf("MeasureKeys = %v", m)
	}
}

func TestTypedView(t *testing.T) {
	acc := NewAccessors[campus]().
		Dimension(StateKey, func(c campus) string { return c.state }).
		Dimension("LOCALE", func(c campus) string { return c.locale }).
		Measure(LatKey, func(c campus) float64 { return c.lat })

	view := acc.View([]campus{
		{"RI", "12", 41.8},
		{"RI", "12", 41.5},
		{"VT", "33", 44.3},
	})

	got, err := Summarize(view, "RI", "LOCALE")
	if err != nil {
		t.Fatalf("Summarize over TypedView: %v", err)
	}
	if len(got) != 1 || got[0] != (Frequency{Value: "12", Count: 2}) {
		t.Errorf("Summarize = %v", got)
	}
	if keys := view.DimensionKeys(); len(keys) != 2 || keys[0] != StateKey {
		t.Errorf("DimensionKeys = %v", keys)
	}
	if view.Measure(2, LatKey) != 44.3 {
		t.Errorf("Measure(2) = %v", view.Measure(2, LatKey))
	}
}
