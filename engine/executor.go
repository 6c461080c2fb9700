package engine

import (
	"fmt"
	"log"
)

// ============================================================================
// EXECUTOR — Selection → Dashboard
// ============================================================================
// Entry point: Execute(sel, view, opts...)
//
// Pipeline:
//   1. Validate attribute and scheme against the read-only lookup tables
//   2. Summarize the selected state's attribute codes
//   3. Build the bar chart, frequency table, and text from the summary
//   4. Build the heatmap (sentinel-free) and scatter map (all schools)
//   5. Return Dashboard
//
// Nothing is cached: every selection change recomputes from the view.
// ============================================================================

// Controls are the values each selection control may offer.
type Controls struct {
	States     []string `json:"states"`
	Attributes []string `json:"attributes"`
	Schemes    []string `json:"schemes"`
}

// BuildControls lists the selectable states, attributes, and schemes.
func BuildControls(view RecordView, opts ...Option) Controls {
	cfg := applyOptions(opts)
	return Controls{
		States:     DistinctSorted(view, StateKey),
		Attributes: cfg.Attributes,
		Schemes:    cfg.Schemes,
	}
}

// DefaultSelection picks the first entry of every control.
func DefaultSelection(view RecordView, opts ...Option) Selection {
	c := BuildControls(view, opts...)
	var sel Selection
	if len(c.States) > 0 {
		sel.State = c.States[0]
	}
	if len(c.Attributes) > 0 {
		sel.Attribute = c.Attributes[0]
	}
	if len(c.Schemes) > 0 {
		sel.Scheme = c.Schemes[0]
	}
	return sel
}

// ValidateSelection checks attribute and scheme against the lookup tables.
// An unknown state is not an error: it simply matches no schools.
func ValidateSelection(sel Selection, opts ...Option) error {
	return validate(sel, applyOptions(opts))
}

// PaletteFor looks up the palette of a scheme.
func PaletteFor(scheme string, opts ...Option) (Palette, error) {
	cfg := applyOptions(opts)
	p, ok := cfg.Palettes[scheme]
	if !ok {
		return Palette{}, fmt.Errorf("%w: %q", ErrUnknownScheme, scheme)
	}
	return p, nil
}

// Execute computes everything the presentation layer renders for one Selection.
func Execute(sel Selection, view RecordView, opts ...Option) (*Dashboard, error) {
	cfg := applyOptions(opts)

	if err := validate(sel, cfg); err != nil {
		return nil, err
	}
	palette := cfg.Palettes[sel.Scheme]

	freqs, err := Summarize(view, sel.State, sel.Attribute)
	if err != nil {
		return nil, err
	}

	log.Printf("🔧 campusmap: %d schools, state=%s attribute=%s scheme=%s → %d codes",
		view.Len(), sel.State, sel.Attribute, sel.Scheme, len(freqs))

	dash := &Dashboard{
		Selection:      sel,
		States:         DistinctSorted(view, StateKey),
		Attributes:     cfg.Attributes,
		Schemes:        cfg.Schemes,
		Frequency:      freqs,
		Chart:          BuildFrequencyChart(sel, freqs, palette),
		FrequencyTable: BuildFrequencyTable(sel, freqs, cfg.Estimator),
		Heatmap:        BuildHeatmap(view, sel.Attribute, palette, opts...),
		Scatter:        BuildScatter(view, palette),
		Text:           BuildText(sel, freqs, cfg.Sentinel),
		Captions:       BuildCaptions(cfg.Sentinel),
	}
	if cfg.RecordColumns != nil {
		dash.Records = BuildRecordTable(view, cfg.RecordColumns)
	}

	return dash, nil
}

func validate(sel Selection, cfg *config) error {
	known := false
	for _, a := range cfg.Attributes {
		if a == sel.Attribute {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("%w: %q", ErrUnknownAttribute, sel.Attribute)
	}
	if _, ok := cfg.Palettes[sel.Scheme]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownScheme, sel.Scheme)
	}
	return nil
}
