package engine

import "fmt"

// ============================================================================
// CHART BUILDER — Produces the frequency bar chart from a FrequencyTable
// ============================================================================

// BuildFrequencyChart turns a FrequencyTable into a bar ChartConfig.
// An empty table yields a chart with one empty series, never nil.
func BuildFrequencyChart(sel Selection, freqs []Frequency, palette Palette) *ChartConfig {
	points := make([]ChartPoint, 0, len(freqs))
	for _, f := range freqs {
		points = append(points, ChartPoint{
			Label: f.Value,
			Value: float64(f.Count),
		})
	}

	color := palette.Bar
	if c, ok := ParseColor(palette.Bar); ok {
		color = c.Hex()
	}

	return &ChartConfig{
		ChartType: "bar",
		Title:     fmt.Sprintf("Displaying frequency of %s codes in %s", sel.Attribute, sel.State),
		XAxis:     "Identifier Codes",
		YAxis:     "Code Frequency",
		Series: []ChartSeries{{
			Name:  sel.Attribute,
			Data:  points,
			Color: color,
		}},
		Colors:     []string{color},
		ShowLegend: false,
		ShowGrid:   true,
	}
}
