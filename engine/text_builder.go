package engine

import "fmt"

// ============================================================================
// TEXT BUILDER — One-line answer and page captions
// ============================================================================

// BuildText summarizes a FrequencyTable in words.
func BuildText(sel Selection, freqs []Frequency, sentinel string) *TextData {
	total := TotalCount(freqs)
	if total == 0 {
		return &TextData{
			Value: fmt.Sprintf("No schools found in %s.", sel.State),
		}
	}

	var top Frequency
	for _, f := range freqs {
		if f.Value == sentinel {
			continue
		}
		if f.Count > top.Count {
			top = f
		}
	}

	unclassified := CountOf(freqs, sentinel)
	value := fmt.Sprintf("%s schools in %s across %d %s codes",
		FormatInt(total), sel.State, len(freqs), sel.Attribute)
	if unclassified > 0 {
		value += fmt.Sprintf(" (%s not classified)", FormatInt(unclassified))
	}
	value += "."

	return &TextData{
		Value:        value,
		Total:        total,
		Distinct:     len(freqs),
		Unclassified: unclassified,
		TopValue:     top.Value,
		TopCount:     top.Count,
	}
}

// BuildCaptions returns the explanatory texts shown under each visual.
func BuildCaptions(sentinel string) Captions {
	return Captions{
		Chart: []string{
			fmt.Sprintf("*Universities with code '%s' are not identified under the selected query.", sentinel),
			"This chart displays how many universities use different codes under the selected statistical query within the selected area.",
		},
		Heatmap: "This heatmap visualizes the proportional weight each region has on the given statistical query.",
		Map:     "This map is shown to compare the weight of different regions with actual locations of universities around the country.",
	}
}
