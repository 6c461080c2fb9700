package engine

import (
	"errors"
	"fmt"
	"sort"
)

// ============================================================================
// AGGREGATORS — Frequency Summarizer and helpers via RecordView
// ============================================================================
// Summarize is the core of the dashboard: it turns one attribute column of
// one state into an ordered histogram of codes. It does no rendering
// and no logging, and every presentation path shares it.
// ============================================================================

// ErrUnknownAttribute is returned when a requested attribute is not a
// dimension of the dataset.
var ErrUnknownAttribute = errors.New("unknown attribute")

// ErrUnknownScheme is returned when a requested color scheme has no palette.
var ErrUnknownScheme = errors.New("unknown color scheme")

// Summarize counts the attribute codes of the schools in stateFilter.
//
// The state match is exact. Values come back ascending by string order with
// no duplicates. The sentinel is counted like any other code; callers that
// want it gone must filter before calling.
func Summarize(view RecordView, stateFilter, attribute string) ([]Frequency, error) {
	if err := checkAttribute(view, attribute); err != nil {
		return nil, err
	}

	subset := FilterEqual(view, StateKey, stateFilter)
	n := subset.Len()
	if n == 0 {
		return []Frequency{}, nil
	}

	values := make([]string, n)
	for i := 0; i < n; i++ {
		values[i] = subset.Dimension(i, attribute)
	}
	sort.Strings(values)

	distinct := make([]string, 0)
	for i, v := range values {
		if i == 0 || v != values[i-1] {
			distinct = append(distinct, v)
		}
	}

	out := make([]Frequency, 0, len(distinct))
	for _, d := range distinct {
		count := 0
		for i := 0; i < n; i++ {
			if subset.Dimension(i, attribute) == d {
				count++
			}
		}
		out = append(out, Frequency{Value: d, Count: count})
	}
	return out, nil
}

// SummarizeSinglePass is Summarize in one O(n) counting pass keyed by value.
// Output is identical to Summarize for every input.
func SummarizeSinglePass(view RecordView, stateFilter, attribute string) ([]Frequency, error) {
	if err := checkAttribute(view, attribute); err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for i := 0; i < view.Len(); i++ {
		if view.Dimension(i, StateKey) != stateFilter {
			continue
		}
		counts[view.Dimension(i, attribute)]++
	}

	out := make([]Frequency, 0, len(counts))
	for v, c := range counts {
		out = append(out, Frequency{Value: v, Count: c})
	}
	SortFrequencies(out)
	return out, nil
}

// checkAttribute fails fast on a name the dataset does not carry. Empty
// typed views still declare their keys and are checked; only a view with
// no dimension keys at all has nothing to check against.
func checkAttribute(view RecordView, attribute string) error {
	if len(view.DimensionKeys()) == 0 {
		return nil
	}
	if !HasDimension(view, attribute) {
		return fmt.Errorf("%w: %q", ErrUnknownAttribute, attribute)
	}
	return nil
}

// SortFrequencies orders a table ascending by value.
func SortFrequencies(freqs []Frequency) {
	sort.Slice(freqs, func(i, j int) bool { return freqs[i].Value < freqs[j].Value })
}

// TotalCount sums the counts of a table.
func TotalCount(freqs []Frequency) int {
	total := 0
	for _, f := range freqs {
		total += f.Count
	}
	return total
}

// CountOf returns the count recorded for value, or 0.
func CountOf(freqs []Frequency, value string) int {
	for _, f := range freqs {
		if f.Value == value {
			return f.Count
		}
	}
	return 0
}

// DistinctSorted returns the distinct non-empty values of a dimension, ascending.
// Feeds the state selection control.
func DistinctSorted(view RecordView, key string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0)
	for i := 0; i < view.Len(); i++ {
		val := view.Dimension(i, key)
		if val != "" && !seen[val] {
			seen[val] = true
			result = append(result, val)
		}
	}
	sort.Strings(result)
	return result
}

// MeanMeasure averages a named measure across a view. Empty view → 0.
func MeanMeasure(view RecordView, measure string) float64 {
	n := view.Len()
	if n == 0 {
		return 0
	}
	var total float64
	for i := 0; i < n; i++ {
		total += view.Measure(i, measure)
	}
	return total / float64(n)
}

// ============================================================================
// FORMATTING UTILITIES
// ============================================================================

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", FormatInt(n/1000), n%1000)
}

// FormatPercent renders a 0-1 fraction as "12.5%".
func FormatPercent(fraction float64) string {
	return fmt.Sprintf("%.1f%%", fraction*100)
}
