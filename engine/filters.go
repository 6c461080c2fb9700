package engine

// ============================================================================
// FILTERS — Dimension-Based Filtering via RecordView
// ============================================================================
// Single-pass filters returning a SubView (index list into parent) with no
// data copy. Matching is exact: "MA" never matches "ma".
// ============================================================================

// ApplyFilters returns a view of records matching all dimension filters.
// Dimensions are AND-combined; values within a dimension are OR-combined.
// Empty filter = no restriction (returns original view).
func ApplyFilters(view RecordView, filters Filters) RecordView {
	if filters.IsEmpty() {
		return view
	}

	sets := make(map[string]map[string]bool)
	for dim, allowed := range filters.Dimensions {
		if len(allowed) > 0 {
			sets[dim] = toSet(allowed)
		}
	}

	if len(sets) == 0 {
		return view
	}

	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		pass := true
		for dim, set := range sets {
			if !set[view.Dimension(i, dim)] {
				pass = false
				break
			}
		}
		if pass {
			indices = append(indices, i)
		}
	}

	return newSubView(view, indices)
}

// FilterEqual returns the records whose dimension key equals value.
func FilterEqual(view RecordView, key, value string) RecordView {
	n := view.Len()
	indices := make([]int, 0)
	for i := 0; i < n; i++ {
		if view.Dimension(i, key) == value {
			indices = append(indices, i)
		}
	}
	return newSubView(view, indices)
}

// ExcludeValue returns the records whose dimension key is anything but value.
// Used to drop sentinel-coded schools before density rendering.
func ExcludeValue(view RecordView, key, value string) RecordView {
	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if view.Dimension(i, key) != value {
			indices = append(indices, i)
		}
	}
	return newSubView(view, indices)
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
