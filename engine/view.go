package engine

import "sort"

// ============================================================================
// RECORD VIEW — How the engine reads schools
// ============================================================================
// Every loader hands the engine a RecordView. CSV rows arrive as a
// SliceView, snapshot rows as a TypedView over the store's School struct,
// and filters return a SubView of indices into either. Nothing writes to a
// view after it is built, so one view serves every concurrent request.
// ============================================================================

// RecordView is indexed, read-only access to a set of schools.
type RecordView interface {
	Len() int
	Dimension(index int, key string) string
	Measure(index int, key string) float64
	DimensionKeys() []string
	MeasureKeys() []string
}

// HasDimension reports whether key is one of the view's dimension keys.
func HasDimension(view RecordView, key string) bool {
	for _, k := range view.DimensionKeys() {
		if k == key {
			return true
		}
	}
	return false
}

// ============================================================================
// SLICE VIEW
// ============================================================================

// SliceView serves parsed CSV rows. Its key lists are the sorted union of
// the keys found on any record.
type SliceView struct {
	records  []Record
	dims     []string
	measures []string
}

// NewSliceView wraps records without copying them.
func NewSliceView(records []Record) RecordView {
	dims := make(map[string]struct{})
	measures := make(map[string]struct{})
	for _, r := range records {
		for k := range r.Dimensions {
			dims[k] = struct{}{}
		}
		for k := range r.Measures {
			measures[k] = struct{}{}
		}
	}
	return &SliceView{records: records, dims: sortedKeys(dims), measures: sortedKeys(measures)}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (v *SliceView) Len() int { return len(v.records) }

func (v *SliceView) Dimension(i int, key string) string {
	if i < 0 || i >= len(v.records) {
		return ""
	}
	return v.records[i].Dimensions[key]
}

func (v *SliceView) Measure(i int, key string) float64 {
	if i < 0 || i >= len(v.records) {
		return 0
	}
	return v.records[i].Measures[key]
}

func (v *SliceView) DimensionKeys() []string { return v.dims }
func (v *SliceView) MeasureKeys() []string   { return v.measures }

// ============================================================================
// SUB VIEW
// ============================================================================

// SubView is the result of a filter: positions of the matching schools in
// the parent view. It reports the parent's keys, so an attribute check on a
// filtered view behaves like one on the whole dataset.
type SubView struct {
	parent  RecordView
	indices []int
}

func newSubView(parent RecordView, indices []int) RecordView {
	return &SubView{parent: parent, indices: indices}
}

func (v *SubView) Len() int { return len(v.indices) }

func (v *SubView) Dimension(i int, key string) string {
	if i < 0 || i >= len(v.indices) {
		return ""
	}
	return v.parent.Dimension(v.indices[i], key)
}

func (v *SubView) Measure(i int, key string) float64 {
	if i < 0 || i >= len(v.indices) {
		return 0
	}
	return v.parent.Measure(v.indices[i], key)
}

func (v *SubView) DimensionKeys() []string { return v.parent.DimensionKeys() }
func (v *SubView) MeasureKeys() []string   { return v.parent.MeasureKeys() }

// ============================================================================
// TYPED VIEW
// ============================================================================

// Accessors maps record keys to getters on a struct type. The snapshot
// store registers STATE, NAME, LAT, LON and one getter per imported
// attribute, then calls View on the loaded rows.
type Accessors[T any] struct {
	dimKeys     []string
	measureKeys []string
	dims        map[string]func(T) string
	measures    map[string]func(T) float64
}

// NewAccessors returns an empty getter table for T.
func NewAccessors[T any]() *Accessors[T] {
	return &Accessors[T]{
		dims:     make(map[string]func(T) string),
		measures: make(map[string]func(T) float64),
	}
}

// Dimension registers the getter of a text key. Keys are reported in
// registration order.
func (a *Accessors[T]) Dimension(key string, get func(T) string) *Accessors[T] {
	if _, ok := a.dims[key]; !ok {
		a.dimKeys = append(a.dimKeys, key)
	}
	a.dims[key] = get
	return a
}

// Measure registers the getter of a numeric key.
func (a *Accessors[T]) Measure(key string, get func(T) float64) *Accessors[T] {
	if _, ok := a.measures[key]; !ok {
		a.measureKeys = append(a.measureKeys, key)
	}
	a.measures[key] = get
	return a
}

// View exposes rows through the registered getters. An empty rows slice
// still reports every registered key.
func (a *Accessors[T]) View(rows []T) RecordView {
	return &TypedView[T]{rows: rows, acc: a}
}

// TypedView reads struct rows through an Accessors table.
type TypedView[T any] struct {
	rows []T
	acc  *Accessors[T]
}

func (v *TypedView[T]) Len() int { return len(v.rows) }

func (v *TypedView[T]) Dimension(i int, key string) string {
	get, ok := v.acc.dims[key]
	if !ok || i < 0 || i >= len(v.rows) {
		return ""
	}
	return get(v.rows[i])
}

func (v *TypedView[T]) Measure(i int, key string) float64 {
	get, ok := v.acc.measures[key]
	if !ok || i < 0 || i >= len(v.rows) {
		return 0
	}
	return get(v.rows[i])
}

func (v *TypedView[T]) DimensionKeys() []string { return v.acc.dimKeys }
func (v *TypedView[T]) MeasureKeys() []string   { return v.acc.measureKeys }
