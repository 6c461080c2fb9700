package engine

// ============================================================================
// CAMPUSMAP ENGINE TYPES — School Locations Dashboard
// ============================================================================
// Records are generic dimension/measure maps so the same engine serves CSV
// rows, SQLite snapshot rows, and typed structs read through Accessors.
//
// Dependency: engine has ZERO external dependencies.
// ============================================================================

// Canonical record keys. Loaders map source columns onto these.
const (
	StateKey = "STATE"
	NameKey  = "NAME"
	LatKey   = "LAT"
	LonKey   = "LON"
)

// DefaultSentinel marks a school that is not classified under an attribute.
const DefaultSentinel = "N"

// ============================================================================
// RECORD — One school
// ============================================================================

// Record is a single school with string dimensions and numeric measures.
//
//	Record{Dimensions: {"STATE": "MA", "LOCALE": "11"}, Measures: {"LAT": 42.36, "LON": -71.09}}
type Record struct {
	Dimensions map[string]string  `json:"dimensions"`
	Measures   map[string]float64 `json:"measures"`
}

// ============================================================================
// SELECTION — What the user picked
// ============================================================================

// Selection is the state, statistical attribute, and color scheme chosen in
// the selection controls. Every change triggers a full recomputation.
type Selection struct {
	State     string `json:"state"`
	Attribute string `json:"attribute"`
	Scheme    string `json:"scheme"`
}

// Filters define which records to include.
// Keys are dimension names. Values are allowed values (exact match).
// OR within a dimension, AND across dimensions. Empty = all.
type Filters struct {
	Dimensions map[string][]string `json:"dimensions"`
}

// HasFilter returns true if a specific dimension filter is set.
func (f Filters) HasFilter(dimension string) bool {
	if f.Dimensions == nil {
		return false
	}
	vals, ok := f.Dimensions[dimension]
	return ok && len(vals) > 0
}

// IsEmpty returns true if no filters are set.
func (f Filters) IsEmpty() bool {
	if f.Dimensions == nil {
		return true
	}
	for _, vals := range f.Dimensions {
		if len(vals) > 0 {
			return false
		}
	}
	return true
}

// ============================================================================
// FREQUENCY — Summarizer output
// ============================================================================

// Frequency is one row of a FrequencyTable: a code and how many schools carry it.
type Frequency struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// ============================================================================
// PALETTE — Color scheme lookup entry
// ============================================================================

// RGB is a color as three 0-255 channels.
type RGB [3]uint8

// Palette is one named color scheme shared by all three visuals.
type Palette struct {
	Name    string `json:"name" yaml:"name"`
	Ramp    [4]RGB `json:"ramp" yaml:"ramp"`       // heatmap color range, light → dark
	Marker  RGB    `json:"marker" yaml:"marker"`   // scatter map point color
	Tooltip string `json:"tooltip" yaml:"tooltip"` // scatter tooltip background (CSS name)
	Bar     string `json:"bar" yaml:"bar"`         // frequency chart bar color (CSS name)
}

// ShareEstimator estimates the fraction of all schools carrying a code.
// Implemented by profile.Profile; optional.
type ShareEstimator interface {
	Share(attribute, value string) float64
}

// ============================================================================
// DASHBOARD — Render-ready output
// ============================================================================

// Dashboard is everything the presentation layer needs for one Selection.
type Dashboard struct {
	Selection  Selection `json:"selection"`
	States     []string  `json:"states"`
	Attributes []string  `json:"attributes"`
	Schemes    []string  `json:"schemes"`

	Frequency      []Frequency   `json:"frequency"`
	Chart          *ChartConfig  `json:"chart"`
	FrequencyTable *TableData    `json:"frequencyTable"`
	Heatmap        *HeatmapLayer `json:"heatmap"`
	Scatter        *ScatterLayer `json:"scatter"`
	Records        *TableData    `json:"records,omitempty"`
	Text           *TextData     `json:"text"`
	Captions       Captions      `json:"captions"`
}

// ============================================================================
// CHART TYPES
// ============================================================================

// ChartConfig defines how to render a chart.
type ChartConfig struct {
	ChartType  string        `json:"chartType"`
	Title      string        `json:"title"`
	XAxis      string        `json:"xAxis,omitempty"`
	YAxis      string        `json:"yAxis,omitempty"`
	Series     []ChartSeries `json:"series"`
	Colors     []string      `json:"colors,omitempty"`
	ShowLegend bool          `json:"showLegend"`
	ShowGrid   bool          `json:"showGrid"`
}

// ChartSeries represents a data series in a chart.
type ChartSeries struct {
	Name  string       `json:"name"`
	Data  []ChartPoint `json:"data"`
	Color string       `json:"color,omitempty"`
}

// ChartPoint represents a single data point.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ============================================================================
// MAP TYPES
// ============================================================================

// ViewState is the initial camera of a map.
type ViewState struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Zoom      float64 `json:"zoom"`
	Pitch     float64 `json:"pitch"`
}

// LonLat is one map position.
type LonLat struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// HeatmapLayer is the density map input: sentinel-free positions for one attribute.
type HeatmapLayer struct {
	Attribute   string    `json:"attribute"`
	Points      []LonLat  `json:"points"`
	Weight      float64   `json:"weight"`
	Threshold   float64   `json:"threshold"`
	Aggregation string    `json:"aggregation"`
	ColorRange  [4]RGB    `json:"colorRange"`
	Tooltip     string    `json:"tooltip"`
	View        ViewState `json:"viewState"`
}

// ScatterPoint is one school on the point map.
type ScatterPoint struct {
	Name string  `json:"name"`
	Lon  float64 `json:"lon"`
	Lat  float64 `json:"lat"`
}

// ScatterLayer is the point map input: every school, one marker color.
type ScatterLayer struct {
	Points          []ScatterPoint `json:"points"`
	Color           RGB            `json:"color"`
	TooltipColor    string         `json:"tooltipColor"`
	RadiusScale     float64        `json:"radiusScale"`
	RadiusMinPixels int            `json:"radiusMinPixels"`
	RadiusMaxPixels int            `json:"radiusMaxPixels"`
	View            ViewState      `json:"viewState"`
}

// ============================================================================
// TABLE TYPES
// ============================================================================

// TableData defines how to render a table.
type TableData struct {
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Summary *Summary   `json:"summary,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number", "percent"
	Align string `json:"align"` // "left", "center", "right"
}

// Summary provides totals for a table.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}

// ============================================================================
// TEXT TYPES
// ============================================================================

// TextData is the one-line answer shown above the chart.
type TextData struct {
	Value        string `json:"value"`
	Total        int    `json:"total"`
	Distinct     int    `json:"distinct"`
	Unclassified int    `json:"unclassified"`
	TopValue     string `json:"topValue,omitempty"`
	TopCount     int    `json:"topCount,omitempty"`
}

// Captions are the explanatory texts placed under each visual.
type Captions struct {
	Chart   []string `json:"chart"`
	Heatmap string   `json:"heatmap"`
	Map     string   `json:"map"`
}
