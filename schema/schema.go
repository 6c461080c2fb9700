package schema

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spektr-org/campusmap/engine"
)

// ============================================================================
// SCHEMA — Describes the school dataset and the dashboard lookup tables
// ============================================================================
// Loaded once at startup and read-only afterwards. Covers:
//   - which source columns hold state, name, latitude, longitude
//   - the statistical attributes offered in the selection control, with
//     their definitions
//   - the color scheme lookup table
//   - the "not classified" sentinel
// Default() is the built-in configuration; Load() overlays a YAML file.
// ============================================================================

// Config describes the complete shape of the dataset and dashboard.
type Config struct {
	Name        string `json:"name" yaml:"name"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	Columns    ColumnMap       `json:"columns" yaml:"columns"`
	Attributes []AttributeMeta `json:"attributes" yaml:"attributes"`
	Palettes   []PaletteMeta   `json:"palettes" yaml:"palettes"`
	Sentinel   string          `json:"sentinel" yaml:"sentinel"`
	Heatmap    HeatmapMeta     `json:"heatmap" yaml:"heatmap"`
}

// ColumnMap names the source columns of the canonical record keys.
type ColumnMap struct {
	State string `json:"state" yaml:"state"`
	Name  string `json:"name" yaml:"name"`
	Lat   string `json:"lat" yaml:"lat"`
	Lon   string `json:"lon" yaml:"lon"`
}

// AttributeMeta describes one statistical classification column.
type AttributeMeta struct {
	Key         string `json:"key" yaml:"key"`
	Column      string `json:"column,omitempty" yaml:"column,omitempty"` // source column; defaults to Key
	DisplayName string `json:"displayName" yaml:"display_name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Source      string `json:"source,omitempty" yaml:"source,omitempty"`
}

// PaletteMeta is the YAML form of an engine.Palette.
type PaletteMeta struct {
	Name    string  `json:"name" yaml:"name"`
	Ramp    [][]int `json:"ramp" yaml:"ramp"`
	Marker  []int   `json:"marker" yaml:"marker"`
	Tooltip string  `json:"tooltip" yaml:"tooltip"`
	Bar     string  `json:"bar" yaml:"bar"`
}

// HeatmapMeta holds density map tuning.
type HeatmapMeta struct {
	Weight    float64 `json:"weight" yaml:"weight"`
	Threshold float64 `json:"threshold" yaml:"threshold"`
}

// Default returns the built-in configuration for the postsecondary school
// locations file.
func Default() *Config {
	c := &Config{
		Name:        "Postsecondary School Locations",
		Version:     "1.0",
		Description: "Universities across the U.S. and its territories with location and statistical identifiers.",
		Columns: ColumnMap{
			State: engine.StateKey,
			Name:  engine.NameKey,
			Lat:   engine.LatKey,
			Lon:   engine.LonKey,
		},
		Attributes: defaultAttributes(),
		Sentinel:   engine.DefaultSentinel,
		Heatmap:    HeatmapMeta{Weight: 0.5, Threshold: 0.1},
	}
	for _, name := range engine.DefaultSchemes {
		c.Palettes = append(c.Palettes, paletteMetaFrom(engine.DefaultPalettes()[name]))
	}
	return c
}

func defaultAttributes() []AttributeMeta {
	return []AttributeMeta{
		{
			Key:         "LOCALE",
			DisplayName: "Locale",
			Description: "The NCES locale framework was designed to provide a general indicator of the type of geographic area where a school is located.",
			Source:      "https://nces.ed.gov/programs/edge/docs/NCES_LOCALE_USERSMANUAL_2016012.pdf",
		},
		{
			Key:         "CBSA",
			DisplayName: "Core Based Statistical Area",
			Description: "A U.S. county or counties associated with at least one core of 10,000+ population, plus adjacent counties with a high degree of social and economic integration with the core as measured through commuting ties.",
			Source:      "https://earthworks.stanford.edu/catalog/stanford-dy982nn7286",
		},
		{
			Key:         "CSA",
			DisplayName: "Combined Statistical Area",
			Description: "A geographic entity consisting of two or more adjacent Core Based Statistical Areas with employment interchange measures of at least 15.",
			Source:      "https://www.federalregister.gov/documents/2021/07/16/2021-15159/2020-standards-for-delineating-core-based-statistical-areas",
		},
		{
			Key:         "NECTA",
			DisplayName: "New England City and Town Area",
			Description: "County-subdivision based areas delineated in New England, similar in concept to CBSAs and likewise metropolitan or micropolitan. Only New England schools carry a code.",
			Source:      "https://www.census.gov/programs-surveys/metro-micro/about/glossary.html",
		},
		{
			Key:         "CD",
			DisplayName: "Census Division",
			Description: "Groupings of states that are subdivisions of the four census regions.",
			Source:      "https://www.easidemographics.com/mdbhelp/html/census_division_1.htm",
		},
		{
			Key:         "SLDL",
			DisplayName: "State Legislative District (Lower)",
			Description: "Areas from which members are elected to the lower chamber (house) of the state legislature.",
			Source:      "https://nces.ed.gov/programs/edge/docs/EDGE_GEOCODE_POSTSEC_FILEDOC.pdf",
		},
		{
			Key:         "SLDU",
			DisplayName: "State Legislative District (Upper)",
			Description: "Areas from which members are elected to the upper chamber (senate) of the state legislature.",
			Source:      "https://nces.ed.gov/programs/edge/docs/EDGE_GEOCODE_POSTSEC_FILEDOC.pdf",
		},
	}
}

// Load reads a YAML config file and fills anything it leaves out from Default().
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing schema %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	c.fillDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) fillDefaults() {
	def := Default()
	if c.Name == "" {
		c.Name = def.Name
	}
	if c.Columns.State == "" {
		c.Columns.State = def.Columns.State
	}
	if c.Columns.Name == "" {
		c.Columns.Name = def.Columns.Name
	}
	if c.Columns.Lat == "" {
		c.Columns.Lat = def.Columns.Lat
	}
	if c.Columns.Lon == "" {
		c.Columns.Lon = def.Columns.Lon
	}
	if len(c.Attributes) == 0 {
		c.Attributes = def.Attributes
	}
	if len(c.Palettes) == 0 {
		c.Palettes = def.Palettes
	}
	if c.Sentinel == "" {
		c.Sentinel = def.Sentinel
	}
	if c.Heatmap.Weight <= 0 {
		c.Heatmap.Weight = def.Heatmap.Weight
	}
	if c.Heatmap.Threshold <= 0 {
		c.Heatmap.Threshold = def.Heatmap.Threshold
	}
}

// Validate checks that attribute keys and palette names are unique and that
// every palette is well formed.
func (c *Config) Validate() error {
	if len(c.Attributes) == 0 {
		return fmt.Errorf("schema has no attributes")
	}
	seen := make(map[string]bool)
	for _, a := range c.Attributes {
		if strings.TrimSpace(a.Key) == "" {
			return fmt.Errorf("attribute with empty key")
		}
		if seen[a.Key] {
			return fmt.Errorf("duplicate attribute %q", a.Key)
		}
		seen[a.Key] = true
	}

	if len(c.Palettes) == 0 {
		return fmt.Errorf("schema has no palettes")
	}
	names := make(map[string]bool)
	for _, p := range c.Palettes {
		if names[p.Name] {
			return fmt.Errorf("duplicate palette %q", p.Name)
		}
		names[p.Name] = true
		if _, err := p.toPalette(); err != nil {
			return err
		}
	}
	return nil
}

// AttributeKeys returns the attribute keys in display order.
func (c Config) AttributeKeys() []string {
	keys := make([]string, len(c.Attributes))
	for i, a := range c.Attributes {
		keys[i] = a.Key
	}
	return keys
}

// Attribute returns the metadata of one attribute.
func (c Config) Attribute(key string) (AttributeMeta, bool) {
	for _, a := range c.Attributes {
		if a.Key == key {
			return a, true
		}
	}
	return AttributeMeta{}, false
}

// SourceColumn returns the source column of an attribute.
func (a AttributeMeta) SourceColumn() string {
	if a.Column != "" {
		return a.Column
	}
	return a.Key
}

// RequiredColumns lists every source column a dataset must carry.
// NAME is optional and not included.
func (c Config) RequiredColumns() []string {
	cols := []string{c.Columns.State, c.Columns.Lat, c.Columns.Lon}
	for _, a := range c.Attributes {
		cols = append(cols, a.SourceColumn())
	}
	return cols
}

// SchemeNames returns the palette names in display order.
func (c Config) SchemeNames() []string {
	names := make([]string, len(c.Palettes))
	for i, p := range c.Palettes {
		names[i] = p.Name
	}
	return names
}

// PaletteTable converts the palettes into the engine lookup table.
// Config must have passed Validate.
func (c Config) PaletteTable() map[string]engine.Palette {
	table := make(map[string]engine.Palette, len(c.Palettes))
	for _, p := range c.Palettes {
		pal, err := p.toPalette()
		if err != nil {
			continue
		}
		table[p.Name] = pal
	}
	return table
}

// EngineOptions turns the config into engine.Execute options.
func (c Config) EngineOptions() []engine.Option {
	return []engine.Option{
		engine.WithAttributes(c.AttributeKeys()),
		engine.WithPalettes(c.PaletteTable(), c.SchemeNames()),
		engine.WithSentinel(c.Sentinel),
		engine.WithHeatmapWeight(c.Heatmap.Weight, c.Heatmap.Threshold),
	}
}

func (p PaletteMeta) toPalette() (engine.Palette, error) {
	out := engine.Palette{Name: p.Name, Tooltip: p.Tooltip, Bar: p.Bar}
	if strings.TrimSpace(p.Name) == "" {
		return out, fmt.Errorf("palette with empty name")
	}
	if len(p.Ramp) != 4 {
		return out, fmt.Errorf("palette %q: ramp needs 4 colors, got %d", p.Name, len(p.Ramp))
	}
	for i, c := range p.Ramp {
		rgb, err := toRGB(c)
		if err != nil {
			return out, fmt.Errorf("palette %q ramp[%d]: %w", p.Name, i, err)
		}
		out.Ramp[i] = rgb
	}
	marker, err := toRGB(p.Marker)
	if err != nil {
		return out, fmt.Errorf("palette %q marker: %w", p.Name, err)
	}
	out.Marker = marker
	return out, nil
}

func paletteMetaFrom(p engine.Palette) PaletteMeta {
	m := PaletteMeta{
		Name:    p.Name,
		Marker:  []int{int(p.Marker[0]), int(p.Marker[1]), int(p.Marker[2])},
		Tooltip: p.Tooltip,
		Bar:     p.Bar,
	}
	for _, c := range p.Ramp {
		m.Ramp = append(m.Ramp, []int{int(c[0]), int(c[1]), int(c[2])})
	}
	return m
}

func toRGB(c []int) (engine.RGB, error) {
	if len(c) != 3 {
		return engine.RGB{}, fmt.Errorf("color needs 3 channels, got %d", len(c))
	}
	var out engine.RGB
	for i, v := range c {
		if v < 0 || v > 255 {
			return engine.RGB{}, fmt.Errorf("channel %d out of range: %d", i, v)
		}
		out[i] = uint8(v)
	}
	return out, nil
}
