package engine

// ============================================================================
// ENGINE OPTIONS — Functional options for Execute()
// ============================================================================

// Option configures engine behavior via functional options pattern.
type Option func(*config)

type config struct {
	Attributes       []string
	Palettes         map[string]Palette
	Schemes          []string
	Sentinel         string
	HeatmapWeight    float64
	HeatmapThreshold float64
	Estimator        ShareEstimator
	RecordColumns    []string // nil = no record table
}

// WithAttributes sets the statistical columns a Selection may name.
func WithAttributes(attributes []string) Option {
	return func(c *config) {
		if len(attributes) > 0 {
			c.Attributes = attributes
		}
	}
}

// WithPalettes replaces the palette lookup table. order is the display order
// of the scheme control; every name in it must be a key of palettes.
func WithPalettes(palettes map[string]Palette, order []string) Option {
	return func(c *config) {
		if len(palettes) == 0 {
			return
		}
		c.Palettes = palettes
		c.Schemes = order
	}
}

// WithSentinel sets the "not classified" code excluded from the heatmap.
func WithSentinel(sentinel string) Option {
	return func(c *config) {
		if sentinel != "" {
			c.Sentinel = sentinel
		}
	}
}

// WithHeatmapWeight sets the per-school weight and display threshold of the density map.
func WithHeatmapWeight(weight, threshold float64) Option {
	return func(c *config) {
		if weight > 0 {
			c.HeatmapWeight = weight
		}
		if threshold > 0 {
			c.HeatmapThreshold = threshold
		}
	}
}

// WithShareEstimator adds a "National share" column to the frequency table.
func WithShareEstimator(est ShareEstimator) Option {
	return func(c *config) {
		c.Estimator = est
	}
}

// WithRecordTable includes the full record table with the given dimension columns.
func WithRecordTable(columns []string) Option {
	return func(c *config) {
		c.RecordColumns = columns
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		Attributes:       DefaultAttributes,
		Palettes:         DefaultPalettes(),
		Schemes:          DefaultSchemes,
		Sentinel:         DefaultSentinel,
		HeatmapWeight:    0.5,
		HeatmapThreshold: 0.1,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
