package engine

// ============================================================================
// MAP BUILDER — Heatmap and scatter layers
// ============================================================================
// The heatmap covers the whole dataset minus sentinel-coded schools for the
// selected attribute; the scatter map covers every school. Neither is scoped
// to the selected state. Both center the camera on the mean position of the
// points they draw.
// ============================================================================

const heatmapTooltip = "Darker areas have a higher density of universities."

// BuildHeatmap prepares the density map input for one attribute.
// Options WithSentinel and WithHeatmapWeight apply.
func BuildHeatmap(view RecordView, attribute string, palette Palette, opts ...Option) *HeatmapLayer {
	cfg := applyOptions(opts)
	classified := ExcludeValue(view, attribute, cfg.Sentinel)

	points := make([]LonLat, 0, classified.Len())
	for i := 0; i < classified.Len(); i++ {
		points = append(points, LonLat{
			Lon: classified.Measure(i, LonKey),
			Lat: classified.Measure(i, LatKey),
		})
	}

	return &HeatmapLayer{
		Attribute:   attribute,
		Points:      points,
		Weight:      cfg.HeatmapWeight,
		Threshold:   cfg.HeatmapThreshold,
		Aggregation: "MEAN",
		ColorRange:  palette.Ramp,
		Tooltip:     heatmapTooltip,
		View:        centerOf(classified),
	}
}

// BuildScatter prepares the point map input: one marker per school.
func BuildScatter(view RecordView, palette Palette) *ScatterLayer {
	points := make([]ScatterPoint, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		points = append(points, ScatterPoint{
			Name: view.Dimension(i, NameKey),
			Lon:  view.Measure(i, LonKey),
			Lat:  view.Measure(i, LatKey),
		})
	}

	return &ScatterLayer{
		Points:          points,
		Color:           palette.Marker,
		TooltipColor:    palette.Tooltip,
		RadiusScale:     2,
		RadiusMinPixels: 5,
		RadiusMaxPixels: 15,
		View:            centerOf(view),
	}
}

func centerOf(view RecordView) ViewState {
	return ViewState{
		Latitude:  MeanMeasure(view, LatKey),
		Longitude: MeanMeasure(view, LonKey),
		Zoom:      1,
		Pitch:     0.5,
	}
}
