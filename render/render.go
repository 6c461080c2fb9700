// Package render draws the three dashboard visuals as PNG images with
// gonum/plot: the frequency bar chart, the density heatmap, and the scatter
// map of every school.
package render

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/spektr-org/campusmap/engine"
)

// Default image size.
const (
	DefaultWidth  = 8 * vg.Inch
	DefaultHeight = 5 * vg.Inch
)

// Size is the width and height of an image.
type Size struct {
	Width  vg.Length
	Height vg.Length
}

// DefaultSize is used when a caller passes a zero Size.
var DefaultSize = Size{Width: DefaultWidth, Height: DefaultHeight}

func (s Size) orDefault() Size {
	if s.Width <= 0 || s.Height <= 0 {
		return DefaultSize
	}
	return s
}

// ============================================================================
// BAR CHART
// ============================================================================

// FrequencyChart draws a bar per code. An empty series draws titled axes only.
func FrequencyChart(chart *engine.ChartConfig) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = chart.Title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = chart.XAxis
	p.Y.Label.Text = chart.YAxis
	p.Y.Min = 0

	if chart.ShowGrid {
		p.Add(plotter.NewGrid())
	}
	if len(chart.Series) == 0 || len(chart.Series[0].Data) == 0 {
		return p, nil
	}

	series := chart.Series[0]
	values := make(plotter.Values, len(series.Data))
	labels := make([]string, len(series.Data))
	for i, pt := range series.Data {
		values[i] = pt.Value
		labels[i] = pt.Label
	}

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return nil, fmt.Errorf("creating bar chart: %w", err)
	}
	bars.LineStyle.Width = vg.Length(0)
	bars.Color = parseColor(series.Color, color.Gray{Y: 128})
	p.Add(bars)
	p.NominalX(labels...)
	p.X.Tick.Label.XAlign = draw.XCenter

	return p, nil
}

// ============================================================================
// SCATTER MAP
// ============================================================================

// ScatterMap draws one marker per school in lon/lat space.
func ScatterMap(layer *engine.ScatterLayer) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "School locations"
	p.X.Label.Text = "Longitude"
	p.Y.Label.Text = "Latitude"
	p.Add(plotter.NewGrid())

	if len(layer.Points) == 0 {
		return p, nil
	}

	xys := make(plotter.XYs, len(layer.Points))
	for i, pt := range layer.Points {
		xys[i].X = pt.Lon
		xys[i].Y = pt.Lat
	}
	scatter, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, fmt.Errorf("creating scatter: %w", err)
	}
	scatter.GlyphStyle.Color = rgba(layer.Color)
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}
	scatter.GlyphStyle.Radius = vg.Points(layer.RadiusScale)
	p.Add(scatter)

	return p, nil
}

// ============================================================================
// OUTPUT
// ============================================================================

// WritePNG encodes a plot as PNG.
func WritePNG(w io.Writer, p *plot.Plot, size Size) error {
	size = size.orDefault()
	wt, err := p.WriterTo(size.Width, size.Height, "png")
	if err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("writing png: %w", err)
	}
	return nil
}

// WriteDashboard saves frequency.png, heatmap.png and scatter.png into dir
// and returns the written paths.
func WriteDashboard(dir string, dash *engine.Dashboard, size Size) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	chart, err := FrequencyChart(dash.Chart)
	if err != nil {
		return nil, err
	}
	heat, err := Heatmap(dash.Heatmap)
	if err != nil {
		return nil, err
	}
	scatter, err := ScatterMap(dash.Scatter)
	if err != nil {
		return nil, err
	}

	plots := []struct {
		name string
		plot *plot.Plot
	}{
		{"frequency.png", chart},
		{"heatmap.png", heat},
		{"scatter.png", scatter},
	}

	var paths []string
	for _, pl := range plots {
		path := filepath.Join(dir, pl.name)
		f, err := os.Create(path)
		if err != nil {
			return paths, fmt.Errorf("creating %s: %w", path, err)
		}
		err = WritePNG(f, pl.plot, size)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return paths, fmt.Errorf("%s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func rgba(c engine.RGB) color.RGBA {
	return color.RGBA{R: c[0], G: c[1], B: c[2], A: 255}
}

func parseColor(s string, fallback color.Color) color.Color {
	if c, ok := engine.ParseColor(s); ok {
		return rgba(c)
	}
	return fallback
}
