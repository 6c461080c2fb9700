package render

import (
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"

	"github.com/spektr-org/campusmap/engine"
)

// Grid resolution of the density map.
const (
	HeatmapColumns = 72
	HeatmapRows    = 36
)

// densityGrid bins weighted points into a regular lon/lat grid.
// It implements plotter.GridXYZ.
type densityGrid struct {
	minX, minY   float64
	cellW, cellH float64
	cols, rows   int
	z            []float64
}

func newDensityGrid(points []engine.LonLat, weight float64, cols, rows int) *densityGrid {
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		minX = math.Min(minX, p.Lon)
		maxX = math.Max(maxX, p.Lon)
		minY = math.Min(minY, p.Lat)
		maxY = math.Max(maxY, p.Lat)
	}
	if maxX-minX == 0 {
		minX, maxX = minX-0.5, maxX+0.5
	}
	if maxY-minY == 0 {
		minY, maxY = minY-0.5, maxY+0.5
	}

	g := &densityGrid{
		minX:  minX,
		minY:  minY,
		cellW: (maxX - minX) / float64(cols),
		cellH: (maxY - minY) / float64(rows),
		cols:  cols,
		rows:  rows,
		z:     make([]float64, cols*rows),
	}
	for _, p := range points {
		c := int((p.Lon - minX) / g.cellW)
		r := int((p.Lat - minY) / g.cellH)
		if c >= cols {
			c = cols - 1
		}
		if r >= rows {
			r = rows - 1
		}
		g.z[r*cols+c] += weight
	}
	return g
}

func (g *densityGrid) Dims() (c, r int)   { return g.cols, g.rows }
func (g *densityGrid) Z(c, r int) float64 { return g.z[r*g.cols+c] }
func (g *densityGrid) X(c int) float64    { return g.minX + (float64(c)+0.5)*g.cellW }
func (g *densityGrid) Y(r int) float64    { return g.minY + (float64(r)+0.5)*g.cellH }

func (g *densityGrid) max() float64 {
	m := 0.0
	for _, v := range g.z {
		m = math.Max(m, v)
	}
	return m
}

// rampPalette is the four-color scheme ramp, lightest first.
// It implements palette.Palette.
type rampPalette []color.Color

func (p rampPalette) Colors() []color.Color { return p }

func newRampPalette(ramp [4]engine.RGB) rampPalette {
	p := make(rampPalette, len(ramp))
	for i, c := range ramp {
		p[i] = rgba(c)
	}
	return p
}

// Heatmap draws the density of classified schools. Cells under
// threshold × the densest cell are left blank.
func Heatmap(layer *engine.HeatmapLayer) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Density of schools classified by " + layer.Attribute
	p.X.Label.Text = "Longitude"
	p.Y.Label.Text = "Latitude"

	if len(layer.Points) == 0 {
		return p, nil
	}

	weight := layer.Weight
	if weight <= 0 {
		weight = 1
	}
	grid := newDensityGrid(layer.Points, weight, HeatmapColumns, HeatmapRows)
	hm := plotter.NewHeatMap(grid, newRampPalette(layer.ColorRange))

	threshold := layer.Threshold
	if threshold <= 0 || threshold >= 1 {
		threshold = 0.1
	}
	hm.Max = grid.max()
	hm.Min = hm.Max * threshold
	hm.Underflow = nil
	hm.Overflow = nil
	p.Add(hm)

	return p, nil
}
