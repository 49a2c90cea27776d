package render

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Panel is one square heat map. Values[r][c] is drawn at column c of row r,
// with row 0 at the top. XLabels name the columns and YLabels the rows.
type Panel struct {
	Title   string
	XLabel  string
	YLabel  string
	XLabels []string
	YLabels []string
	Values  [][]float64
}

// HeatmapOptions configures a row of heat map panels sharing one color scale.
type HeatmapOptions struct {
	Min, Max  float64
	ScaleText string // color bar label
	Width     vg.Length
	Height    vg.Length
}

// DefaultHeatmapOptions returns a [0, 1] scale on a 12x4.5 inch figure.
func DefaultHeatmapOptions() HeatmapOptions {
	return HeatmapOptions{
		Min:    0,
		Max:    1,
		Width:  12 * vg.Inch,
		Height: 4.5 * vg.Inch,
	}
}

// grid adapts Panel values to plotter.GridXYZ. Rows are flipped so that
// row 0 is drawn at the top.
type grid struct {
	values   [][]float64
	min, max float64
}

func (g grid) Dims() (c, r int) {
	if len(g.values) == 0 {
		return 0, 0
	}
	return len(g.values[0]), len(g.values)
}

func (g grid) Z(c, r int) float64 { return g.values[len(g.values)-1-r][c] }
func (g grid) X(c int) float64    { return float64(c) }
func (g grid) Y(r int) float64    { return float64(r) }
func (g grid) Min() float64       { return g.min }
func (g grid) Max() float64       { return g.max }

// Heatmaps draws the panels side by side followed by a horizontal color
// bar. NaN cells are drawn grey.
func Heatmaps(path string, panels []Panel, opts HeatmapOptions) error {
	if len(panels) == 0 {
		return errors.New("heatmaps: no panels")
	}
	if !(opts.Max > opts.Min) {
		return fmt.Errorf("heatmaps: invalid scale [%g, %g]", opts.Min, opts.Max)
	}

	cm := moreland.SmoothBlueRed()
	cm.SetMin(opts.Min)
	cm.SetMax(opts.Max)
	pal := cm.Palette(255)

	plots := make([][]*plot.Plot, 1)
	for i, pn := range panels {
		p, err := heatmapPlot(pn, pal, opts)
		if err != nil {
			return fmt.Errorf("panel %d: %w", i, err)
		}
		plots[0] = append(plots[0], p)
	}

	bar := plot.New()
	bar.Add(&plotter.ColorBar{ColorMap: cm})
	bar.HideY()
	bar.X.Label.Text = opts.ScaleText
	bar.X.Padding = 0

	w, h := opts.Width, opts.Height
	barH := h * 0.16

	return savePDF(path, w, h, func(dc draw.Canvas) {
		tiles := draw.Tiles{
			Rows: 1,
			Cols: len(panels),
			PadX: vg.Millimeter * 6,
		}
		canvases := plot.Align(plots, tiles, draw.Crop(dc, 0, 0, barH, 0))
		for j, p := range plots[0] {
			p.Draw(canvases[0][j])
		}
		bar.Draw(draw.Crop(dc, w*0.3, -w*0.3, 0, -(h - barH)))
	})
}

func heatmapPlot(pn Panel, pal palette.Palette, opts HeatmapOptions) (*plot.Plot, error) {
	rows := len(pn.Values)
	for r, row := range pn.Values {
		if len(row) != len(pn.XLabels) {
			return nil, fmt.Errorf("row %d has %d values, want %d", r, len(row), len(pn.XLabels))
		}
	}
	if rows != len(pn.YLabels) {
		return nil, fmt.Errorf("%d rows, want %d", rows, len(pn.YLabels))
	}

	p := plot.New()
	p.Title.Text = pn.Title
	p.X.Label.Text = pn.XLabel
	p.Y.Label.Text = pn.YLabel
	if rows == 0 || len(pn.XLabels) == 0 {
		p.X.Min, p.X.Max = 0, 1
		p.Y.Min, p.Y.Max = 0, 1
		return p, nil
	}

	hm := plotter.NewHeatMap(grid{values: pn.Values, min: opts.Min, max: opts.Max}, pal)
	hm.Min, hm.Max = opts.Min, opts.Max
	hm.NaN = grey
	p.Add(hm)

	xticks := make(plot.ConstantTicks, len(pn.XLabels))
	for c, l := range pn.XLabels {
		xticks[c] = plot.Tick{Value: float64(c), Label: l}
	}
	yticks := make(plot.ConstantTicks, rows)
	for r, l := range pn.YLabels {
		yticks[r] = plot.Tick{Value: float64(rows - 1 - r), Label: l}
	}
	p.X.Tick.Marker = xticks
	p.Y.Tick.Marker = yticks
	p.X.Tick.Label.Rotation = math.Pi / 2
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.X.Tick.Label.Font.Size = vg.Points(6)
	p.Y.Tick.Label.Font.Size = vg.Points(6)
	return p, nil
}
