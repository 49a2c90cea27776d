package render

import (
	"errors"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/meiosis-lab/dgecmp/internal/stats"
)

// LinRegOptions configures the regression figure.
type LinRegOptions struct {
	Title      string // above the top histogram
	XLabel     string
	YLabel     string
	RightLabel string // beside the right histogram
	Bins       int
	Width      vg.Length
	Height     vg.Length
}

// DefaultLinRegOptions returns a 6x3 inch figure with 22 bins.
func DefaultLinRegOptions() LinRegOptions {
	return LinRegOptions{
		Bins:   22,
		Width:  6 * vg.Inch,
		Height: 3 * vg.Inch,
	}
}

// LinReg draws a scatter of y against x with the fitted line, a histogram
// of x above and a histogram of y to the right. Histogram bars show the
// fraction of points per bin.
func LinReg(path string, x, y []float64, fit stats.Fit, opts LinRegOptions) error {
	xs, ys := finite(x, y)
	if len(xs) == 0 {
		return errors.New("linreg: no finite points to plot")
	}
	if opts.Bins <= 0 {
		opts.Bins = 22
	}

	main, err := scatterPlot(xs, ys, fit, opts)
	if err != nil {
		return err
	}
	top, err := histPlot(xs, opts.Bins, false, pink)
	if err != nil {
		return err
	}
	top.Title.Text = opts.Title
	top.Y.Label.Text = "%"
	top.X.Tick.Marker = unlabeledTicks{}
	top.X.Min, top.X.Max = main.X.Min, main.X.Max

	right, err := histPlot(ys, opts.Bins, true, lightBlue)
	if err != nil {
		return err
	}
	right.X.Label.Text = "%"
	right.Y.Label.Text = opts.RightLabel
	right.Y.Tick.Marker = unlabeledTicks{}
	right.Y.Min, right.Y.Max = main.Y.Min, main.Y.Max

	w, h := opts.Width, opts.Height
	rightW := w * 0.16
	topH := h * 0.25

	return savePDF(path, w, h, func(dc draw.Canvas) {
		main.Draw(draw.Crop(dc, 0, -rightW, 0, -topH))
		top.Draw(draw.Crop(dc, 0, -rightW, h-topH, 0))
		right.Draw(draw.Crop(dc, w-rightW, 0, 0, -topH))
	})
}

func scatterPlot(xs, ys []float64, fit stats.Fit, opts LinRegOptions) (*plot.Plot, error) {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}

	p := plot.New()
	p.X.Label.Text = opts.XLabel
	p.Y.Label.Text = opts.YLabel
	p.Add(plotter.NewGrid())

	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, fmt.Errorf("scatter: %w", err)
	}
	sc.GlyphStyle.Color = blueFill
	sc.GlyphStyle.Radius = vg.Points(2)
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(sc)

	lo, hi := stats.MinMax(xs)
	line := plotter.NewFunction(fit.At)
	line.XMin, line.XMax = lo, hi
	line.Color = red
	line.Width = vg.Points(1)
	p.Add(line)

	p.Legend.Add(fmt.Sprintf("R² = %.2f", fit.RSquared), line)
	p.Legend.Top = false
	p.Legend.Left = false

	return p, nil
}

// histPlot draws bins of vs as filled bars. Horizontal bars grow along x.
func histPlot(vs []float64, bins int, horizontal bool, fill color.Color) (*plot.Plot, error) {
	p := plot.New()
	p.Add(plotter.NewGrid())

	var rings []plotter.XYer
	for _, b := range stats.Histogram(vs, bins) {
		if b.Fraction == 0 {
			continue
		}
		rect := plotter.XYs{
			{X: b.Min, Y: 0}, {X: b.Max, Y: 0}, {X: b.Max, Y: b.Fraction}, {X: b.Min, Y: b.Fraction},
		}
		if horizontal {
			for i := range rect {
				rect[i].X, rect[i].Y = rect[i].Y, rect[i].X
			}
		}
		rings = append(rings, rect)
	}
	if len(rings) == 0 {
		return p, nil
	}

	poly, err := plotter.NewPolygon(rings...)
	if err != nil {
		return nil, fmt.Errorf("histogram: %w", err)
	}
	poly.Color = fill
	poly.LineStyle.Width = 0
	p.Add(poly)

	if horizontal {
		p.X.Tick.Marker = percentTicks{}
		p.X.Min = 0
	} else {
		p.Y.Tick.Marker = percentTicks{}
		p.Y.Min = 0
	}
	return p, nil
}
