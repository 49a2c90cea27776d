// Package render draws the analysis figures as PDF files using gonum/plot.
package render

import (
	"fmt"
	"image/color"
	"math"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgpdf"

	"github.com/meiosis-lab/dgecmp/internal/table"
)

// Colors shared by the figures.
var (
	blueFill  = color.RGBA{R: 0x31, G: 0x82, B: 0xbd, A: 0xcc}
	red       = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	pink      = color.RGBA{R: 0xff, G: 0x98, B: 0x96, A: 0xff}
	lightBlue = color.RGBA{R: 0xae, G: 0xc7, B: 0xe8, A: 0xff}
	grey      = color.RGBA{R: 0xbd, G: 0xbd, B: 0xbd, A: 0xff}
)

// savePDF draws onto a w x h PDF canvas and writes it to path, creating
// the parent directory.
func savePDF(path string, w, h vg.Length, fn func(dc draw.Canvas)) error {
	if err := table.EnsureDir(path); err != nil {
		return err
	}

	c := vgpdf.New(w, h)
	fn(draw.New(c))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := c.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// percentTicks labels fractions as whole percentages.
type percentTicks struct{}

func (percentTicks) Ticks(min, max float64) []plot.Tick {
	ticks := plot.DefaultTicks{}.Ticks(min, max)
	for i := range ticks {
		if ticks[i].Label != "" {
			ticks[i].Label = fmt.Sprintf("%.0f%%", ticks[i].Value*100)
		}
	}
	return ticks
}

// unlabeledTicks keeps the default tick marks without labels.
type unlabeledTicks struct{}

func (unlabeledTicks) Ticks(min, max float64) []plot.Tick {
	ticks := plot.DefaultTicks{}.Ticks(min, max)
	for i := range ticks {
		ticks[i].Label = ""
	}
	return ticks
}

// finite returns the pairs where both values are finite.
func finite(x, y []float64) ([]float64, []float64) {
	n := min(len(x), len(y))
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(x[i]) || math.IsInf(x[i], 0) || math.IsNaN(y[i]) || math.IsInf(y[i], 0) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	return xs, ys
}
