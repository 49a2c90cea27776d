// Package stats wraps the gonum statistics routines used by the analyses.
package stats

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Fit is an ordinary least squares fit y = Alpha + Beta*x.
type Fit struct {
	Alpha    float64
	Beta     float64
	RSquared float64
	N        int
}

// At evaluates the fitted line.
func (f Fit) At(x float64) float64 {
	return f.Alpha + f.Beta*x
}

// OLS fits y on x with an intercept. Pairs where either value is NaN are
// dropped. Degenerate input (fewer than two points, zero variance in x)
// yields whatever gonum reports, typically NaN coefficients.
func OLS(x, y []float64) Fit {
	xs, ys := Complete(x, y)
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	return Fit{
		Alpha:    alpha,
		Beta:     beta,
		RSquared: stat.RSquared(xs, ys, nil, alpha, beta),
		N:        len(xs),
	}
}

// Complete returns the pairs of x and y where neither value is NaN.
func Complete(x, y []float64) ([]float64, []float64) {
	n := min(len(x), len(y))
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	return xs, ys
}

// MeanStd returns the mean and sample standard deviation of the non-NaN
// values. The mean of no values is NaN; the deviation of fewer than two
// values is NaN.
func MeanStd(xs []float64) (mean, std float64) {
	vals := Dropna(xs)
	switch len(vals) {
	case 0:
		return math.NaN(), math.NaN()
	case 1:
		return vals[0], math.NaN()
	}
	return stat.MeanStdDev(vals, nil)
}

// Dropna returns the non-NaN values of xs.
func Dropna(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) {
			out = append(out, x)
		}
	}
	return out
}

// Finite returns the values of xs that are neither NaN nor infinite.
func Finite(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			out = append(out, x)
		}
	}
	return out
}

// MinMax returns the smallest and largest finite values, or NaN for both
// when there are none.
func MinMax(xs []float64) (lo, hi float64) {
	vals := Finite(xs)
	if len(vals) == 0 {
		return math.NaN(), math.NaN()
	}
	return floats.Min(vals), floats.Max(vals)
}

// Bin is one histogram bin over [Min, Max) holding a fraction of the data.
type Bin struct {
	Min, Max float64
	Fraction float64
}

// Histogram splits the finite values into n equal-width bins and returns
// the fraction of values in each. The last bin includes its upper edge.
// Fractions are relative to the finite values only.
func Histogram(xs []float64, n int) []Bin {
	vals := Finite(xs)
	if len(vals) == 0 || n <= 0 {
		return nil
	}
	slices.Sort(vals)
	lo, hi := vals[0], vals[len(vals)-1]
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}

	dividers := floats.Span(make([]float64, n+1), lo, hi)
	dividers[n] = math.Nextafter(hi, math.Inf(1))
	counts := stat.Histogram(nil, dividers, vals, nil)

	bins := make([]Bin, n)
	total := float64(len(vals))
	for i, c := range counts {
		bins[i] = Bin{Min: dividers[i], Max: dividers[i+1], Fraction: c / total}
	}
	bins[n-1].Max = hi
	return bins
}
