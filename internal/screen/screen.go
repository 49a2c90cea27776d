// Package screen relates the expression level of screened core genes to
// the fertility of their knockdown lines.
package screen

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/meiosis-lab/dgecmp/internal/render"
	"github.com/meiosis-lab/dgecmp/internal/stats"
	"github.com/meiosis-lab/dgecmp/internal/table"
)

// Column names of the screen and derived tables.
const (
	ColGene         = "gene"
	ColStatus       = "Status"
	ColEggs         = "eggs"
	ColHatched      = "hatched"
	ColFPKM         = "FPKM"
	ColLogFPKM      = "logFPKM"
	ColTotalEggs    = "total-eggs"
	ColTotalHatched = "total-hatched"
	ColMeanRate     = "mean fert-rate"
	ColStdRate      = "std fert-rate"

	StatusScreened = "Screened"

	// Trials is the number of fertility tests per gene.
	Trials = 4
)

// Eggs, Hatched and Rate name the columns of fertility test ft (1-based).
func Eggs(ft int) string    { return fmt.Sprintf("FT%d eggs", ft) }
func Hatched(ft int) string { return fmt.Sprintf("FT%d hatched", ft) }
func Rate(ft int) string    { return fmt.Sprintf("FT%d fert-rate", ft) }

// Paths locates the inputs and output of the screen regression.
type Paths struct {
	Genes    string `mapstructure:"genes" yaml:"genes"`
	Screened string `mapstructure:"screened" yaml:"screened"`
	Controls string `mapstructure:"controls" yaml:"controls"`
	FPKM     string `mapstructure:"fpkm" yaml:"fpkm"`
	Output   string `mapstructure:"output" yaml:"output"`
}

// hasValue matches rows where col holds a number.
type hasValue string

func (h hasValue) Columns() []string { return []string{string(h)} }
func (h hasValue) Match(t *table.Table, i int) bool {
	return !math.IsNaN(t.Float(i, string(h)))
}

func trialColumns() []string {
	cols := make([]string, 0, 2*Trials)
	for ft := 1; ft <= Trials; ft++ {
		cols = append(cols, Eggs(ft), Hatched(ft))
	}
	return cols
}

// ControlRates groups control crosses by gene and returns the mean and
// sample standard deviation of hatched/eggs per gene.
func ControlRates(controls *table.Table) (*table.Table, error) {
	if err := controls.Require(ColEggs, ColHatched); err != nil {
		return nil, err
	}
	groups, err := controls.GroupBy(controls.IndexName())
	if err != nil {
		return nil, err
	}

	out := table.New(controls.IndexName(), ColMeanRate, ColStdRate)
	for _, g := range groups {
		rates := make([]float64, g.Rows.Len())
		for i := range rates {
			rates[i] = g.Rows.Float(i, ColHatched) / g.Rows.Float(i, ColEggs)
		}
		mean, std := stats.MeanStd(rates)
		if err := out.Append([]string{g.Key, table.FormatFloat(mean), table.FormatFloat(std)}); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// FertilityRates attaches screen status and trial counts to genes, keeps
// the screened ones and derives per-trial fertility rates, totals and the
// mean and standard deviation of the rates. Trial counts are only taken
// from screen rows with a first trial.
func FertilityRates(genes, screened *table.Table) (*table.Table, error) {
	t, err := table.LeftJoin(genes, screened, ColStatus)
	if err != nil {
		return nil, err
	}

	tried, err := table.Filter(screened, hasValue(Eggs(1)))
	if err != nil {
		return nil, err
	}
	if t, err = table.LeftJoin(t, tried, trialColumns()...); err != nil {
		return nil, err
	}

	if t, err = table.Filter(t, table.Equal{Column: ColStatus, Value: StatusScreened}); err != nil {
		return nil, err
	}

	var eggs, hatched, rates []string
	for ft := 1; ft <= Trials; ft++ {
		if err := t.Ratio(Rate(ft), Hatched(ft), Eggs(ft)); err != nil {
			return nil, err
		}
		eggs = append(eggs, Eggs(ft))
		hatched = append(hatched, Hatched(ft))
		rates = append(rates, Rate(ft))
	}
	if err := t.Sum(ColTotalEggs, eggs...); err != nil {
		return nil, err
	}
	if err := t.Sum(ColTotalHatched, hatched...); err != nil {
		return nil, err
	}
	if err := t.RowMean(ColMeanRate, rates...); err != nil {
		return nil, err
	}
	if err := t.RowStd(ColStdRate, rates...); err != nil {
		return nil, err
	}
	return t, nil
}

// AttachFPKM joins the FPKM column and adds logFPKM = log2(FPKM + 1).
func AttachFPKM(t, fpkm *table.Table) (*table.Table, error) {
	out, err := table.LeftJoin(t, fpkm, ColFPKM)
	if err != nil {
		return nil, err
	}
	if err := out.Apply(ColLogFPKM, ColFPKM, table.Log2p1); err != nil {
		return nil, err
	}
	return out, nil
}

// Regress fits mean fertility rate against logFPKM.
func Regress(t *table.Table) (x, y []float64, fit stats.Fit, err error) {
	if x, err = t.Floats(ColLogFPKM); err != nil {
		return nil, nil, stats.Fit{}, err
	}
	if y, err = t.Floats(ColMeanRate); err != nil {
		return nil, nil, stats.Fit{}, err
	}
	return x, y, stats.OLS(x, y), nil
}

// PlotOptions returns the figure labels of the regression plot.
func PlotOptions() render.LinRegOptions {
	opts := render.DefaultLinRegOptions()
	opts.Title = "Core genes expression level"
	opts.XLabel = "Log2(FPKM+1)"
	opts.YLabel = "Fertility rate"
	opts.RightLabel = "Silenced core genes phen."
	return opts
}

// Run loads the screen inputs, fits the regression and renders it to
// p.Output.
func Run(p Paths, logger *zap.Logger) (stats.Fit, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	genes, err := table.Read(p.Genes, table.ReadOptions{Index: "id_gene", Columns: []string{ColGene}})
	if err != nil {
		return stats.Fit{}, err
	}
	screened, err := table.Read(p.Screened, table.ReadOptions{})
	if err != nil {
		return stats.Fit{}, err
	}
	fpkm, err := table.Read(p.FPKM, table.ReadOptions{Index: "id_gene", Columns: []string{ColFPKM}})
	if err != nil {
		return stats.Fit{}, err
	}

	if p.Controls != "" {
		controls, err := table.Read(p.Controls, table.ReadOptions{})
		if err != nil {
			return stats.Fit{}, err
		}
		rates, err := ControlRates(controls)
		if err != nil {
			return stats.Fit{}, fmt.Errorf("control rates: %w", err)
		}
		for i := 0; i < rates.Len(); i++ {
			logger.Debug("control fertility",
				zap.String("gene", rates.ID(i)),
				zap.Float64("mean", rates.Float(i, ColMeanRate)),
				zap.Float64("std", rates.Float(i, ColStdRate)))
		}
	}

	t, err := FertilityRates(genes, screened)
	if err != nil {
		return stats.Fit{}, fmt.Errorf("fertility rates: %w", err)
	}
	if t, err = AttachFPKM(t, fpkm); err != nil {
		return stats.Fit{}, fmt.Errorf("attach FPKM: %w", err)
	}

	x, y, fit, err := Regress(t)
	if err != nil {
		return stats.Fit{}, err
	}
	logger.Info("fitted fertility regression",
		zap.Int("genes", t.Len()),
		zap.Int("n", fit.N),
		zap.Float64("alpha", fit.Alpha),
		zap.Float64("beta", fit.Beta),
		zap.Float64("r2", fit.RSquared))

	if err := render.LinReg(p.Output, x, y, fit, PlotOptions()); err != nil {
		return fit, fmt.Errorf("plot %s: %w", p.Output, err)
	}
	logger.Info("wrote figure", zap.String("output", p.Output))
	return fit, nil
}
