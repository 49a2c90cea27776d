// Package dge classifies genes from differential expression tables into
// up-regulated, down-regulated and unchanged sets.
package dge

import (
	"fmt"
	"math"

	"github.com/meiosis-lab/dgecmp/internal/table"
)

// Standard column names written by the upstream DGE tool.
const (
	ColLogFC    = "logFC"
	ColLogCPM   = "logCPM"
	ColFDR      = "FDR"
	ColBiotype  = "biotype"
	ColIDString = "id_string"
	ColIDGene   = "id_gene"

	BiotypeProteinCoding = "protein_coding"
)

// Regulation is the direction of a gene's expression change.
type Regulation string

// Regulation classes. Partitions list them in report order.
const (
	Up   Regulation = "Up"
	Not  Regulation = "Not"
	Down Regulation = "Down"
)

// Regulations lists the classes in report order.
var Regulations = []Regulation{Up, Not, Down}

// Thresholds are the cutoffs applied to every comparison.
type Thresholds struct {
	MaxFDR    float64 `mapstructure:"max_fdr" yaml:"max_fdr"`
	MinLogFC  float64 `mapstructure:"min_log_fc" yaml:"min_log_fc"`
	MinLogCPM float64 `mapstructure:"min_log_cpm" yaml:"min_log_cpm"`
}

// DefaultThresholds returns FDR <= 0.05, |logFC| >= log2(2) and
// logCPM >= log2(2).
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxFDR:    0.05,
		MinLogFC:  math.Log2(2),
		MinLogCPM: math.Log2(2),
	}
}

// Comparison describes one two-condition contrast within a species table.
type Comparison struct {
	Species string `mapstructure:"species" yaml:"species"`
	Name    string `mapstructure:"name" yaml:"name"`
	Input   string `mapstructure:"input" yaml:"input"`
	// SelectColumn, when set, names a boolean column marking the genes
	// that take part in this comparison.
	SelectColumn     string `mapstructure:"select_column" yaml:"select_column,omitempty"`
	FoldChangeColumn string `mapstructure:"fold_change_column" yaml:"fold_change_column"`
	FDRColumn        string `mapstructure:"fdr_column" yaml:"fdr_column"`
}

// String returns "<species> <name>".
func (c Comparison) String() string {
	return fmt.Sprintf("%s %s", c.Species, c.Name)
}

// DEPredicate selects differentially expressed rows:
// FDR <= MaxFDR and |logFC| >= MinLogFC.
func DEPredicate(c Comparison, th Thresholds) table.Predicate {
	return table.And{
		table.Compare{Column: c.FDRColumn, Op: table.LE, Value: th.MaxFDR},
		table.Compare{Column: c.FoldChangeColumn, Op: table.GE, Value: th.MinLogFC, Abs: true},
	}
}

// ExpressedPredicate selects rows with logCPM >= MinLogCPM.
func ExpressedPredicate(th Thresholds) table.Predicate {
	return table.Compare{Column: ColLogCPM, Op: table.GE, Value: th.MinLogCPM}
}

// Scope returns the rows taking part in the comparison.
func Scope(t *table.Table, c Comparison) (*table.Table, error) {
	if c.SelectColumn == "" {
		return t, nil
	}
	return table.Filter(t, table.IsTrue{Column: c.SelectColumn})
}

// Partition splits a comparison's genes by regulation. The three sets are
// disjoint and together hold every row of Scope.
type Partition struct {
	Scope *table.Table
	Up    *table.Table
	Down  *table.Table
	Not   *table.Table
}

// Get returns the set for r.
func (p Partition) Get(r Regulation) *table.Table {
	switch r {
	case Up:
		return p.Up
	case Down:
		return p.Down
	}
	return p.Not
}

// Split partitions the comparison's scope of t. Differentially expressed
// rows with logFC >= 0 are Up and those with logFC < 0 are Down; every
// other row, including rows with missing statistics, is Not.
func Split(t *table.Table, c Comparison, th Thresholds) (Partition, error) {
	scope, err := Scope(t, c)
	if err != nil {
		return Partition{}, fmt.Errorf("scope %s: %w", c, err)
	}

	de := DEPredicate(c, th)
	up, err := table.Filter(scope, table.And{de,
		table.Compare{Column: c.FoldChangeColumn, Op: table.GE, Value: 0}})
	if err != nil {
		return Partition{}, fmt.Errorf("up-regulated %s: %w", c, err)
	}
	down, err := table.Filter(scope, table.And{de,
		table.Compare{Column: c.FoldChangeColumn, Op: table.LT, Value: 0}})
	if err != nil {
		return Partition{}, fmt.Errorf("down-regulated %s: %w", c, err)
	}

	return Partition{
		Scope: scope,
		Up:    up,
		Down:  down,
		Not:   table.Exclude(scope, up, down),
	}, nil
}

// Classify returns the regulation of row i of t.
func Classify(t *table.Table, i int, c Comparison, th Thresholds) Regulation {
	if !DEPredicate(c, th).Match(t, i) {
		return Not
	}
	if t.Float(i, c.FoldChangeColumn) >= 0 {
		return Up
	}
	return Down
}
