// Package proximity pivots module proximity scores between species layers
// into heat maps.
package proximity

import (
	"cmp"
	"fmt"
	"math"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/meiosis-lab/dgecmp/internal/render"
	"github.com/meiosis-lab/dgecmp/internal/table"
)

// Columns of a proximity file.
const (
	ColIDI       = "id-i"
	ColIDJ       = "id-j"
	ColNameI     = "name-i"
	ColNameJ     = "name-j"
	ColLayerI    = "layer-i"
	ColLayerJ    = "layer-j"
	ColProximity = "proximity"
)

// ShortNames abbreviates module names for tick labels. Names not listed
// are used as they are.
var ShortNames = map[string]string{
	"Ubiquitination":                       "Ubiq.",
	"Splicing":                             "Splc.",
	"Translation":                          "Trsl.",
	"rRNA regulation":                      "rRNA",
	"Vesicle transport":                    "Ves. trsp.",
	"Respiration":                          "Resp.",
	"Cell cycle":                           "Cell cyc.",
	"DNA repair":                           "DNA rep.",
	"Mitochondrial translation":            "M. trsl.",
	"Cell cycle (II)":                      "Cell cyc. II",
	"Metabolism":                           "Metb.",
	"Peptidyl-histidine dephosphorylation": "Pep. dephospho.",
}

// SpeciesNames names the species layers on axis labels.
var SpeciesNames = map[string]string{"HS": "Human", "MM": "Mouse", "DM": "Insect"}

// LayerPair is an ordered pair of species layers.
type LayerPair struct {
	I, J string
}

// LayerPairs are the panels of a proximity figure, left to right.
var LayerPairs = []LayerPair{{"HS", "MM"}, {"HS", "DM"}, {"MM", "DM"}}

// Config selects the proximity files to plot.
type Config struct {
	CellTypes []string `mapstructure:"cell_types" yaml:"cell_types"`
	Network   string   `mapstructure:"network" yaml:"network"`
	Threshold float64  `mapstructure:"threshold" yaml:"threshold"`
	MaxModule int      `mapstructure:"max_module" yaml:"max_module"`
	InputDir  string   `mapstructure:"input_dir" yaml:"input_dir"`
	OutputDir string   `mapstructure:"output_dir" yaml:"output_dir"`
}

// DefaultConfig plots modules 1 to 6 of the thresholded networks.
func DefaultConfig() Config {
	return Config{
		CellTypes: []string{"spermatocyte", "enterocyte"},
		Network:   "thr",
		Threshold: 0.5,
		MaxModule: 6,
		InputDir:  "results/module-proximity",
		OutputDir: "images/module-proximity",
	}
}

// ThresholdString formats a threshold for file names, e.g. 0.5 as "0p5".
func ThresholdString(th float64) string {
	return strings.ReplaceAll(table.FormatFloat(th), ".", "p")
}

// InputPath is the proximity file of one cell type.
func (c Config) InputPath(cellType string) string {
	return filepath.Join(c.InputDir, fmt.Sprintf("module-proximity-%s-%s-%s.csv.gz",
		cellType, c.Network, ThresholdString(c.Threshold)))
}

// OutputPath is the figure of one cell type.
func (c Config) OutputPath(cellType string) string {
	return filepath.Join(c.OutputDir, fmt.Sprintf("img-module-proximity-%s-%s-%s.pdf",
		cellType, c.Network, ThresholdString(c.Threshold)))
}

// CellTypeLabel is "germ cell" for spermatocytes and "soma" otherwise.
func CellTypeLabel(cellType string) string {
	if cellType == "spermatocyte" {
		return "germ cell"
	}
	return "soma"
}

// Module identifies a module within a layer.
type Module struct {
	ID    int
	Short string
}

func (m Module) String() string {
	return fmt.Sprintf("M%d-%s", m.ID, m.Short)
}

func compareModules(a, b Module) int {
	return cmp.Or(cmp.Compare(a.ID, b.ID), strings.Compare(a.Short, b.Short))
}

// Edge is the proximity between module I of layer LayerI and module J of
// layer LayerJ.
type Edge struct {
	I, J           Module
	LayerI, LayerJ string
	Proximity      float64
}

// Edges reads the edges of t whose module ids are both at most maxModule.
// Rows with a missing id or proximity are skipped.
func Edges(t *table.Table, maxModule int) ([]Edge, error) {
	if err := t.Require(ColIDI, ColIDJ, ColNameI, ColNameJ, ColLayerI, ColLayerJ, ColProximity); err != nil {
		return nil, err
	}

	limit := float64(maxModule)
	var edges []Edge
	for i := 0; i < t.Len(); i++ {
		idI, idJ := t.Float(i, ColIDI), t.Float(i, ColIDJ)
		if !(idI <= limit && idJ <= limit) {
			continue
		}
		p := t.Float(i, ColProximity)
		if math.IsNaN(p) {
			continue
		}
		edges = append(edges, Edge{
			I:         Module{ID: int(idI), Short: shorten(t.Get(i, ColNameI))},
			J:         Module{ID: int(idJ), Short: shorten(t.Get(i, ColNameJ))},
			LayerI:    t.Get(i, ColLayerI),
			LayerJ:    t.Get(i, ColLayerJ),
			Proximity: p,
		})
	}
	return edges, nil
}

func shorten(name string) string {
	if s, ok := ShortNames[name]; ok {
		return s
	}
	return name
}

// Matrix pivots the edges of one layer pair into a square matrix. Its
// labels are the larger of the sets of i and j modules, sorted by id and
// name; ties use the j modules. Values[r][c] is the proximity of i module
// labels[c] to j module labels[r], NaN where no edge exists or a module is
// not among the labels. The first edge of a repeated cell wins.
func Matrix(edges []Edge, pair LayerPair) (labels []Module, values [][]float64) {
	cells := make(map[[2]Module]float64)
	var rowSet, colSet []Module
	for _, e := range edges {
		if e.LayerI != pair.I || e.LayerJ != pair.J {
			continue
		}
		key := [2]Module{e.I, e.J}
		if _, ok := cells[key]; !ok {
			cells[key] = e.Proximity
		}
		if !slices.Contains(rowSet, e.I) {
			rowSet = append(rowSet, e.I)
		}
		if !slices.Contains(colSet, e.J) {
			colSet = append(colSet, e.J)
		}
	}

	labels = colSet
	if len(rowSet) > len(colSet) {
		labels = rowSet
	}
	slices.SortFunc(labels, compareModules)

	values = make([][]float64, len(labels))
	for r, mj := range labels {
		values[r] = make([]float64, len(labels))
		for c, mi := range labels {
			v, ok := cells[[2]Module{mi, mj}]
			if !ok {
				v = math.NaN()
			}
			values[r][c] = v
		}
	}
	return labels, values
}

// Panels builds one heat map panel per layer pair.
func Panels(edges []Edge, cellType string) []render.Panel {
	ct := CellTypeLabel(cellType)
	panels := make([]render.Panel, 0, len(LayerPairs))
	for _, pair := range LayerPairs {
		labels, values := Matrix(edges, pair)
		names := make([]string, len(labels))
		for k, m := range labels {
			names[k] = m.String()
		}
		panels = append(panels, render.Panel{
			XLabel:  fmt.Sprintf("%s %s", SpeciesNames[pair.I], ct),
			YLabel:  fmt.Sprintf("%s %s", SpeciesNames[pair.J], ct),
			XLabels: names,
			YLabels: names,
			Values:  values,
		})
	}
	return panels
}

// Plot renders the proximity figure of one cell type.
func Plot(cfg Config, cellType string, logger *zap.Logger) (string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	in := cfg.InputPath(cellType)
	t, err := table.Read(in, table.ReadOptions{})
	if err != nil {
		return "", err
	}
	edges, err := Edges(t, cfg.MaxModule)
	if err != nil {
		return "", err
	}

	opts := render.DefaultHeatmapOptions()
	opts.ScaleText = "Similarity"
	out := cfg.OutputPath(cellType)
	if err := render.Heatmaps(out, Panels(edges, cellType), opts); err != nil {
		return "", fmt.Errorf("plot %s: %w", out, err)
	}
	logger.Info("wrote module proximity",
		zap.String("cell_type", cellType),
		zap.Int("edges", len(edges)),
		zap.String("output", out))
	return out, nil
}

// PlotAll renders every configured cell type and returns the figure paths.
func PlotAll(cfg Config, logger *zap.Logger) ([]string, error) {
	var outs []string
	for _, ct := range cfg.CellTypes {
		out, err := Plot(cfg, ct, logger)
		if err != nil {
			return outs, err
		}
		outs = append(outs, out)
	}
	return outs, nil
}
