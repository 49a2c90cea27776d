package proximity

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meiosis-lab/dgecmp/internal/table"
)

const proximityCSV = `,id-i,id-j,name-i,name-j,layer-i,layer-j,proximity
0,1,1,Ubiquitination,Splicing,HS,MM,0.9
1,1,2,Ubiquitination,Translation,HS,MM,0.4
2,2,2,Respiration,Translation,HS,MM,0.1
3,1,1,Ubiquitination,Splicing,HS,MM,0.2
4,7,1,Metabolism,Splicing,HS,MM,0.8
5,1,1,Ubiquitination,Unknown thing,HS,DM,0.3
6,3,1,DNA repair,Unknown thing,HS,DM,
7,2,3,Cell cycle,DNA repair,MM,DM,0.6
`

func readEdges(t *testing.T) []Edge {
	t.Helper()
	tbl, err := table.Parse(strings.NewReader(proximityCSV), table.ReadOptions{})
	require.NoError(t, err)
	edges, err := Edges(tbl, 6)
	require.NoError(t, err)
	return edges
}

func TestEdges(t *testing.T) {
	edges := readEdges(t)
	// module 7 and the missing proximity are dropped
	require.Len(t, edges, 6)
	assert.Equal(t, Module{ID: 1, Short: "Ubiq."}, edges[0].I)
	assert.Equal(t, Module{ID: 1, Short: "Splc."}, edges[0].J)
	assert.Equal(t, "Unknown thing", edges[4].J.Short)
}

func TestEdges_MissingColumn(t *testing.T) {
	tbl, err := table.Parse(strings.NewReader("x,id-i\n0,1\n"), table.ReadOptions{})
	require.NoError(t, err)
	_, err = Edges(tbl, 6)
	var mce *table.MissingColumnError
	assert.ErrorAs(t, err, &mce)
}

func TestMatrix(t *testing.T) {
	labels, values := Matrix(readEdges(t), LayerPair{"HS", "MM"})

	// i modules {M1-Ubiq., M2-Resp.} and j modules {M1-Splc., M2-Trsl.} tie,
	// so the j modules label the matrix
	require.Equal(t, []Module{{1, "Splc."}, {2, "Trsl."}}, labels)
	require.Len(t, values, 2)
	for _, row := range values {
		require.Len(t, row, 2)
		for _, v := range row {
			assert.True(t, math.IsNaN(v), "i modules are not among the labels")
		}
	}
}

func TestMatrix_Orientation(t *testing.T) {
	edges := []Edge{
		{I: Module{1, "A"}, J: Module{1, "A"}, LayerI: "HS", LayerJ: "MM", Proximity: 0.9},
		{I: Module{1, "A"}, J: Module{2, "B"}, LayerI: "HS", LayerJ: "MM", Proximity: 0.4},
		{I: Module{2, "B"}, J: Module{1, "A"}, LayerI: "HS", LayerJ: "MM", Proximity: 0.3},
		{I: Module{1, "A"}, J: Module{1, "A"}, LayerI: "HS", LayerJ: "MM", Proximity: 0.1},
		{I: Module{1, "A"}, J: Module{1, "A"}, LayerI: "HS", LayerJ: "DM", Proximity: 0.5},
	}
	labels, values := Matrix(edges, LayerPair{"HS", "MM"})
	require.Equal(t, []Module{{1, "A"}, {2, "B"}}, labels)

	// columns are i modules, rows are j modules
	assert.Equal(t, 0.9, values[0][0], "first edge wins")
	assert.Equal(t, 0.3, values[0][1])
	assert.Equal(t, 0.4, values[1][0])
	assert.True(t, math.IsNaN(values[1][1]))
}

func TestMatrix_LargerSetWins(t *testing.T) {
	edges := []Edge{
		{I: Module{2, "B"}, J: Module{1, "A"}, LayerI: "MM", LayerJ: "DM", Proximity: 0.2},
		{I: Module{1, "A"}, J: Module{1, "A"}, LayerI: "MM", LayerJ: "DM", Proximity: 0.7},
	}
	labels, values := Matrix(edges, LayerPair{"MM", "DM"})
	require.Equal(t, []Module{{1, "A"}, {2, "B"}}, labels)
	assert.Equal(t, 0.7, values[0][0])
	assert.Equal(t, 0.2, values[0][1])
	assert.True(t, math.IsNaN(values[1][0]))
}

func TestMatrix_Empty(t *testing.T) {
	labels, values := Matrix(nil, LayerPair{"HS", "MM"})
	assert.Empty(t, labels)
	assert.Empty(t, values)
}

func TestPanels(t *testing.T) {
	panels := Panels(readEdges(t), "spermatocyte")
	require.Len(t, panels, 3)
	assert.Equal(t, "Human germ cell", panels[0].XLabel)
	assert.Equal(t, "Mouse germ cell", panels[0].YLabel)
	assert.Equal(t, []string{"M1-Splc.", "M2-Trsl."}, panels[0].XLabels)
	assert.Equal(t, "Insect germ cell", panels[2].YLabel)

	panels = Panels(nil, "enterocyte")
	assert.Equal(t, "Mouse soma", panels[2].XLabel)
}

func TestPaths(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "0p5", ThresholdString(0.5))
	assert.Equal(t, "1p0", ThresholdString(1))
	assert.Equal(t,
		filepath.Join("results", "module-proximity", "module-proximity-spermatocyte-thr-0p5.csv.gz"),
		cfg.InputPath("spermatocyte"))
	assert.Equal(t,
		filepath.Join("images", "module-proximity", "img-module-proximity-enterocyte-thr-0p5.pdf"),
		cfg.OutputPath("enterocyte"))
}

func TestPlotAll(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.InputDir = filepath.Join(dir, "results")
	cfg.OutputDir = filepath.Join(dir, "images")
	require.NoError(t, os.MkdirAll(cfg.InputDir, 0755))

	for _, ct := range cfg.CellTypes {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		_, err := zw.Write([]byte(proximityCSV))
		require.NoError(t, err)
		require.NoError(t, zw.Close())
		require.NoError(t, os.WriteFile(cfg.InputPath(ct), buf.Bytes(), 0644))
	}

	outs, err := PlotAll(cfg, nil)
	require.NoError(t, err)
	require.Len(t, outs, 2)
	for _, out := range outs {
		data, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
	}
}

func TestPlot_MissingInput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InputDir = t.TempDir()
	_, err := Plot(cfg, "spermatocyte", nil)
	assert.Error(t, err)
}
