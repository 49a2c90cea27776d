package screen

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meiosis-lab/dgecmp/internal/table"
)

const genesCSV = `id_gene,gene
FBgn1,bol
FBgn2,twe
FBgn3,mei-P26
FBgn4,fzo
FBgn5,dhd
`

const screenedCSV = `id_gene,Status,FT1 eggs,FT1 hatched,FT2 eggs,FT2 hatched,FT3 eggs,FT3 hatched,FT4 eggs,FT4 hatched
FBgn1,Screened,100,50,100,60,100,70,100,80
FBgn2,Screened,200,20,100,10,,,50,5
FBgn3,Pending,100,100,100,100,100,100,100,100
FBgn4,Screened,,,100,90,100,90,100,90
FBgn5,Screened,0,0,10,10,10,10,10,10
`

const controlsCSV = `gene,eggs,hatched
w1118,100,90
w1118,100,80
Oregon,50,50
`

func parse(t *testing.T, s string, opts table.ReadOptions) *table.Table {
	t.Helper()
	tbl, err := table.Parse(strings.NewReader(s), opts)
	require.NoError(t, err)
	return tbl
}

func TestControlRates(t *testing.T) {
	rates, err := ControlRates(parse(t, controlsCSV, table.ReadOptions{}))
	require.NoError(t, err)
	require.Equal(t, 2, rates.Len())

	assert.Equal(t, "w1118", rates.ID(0))
	assert.InDelta(t, 0.85, rates.Float(0, ColMeanRate), 1e-12)
	assert.InDelta(t, math.Sqrt(0.005), rates.Float(0, ColStdRate), 1e-12)

	assert.Equal(t, "Oregon", rates.ID(1))
	assert.Equal(t, 1.0, rates.Float(1, ColMeanRate))
	assert.True(t, math.IsNaN(rates.Float(1, ColStdRate)), "single cross has no deviation")
}

func TestControlRates_MissingColumn(t *testing.T) {
	_, err := ControlRates(parse(t, "gene,eggs\nw1118,1\n", table.ReadOptions{}))
	var mce *table.MissingColumnError
	assert.ErrorAs(t, err, &mce)
}

func TestFertilityRates(t *testing.T) {
	genes := parse(t, genesCSV, table.ReadOptions{})
	screened := parse(t, screenedCSV, table.ReadOptions{})

	got, err := FertilityRates(genes, screened)
	require.NoError(t, err)

	// FBgn3 is pending
	assert.Equal(t, []string{"FBgn1", "FBgn2", "FBgn4", "FBgn5"}, got.IDs())

	assert.Equal(t, 0.5, got.Float(0, Rate(1)))
	assert.Equal(t, 400.0, got.Float(0, ColTotalEggs))
	assert.Equal(t, 260.0, got.Float(0, ColTotalHatched))
	assert.InDelta(t, 0.65, got.Float(0, ColMeanRate), 1e-12)

	// a missing trial makes the totals missing but not the mean
	assert.True(t, math.IsNaN(got.Float(1, ColTotalEggs)))
	assert.InDelta(t, 0.1, got.Float(1, ColMeanRate), 1e-12)

	// trial counts are only taken from rows with a first trial
	assert.Equal(t, StatusScreened, got.Get(2, ColStatus))
	assert.True(t, math.IsNaN(got.Float(2, Eggs(2))))
	assert.True(t, math.IsNaN(got.Float(2, ColMeanRate)))

	// zero eggs divides to NaN
	assert.True(t, math.IsNaN(got.Float(3, Rate(1))))
	assert.Equal(t, 1.0, got.Float(3, ColMeanRate))
}

func TestAttachFPKM(t *testing.T) {
	genes := parse(t, genesCSV, table.ReadOptions{})
	fpkm := parse(t, "id_gene,FPKM\nFBgn1,3\nFBgn2,0\n", table.ReadOptions{})

	got, err := AttachFPKM(genes, fpkm)
	require.NoError(t, err)
	assert.Equal(t, genes.Len(), got.Len())
	assert.Equal(t, 2.0, got.Float(0, ColLogFPKM))
	assert.Equal(t, 0.0, got.Float(1, ColLogFPKM))
	assert.True(t, math.IsNaN(got.Float(2, ColLogFPKM)))
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
		return p
	}

	p := Paths{
		Genes:    write("genes.csv", "id_gene,gene,biotype\n"+strings.SplitN(genesCSV, "\n", 2)[1]),
		Screened: write("screened.csv", screenedCSV),
		Controls: write("controls.csv", controlsCSV),
		FPKM:     write("fpkm.csv", "id_gene,FPKM,TPM\nFBgn1,3,1\nFBgn2,15,1\nFBgn4,1,1\nFBgn5,7,1\n"),
		Output:   filepath.Join(dir, "images", "linreg.pdf"),
	}

	fit, err := Run(p, nil)
	require.NoError(t, err)
	// FBgn4 has no mean rate
	assert.Equal(t, 3, fit.N)
	assert.Less(t, fit.Beta, 0.0)

	data, err := os.ReadFile(p.Output)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}

func TestRun_MissingInput(t *testing.T) {
	_, err := Run(Paths{Genes: filepath.Join(t.TempDir(), "missing.csv")}, nil)
	assert.Error(t, err)
}
