package table

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dgeCSV = `id_gene,logFC,logCPM,FDR,biotype
g1,1.5,3.2,0.001,protein_coding
g2,-2.0,1.1,0.2,protein_coding
g3,-1.25,0.4,1e-05,lncRNA
g4,,2.0,0.01,protein_coding
g5,0.3,5.5,0.04,protein_coding
`

func parse(t *testing.T, s string) *Table {
	t.Helper()
	tbl, err := Parse(strings.NewReader(s), ReadOptions{})
	require.NoError(t, err)
	return tbl
}

func TestParse(t *testing.T) {
	tbl := parse(t, dgeCSV)

	assert.Equal(t, 5, tbl.Len())
	assert.Equal(t, "id_gene", tbl.IndexName())
	assert.Equal(t, []string{"g1", "g2", "g3", "g4", "g5"}, tbl.IDs())
	assert.InDelta(t, 1.5, tbl.Float(0, "logFC"), 1e-12)
	assert.True(t, math.IsNaN(tbl.Float(3, "logFC")), "empty cell should be NaN")
	assert.True(t, math.IsNaN(tbl.Float(0, "nope")), "absent column should be NaN")
	assert.Equal(t, "lncRNA", tbl.Get(2, "biotype"))
}

func TestParse_IndexAndColumns(t *testing.T) {
	in := "gene,id_gene,FPKM,other\nA,g1,10,x\nB,g2,0,y\n"
	tbl, err := Parse(strings.NewReader(in), ReadOptions{Index: "id_gene", Columns: []string{"id_gene", "FPKM"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"id_gene", "FPKM"}, tbl.Header())
	assert.Equal(t, "g2", tbl.ID(1))
	assert.Equal(t, "0", tbl.Get(1, "FPKM"))
}

func TestParse_MissingColumn(t *testing.T) {
	_, err := Parse(strings.NewReader(dgeCSV), ReadOptions{Columns: []string{"logFC", "PValue"}})
	require.Error(t, err)

	var mce *MissingColumnError
	require.True(t, errors.As(err, &mce))
	assert.Equal(t, "PValue", mce.Column)
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse(strings.NewReader(""), ReadOptions{})
	assert.Error(t, err)
}

func TestParse_TSV(t *testing.T) {
	in := "id\ta\tb\nx\t1\tsay \"hi\"\ny\t2\n"
	tbl, err := Parse(strings.NewReader(in), ReadOptions{Comma: '\t'})
	require.NoError(t, err)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, "1", tbl.Get(0, "a"))
	assert.Equal(t, `say "hi"`, tbl.Get(0, "b"))
	assert.Equal(t, "", tbl.Get(1, "b"), "short rows are padded")
}

func TestParse_WideRow(t *testing.T) {
	in := "id,a,b\nx,1,2\ny,3,4,5\n"
	_, err := Parse(strings.NewReader(in), ReadOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
	assert.Contains(t, err.Error(), "4 fields, header has 3")

	// a projection does not hide the malformed row
	_, err = Parse(strings.NewReader(in), ReadOptions{Columns: []string{"a"}})
	assert.Error(t, err)
}

func TestReadGzip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dge.csv.gz")

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(dgeCSV))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	tbl, err := Read(path, ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 5, tbl.Len())
	assert.Equal(t, path, tbl.Name)
}

func TestRead_NotExist(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.csv"), ReadOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(in, []byte(dgeCSV), 0644))

	tbl, err := Read(in, ReadOptions{})
	require.NoError(t, err)

	filtered, err := Filter(tbl, Compare{Column: "logCPM", Op: GE, Value: 1})
	require.NoError(t, err)

	out1 := filepath.Join(dir, "nested", "a", "out.csv")
	out2 := filepath.Join(dir, "nested", "b", "out.csv")
	require.NoError(t, Write(out1, filtered))

	// Re-running against unchanged input reproduces the same bytes.
	again, err := Read(in, ReadOptions{})
	require.NoError(t, err)
	filtered2, err := Filter(again, Compare{Column: "logCPM", Op: GE, Value: 1})
	require.NoError(t, err)
	require.NoError(t, Write(out2, filtered2))

	b1, err := os.ReadFile(out1)
	require.NoError(t, err)
	b2, err := os.ReadFile(out2)
	require.NoError(t, err)
	assert.Equal(t, b1, b2)
	assert.Equal(t, "id_gene,logFC,logCPM,FDR,biotype\n"+
		"g1,1.5,3.2,0.001,protein_coding\n"+
		"g2,-2.0,1.1,0.2,protein_coding\n"+
		"g4,,2.0,0.01,protein_coding\n"+
		"g5,0.3,5.5,0.04,protein_coding\n", string(b1))
}

func TestWriteGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv.gz")
	tbl := parse(t, dgeCSV)
	require.NoError(t, Write(path, tbl))

	back, err := Read(path, ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, tbl.IDs(), back.IDs())
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.0"},
		{1, "1.0"},
		{0.5, "0.5"},
		{-2.25, "-2.25"},
		{1e-05, "1e-05"},
		{123456789, "123456789.0"},
		{math.NaN(), ""},
		{math.Inf(1), "inf"},
		{math.Inf(-1), "-inf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatFloat(tt.in))
	}
}

func TestBool(t *testing.T) {
	tbl := parse(t, "id,flag\na,True\nb,False\nc,\nd,1\n")
	assert.True(t, tbl.Bool(0, "flag"))
	assert.False(t, tbl.Bool(1, "flag"))
	assert.False(t, tbl.Bool(2, "flag"))
	assert.True(t, tbl.Bool(3, "flag"))
}

func TestAppend(t *testing.T) {
	tbl := New("id", "x")
	require.NoError(t, tbl.Append([]string{"a", "1"}))
	assert.Error(t, tbl.Append([]string{"b"}))
	assert.Equal(t, 1, tbl.Len())

	i, ok := tbl.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, 0, i)
	_, ok = tbl.Lookup("zzz")
	assert.False(t, ok)
}
