package meta

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const members = "33208\tENOG001\t3\t3\t9606.ENSP1,10090.ENSMUSP1,4932.YAL001\tHomo sapiens,Mus musculus\n" +
	"33208\tENOG002\t2\t2\t9606.ENSP9,7227.FBpp9\tHomo sapiens\tDrosophila\n" +
	"33208\tENOG003\t2\t2\t7227.FBpp1,7227.FBpp2\tDrosophila melanogaster\n" +
	"33208\tENOG004\t1\t1\t4932.YAL002\n"

const annotations = "33208\tENOG001\tO\tUbiquitin ligase\n" +
	"33208\tENOG003\tJ\tRibosomal protein\n" +
	"33208\tENOG003\tJ\tduplicate entry\n"

func testIDs() map[string][]string {
	return map[string][]string{
		"HS": {"9606.ENSP1", ""},
		"MM": {"10090.ENSMUSP1"},
		"DM": {"7227.FBpp1", "7227.FBpp2"},
	}
}

func TestMatch(t *testing.T) {
	m := NewMatcher(testIDs())

	f, ok := m.Match("ENOG001", []string{"9606.ENSP1", "10090.ENSMUSP1", "4932.YAL001"})
	require.True(t, ok)
	assert.Equal(t, []string{"9606.ENSP1"}, f.Members["HS"])
	assert.Equal(t, []string{"10090.ENSMUSP1"}, f.Members["MM"])
	assert.Empty(t, f.Members["DM"])

	_, ok = m.Match("ENOG004", []string{"4932.YAL002"})
	assert.False(t, ok, "unwanted taxon")

	// known identifier but under a taxon that is not wanted
	m = NewMatcher(map[string][]string{"HS": {"4932.YAL002"}})
	_, ok = m.Match("ENOG004", []string{"4932.YAL002"})
	assert.False(t, ok)
}

func TestReadMembers(t *testing.T) {
	m := NewMatcher(testIDs())
	families, err := m.ReadMembers(strings.NewReader(members))
	require.NoError(t, err)
	require.Len(t, families, 2)
	assert.Equal(t, "ENOG001", families[0].ID)
	assert.Equal(t, "ENOG003", families[1].ID)
	assert.Equal(t, []string{"7227.FBpp1", "7227.FBpp2"}, families[1].Members["DM"])
}

func TestReadMembers_NoTrailingNewline(t *testing.T) {
	m := NewMatcher(testIDs())
	families, err := m.ReadMembers(strings.NewReader("1\tENOG003\t1\t1\t7227.FBpp1"))
	require.NoError(t, err)
	require.Len(t, families, 1)
}

func TestReadMembers_ShortLine(t *testing.T) {
	m := NewMatcher(testIDs())
	_, err := m.ReadMembers(strings.NewReader("1\tENOG003\t1\n"))
	assert.Error(t, err)
}

func TestReadAnnotations(t *testing.T) {
	ann, err := ReadAnnotations(strings.NewReader(annotations))
	require.NoError(t, err)
	assert.Equal(t, "Ubiquitin ligase", ann["ENOG001"])
	assert.Equal(t, "Ribosomal protein", ann["ENOG003"], "first annotation wins")

	_, err = ReadAnnotations(strings.NewReader("33208\tENOG001\n"))
	assert.Error(t, err)
}

func TestTable(t *testing.T) {
	families := []Family{
		{ID: "ENOG001", Members: map[string][]string{"HS": {"a", "b"}, "DM": {"c"}}, Annotation: "x"},
		{ID: "ENOG002", Members: map[string][]string{}},
	}
	tbl, err := Table(families)
	require.NoError(t, err)
	assert.Equal(t, []string{"id_eggnog", "id_string_HS", "id_string_MM", "id_string_DM", "annotation"}, tbl.Header())

	var buf bytes.Buffer
	require.NoError(t, tbl.Encode(&buf))
	assert.Equal(t,
		"id_eggnog,id_string_HS,id_string_MM,id_string_DM,annotation\n"+
			"ENOG001,\"a,b\",,c,x\n"+
			"ENOG002,,,,\n",
		buf.String())
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
		return p
	}

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, err := zw.Write([]byte(members))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	cfg := Config{
		Sources: []Source{
			{Species: "HS", Path: write("HS.csv", "id_gene,id_string\nENSG1,9606.ENSP1\nENSG2,\n")},
			{Species: "MM", Path: write("MM.csv", "id_gene,id_string\nENSMUSG1,10090.ENSMUSP1\n")},
			{Species: "DM", Path: write("DM.csv", "id_gene,id_string\nFBgn1,7227.FBpp1\nFBgn2,7227.FBpp2\n")},
		},
		Members:     write("members.tsv.gz", gz.String()),
		Annotations: write("annotations.tsv", annotations),
		Output:      filepath.Join(dir, "results", "meta.csv"),
	}

	n, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := os.ReadFile(cfg.Output)
	require.NoError(t, err)
	assert.Equal(t,
		"id_eggnog,id_string_HS,id_string_MM,id_string_DM,annotation\n"+
			"ENOG001,9606.ENSP1,10090.ENSMUSP1,,Ubiquitin ligase\n"+
			"ENOG003,,,\"7227.FBpp1,7227.FBpp2\",Ribosomal protein\n",
		string(data))
}

func TestRun_MissingInput(t *testing.T) {
	cfg := Config{Sources: []Source{{Species: "HS", Path: filepath.Join(t.TempDir(), "nope.csv")}}}
	_, err := Run(context.Background(), cfg, nil)
	assert.Error(t, err)
}
