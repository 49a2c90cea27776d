package meta

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzipBytes(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func eggNOGServer(t *testing.T) *httptest.Server {
	t.Helper()
	files := map[string][]byte{
		"/33208/33208_members.tsv.gz":     gzipBytes(t, members),
		"/33208/33208_annotations.tsv.gz": gzipBytes(t, annotations),
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEggNOGURLs(t *testing.T) {
	m, a := EggNOGURLs("http://example.org/per_tax_level/", "33208")
	assert.Equal(t, "http://example.org/per_tax_level/33208/33208_members.tsv.gz", m)
	assert.Equal(t, "http://example.org/per_tax_level/33208/33208_annotations.tsv.gz", a)
}

func TestFetch(t *testing.T) {
	srv := eggNOGServer(t)
	dir := t.TempDir()
	cfg := Config{
		Members:     filepath.Join(dir, "eggnog", "33208_members.tsv.gz"),
		Annotations: filepath.Join(dir, "eggnog", "33208_annotations.tsv"),
		BaseURL:     srv.URL,
		Taxon:       "33208",
	}

	require.NoError(t, NewDownloader(false).Fetch(context.Background(), cfg))

	// kept compressed
	raw, err := os.ReadFile(cfg.Members)
	require.NoError(t, err)
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	require.NoError(t, err)
	fams, err := NewMatcher(testIDs()).ReadMembers(zr)
	require.NoError(t, err)
	assert.Len(t, fams, 2)

	// decompressed
	raw, err = os.ReadFile(cfg.Annotations)
	require.NoError(t, err)
	assert.Equal(t, annotations, string(raw))

	_, err = os.Stat(cfg.Annotations + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestDownload_SkipsExisting(t *testing.T) {
	srv := eggNOGServer(t)
	dest := filepath.Join(t.TempDir(), "33208_annotations.tsv")
	require.NoError(t, os.WriteFile(dest, []byte("local"), 0644))

	url := srv.URL + "/33208/33208_annotations.tsv.gz"
	n, err := NewDownloader(false).Download(context.Background(), url, dest)
	require.NoError(t, err)
	assert.Zero(t, n)
	raw, _ := os.ReadFile(dest)
	assert.Equal(t, "local", string(raw))

	n, err = NewDownloader(true).Download(context.Background(), url, dest)
	require.NoError(t, err)
	assert.Equal(t, int64(len(annotations)), n)
}

func TestDownload_HTTPError(t *testing.T) {
	srv := eggNOGServer(t)
	dest := filepath.Join(t.TempDir(), "missing.tsv")

	_, err := NewDownloader(false).Download(context.Background(), srv.URL+"/nope.tsv.gz", dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatSize(tt.in))
	}
}
