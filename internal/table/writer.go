package table

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Encode writes the table as CSV, identifier column first.
func (t *Table) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	cw := csv.NewWriter(bw)

	if err := cw.Write(t.header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range t.rows {
		if err := cw.Write(r); err != nil {
			return fmt.Errorf("write row %s: %w", r[0], err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return bw.Flush()
}

// Write writes the table to path, creating parent directories as needed.
// Paths ending in ".gz" are gzip-compressed.
func Write(path string, t *Table) error {
	if err := EnsureDir(path); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	var w io.Writer = f
	var gz *gzip.Writer
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz = gzip.NewWriter(f)
		w = gz
	}

	if err := t.Encode(w); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			f.Close()
			return fmt.Errorf("close gzip %s: %w", path, err)
		}
	}
	return f.Close()
}

// EnsureDir creates the parent directory of path.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}
