package table

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

// ReadOptions controls how a delimited file is turned into a Table.
type ReadOptions struct {
	// Comma is the field delimiter. Defaults to ','.
	Comma rune
	// Index names the identifier column. Defaults to the first column.
	Index string
	// Columns restricts the table to these columns (plus the identifier).
	// Every listed column must be present in the header.
	Columns []string
}

// Open opens a file for reading, transparently decompressing gzip input.
// Compression is detected from the magic bytes, not the file extension.
func Open(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	// Check for gzip magic bytes
	buf := make([]byte, 2)
	n, err := file.Read(buf)
	if err != nil && err != io.EOF {
		file.Close()
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, fmt.Errorf("seek %s: %w", path, err)
	}

	if n == 2 && buf[0] == 0x1f && buf[1] == 0x8b {
		gz, err := gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		return &gzipFile{Reader: gz, file: file}, nil
	}

	return file, nil
}

type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	gzErr := g.Reader.Close()
	if err := g.file.Close(); err != nil {
		return err
	}
	return gzErr
}

// Read loads a delimited file with a header row.
func Read(path string, opts ReadOptions) (*Table, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	t, err := Parse(rc, opts)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	t.Name = path
	return t, nil
}

// Parse reads a delimited table with a header row from r. Rows shorter
// than the header are padded with missing values; a row with more fields
// than the header is an error.
func Parse(r io.Reader, opts ReadOptions) (*Table, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("no header line found")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	pick, err := projection(header, opts)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(pick))
	for i, j := range pick {
		names[i] = header[j]
	}
	t := New(names...)

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", t.Len()+1, err)
		}
		if len(rec) > len(header) {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("line %d: %d fields, header has %d", line, len(rec), len(header))
		}
		row := make([]string, len(pick))
		for i, j := range pick {
			if j < len(rec) {
				row[i] = rec[j]
			}
		}
		t.rows = append(t.rows, row)
	}

	return t, nil
}

// projection returns the source field index for each output column,
// identifier first.
func projection(header []string, opts ReadOptions) ([]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		if _, ok := pos[h]; !ok {
			pos[h] = i
		}
	}

	index := 0
	if opts.Index != "" {
		j, ok := pos[opts.Index]
		if !ok {
			return nil, &MissingColumnError{Column: opts.Index}
		}
		index = j
	}

	pick := []int{index}
	if len(opts.Columns) > 0 {
		for _, c := range opts.Columns {
			j, ok := pos[c]
			if !ok {
				return nil, &MissingColumnError{Column: c}
			}
			if j != index {
				pick = append(pick, j)
			}
		}
		return pick, nil
	}

	for j := range header {
		if j != index {
			pick = append(pick, j)
		}
	}
	return pick, nil
}
