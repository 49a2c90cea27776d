// Package table provides an ordered, identifier-keyed table of per-gene
// statistics read from CSV files produced by upstream DGE tools.
package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MissingColumnError is returned when an operation names a column the
// table does not have.
type MissingColumnError struct {
	Column string
	Table  string
}

func (e *MissingColumnError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("missing column %q in %s", e.Column, e.Table)
	}
	return fmt.Sprintf("missing column %q", e.Column)
}

// Table holds rows of string cells. The first header column is the row
// identifier. Cells keep the exact text they were read with until they are
// overwritten, so unchanged cells round-trip byte for byte.
type Table struct {
	Name string // source path or label, used in error messages

	header []string
	rows   [][]string
	cols   map[string]int
}

// New creates an empty table. header[0] names the identifier column.
func New(header ...string) *Table {
	t := &Table{
		header: append([]string(nil), header...),
		cols:   make(map[string]int, len(header)),
	}
	for i, h := range t.header {
		if _, dup := t.cols[h]; !dup {
			t.cols[h] = i
		}
	}
	return t
}

// emptyLike returns an empty table with the same header.
func (t *Table) emptyLike() *Table {
	out := New(t.header...)
	out.Name = t.Name
	return out
}

// Header returns a copy of the header, identifier column first.
func (t *Table) Header() []string {
	return append([]string(nil), t.header...)
}

// IndexName returns the name of the identifier column.
func (t *Table) IndexName() string {
	if len(t.header) == 0 {
		return ""
	}
	return t.header[0]
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// ID returns the identifier of row i.
func (t *Table) ID(i int) string {
	return t.rows[i][0]
}

// IDs returns the identifiers in row order.
func (t *Table) IDs() []string {
	ids := make([]string, len(t.rows))
	for i, r := range t.rows {
		ids[i] = r[0]
	}
	return ids
}

// Has reports whether the table has the named column.
func (t *Table) Has(col string) bool {
	_, ok := t.cols[col]
	return ok
}

// Require returns a MissingColumnError for the first absent column.
func (t *Table) Require(cols ...string) error {
	for _, c := range cols {
		if !t.Has(c) {
			return &MissingColumnError{Column: c, Table: t.Name}
		}
	}
	return nil
}

// Append adds a row. The row must have one cell per header column.
func (t *Table) Append(row []string) error {
	if len(row) != len(t.header) {
		return fmt.Errorf("row has %d fields, header has %d", len(row), len(t.header))
	}
	t.rows = append(t.rows, row)
	return nil
}

// Get returns the raw cell at row i, column col, or "" if col is absent.
func (t *Table) Get(i int, col string) string {
	j, ok := t.cols[col]
	if !ok {
		return ""
	}
	return t.rows[i][j]
}

// Float returns the numeric value of a cell. Missing and unparseable
// cells are NaN.
func (t *Table) Float(i int, col string) float64 {
	return ParseFloat(t.Get(i, col))
}

// Bool reports whether a cell holds a true value ("True", "true" or "1").
func (t *Table) Bool(i int, col string) bool {
	switch strings.TrimSpace(t.Get(i, col)) {
	case "True", "true", "TRUE", "1":
		return true
	}
	return false
}

// Floats returns the numeric values of a column in row order.
func (t *Table) Floats(col string) ([]float64, error) {
	if err := t.Require(col); err != nil {
		return nil, err
	}
	out := make([]float64, len(t.rows))
	for i := range t.rows {
		out[i] = t.Float(i, col)
	}
	return out, nil
}

// Set writes a cell, adding the column (filled with missing values) if the
// table does not have it yet.
func (t *Table) Set(i int, col, value string) {
	j := t.ensureColumn(col)
	t.rows[i][j] = value
}

// SetFloat writes a numeric cell using FormatFloat.
func (t *Table) SetFloat(i int, col string, f float64) {
	t.Set(i, col, FormatFloat(f))
}

// AddColumn appends an empty column if absent.
func (t *Table) AddColumn(col string) {
	t.ensureColumn(col)
}

func (t *Table) ensureColumn(col string) int {
	if j, ok := t.cols[col]; ok {
		return j
	}
	j := len(t.header)
	t.header = append(t.header, col)
	t.cols[col] = j
	for k := range t.rows {
		t.rows[k] = append(t.rows[k], "")
	}
	return j
}

// lookup maps each identifier to its first row.
func (t *Table) lookup() map[string]int {
	idx := make(map[string]int, len(t.rows))
	for i, r := range t.rows {
		if _, ok := idx[r[0]]; !ok {
			idx[r[0]] = i
		}
	}
	return idx
}

// Lookup returns the first row with the given identifier.
func (t *Table) Lookup(id string) (int, bool) {
	for i, r := range t.rows {
		if r[0] == id {
			return i, true
		}
	}
	return 0, false
}

// keep returns a table with the rows for which fn is true, in order.
func (t *Table) keep(fn func(i int) bool) *Table {
	out := t.emptyLike()
	for i, r := range t.rows {
		if fn(i) {
			out.rows = append(out.rows, append([]string(nil), r...))
		}
	}
	return out
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	return t.keep(func(int) bool { return true })
}

// ParseFloat parses a cell. Empty, "NaN", "nan" and unparseable text
// yield NaN; "inf" and "-inf" yield infinities.
func ParseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// FormatFloat formats a value the way the upstream CSV files do: missing
// values are empty, infinities are "inf"/"-inf", integral values keep a
// trailing ".0" and very small or large magnitudes use exponent notation.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ""
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}
