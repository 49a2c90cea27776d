package table

import (
	"fmt"
	"math"
)

// Op is a numeric comparison operator.
type Op string

// Comparison operators.
const (
	LE Op = "<="
	GE Op = ">="
	LT Op = "<"
	GT Op = ">"
	EQ Op = "=="
)

// Predicate is a boolean condition over the columns of one row.
type Predicate interface {
	// Columns lists the columns the predicate reads.
	Columns() []string
	// Match evaluates the predicate on row i.
	Match(t *Table, i int) bool
}

// Compare tests a numeric column against a constant. With Abs set the
// absolute value of the cell is compared. A NaN cell never matches.
type Compare struct {
	Column string
	Op     Op
	Value  float64
	Abs    bool
}

func (c Compare) Columns() []string { return []string{c.Column} }

func (c Compare) Match(t *Table, i int) bool {
	v := t.Float(i, c.Column)
	if math.IsNaN(v) {
		return false
	}
	if c.Abs {
		v = math.Abs(v)
	}
	switch c.Op {
	case LE:
		return v <= c.Value
	case GE:
		return v >= c.Value
	case LT:
		return v < c.Value
	case GT:
		return v > c.Value
	case EQ:
		return v == c.Value
	}
	return false
}

func (c Compare) String() string {
	if c.Abs {
		return fmt.Sprintf("|%s| %s %g", c.Column, c.Op, c.Value)
	}
	return fmt.Sprintf("%s %s %g", c.Column, c.Op, c.Value)
}

// Equal tests a column for an exact text value.
type Equal struct {
	Column string
	Value  string
}

func (e Equal) Columns() []string { return []string{e.Column} }

func (e Equal) Match(t *Table, i int) bool { return t.Get(i, e.Column) == e.Value }

// IsTrue matches rows whose column holds a true flag.
type IsTrue struct {
	Column string
}

func (b IsTrue) Columns() []string { return []string{b.Column} }

func (b IsTrue) Match(t *Table, i int) bool { return t.Bool(i, b.Column) }

// And is the conjunction of its predicates. An empty And matches every row.
type And []Predicate

func (a And) Columns() []string {
	var cols []string
	for _, p := range a {
		cols = append(cols, p.Columns()...)
	}
	return cols
}

func (a And) Match(t *Table, i int) bool {
	for _, p := range a {
		if !p.Match(t, i) {
			return false
		}
	}
	return true
}

// Filter returns the rows of t matching pred, keeping the column set and
// row order. An empty result is not an error.
func Filter(t *Table, pred Predicate) (*Table, error) {
	if err := t.Require(pred.Columns()...); err != nil {
		return nil, err
	}
	return t.keep(func(i int) bool { return pred.Match(t, i) }), nil
}

// Exclude returns the rows of t whose identifier appears in none of others.
func Exclude(t *Table, others ...*Table) *Table {
	seen := make(map[string]struct{})
	for _, o := range others {
		for _, r := range o.rows {
			seen[r[0]] = struct{}{}
		}
	}
	return t.keep(func(i int) bool {
		_, ok := seen[t.ID(i)]
		return !ok
	})
}
