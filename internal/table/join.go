package table

import (
	"math"

	"github.com/meiosis-lab/dgecmp/internal/stats"
)

// LeftJoin returns a copy of primary with the named columns copied from
// secondary by identifier. Rows are never added or dropped: unmatched
// rows get missing values, and when secondary repeats an identifier its
// first row is used. A column already in primary is overwritten.
func LeftJoin(primary, secondary *Table, cols ...string) (*Table, error) {
	if err := secondary.Require(cols...); err != nil {
		return nil, err
	}

	out := primary.Clone()
	for _, c := range cols {
		out.AddColumn(c)
	}

	idx := secondary.lookup()
	for i := range out.rows {
		j, ok := idx[out.ID(i)]
		for _, c := range cols {
			v := ""
			if ok {
				v = secondary.Get(j, c)
			}
			out.Set(i, c, v)
		}
	}
	return out, nil
}

// Derive sets col on every row to fn(i).
func (t *Table) Derive(col string, fn func(i int) float64) {
	t.AddColumn(col)
	for i := range t.rows {
		t.SetFloat(i, col, fn(i))
	}
}

// Apply sets col to fn applied to the numeric value of src.
func (t *Table) Apply(col, src string, fn func(float64) float64) error {
	if err := t.Require(src); err != nil {
		return err
	}
	t.Derive(col, func(i int) float64 { return fn(t.Float(i, src)) })
	return nil
}

// Ratio sets col to num / den. A zero denominator yields inf or NaN,
// which is written out like any other value.
func (t *Table) Ratio(col, num, den string) error {
	if err := t.Require(num, den); err != nil {
		return err
	}
	t.Derive(col, func(i int) float64 { return t.Float(i, num) / t.Float(i, den) })
	return nil
}

// Sum sets col to the row-wise sum of cols. Any NaN makes the sum NaN.
func (t *Table) Sum(col string, cols ...string) error {
	if err := t.Require(cols...); err != nil {
		return err
	}
	t.Derive(col, func(i int) float64 {
		var s float64
		for _, c := range cols {
			s += t.Float(i, c)
		}
		return s
	})
	return nil
}

// RowMean sets col to the mean of cols, skipping missing values.
func (t *Table) RowMean(col string, cols ...string) error {
	return t.rowStat(col, cols, func(xs []float64) float64 {
		m, _ := stats.MeanStd(xs)
		return m
	})
}

// RowStd sets col to the sample standard deviation of cols, skipping
// missing values.
func (t *Table) RowStd(col string, cols ...string) error {
	return t.rowStat(col, cols, func(xs []float64) float64 {
		_, s := stats.MeanStd(xs)
		return s
	})
}

func (t *Table) rowStat(col string, cols []string, fn func([]float64) float64) error {
	if err := t.Require(cols...); err != nil {
		return err
	}
	xs := make([]float64, len(cols))
	t.Derive(col, func(i int) float64 {
		for k, c := range cols {
			xs[k] = t.Float(i, c)
		}
		return fn(xs)
	})
	return nil
}

// Log2p1 is log2(x + 1).
func Log2p1(x float64) float64 {
	return math.Log2(x + 1)
}

// CountEqual counts the rows whose col equals value. A value that never
// occurs counts as zero.
func (t *Table) CountEqual(col, value string) (int, error) {
	if err := t.Require(col); err != nil {
		return 0, err
	}
	n := 0
	for i := range t.rows {
		if t.Get(i, col) == value {
			n++
		}
	}
	return n, nil
}

// ValueCounts counts the rows per distinct value of col.
func (t *Table) ValueCounts(col string) (map[string]int, error) {
	if err := t.Require(col); err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for i := range t.rows {
		counts[t.Get(i, col)]++
	}
	return counts, nil
}

// Group is the set of rows sharing one value of a column.
type Group struct {
	Key  string
	Rows *Table
}

// GroupBy splits t by the value of col, groups in first-seen order.
func (t *Table) GroupBy(col string) ([]Group, error) {
	if err := t.Require(col); err != nil {
		return nil, err
	}
	var groups []Group
	pos := make(map[string]int)
	for i, r := range t.rows {
		k := t.Get(i, col)
		g, ok := pos[k]
		if !ok {
			g = len(groups)
			pos[k] = g
			groups = append(groups, Group{Key: k, Rows: t.emptyLike()})
		}
		groups[g].Rows.rows = append(groups[g].Rows.rows, append([]string(nil), r...))
	}
	return groups, nil
}
