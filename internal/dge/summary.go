package dge

import (
	"fmt"
	"io"

	"github.com/meiosis-lab/dgecmp/internal/report"
	"github.com/meiosis-lab/dgecmp/internal/table"
)

// GeneCount is the number of genes in one comparison's scope.
type GeneCount struct {
	Species       string
	Comparison    string
	Genes         int
	ProteinCoding int
}

// Fraction is ProteinCoding / Genes.
func (g GeneCount) Fraction() float64 {
	return float64(g.ProteinCoding) / float64(g.Genes)
}

// CountGenes counts the genes, and the protein-coding genes, in scope.
func CountGenes(c Comparison, scope *table.Table) (GeneCount, error) {
	pc, err := scope.CountEqual(ColBiotype, BiotypeProteinCoding)
	if err != nil {
		return GeneCount{}, err
	}
	return GeneCount{
		Species:       c.Species,
		Comparison:    c.Name,
		Genes:         scope.Len(),
		ProteinCoding: pc,
	}, nil
}

// RegulationCount is one row of a comparison's regulation summary.
type RegulationCount struct {
	Species       string
	Comparison    string
	Regulation    Regulation
	MaxFDR        float64
	Genes         int
	FractionGenes float64 // Genes over the comparison's total
	ProteinCoding int
}

// FractionProteinCoding is ProteinCoding / Genes.
func (r RegulationCount) FractionProteinCoding() float64 {
	return float64(r.ProteinCoding) / float64(r.Genes)
}

// CountRegulation summarises a partition as Up, Not and Down rows.
func CountRegulation(c Comparison, th Thresholds, p Partition) ([]RegulationCount, error) {
	rows := make([]RegulationCount, 0, len(Regulations))
	total := 0
	for _, r := range Regulations {
		set := p.Get(r)
		pc, err := set.CountEqual(ColBiotype, BiotypeProteinCoding)
		if err != nil {
			return nil, fmt.Errorf("count %s %s: %w", c, r, err)
		}
		rows = append(rows, RegulationCount{
			Species:       c.Species,
			Comparison:    c.Name,
			Regulation:    r,
			MaxFDR:        th.MaxFDR,
			Genes:         set.Len(),
			ProteinCoding: pc,
		})
		total += set.Len()
	}
	for i := range rows {
		rows[i].FractionGenes = float64(rows[i].Genes) / float64(total)
	}
	return rows, nil
}

// GeneCountReport renders gene counts as a report table.
func GeneCountReport(counts []GeneCount) report.Table {
	rt := report.Table{
		Header: []string{"Species", "Cell", "Genes", "Prot. Coding", "%"},
		Align:  []report.Align{report.Left, report.Left, report.Right, report.Right, report.Right},
	}
	for _, g := range counts {
		rt.Rows = append(rt.Rows, []string{
			g.Species,
			g.Comparison,
			fmt.Sprintf("%d", g.Genes),
			fmt.Sprintf("%d", g.ProteinCoding),
			fmt.Sprintf("%.4f", g.Fraction()),
		})
	}
	return rt
}

// RegulationReport renders one comparison's regulation summary.
func RegulationReport(rows []RegulationCount) report.Table {
	rt := report.Table{
		Header: []string{"Specie", "Cell", "Reg.", "FDR", "Genes", "%(G)", "Prot. Coding", "%(PC)"},
		Align: []report.Align{report.Left, report.Left, report.Left, report.Right,
			report.Right, report.Right, report.Right, report.Right},
	}
	for _, r := range rows {
		rt.Rows = append(rt.Rows, []string{
			r.Species,
			r.Comparison,
			string(r.Regulation),
			fmt.Sprintf("%.2f", r.MaxFDR),
			fmt.Sprintf("%d", r.Genes),
			fmt.Sprintf("%.4f", r.FractionGenes),
			fmt.Sprintf("%d", r.ProteinCoding),
			fmt.Sprintf("%.4f", r.FractionProteinCoding()),
		})
	}
	return rt
}

// Summary holds the gene and regulation counts of a set of comparisons,
// in comparison order.
type Summary struct {
	Comparisons []Comparison
	Partitions  []Partition
	Genes       []GeneCount
	Regulation  [][]RegulationCount
}

// Summarize partitions every comparison using the tables loaded for its
// input path.
func Summarize(tables map[string]*table.Table, comparisons []Comparison, th Thresholds) (Summary, error) {
	var s Summary
	for _, c := range comparisons {
		t, ok := tables[c.Input]
		if !ok {
			return Summary{}, fmt.Errorf("summarize %s: no table loaded for %s", c, c.Input)
		}
		p, err := Split(t, c, th)
		if err != nil {
			return Summary{}, err
		}
		gc, err := CountGenes(c, p.Scope)
		if err != nil {
			return Summary{}, fmt.Errorf("count %s: %w", c, err)
		}
		rc, err := CountRegulation(c, th, p)
		if err != nil {
			return Summary{}, err
		}
		s.Comparisons = append(s.Comparisons, c)
		s.Partitions = append(s.Partitions, p)
		s.Genes = append(s.Genes, gc)
		s.Regulation = append(s.Regulation, rc)
	}
	return s, nil
}

// WriteMarkdown writes the gene count table followed by one regulation
// table per comparison.
func (s Summary) WriteMarkdown(w io.Writer) error {
	mw := report.NewMarkdownWriter(w)
	if err := mw.Heading("Number of genes"); err != nil {
		return err
	}
	if err := mw.Write(GeneCountReport(s.Genes)); err != nil {
		return err
	}
	if err := mw.Heading("Number of genes differently expressed"); err != nil {
		return err
	}
	for _, rows := range s.Regulation {
		if err := mw.Write(RegulationReport(rows)); err != nil {
			return err
		}
	}
	return mw.Flush()
}
