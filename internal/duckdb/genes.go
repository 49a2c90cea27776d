package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"math"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/meiosis-lab/dgecmp/internal/dge"
)

// GeneResult is one gene's regulation in one comparison.
type GeneResult struct {
	Species    string
	Comparison string
	Regulation dge.Regulation
	IDGene     string
	LogFC      float64 // NaN when missing
	FDR        float64 // NaN when missing
	Biotype    string
	MaxFDR     float64
}

// geneKey is the primary key used to deduplicate before writing.
type geneKey struct {
	species, comparison, id string
}

// PartitionResults flattens a partition into gene results, Up first, then
// Not, then Down, each in table order.
func PartitionResults(c dge.Comparison, th dge.Thresholds, p dge.Partition) []GeneResult {
	var results []GeneResult
	for _, r := range dge.Regulations {
		set := p.Get(r)
		for i := 0; i < set.Len(); i++ {
			results = append(results, GeneResult{
				Species:    c.Species,
				Comparison: c.Name,
				Regulation: r,
				IDGene:     set.ID(i),
				LogFC:      set.Float(i, c.FoldChangeColumn),
				FDR:        set.Float(i, c.FDRColumn),
				Biotype:    set.Get(i, dge.ColBiotype),
				MaxFDR:     th.MaxFDR,
			})
		}
	}
	return results
}

// WriteGenes batch-inserts gene results using the Appender API.
// Duplicate (species, comparison, id_gene) entries keep the first.
func (s *Store) WriteGenes(results []GeneResult) error {
	if len(results) == 0 {
		return nil
	}

	seen := make(map[geneKey]bool, len(results))
	deduped := make([]GeneResult, 0, len(results))
	for _, r := range results {
		k := geneKey{r.Species, r.Comparison, r.IDGene}
		if !seen[k] {
			seen[k] = true
			deduped = append(deduped, r)
		}
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "de_genes")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, r := range deduped {
		if err := appender.AppendRow(
			r.Species, r.Comparison, string(r.Regulation), r.IDGene,
			nullable(r.LogFC), nullable(r.FDR), r.Biotype, r.MaxFDR,
		); err != nil {
			return fmt.Errorf("append gene %s: %w", r.IDGene, err)
		}
	}

	return appender.Flush()
}

// nullable maps NaN to SQL NULL.
func nullable(f float64) driver.Value {
	if math.IsNaN(f) {
		return nil
	}
	return f
}

// ClearComparison removes the stored results of one comparison.
func (s *Store) ClearComparison(species, comparison string) error {
	_, err := s.db.Exec("DELETE FROM de_genes WHERE species=? AND comparison=?", species, comparison)
	return err
}

// CountByRegulation counts the stored genes of a comparison per class.
func (s *Store) CountByRegulation(species, comparison string) (map[dge.Regulation]int, error) {
	rows, err := s.db.Query(`SELECT regulation, count(*)
		FROM de_genes
		WHERE species=? AND comparison=?
		GROUP BY regulation`, species, comparison)
	if err != nil {
		return nil, fmt.Errorf("count by regulation: %w", err)
	}
	defer rows.Close()

	counts := make(map[dge.Regulation]int)
	for rows.Next() {
		var reg string
		var n int
		if err := rows.Scan(&reg, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[dge.Regulation(reg)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts: %w", err)
	}
	return counts, nil
}

// LookupGene returns every stored result for a gene identifier.
func (s *Store) LookupGene(id string) ([]GeneResult, error) {
	rows, err := s.db.Query(`SELECT
		species, comparison, regulation, id_gene, log_fc, fdr, biotype, max_fdr
		FROM de_genes
		WHERE id_gene=?
		ORDER BY species, comparison`, id)
	if err != nil {
		return nil, fmt.Errorf("query gene: %w", err)
	}
	defer rows.Close()

	return scanGeneResults(rows)
}

// Genes returns the stored genes of a comparison with the given regulation.
func (s *Store) Genes(species, comparison string, reg dge.Regulation) ([]GeneResult, error) {
	rows, err := s.db.Query(`SELECT
		species, comparison, regulation, id_gene, log_fc, fdr, biotype, max_fdr
		FROM de_genes
		WHERE species=? AND comparison=? AND regulation=?
		ORDER BY id_gene`, species, comparison, string(reg))
	if err != nil {
		return nil, fmt.Errorf("query genes: %w", err)
	}
	defer rows.Close()

	return scanGeneResults(rows)
}

// scanGeneResults scans rows into GeneResult slices.
func scanGeneResults(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]GeneResult, error) {
	var results []GeneResult
	for rows.Next() {
		var r GeneResult
		var reg string
		var logFC, fdr sql.NullFloat64
		var biotype sql.NullString
		if err := rows.Scan(
			&r.Species, &r.Comparison, &reg, &r.IDGene,
			&logFC, &fdr, &biotype, &r.MaxFDR,
		); err != nil {
			return nil, fmt.Errorf("scan gene result: %w", err)
		}
		r.Regulation = dge.Regulation(reg)
		r.LogFC = orNaN(logFC)
		r.FDR = orNaN(fdr)
		r.Biotype = biotype.String
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gene results: %w", err)
	}
	return results, nil
}

func orNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
