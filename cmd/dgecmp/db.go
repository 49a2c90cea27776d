package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meiosis-lab/dgecmp/internal/dge"
	"github.com/meiosis-lab/dgecmp/internal/duckdb"
	"github.com/meiosis-lab/dgecmp/internal/report"
	"github.com/meiosis-lab/dgecmp/internal/table"
)

func newDBCmd(a *app) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "db",
		Short: "Query genes stored by 'dgecmp stats --db'",
		Example: `  dgecmp db --db results/dge.duckdb genes FBgn0000001
  dgecmp db counts DM "Middle vs Apical"
  dgecmp db list DM "Middle vs Apical" up`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Help()
			return &usageError{errors.New("a query is required")}
		},
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "DuckDB file (default database.path)")

	open := func() (*duckdb.Store, error) {
		path := dbPath
		if path == "" {
			cfg, err := a.load()
			if err != nil {
				return nil, err
			}
			path = cfg.Database.Path
		}
		if path == "" {
			return nil, &usageError{errors.New("no database: set --db or database.path")}
		}
		return duckdb.Open(path)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "genes <id_gene>",
		Short: "Show the stored regulation of a gene in every comparison",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()

			results, err := store.LookupGene(args[0])
			if err != nil {
				return err
			}
			if len(results) == 0 {
				return fmt.Errorf("gene %q not found", args[0])
			}
			return writeMarkdown(a, geneReport(results))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "counts <species> <comparison>",
		Short: "Count the stored genes of a comparison per regulation",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()

			counts, err := store.CountByRegulation(args[0], args[1])
			if err != nil {
				return err
			}
			if len(counts) == 0 {
				return fmt.Errorf("no genes stored for %s %s", args[0], args[1])
			}
			return writeMarkdown(a, countReport(args[0], args[1], counts))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list <species> <comparison> <Up|Not|Down>",
		Short: "List the stored genes of one regulation class",
		Args:  usageArgs(cobra.ExactArgs(3)),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := parseRegulation(args[2])
			if err != nil {
				return err
			}
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()

			results, err := store.Genes(args[0], args[1], reg)
			if err != nil {
				return err
			}
			return writeMarkdown(a, geneReport(results))
		},
	})

	return cmd
}

func parseRegulation(s string) (dge.Regulation, error) {
	for _, r := range dge.Regulations {
		if strings.EqualFold(s, string(r)) {
			return r, nil
		}
	}
	return "", &usageError{fmt.Errorf("unknown regulation %q, want Up, Not or Down", s)}
}

func writeMarkdown(a *app, t report.Table) error {
	mw := report.NewMarkdownWriter(a.stdout)
	if err := mw.Write(t); err != nil {
		return err
	}
	return mw.Flush()
}

func geneReport(results []duckdb.GeneResult) report.Table {
	rt := report.Table{
		Header: []string{"Species", "Cell", "Reg.", "id_gene", "logFC", "FDR", "biotype"},
		Align: []report.Align{report.Left, report.Left, report.Left, report.Left,
			report.Right, report.Right, report.Left},
	}
	for _, r := range results {
		rt.Rows = append(rt.Rows, []string{
			r.Species,
			r.Comparison,
			string(r.Regulation),
			r.IDGene,
			table.FormatFloat(r.LogFC),
			table.FormatFloat(r.FDR),
			r.Biotype,
		})
	}
	return rt
}

func countReport(species, comparison string, counts map[dge.Regulation]int) report.Table {
	rt := report.Table{
		Header: []string{"Species", "Cell", "Reg.", "Genes"},
		Align:  []report.Align{report.Left, report.Left, report.Left, report.Right},
	}
	for _, r := range dge.Regulations {
		rt.Rows = append(rt.Rows, []string{species, comparison, string(r), fmt.Sprintf("%d", counts[r])})
	}
	return rt
}
