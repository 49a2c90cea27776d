package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meiosis-lab/dgecmp/internal/dge"
	"github.com/meiosis-lab/dgecmp/internal/duckdb"
	"github.com/meiosis-lab/dgecmp/internal/table"
)

func newStatsCmd(a *app) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print gene and regulation counts per comparison",
		Long: `Partition every configured comparison into Up, Not and Down genes and
print Markdown summary tables. With --db (or database.path) every
partitioned gene is also stored in a DuckDB database.`,
		Example: `  dgecmp stats
  dgecmp stats --db results/dge.duckdb`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.load()
			if err != nil {
				return err
			}
			if dbPath == "" {
				dbPath = cfg.Database.Path
			}

			tables, err := dge.LoadTables(cmd.Context(), dge.Inputs(cfg.Comparisons), table.ReadOptions{})
			if err != nil {
				return err
			}
			s, err := dge.Summarize(tables, cfg.Comparisons, cfg.Thresholds)
			if err != nil {
				return err
			}
			if err := s.WriteMarkdown(a.stdout); err != nil {
				return err
			}

			if dbPath != "" {
				return storeSummary(cmd.Context(), a.logger, dbPath, cfg.Thresholds, s)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "store partitioned genes in this DuckDB file")
	return cmd
}

// storeSummary replaces the stored genes of every summarised comparison
// and records the fingerprints of their inputs.
func storeSummary(ctx context.Context, logger *zap.Logger, path string, th dge.Thresholds, s dge.Summary) error {
	store, err := duckdb.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	for i, c := range s.Comparisons {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := store.ClearComparison(c.Species, c.Name); err != nil {
			return err
		}
		results := duckdb.PartitionResults(c, th, s.Partitions[i])
		if err := store.WriteGenes(results); err != nil {
			return err
		}
		logger.Debug("stored comparison", zap.Stringer("comparison", c), zap.Int("genes", len(results)))
	}

	for _, p := range dge.Inputs(s.Comparisons) {
		fp, err := duckdb.StatFile(p)
		if err != nil {
			return err
		}
		changed, err := store.SourceChanged(fp)
		if err != nil {
			return err
		}
		if changed {
			logger.Info("input changed since last store", zap.String("path", p))
		}
		if err := store.RecordSource(fp); err != nil {
			return err
		}
	}

	logger.Info("stored genes", zap.String("db", store.Path()), zap.Int("comparisons", len(s.Comparisons)))
	return nil
}
