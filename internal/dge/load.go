package dge

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/meiosis-lab/dgecmp/internal/table"
)

// LoadTables reads each distinct path once. Files are read concurrently;
// the first error cancels the remaining reads.
func LoadTables(ctx context.Context, paths []string, opts table.ReadOptions) (map[string]*table.Table, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	var mu sync.Mutex
	tables := make(map[string]*table.Table, len(paths))
	seen := make(map[string]bool, len(paths))

	for _, p := range paths {
		if seen[p] {
			continue
		}
		seen[p] = true

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := table.Read(p, opts)
			if err != nil {
				return err
			}
			mu.Lock()
			tables[p] = t
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tables, nil
}

// Inputs returns the input paths of comparisons in order.
func Inputs(comparisons []Comparison) []string {
	paths := make([]string, len(comparisons))
	for i, c := range comparisons {
		paths[i] = c.Input
	}
	return paths
}
