package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meiosis-lab/dgecmp/internal/dge"
)

func newSelectCmd(a *app) *cobra.Command {
	var species string

	cmd := &cobra.Command{
		Use:   "select",
		Short: "Write pooled gene lists filtered by expression level",
		Long: `Filter each configured selection input by logCPM >= thresholds.min_log_cpm
and write the kept rows, unchanged, to the selection output.`,
		Example: `  dgecmp select
  dgecmp select --species DM`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.load()
			if err != nil {
				return err
			}

			s := dge.NewSelector(cfg.Thresholds)
			s.SetLogger(a.logger)
			for _, sel := range cfg.Selections {
				if species != "" && sel.Species != species {
					continue
				}
				n, err := s.Select(sel)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "%s\t%s\t%d\t%s\n", sel.Species, sel.Name, n, sel.Output)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&species, "species", "", "only run selections of this species")
	return cmd
}
