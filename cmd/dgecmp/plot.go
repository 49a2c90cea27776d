package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meiosis-lab/dgecmp/internal/proximity"
	"github.com/meiosis-lab/dgecmp/internal/screen"
)

func newPlotCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Draw figures as PDF",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Help()
			return &usageError{fmt.Errorf("a figure is required")}
		},
	}

	cmd.AddCommand(newPlotLinRegCmd(a))
	cmd.AddCommand(newPlotProximityCmd(a))
	return cmd
}

func newPlotLinRegCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "linreg",
		Short: "Plot mean fertility rate against expression of screened genes",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.load()
			if err != nil {
				return err
			}
			paths := cfg.Screen
			if output != "" {
				paths.Output = output
			}

			fit, err := screen.Run(paths, a.logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "n=%d alpha=%.4f beta=%.4f R2=%.4f\n", fit.N, fit.Alpha, fit.Beta, fit.RSquared)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output PDF (default screen.output)")
	return cmd
}

func newPlotProximityCmd(a *app) *cobra.Command {
	var cellType string

	cmd := &cobra.Command{
		Use:   "proximity",
		Short: "Plot module proximity heat maps per cell type",
		Example: `  dgecmp plot proximity
  dgecmp plot proximity --cell-type enterocyte`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.load()
			if err != nil {
				return err
			}
			pc := cfg.Proximity
			if cellType != "" {
				pc.CellTypes = []string{cellType}
			}

			outs, err := proximity.PlotAll(pc, a.logger)
			for _, out := range outs {
				fmt.Fprintln(a.stdout, out)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&cellType, "cell-type", "", "only plot this cell type")
	return cmd
}
