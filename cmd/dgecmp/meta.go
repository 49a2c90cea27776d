package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meiosis-lab/dgecmp/internal/meta"
)

func newMetaGenesCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "meta-genes",
		Short: "Match eggNOG orthologous groups against the species gene tables",
		Long: `Keep the eggNOG families with at least one HS, MM or DM member among the
id_string values of the species DE gene tables, and write the matching
members per species with the family annotation.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.load()
			if err != nil {
				return err
			}
			mc := cfg.Meta
			if output != "" {
				mc.Output = output
			}

			n, err := meta.Run(cmd.Context(), mc, a.logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%d families written to %s\n", n, mc.Output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output CSV (default meta.output)")
	return cmd
}

func newDownloadCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the eggNOG members and annotations files",
		Long: `Fetch the eggNOG 5.0 members and annotations files of meta.taxon from
meta.base_url to the meta.members and meta.annotations paths. Files that
already exist are kept unless --force is given.`,
		Example: `  dgecmp download
  dgecmp download --force`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.load()
			if err != nil {
				return err
			}
			d := meta.NewDownloader(force)
			d.SetLogger(a.logger)
			if err := d.Fetch(cmd.Context(), cfg.Meta); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "members:     %s\nannotations: %s\n", cfg.Meta.Members, cfg.Meta.Annotations)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "re-download existing files")
	return cmd
}
