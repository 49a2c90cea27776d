package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/meiosis-lab/dgecmp/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage dgecmp configuration",
		Long: `Show, get, or set configuration values. Config is read from --config,
./dgecmp.yaml or ~/.dgecmp.yaml; DGECMP_* environment variables override it.`,
		Example: `  dgecmp config                               # show the resolved config
  dgecmp config set thresholds.max_fdr 0.01   # tighten the FDR cutoff
  dgecmp config get thresholds.max_fdr        # get a value`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(a)
		},
	}

	cmd.AddCommand(newConfigSetCmd(a))
	cmd.AddCommand(newConfigGetCmd(a))

	return cmd
}

func newConfigSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(a, args[0], args[1])
		},
	}
}

func newConfigGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(a, args[0])
		},
	}
}

// runConfigShow prints the resolved configuration, defaults included.
func runConfigShow(a *app) error {
	cfg, err := a.load()
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if f := a.v.ConfigFileUsed(); f != "" {
		fmt.Fprintf(a.stdout, "# Config file: %s\n", f)
	}
	fmt.Fprint(a.stdout, string(out))
	return nil
}

func runConfigSet(a *app, key, value string) error {
	// Parse boolean-like values
	switch value {
	case "true", "yes", "on":
		a.v.Set(key, true)
	case "false", "no", "off":
		a.v.Set(key, false)
	default:
		a.v.Set(key, value)
	}

	if _, err := a.load(); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	cfgFile := a.v.ConfigFileUsed()
	if cfgFile == "" {
		var err error
		if cfgFile, err = config.DefaultFile(); err != nil {
			return err
		}
	}

	if err := a.v.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(a.stdout, "Set %s = %s in %s\n", key, value, cfgFile)
	return nil
}

func runConfigGet(a *app, key string) error {
	val := a.v.Get(key)
	if val == nil {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Fprintln(a.stdout, val)
	return nil
}
