// Package config resolves the process configuration from defaults, a YAML
// file and DGECMP_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/meiosis-lab/dgecmp/internal/dge"
	"github.com/meiosis-lab/dgecmp/internal/meta"
	"github.com/meiosis-lab/dgecmp/internal/proximity"
	"github.com/meiosis-lab/dgecmp/internal/screen"
)

// FileName is looked up in the working directory, and as a dotfile in the
// home directory.
const (
	FileName  = "dgecmp.yaml"
	EnvPrefix = "DGECMP"
)

// Database configures the optional result store.
type Database struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// Config is the fully resolved configuration passed to every command.
type Config struct {
	Thresholds  dge.Thresholds   `mapstructure:"thresholds" yaml:"thresholds"`
	Selections  []dge.Selection  `mapstructure:"selections" yaml:"selections"`
	Comparisons []dge.Comparison `mapstructure:"comparisons" yaml:"comparisons"`
	Meta        meta.Config      `mapstructure:"meta" yaml:"meta"`
	Screen      screen.Paths     `mapstructure:"screen" yaml:"screen"`
	Proximity   proximity.Config `mapstructure:"proximity" yaml:"proximity"`
	Database    Database         `mapstructure:"database" yaml:"database"`
}

func comparison(species, name, input, sel, key string) dge.Comparison {
	return dge.Comparison{
		Species:          species,
		Name:             name,
		Input:            input,
		SelectColumn:     sel,
		FoldChangeColumn: "logFC_" + key,
		FDRColumn:        "FDR_" + key,
	}
}

// Default returns the configuration of the meiosis project layout.
func Default() Config {
	return Config{
		Thresholds: dge.DefaultThresholds(),
		Selections: []dge.Selection{
			{
				Species: "DM",
				Name:    "Middle vs Apical",
				Input:   "results/DGE/DM/DM-DGE_Middle_vs_Apical.csv",
				Output:  "results/DE-pooling/DM/DM_DE_UpMiddle_vs_Apical.csv",
			},
			{
				Species: "DM",
				Name:    "Middle vs Basal",
				Input:   "results/DGE/DM/DM-DGE_Middle_vs_Basal.csv",
				Output:  "results/DE-pooling/DM/DM_DE_DownMiddle_vs_Basal.csv",
			},
		},
		Comparisons: []dge.Comparison{
			comparison("HS", "Cyte vs Gonia", "results/HS-DE_genes.csv", "Cyte_vs_Gonia", "CyteGonia"),
			comparison("HS", "Cyte vs Tid", "results/HS-DE_genes.csv", "Cyte_vs_Tid", "CyteTid"),
			comparison("MM", "Cyte vs Gonia", "results/MM-DE_genes.csv", "", "CyteGonia"),
			comparison("MM", "Cyte vs Tid", "results/MM-DE_genes.csv", "", "CyteTid"),
			comparison("DM", "Middle vs Apical", "results/DM-DE_genes.csv", "", "MiddleApical"),
			comparison("DM", "Middle vs Basal", "results/DM-DE_genes.csv", "", "MiddleBasal"),
		},
		Meta: meta.Config{
			Sources: []meta.Source{
				{Species: "HS", Path: "results/HS-DE_genes.csv"},
				{Species: "MM", Path: "results/MM-DE_genes.csv"},
				{Species: "DM", Path: "results/DM-DE_genes.csv"},
			},
			Members:     "../eggnog/33208_members.tsv.gz",
			Annotations: "../eggnog/33208_annotations.tsv",
			Output:      "results/meta_meiotic_genes.csv",
			BaseURL:     meta.DefaultBaseURL,
			Taxon:       meta.DefaultTaxon,
		},
		Screen: screen.Paths{
			Genes:    "../02-core_genes/results/pipeline-core/DM_meiotic_genes.csv",
			Screened: "data/core_DM_screened_2020-10-21.csv",
			Controls: "data/screened_DM_controls.csv",
			FPKM:     "../02-core_genes/results/FPKM/DM/DM-FPKM-spermatocyte.csv.gz",
			Output:   "images/img-linreg-FPKM-fertrate.pdf",
		},
		Proximity: proximity.DefaultConfig(),
	}
}

// SetDefaults registers the scalar defaults with v so that they can be
// read with Get and overridden from the environment.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("thresholds.max_fdr", d.Thresholds.MaxFDR)
	v.SetDefault("thresholds.min_log_fc", d.Thresholds.MinLogFC)
	v.SetDefault("thresholds.min_log_cpm", d.Thresholds.MinLogCPM)

	v.SetDefault("meta.members", d.Meta.Members)
	v.SetDefault("meta.annotations", d.Meta.Annotations)
	v.SetDefault("meta.output", d.Meta.Output)
	v.SetDefault("meta.base_url", d.Meta.BaseURL)
	v.SetDefault("meta.taxon", d.Meta.Taxon)

	v.SetDefault("screen.genes", d.Screen.Genes)
	v.SetDefault("screen.screened", d.Screen.Screened)
	v.SetDefault("screen.controls", d.Screen.Controls)
	v.SetDefault("screen.fpkm", d.Screen.FPKM)
	v.SetDefault("screen.output", d.Screen.Output)

	v.SetDefault("proximity.network", d.Proximity.Network)
	v.SetDefault("proximity.threshold", d.Proximity.Threshold)
	v.SetDefault("proximity.max_module", d.Proximity.MaxModule)
	v.SetDefault("proximity.input_dir", d.Proximity.InputDir)
	v.SetDefault("proximity.output_dir", d.Proximity.OutputDir)

	v.SetDefault("database.path", d.Database.Path)
}

// Init prepares v: defaults, environment binding and the config file.
// An explicit path must exist; otherwise ./dgecmp.yaml and then
// ~/.dgecmp.yaml are used when present.
func Init(v *viper.Viper, path string) error {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = findFile()
	}
	if path == "" {
		return nil
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

// DefaultFile is the file written by "config set" when no config file
// was read.
func DefaultFile() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, "."+FileName), nil
}

func findFile() string {
	if _, err := os.Stat(FileName); err == nil {
		return FileName
	}
	if p, err := DefaultFile(); err == nil {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Load decodes v over the defaults. Lists present in v replace the
// default lists instead of merging with them.
func Load(v *viper.Viper) (Config, error) {
	cfg := Default()
	if v.IsSet("selections") {
		cfg.Selections = nil
	}
	if v.IsSet("comparisons") {
		cfg.Comparisons = nil
	}
	if v.IsSet("meta.sources") {
		cfg.Meta.Sources = nil
	}
	if v.IsSet("proximity.cell_types") {
		cfg.Proximity.CellTypes = nil
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the thresholds and the comparison definitions.
func (c Config) Validate() error {
	var errs []error
	if c.Thresholds.MaxFDR < 0 || c.Thresholds.MaxFDR > 1 {
		errs = append(errs, fmt.Errorf("thresholds.max_fdr %g outside [0, 1]", c.Thresholds.MaxFDR))
	}
	if c.Thresholds.MinLogFC < 0 {
		errs = append(errs, fmt.Errorf("thresholds.min_log_fc %g is negative", c.Thresholds.MinLogFC))
	}
	for i, cmp := range c.Comparisons {
		if cmp.Input == "" || cmp.FoldChangeColumn == "" || cmp.FDRColumn == "" {
			errs = append(errs, fmt.Errorf("comparisons[%d] (%s): input, fold_change_column and fdr_column are required", i, cmp))
		}
	}
	for i, s := range c.Selections {
		if s.Input == "" || s.Output == "" {
			errs = append(errs, fmt.Errorf("selections[%d] (%s %s): input and output are required", i, s.Species, s.Name))
		}
	}
	return errors.Join(errs...)
}
