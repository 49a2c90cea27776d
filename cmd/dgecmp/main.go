// Package main provides the dgecmp command-line tool.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/meiosis-lab/dgecmp/internal/config"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// usageError marks errors caused by bad arguments or flags.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// usageArgs wraps an argument validator so its errors exit with ExitUsage.
func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return &usageError{err}
		}
		return nil
	}
}

// app is the state shared by the subcommands of one invocation.
type app struct {
	v       *viper.Viper
	logger  *zap.Logger
	stdout  io.Writer
	stderr  io.Writer
	cfgFile string
	verbose bool
}

// load resolves the configuration.
func (a *app) load() (config.Config, error) {
	return config.Load(a.v)
}

func run(args []string, stdout, stderr io.Writer) int {
	a := &app{v: viper.New(), logger: zap.NewNop(), stdout: stdout, stderr: stderr}
	root := newRootCmd(a)
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	a.logger.Sync()
	if err == nil {
		return ExitSuccess
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	var ue *usageError
	if errors.As(err, &ue) {
		fmt.Fprintf(stderr, "Run 'dgecmp --help' for usage.\n")
		return ExitUsage
	}
	if errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(stderr, "Hint: Check that the file path is correct, or run from the project directory\n")
	}
	return ExitError
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dgecmp",
		Short: "Compare differential gene expression across species",
		Long: `dgecmp selects differentially expressed genes from DGE tables, summarises
them per species and comparison, and draws the cross-species figures.`,
		Example: `  dgecmp select                       # write pooled gene lists
  dgecmp stats --db results/dge.duckdb # print summary tables and store genes
  dgecmp plot proximity --cell-type spermatocyte`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		Args:          usageArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.logger = newLogger(a.stderr, a.verbose)
			return config.Init(a.v, a.cfgFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Help()
			return &usageError{errors.New("a command is required")}
		},
	}

	cmd.SetVersionTemplate("dgecmp version {{.Version}}\n")
	cmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default ./dgecmp.yaml or ~/.dgecmp.yaml)")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug messages")
	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err}
	})

	cmd.AddCommand(newSelectCmd(a))
	cmd.AddCommand(newStatsCmd(a))
	cmd.AddCommand(newMetaGenesCmd(a))
	cmd.AddCommand(newDownloadCmd(a))
	cmd.AddCommand(newPlotCmd(a))
	cmd.AddCommand(newDBCmd(a))
	cmd.AddCommand(newConfigCmd(a))
	cmd.AddCommand(newVersionCmd(a))

	return cmd
}

// newLogger writes human-readable log lines to w.
func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), level)
	return zap.New(core)
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(a.stdout, "dgecmp version %s (%s) built %s\n", version, commit, date)
			return nil
		},
	}
}
