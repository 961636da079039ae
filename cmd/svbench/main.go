// =============================================================================
// svbench - SystemVerilog testbench scaffolding
// =============================================================================
//
// Turns a bench description (clocks, iterators, signals, constants and
// test-vector sequences) into a runnable testbench module plus one
// "<name>_tv.mem" file per sequence.
//
// THE PIPELINE:
//   1. The description is loaded from JSON or YAML
//   2. CUE validates it against the bench schema
//   3. Facts are extracted and OPA lints them
//   4. Emitters contribute lines to the block registry
//   5. Sequences are written to .mem files and the registry to .sv
//
// WHEN A BENCH COMES OUT WRONG:
//   Run `svbench check -v` first, then `svbench facts` to see what the
//   linter saw.
// =============================================================================

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

var (
	verbose    bool
	configPath string
	cacheDir   string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "svbench",
	Short: "Generate SystemVerilog testbench scaffolding",
	Long: `svbench generates a testbench module from a bench description.

Bench descriptions are looked up in:
  1. ./svbench.json, ./.svbench.json, ./svbench.yaml, ./svbench.yml
  2. the same names under the given path
  3. ~/.config/svbench/config.json

Directories are also searched for *.bench.json, *.bench.yaml and *.bench.yml.
Run 'svbench init' to create a starter description.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the svbench version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "svbench", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "bench description file (overrides lookup)")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "cache lint results in this directory")

	rootCmd.AddCommand(initCmd, buildCmd, checkCmd, factsCmd, cacheCmd, versionCmd)
}

// commandContext is the command's context, or Background when the command
// was not started through Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
