package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/robert-at-pretension-io/svbench/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [file]",
	Short: "Create a starter bench description (default svbench.yaml)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing file without asking")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := "svbench.yaml"
	if len(args) == 1 {
		path = args[0]
	}
	out := cmd.OutOrStdout()

	if _, err := os.Stat(path); err == nil && !initForce {
		fmt.Fprintf(out, "Config file %s already exists. Overwrite? [y/N]: ", path)
		var response string
		_, _ = fmt.Fscanln(cmd.InOrStdin(), &response)
		if response != "y" && response != "Y" {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	cfg := config.DefaultConfig()
	cfg.FinishAfter = 1000
	cfg.Iterators = []config.IteratorConfig{{Name: "i", Width: 4, Start: "0"}}
	cfg.Sequences = []config.SequenceConfig{{
		Name:      "stimulus",
		Width:     8,
		Iterator:  "i",
		Length:    16,
		Generator: &config.GeneratorConfig{Kind: "random", Seed: 1},
	}}
	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("creating config: %w", err)
	}
	logger.Debug("config written", zap.String("path", path))

	fmt.Fprintf(out, "Created %s\n", path)
	fmt.Fprintln(out, "\nEdit this file to configure:")
	fmt.Fprintln(out, "  - Clocks, iterators and signals")
	fmt.Fprintln(out, "  - Test-vector sequences and their generators")
	fmt.Fprintln(out, "  - Lint rule severities")
	return nil
}
