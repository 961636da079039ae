package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/robert-at-pretension-io/svbench/internal/bench"
	"github.com/robert-at-pretension-io/svbench/internal/facts"
)

var (
	factsOutput    string
	factsDeltaFrom string
	factsDeltaOut  string
	factsBenches   []string
)

var factsCmd = &cobra.Command{
	Use:   "facts [path...]",
	Short: "Print the fact tables the linter evaluates",
	Long: `Prints the relational fact tables of every bench as JSON.

With --delta-from, the rows added and removed since a previous snapshot are
written to --delta-out.`,
	RunE: runFacts,
}

func init() {
	factsCmd.Flags().StringVarP(&factsOutput, "output", "o", "", "write facts JSON to file (default: stdout)")
	factsCmd.Flags().StringVar(&factsDeltaFrom, "delta-from", "", "previous facts JSON to compute delta from")
	factsCmd.Flags().StringVar(&factsDeltaOut, "delta-out", "", "write delta JSON to file (requires --delta-from)")
	factsCmd.Flags().StringSliceVar(&factsBenches, "bench", nil, "only include these benches")
}

func runFacts(cmd *cobra.Command, args []string) error {
	if (factsDeltaFrom == "") != (factsDeltaOut == "") {
		return fmt.Errorf("--delta-from and --delta-out must be used together")
	}

	targets, err := resolveTargets(args)
	if err != nil {
		return err
	}

	b, err := bench.New(commandContext(cmd), bench.Options{Logger: logger})
	if err != nil {
		return err
	}
	defer b.Close()

	var all []facts.Tables
	for _, t := range targets {
		cfg, err := t.load(b)
		if err != nil {
			return err
		}
		tables, err := b.Facts(t.Name, cfg)
		if err != nil {
			return err
		}
		all = append(all, tables)
	}

	tables := facts.Merge(all...)
	if len(factsBenches) > 0 {
		keep := make(map[string]bool, len(factsBenches))
		for _, name := range factsBenches {
			keep[name] = true
		}
		tables = facts.FilterTablesByBench(tables, keep)
	}

	if factsOutput != "" {
		if err := writeJSON(factsOutput, tables); err != nil {
			return fmt.Errorf("writing facts: %w", err)
		}
	} else {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(tables); err != nil {
			return fmt.Errorf("encoding facts: %w", err)
		}
	}

	if factsDeltaFrom != "" {
		prev, err := readTables(factsDeltaFrom)
		if err != nil {
			return fmt.Errorf("reading delta-from: %w", err)
		}
		delta := facts.ComputeDelta(prev, tables)
		if err := writeJSON(factsDeltaOut, delta); err != nil {
			return fmt.Errorf("writing delta: %w", err)
		}
	}
	return nil
}

func readTables(path string) (facts.Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return facts.Tables{}, err
	}
	defer func() { _ = f.Close() }()

	var tables facts.Tables
	if err := json.NewDecoder(f).Decode(&tables); err != nil {
		return facts.Tables{}, err
	}
	return tables, nil
}

func writeJSON(path string, data interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
