package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/robert-at-pretension-io/svbench/internal/bench"
	"github.com/robert-at-pretension-io/svbench/internal/policy"
)

var (
	buildOutDir     string
	buildTiming     bool
	buildTimingPath string
	checkJSON       bool
)

var buildCmd = &cobra.Command{
	Use:   "build [path...]",
	Short: "Generate the testbench and its test-vector files",
	Long: `Validates and lints each bench, then writes "<module>.sv" and one
"<sequence>_tv.mem" per sequence into the output directory.

A bench with lint errors is not generated.`,
	RunE: runBuild,
}

var checkCmd = &cobra.Command{
	Use:   "check [path...]",
	Short: "Validate and lint benches without writing anything",
	RunE:  runCheck,
}

func init() {
	buildCmd.Flags().StringVarP(&buildOutDir, "out", "o", "", "output directory (default: the bench's outDir)")
	buildCmd.Flags().BoolVar(&buildTiming, "timing", false, "write stage timings as JSONL")
	buildCmd.Flags().StringVar(&buildTimingPath, "timing-path", "", "timing file (default: timing.jsonl in the output directory)")

	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "print violations as JSON")
}

func runBuild(cmd *cobra.Command, args []string) error {
	targets, err := resolveTargets(args)
	if err != nil {
		return err
	}

	b, err := bench.New(commandContext(cmd), bench.Options{
		Logger:     logger,
		OutDir:     buildOutDir,
		Timing:     buildTiming,
		TimingPath: buildTimingPath,
		CacheDir:   cacheDir,
	})
	if err != nil {
		return err
	}
	defer b.Close()

	out := cmd.OutOrStdout()
	failed := 0
	for _, t := range targets {
		cfg, err := t.load(b)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			failed++
			continue
		}
		res, err := b.Build(commandContext(cmd), t.Name, cfg)
		if err != nil {
			var le *bench.LintError
			if errors.As(err, &le) {
				printViolations(out, le.Result)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			failed++
			continue
		}
		printViolations(out, res.Lint)
		fmt.Fprintf(out, "%s: wrote %s (%d test-vector files)\n", t.Name, res.SVPath, len(res.MemFiles))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d bench(es) failed", failed, len(targets))
	}
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	targets, err := resolveTargets(args)
	if err != nil {
		return err
	}

	b, err := bench.New(commandContext(cmd), bench.Options{Logger: logger, CacheDir: cacheDir})
	if err != nil {
		return err
	}
	defer b.Close()

	out := cmd.OutOrStdout()
	var all []policy.Violation
	errorCount := 0
	for _, t := range targets {
		cfg, err := t.load(b)
		if err != nil {
			return err
		}
		res, _, err := b.Check(commandContext(cmd), t.Name, cfg)
		if err != nil {
			return err
		}
		all = append(all, res.Violations...)
		errorCount += res.Summary.Errors
		if !checkJSON {
			printViolations(out, res)
		}
	}

	if checkJSON {
		if all == nil {
			all = []policy.Violation{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(all); err != nil {
			return fmt.Errorf("encoding violations: %w", err)
		}
	} else if len(all) == 0 {
		fmt.Fprintln(out, "No violations.")
	}

	if errorCount > 0 {
		return fmt.Errorf("%d lint error(s)", errorCount)
	}
	return nil
}

func printViolations(w io.Writer, res *policy.Result) {
	if res == nil {
		return
	}
	for _, v := range res.Violations {
		fmt.Fprintf(w, "%s: %s [%s] %s: %s\n", v.Bench, v.Severity, v.Rule, v.Subject, v.Message)
	}
}
