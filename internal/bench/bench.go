// Package bench runs a bench description through the generator pipeline.
//
//  1. Load the description (JSON or YAML)
//  2. CUE validates it against #Bench
//  3. Facts are built and validated against #FactTables
//  4. OPA lints the facts; errors stop the build
//  5. Emitters contribute to the block registry
//  6. Test-vector files are written and the registry is rendered to .sv
package bench

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/robert-at-pretension-io/svbench/internal/config"
	"github.com/robert-at-pretension-io/svbench/internal/facts"
	"github.com/robert-at-pretension-io/svbench/internal/policy"
	"github.com/robert-at-pretension-io/svbench/internal/render"
	"github.com/robert-at-pretension-io/svbench/internal/validator"
)

// Options configure a Builder.
type Options struct {
	Logger *zap.Logger

	// OutDir overrides the output directory of every bench when set
	OutDir string

	// Timing writes JSONL stage timings to TimingPath, or timing.jsonl
	// under the output directory
	Timing     bool
	TimingPath string

	// CacheDir stores lint results keyed by the bench facts; empty disables
	// the cache
	CacheDir string
}

// Builder owns the schema validators and the policy engine, which are
// costly to prepare and shared across benches.
type Builder struct {
	logger *zap.Logger
	opts   Options
	start  time.Time

	schema *validator.Validator
	facts  *validator.Validator
	engine *policy.Engine
	timing *timingRecorder

	mu      sync.Mutex
	written map[string]string // output path -> bench that wrote it
}

// Output describes one generated bench.
type Output struct {
	Bench    string
	SVPath   string
	MemFiles []string
	Assembly *Assembly
	Tables   facts.Tables
	Lint     *policy.Result
}

// LintError reports a bench whose lint result has errors.
type LintError struct {
	Bench  string
	Result *policy.Result
}

func (e *LintError) Error() string {
	return fmt.Sprintf("bench %s: %d lint error(s)", e.Bench, e.Result.Summary.Errors)
}

// OutputConflictError reports a bench whose output file was already
// written by another bench of the same Builder.
type OutputConflictError struct {
	Path  string
	Bench string
	Other string
}

func (e *OutputConflictError) Error() string {
	return fmt.Sprintf("bench %s: %s was already written by bench %s", e.Bench, e.Path, e.Other)
}

// New prepares a Builder. Close must be called to flush timings.
func New(ctx context.Context, opts Options) (*Builder, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	schema, err := validator.New()
	if err != nil {
		return nil, fmt.Errorf("bench schema: %w", err)
	}
	factsSchema, err := validator.NewFactsValidator()
	if err != nil {
		return nil, fmt.Errorf("facts schema: %w", err)
	}
	engine, err := policy.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("policy: %w", err)
	}

	start := time.Now()
	timing := newTimingRecorder(start, resolveTimingPath(opts.Timing, opts.TimingPath, opts.OutDir))
	if err := timing.Err(); err != nil {
		logger.Warn("timing disabled", zap.Error(err))
	}

	return &Builder{
		logger: logger,
		opts:   opts,
		start:  start,
		schema: schema,
		facts:  factsSchema,
		engine:  engine,
		timing:  timing,
		written: make(map[string]string),
	}, nil
}

// Close records the total stage and closes the timing file.
func (b *Builder) Close() {
	b.timing.RecordStage("total", b.start, time.Since(b.start), "ok")
	b.timing.Close()
}

// Name derives a bench name from a description file path:
// "alu.bench.yaml" and "alu.json" are both "alu".
func Name(path string) string {
	return config.BenchName(path)
}

// LoadFile loads and validates a bench description.
func (b *Builder) LoadFile(path string) (*config.Config, error) {
	name := Name(path)

	done := b.timing.track("load", name)
	cfg, err := config.LoadFile(path)
	done(err)
	if err != nil {
		return nil, err
	}

	if err := b.Validate(name, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cfg against the bench schema.
func (b *Builder) Validate(name string, cfg *config.Config) error {
	done := b.timing.track("validate", name)
	err := b.schema.Validate(cfg)
	done(err)
	if err != nil {
		for _, msg := range b.schema.ValidationErrors(cfg) {
			b.logger.Debug("schema violation", zap.String("bench", name), zap.String("error", msg))
		}
		return fmt.Errorf("bench %s: %w", name, err)
	}
	return nil
}

// Facts returns the tables of a bench. Block rows come from the assembled
// registry when assembly succeeds, and from the description otherwise.
func (b *Builder) Facts(name string, cfg *config.Config) (facts.Tables, error) {
	done := b.timing.track("facts", name)
	tables := facts.FromConfig(name, cfg)
	if asm, err := Assemble(cfg, zap.NewNop()); err == nil {
		tables.Blocks = facts.BlockRows(name, asm.Registry)
	} else {
		b.logger.Debug("facts use declared blocks", zap.String("bench", name), zap.Error(err))
	}
	err := b.facts.Validate(tables)
	done(err)
	if err != nil {
		return facts.Tables{}, fmt.Errorf("bench %s facts: %w", name, err)
	}
	return tables, nil
}

// Check lints a validated bench. Violations are logged; rules are filtered
// and remapped by the bench's lint config.
func (b *Builder) Check(ctx context.Context, name string, cfg *config.Config) (*policy.Result, facts.Tables, error) {
	tables, err := b.Facts(name, cfg)
	if err != nil {
		return nil, facts.Tables{}, err
	}

	raw, err := b.lint(ctx, name, tables)
	if err != nil {
		return nil, facts.Tables{}, fmt.Errorf("bench %s: %w", name, err)
	}

	result := raw.ApplyConfig(cfg)
	for _, v := range result.Violations {
		fields := []zap.Field{
			zap.String("bench", v.Bench),
			zap.String("rule", v.Rule),
			zap.String("subject", v.Subject),
		}
		if v.Severity == "error" {
			b.logger.Error(v.Message, fields...)
		} else {
			b.logger.Warn(v.Message, fields...)
		}
	}
	return result, tables, nil
}

// lint evaluates the policy, serving and refreshing the lint cache when one
// is configured.
func (b *Builder) lint(ctx context.Context, name string, tables facts.Tables) (*policy.Result, error) {
	var hash string
	if b.opts.CacheDir != "" {
		var err error
		hash, err = factsHash(tables, b.engine.Hash())
		if err != nil {
			return nil, err
		}
		entry, err := loadLintCache(b.opts.CacheDir, name)
		if err != nil {
			b.logger.Warn("lint cache unreadable", zap.String("bench", name), zap.Error(err))
		}
		if lintCacheValid(entry, hash) {
			b.logger.Debug("lint cache hit", zap.String("bench", name))
			b.timing.RecordBench("lint", name, "cached", time.Now(), 0)
			return &entry.Result, nil
		}
	}

	done := b.timing.track("lint", name)
	raw, err := b.engine.Evaluate(ctx, tables)
	done(err)
	if err != nil {
		return nil, err
	}

	if hash != "" {
		entry := lintCacheEntry{Version: lintCacheVersion, FactsHash: hash, Result: *raw}
		if err := saveLintCache(b.opts.CacheDir, name, entry); err != nil {
			b.logger.Warn("lint cache not saved", zap.String("bench", name), zap.Error(err))
		}
	}
	return raw, nil
}

// BuildFile loads, checks and generates the bench described by path.
func (b *Builder) BuildFile(ctx context.Context, path string) (*Output, error) {
	cfg, err := b.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return b.Build(ctx, Name(path), cfg)
}

// Build checks cfg and, when it has no lint errors, writes the .mem files
// and "<module>.sv" into the output directory.
func (b *Builder) Build(ctx context.Context, name string, cfg *config.Config) (*Output, error) {
	result, tables, err := b.Check(ctx, name, cfg)
	if err != nil {
		return nil, err
	}
	if result.HasErrors() {
		return nil, &LintError{Bench: name, Result: result}
	}

	done := b.timing.track("assemble", name)
	asm, err := Assemble(cfg, b.logger.With(zap.String("bench", name)))
	done(err)
	if err != nil {
		return nil, fmt.Errorf("bench %s: %w", name, err)
	}

	outDir := cfg.OutDir
	if b.opts.OutDir != "" {
		outDir = b.opts.OutDir
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	paths := []string{filepath.Join(outDir, cfg.Module+".sv")}
	for _, seq := range asm.Sequences {
		paths = append(paths, filepath.Join(outDir, seq.MemFile()))
	}
	release, err := b.claim(name, paths)
	if err != nil {
		return nil, err
	}

	out := &Output{Bench: name, Assembly: asm, Tables: tables, Lint: result}

	done = b.timing.track("materialize", name)
	for _, seq := range asm.Sequences {
		path, err := seq.MaterializeTo(outDir)
		if err != nil {
			done(err)
			release()
			return nil, err
		}
		out.MemFiles = append(out.MemFiles, path)
	}
	done(nil)

	done = b.timing.track("render", name)
	out.SVPath, err = writeSV(outDir, cfg, asm)
	done(err)
	if err != nil {
		release()
		return nil, err
	}

	b.logger.Info("bench generated",
		zap.String("bench", name),
		zap.String("sv", out.SVPath),
		zap.Int("mem_files", len(out.MemFiles)),
		zap.Int("warnings", result.Summary.Warnings))
	return out, nil
}

// claim reserves paths for bench name. A path held by another bench is an
// OutputConflictError; rebuilding the same bench is allowed. The returned
// func drops the reservations this call added.
func (b *Builder) claim(name string, paths []string) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	keys := make([]string, 0, len(paths))
	for _, p := range paths {
		key, err := filepath.Abs(p)
		if err != nil {
			key = filepath.Clean(p)
		}
		if other, ok := b.written[key]; ok && other != name {
			return nil, &OutputConflictError{Path: p, Bench: name, Other: other}
		}
		keys = append(keys, key)
	}

	var added []string
	for _, key := range keys {
		if _, ok := b.written[key]; !ok {
			b.written[key] = name
			added = append(added, key)
		}
	}
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for _, key := range added {
			delete(b.written, key)
		}
	}, nil
}

func writeSV(dir string, cfg *config.Config, asm *Assembly) (string, error) {
	path := filepath.Join(dir, cfg.Module+".sv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	opts := render.Options{Module: cfg.Module, Timescale: cfg.Timescale}
	if err := render.Render(f, asm.Registry, opts); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("rendering %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", path, err)
	}
	return path, nil
}

// IsLintError reports whether err carries a lint result.
func IsLintError(err error) bool {
	var le *LintError
	return errors.As(err, &le)
}
