package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/robert-at-pretension-io/svbench/internal/bench"
	"github.com/robert-at-pretension-io/svbench/internal/config"
)

// benchTarget is a bench to process: a description file, or a config found
// through the lookup order when Path is empty.
type benchTarget struct {
	Name string
	Path string
	cfg  *config.Config
}

// load returns the validated description of the target.
func (t benchTarget) load(b *bench.Builder) (*config.Config, error) {
	if t.Path != "" {
		return b.LoadFile(t.Path)
	}
	if err := b.Validate(t.Name, t.cfg); err != nil {
		return nil, err
	}
	return t.cfg, nil
}

// resolveTargets maps command arguments to benches. --config wins; a file
// argument is a description; a directory yields its *.bench.* files, or
// the config found by config.Load when it has none.
func resolveTargets(args []string) ([]benchTarget, error) {
	if configPath != "" {
		return []benchTarget{{Name: bench.Name(configPath), Path: configPath}}, nil
	}
	if len(args) == 0 {
		args = []string{"."}
	}

	var targets []benchTarget
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("bench path: %w", err)
		}
		if !info.IsDir() {
			targets = append(targets, benchTarget{Name: bench.Name(arg), Path: arg})
			continue
		}

		files, err := config.FindBenchFiles(arg, config.DefaultBenchPatterns)
		if err != nil {
			return nil, fmt.Errorf("finding bench files in %s: %w", arg, err)
		}
		if len(files) > 0 {
			for _, f := range files {
				targets = append(targets, benchTarget{Name: bench.Name(f), Path: f})
			}
			logger.Debug("bench files found", zap.String("dir", arg), zap.Int("count", len(files)))
			continue
		}

		cfg, err := config.Load(arg)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		targets = append(targets, benchTarget{Name: cfg.Module, cfg: cfg})
	}
	return targets, nil
}
