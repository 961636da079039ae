package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/robert-at-pretension-io/svbench/internal/block"
	"github.com/robert-at-pretension-io/svbench/internal/emit"
)

// Config describes one testbench: its blocks, signals and sequences, plus
// the generator options.
type Config struct {
	// Module is the name of the generated testbench module
	Module string `json:"module" yaml:"module"`

	// Timescale is emitted as `timescale when non-empty, e.g. "1ns / 1ps"
	Timescale string `json:"timescale,omitempty" yaml:"timescale,omitempty"`

	// OutDir receives the .sv and .mem files (relative to the config file if not absolute)
	OutDir string `json:"outDir,omitempty" yaml:"outDir,omitempty"`

	// FinishAfter appends "#N $finish;" to the INITIAL block when positive
	FinishAfter int `json:"finishAfter,omitempty" yaml:"finishAfter,omitempty"`

	// Blocks lists the registry blocks in order, before any emitter runs
	Blocks []BlockConfig `json:"blocks,omitempty" yaml:"blocks,omitempty"`

	Clocks    []ClockConfig    `json:"clocks,omitempty" yaml:"clocks,omitempty"`
	Iterators []IteratorConfig `json:"iterators,omitempty" yaml:"iterators,omitempty"`
	Signals   []SignalConfig   `json:"signals,omitempty" yaml:"signals,omitempty"`
	Outputs   []SignalConfig   `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Constants []ConstantConfig `json:"constants,omitempty" yaml:"constants,omitempty"`
	Sequences []SequenceConfig `json:"sequences,omitempty" yaml:"sequences,omitempty"`

	// Lint contains lint rule configuration
	Lint LintConfig `json:"lint,omitempty" yaml:"lint,omitempty"`
}

// BlockConfig declares one block. Lines are seeded verbatim, which is how
// hand-written content such as the DUT instance gets into the output.
type BlockConfig struct {
	Category    string   `json:"category" yaml:"category"`
	Sensitivity string   `json:"sensitivity,omitempty" yaml:"sensitivity,omitempty"`
	Lines       []string `json:"lines,omitempty" yaml:"lines,omitempty"`
}

type ClockConfig struct {
	Name   string `json:"name" yaml:"name"`
	Period int    `json:"period,omitempty" yaml:"period,omitempty"`
	Start  string `json:"start,omitempty" yaml:"start,omitempty"`
}

type IteratorConfig struct {
	Name  string `json:"name" yaml:"name"`
	Width int    `json:"width" yaml:"width"`
	// Start is the bit pattern assigned at time zero; empty leaves the iterator X.
	Start string `json:"start,omitempty" yaml:"start,omitempty"`
}

type SignalConfig struct {
	Name     string `json:"name" yaml:"name"`
	Datatype string `json:"datatype,omitempty" yaml:"datatype,omitempty"`
	Width    int    `json:"width" yaml:"width"`
}

type ConstantConfig struct {
	Name     string `json:"name" yaml:"name"`
	Datatype string `json:"datatype,omitempty" yaml:"datatype,omitempty"`
	Width    int    `json:"width" yaml:"width"`
	Value    string `json:"value" yaml:"value"`
}

// SequenceConfig declares a test-vector sequence. Values seed it; a
// Generator, if present, then fills Length entries.
type SequenceConfig struct {
	Name      string           `json:"name" yaml:"name"`
	Datatype  string           `json:"datatype,omitempty" yaml:"datatype,omitempty"`
	Width     int              `json:"width" yaml:"width"`
	Iterator  string           `json:"iterator" yaml:"iterator"`
	Length    int              `json:"length,omitempty" yaml:"length,omitempty"`
	Values    []string         `json:"values,omitempty" yaml:"values,omitempty"`
	Generator *GeneratorConfig `json:"generator,omitempty" yaml:"generator,omitempty"`
}

// GeneratorConfig selects a value source: "clock", "counter", "random" or "list".
type GeneratorConfig struct {
	Kind   string   `json:"kind" yaml:"kind"`
	Seed   uint64   `json:"seed,omitempty" yaml:"seed,omitempty"`
	Start  uint64   `json:"start,omitempty" yaml:"start,omitempty"`
	Values []string `json:"values,omitempty" yaml:"values,omitempty"`
}

// LintConfig contains lint configuration
type LintConfig struct {
	// Rules maps rule names to severity: "off", "warning", "error"
	Rules map[string]string `json:"rules,omitempty" yaml:"rules,omitempty"`
}

const (
	defaultModule    = "tb"
	defaultTimescale = "1ns / 1ps"
	defaultPeriod    = emit.DefaultPeriod
)

// DefaultConfig returns a bench with one clock and the three standard blocks
func DefaultConfig() *Config {
	return &Config{
		Module:    defaultModule,
		Timescale: defaultTimescale,
		OutDir:    ".",
		Blocks:    defaultBlocks(),
		Clocks: []ClockConfig{
			{Name: "clk", Period: defaultPeriod, Start: "0"},
		},
		Lint: LintConfig{Rules: map[string]string{}},
	}
}

func defaultBlocks() []BlockConfig {
	return []BlockConfig{
		{Category: block.Extern.String()},
		{Category: block.Initial.String()},
		{Category: block.Always.String()},
	}
}

// Load finds and loads the configuration file
// Search order:
//  1. ./svbench.json, ./.svbench.json, ./svbench.yaml, ./svbench.yml
//  2. the same names under rootPath (if different from cwd)
//  3. ~/.config/svbench/config.json
//
// Returns DefaultConfig if no config file is found
func Load(rootPath string) (*Config, error) {
	cwd, _ := os.Getwd()
	names := []string{"svbench.json", ".svbench.json", "svbench.yaml", "svbench.yml"}

	var searchPaths []string
	for _, n := range names {
		searchPaths = append(searchPaths, filepath.Join(cwd, n))
	}

	if info, err := os.Stat(rootPath); err == nil && info.IsDir() {
		absRoot, _ := filepath.Abs(rootPath)
		if absRoot != cwd {
			for _, n := range names {
				searchPaths = append(searchPaths, filepath.Join(rootPath, n))
			}
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(home, ".config", "svbench", "config.json"))
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}

	return DefaultConfig(), nil
}

// LoadFile loads configuration from a specific file. Files ending in
// .yaml or .yml are read as YAML, anything else as JSON. A *.bench.* file
// without a module is named after the bench.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if isYAML(path) {
		err = yaml.Unmarshal(data, &cfg)
	} else {
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if cfg.Module == "" && isBenchFile(path) {
		cfg.Module = ModuleName(BenchName(path))
	}
	cfg.ApplyDefaults()
	if cfg.OutDir != "" && !filepath.IsAbs(cfg.OutDir) {
		cfg.OutDir = filepath.Join(filepath.Dir(path), cfg.OutDir)
	}

	return &cfg, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// ApplyDefaults fills in missing configuration with defaults
func (c *Config) ApplyDefaults() {
	if c.Module == "" {
		c.Module = defaultModule
	}
	if c.OutDir == "" {
		c.OutDir = "."
	}
	if len(c.Blocks) == 0 {
		c.Blocks = defaultBlocks()
	}
	for i := range c.Clocks {
		if c.Clocks[i].Period == 0 {
			c.Clocks[i].Period = defaultPeriod
		}
		if c.Clocks[i].Start == "" {
			c.Clocks[i].Start = "0"
		}
	}
	if c.Lint.Rules == nil {
		c.Lint.Rules = make(map[string]string)
	}
}

// Save writes the configuration to a file, as YAML or JSON by extension
func (c *Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Registry builds the block registry described by Blocks, seeding any
// configured lines.
func (c *Config) Registry() (*block.Registry, error) {
	r := block.NewRegistry()
	for i, bc := range c.Blocks {
		cat, err := block.ParseCategory(bc.Category)
		if err != nil {
			return nil, fmt.Errorf("blocks[%d]: %w", i, err)
		}
		meta := map[string]any{}
		if bc.Sensitivity != "" {
			meta[block.TagSensitivity] = bc.Sensitivity
		}
		r.Add(block.New(cat, meta, bc.Lines...))
	}
	return r, nil
}

// GetRuleSeverity returns the severity for a rule, or the default if not configured
func (c *Config) GetRuleSeverity(rule string, defaultSeverity string) string {
	if severity, ok := c.Lint.Rules[rule]; ok {
		return severity
	}
	return defaultSeverity
}

// IsRuleEnabled returns true if the rule is not set to "off"
func (c *Config) IsRuleEnabled(rule string) bool {
	if severity, ok := c.Lint.Rules[rule]; ok {
		return severity != "off"
	}
	return true // enabled by default
}
