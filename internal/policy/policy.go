package policy

import (
	"context"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/open-policy-agent/opa/v1/rego"

	"github.com/robert-at-pretension-io/svbench/internal/config"
	"github.com/robert-at-pretension-io/svbench/internal/facts"
)

//go:embed bench.rego
var benchPolicy string

const (
	violationsQuery = "data.svbench.lint.all_violations"
	summaryQuery    = "data.svbench.lint.summary"
)

// Engine evaluates the bench lint policy against fact tables
type Engine struct {
	queries map[string]rego.PreparedEvalQuery
	hash    string
}

// Violation represents a policy violation
type Violation struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Bench    string `json:"bench"`
	Subject  string `json:"subject"`
	Message  string `json:"message"`
}

// Result contains the evaluation results
type Result struct {
	Violations []Violation
	Summary    Summary
}

// Summary provides aggregate counts
type Summary struct {
	TotalViolations int `json:"total_violations"`
	Errors          int `json:"errors"`
	Warnings        int `json:"warnings"`
	Info            int `json:"info"`
}

// New creates a policy engine from the embedded bench policy.
func New(ctx context.Context) (*Engine, error) {
	return NewWithModules(ctx, map[string]string{"bench.rego": benchPolicy})
}

// NewWithModules creates an engine from the given Rego sources, keyed by
// file name. The modules must define package svbench.lint.
func NewWithModules(ctx context.Context, sources map[string]string) (*Engine, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("no policy modules given")
	}

	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	var modules []func(*rego.Rego)
	hasher := sha256.New()
	for _, name := range names {
		modules = append(modules, rego.Module(name, sources[name]))
		hasher.Write([]byte(name))
		hasher.Write([]byte{0})
		hasher.Write([]byte(sources[name]))
		hasher.Write([]byte{0})
	}

	engine := &Engine{
		queries: make(map[string]rego.PreparedEvalQuery),
		hash:    hex.EncodeToString(hasher.Sum(nil)),
	}
	for key, q := range map[string]string{"violations": violationsQuery, "summary": summaryQuery} {
		opts := append(append([]func(*rego.Rego){}, modules...), rego.Query(q))
		query, err := rego.New(opts...).PrepareForEval(ctx)
		if err != nil {
			return nil, fmt.Errorf("preparing %s query: %w", key, err)
		}
		engine.queries[key] = query
	}

	return engine, nil
}

// Hash identifies the loaded policy sources; results cached under one hash
// are stale once it changes.
func (e *Engine) Hash() string {
	return e.hash
}

// Evaluate runs the policy against the tables
func (e *Engine) Evaluate(ctx context.Context, tables facts.Tables) (*Result, error) {
	inputMap, err := structToMap(tables)
	if err != nil {
		return nil, fmt.Errorf("converting input: %w", err)
	}

	result := &Result{}

	rs, err := e.queries["violations"].Eval(ctx, rego.EvalInput(inputMap))
	if err != nil {
		return nil, fmt.Errorf("evaluating violations: %w", err)
	}

	if len(rs) > 0 && len(rs[0].Expressions) > 0 {
		violations, ok := rs[0].Expressions[0].Value.([]interface{})
		if ok {
			for _, v := range violations {
				vmap, ok := v.(map[string]interface{})
				if !ok {
					continue
				}
				result.Violations = append(result.Violations, Violation{
					Rule:     getString(vmap, "rule"),
					Severity: getString(vmap, "severity"),
					Bench:    getString(vmap, "bench"),
					Subject:  getString(vmap, "subject"),
					Message:  getString(vmap, "message"),
				})
			}
		}
	}
	sortViolations(result.Violations)

	rs, err = e.queries["summary"].Eval(ctx, rego.EvalInput(inputMap))
	if err != nil {
		return nil, fmt.Errorf("evaluating summary: %w", err)
	}

	if len(rs) > 0 && len(rs[0].Expressions) > 0 {
		smap, ok := rs[0].Expressions[0].Value.(map[string]interface{})
		if ok {
			result.Summary = Summary{
				TotalViolations: getInt(smap, "total_violations"),
				Errors:          getInt(smap, "errors"),
				Warnings:        getInt(smap, "warnings"),
				Info:            getInt(smap, "info"),
			}
		}
	}

	return result, nil
}

// ApplyConfig drops violations of rules configured "off" and remaps the
// severity of the rest. The summary is recounted.
func (r *Result) ApplyConfig(cfg *config.Config) *Result {
	out := &Result{}
	for _, v := range r.Violations {
		if !cfg.IsRuleEnabled(v.Rule) {
			continue
		}
		v.Severity = cfg.GetRuleSeverity(v.Rule, v.Severity)
		out.Violations = append(out.Violations, v)
	}
	out.Summary = summarize(out.Violations)
	return out
}

// HasErrors reports whether any violation has error severity
func (r *Result) HasErrors() bool {
	return r.Summary.Errors > 0
}

func summarize(vs []Violation) Summary {
	s := Summary{TotalViolations: len(vs)}
	for _, v := range vs {
		switch v.Severity {
		case "error":
			s.Errors++
		case "warning":
			s.Warnings++
		case "info":
			s.Info++
		}
	}
	return s
}

func sortViolations(vs []Violation) {
	sort.SliceStable(vs, func(i, j int) bool {
		a, b := vs[i], vs[j]
		if a.Bench != b.Bench {
			return a.Bench < b.Bench
		}
		if a.Rule != b.Rule {
			return a.Rule < b.Rule
		}
		return a.Subject < b.Subject
	})
}

// Helper functions
func structToMap(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var result map[string]interface{}
	err = json.Unmarshal(data, &result)
	return result, err
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func getInt(m map[string]interface{}, key string) int {
	if v, ok := m[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case float64:
			return int(n)
		case json.Number:
			i, _ := n.Int64()
			return int(i)
		}
	}
	return 0
}
