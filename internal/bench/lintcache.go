package bench

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/robert-at-pretension-io/svbench/internal/facts"
	"github.com/robert-at-pretension-io/svbench/internal/policy"
)

const lintCacheVersion = 1

// lintCacheEntry stores the raw policy result of one bench, before the
// bench's lint config is applied, so severity edits never need a re-lint.
type lintCacheEntry struct {
	Version   int           `json:"version"`
	FactsHash string        `json:"facts_hash"`
	Result    policy.Result `json:"result"`
}

func loadLintCache(dir, bench string) (*lintCacheEntry, error) {
	data, err := os.ReadFile(lintCachePath(dir, bench))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var entry lintCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("parse lint cache: %w", err)
	}
	return &entry, nil
}

func saveLintCache(dir, bench string, entry lintCacheEntry) error {
	if err := writeJSONAtomic(lintCachePath(dir, bench), entry); err != nil {
		return fmt.Errorf("write lint cache: %w", err)
	}
	return nil
}

func lintCachePath(dir, bench string) string {
	return filepath.Join(dir, bench+".lint.json")
}

func lintCacheValid(entry *lintCacheEntry, hash string) bool {
	return entry != nil && entry.Version == lintCacheVersion && entry.FactsHash == hash
}

// factsHash keys a cache entry by the tables and the policy that judged them.
func factsHash(tables facts.Tables, policyHash string) (string, error) {
	payload := struct {
		Tables        facts.Tables `json:"tables"`
		PolicyVersion string       `json:"policy_version"`
	}{
		Tables:        tables,
		PolicyVersion: policyHash,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal facts hash: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// ClearLintCache removes every cached lint result under dir and returns how
// many were removed.
func ClearLintCache(dir string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.lint.json"))
	if err != nil {
		return 0, fmt.Errorf("clear lint cache: %w", err)
	}
	removed := 0
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("remove lint cache: %w", err)
		}
		removed++
	}
	return removed, nil
}

func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache json: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*.json")
	if err != nil {
		return fmt.Errorf("temp cache file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename cache file: %w", err)
	}
	return nil
}
