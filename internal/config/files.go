package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultBenchPatterns match bench description files under a directory.
var DefaultBenchPatterns = []string{"**/*.bench.json", "**/*.bench.yaml", "**/*.bench.yml"}

// FindBenchFiles expands patterns (relative to rootPath unless absolute) and
// returns the sorted, de-duplicated list of matching files.
func FindBenchFiles(rootPath string, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = DefaultBenchPatterns
	}

	fileSet := make(map[string]bool)
	for _, pattern := range patterns {
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(rootPath, pattern)
		}
		matches, err := expandGlob(pattern)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			fileSet[filepath.Clean(m)] = true
		}
	}

	result := make([]string, 0, len(fileSet))
	for f := range fileSet {
		result = append(result, f)
	}
	sort.Strings(result)
	return result, nil
}

// expandGlob expands a glob pattern, handling ** for recursive matching
func expandGlob(pattern string) ([]string, error) {
	if strings.Contains(pattern, "**") {
		return expandDoubleStarGlob(pattern)
	}
	return filepath.Glob(pattern)
}

// expandDoubleStarGlob handles ** patterns by walking the directory tree
func expandDoubleStarGlob(pattern string) ([]string, error) {
	var results []string

	parts := strings.SplitN(pattern, "**", 2)
	baseDir := filepath.Clean(parts[0])
	if baseDir == "" {
		baseDir = "."
	}
	suffix := strings.TrimPrefix(parts[1], string(filepath.Separator))

	if _, err := os.Stat(baseDir); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	err := filepath.WalkDir(baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped
		}
		if d.IsDir() {
			return nil
		}
		if suffix == "" {
			results = append(results, path)
			return nil
		}
		relPath, err := filepath.Rel(baseDir, path)
		if err != nil {
			return nil
		}
		if matchSuffix(relPath, suffix) {
			results = append(results, path)
		}
		return nil
	})

	return results, err
}

// matchSuffix checks if a path matches a suffix pattern (after **)
func matchSuffix(path, pattern string) bool {
	if !strings.Contains(pattern, string(filepath.Separator)) {
		matched, _ := filepath.Match(pattern, filepath.Base(path))
		return matched
	}

	if matched, _ := filepath.Match(pattern, path); matched {
		return true
	}

	segs := strings.Count(pattern, string(filepath.Separator)) + 1
	parts := strings.Split(path, string(filepath.Separator))
	if len(parts) < segs {
		return false
	}
	tail := filepath.Join(parts[len(parts)-segs:]...)
	matched, _ := filepath.Match(pattern, tail)
	return matched
}

var benchSuffixes = []string{".bench.json", ".bench.yaml", ".bench.yml"}

// BenchName strips the bench suffix, or any extension, from the file name.
func BenchName(path string) string {
	base := filepath.Base(path)
	for _, suffix := range benchSuffixes {
		if strings.HasSuffix(base, suffix) {
			return strings.TrimSuffix(base, suffix)
		}
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func isBenchFile(path string) bool {
	base := filepath.Base(path)
	for _, suffix := range benchSuffixes {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}
	return false
}

// ModuleName turns a bench name into a SystemVerilog identifier. Characters
// outside [A-Za-z0-9_$] become '_'; a leading digit or '$' gets a '_' prefix.
func ModuleName(bench string) string {
	if bench == "" {
		return defaultModule
	}
	var sb strings.Builder
	for i, r := range bench {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			sb.WriteRune(r)
		case r == '$' || (r >= '0' && r <= '9'):
			if i == 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}
