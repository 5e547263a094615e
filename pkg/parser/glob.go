package parser

import (
	"fmt"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// ExpandGlobs expands a list of file paths and glob patterns (including "**")
// into a deduplicated list of paths. Patterns keep their relative order; the
// matches of a single pattern are sorted. Patterns that don't match any files
// are returned as-is so the caller reports a file-not-found error for them.
// The stdin path "-" is passed through untouched.
func ExpandGlobs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var result []string

	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			result = append(result, p)
		}
	}

	for _, pattern := range patterns {
		if pattern == StdinPath {
			result = append(result, pattern)
			continue
		}

		if !doublestar.ValidatePathPattern(pattern) {
			return nil, fmt.Errorf("invalid glob pattern %q", pattern)
		}

		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}

		if len(matches) == 0 {
			// Keep the literal path for a better error message later
			add(pattern)
			continue
		}

		sort.Strings(matches)
		for _, match := range matches {
			add(match)
		}
	}

	return result, nil
}
