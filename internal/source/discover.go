package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Discover expands glob patterns relative to dir and returns the matching
// paths, sorted and without duplicates. Patterns support ** for recursion.
func Discover(dir string, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, nil
	}

	fsys := os.DirFS(dir)
	seen := make(map[string]bool)
	var paths []string

	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid discover pattern %q: %w", pattern, doublestar.ErrBadPattern)
		}

		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to glob %q in %s: %w", pattern, dir, err)
		}

		for _, m := range matches {
			p := filepath.Join(dir, filepath.FromSlash(m))
			if !seen[p] {
				seen[p] = true
				paths = append(paths, p)
			}
		}
	}
	sort.Strings(paths)

	return paths, nil
}
