package nested

import "path/filepath"

// MatchPatterns builds a filter from shell globs matched against a file's
// base name. A file is kept when it matches some include pattern (or there
// are none) and no exclude pattern. Returns nil when both lists are empty.
// Malformed patterns never match; config.Validate rejects them up front.
func MatchPatterns(include, exclude []string) func(path string) bool {
	if len(include) == 0 && len(exclude) == 0 {
		return nil
	}
	return func(path string) bool {
		name := filepath.Base(path)
		if len(include) > 0 && !matchAny(include, name) {
			return false
		}
		return !matchAny(exclude, name)
	}
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, err := filepath.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}
