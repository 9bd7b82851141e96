package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CheckLayout rejects a results root that would overwrite the source
// tree: the source itself, anything inside a case directory, or a parent
// of the source. A results root elsewhere inside the source (for example
// <source>/results) is allowed, since it is not a case.
func CheckLayout(sourceDir, resultsDir string) error {
	src := realPath(sourceDir)
	res := realPath(resultsDir)

	if src == res {
		return fmt.Errorf("%w: %s is the source directory", ErrResultsUnavailable, resultsDir)
	}
	if within(src, res) {
		return fmt.Errorf("%w: %s contains the source directory %s", ErrResultsUnavailable, resultsDir, sourceDir)
	}
	if within(res, src) {
		rel, err := filepath.Rel(src, res)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrResultsUnavailable, err)
		}
		first, _, _ := strings.Cut(rel, string(filepath.Separator))
		if isCaseID(first) {
			return fmt.Errorf("%w: %s is inside case %s", ErrResultsUnavailable, resultsDir, first)
		}
	}
	return nil
}

// realPath makes p absolute and resolves symlinks in its longest existing
// prefix, so two spellings of the same directory compare equal.
func realPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		abs = filepath.Clean(p)
	}
	var rest []string
	cur := abs
	for {
		if resolved, err := filepath.EvalSymlinks(cur); err == nil {
			return filepath.Join(append([]string{resolved}, rest...)...)
		}
		if _, err := os.Lstat(cur); err == nil {
			return abs
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return abs
		}
		rest = append([]string{filepath.Base(cur)}, rest...)
		cur = parent
	}
}

// within reports whether path is strictly below dir.
func within(path, dir string) bool {
	return strings.HasPrefix(path, strings.TrimSuffix(dir, string(filepath.Separator))+string(filepath.Separator))
}
