package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Discover lists the case directories under sourceDir in ascending
// numeric order. Only directories named entirely with ASCII digits
// qualify; everything else is ignored. The returned cases have no
// working directory yet.
func Discover(sourceDir string) ([]Case, error) {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	var cases []Case
	for _, e := range entries {
		name := e.Name()
		if !isCaseID(name) {
			continue
		}
		path := filepath.Join(sourceDir, name)
		if !isDir(path, e) {
			continue
		}
		cases = append(cases, Case{ID: name, Source: path})
	}

	sort.SliceStable(cases, func(i, j int) bool {
		return compareIDs(cases[i].ID, cases[j].ID) < 0
	})
	return cases, nil
}

func isCaseID(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		if name[i] < '0' || name[i] > '9' {
			return false
		}
	}
	return true
}

// compareIDs orders digit strings by numeric value without parsing them,
// so arbitrarily long names cannot overflow. Names with equal value
// ("7" and "007") fall back to byte order.
func compareIDs(a, b string) int {
	ta := strings.TrimLeft(a, "0")
	tb := strings.TrimLeft(b, "0")
	if len(ta) != len(tb) {
		if len(ta) < len(tb) {
			return -1
		}
		return 1
	}
	if c := strings.Compare(ta, tb); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// isDir follows symlinks; a link to a directory is a valid case.
func isDir(path string, e os.DirEntry) bool {
	if e.IsDir() {
		return true
	}
	if e.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
