package harness

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"golang.org/x/tools/txtar"
)

// writeTree materializes a txtar archive under dir.
func writeTree(t *testing.T, dir, archive string) {
	t.Helper()
	for _, f := range txtar.Parse([]byte(archive)).Files {
		path := filepath.Join(dir, filepath.FromSlash(f.Name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, f.Data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// subjectScript is a stand-in for the binary under test. It copies
// input.txt to output.log and reacts to marker files in the case.
const subjectScript = `#!/bin/sh
[ -f crash ] && exit 3
[ -f input.txt ] && cat input.txt > output.log
[ -f drop ] && rm -f regression/extra.txt
[ -f gen ] && cp gen regression/gen.txt
exit 0
`

// writeSubject writes an executable shell script and returns its path.
func writeSubject(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("subject binaries are POSIX shell scripts")
	}
	path := filepath.Join(t.TempDir(), "subject")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}
