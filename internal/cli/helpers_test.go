package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/regress/internal/config"
)

// resetFlags restores every package-level flag to its default and isolates
// the test from the caller's environment and working directory.
func resetFlags(t *testing.T) {
	t.Helper()
	configPath = config.DefaultPath
	flagBinary = ""
	flagSource = ""
	flagResults = ""
	flagTimeout = ""
	verbose = false
	runJSON = false
	runFormat = "text"
	initForce = false
	watchPoll = false
	watchDebounce = 300 * time.Millisecond
	watchInterval = 2 * time.Second

	for _, key := range []string{
		config.EnvProject, config.EnvSource, config.EnvResults,
		config.EnvBinary, config.EnvTimeout,
	} {
		t.Setenv(key, "")
	}
	t.Chdir(t.TempDir())
}

// testCmd returns a bare command whose output is captured.
func testCmd() (*cobra.Command, *bytes.Buffer) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	return cmd, &buf
}

const subjectScript = `#!/bin/sh
[ -f input.txt ] && cat input.txt > output.log
exit 0
`

// suite writes a subject binary and a source tree with two cases: case 1
// matches its reference, case 2 matches only if good is true.
func suite(t *testing.T, good bool) (binary, source, results string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("subject binaries are POSIX shell scripts")
	}
	root := t.TempDir()
	binary = filepath.Join(root, "subject")
	source = filepath.Join(root, "cases")
	results = filepath.Join(root, "results")

	write := func(path, content string, perm os.FileMode) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), perm); err != nil {
			t.Fatal(err)
		}
	}
	write(binary, subjectScript, 0o755)
	write(filepath.Join(source, "1", "input.txt"), "alpha\n", 0o644)
	write(filepath.Join(source, "1", "output.log"), "alpha\n", 0o644)
	write(filepath.Join(source, "2", "input.txt"), "beta\n", 0o644)
	ref := "beta\n"
	if !good {
		ref = "gamma\n"
	}
	write(filepath.Join(source, "2", "output.log"), ref, 0o644)
	return binary, source, results
}
