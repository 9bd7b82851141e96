package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/ppiankov/regress/internal/harness"
)

// MissingError lists every required setting that is unset, by the
// environment variable that would supply it.
type MissingError struct {
	Vars []string
}

func (e *MissingError) Error() string {
	return "required environment variables are not set: " + strings.Join(e.Vars, ", ")
}

// BinaryNotFoundError lists the candidate paths that were tried.
type BinaryNotFoundError struct {
	Tried []string
}

func (e *BinaryNotFoundError) Error() string {
	return "binary not found at " + strings.Join(e.Tried, ", ")
}

// NotExecutableError is returned for a binary that exists but lacks the
// execute permission.
type NotExecutableError struct {
	Path string
}

func (e *NotExecutableError) Error() string {
	return "binary " + e.Path + " is not executable"
}

// Resolved is a validated configuration ready for the harness.
type Resolved struct {
	Harness  harness.Config
	Warnings []string
}

// Resolve validates f and turns it into absolute harness inputs. It
// checks that the binary is executable and that the results directory
// cannot overwrite the source cases; whether the directories exist is
// left to the harness.
func Resolve(f *File) (*Resolved, error) {
	var missing []string
	if f.Binary == "" {
		if f.Home == "" {
			missing = append(missing, EnvHome)
		}
		if f.ProjectName == "" {
			missing = append(missing, EnvProject)
		}
	}
	if f.Source == "" {
		missing = append(missing, EnvSource)
	}
	if f.Results == "" {
		missing = append(missing, EnvResults)
	}
	if len(missing) > 0 {
		return nil, &MissingError{Vars: missing}
	}

	timeout, err := parseTimeout(f.Timeout)
	if err != nil {
		return nil, err
	}

	binary, warnings, err := resolveBinary(f)
	if err != nil {
		return nil, err
	}

	source, err := filepath.Abs(f.Source)
	if err != nil {
		return nil, fmt.Errorf("resolve source path: %w", err)
	}
	results, err := filepath.Abs(f.Results)
	if err != nil {
		return nil, fmt.Errorf("resolve results path: %w", err)
	}
	if err := harness.CheckLayout(source, results); err != nil {
		return nil, err
	}

	return &Resolved{
		Harness: harness.Config{
			BinaryPath: binary,
			SourceDir:  source,
			ResultsDir: results,
			Timeout:    timeout,
		},
		Warnings: warnings,
	}, nil
}

func parseTimeout(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid timeout %q: must not be negative", s)
	}
	return d, nil
}

// resolveBinary returns the explicit binary, or the first existing
// <home>/<project>/<build_dir>/<binary_name>. Falling back past the
// first build dir produces a warning.
func resolveBinary(f *File) (string, []string, error) {
	if f.Binary != "" {
		path, err := filepath.Abs(f.Binary)
		if err != nil {
			return "", nil, fmt.Errorf("resolve binary path: %w", err)
		}
		if err := checkBinary(path); err != nil {
			return "", nil, err
		}
		return path, nil, nil
	}

	if f.BinaryName == "" {
		return "", nil, errors.New("binary_name is empty")
	}
	if len(f.BuildDirs) == 0 {
		return "", nil, errors.New("no build_dirs configured")
	}

	var tried []string
	for i, dir := range f.BuildDirs {
		path, err := filepath.Abs(filepath.Join(f.Home, f.ProjectName, dir, f.BinaryName))
		if err != nil {
			return "", nil, fmt.Errorf("resolve binary path: %w", err)
		}
		if err := checkBinary(path); err != nil {
			var notFound *BinaryNotFoundError
			if !errors.As(err, &notFound) {
				return "", nil, err
			}
			tried = append(tried, path)
			continue
		}
		var warnings []string
		if i > 0 {
			warnings = append(warnings, fmt.Sprintf("%s binary not found at %s, using %s binary at %s",
				f.BuildDirs[0], tried[0], dir, path))
		}
		return path, warnings, nil
	}
	return "", nil, &BinaryNotFoundError{Tried: tried}
}

func checkBinary(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &BinaryNotFoundError{Tried: []string{path}}
		}
		return fmt.Errorf("stat binary: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("binary %s is a directory", path)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm()&0o111 == 0 {
		return &NotExecutableError{Path: path}
	}
	return nil
}
