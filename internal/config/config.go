// Package config loads harness settings from regress.yaml, the
// environment and command-line overrides, and resolves them into a
// validated harness.Config.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "regress.yaml"

// Environment variables read by ApplyEnv.
const (
	EnvHome        = "HOME"
	EnvProject     = "PROJECT_NAME"
	EnvSource      = "REGRESSION_PATH"
	EnvResults     = "REGRESSION_RESULTS_PATH"
	EnvBinary      = "REGRESSION_BINARY"
	EnvTimeout     = "REGRESSION_TIMEOUT"
	defaultBinName = "Luka"
)

// File is the on-disk configuration. Every field can also come from the
// environment or a flag.
type File struct {
	Home        string   `yaml:"home,omitempty"`
	ProjectName string   `yaml:"project_name,omitempty"`
	BinaryName  string   `yaml:"binary_name"`
	BuildDirs   []string `yaml:"build_dirs"`
	Binary      string   `yaml:"binary,omitempty"`
	Source      string   `yaml:"source,omitempty"`
	Results     string   `yaml:"results,omitempty"`
	Timeout     string   `yaml:"timeout,omitempty"`
}

// Default returns the built-in configuration: the binary is looked up
// as <home>/<project>/Release/Luka, then under Debug.
func Default() *File {
	return &File{
		BinaryName: defaultBinName,
		BuildDirs:  []string{"Release", "Debug"},
	}
}

// DefaultYAML returns a commented starter config for `regress init`.
func DefaultYAML() string {
	return `# regress configuration.
# Environment variables (HOME, PROJECT_NAME, REGRESSION_PATH,
# REGRESSION_RESULTS_PATH, REGRESSION_BINARY, REGRESSION_TIMEOUT)
# override these values; command-line flags override both.

# project_name: MyProject
binary_name: Luka
build_dirs:
  - Release
  - Debug

# Explicit binary path; skips the build_dirs lookup.
# binary: /path/to/binary

# source: /path/to/regression/cases
# results: /path/to/regression/results

# Per-case time limit (Go duration). Empty means no limit.
# timeout: 5m
`
}

// Load reads the config at path. A missing file yields the defaults;
// fields present in the file replace the defaults.
func Load(path string) (*File, error) {
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays environment values from getenv. Empty variables
// leave the field alone. HOME only fills an unset home, since it is
// always present in a login environment.
func (f *File) ApplyEnv(getenv func(string) string) {
	if f.Home == "" {
		f.Home = getenv(EnvHome)
	}
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&f.ProjectName, EnvProject)
	set(&f.Source, EnvSource)
	set(&f.Results, EnvResults)
	set(&f.Binary, EnvBinary)
	set(&f.Timeout, EnvTimeout)
}

// Overrides are command-line values; empty fields are ignored.
type Overrides struct {
	Binary  string
	Source  string
	Results string
	Timeout string
}

// Apply overlays non-empty overrides.
func (f *File) Apply(o Overrides) {
	if o.Binary != "" {
		f.Binary = o.Binary
	}
	if o.Source != "" {
		f.Source = o.Source
	}
	if o.Results != "" {
		f.Results = o.Results
	}
	if o.Timeout != "" {
		f.Timeout = o.Timeout
	}
}
