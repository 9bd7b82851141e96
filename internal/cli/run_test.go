package cli

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/regress/internal/harness"
	"github.com/ppiankov/regress/internal/report"
)

func TestRunRun_AllPass(t *testing.T) {
	resetFlags(t)
	flagBinary, flagSource, flagResults = suite(t, true)

	cmd, out := testCmd()
	if err := runRun(cmd, nil); err != nil {
		t.Fatalf("runRun failed: %v\n%s", err, out)
	}

	got := out.String()
	for _, want := range []string{
		"Starting Regression Test...",
		"[1] Running... PASS\n",
		"[2] Running... PASS\n",
		"Ran 2 cases.",
		"Regression Test Completed.",
		filepath.Join(flagResults, harness.ResultFile),
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}

	data, err := os.ReadFile(filepath.Join(flagResults, harness.ResultFile))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "1: PASS\n2: PASS\n" {
		t.Errorf("unexpected results file: %q", data)
	}
}

func TestRunRun_RegressionExitsNonZero(t *testing.T) {
	resetFlags(t)
	flagBinary, flagSource, flagResults = suite(t, false)

	cmd, out := testCmd()
	err := runRun(cmd, nil)
	if !errors.Is(err, errRegressions) {
		t.Fatalf("expected errRegressions, got %v", err)
	}
	if !strings.Contains(out.String(), "[2] Running... FAIL\n") {
		t.Errorf("missing FAIL progress line:\n%s", out)
	}

	diffs, err := os.ReadFile(filepath.Join(flagResults, harness.DiffFile))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(diffs), "-gamma\n+beta\n") {
		t.Errorf("diff log missing hunk:\n%s", diffs)
	}
}

func TestRunRun_JSONFormat(t *testing.T) {
	resetFlags(t)
	flagBinary, flagSource, flagResults = suite(t, true)
	runFormat = "json"
	runJSON = true

	cmd, _ := testCmd()
	var stdout strings.Builder
	cmd.SetOut(&stdout)

	if err := runRun(cmd, nil); err != nil {
		t.Fatalf("runRun failed: %v", err)
	}

	var doc struct {
		OK      bool `json:"ok"`
		Summary struct {
			Total int `json:"total"`
		} `json:"summary"`
	}
	if err := json.Unmarshal([]byte(stdout.String()), &doc); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, stdout.String())
	}
	if !doc.OK {
		t.Error("expected ok: true")
	}

	if _, err := os.Stat(filepath.Join(flagResults, report.JSONFile)); err != nil {
		t.Errorf("json report not written: %v", err)
	}
}

func TestRunRun_NoCases(t *testing.T) {
	resetFlags(t)
	binary, source, results := suite(t, true)
	flagBinary = binary
	flagSource = filepath.Dir(source)
	flagResults = results
	// The suite root holds only "cases", "results" and the binary.

	cmd, out := testCmd()
	if err := runRun(cmd, nil); err != nil {
		t.Fatalf("runRun failed: %v", err)
	}
	if !strings.Contains(out.String(), "No numbered directories found in") {
		t.Errorf("missing empty-suite notice:\n%s", out)
	}
}

func TestRunRun_UnknownFormat(t *testing.T) {
	resetFlags(t)
	runFormat = "xml"
	if err := runRun(nil, nil); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestRunRun_MissingSettings(t *testing.T) {
	resetFlags(t)
	t.Setenv("HOME", "")

	err := runRun(nil, nil)
	if err == nil || !strings.Contains(err.Error(), "REGRESSION_PATH") {
		t.Fatalf("expected missing-variable error, got %v", err)
	}
}

func TestLoadConfig_ExplicitMissingFile(t *testing.T) {
	resetFlags(t)
	configPath = "absent.yaml"
	if _, err := loadConfig(); err == nil {
		t.Fatal("expected error for explicit missing config")
	}
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	resetFlags(t)
	binary, source, results := suite(t, true)
	yaml := "binary: " + binary + "\nsource: /nowhere\nresults: " + results + "\ntimeout: 10s\n"
	if err := os.WriteFile("regress.yaml", []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	flagSource = source

	res, err := loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if res.Harness.SourceDir != source {
		t.Errorf("source = %q, want flag value %q", res.Harness.SourceDir, source)
	}
	if res.Harness.Timeout.String() != "10s" {
		t.Errorf("timeout = %v, want 10s from file", res.Harness.Timeout)
	}
}
