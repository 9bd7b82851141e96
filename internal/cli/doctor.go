package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/regress/internal/config"
	"github.com/ppiankov/regress/internal/harness"
)

func init() {
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration, binary and case directories before a run",
	Args:  cobra.NoArgs,
	RunE:  runDoctor,
}

type checkResult struct {
	label  string
	ok     bool
	detail string
	fix    string
}

func runDoctor(cmd *cobra.Command, args []string) error {
	out := cmdOut(cmd)
	var checks []checkResult

	// 1. Config file.
	if _, err := os.Stat(configPath); err == nil {
		checks = append(checks, checkResult{label: "config file", ok: true, detail: configPath})
	} else {
		checks = append(checks, checkResult{
			label:  "config file",
			ok:     true,
			detail: "not found, using defaults and environment",
		})
	}

	// 2. Settings and binary.
	res, err := loadConfig()
	var missing *config.MissingError
	var notFound *config.BinaryNotFoundError
	var notExec *config.NotExecutableError
	switch {
	case errors.As(err, &missing):
		checks = append(checks, checkResult{
			label:  "settings",
			ok:     false,
			detail: err.Error(),
			fix:    "export the variables or run: regress init",
		})
	case errors.As(err, &notFound):
		checks = append(checks, checkResult{
			label:  "binary",
			ok:     false,
			detail: err.Error(),
			fix:    "build the project or pass --binary",
		})
	case errors.As(err, &notExec):
		checks = append(checks, checkResult{
			label:  "binary",
			ok:     false,
			detail: err.Error(),
			fix:    "chmod +x " + notExec.Path,
		})
	case errors.Is(err, harness.ErrResultsUnavailable):
		checks = append(checks, checkResult{
			label:  "results directory",
			ok:     false,
			detail: err.Error(),
			fix:    "point REGRESSION_RESULTS_PATH outside the case directories",
		})
	case err != nil:
		checks = append(checks, checkResult{label: "settings", ok: false, detail: err.Error()})
	default:
		checks = append(checks, checkResult{label: "binary", ok: true, detail: res.Harness.BinaryPath})
		for _, w := range res.Warnings {
			checks = append(checks, checkResult{label: "binary", ok: true, detail: w})
		}
		checks = append(checks, sourceCheck(res.Harness.SourceDir), resultsCheck(res.Harness.ResultsDir))
	}

	hasFailures := false
	for _, c := range checks {
		mark := "\u2713" // ✓
		if !c.ok {
			mark = "\u2717" // ✗
			hasFailures = true
		}
		line := fmt.Sprintf("%s %-20s %s", mark, c.label+":", c.detail)
		if !c.ok && c.fix != "" {
			line += fmt.Sprintf("  ->  %s", c.fix)
		}
		fmt.Fprintln(out, line)
	}

	fmt.Fprintln(out)
	if hasFailures {
		fmt.Fprintln(out, "Some checks failed. Run the suggested commands to fix.")
		return fmt.Errorf("doctor found issues")
	}
	fmt.Fprintln(out, "All checks passed.")
	return nil
}

func sourceCheck(dir string) checkResult {
	cases, err := harness.Discover(dir)
	if err != nil {
		return checkResult{
			label:  "source directory",
			ok:     false,
			detail: err.Error(),
			fix:    "set REGRESSION_PATH or pass --source",
		}
	}
	if len(cases) == 0 {
		return checkResult{
			label:  "source directory",
			ok:     false,
			detail: fmt.Sprintf("%s has no numbered directories", dir),
		}
	}

	withRefs := 0
	for _, c := range cases {
		if refs, err := harness.ReferenceArtifacts(c.Source); err == nil && len(refs) > 0 {
			withRefs++
		}
	}
	return checkResult{
		label:  "source directory",
		ok:     true,
		detail: fmt.Sprintf("%d cases, %d with reference logs", len(cases), withRefs),
	}
}

// resultsCheck passes when the results directory exists and is writable,
// or does not exist yet but its nearest existing ancestor is writable.
func resultsCheck(dir string) checkResult {
	probe := dir
	for {
		if info, err := os.Stat(probe); err == nil {
			if !info.IsDir() {
				return checkResult{label: "results directory", ok: false, detail: probe + " is not a directory"}
			}
			break
		}
		parent := filepath.Dir(probe)
		if parent == probe {
			break
		}
		probe = parent
	}

	f, err := os.CreateTemp(probe, ".regress-doctor-*")
	if err != nil {
		return checkResult{
			label:  "results directory",
			ok:     false,
			detail: fmt.Sprintf("%s is not writable", probe),
			fix:    "set REGRESSION_RESULTS_PATH or pass --results",
		}
	}
	_ = f.Close()
	_ = os.Remove(f.Name())

	detail := dir
	if probe != dir {
		detail += " (will be created)"
	}
	return checkResult{label: "results directory", ok: true, detail: detail}
}
