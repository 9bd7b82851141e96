// Package report renders a finished run for people and machines.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"

	"github.com/ppiankov/regress/internal/harness"
)

// JSONFile is the machine-readable report written next to test_result.txt.
const JSONFile = "test_result.json"

// document is the JSON shape of a run.
type document struct {
	Summary harness.Summary      `json:"summary"`
	OK      bool                 `json:"ok"`
	Results []harness.CaseResult `json:"results"`
}

func newDocument(r *harness.Report) document {
	results := r.Results
	if results == nil {
		results = []harness.CaseResult{}
	}
	return document{Summary: r.Summary(), OK: r.OK(), Results: results}
}

// FormatText renders the end-of-run summary.
func FormatText(r *harness.Report) string {
	var b strings.Builder
	s := r.Summary()

	fmt.Fprintf(&b, "Ran %d case", s.Total)
	if s.Total != 1 {
		b.WriteString("s")
	}
	b.WriteString(".\n")

	for _, res := range r.Results {
		if !res.Regressed() {
			continue
		}
		fmt.Fprintf(&b, "  %-8s %-6s %s\n", res.Outcome.Status, res.ID, detail(res))
	}

	fmt.Fprintf(&b, "\n%d passed, %d failed, %d errors, %d skipped", s.Passed, s.Failed, s.Errored, s.Skipped)
	if s.TimedOut > 0 {
		fmt.Fprintf(&b, ", %d timed out", s.TimedOut)
	}
	b.WriteString(".\n")
	return b.String()
}

// detail is a one-line explanation of a regressed case.
func detail(res harness.CaseResult) string {
	switch {
	case res.Outcome.Reason == harness.ReasonCrash:
		return fmt.Sprintf("crashed (exit %d)", res.ExitCode)
	case res.Outcome.Reason != "":
		return res.Outcome.Reason
	}

	var parts []string
	if len(res.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(res.Missing, ", "))
	}
	if len(res.Diffs) > 0 {
		paths := make([]string, len(res.Diffs))
		for i, d := range res.Diffs {
			paths[i] = d.Path
		}
		parts = append(parts, "differs "+strings.Join(paths, ", "))
	}
	return strings.Join(parts, "; ")
}

// FormatJSON renders the run as indented JSON.
func FormatJSON(r *harness.Report) (string, error) {
	data, err := json.MarshalIndent(newDocument(r), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	return string(data), nil
}

// Canonical renders the run as RFC 8785 canonical JSON. Identical runs
// produce identical bytes.
func Canonical(r *harness.Report) ([]byte, error) {
	data, err := json.Marshal(newDocument(r))
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	out, err := jsoncanonicalizer.Transform(data)
	if err != nil {
		return nil, fmt.Errorf("canonicalize report: %w", err)
	}
	return out, nil
}

// WriteJSON writes the canonical report to dir/test_result.json and
// returns its path.
func WriteJSON(r *harness.Report, dir string) (string, error) {
	data, err := Canonical(r)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, JSONFile)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", JSONFile, err)
	}
	return path, nil
}
