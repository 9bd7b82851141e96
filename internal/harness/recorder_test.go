package harness

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSummaryLine(t *testing.T) {
	tests := []struct {
		res  CaseResult
		want string
	}{
		{CaseResult{ID: "1", Outcome: Outcome{Status: StatusPass}}, "1: PASS\n"},
		{CaseResult{ID: "2", Outcome: Outcome{Status: StatusFail}}, "2: FAIL\n"},
		{CaseResult{ID: "3", Outcome: Outcome{Status: StatusFail, Reason: ReasonCrash}}, "3: FAIL (Crash)\n"},
		{CaseResult{ID: "4", Outcome: Outcome{Status: StatusError, Reason: "exec format error"}}, "4: ERROR (exec format error)\n"},
		{CaseResult{ID: "5", Outcome: Outcome{Status: StatusSkip, Reason: ReasonNoReference}}, "5: SKIP (No reference logs)\n"},
		{CaseResult{ID: "6", Outcome: Outcome{Status: StatusTimeout, Reason: "after 5s"}}, "6: TIMEOUT (after 5s)\n"},
	}
	for _, tt := range tests {
		if got := SummaryLine(tt.res); got != tt.want {
			t.Errorf("SummaryLine(%s) = %q, want %q", tt.res.ID, got, tt.want)
		}
	}
}

func TestDiffBlockMissingAndDiff(t *testing.T) {
	res := CaseResult{
		ID:      "12",
		Outcome: Outcome{Status: StatusFail},
		Missing: []string{"regression/a.txt", "regression/b.txt"},
		Diffs: []DiffRecord{
			{CaseID: "12", Path: "output.log", Text: "--- Reference/12/output.log\n+++ Result/12/output.log\n@@ -1 +1 @@\n-a\n+b\n"},
		},
	}
	want := "========================================\n" +
		"FAIL: Case 12\n" +
		"========================================\n" +
		"Missing files: regression/a.txt, regression/b.txt\n" +
		"--- Reference/12/output.log\n+++ Result/12/output.log\n@@ -1 +1 @@\n-a\n+b\n" +
		"\n"
	if got := DiffBlock(res); got != want {
		t.Errorf("DiffBlock mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestDiffBlockEmptyForNonFailures(t *testing.T) {
	for _, res := range []CaseResult{
		{ID: "1", Outcome: Outcome{Status: StatusPass}},
		{ID: "2", Outcome: Outcome{Status: StatusFail, Reason: ReasonCrash}},
		{ID: "3", Outcome: Outcome{Status: StatusSkip, Reason: ReasonNoReference}},
		{ID: "4", Outcome: Outcome{Status: StatusError, Reason: "boom"}},
	} {
		if got := DiffBlock(res); got != "" {
			t.Errorf("case %s: expected no diff block, got %q", res.ID, got)
		}
	}
}

func TestRecorderFlushesPerCase(t *testing.T) {
	dir := t.TempDir()
	rec, err := OpenRecorder(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer rec.Close()

	if err := rec.Record(CaseResult{ID: "1", Outcome: Outcome{Status: StatusPass}}); err != nil {
		t.Fatal(err)
	}
	// Readable before Close.
	if got := readFile(t, filepath.Join(dir, ResultFile)); got != "1: PASS\n" {
		t.Errorf("result file = %q", got)
	}

	if err := rec.Record(CaseResult{ID: "2", Outcome: Outcome{Status: StatusFail}, Missing: []string{"output.log"}}); err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, filepath.Join(dir, DiffFile)); got == "" {
		t.Error("diff block not flushed")
	}
}

func TestOpenRecorderTruncates(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ResultFile), []byte("9: PASS\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	rec, err := OpenRecorder(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := rec.Close(); err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, filepath.Join(dir, ResultFile)); got != "" {
		t.Errorf("previous report not truncated: %q", got)
	}
}

func TestOpenRecorderMissingDir(t *testing.T) {
	_, err := OpenRecorder(filepath.Join(t.TempDir(), "absent"))
	if !errors.Is(err, ErrResultsUnavailable) {
		t.Fatalf("expected ErrResultsUnavailable, got %v", err)
	}
}
