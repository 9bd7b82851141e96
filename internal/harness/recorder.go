package harness

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Output files written under the results root.
const (
	ResultFile = "test_result.txt"
	DiffFile   = "test_diffs.log"
)

const bannerWidth = 40

// Recorder writes the summary report and the diff log. Both files are
// truncated on open and synced after every case, so an aborted run
// leaves a valid report for the cases already processed.
type Recorder struct {
	results *os.File
	diffs   *os.File
}

// OpenRecorder creates (or truncates) the two output files in dir.
func OpenRecorder(dir string) (*Recorder, error) {
	results, err := os.Create(filepath.Join(dir, ResultFile))
	if err != nil {
		return nil, fmt.Errorf("%w: create %s: %w", ErrResultsUnavailable, ResultFile, err)
	}
	diffs, err := os.Create(filepath.Join(dir, DiffFile))
	if err != nil {
		_ = results.Close()
		return nil, fmt.Errorf("%w: create %s: %w", ErrResultsUnavailable, DiffFile, err)
	}
	return &Recorder{results: results, diffs: diffs}, nil
}

// ResultPath returns the path of the summary report.
func (r *Recorder) ResultPath() string { return r.results.Name() }

// DiffPath returns the path of the diff log.
func (r *Recorder) DiffPath() string { return r.diffs.Name() }

// Record appends the summary line for res and, for failures with
// content, its diff-log block.
func (r *Recorder) Record(res CaseResult) error {
	if err := appendSync(r.results, SummaryLine(res)); err != nil {
		return fmt.Errorf("write %s: %w", ResultFile, err)
	}
	if block := DiffBlock(res); block != "" {
		if err := appendSync(r.diffs, block); err != nil {
			return fmt.Errorf("write %s: %w", DiffFile, err)
		}
	}
	return nil
}

// Close closes both files.
func (r *Recorder) Close() error {
	err := r.results.Close()
	if derr := r.diffs.Close(); err == nil {
		err = derr
	}
	return err
}

// SummaryLine renders "<id>: <outcome>\n".
func SummaryLine(res CaseResult) string {
	return fmt.Sprintf("%s: %s\n", res.ID, res.Outcome)
}

// DiffBlock renders the diff-log entry for a failed case, or "" when the
// case has nothing to show (passes, skips, crashes, errors).
func DiffBlock(res CaseResult) string {
	if res.Outcome.Status != StatusFail || (len(res.Missing) == 0 && len(res.Diffs) == 0) {
		return ""
	}

	banner := strings.Repeat("=", bannerWidth)
	var b strings.Builder
	b.WriteString(banner + "\n")
	fmt.Fprintf(&b, "FAIL: Case %s\n", res.ID)
	b.WriteString(banner + "\n")
	if len(res.Missing) > 0 {
		fmt.Fprintf(&b, "Missing files: %s\n", strings.Join(res.Missing, ", "))
	}
	for _, d := range res.Diffs {
		b.WriteString(d.Text)
	}
	b.WriteString("\n")
	return b.String()
}

func appendSync(f *os.File, s string) error {
	if _, err := io.WriteString(f, s); err != nil {
		return err
	}
	return f.Sync()
}
