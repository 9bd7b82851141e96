package harness

import (
	"fmt"
	"time"
)

// Case is one numbered fixture directory under the source tree.
type Case struct {
	ID     string // directory name, digits only
	Source string // read-only fixtures and reference artifacts
	Work   string // staged copy under the results root
}

// Status is the classification of a processed case.
type Status string

const (
	StatusPass    Status = "PASS"
	StatusFail    Status = "FAIL"
	StatusError   Status = "ERROR"
	StatusSkip    Status = "SKIP"
	StatusTimeout Status = "TIMEOUT"
)

// Reasons attached to outcomes that are not free-form messages.
const (
	ReasonCrash       = "Crash"
	ReasonNoReference = "No reference logs"
)

// Outcome is the single result of processing one case.
type Outcome struct {
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// String renders the outcome the way it appears in test_result.txt,
// e.g. "PASS", "FAIL (Crash)", "SKIP (No reference logs)".
func (o Outcome) String() string {
	if o.Reason == "" {
		return string(o.Status)
	}
	return fmt.Sprintf("%s (%s)", o.Status, o.Reason)
}

// DiffRecord is the unified diff of one reference artifact against the
// artifact the binary produced.
type DiffRecord struct {
	CaseID string `json:"case_id"`
	Path   string `json:"path"`
	Text   string `json:"diff"`
}

// CaseResult is everything recorded about one case.
type CaseResult struct {
	ID       string        `json:"id"`
	Outcome  Outcome       `json:"outcome"`
	ExitCode int           `json:"exit_code,omitempty"`
	Missing  []string      `json:"missing,omitempty"`
	Diffs    []DiffRecord  `json:"diffs,omitempty"`
	Duration time.Duration `json:"-"`
}

// Regressed reports whether the case counts against the run.
func (r CaseResult) Regressed() bool {
	switch r.Outcome.Status {
	case StatusFail, StatusError, StatusTimeout:
		return true
	default:
		return false
	}
}

// Summary holds per-status counts for a run.
type Summary struct {
	Total    int `json:"total"`
	Passed   int `json:"passed"`
	Failed   int `json:"failed"`
	Errored  int `json:"errored"`
	Skipped  int `json:"skipped"`
	TimedOut int `json:"timed_out"`
}

// Report is the outcome of a whole run, in case discovery order.
type Report struct {
	ResultPath string       `json:"-"`
	DiffPath   string       `json:"-"`
	Results    []CaseResult `json:"results"`
}

// Summary counts results by status.
func (r *Report) Summary() Summary {
	s := Summary{Total: len(r.Results)}
	for _, res := range r.Results {
		switch res.Outcome.Status {
		case StatusPass:
			s.Passed++
		case StatusFail:
			s.Failed++
		case StatusError:
			s.Errored++
		case StatusSkip:
			s.Skipped++
		case StatusTimeout:
			s.TimedOut++
		}
	}
	return s
}

// OK is true when no case failed, errored or timed out. Skipped cases
// do not count against the run.
func (r *Report) OK() bool {
	for _, res := range r.Results {
		if res.Regressed() {
			return false
		}
	}
	return true
}
