// Package harness replays numbered test cases against a subject binary
// and compares the files it writes with golden references.
//
// A run discovers the case directories under the source root, then for
// each case in numeric order: stages a fresh copy under the results
// root, runs the binary inside it, diffs the produced artifacts against
// the references, and appends the outcome to test_result.txt (and any
// diff to test_diffs.log). Cases are processed strictly one at a time.
package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const dirPerm = 0o755

// Config holds the validated inputs of a run. Paths should be absolute.
type Config struct {
	BinaryPath string
	SourceDir  string
	ResultsDir string
	Timeout    time.Duration // zero means no limit
}

// Observer is notified as each case starts and finishes.
type Observer interface {
	CaseStarted(c Case)
	CaseFinished(res CaseResult)
}

type nopObserver struct{}

func (nopObserver) CaseStarted(Case)        {}
func (nopObserver) CaseFinished(CaseResult) {}

// Option configures an Engine.
type Option func(*Engine)

// WithRunner replaces the process runner.
func WithRunner(r Runner) Option {
	return func(e *Engine) { e.runner = r }
}

// WithObserver sets the progress observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// Engine executes regression runs for one configuration.
type Engine struct {
	cfg      Config
	runner   Runner
	observer Observer
}

// New creates an Engine. The default runner is a ProcessRunner using
// cfg.Timeout.
func New(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:      cfg,
		runner:   ProcessRunner{Timeout: cfg.Timeout},
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run processes every discovered case and returns the report. A non-nil
// error means the run was aborted; the returned report then holds the
// cases completed before the failure, which are also on disk.
func (e *Engine) Run(ctx context.Context) (report *Report, err error) {
	cases, err := Discover(e.cfg.SourceDir)
	if err != nil {
		return nil, err
	}
	if err := CheckLayout(e.cfg.SourceDir, e.cfg.ResultsDir); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(e.cfg.ResultsDir, dirPerm); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResultsUnavailable, err)
	}
	rec, err := OpenRecorder(e.cfg.ResultsDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rec.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close report: %w", cerr)
		}
	}()

	report = &Report{ResultPath: rec.ResultPath(), DiffPath: rec.DiffPath()}
	for _, c := range cases {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		c.Work = filepath.Join(e.cfg.ResultsDir, c.ID)
		if err := Stage(c); err != nil {
			return report, err
		}

		e.observer.CaseStarted(c)
		res := e.runCase(ctx, c)
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("case %s interrupted: %w", c.ID, err)
		}

		if err := rec.Record(res); err != nil {
			return report, err
		}
		report.Results = append(report.Results, res)
		e.observer.CaseFinished(res)
	}
	return report, nil
}

// runCase executes and classifies one staged case.
func (e *Engine) runCase(ctx context.Context, c Case) (res CaseResult) {
	start := time.Now()
	res.ID = c.ID
	defer func() { res.Duration = time.Since(start) }()

	run := e.runner.Run(ctx, e.cfg.BinaryPath, c.Work)
	switch run.Kind {
	case ExecCrash:
		res.Outcome = Outcome{Status: StatusFail, Reason: ReasonCrash}
		res.ExitCode = run.ExitCode
		return res
	case ExecTimeout:
		res.Outcome = Outcome{Status: StatusTimeout, Reason: "after " + e.cfg.Timeout.String()}
		return res
	case ExecError:
		res.Outcome = errorOutcome(run.Err)
		return res
	}

	cmp, err := Compare(c)
	if err != nil {
		res.Outcome = errorOutcome(err)
		return res
	}

	switch {
	case len(cmp.Artifacts) == 0:
		res.Outcome = Outcome{Status: StatusSkip, Reason: ReasonNoReference}
	case cmp.Clean():
		res.Outcome = Outcome{Status: StatusPass}
	default:
		res.Outcome = Outcome{Status: StatusFail}
		res.Missing = cmp.Missing
		res.Diffs = cmp.Diffs
	}
	return res
}

// errorOutcome keeps the message on one line so the summary report stays
// one line per case.
func errorOutcome(err error) Outcome {
	msg := "unknown error"
	if err != nil {
		msg = strings.Join(strings.Fields(err.Error()), " ")
	}
	return Outcome{Status: StatusError, Reason: msg}
}
