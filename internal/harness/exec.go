package harness

import (
	"context"
	"errors"
	"os/exec"
	"time"
)

// waitDelay bounds how long Wait blocks after the process is killed.
const waitDelay = 2 * time.Second

// ExecKind classifies how a run of the subject binary ended.
type ExecKind int

const (
	ExecOK      ExecKind = iota // exit code zero
	ExecCrash                   // non-zero exit or killed by a signal
	ExecError                   // could not be launched or waited on
	ExecTimeout                 // exceeded the configured timeout
)

// ExecResult is the classified outcome of one run of the subject binary.
type ExecResult struct {
	Kind     ExecKind
	ExitCode int
	Err      error
	Duration time.Duration
}

// Runner runs the subject binary in a case's working directory.
type Runner interface {
	Run(ctx context.Context, binary, dir string) ExecResult
}

// ProcessRunner launches the binary as a child process with no arguments.
// Standard streams are attached to the null device; only files on disk
// matter. A zero Timeout waits indefinitely.
type ProcessRunner struct {
	Timeout time.Duration
}

// Run implements Runner.
func (r ProcessRunner) Run(ctx context.Context, binary, dir string) ExecResult {
	runCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	start := time.Now()
	// #nosec G204 -- the binary under test is the whole point.
	cmd := exec.CommandContext(runCtx, binary)
	cmd.Dir = dir
	setProcessGroup(cmd)

	err := cmd.Run()
	res := ExecResult{Duration: time.Since(start), Err: err}
	if err == nil {
		res.Kind = ExecOK
		return res
	}

	var exitErr *exec.ExitError
	switch {
	case r.Timeout > 0 && ctx.Err() == nil && errors.Is(runCtx.Err(), context.DeadlineExceeded):
		res.Kind = ExecTimeout
	case errors.As(err, &exitErr):
		res.Kind = ExecCrash
		res.ExitCode = exitErr.ExitCode()
	default:
		res.Kind = ExecError
	}
	return res
}
