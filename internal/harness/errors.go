package harness

import "errors"

// Run-level failures. Each aborts the run; anything already recorded
// stays on disk.
var (
	ErrSourceUnavailable  = errors.New("source directory unavailable")
	ErrResultsUnavailable = errors.New("results directory unavailable")
	ErrStage              = errors.New("stage case")
)
