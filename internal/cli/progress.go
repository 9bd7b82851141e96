package cli

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/ppiankov/regress/internal/harness"
)

// ANSI color codes.
const (
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorReset  = "\033[0m"
)

// progress prints "[id] Running... OUTCOME" per case.
type progress struct {
	w     io.Writer
	color bool
}

func newProgress(w io.Writer) *progress {
	p := &progress{w: w}
	if f, ok := w.(*os.File); ok {
		p.color = term.IsTerminal(int(f.Fd()))
	}
	return p
}

func (p *progress) CaseStarted(c harness.Case) {
	fmt.Fprintf(p.w, "[%s] Running...", c.ID)
}

func (p *progress) CaseFinished(res harness.CaseResult) {
	fmt.Fprintf(p.w, " %s\n", p.paint(res.Outcome))
	logger.Debug("case finished", "id", res.ID, "duration", res.Duration)
}

func (p *progress) paint(o harness.Outcome) string {
	s := o.String()
	if !p.color {
		return s
	}
	c := colorRed
	switch o.Status {
	case harness.StatusPass:
		c = colorGreen
	case harness.StatusSkip:
		c = colorYellow
	}
	return c + s + colorReset
}
