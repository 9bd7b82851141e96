package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/regress/internal/watch"
)

var (
	watchPoll     bool
	watchDebounce time.Duration
	watchInterval time.Duration
)

func init() {
	watchCmd.Flags().BoolVar(&watchPoll, "poll", false, "Poll for changes instead of using filesystem events")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 300*time.Millisecond, "Quiet period before a rerun")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 2*time.Second, "Scan interval with --poll")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the suite, then rerun it whenever cases or the binary change",
	Long: `Runs the suite once, then watches the source directory and the binary.
Changes are debounced and runs never overlap. The results directory is
ignored even when it lives inside the source directory.

Stop with Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	res, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := res.Harness

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rerun := func(ctx context.Context) {
		rep, err := runOnce(ctx, cmd, cfg)
		switch {
		case err != nil && ctx.Err() == nil:
			logger.Error("run failed", "err", err)
		case err == nil && !rep.OK():
			logger.Warn("regressions detected", "results", rep.ResultPath)
		}
	}
	rerun(ctx)
	if ctx.Err() != nil {
		return nil
	}

	roots := []string{cfg.SourceDir, cfg.BinaryPath}
	opts := []watch.Option{
		watch.Ignore(cfg.ResultsDir),
		watch.Debounce(watchDebounce),
		watch.Interval(watchInterval),
		watch.OnError(func(err error) { logger.Warn("watch error", "err", err) }),
	}
	logger.Info("watching for changes", "source", cfg.SourceDir, "binary", cfg.BinaryPath)

	if watchPoll {
		return watch.NewPollWatcher(roots, rerun, opts...).Run(ctx)
	}
	return watch.New(roots, rerun, opts...).Run(ctx)
}
