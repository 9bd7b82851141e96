package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/regress/internal/harness"
	"github.com/ppiankov/regress/internal/report"
)

var (
	runJSON   bool
	runFormat string
)

func init() {
	addRunFlags(rootCmd)
	addRunFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&runJSON, "json", false, "Also write "+report.JSONFile+" to the results directory")
	cmd.Flags().StringVarP(&runFormat, "format", "f", "text", "Summary format: text or json")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every numbered case and compare against its references",
	Long: `Discovers numbered case directories under the source directory, copies
each into the results directory, runs the binary there and compares the
produced files with the case's reference files.

Per-case outcomes go to test_result.txt and unified diffs of failing cases
to test_diffs.log, both in the results directory. Exits 1 if any case
failed, errored or timed out.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	if runFormat != "text" && runFormat != "json" {
		return fmt.Errorf("unknown format %q: use text or json", runFormat)
	}

	res, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep, err := runOnce(ctx, cmd, res.Harness)
	if err != nil {
		return err
	}
	if !rep.OK() {
		return errRegressions
	}
	return nil
}

// runOnce runs the suite and prints progress and the summary. With
// --format json the progress goes to stderr so stdout stays parseable.
func runOnce(ctx context.Context, cmd *cobra.Command, cfg harness.Config) (*harness.Report, error) {
	out := cmdOut(cmd)
	progressOut := out
	if runFormat == "json" {
		progressOut = cmdErr(cmd)
	}

	printBanner(progressOut, cfg)

	engine := harness.New(cfg, harness.WithObserver(newProgress(progressOut)))
	rep, err := engine.Run(ctx)
	if err != nil {
		return rep, fmt.Errorf("regression run aborted: %w", err)
	}

	if len(rep.Results) == 0 {
		fmt.Fprintf(progressOut, "No numbered directories found in %s\n", cfg.SourceDir)
	}

	if runJSON {
		path, err := report.WriteJSON(rep, cfg.ResultsDir)
		if err != nil {
			return rep, err
		}
		logger.Debug("wrote json report", "path", path)
	}

	switch runFormat {
	case "json":
		doc, err := report.FormatJSON(rep)
		if err != nil {
			return rep, err
		}
		fmt.Fprintln(out, doc)
	default:
		fmt.Fprintln(out)
		fmt.Fprint(out, report.FormatText(rep))
	}

	fmt.Fprintln(progressOut)
	fmt.Fprintln(progressOut, "Regression Test Completed.")
	fmt.Fprintf(progressOut, "Results: %s\n", rep.ResultPath)
	fmt.Fprintf(progressOut, "Diffs:   %s\n", rep.DiffPath)
	return rep, nil
}

func printBanner(w io.Writer, cfg harness.Config) {
	fmt.Fprintln(w, "Starting Regression Test...")
	fmt.Fprintf(w, "Binary:  %s\n", cfg.BinaryPath)
	fmt.Fprintf(w, "Source:  %s\n", cfg.SourceDir)
	fmt.Fprintf(w, "Results: %s\n", cfg.ResultsDir)
	if cfg.Timeout > 0 {
		fmt.Fprintf(w, "Timeout: %s per case\n", cfg.Timeout)
	}
	fmt.Fprintln(w)
}
