package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ppiankov/regress/internal/config"
)

var (
	configPath  string
	flagBinary  string
	flagSource  string
	flagResults string
	flagTimeout string
	verbose     bool
)

// errRegressions makes the process exit 1 without an extra log line; the
// run has already printed what failed.
var errRegressions = errors.New("regressions detected")

var logger = log.NewWithOptions(os.Stderr, log.Options{
	Prefix:          "regress",
	ReportTimestamp: true,
	TimeFormat:      time.TimeOnly,
})

var rootCmd = &cobra.Command{
	Use:   "regress",
	Short: "Golden-file regression harness for a command-line binary",
	Long: `Runs a binary once per numbered case directory, then compares the files it
produces against the reference files stored with the case.

Running regress with no subcommand is the same as "regress run".`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logger.SetLevel(log.DebugLevel)
		}
	},
	RunE: runRun,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to config YAML")
	pf.StringVar(&flagBinary, "binary", "", "Binary under test (skips the build_dirs lookup)")
	pf.StringVar(&flagSource, "source", "", "Directory holding the numbered cases")
	pf.StringVar(&flagResults, "results", "", "Directory receiving staged cases and reports")
	pf.StringVar(&flagTimeout, "timeout", "", "Per-case time limit, e.g. 2m (default: none)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errRegressions) {
			logger.Error(err)
		}
		os.Exit(1)
	}
}

// loadConfig layers the config file, the environment and flags, then
// resolves the result. Resolution warnings are logged.
func loadConfig() (*config.Resolved, error) {
	if configPath != config.DefaultPath {
		if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file %s not found", configPath)
		}
	}

	f, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	f.ApplyEnv(os.Getenv)
	f.Apply(config.Overrides{
		Binary:  flagBinary,
		Source:  flagSource,
		Results: flagResults,
		Timeout: flagTimeout,
	})

	res, err := config.Resolve(f)
	if err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		logger.Warn(w)
	}
	logger.Debug("resolved config",
		"binary", res.Harness.BinaryPath,
		"source", res.Harness.SourceDir,
		"results", res.Harness.ResultsDir,
		"timeout", res.Harness.Timeout)
	return res, nil
}

func cmdOut(cmd *cobra.Command) io.Writer {
	if cmd == nil {
		return os.Stdout
	}
	return cmd.OutOrStdout()
}

func cmdErr(cmd *cobra.Command) io.Writer {
	if cmd == nil {
		return os.Stderr
	}
	return cmd.ErrOrStderr()
}

func cmdContext(cmd *cobra.Command) context.Context {
	if cmd == nil || cmd.Context() == nil {
		return context.Background()
	}
	return cmd.Context()
}
