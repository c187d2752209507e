package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/dshills/strata/internal/interpolate"
	"github.com/dshills/strata/internal/loader"
	"github.com/dshills/strata/internal/merge"
	"github.com/dshills/strata/internal/source"
)

const version = "0.1.0"

// Exit codes
const (
	ExitSuccess      = 0
	ExitUsageError   = 2
	ExitNotFound     = 3
	ExitMergeError   = 4
	ExitRuntimeError = 5
)

// Output streams, replaced in tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// Persistent flags
var (
	flagLogLevel levelValue
	flagEnvFile  string
)

var rootCmd = &cobra.Command{
	Use:   "strata",
	Short: "Hierarchical configuration loader",
	Long: "Strata merges layered YAML, JSON and TOML sources into one configuration tree, " +
		"optionally interpolating Jinja templates against the merged result.",
	SilenceUsage: true,
}

// Run executes the root command and returns an exit code.
func Run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	exitCode = ExitSuccess
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Cobra already prints the error
		return ExitUsageError
	}

	return exitCode
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

// exitCodeFor maps a load failure to its exit code.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, merge.ErrInvalidMethod):
		return ExitUsageError
	case errors.Is(err, source.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, merge.ErrUnsupported), errors.Is(err, interpolate.ErrInterpolation):
		return ExitMergeError
	default:
		return ExitRuntimeError
	}
}

// newLogger returns a text logger on stderr. An unparsable level falls back
// to warning.
func newLogger(level string) *slog.Logger {
	lvl, err := loader.ParseLevel(level)
	if err != nil {
		lvl = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: lvl}))
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print strata version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(stdout, "strata version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().Var(&flagLogLevel, "log-level", "Log level (critical, error, warning, info, debug)")
	rootCmd.PersistentFlags().StringVar(&flagEnvFile, "env-file", "", "Read STRATA_* settings from a dotenv file")

	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(methodsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)
}
