package commands

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/buildinfo"
	"github.com/cleared-dev/tally/internal/config"
	"github.com/cleared-dev/tally/internal/engine"
	"github.com/cleared-dev/tally/internal/journal"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:     "tally",
		Short:   "Ledger reconciliation and financial statements from CSV journals",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline stages to stderr")

	logger := func(cmd *cobra.Command) *slog.Logger {
		return newLogger(cmd.ErrOrStderr(), verbose)
	}

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newReportCommand(logger))
	rootCmd.AddCommand(newSourcesCommand())
	rootCmd.AddCommand(newServeCommand(logger))

	return rootCmd
}

// newLogger returns a text logger. Without verbose only warnings and
// errors are shown.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// engineOptions maps tally.yaml settings onto the pipeline.
func engineOptions(cfg *config.Config) engine.Options {
	return engine.Options{
		Journal: journal.Options{
			CashAccount:       cfg.Ledger.CashAccount,
			ReceivableAccount: cfg.Ledger.ReceivableAccount,
			PayableAccount:    cfg.Ledger.PayableAccount,
		},
		CashAccounts: cfg.Ledger.CashAccounts,
		AgingBuckets: cfg.Aging.Buckets,
	}
}
