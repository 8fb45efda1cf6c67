package commands

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/config"
	"github.com/cleared-dev/tally/internal/engine"
	"github.com/cleared-dev/tally/internal/importer"
	"github.com/cleared-dev/tally/internal/server"
)

func newServeCommand(logger func(*cobra.Command) *slog.Logger) *cobra.Command {
	var repoDir string
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve reports over HTTP",
		Long:  "Serve reports over HTTP. Settings come from TALLY_ADDR, TALLY_RATE_LIMIT,\nTALLY_READ_TIMEOUT, TALLY_WRITE_TIMEOUT and TALLY_REQUEST_TIMEOUT.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := filepath.Abs(repoDir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			cfg, err := config.LoadDir(dir)
			if err != nil {
				return err
			}
			srvCfg, err := config.LoadServer()
			if err != nil {
				return err
			}
			if addr != "" {
				srvCfg.Addr = addr
			}

			// Server logs are JSON for log collectors; level follows --verbose.
			level := slog.LevelInfo
			if logger(cmd).Enabled(cmd.Context(), slog.LevelDebug) {
				level = slog.LevelDebug
			}
			log := slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			src := importer.NewDirSource(dir, log)
			eng := engine.New(engineOptions(cfg), log)
			return server.New(src, eng, *srvCfg, log).ListenAndServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "snapshot directory")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides TALLY_ADDR)")
	return cmd
}
