package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/importer"
)

func newSourcesCommand() *cobra.Command {
	var repoDir string

	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List the source files found in a snapshot directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := filepath.Abs(repoDir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			reg := importer.DefaultRegistry()
			files, err := importer.Scan(dir, reg)
			if err != nil {
				return err
			}
			present := make(map[string]importer.FileInfo, len(files))
			for _, fi := range files {
				present[fi.Format] = fi
			}

			out := cmd.OutOrStdout()
			for _, p := range reg.Parsers() {
				fi, ok := present[p.Format()]
				if !ok {
					fmt.Fprintf(out, "%-18s %-30s missing\n", p.Format(), p.Path())
					continue
				}
				fmt.Fprintf(out, "%-18s %-30s %d bytes\n", p.Format(), p.Path(), fi.Size)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&repoDir, "repo", ".", "snapshot directory")
	return cmd
}
