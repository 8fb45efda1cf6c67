package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/tally/internal/config"
	"github.com/cleared-dev/tally/internal/diag"
	"github.com/cleared-dev/tally/internal/engine"
	"github.com/cleared-dev/tally/internal/importer"
	"github.com/cleared-dev/tally/internal/render"
)

const allKinds = "all"

type reportFlags struct {
	repoDir     string
	from        string
	to          string
	fiscalYear  int
	parent      string
	asOf        string
	format      string
	diagnostics string
	strict      bool
}

func newReportCommand(logger func(*cobra.Command) *slog.Logger) *cobra.Command {
	var f reportFlags

	valid := []string{allKinds}
	for _, k := range engine.Kinds {
		valid = append(valid, string(k))
	}

	cmd := &cobra.Command{
		Use:       "report <kind>",
		Short:     "Compute a report from a snapshot directory",
		Long:      "Compute a report from a snapshot directory.\n\nKinds: " + strings.Join(valid, ", "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: valid,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd.Context(), cmd.OutOrStdout(), logger(cmd), args[0], f)
		},
	}

	cmd.Flags().StringVar(&f.repoDir, "repo", ".", "snapshot directory")
	cmd.Flags().StringVar(&f.from, "from", "", "period start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "period end date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&f.fiscalYear, "fiscal-year", 0, "report on the fiscal year starting in this calendar year")
	cmd.Flags().StringVar(&f.parent, "parent", "", "narrow the report to one parent account")
	cmd.Flags().StringVar(&f.asOf, "as-of", "", "aging date (YYYY-MM-DD); defaults to the period end")
	cmd.Flags().StringVarP(&f.format, "format", "o", string(render.FormatTable), "output format: table or json")
	cmd.Flags().StringVar(&f.diagnostics, "diagnostics", "", "also write diagnostics as CSV to this file")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "fail when any input record was skipped")
	cmd.MarkFlagsMutuallyExclusive("fiscal-year", "from")
	cmd.MarkFlagsMutuallyExclusive("fiscal-year", "to")

	return cmd
}

func runReport(ctx context.Context, out io.Writer, log *slog.Logger, kind string, f reportFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	format, err := render.ParseFormat(f.format)
	if err != nil {
		return err
	}

	dir, err := filepath.Abs(f.repoDir)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	cfg, err := config.LoadDir(dir)
	if err != nil {
		return err
	}

	req, err := buildRequest(cfg, f)
	if err != nil {
		return err
	}

	snap, err := importer.NewDirSource(dir, log).Load(ctx)
	if err != nil {
		return err
	}
	eng := engine.New(engineOptions(cfg), log)

	var reps []*engine.Report
	if kind == allKinds {
		reps, err = eng.RunAll(ctx, snap, engine.AllRequests(req))
		if err != nil {
			return err
		}
	} else {
		if req.Kind, err = engine.ParseKind(kind); err != nil {
			return err
		}
		rep, err := eng.Run(ctx, snap, req)
		if err != nil {
			return err
		}
		reps = []*engine.Report{rep}
	}

	opts := render.Options{Business: cfg.Business.Name, Currency: cfg.Business.Currency}
	if len(reps) == 1 {
		err = render.Report(out, reps[0], format, opts)
	} else {
		err = render.Reports(out, reps, format, opts)
	}
	if err != nil {
		return fmt.Errorf("rendering: %w", err)
	}

	diags := mergeDiagnostics(reps)
	if f.diagnostics != "" {
		if err := writeDiagnostics(f.diagnostics, diags); err != nil {
			return err
		}
	}
	if f.strict && len(diags) > 0 {
		return fmt.Errorf("%d input records were skipped", len(diags))
	}
	return nil
}

func buildRequest(cfg *config.Config, f reportFlags) (engine.Request, error) {
	var req engine.Request
	var err error
	if f.fiscalYear != 0 {
		if req.Start, req.End, err = cfg.FiscalYear(f.fiscalYear); err != nil {
			return req, err
		}
	}
	if req.Start.IsZero() {
		if req.Start, err = parseDate("from", f.from); err != nil {
			return req, err
		}
	}
	if req.End.IsZero() {
		if req.End, err = parseDate("to", f.to); err != nil {
			return req, err
		}
	}
	if req.AsOf, err = parseDate("as-of", f.asOf); err != nil {
		return req, err
	}
	req.ParentAccount = f.parent
	return req, nil
}

func parseDate(flag, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: want YYYY-MM-DD, got %q", flag, s)
	}
	return t, nil
}

// mergeDiagnostics returns each distinct diagnostic once, in first-seen order.
func mergeDiagnostics(reps []*engine.Report) diag.List {
	seen := make(map[diag.Diagnostic]bool)
	var out diag.List
	for _, rep := range reps {
		for _, d := range rep.Diagnostics {
			if seen[d] {
				continue
			}
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}

func writeDiagnostics(path string, diags diag.List) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating diagnostics file: %w", err)
	}
	defer f.Close()

	if err := diag.WriteCSV(f, diags); err != nil {
		return fmt.Errorf("writing diagnostics: %w", err)
	}
	return nil
}
