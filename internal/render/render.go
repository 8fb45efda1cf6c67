// Package render writes engine reports for people (aligned text tables)
// and for programs (indented JSON).
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/diag"
	"github.com/cleared-dev/tally/internal/engine"
	"github.com/cleared-dev/tally/internal/ledger"
)

// Format selects an output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat parses "table" or "json".
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTable, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table or json)", s)
	}
}

// Options carries presentation details that are not part of a report.
type Options struct {
	Business string
	Currency string
}

// Reports writes every report in order. JSON output is a single array.
func Reports(w io.Writer, reps []*engine.Report, f Format, opts Options) error {
	if f == FormatJSON {
		return JSON(w, reps)
	}
	for i, rep := range reps {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := Table(w, rep, opts); err != nil {
			return err
		}
	}
	return nil
}

// Report writes one report.
func Report(w io.Writer, rep *engine.Report, f Format, opts Options) error {
	if f == FormatJSON {
		return JSON(w, rep)
	}
	return Table(w, rep, opts)
}

// JSON writes v as indented JSON followed by a newline.
func JSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// Table writes rep as aligned text followed by its diagnostics.
func Table(w io.Writer, rep *engine.Report, opts Options) error {
	t := newTable(w)
	t.heading(rep, opts)

	switch rep.Kind {
	case engine.KindTrialBalance:
		trialBalance(t, rep.TrialBalance)
	case engine.KindBalanceSheet:
		balanceSheet(t, rep)
	case engine.KindIncomeStatement:
		incomeStatement(t, rep)
	case engine.KindCashFlow:
		cashFlow(t, rep)
	case engine.KindNetAssets:
		netAssets(t, rep)
	case engine.KindBudget:
		budget(t, rep)
	case engine.KindDebtors, engine.KindCreditors:
		parties(t, rep)
	case engine.KindDebtorAging, engine.KindCreditorAging:
		aging(t, rep)
	default:
		return fmt.Errorf("no table layout for report kind %q", rep.Kind)
	}
	diagnostics(t, rep.Diagnostics)
	return t.flush()
}

// table wraps a tabwriter; cells are tab-separated and every row ends
// with a tab so the last column aligns too.
type table struct {
	tw *tabwriter.Writer
}

func newTable(w io.Writer) *table {
	return &table{tw: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (t *table) row(cells ...string) {
	fmt.Fprintln(t.tw, strings.Join(cells, "\t")+"\t")
}

func (t *table) line(format string, args ...any) {
	fmt.Fprintf(t.tw, format+"\n", args...)
}

func (t *table) blank() {
	fmt.Fprintln(t.tw)
}

func (t *table) flush() error {
	return t.tw.Flush()
}

func (t *table) heading(rep *engine.Report, opts Options) {
	title := strings.ToUpper(strings.ReplaceAll(string(rep.Kind), "-", " "))
	if opts.Business != "" {
		t.line("%s", opts.Business)
	}
	t.line("%s", title)
	if p := periodLabel(rep.Period); p != "" {
		t.line("%s", p)
	}
	if rep.ParentAccount != "" {
		t.line("Parent account: %s", rep.ParentAccount)
	}
	if opts.Currency != "" {
		t.line("Amounts in %s", opts.Currency)
	}
	t.blank()
}

func periodLabel(p ledger.Period) string {
	switch {
	case p.Start.IsZero() && p.End.IsZero():
		return ""
	case p.Start.IsZero():
		return "Up to " + p.End.Format(time.DateOnly)
	case p.End.IsZero():
		return "From " + p.Start.Format(time.DateOnly)
	default:
		return p.Start.Format(time.DateOnly) + " to " + p.End.Format(time.DateOnly)
	}
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func diagnostics(t *table, list diag.List) {
	if len(list) == 0 {
		return
	}
	t.blank()
	t.line("Diagnostics (%d)", len(list))
	for _, d := range list {
		t.line("  %s", d.Error())
	}
}
