// Package engine runs the reporting pipeline over one snapshot: catalog
// build, normalization, aggregation, then reconciliation or statement
// composition for the requested report kind.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/cleared-dev/tally/internal/accounts"
	"github.com/cleared-dev/tally/internal/diag"
	"github.com/cleared-dev/tally/internal/journal"
	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/reconcile"
	"github.com/cleared-dev/tally/internal/reports"
)

// ErrBadRequest is wrapped by errors caused by the request rather than the
// snapshot: an unknown kind or parent account, or an inverted period.
var ErrBadRequest = errors.New("invalid report request")

// Options configures an Engine.
type Options struct {
	Journal      journal.Options
	CashAccounts []string // sub-accounts treated as cash by the cash-flow statement
	AgingBuckets []int    // upper day bounds; nil means reconcile.DefaultBuckets
}

// Engine produces reports. It holds no per-request state and is safe for
// concurrent use.
type Engine struct {
	opts Options
	log  *slog.Logger
}

// New creates an Engine. A nil logger discards output.
func New(opts Options, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Engine{opts: opts, log: log}
}

// Request selects one report and its parameters. Zero dates leave the
// period open on that side.
type Request struct {
	Kind          Kind
	Start         time.Time
	End           time.Time
	ParentAccount string
	AsOf          time.Time // aging only; defaults to End, then the latest entry date
}

// Period returns the reporting period of the request.
func (r Request) Period() ledger.Period {
	return ledger.Period{Start: r.Start, End: r.End}
}

func (r Request) validate() error {
	if k, err := ParseKind(string(r.Kind)); err != nil || k != r.Kind {
		return fmt.Errorf("%w: unknown report kind %q", ErrBadRequest, r.Kind)
	}
	if !r.Start.IsZero() && !r.End.IsZero() && r.End.Before(r.Start) {
		return fmt.Errorf("%w: end date %s is before start date %s",
			ErrBadRequest, r.End.Format(time.DateOnly), r.Start.Format(time.DateOnly))
	}
	return nil
}

// Report is the payload for one request. Exactly one of the report fields
// is set, matching Kind. Diagnostics holds everything the pipeline skipped.
type Report struct {
	Kind          Kind          `json:"kind"`
	Period        ledger.Period `json:"period"`
	ParentAccount string        `json:"parent_account,omitempty"`

	TrialBalance    *ledger.TrialBalance      `json:"trial_balance,omitempty"`
	BalanceSheet    *reports.BalanceSheet     `json:"balance_sheet,omitempty"`
	IncomeStatement *reports.IncomeStatement  `json:"income_statement,omitempty"`
	CashFlow        *reports.CashFlow         `json:"cash_flow,omitempty"`
	NetAssets       *reports.NetAssetMovement `json:"net_assets,omitempty"`
	Budget          *reports.BudgetVsActual   `json:"budget,omitempty"`
	Parties         []reconcile.PartyBalance  `json:"parties"`
	PartyTotals     *reconcile.PartyBalance   `json:"party_totals,omitempty"`
	Aging           *reconcile.Aging          `json:"aging,omitempty"`

	Diagnostics diag.List `json:"diagnostics"`
}

// Run produces one report. The returned error wraps
// diag.ErrInvalidAccountRecord when the catalog is unusable,
// diag.ErrImbalancedBatch when posted debits and credits disagree, and
// ErrBadRequest for invalid parameters. Cancellation is checked between
// stages.
func (e *Engine) Run(ctx context.Context, snap model.Snapshot, req Request) (*Report, error) {
	log := e.log.With("kind", string(req.Kind))
	rep, err := e.run(ctx, snap, req, log)
	if err != nil {
		log.Error("report failed", "error", err)
		return nil, err
	}
	if len(rep.Diagnostics) > 0 {
		args := []any{"diagnostics", len(rep.Diagnostics)}
		for kind, n := range rep.Diagnostics.ByKind() {
			args = append(args, string(kind), n)
		}
		log.Info("report has diagnostics", args...)
	}
	return rep, nil
}

func (e *Engine) run(ctx context.Context, snap model.Snapshot, req Request, log *slog.Logger) (*Report, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx, err := accounts.Build(snap.Accounts)
	if err != nil {
		return nil, fmt.Errorf("building account catalog: %w", err)
	}
	log.Debug("catalog built", "parents", len(idx.Parents()), "sub_accounts", len(idx.All()))

	if req.ParentAccount != "" {
		if _, ok := idx.Parent(req.ParentAccount); !ok {
			return nil, fmt.Errorf("%w: unknown parent account %q", ErrBadRequest, req.ParentAccount)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, diags := journal.Normalize(snap.Sources, e.opts.Journal)
	log.Debug("sources normalized", "records", snap.Sources.Len(), "entries", len(entries), "skipped", len(diags))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	period := req.Period()
	tb, aggDiags, err := ledger.Aggregate(entries, idx, snap.Opening, period)
	diags = append(diags, aggDiags...)
	if err != nil {
		return nil, fmt.Errorf("aggregating ledger: %w", err)
	}
	log.Debug("ledger aggregated", "posted", len(tb.Entries), "total_debit", tb.TotalDebit.StringFixed(2))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rep := &Report{Kind: req.Kind, Period: period, ParentAccount: req.ParentAccount}
	switch req.Kind {
	case KindTrialBalance:
		if req.ParentAccount != "" {
			tb = tb.ForParent(req.ParentAccount)
		}
		rep.TrialBalance = tb
	case KindBalanceSheet:
		bs := reports.BuildBalanceSheet(tb)
		rep.BalanceSheet = &bs
	case KindIncomeStatement:
		is := reports.BuildIncomeStatement(tb)
		rep.IncomeStatement = &is
	case KindCashFlow:
		cf := reports.BuildCashFlow(tb, e.cashAccounts(), period)
		if req.ParentAccount != "" {
			cf = narrowCashFlow(cf, req.ParentAccount)
		}
		rep.CashFlow = &cf
	case KindNetAssets:
		m := reports.BuildNetAssetMovement(tb, reports.NetAssetAccounts(tb, req.ParentAccount), period)
		rep.NetAssets = &m
	case KindBudget:
		b, budgetDiags := reports.BuildBudgetVsActual(tb, snap.Budget, req.ParentAccount)
		diags = append(diags, budgetDiags...)
		rep.Budget = &b
	case KindDebtors, KindCreditors:
		parties := reconcile.Reconcile(posted(entries, idx, period), req.Kind.role())
		totals := reconcile.Totals(parties)
		rep.Parties = parties
		rep.PartyTotals = &totals
	case KindDebtorAging, KindCreditorAging:
		live := posted(entries, idx, period)
		aging := reconcile.Age(live, req.Kind.role(), asOf(req, live), e.opts.AgingBuckets)
		rep.Aging = &aging
	}

	if diags == nil {
		diags = diag.List{}
	}
	rep.Diagnostics = diags
	return rep, nil
}

// RunAll runs every request concurrently against the same snapshot and
// returns the reports in request order. The first failure cancels the rest.
func (e *Engine) RunAll(ctx context.Context, snap model.Snapshot, reqs []Request) ([]*Report, error) {
	out := make([]*Report, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	for i, req := range reqs {
		g.Go(func() error {
			rep, err := e.Run(ctx, snap, req)
			if err != nil {
				return fmt.Errorf("%s: %w", req.Kind, err)
			}
			out[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) cashAccounts() []string {
	if len(e.opts.CashAccounts) > 0 {
		return e.opts.CashAccounts
	}
	if e.opts.Journal.CashAccount != "" {
		return []string{e.opts.Journal.CashAccount}
	}
	return []string{accounts.DefaultCashAccount, accounts.DefaultBankAccount}
}

// posted returns the entries that resolve against the catalog and are not
// dated after the period. Party balances are cumulative, so the period
// start does not apply.
func posted(entries []model.LedgerEntry, idx *accounts.Index, period ledger.Period) []model.LedgerEntry {
	out := make([]model.LedgerEntry, 0, len(entries))
	for _, e := range entries {
		if period.AfterEnd(e.Date) || !idx.Exists(e.DebitAccount) || !idx.Exists(e.CreditAccount) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func asOf(req Request, entries []model.LedgerEntry) time.Time {
	switch {
	case !req.AsOf.IsZero():
		return req.AsOf
	case !req.End.IsZero():
		return req.End
	}
	var latest time.Time
	for _, e := range entries {
		if e.Date.After(latest) {
			latest = e.Date
		}
	}
	return latest
}

func narrowCashFlow(cf reports.CashFlow, parent string) reports.CashFlow {
	groups := make([]reports.CashFlowGroup, 0, 1)
	cf.TotalReceipts = decimal.Zero
	cf.TotalDisbursements = decimal.Zero
	for _, g := range cf.Groups {
		if g.Category != parent {
			continue
		}
		groups = append(groups, g)
		cf.TotalReceipts = cf.TotalReceipts.Add(g.Receipts)
		cf.TotalDisbursements = cf.TotalDisbursements.Add(g.Disbursements)
	}
	cf.Groups = groups
	cf.NetCashFlow = cf.TotalReceipts.Sub(cf.TotalDisbursements)
	return cf
}
