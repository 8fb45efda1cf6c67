// Package ledger aggregates canonical entries into a trial balance.
package ledger

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/accounts"
	"github.com/cleared-dev/tally/internal/diag"
	"github.com/cleared-dev/tally/internal/model"
)

// AccountBalance is one trial balance row.
type AccountBalance struct {
	Account        string            `json:"account"`
	ParentAccount  string            `json:"parent_account"`
	NoteNumber     string            `json:"note_number,omitempty"`
	Type           model.AccountType `json:"type"`
	OpeningBalance decimal.Decimal   `json:"opening_balance"`
	TotalDebit     decimal.Decimal   `json:"total_debit"`
	TotalCredit    decimal.Decimal   `json:"total_credit"`
	ClosingBalance decimal.Decimal   `json:"closing_balance"`
}

// Movement returns the period movement signed by the account's normal side.
func (b AccountBalance) Movement() decimal.Decimal {
	if b.Type.DebitNormal() {
		return b.TotalDebit.Sub(b.TotalCredit)
	}
	return b.TotalCredit.Sub(b.TotalDebit)
}

// Rollup sums trial balance rows sharing a parent account or note number.
type Rollup struct {
	Key            string          `json:"key"`
	Accounts       []string        `json:"accounts"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	TotalDebit     decimal.Decimal `json:"total_debit"`
	TotalCredit    decimal.Decimal `json:"total_credit"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
}

// TrialBalance is the aggregator output every statement is composed from.
type TrialBalance struct {
	Period      Period              `json:"period"`
	Rows        []AccountBalance    `json:"rows"`
	ByParent    []Rollup            `json:"by_parent"`
	ByNote      []Rollup            `json:"by_note"`
	TotalDebit  decimal.Decimal     `json:"total_debit"`
	TotalCredit decimal.Decimal     `json:"total_credit"`
	Entries     []model.LedgerEntry `json:"-"` // posted entries inside the period
}

// Aggregate posts entries against the catalog. Each entry adds its amount
// to exactly one debit and one credit accumulator. Entries referencing an
// unknown account are excluded and reported. Entries dated before the
// period roll into opening balances; entries after it are ignored. Every
// catalog sub-account appears in the result, in catalog order.
//
// The returned error wraps diag.ErrImbalancedBatch if total debits and
// credits disagree.
func Aggregate(entries []model.LedgerEntry, idx *accounts.Index, opening map[string]decimal.Decimal, period Period) (*TrialBalance, diag.List, error) {
	var diags diag.List

	all := idx.All()
	rows := make([]AccountBalance, len(all))
	pos := make(map[string]int, len(all))
	for i, e := range all {
		pos[e.SubAccount] = i
		rows[i] = AccountBalance{
			Account:        e.SubAccount,
			ParentAccount:  e.ParentAccount,
			NoteNumber:     e.NoteNumber,
			Type:           e.Type,
			OpeningBalance: decimal.Zero,
			TotalDebit:     decimal.Zero,
			TotalCredit:    decimal.Zero,
		}
	}

	names := make([]string, 0, len(opening))
	for name := range opening {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		i, ok := pos[name]
		if !ok {
			diags = append(diags, diag.Unresolved(model.SourceOpeningBalance, name, "sub_account", name))
			continue
		}
		rows[i].OpeningBalance = opening[name]
	}

	tb := &TrialBalance{Period: period, Entries: []model.LedgerEntry{}}
	for _, e := range entries {
		di, dok := pos[e.DebitAccount]
		ci, cok := pos[e.CreditAccount]
		if !dok {
			diags = append(diags, diag.Unresolved(e.SourceKind, e.Reference, "debit_account", e.DebitAccount))
		}
		if !cok {
			diags = append(diags, diag.Unresolved(e.SourceKind, e.Reference, "credit_account", e.CreditAccount))
		}
		if !dok || !cok {
			continue
		}

		if e.ParentAccount == "" {
			if categoryIsDebit(e.SourceKind) {
				e.ParentAccount = rows[di].ParentAccount
			} else {
				e.ParentAccount = rows[ci].ParentAccount
			}
		}

		switch {
		case period.AfterEnd(e.Date):
			continue
		case period.BeforeStart(e.Date):
			rows[di].OpeningBalance = rows[di].OpeningBalance.Add(signed(rows[di].Type, e.Amount, true))
			rows[ci].OpeningBalance = rows[ci].OpeningBalance.Add(signed(rows[ci].Type, e.Amount, false))
		default:
			rows[di].TotalDebit = rows[di].TotalDebit.Add(e.Amount)
			rows[ci].TotalCredit = rows[ci].TotalCredit.Add(e.Amount)
			tb.Entries = append(tb.Entries, e)
		}
	}

	for i := range rows {
		rows[i].ClosingBalance = closing(rows[i])
	}
	tb.Rows = rows
	tb.summarize(idx.Parents(), idx.Notes())

	if err := tb.Check(); err != nil {
		return nil, diags, err
	}
	return tb, diags, nil
}

// Check verifies the double-entry invariant over the whole batch.
func (tb *TrialBalance) Check() error {
	if !tb.TotalDebit.Equal(tb.TotalCredit) {
		return fmt.Errorf("%w: total debit %s != total credit %s",
			diag.ErrImbalancedBatch, tb.TotalDebit.StringFixed(2), tb.TotalCredit.StringFixed(2))
	}
	return nil
}

// Row returns the row for a sub-account.
func (tb *TrialBalance) Row(account string) (AccountBalance, bool) {
	for _, r := range tb.Rows {
		if r.Account == account {
			return r, true
		}
	}
	return AccountBalance{}, false
}

// ForParent returns a view narrowed to one parent account: its rows, its
// roll-up, and the entries touching its sub-accounts. Totals cover the
// narrowed rows only, so the view is not expected to balance.
func (tb *TrialBalance) ForParent(parent string) *TrialBalance {
	view := &TrialBalance{Period: tb.Period, Entries: []model.LedgerEntry{}}
	subs := make(map[string]bool)
	var notes []string
	for _, r := range tb.Rows {
		if r.ParentAccount != parent {
			continue
		}
		view.Rows = append(view.Rows, r)
		subs[r.Account] = true
		if r.NoteNumber != "" && (len(notes) == 0 || notes[len(notes)-1] != r.NoteNumber) {
			notes = append(notes, r.NoteNumber)
		}
	}
	for _, e := range tb.Entries {
		if subs[e.DebitAccount] || subs[e.CreditAccount] {
			view.Entries = append(view.Entries, e)
		}
	}
	view.summarize([]string{parent}, notes)
	return view
}

func (tb *TrialBalance) summarize(parents, notes []string) {
	tb.TotalDebit = decimal.Zero
	tb.TotalCredit = decimal.Zero
	for _, r := range tb.Rows {
		tb.TotalDebit = tb.TotalDebit.Add(r.TotalDebit)
		tb.TotalCredit = tb.TotalCredit.Add(r.TotalCredit)
	}
	tb.ByParent = rollup(tb.Rows, parents, func(r AccountBalance) string { return r.ParentAccount })
	tb.ByNote = rollup(tb.Rows, notes, func(r AccountBalance) string { return r.NoteNumber })
}

// rollup groups rows by key in the given key order. Keys without rows are
// still listed so empty parents show up with zero totals.
func rollup(rows []AccountBalance, keys []string, keyOf func(AccountBalance) string) []Rollup {
	groups := make(map[string]*Rollup, len(keys))
	out := make([]Rollup, 0, len(keys))
	for _, k := range keys {
		groups[k] = &Rollup{
			Key:            k,
			Accounts:       []string{},
			OpeningBalance: decimal.Zero,
			TotalDebit:     decimal.Zero,
			TotalCredit:    decimal.Zero,
			ClosingBalance: decimal.Zero,
		}
	}
	for _, r := range rows {
		g, ok := groups[keyOf(r)]
		if !ok {
			continue
		}
		g.Accounts = append(g.Accounts, r.Account)
		g.OpeningBalance = g.OpeningBalance.Add(r.OpeningBalance)
		g.TotalDebit = g.TotalDebit.Add(r.TotalDebit)
		g.TotalCredit = g.TotalCredit.Add(r.TotalCredit)
		g.ClosingBalance = g.ClosingBalance.Add(r.ClosingBalance)
	}
	for _, k := range keys {
		out = append(out, *groups[k])
	}
	return out
}

func closing(r AccountBalance) decimal.Decimal {
	if r.Type.DebitNormal() {
		return r.OpeningBalance.Add(r.TotalDebit).Sub(r.TotalCredit)
	}
	return r.OpeningBalance.Sub(r.TotalDebit).Add(r.TotalCredit)
}

// signed returns the effect of posting amount on one side of an account,
// expressed in the account's normal-balance sign.
func signed(t model.AccountType, amount decimal.Decimal, debit bool) decimal.Decimal {
	if t.DebitNormal() == debit {
		return amount
	}
	return amount.Neg()
}

// categoryIsDebit reports which leg of an entry names its category: the
// non-cash leg of cash records and the line account of invoices.
func categoryIsDebit(kind model.SourceKind) bool {
	switch kind {
	case model.SourceCashDisbursement, model.SourceInvoiceReceived, model.SourceJournalEntry:
		return true
	default:
		return false
	}
}
