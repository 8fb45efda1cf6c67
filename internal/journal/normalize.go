// Package journal normalizes heterogeneous source journals into canonical
// double-entry ledger entries.
package journal

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/diag"
	"github.com/cleared-dev/tally/internal/id"
	"github.com/cleared-dev/tally/internal/model"
)

// Options supplies the sub-accounts used when a source record leaves its
// cash or counterparty leg implicit.
type Options struct {
	CashAccount       string
	ReceivableAccount string
	PayableAccount    string
}

var validate = validator.New(validator.WithRequiredStructEnabled())

var hundred = decimal.NewFromInt(100)

// Normalize converts every source record into LedgerEntry values. Records
// that cannot be converted are skipped and reported as diagnostics; nothing
// is dropped silently. The result is ordered by date, then by source kind
// and position within the source.
func Normalize(src model.Sources, opts Options) ([]model.LedgerEntry, diag.List) {
	n := &normalizer{opts: opts, entries: make([]model.LedgerEntry, 0, src.Len())}

	for i, r := range src.Receipts {
		n.receipt(i+1, r)
	}
	for i, d := range src.Disbursements {
		n.disbursement(i+1, d)
	}
	for i, inv := range src.InvoicesIssued {
		n.invoice(model.SourceInvoiceIssued, i+1, inv)
	}
	for i, inv := range src.InvoicesReceived {
		n.invoice(model.SourceInvoiceReceived, i+1, inv)
	}
	for i, j := range src.Journal {
		n.journal(i+1, j)
	}

	sort.SliceStable(n.entries, func(i, j int) bool {
		return n.entries[i].Date.Before(n.entries[j].Date)
	})
	return n.entries, n.diags
}

type normalizer struct {
	opts    Options
	entries []model.LedgerEntry
	diags   diag.List
}

func (n *normalizer) receipt(row int, r model.CashReceipt) {
	ref := reference(model.SourceCashReceipt, row, r.Reference)
	if !n.parsed(model.SourceCashReceipt, row, ref, r.Unparsed) || !n.valid(model.SourceCashReceipt, row, ref, r) {
		return
	}
	amount, ok := n.cashAmount(model.SourceCashReceipt, row, ref, r.Cash, r.Bank)
	if !ok {
		return
	}
	cash := firstNonEmpty(r.CashAccount, n.opts.CashAccount)
	if cash == "" {
		n.diags = append(n.diags, diag.Malformed(model.SourceCashReceipt, row, ref, "cash_account", "missing cash account"))
		return
	}
	n.entries = append(n.entries, model.LedgerEntry{
		Date:          r.Date,
		Reference:     ref,
		Document:      ref,
		Counterparty:  strings.TrimSpace(r.FromWhomReceived),
		Description:   r.Description,
		DebitAccount:  cash,
		CreditAccount: strings.TrimSpace(r.AccountCredited),
		Amount:        amount,
		ParentAccount: r.ParentAccount,
		SourceKind:    model.SourceCashReceipt,
	})
}

func (n *normalizer) disbursement(row int, d model.CashDisbursement) {
	ref := reference(model.SourceCashDisbursement, row, d.Reference)
	if !n.parsed(model.SourceCashDisbursement, row, ref, d.Unparsed) || !n.valid(model.SourceCashDisbursement, row, ref, d) {
		return
	}
	amount, ok := n.cashAmount(model.SourceCashDisbursement, row, ref, d.Cash, d.Bank)
	if !ok {
		return
	}
	cash := firstNonEmpty(d.CashAccount, n.opts.CashAccount)
	if cash == "" {
		n.diags = append(n.diags, diag.Malformed(model.SourceCashDisbursement, row, ref, "cash_account", "missing cash account"))
		return
	}
	n.entries = append(n.entries, model.LedgerEntry{
		Date:          d.Date,
		Reference:     ref,
		Document:      ref,
		Counterparty:  strings.TrimSpace(d.ToWhomPaid),
		Description:   d.Description,
		DebitAccount:  strings.TrimSpace(d.AccountDebited),
		CreditAccount: cash,
		Amount:        amount,
		ParentAccount: d.ParentAccount,
		SourceKind:    model.SourceCashDisbursement,
	})
}

// invoice fans a split invoice out into one entry per line. Issued
// invoices debit the receivable and credit each line; received invoices
// debit each line and credit the payable.
func (n *normalizer) invoice(kind model.SourceKind, row int, inv model.Invoice) {
	ref := reference(kind, row, inv.Reference)
	if !n.parsed(kind, row, ref, inv.Unparsed) || !n.valid(kind, row, ref, inv) {
		return
	}

	fallback := n.opts.ReceivableAccount
	if kind == model.SourceInvoiceReceived {
		fallback = n.opts.PayableAccount
	}
	party := firstNonEmpty(inv.CounterpartyAccount, fallback)
	if party == "" {
		n.diags = append(n.diags, diag.Malformed(kind, row, ref, "counterparty_account", "missing counterparty account"))
		return
	}

	lines := inv.Lines
	single := len(lines) == 0
	if single {
		lines = []model.InvoiceLine{{Account: inv.Account, Amount: inv.Amount}}
	}

	for i, line := range lines {
		lineRef := ref
		field := "account"
		if !single {
			lineRef = id.FormatLineRef(ref, i+1)
			field = "lines"
		}
		account := strings.TrimSpace(line.Account)
		if account == "" {
			n.diags = append(n.diags, diag.Malformed(kind, row, lineRef, field, "missing account"))
			continue
		}
		amount, ok := n.amount(kind, row, lineRef, line.Amount)
		if !ok {
			continue
		}

		e := model.LedgerEntry{
			Date:          inv.Date,
			Reference:     lineRef,
			Document:      ref,
			Counterparty:  strings.TrimSpace(inv.Name),
			Description:   inv.Description,
			Amount:        amount,
			ParentAccount: inv.ParentAccount,
			SourceKind:    kind,
		}
		if kind == model.SourceInvoiceIssued {
			e.DebitAccount, e.CreditAccount = party, account
		} else {
			e.DebitAccount, e.CreditAccount = account, party
		}
		n.entries = append(n.entries, e)
	}
}

func (n *normalizer) journal(row int, j model.JournalEntry) {
	ref := reference(model.SourceJournalEntry, row, j.Reference)
	if !n.parsed(model.SourceJournalEntry, row, ref, j.Unparsed) || !n.valid(model.SourceJournalEntry, row, ref, j) {
		return
	}
	amount, ok := n.amount(model.SourceJournalEntry, row, ref, j.Amount)
	if !ok {
		return
	}
	n.entries = append(n.entries, model.LedgerEntry{
		Date:          j.Date,
		Reference:     ref,
		Document:      ref,
		Counterparty:  strings.TrimSpace(j.Counterparty),
		Description:   j.Description,
		DebitAccount:  strings.TrimSpace(j.DebitAccount),
		CreditAccount: strings.TrimSpace(j.CreditAccount),
		Amount:        amount,
		ParentAccount: j.ParentAccount,
		SourceKind:    model.SourceJournalEntry,
	})
}

// parsed reports every column whose text could not be read. Such a record
// is skipped whole: a bad cash figure next to a good bank figure would
// otherwise post the wrong amount.
func (n *normalizer) parsed(kind model.SourceKind, row int, ref string, unparsed []model.Unparsed) bool {
	for _, u := range unparsed {
		n.diags = append(n.diags, diag.Unparsable(kind, row, ref, u.Field, u.Raw))
	}
	return len(unparsed) == 0
}

// valid runs the struct-level required checks and records one diagnostic
// per missing field.
func (n *normalizer) valid(kind model.SourceKind, row int, ref string, record any) bool {
	err := validate.Struct(record)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		n.diags = append(n.diags, diag.Malformed(kind, row, ref, "", err.Error()))
		return false
	}
	for _, fe := range verrs {
		field := snakeCase(fe.Field())
		n.diags = append(n.diags, diag.Malformed(kind, row, ref, field, "missing "+strings.ReplaceAll(field, "_", " ")))
	}
	return false
}

// cashAmount sums the cash and bank columns. At least one must be present.
func (n *normalizer) cashAmount(kind model.SourceKind, row int, ref string, cash, bank decimal.NullDecimal) (decimal.Decimal, bool) {
	if !cash.Valid && !bank.Valid {
		n.diags = append(n.diags, diag.Malformed(kind, row, ref, "amount", "missing amount: neither cash nor bank given"))
		return decimal.Zero, false
	}
	total := decimal.Zero
	if cash.Valid {
		total = total.Add(cash.Decimal)
	}
	if bank.Valid {
		total = total.Add(bank.Decimal)
	}
	return n.amount(kind, row, ref, decimal.NullDecimal{Decimal: total, Valid: true})
}

func (n *normalizer) amount(kind model.SourceKind, row int, ref string, amt decimal.NullDecimal) (decimal.Decimal, bool) {
	switch {
	case !amt.Valid:
		n.diags = append(n.diags, diag.Malformed(kind, row, ref, "amount", "missing amount"))
	case amt.Decimal.IsNegative():
		n.diags = append(n.diags, diag.Malformed(kind, row, ref, "amount", fmt.Sprintf("negative amount %s", amt.Decimal)))
	case !amt.Decimal.Mul(hundred).Equal(amt.Decimal.Mul(hundred).Floor()):
		n.diags = append(n.diags, diag.Malformed(kind, row, ref, "amount", fmt.Sprintf("amount %s has more than 2 decimal places", amt.Decimal)))
	default:
		return amt.Decimal, true
	}
	return decimal.Zero, false
}

func reference(kind model.SourceKind, row int, ref string) string {
	if ref = strings.TrimSpace(ref); ref != "" {
		return ref
	}
	return id.FormatRowRef(string(kind), row)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// snakeCase turns a Go field name into its CSV column name.
// "FromWhomReceived" -> "from_whom_received"
func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
