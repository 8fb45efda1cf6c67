// Package reconcile matches invoices against cash settlements per
// counterparty to produce debtor and creditor balances and aging.
package reconcile

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
)

// Role selects which side of the business a reconciliation is for.
type Role string

const (
	Debtor   Role = "debtor"
	Creditor Role = "creditor"
)

// ParseRole parses "debtor" or "creditor".
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case Debtor, Creditor:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// sources returns the source kinds counted as invoiced and settled.
func (r Role) sources() (invoiced, settled model.SourceKind) {
	if r == Creditor {
		return model.SourceInvoiceReceived, model.SourceCashDisbursement
	}
	return model.SourceInvoiceIssued, model.SourceCashReceipt
}

// PartyBalance is the reconciled position with one counterparty.
//
//	Cleared + Outstanding == InvoicedTotal
//	Cleared + Overpayment == SettledTotal
type PartyBalance struct {
	Counterparty  string          `json:"counterparty"`
	InvoicedTotal decimal.Decimal `json:"invoiced_total"`
	SettledTotal  decimal.Decimal `json:"settled_total"`
	Cleared       decimal.Decimal `json:"cleared"`
	Outstanding   decimal.Decimal `json:"outstanding"`
	Overpayment   decimal.Decimal `json:"overpayment"`
}

// Reconcile sums invoiced and settled amounts per counterparty. Matching is
// by exact, case-sensitive display name. Counterparties that only appear in
// settlements are reported with nothing invoiced and the whole settlement as
// overpayment. Rows are sorted by counterparty.
func Reconcile(entries []model.LedgerEntry, role Role) []PartyBalance {
	invoicedKind, settledKind := role.sources()

	totals := make(map[string]*PartyBalance)
	get := func(name string) *PartyBalance {
		pb, ok := totals[name]
		if !ok {
			pb = &PartyBalance{Counterparty: name}
			totals[name] = pb
		}
		return pb
	}

	for _, e := range entries {
		switch e.SourceKind {
		case invoicedKind:
			pb := get(e.Counterparty)
			pb.InvoicedTotal = pb.InvoicedTotal.Add(e.Amount)
		case settledKind:
			pb := get(e.Counterparty)
			pb.SettledTotal = pb.SettledTotal.Add(e.Amount)
		}
	}

	result := make([]PartyBalance, 0, len(totals))
	for _, pb := range totals {
		result = append(result, settle(*pb))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Counterparty < result[j].Counterparty
	})
	return result
}

func settle(pb PartyBalance) PartyBalance {
	pb.Cleared = decimal.Min(pb.InvoicedTotal, pb.SettledTotal)
	pb.Outstanding = decimal.Max(decimal.Zero, pb.InvoicedTotal.Sub(pb.SettledTotal))
	pb.Overpayment = decimal.Max(decimal.Zero, pb.SettledTotal.Sub(pb.InvoicedTotal))
	return pb
}

// Totals sums a set of party balances.
func Totals(rows []PartyBalance) PartyBalance {
	var t PartyBalance
	for _, r := range rows {
		t.InvoicedTotal = t.InvoicedTotal.Add(r.InvoicedTotal)
		t.SettledTotal = t.SettledTotal.Add(r.SettledTotal)
		t.Cleared = t.Cleared.Add(r.Cleared)
		t.Outstanding = t.Outstanding.Add(r.Outstanding)
		t.Overpayment = t.Overpayment.Add(r.Overpayment)
	}
	return t
}
