package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SourceKind identifies which journal a ledger entry was normalized from.
type SourceKind string

const (
	SourceCashReceipt      SourceKind = "cash-receipt"
	SourceCashDisbursement SourceKind = "cash-disbursement"
	SourceInvoiceIssued    SourceKind = "invoice-issued"
	SourceInvoiceReceived  SourceKind = "invoice-received"
	SourceJournalEntry     SourceKind = "journal-entry"

	// Inputs that are not journals but can still be named in diagnostics.
	SourceOpeningBalance SourceKind = "opening-balance"
	SourceBudgetLine     SourceKind = "budget-line"
)

// SourceKinds lists every source kind in normalization order.
var SourceKinds = []SourceKind{
	SourceCashReceipt,
	SourceCashDisbursement,
	SourceInvoiceIssued,
	SourceInvoiceReceived,
	SourceJournalEntry,
}

// LedgerEntry is the canonical double-entry shape every source record is
// normalized into. One entry moves Amount from CreditAccount to DebitAccount.
type LedgerEntry struct {
	Date          time.Time       `json:"date"`
	Reference     string          `json:"reference"`
	Document      string          `json:"document,omitempty"` // source record reference; shared by the lines of a split invoice
	Counterparty  string          `json:"counterparty,omitempty"`
	Description   string          `json:"description,omitempty"`
	DebitAccount  string          `json:"debit_account"`
	CreditAccount string          `json:"credit_account"`
	Amount        decimal.Decimal `json:"amount"`
	ParentAccount string          `json:"parent_account,omitempty"`
	SourceKind    SourceKind      `json:"source_kind"`
}

// Touches reports whether the entry posts to account on either side.
func (e LedgerEntry) Touches(account string) bool {
	return e.DebitAccount == account || e.CreditAccount == account
}
