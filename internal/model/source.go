package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Unparsed is a column whose text was present but could not be read as its
// type. Records carrying one are reported and skipped.
type Unparsed struct {
	Field string
	Raw   string
}

// CashReceipt is a row of the cash receipts journal.
type CashReceipt struct {
	Date             time.Time `validate:"required"`
	Reference        string
	FromWhomReceived string `validate:"required"`
	Description      string
	AccountCredited  string `validate:"required"`
	CashAccount      string // cash/bank sub-account debited; empty = configured default
	Cash             decimal.NullDecimal
	Bank             decimal.NullDecimal
	ParentAccount    string
	Unparsed         []Unparsed
}

// CashDisbursement is a row of the cash disbursements journal.
type CashDisbursement struct {
	Date           time.Time `validate:"required"`
	Reference      string
	ToWhomPaid     string `validate:"required"`
	Description    string
	AccountDebited string `validate:"required"`
	CashAccount    string
	Cash           decimal.NullDecimal
	Bank           decimal.NullDecimal
	ParentAccount  string
	Unparsed       []Unparsed
}

// InvoiceLine is one {account, amount} pair of a split invoice.
type InvoiceLine struct {
	Account string
	Amount  decimal.NullDecimal
}

// Invoice is a row of the invoices issued or invoices received register.
// When Lines is non-empty it replaces Account/Amount.
type Invoice struct {
	Date                time.Time `validate:"required"`
	Reference           string
	Name                string `validate:"required"`
	Description         string
	Account             string
	Amount              decimal.NullDecimal
	CounterpartyAccount string // receivable or payable sub-account; empty = configured default
	Lines               []InvoiceLine
	ParentAccount       string
	Unparsed            []Unparsed
}

// JournalEntry is a manual journal entry between two named accounts.
type JournalEntry struct {
	Date          time.Time `validate:"required"`
	Reference     string
	Counterparty  string
	Description   string
	DebitAccount  string `validate:"required"`
	CreditAccount string `validate:"required"`
	Amount        decimal.NullDecimal
	ParentAccount string
	Unparsed      []Unparsed
}

// Sources holds the raw records of every journal, keyed by source kind.
type Sources struct {
	Receipts         []CashReceipt
	Disbursements    []CashDisbursement
	InvoicesIssued   []Invoice
	InvoicesReceived []Invoice
	Journal          []JournalEntry
}

// Len returns the total number of raw records.
func (s Sources) Len() int {
	return len(s.Receipts) + len(s.Disbursements) + len(s.InvoicesIssued) + len(s.InvoicesReceived) + len(s.Journal)
}
