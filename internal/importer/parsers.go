package importer

import (
	"io"
	"strings"

	"github.com/cleared-dev/tally/internal/model"
)

const (
	receiptsHeader      = "date,reference,from_whom_received,description,account_credited,cash_account,cash,bank,parent_account"
	disbursementsHeader = "date,reference,to_whom_paid,description,account_debited,cash_account,cash,bank,parent_account"
	invoiceHeader       = "date,reference,name,description,account,amount,counterparty_account,lines,parent_account"
	journalHeader       = "date,reference,counterparty,description,debit_account,credit_account,amount,parent_account"
	budgetHeader        = "department,sub_account,original_budget,adjusted_budget,final_budget,actual_amount"
)

type receiptsParser struct{}

func (receiptsParser) Format() string { return "receipts" }
func (receiptsParser) Path() string   { return "sources/receipts.csv" }
func (receiptsParser) Header() string { return receiptsHeader }

func (p receiptsParser) Parse(r io.Reader, snap *model.Snapshot) error {
	t, err := readTable(r, receiptsHeader)
	if err != nil {
		return err
	}
	for _, cells := range t.rows {
		row := t.row(cells)
		rec := model.CashReceipt{
			Date:             row.date("date"),
			Reference:        row.get("reference"),
			FromWhomReceived: row.get("from_whom_received"),
			Description:      row.get("description"),
			AccountCredited:  row.get("account_credited"),
			CashAccount:      row.get("cash_account"),
			Cash:             row.amount("cash"),
			Bank:             row.amount("bank"),
			ParentAccount:    row.get("parent_account"),
		}
		rec.Unparsed = row.unparsed
		snap.Sources.Receipts = append(snap.Sources.Receipts, rec)
	}
	return nil
}

type disbursementsParser struct{}

func (disbursementsParser) Format() string { return "disbursements" }
func (disbursementsParser) Path() string   { return "sources/disbursements.csv" }
func (disbursementsParser) Header() string { return disbursementsHeader }

func (p disbursementsParser) Parse(r io.Reader, snap *model.Snapshot) error {
	t, err := readTable(r, disbursementsHeader)
	if err != nil {
		return err
	}
	for _, cells := range t.rows {
		row := t.row(cells)
		rec := model.CashDisbursement{
			Date:           row.date("date"),
			Reference:      row.get("reference"),
			ToWhomPaid:     row.get("to_whom_paid"),
			Description:    row.get("description"),
			AccountDebited: row.get("account_debited"),
			CashAccount:    row.get("cash_account"),
			Cash:           row.amount("cash"),
			Bank:           row.amount("bank"),
			ParentAccount:  row.get("parent_account"),
		}
		rec.Unparsed = row.unparsed
		snap.Sources.Disbursements = append(snap.Sources.Disbursements, rec)
	}
	return nil
}

// invoiceParser reads both invoice registers; kind selects the target.
type invoiceParser struct {
	format string
	kind   model.SourceKind
}

func (p invoiceParser) Format() string { return p.format }
func (p invoiceParser) Path() string   { return "sources/" + p.format + ".csv" }
func (invoiceParser) Header() string   { return invoiceHeader }

func (p invoiceParser) Parse(r io.Reader, snap *model.Snapshot) error {
	t, err := readTable(r, invoiceHeader)
	if err != nil {
		return err
	}
	for _, cells := range t.rows {
		row := t.row(cells)
		inv := model.Invoice{
			Date:                row.date("date"),
			Reference:           row.get("reference"),
			Name:                row.get("name"),
			Description:         row.get("description"),
			Account:             row.get("account"),
			Amount:              row.amount("amount"),
			CounterpartyAccount: row.get("counterparty_account"),
			ParentAccount:       row.get("parent_account"),
		}
		var bad []model.Unparsed
		inv.Lines, bad = ParseLines(row.get("lines"))
		inv.Unparsed = append(row.unparsed, bad...)
		if p.kind == model.SourceInvoiceReceived {
			snap.Sources.InvoicesReceived = append(snap.Sources.InvoicesReceived, inv)
		} else {
			snap.Sources.InvoicesIssued = append(snap.Sources.InvoicesIssued, inv)
		}
	}
	return nil
}

// ParseLines parses the lines column of an invoice register:
// "Sales=1000;Service Fees=250". A line whose amount cannot be parsed is
// kept with the amount missing and also returned as unparsed.
func ParseLines(s string) ([]model.InvoiceLine, []model.Unparsed) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var lines []model.InvoiceLine
	var bad []model.Unparsed
	for _, part := range strings.Split(s, ";") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		acct, amt, _ := strings.Cut(part, "=")
		n, ok := parseAmount(amt)
		if !ok {
			bad = append(bad, model.Unparsed{Field: "lines", Raw: strings.TrimSpace(part)})
		}
		lines = append(lines, model.InvoiceLine{
			Account: strings.TrimSpace(acct),
			Amount:  n,
		})
	}
	return lines, bad
}

type journalParser struct{}

func (journalParser) Format() string { return "journal" }
func (journalParser) Path() string   { return "sources/journal.csv" }
func (journalParser) Header() string { return journalHeader }

func (p journalParser) Parse(r io.Reader, snap *model.Snapshot) error {
	t, err := readTable(r, journalHeader)
	if err != nil {
		return err
	}
	for _, cells := range t.rows {
		row := t.row(cells)
		rec := model.JournalEntry{
			Date:          row.date("date"),
			Reference:     row.get("reference"),
			Counterparty:  row.get("counterparty"),
			Description:   row.get("description"),
			DebitAccount:  row.get("debit_account"),
			CreditAccount: row.get("credit_account"),
			Amount:        row.amount("amount"),
			ParentAccount: row.get("parent_account"),
		}
		rec.Unparsed = row.unparsed
		snap.Sources.Journal = append(snap.Sources.Journal, rec)
	}
	return nil
}

// budgetParser reads budget lines. Empty figures are zero; a figure that
// is not a number is kept as unparsed and the line is reported when the
// budget report is built.
type budgetParser struct{}

func (budgetParser) Format() string { return "budget" }
func (budgetParser) Path() string   { return "budget/budget.csv" }
func (budgetParser) Header() string { return budgetHeader }

func (p budgetParser) Parse(r io.Reader, snap *model.Snapshot) error {
	t, err := readTable(r, budgetHeader)
	if err != nil {
		return err
	}
	for _, cells := range t.rows {
		row := t.row(cells)
		line := model.BudgetLine{
			Department:     row.get("department"),
			SubAccount:     row.get("sub_account"),
			OriginalBudget: row.number("original_budget"),
			AdjustedBudget: row.number("adjusted_budget"),
			FinalBudget:    row.number("final_budget"),
			ActualAmount:   row.number("actual_amount"),
		}
		line.Unparsed = row.unparsed
		snap.Budget = append(snap.Budget, line)
	}
	return nil
}
