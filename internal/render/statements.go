package render

import (
	"strconv"
	"time"

	"github.com/cleared-dev/tally/internal/engine"
	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/reports"
)

func trialBalance(t *table, tb *ledger.TrialBalance) {
	t.row("ACCOUNT", "PARENT", "NOTE", "OPENING", "DEBIT", "CREDIT", "CLOSING")
	for _, r := range tb.Rows {
		t.row(r.Account, r.ParentAccount, r.NoteNumber,
			money(r.OpeningBalance), money(r.TotalDebit), money(r.TotalCredit), money(r.ClosingBalance))
	}
	t.row("Total", "", "", "", money(tb.TotalDebit), money(tb.TotalCredit), "")

	t.blank()
	t.row("PARENT", "ACCOUNTS", "OPENING", "DEBIT", "CREDIT", "CLOSING")
	for _, g := range tb.ByParent {
		t.row(g.Key, strconv.Itoa(len(g.Accounts)),
			money(g.OpeningBalance), money(g.TotalDebit), money(g.TotalCredit), money(g.ClosingBalance))
	}
}

func section(t *table, s reports.Section) {
	t.row(s.Label, "", "")
	for _, l := range s.Lines {
		t.row("  "+l.Account, l.ParentAccount, money(l.Amount))
	}
	t.row("Total "+s.Label, "", money(s.Total))
	t.row("", "", "")
}

func balanceSheet(t *table, rep *engine.Report) {
	bs := rep.BalanceSheet
	section(t, bs.Assets)
	section(t, bs.Liabilities)
	section(t, bs.Equity)
	t.row("Total Liabilities and Equity", "", money(bs.TotalLiabilitiesAndEquity))
	check := "yes"
	if !bs.BalanceCheck {
		check = "NO"
	}
	t.row("Balanced", "", check)
}

func incomeStatement(t *table, rep *engine.Report) {
	is := rep.IncomeStatement
	section(t, is.Revenue)
	section(t, is.Expense)
	t.row("Net Income", "", money(is.NetIncome))
}

func cashFlow(t *table, rep *engine.Report) {
	cf := rep.CashFlow
	t.row("CATEGORY", "RECEIPTS", "DISBURSEMENTS", "NET")
	for _, g := range cf.Groups {
		t.row(g.Category, money(g.Receipts), money(g.Disbursements), money(g.Net))
	}
	t.row("Total", money(cf.TotalReceipts), money(cf.TotalDisbursements), money(cf.NetCashFlow))
	if !cf.Transfers.IsZero() {
		t.row("Transfers between cash accounts", "", "", money(cf.Transfers))
	}
}

func netAssets(t *table, rep *engine.Report) {
	m := rep.NetAssets
	t.row("DATE", "REFERENCE", "DESCRIPTION", "DEBIT", "CREDIT")
	for _, e := range m.Entries {
		t.row(e.Date.Format(time.DateOnly), e.Reference, e.Description, money(e.Debit), money(e.Credit))
	}
	t.row("Total", "", "", money(m.TotalDebits), money(m.TotalCredits))
	t.row("Movement", "", "", "", money(m.Movement))
}

func budget(t *table, rep *engine.Report) {
	b := rep.Budget
	t.row("DEPARTMENT", "SUB-ACCOUNT", "PARENT", "FINAL BUDGET", "ACTUAL", "DIFFERENCE", "UTILIZATION %")
	for _, l := range b.Lines {
		t.row(l.Department, l.SubAccount, l.ParentAccount,
			money(l.FinalBudget), money(l.ActualAmount), money(l.PerformanceDifference), money(l.UtilizationDifferencePct))
	}
	t.blank()
	t.row("PARENT", "DEPARTMENTS", "", "FINAL BUDGET", "ACTUAL", "DIFFERENCE", "UTILIZATION %")
	for _, g := range b.ByParent {
		t.row(g.ParentAccount, strconv.Itoa(len(g.Departments)), "",
			money(g.FinalBudget), money(g.ActualAmount), money(g.PerformanceDifference), money(g.UtilizationDifferencePct))
	}
	t.row("Total", "", "",
		money(b.Total.FinalBudget), money(b.Total.ActualAmount), money(b.Total.PerformanceDifference), money(b.Total.UtilizationDifferencePct))
}

func parties(t *table, rep *engine.Report) {
	t.row("COUNTERPARTY", "INVOICED", "SETTLED", "CLEARED", "OUTSTANDING", "OVERPAYMENT")
	for _, p := range rep.Parties {
		t.row(p.Counterparty, money(p.InvoicedTotal), money(p.SettledTotal), money(p.Cleared), money(p.Outstanding), money(p.Overpayment))
	}
	if tot := rep.PartyTotals; tot != nil {
		t.row("Total", money(tot.InvoicedTotal), money(tot.SettledTotal), money(tot.Cleared), money(tot.Outstanding), money(tot.Overpayment))
	}
}

func aging(t *table, rep *engine.Report) {
	a := rep.Aging
	t.line("As of %s", a.AsOf.Format(time.DateOnly))
	header := append([]string{"COUNTERPARTY"}, a.Labels...)
	t.row(append(header, "TOTAL")...)
	for _, r := range a.Rows {
		cells := []string{r.Counterparty}
		for _, b := range r.Buckets {
			cells = append(cells, money(b))
		}
		t.row(append(cells, money(r.Total))...)
	}
	cells := []string{"Total"}
	for _, b := range a.Buckets {
		cells = append(cells, money(b))
	}
	t.row(append(cells, money(a.Total))...)
}
