package reports

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/diag"
	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/model"
)

// BudgetRow is one budget line with its derived differences.
type BudgetRow struct {
	Department               string          `json:"department"`
	SubAccount               string          `json:"sub_account"`
	ParentAccount            string          `json:"parent_account,omitempty"`
	OriginalBudget           decimal.Decimal `json:"original_budget"`
	AdjustedBudget           decimal.Decimal `json:"adjusted_budget"`
	FinalBudget              decimal.Decimal `json:"final_budget"`
	ActualAmount             decimal.Decimal `json:"actual_amount"`
	PerformanceDifference    decimal.Decimal `json:"performance_difference"`
	UtilizationDifferencePct decimal.Decimal `json:"utilization_difference_pct"`
}

// BudgetGroup aggregates budget lines of every department under one parent account.
type BudgetGroup struct {
	ParentAccount            string          `json:"parent_account"`
	Departments              []string        `json:"departments"`
	OriginalBudget           decimal.Decimal `json:"original_budget"`
	AdjustedBudget           decimal.Decimal `json:"adjusted_budget"`
	FinalBudget              decimal.Decimal `json:"final_budget"`
	ActualAmount             decimal.Decimal `json:"actual_amount"`
	PerformanceDifference    decimal.Decimal `json:"performance_difference"`
	UtilizationDifferencePct decimal.Decimal `json:"utilization_difference_pct"`
}

func (g *BudgetGroup) add(r BudgetRow) {
	seen := false
	for _, d := range g.Departments {
		if d == r.Department {
			seen = true
			break
		}
	}
	if !seen {
		g.Departments = append(g.Departments, r.Department)
	}
	g.OriginalBudget = g.OriginalBudget.Add(r.OriginalBudget)
	g.AdjustedBudget = g.AdjustedBudget.Add(r.AdjustedBudget)
	g.FinalBudget = g.FinalBudget.Add(r.FinalBudget)
	g.ActualAmount = g.ActualAmount.Add(r.ActualAmount)
}

func (g *BudgetGroup) derive() {
	g.PerformanceDifference = g.FinalBudget.Sub(g.ActualAmount)
	g.UtilizationDifferencePct = model.Percent(g.PerformanceDifference, g.FinalBudget)
}

func newBudgetGroup(parent string) *BudgetGroup {
	return &BudgetGroup{
		ParentAccount:  parent,
		Departments:    []string{},
		OriginalBudget: decimal.Zero,
		AdjustedBudget: decimal.Zero,
		FinalBudget:    decimal.Zero,
		ActualAmount:   decimal.Zero,
	}
}

// BudgetVsActual is the budget variance report.
type BudgetVsActual struct {
	Lines    []BudgetRow   `json:"lines"`
	ByParent []BudgetGroup `json:"by_parent"`
	Total    BudgetGroup   `json:"total"`
}

// BuildBudgetVsActual compares final budget against actual amount for
// every budget line and per parent account, aggregating departments. The
// trial balance supplies the sub-account hierarchy only; actual amounts come
// from the budget lines. A line whose sub-account is not in the catalog is
// still listed but left out of the parent groups and reported. A non-empty
// parent keeps only that parent's lines. A line with a figure that is not a
// number is skipped and reported.
func BuildBudgetVsActual(tb *ledger.TrialBalance, lines []model.BudgetLine, parent string) (BudgetVsActual, diag.List) {
	parentOf := make(map[string]string, len(tb.Rows))
	var order []string
	for _, r := range tb.Rows {
		if _, seen := parentOf[r.Account]; !seen {
			parentOf[r.Account] = r.ParentAccount
		}
		if len(order) == 0 || order[len(order)-1] != r.ParentAccount {
			order = append(order, r.ParentAccount)
		}
	}

	var diags diag.List
	report := BudgetVsActual{Lines: []BudgetRow{}, ByParent: []BudgetGroup{}}
	groups := make(map[string]*BudgetGroup)
	total := newBudgetGroup("")

	for i, l := range lines {
		p, known := parentOf[l.SubAccount]
		if parent != "" && p != parent {
			continue
		}
		if len(l.Unparsed) > 0 {
			for _, u := range l.Unparsed {
				diags = append(diags, diag.Unparsable(model.SourceBudgetLine, i+1, l.Department, u.Field, u.Raw))
			}
			continue
		}
		row := BudgetRow{
			Department:               l.Department,
			SubAccount:               l.SubAccount,
			ParentAccount:            p,
			OriginalBudget:           l.OriginalBudget,
			AdjustedBudget:           l.AdjustedBudget,
			FinalBudget:              l.FinalBudget,
			ActualAmount:             l.ActualAmount,
			PerformanceDifference:    l.PerformanceDifference(),
			UtilizationDifferencePct: l.UtilizationDifferencePct(),
		}
		report.Lines = append(report.Lines, row)
		total.add(row)
		if !known {
			diags = append(diags, diag.Unresolved(model.SourceBudgetLine, l.Department, "sub_account", l.SubAccount))
			continue
		}
		g, ok := groups[p]
		if !ok {
			g = newBudgetGroup(p)
			groups[p] = g
		}
		g.add(row)
	}

	for _, p := range order {
		if g, ok := groups[p]; ok {
			g.derive()
			report.ByParent = append(report.ByParent, *g)
		}
	}
	total.derive()
	report.Total = *total
	return report, diags
}
