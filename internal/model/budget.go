package model

import "github.com/shopspring/decimal"

// BudgetLine is a department's budget for one sub-account.
type BudgetLine struct {
	Department     string
	SubAccount     string
	OriginalBudget decimal.Decimal
	AdjustedBudget decimal.Decimal
	FinalBudget    decimal.Decimal
	ActualAmount   decimal.Decimal
	Unparsed       []Unparsed
}

// PerformanceDifference is the unspent part of the final budget.
func (b BudgetLine) PerformanceDifference() decimal.Decimal {
	return b.FinalBudget.Sub(b.ActualAmount)
}

// UtilizationDifferencePct is PerformanceDifference as a percentage of the
// final budget, rounded to two places. A zero final budget yields zero.
func (b BudgetLine) UtilizationDifferencePct() decimal.Decimal {
	return Percent(b.PerformanceDifference(), b.FinalBudget)
}

var hundred = decimal.NewFromInt(100)

// Percent returns part/whole*100 rounded to two places, or zero when whole is zero.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Mul(hundred).DivRound(whole, 2)
}
