package reports

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/model"
)

// IncomeStatement summarises revenue and expense movement for the period.
type IncomeStatement struct {
	Period    ledger.Period   `json:"period"`
	Revenue   Section         `json:"revenue"`
	Expense   Section         `json:"expense"`
	NetIncome decimal.Decimal `json:"net_income"`
}

// BuildIncomeStatement uses each account's movement within the trial
// balance period: credit minus debit for revenue, debit minus credit for
// expenses. Opening balances are not part of the period's result.
func BuildIncomeStatement(tb *ledger.TrialBalance) IncomeStatement {
	is := IncomeStatement{
		Period:  tb.Period,
		Revenue: newSection("Revenue"),
		Expense: newSection("Expense"),
	}
	for _, r := range tb.Rows {
		line := Line{Account: r.Account, ParentAccount: r.ParentAccount, Amount: r.Movement()}
		switch r.Type {
		case model.AccountTypeRevenue:
			is.Revenue.add(line)
		case model.AccountTypeExpense:
			is.Expense.add(line)
		}
	}
	is.NetIncome = is.Revenue.Total.Sub(is.Expense.Total)
	return is
}
