// Package reports composes financial statements from a trial balance.
// Every builder is a pure function of its inputs.
package reports

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/model"
)

// CurrentEarningsLabel names the synthesized equity line holding revenue
// less expenses that have not been closed into equity.
const CurrentEarningsLabel = "Current period earnings"

// Line is one account inside a statement section.
type Line struct {
	Account       string          `json:"account"`
	ParentAccount string          `json:"parent_account,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
}

// Group totals the lines of a section that share a parent account.
type Group struct {
	ParentAccount string          `json:"parent_account"`
	Total         decimal.Decimal `json:"total"`
}

// Section contains the lines and totals for one classification.
type Section struct {
	Label  string          `json:"label"`
	Lines  []Line          `json:"lines"`
	Groups []Group         `json:"groups"`
	Total  decimal.Decimal `json:"total"`
}

func newSection(label string) Section {
	return Section{Label: label, Lines: []Line{}, Groups: []Group{}, Total: decimal.Zero}
}

func (s *Section) add(l Line) {
	s.Lines = append(s.Lines, l)
	s.Total = s.Total.Add(l.Amount)
	if n := len(s.Groups); n > 0 && s.Groups[n-1].ParentAccount == l.ParentAccount {
		s.Groups[n-1].Total = s.Groups[n-1].Total.Add(l.Amount)
		return
	}
	s.Groups = append(s.Groups, Group{ParentAccount: l.ParentAccount, Total: l.Amount})
}

// BalanceSheet is the statement of financial position.
type BalanceSheet struct {
	Assets                    Section         `json:"assets"`
	Liabilities               Section         `json:"liabilities"`
	Equity                    Section         `json:"equity"`
	CurrentEarnings           decimal.Decimal `json:"current_earnings"`
	TotalLiabilitiesAndEquity decimal.Decimal `json:"total_liabilities_and_equity"`
	BalanceCheck              bool            `json:"balance_check"`
}

// BuildBalanceSheet partitions closing balances into assets (including
// customer receivables), liabilities (including payee payables) and equity.
// Revenue and expense balances still open are carried into equity as
// CurrentEarningsLabel. BalanceCheck is computed, never assumed.
func BuildBalanceSheet(tb *ledger.TrialBalance) BalanceSheet {
	bs := BalanceSheet{
		Assets:      newSection("Assets"),
		Liabilities: newSection("Liabilities"),
		Equity:      newSection("Equity"),
	}

	earnings := decimal.Zero
	for _, r := range tb.Rows {
		line := Line{Account: r.Account, ParentAccount: r.ParentAccount, Amount: r.ClosingBalance}
		switch r.Type {
		case model.AccountTypeAsset, model.AccountTypeCustomer:
			bs.Assets.add(line)
		case model.AccountTypeLiability, model.AccountTypePayee:
			bs.Liabilities.add(line)
		case model.AccountTypeEquity:
			bs.Equity.add(line)
		case model.AccountTypeRevenue:
			earnings = earnings.Add(r.ClosingBalance)
		case model.AccountTypeExpense:
			earnings = earnings.Sub(r.ClosingBalance)
		}
	}
	if !earnings.IsZero() {
		bs.Equity.add(Line{Account: CurrentEarningsLabel, Amount: earnings})
	}

	bs.CurrentEarnings = earnings
	bs.TotalLiabilitiesAndEquity = bs.Liabilities.Total.Add(bs.Equity.Total)
	bs.BalanceCheck = bs.Assets.Total.Equal(bs.TotalLiabilitiesAndEquity)
	return bs
}
