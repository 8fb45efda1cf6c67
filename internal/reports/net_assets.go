package reports

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/model"
)

// NetAssetEntry is one entry contributing to net-asset movement.
type NetAssetEntry struct {
	model.LedgerEntry
	Debit  decimal.Decimal `json:"debit"`
	Credit decimal.Decimal `json:"credit"`
}

// NetAssetMovement reports the change in a set of net-asset accounts.
type NetAssetMovement struct {
	Period       ledger.Period   `json:"period"`
	Accounts     []string        `json:"accounts"`
	TotalCredits decimal.Decimal `json:"total_credits"`
	TotalDebits  decimal.Decimal `json:"total_debits"`
	Movement     decimal.Decimal `json:"movement"`
	Entries      []NetAssetEntry `json:"entries"`
}

// NetAssetAccounts returns the sub-accounts of parent, or every equity
// sub-account when parent is empty.
func NetAssetAccounts(tb *ledger.TrialBalance, parent string) []string {
	accts := []string{}
	for _, r := range tb.Rows {
		if parent != "" && r.ParentAccount == parent {
			accts = append(accts, r.Account)
		} else if parent == "" && r.Type == model.AccountTypeEquity {
			accts = append(accts, r.Account)
		}
	}
	return accts
}

// BuildNetAssetMovement computes credits minus debits posted to accounts
// within period, listing each contributing entry.
func BuildNetAssetMovement(tb *ledger.TrialBalance, accounts []string, period ledger.Period) NetAssetMovement {
	set := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		set[a] = true
	}

	m := NetAssetMovement{
		Period:       period,
		Accounts:     accounts,
		TotalCredits: decimal.Zero,
		TotalDebits:  decimal.Zero,
		Entries:      []NetAssetEntry{},
	}
	for _, e := range tb.Entries {
		if !period.Contains(e.Date) {
			continue
		}
		if !set[e.CreditAccount] && !set[e.DebitAccount] {
			continue
		}
		row := NetAssetEntry{LedgerEntry: e, Debit: decimal.Zero, Credit: decimal.Zero}
		if set[e.CreditAccount] {
			row.Credit = e.Amount
		}
		if set[e.DebitAccount] {
			row.Debit = e.Amount
		}
		m.TotalCredits = m.TotalCredits.Add(row.Credit)
		m.TotalDebits = m.TotalDebits.Add(row.Debit)
		m.Entries = append(m.Entries, row)
	}
	m.Movement = m.TotalCredits.Sub(m.TotalDebits)
	return m
}
