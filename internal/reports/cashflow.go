package reports

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/ledger"
)

// CashFlowGroup totals cash movement against one category of the other leg.
type CashFlowGroup struct {
	Category      string          `json:"category"`
	Receipts      decimal.Decimal `json:"receipts"`
	Disbursements decimal.Decimal `json:"disbursements"`
	Net           decimal.Decimal `json:"net"`
}

// CashFlow is a direct-method cash-flow statement.
type CashFlow struct {
	Period             ledger.Period   `json:"period"`
	CashAccounts       []string        `json:"cash_accounts"`
	Groups             []CashFlowGroup `json:"groups"`
	TotalReceipts      decimal.Decimal `json:"total_receipts"`
	TotalDisbursements decimal.Decimal `json:"total_disbursements"`
	NetCashFlow        decimal.Decimal `json:"net_cash_flow"`
	Transfers          decimal.Decimal `json:"transfers"` // cash-to-cash, excluded from totals
}

// BuildCashFlow sums posted entries that move money into or out of the
// cash accounts within period, grouped by the parent account of the
// non-cash leg. Transfers between two cash accounts are reported
// separately and do not count as receipts or disbursements.
func BuildCashFlow(tb *ledger.TrialBalance, cashAccounts []string, period ledger.Period) CashFlow {
	cash := make(map[string]bool, len(cashAccounts))
	for _, a := range cashAccounts {
		cash[a] = true
	}
	parentOf := make(map[string]string, len(tb.Rows))
	for _, r := range tb.Rows {
		parentOf[r.Account] = r.ParentAccount
	}

	cf := CashFlow{
		Period:             period,
		CashAccounts:       cashAccounts,
		Groups:             []CashFlowGroup{},
		TotalReceipts:      decimal.Zero,
		TotalDisbursements: decimal.Zero,
		Transfers:          decimal.Zero,
	}
	groups := make(map[string]*CashFlowGroup)
	group := func(category string) *CashFlowGroup {
		g, ok := groups[category]
		if !ok {
			g = &CashFlowGroup{Category: category, Receipts: decimal.Zero, Disbursements: decimal.Zero}
			groups[category] = g
		}
		return g
	}

	for _, e := range tb.Entries {
		if !period.Contains(e.Date) {
			continue
		}
		in, out := cash[e.DebitAccount], cash[e.CreditAccount]
		switch {
		case in && out:
			cf.Transfers = cf.Transfers.Add(e.Amount)
		case in:
			g := group(parentOf[e.CreditAccount])
			g.Receipts = g.Receipts.Add(e.Amount)
			cf.TotalReceipts = cf.TotalReceipts.Add(e.Amount)
		case out:
			g := group(parentOf[e.DebitAccount])
			g.Disbursements = g.Disbursements.Add(e.Amount)
			cf.TotalDisbursements = cf.TotalDisbursements.Add(e.Amount)
		}
	}

	for _, g := range groups {
		g.Net = g.Receipts.Sub(g.Disbursements)
		cf.Groups = append(cf.Groups, *g)
	}
	sort.Slice(cf.Groups, func(i, j int) bool { return cf.Groups[i].Category < cf.Groups[j].Category })
	cf.NetCashFlow = cf.TotalReceipts.Sub(cf.TotalDisbursements)
	return cf
}
