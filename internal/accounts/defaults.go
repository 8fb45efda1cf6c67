package accounts

import "github.com/cleared-dev/tally/internal/model"

// Names of the sub-accounts the default chart and default config agree on.
const (
	DefaultCashAccount       = "Cash on Hand"
	DefaultBankAccount       = "Main Bank"
	DefaultReceivableAccount = "Trade Debtors"
	DefaultPayableAccount    = "Trade Creditors"
)

// DefaultChart returns the default chart of accounts for an entity type.
func DefaultChart(entityType string) []model.Account {
	switch entityType {
	case "nonprofit":
		return withNetAssets(smallBusinessChart())
	default:
		return smallBusinessChart()
	}
}

func smallBusinessChart() []model.Account {
	return []model.Account{
		{ID: "1000", Type: model.AccountTypeAsset, ParentAccount: "Cash and Cash Equivalents", NoteNumber: "1",
			SubAccounts: []model.SubAccount{{Name: DefaultCashAccount}, {Name: DefaultBankAccount}}},
		{ID: "1100", Type: model.AccountTypeCustomer, ParentAccount: "Receivables", NoteNumber: "2",
			SubAccounts: []model.SubAccount{{Name: DefaultReceivableAccount}}},
		{ID: "1500", Type: model.AccountTypeAsset, ParentAccount: "Property and Equipment", NoteNumber: "3",
			SubAccounts: []model.SubAccount{{Name: "Office Equipment"}, {Name: "Vehicles"}}},
		{ID: "2000", Type: model.AccountTypePayee, ParentAccount: "Payables", NoteNumber: "4",
			SubAccounts: []model.SubAccount{{Name: DefaultPayableAccount}}},
		{ID: "2100", Type: model.AccountTypeLiability, ParentAccount: "Accrued Liabilities", NoteNumber: "4",
			SubAccounts: []model.SubAccount{{Name: "Accrued Wages"}, {Name: "Taxes Payable"}}},
		{ID: "3000", Type: model.AccountTypeEquity, ParentAccount: "Owner's Equity", NoteNumber: "5",
			SubAccounts: []model.SubAccount{{Name: "Capital"}, {Name: "Retained Earnings"}}},
		{ID: "4000", Type: model.AccountTypeRevenue, ParentAccount: "Operating Revenue", NoteNumber: "6",
			SubAccounts: []model.SubAccount{{Name: "Sales"}, {Name: "Service Fees"}}},
		{ID: "4500", Type: model.AccountTypeRevenue, ParentAccount: "Other Income", NoteNumber: "6",
			SubAccounts: []model.SubAccount{{Name: "Interest Income"}}},
		{ID: "5000", Type: model.AccountTypeExpense, ParentAccount: "Personnel Costs", NoteNumber: "7",
			SubAccounts: []model.SubAccount{{Name: "Salaries"}, {Name: "Benefits"}}},
		{ID: "5100", Type: model.AccountTypeExpense, ParentAccount: "Operating Expenses", NoteNumber: "7",
			SubAccounts: []model.SubAccount{{Name: "Rent"}, {Name: "Utilities"}, {Name: "Office Supplies"}, {Name: "Professional Services"}}},
	}
}

func withNetAssets(chart []model.Account) []model.Account {
	for i := range chart {
		if chart[i].Type == model.AccountTypeEquity {
			chart[i].ParentAccount = "Net Assets"
			chart[i].SubAccounts = []model.SubAccount{
				{Name: "Unrestricted Net Assets"},
				{Name: "Restricted Net Assets"},
			}
		}
	}
	return chart
}
