package model

// AccountType classifies accounts in the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "Asset"
	AccountTypeLiability AccountType = "Liability"
	AccountTypeEquity    AccountType = "Equity"
	AccountTypeRevenue   AccountType = "Revenue"
	AccountTypeExpense   AccountType = "Expense"
	AccountTypeCustomer  AccountType = "Customer"
	AccountTypePayee     AccountType = "Payee"
)

// AccountTypes lists every known account type in presentation order.
var AccountTypes = []AccountType{
	AccountTypeAsset,
	AccountTypeLiability,
	AccountTypeEquity,
	AccountTypeRevenue,
	AccountTypeExpense,
	AccountTypeCustomer,
	AccountTypePayee,
}

// Valid reports whether t is one of the known account types.
func (t AccountType) Valid() bool {
	for _, k := range AccountTypes {
		if k == t {
			return true
		}
	}
	return false
}

// DebitNormal reports whether balances of this type grow on the debit side.
// Customer accounts are receivables and behave like assets; Payee accounts
// are payables and behave like liabilities.
func (t AccountType) DebitNormal() bool {
	switch t {
	case AccountTypeAsset, AccountTypeExpense, AccountTypeCustomer:
		return true
	default:
		return false
	}
}

// SubAccount is a postable account under a parent account.
type SubAccount struct {
	Name string
}

// Account is a parent account in the chart of accounts together with its
// sub-accounts. Ledger entries always post to sub-account names.
type Account struct {
	ID            string
	Type          AccountType
	ParentAccount string
	NoteNumber    string // optional grouping used by statement notes
	SubAccounts   []SubAccount
}
