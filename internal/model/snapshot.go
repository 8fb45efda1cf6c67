package model

import "github.com/shopspring/decimal"

// Snapshot is an immutable set of inputs for one report request.
type Snapshot struct {
	Accounts []Account
	Opening  map[string]decimal.Decimal // by sub-account name
	Sources  Sources
	Budget   []BudgetLine
}
