package engine

import (
	"fmt"
	"strings"

	"github.com/cleared-dev/tally/internal/reconcile"
)

// Kind names a report.
type Kind string

const (
	KindTrialBalance    Kind = "trial-balance"
	KindBalanceSheet    Kind = "balance-sheet"
	KindIncomeStatement Kind = "income-statement"
	KindCashFlow        Kind = "cash-flow"
	KindNetAssets       Kind = "net-assets"
	KindBudget          Kind = "budget"
	KindDebtors         Kind = "debtors"
	KindCreditors       Kind = "creditors"
	KindDebtorAging     Kind = "debtor-aging"
	KindCreditorAging   Kind = "creditor-aging"
)

// Kinds lists every report kind in presentation order.
var Kinds = []Kind{
	KindTrialBalance,
	KindBalanceSheet,
	KindIncomeStatement,
	KindCashFlow,
	KindNetAssets,
	KindBudget,
	KindDebtors,
	KindCreditors,
	KindDebtorAging,
	KindCreditorAging,
}

// ParseKind accepts a report kind name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown report kind %q", s)
}

func (k Kind) role() reconcile.Role {
	switch k {
	case KindCreditors, KindCreditorAging:
		return reconcile.Creditor
	default:
		return reconcile.Debtor
	}
}

// AllRequests returns one request per kind sharing the same parameters.
func AllRequests(base Request) []Request {
	reqs := make([]Request, len(Kinds))
	for i, k := range Kinds {
		r := base
		r.Kind = k
		reqs[i] = r
	}
	return reqs
}
