package reconcile

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func entry(kind model.SourceKind, party, ref string, on time.Time, amount int64) model.LedgerEntry {
	return model.LedgerEntry{
		Date:         on,
		Reference:    ref,
		Counterparty: party,
		Amount:       decimal.NewFromInt(amount),
		SourceKind:   kind,
	}
}

// balanceStrings renders a PartyBalance as plain strings so it compares
// independently of decimal exponents.
func balanceStrings(pb PartyBalance) map[string]string {
	return map[string]string{
		"counterparty":   pb.Counterparty,
		"invoiced_total": pb.InvoicedTotal.String(),
		"settled_total":  pb.SettledTotal.String(),
		"cleared":        pb.Cleared.String(),
		"outstanding":    pb.Outstanding.String(),
		"overpayment":    pb.Overpayment.String(),
	}
}

func TestReconcileDebtorPartialPayment(t *testing.T) {
	entries := []model.LedgerEntry{
		entry(model.SourceCashReceipt, "Acme", "R-1", date(2025, 1, 20), 1000),
		entry(model.SourceInvoiceIssued, "Acme", "INV-1", date(2025, 1, 5), 1500),
	}

	rows := Reconcile(entries, Debtor)
	require.Len(t, rows, 1)
	assert.Equal(t, map[string]string{
		"counterparty":   "Acme",
		"invoiced_total": "1500",
		"settled_total":  "1000",
		"cleared":        "1000",
		"outstanding":    "500",
		"overpayment":    "0",
	}, balanceStrings(rows[0]))
}

func TestReconcileCreditorSettlementWithoutInvoice(t *testing.T) {
	entries := []model.LedgerEntry{
		entry(model.SourceCashDisbursement, "Beta", "D-1", date(2025, 1, 9), 700),
	}

	rows := Reconcile(entries, Creditor)
	require.Len(t, rows, 1)
	assert.Equal(t, map[string]string{
		"counterparty":   "Beta",
		"invoiced_total": "0",
		"settled_total":  "700",
		"cleared":        "0",
		"outstanding":    "0",
		"overpayment":    "700",
	}, balanceStrings(rows[0]))
}

func TestReconcileRoleSelectsSources(t *testing.T) {
	entries := []model.LedgerEntry{
		entry(model.SourceInvoiceIssued, "Acme", "INV-1", date(2025, 1, 1), 100),
		entry(model.SourceInvoiceReceived, "Beta", "B-1", date(2025, 1, 1), 200),
		entry(model.SourceJournalEntry, "Gamma", "J-1", date(2025, 1, 1), 300),
	}

	debtors := Reconcile(entries, Debtor)
	require.Len(t, debtors, 1)
	assert.Equal(t, "Acme", debtors[0].Counterparty)

	creditors := Reconcile(entries, Creditor)
	require.Len(t, creditors, 1)
	assert.Equal(t, "Beta", creditors[0].Counterparty)
}

func TestReconcileExactNameMatch(t *testing.T) {
	entries := []model.LedgerEntry{
		entry(model.SourceInvoiceIssued, "Acme", "INV-1", date(2025, 1, 1), 100),
		entry(model.SourceCashReceipt, "ACME", "R-1", date(2025, 1, 2), 100),
	}

	rows := Reconcile(entries, Debtor)
	require.Len(t, rows, 2, "names differing only in case are different parties")
	assert.Equal(t, "ACME", rows[0].Counterparty)
	assert.Equal(t, "100", rows[0].Overpayment.String())
	assert.Equal(t, "Acme", rows[1].Counterparty)
	assert.Equal(t, "100", rows[1].Outstanding.String())
}

func TestReconcileIdentitiesHold(t *testing.T) {
	entries := []model.LedgerEntry{
		entry(model.SourceInvoiceIssued, "A", "1", date(2025, 1, 1), 100),
		entry(model.SourceInvoiceIssued, "A", "2", date(2025, 1, 2), 50),
		entry(model.SourceCashReceipt, "A", "3", date(2025, 1, 3), 200),
		entry(model.SourceInvoiceIssued, "B", "4", date(2025, 1, 1), 80),
		entry(model.SourceCashReceipt, "B", "5", date(2025, 1, 3), 30),
		entry(model.SourceCashReceipt, "C", "6", date(2025, 1, 3), 10),
		entry(model.SourceInvoiceIssued, "D", "7", date(2025, 1, 3), 10),
		entry(model.SourceCashReceipt, "D", "8", date(2025, 1, 3), 10),
	}

	rows := Reconcile(entries, Debtor)
	require.Len(t, rows, 4)
	for _, r := range rows {
		assert.True(t, r.Cleared.Add(r.Outstanding).Equal(r.InvoicedTotal), "%s: cleared+outstanding", r.Counterparty)
		assert.True(t, r.Cleared.Add(r.Overpayment).Equal(r.SettledTotal), "%s: cleared+overpayment", r.Counterparty)
	}

	total := Totals(rows)
	assert.Equal(t, "240", total.InvoicedTotal.String())
	assert.Equal(t, "250", total.SettledTotal.String())
	assert.Equal(t, "50", total.Outstanding.String())
	assert.Equal(t, "60", total.Overpayment.String())
}

func TestReconcileEmpty(t *testing.T) {
	rows := Reconcile(nil, Debtor)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("creditor")
	require.NoError(t, err)
	assert.Equal(t, Creditor, r)

	_, err = ParseRole("lender")
	require.Error(t, err)
}
