package importer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/accounts"
	"github.com/cleared-dev/tally/internal/diag"
	"github.com/cleared-dev/tally/internal/journal"
	"github.com/cleared-dev/tally/internal/model"
)

const sampleDir = "../../testdata/sample"

func TestDirSource_LoadSample(t *testing.T) {
	snap, err := NewDirSource(sampleDir, nil).Load(context.Background())
	require.NoError(t, err)

	assert.Len(t, snap.Accounts, 6)
	assert.Equal(t, "5000", snap.Opening["Main Bank"].String())
	assert.Equal(t, 9, snap.Sources.Len())
	assert.Len(t, snap.Budget, 2)

	r1 := snap.Sources.Receipts[0]
	assert.Equal(t, "Acme Corp", r1.FromWhomReceived)
	assert.False(t, r1.Cash.Valid)
	require.True(t, r1.Bank.Valid)
	assert.Equal(t, "1000", r1.Bank.Decimal.String(), "thousands separator")
	assert.Equal(t, time.Date(2025, 1, 25, 0, 0, 0, 0, time.UTC), r1.Date)

	assert.True(t, snap.Sources.Receipts[2].Date.IsZero(), "unparsable date is kept as missing")
	assert.Equal(t, []model.Unparsed{{Field: "date", Raw: "not-a-date"}}, snap.Sources.Receipts[2].Unparsed)
	assert.Empty(t, r1.Unparsed)

	split := snap.Sources.InvoicesIssued[1]
	require.Len(t, split.Lines, 2)
	assert.Equal(t, "Service Fees", split.Lines[1].Account)
	assert.Equal(t, "200", split.Lines[1].Amount.Decimal.String())

	assert.Equal(t, "City Properties", snap.Sources.InvoicesReceived[0].Name)
	assert.Equal(t, "Main Bank", snap.Sources.Journal[0].CreditAccount)
	assert.Equal(t, "250", snap.Budget[1].FinalBudget.String())
}

func TestDirSource_MissingChart(t *testing.T) {
	_, err := NewDirSource(t.TempDir(), nil).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chart of accounts")
}

func TestDirSource_OnlyChart(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, accounts.Save(dir, accounts.DefaultChart("")))

	snap, err := (&DirSource{Root: dir}).Load(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, snap.Accounts)
	assert.Empty(t, snap.Opening)
	assert.Zero(t, snap.Sources.Len())
	assert.Empty(t, snap.Budget)
}

func TestDirSource_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewDirSource(sampleDir, nil).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDirSource_BadBudgetNumber(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, accounts.Save(dir, accounts.DefaultChart("")))
	writeFile(t, dir, "sources/receipts.csv", receiptsHeader+"\n2025-01-02,R-1,Acme,,Sales,,10,,\n")
	writeFile(t, dir, "budget/budget.csv", budgetHeader+"\nAdmin,Rent,1000,0,lots,10\nAdmin,Utilities,50,0,50,000.5x\n")

	snap, err := NewDirSource(dir, nil).Load(context.Background())
	require.NoError(t, err, "a bad budget figure must not stop other sources from loading")
	assert.Len(t, snap.Sources.Receipts, 1)

	require.Len(t, snap.Budget, 2)
	assert.Equal(t, []model.Unparsed{{Field: "final_budget", Raw: "lots"}}, snap.Budget[0].Unparsed)
	assert.True(t, snap.Budget[0].FinalBudget.IsZero())
	assert.Equal(t, "10", snap.Budget[0].ActualAmount.String())
	assert.Equal(t, []model.Unparsed{{Field: "actual_amount", Raw: "000.5x"}}, snap.Budget[1].Unparsed)
}

func TestReceiptsParser_Lenient(t *testing.T) {
	cases := []struct {
		name         string
		row          string
		wantDate     bool
		wantCash     string
		wantValid    bool
		wantUnparsed []model.Unparsed
	}{
		{"plain", "2025-03-01,R,Acme,,Sales,,10.50,,", true, "10.5", true, nil},
		{"us date", "03/01/2025,R,Acme,,Sales,,10,,", true, "10", true, nil},
		{"bad date", "yesterday,R,Acme,,Sales,,10,,", false, "10", true, []model.Unparsed{{Field: "date", Raw: "yesterday"}}},
		{"bad amount", "2025-03-01,R,Acme,,Sales,,ten,,", true, "", false, []model.Unparsed{{Field: "cash", Raw: "ten"}}},
		{"parenthesised", "2025-03-01,R,Acme,,Sales,,(5.00),,", true, "-5", true, nil},
		{"short row", "2025-03-01,R,Acme", true, "", false, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var snap model.Snapshot
			err := receiptsParser{}.Parse(strings.NewReader(receiptsHeader+"\n"+tc.row+"\n"), &snap)
			require.NoError(t, err)
			require.Len(t, snap.Sources.Receipts, 1)

			r := snap.Sources.Receipts[0]
			assert.Equal(t, tc.wantDate, !r.Date.IsZero())
			assert.Equal(t, tc.wantValid, r.Cash.Valid)
			if tc.wantValid {
				assert.Equal(t, tc.wantCash, r.Cash.Decimal.String())
			}
			assert.Equal(t, tc.wantUnparsed, r.Unparsed)
		})
	}
}

// A bad figure in one cash column must not let the other column post alone.
func TestReceiptsParser_BadColumnIsReported(t *testing.T) {
	var snap model.Snapshot
	row := "2025-03-01,R-9,Acme,,Sales,,12O.00,100.00,"
	require.NoError(t, receiptsParser{}.Parse(strings.NewReader(receiptsHeader+"\n"+row+"\n"), &snap))

	entries, diags := journal.Normalize(snap.Sources, journal.Options{CashAccount: "Main Bank"})
	assert.Empty(t, entries)
	require.Len(t, diags, 1)
	assert.Equal(t, diag.KindMalformedSourceRecord, diags[0].Kind)
	assert.Equal(t, "R-9", diags[0].Reference)
	assert.Equal(t, "cash", diags[0].Field)
	assert.Equal(t, `unparsable cash "12O.00"`, diags[0].Message)
}

func TestInvoiceParser_BadLineIsReported(t *testing.T) {
	var snap model.Snapshot
	row := `2025-03-01,INV-4,Globex,,,,,"Sales=80;Fees=2O",`
	p := invoiceParser{format: "invoices-issued", kind: model.SourceInvoiceIssued}
	require.NoError(t, p.Parse(strings.NewReader(invoiceHeader+"\n"+row+"\n"), &snap))

	entries, diags := journal.Normalize(snap.Sources, journal.Options{ReceivableAccount: "Trade Debtors"})
	assert.Empty(t, entries, "no line of the invoice is posted")
	require.Len(t, diags, 1)
	assert.Equal(t, "lines", diags[0].Field)
	assert.Equal(t, `unparsable lines "Fees=2O"`, diags[0].Message)
}

func TestReadTable_ColumnOrderAndBOM(t *testing.T) {
	data := "\ufeffAmount,Debit_Account,credit_account,date,extra\n12.00,Rent,Main Bank,2025-01-02,x\n"
	var snap model.Snapshot
	require.NoError(t, journalParser{}.Parse(strings.NewReader(data), &snap))
	require.Len(t, snap.Sources.Journal, 1)

	j := snap.Sources.Journal[0]
	assert.Equal(t, "Rent", j.DebitAccount)
	assert.Equal(t, "Main Bank", j.CreditAccount)
	assert.Equal(t, "12", j.Amount.Decimal.String())
	assert.Empty(t, j.Reference)
}

func TestReadTable_UnrecognisedHeader(t *testing.T) {
	var snap model.Snapshot
	err := journalParser{}.Parse(strings.NewReader("Details,Posting Date,Amount\nx,y,z\n"), &snap)
	assert.NoError(t, err, "amount is a known column")

	err = journalParser{}.Parse(strings.NewReader("foo,bar\n1,2\n"), &snap)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected columns")
}

func TestReadTable_Empty(t *testing.T) {
	var snap model.Snapshot
	require.NoError(t, disbursementsParser{}.Parse(strings.NewReader(""), &snap))
	require.NoError(t, disbursementsParser{}.Parse(strings.NewReader(disbursementsHeader+"\n"), &snap))
	assert.Empty(t, snap.Sources.Disbursements)
}

func TestParseLines(t *testing.T) {
	lines, bad := ParseLines(" Sales=1000 ; Service Fees = 250.50;;Broken=abc")
	require.Len(t, lines, 3)
	assert.Equal(t, "Sales", lines[0].Account)
	assert.Equal(t, "1000", lines[0].Amount.Decimal.String())
	assert.Equal(t, "Service Fees", lines[1].Account)
	assert.Equal(t, "250.5", lines[1].Amount.Decimal.String())
	assert.False(t, lines[2].Amount.Valid)
	assert.Equal(t, []model.Unparsed{{Field: "lines", Raw: "Broken=abc"}}, bad)

	lines, bad = ParseLines("")
	assert.Nil(t, lines)
	assert.Nil(t, bad)
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Get("nonexistent"))
}

func TestRegistry_CaseInsensitive(t *testing.T) {
	r := NewRegistry()
	r.Register(journalParser{})
	assert.NotNil(t, r.Get("Journal"))
	assert.NotNil(t, r.Get("JOURNAL"))
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(journalParser{})
	assert.Panics(t, func() { r.Register(journalParser{}) })
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	var formats []string
	for _, p := range r.Parsers() {
		formats = append(formats, p.Format())
	}
	assert.Equal(t, []string{"receipts", "disbursements", "invoices-issued", "invoices-received", "journal", "budget"}, formats)
	assert.Equal(t, "sources/invoices-received.csv", r.Get("invoices-received").Path())
}

func TestScan(t *testing.T) {
	files, err := Scan(sampleDir, DefaultRegistry())
	require.NoError(t, err)
	assert.Len(t, files, 6)

	files, err = Scan(t.TempDir(), DefaultRegistry())
	require.NoError(t, err)
	assert.Nil(t, files)
}

func TestWriteHeaders(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sources/journal.csv", journalHeader+"\nkeep me\n")

	require.NoError(t, WriteHeaders(dir, DefaultRegistry()))

	data, err := os.ReadFile(filepath.Join(dir, "sources", "receipts.csv"))
	require.NoError(t, err)
	assert.Equal(t, receiptsHeader+"\n", string(data))

	data, err = os.ReadFile(filepath.Join(dir, "sources", "journal.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "keep me", "existing files are left alone")

	files, err := Scan(dir, DefaultRegistry())
	require.NoError(t, err)
	assert.Len(t, files, 6)
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
