package accounts

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/model"
)

func TestReadAccountsGroupsRows(t *testing.T) {
	input := ChartHeader + "\n" +
		"1000,Asset,Cash and Cash Equivalents,1,Cash on Hand\n" +
		"5100,Expense,Operating Expenses,7,Rent\n" +
		"1000,Asset,Cash and Cash Equivalents,1,Main Bank\n" +
		"3000,Equity,Owner's Equity,5,\n"

	accts, err := ReadAccounts(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, accts, 3)

	assert.Equal(t, "Cash and Cash Equivalents", accts[0].ParentAccount)
	assert.Equal(t, []model.SubAccount{{Name: "Cash on Hand"}, {Name: "Main Bank"}}, accts[0].SubAccounts)
	assert.Equal(t, "Operating Expenses", accts[1].ParentAccount)
	assert.Empty(t, accts[2].SubAccounts)
	assert.Equal(t, model.AccountTypeEquity, accts[2].Type)
}

func TestReadAccountsKeepsNamelessRows(t *testing.T) {
	input := ChartHeader + "\n" +
		"9,Asset,,,Float\n" +
		"10,Asset,,,Till\n"

	accts, err := ReadAccounts(strings.NewReader(input))
	require.NoError(t, err)
	assert.Len(t, accts, 2, "nameless rows are not merged")
}

func TestReadAccountsConflictingType(t *testing.T) {
	input := ChartHeader + "\n" +
		"1,Asset,Cash,,Till\n" +
		"1,Expense,Cash,,Float\n"

	_, err := ReadAccounts(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 3")
}

func TestReadAccountsWrongFieldCount(t *testing.T) {
	_, err := ReadAccounts(strings.NewReader("a,b\n1,2\n"))
	require.Error(t, err)
}

func TestDefaultChartRoundTrip(t *testing.T) {
	chart := DefaultChart("small_business")

	var buf bytes.Buffer
	require.NoError(t, WriteAccounts(&buf, chart))

	got, err := ReadAccounts(&buf)
	require.NoError(t, err)
	assert.Equal(t, chart, got)
}

func TestReadOpening(t *testing.T) {
	input := OpeningHeader + "\nMain Bank,2500.00\nCapital,2500\n"
	opening, err := ReadOpening(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, opening, 2)
	assert.Equal(t, "2500.00", opening["Main Bank"].StringFixed(2))

	_, err = ReadOpening(strings.NewReader(OpeningHeader + "\nMain Bank,lots\n"))
	require.Error(t, err)

	_, err = ReadOpening(strings.NewReader(OpeningHeader + "\nMain Bank,1\nMain Bank,2\n"))
	require.Error(t, err)
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	chart := DefaultChart("nonprofit")
	require.NoError(t, Save(dir, chart))

	_, err := os.Stat(filepath.Join(dir, "accounts", "chart-of-accounts.csv"))
	require.NoError(t, err)

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, chart, got)

	opening, err := LoadOpening(dir)
	require.NoError(t, err)
	assert.Empty(t, opening, "missing opening file means zero balances")
}

func TestLoadMissingChart(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteAccountsReportsFlushError(t *testing.T) {
	err := WriteAccounts(failingWriter{}, DefaultChart(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
