package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
)

// ChartHeader is the CSV header for chart-of-accounts.csv.
const ChartHeader = "account_id,account_type,account_name,note_number,sub_account"

// OpeningHeader is the CSV header for opening-balances.csv.
const OpeningHeader = "sub_account,amount"

const (
	numFields  = 5
	colID      = 0
	colType    = 1
	colName    = 2
	colNote    = 3
	colSub     = 4
	chartFile  = "chart-of-accounts.csv"
	openingDir = "accounts"
	openFile   = "opening-balances.csv"
)

// ChartPath returns the chart-of-accounts path inside a snapshot root.
func ChartPath(root string) string {
	return filepath.Join(root, openingDir, chartFile)
}

// OpeningPath returns the opening-balances path inside a snapshot root.
func OpeningPath(root string) string {
	return filepath.Join(root, openingDir, openFile)
}

// ReadAccounts reads chart-of-accounts.csv. The file has one row per
// sub-account; consecutive or scattered rows with the same account_name are
// merged into one Account in order of first appearance. A row with an empty
// sub_account declares the parent without adding a sub-account. Rows with
// an empty account_name are kept as separate records so that Build can
// reject them.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var accounts []model.Account
	pos := make(map[string]int)
	for i, rec := range records[1:] {
		row := UnmarshalAccountRow(rec)
		if row.ParentAccount == "" {
			accounts = append(accounts, row)
			continue
		}
		idx, seen := pos[row.ParentAccount]
		if !seen {
			pos[row.ParentAccount] = len(accounts)
			accounts = append(accounts, row)
			continue
		}
		existing := &accounts[idx]
		if existing.Type != row.Type {
			return nil, fmt.Errorf("row %d: account %q has type %q, earlier rows say %q", i+2, row.ParentAccount, row.Type, existing.Type)
		}
		if existing.NoteNumber == "" {
			existing.NoteNumber = row.NoteNumber
		}
		existing.SubAccounts = append(existing.SubAccounts, row.SubAccounts...)
	}
	return accounts, nil
}

// WriteAccounts writes chart-of-accounts.csv, one row per sub-account.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(strings.Split(ChartHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, acct := range accounts {
		for _, row := range MarshalAccount(acct) {
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("writing account %q: %w", acct.ParentAccount, err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts an Account to CSV rows.
func MarshalAccount(acct model.Account) [][]string {
	base := func(sub string) []string {
		row := make([]string, numFields)
		row[colID] = acct.ID
		row[colType] = string(acct.Type)
		row[colName] = acct.ParentAccount
		row[colNote] = acct.NoteNumber
		row[colSub] = sub
		return row
	}
	if len(acct.SubAccounts) == 0 {
		return [][]string{base("")}
	}
	rows := make([][]string, 0, len(acct.SubAccounts))
	for _, s := range acct.SubAccounts {
		rows = append(rows, base(s.Name))
	}
	return rows
}

// UnmarshalAccountRow converts one CSV row to a single-sub-account Account.
func UnmarshalAccountRow(record []string) model.Account {
	acct := model.Account{
		ID:            strings.TrimSpace(record[colID]),
		Type:          model.AccountType(strings.TrimSpace(record[colType])),
		ParentAccount: strings.TrimSpace(record[colName]),
		NoteNumber:    strings.TrimSpace(record[colNote]),
	}
	if sub := strings.TrimSpace(record[colSub]); sub != "" {
		acct.SubAccounts = []model.SubAccount{{Name: sub}}
	}
	return acct
}

// ReadOpening reads opening-balances.csv into a map keyed by sub-account.
func ReadOpening(r io.Reader) (map[string]decimal.Decimal, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading opening balances CSV: %w", err)
	}

	opening := make(map[string]decimal.Decimal)
	if len(records) == 0 {
		return opening, nil
	}
	for i, rec := range records[1:] {
		name := strings.TrimSpace(rec[0])
		amt, err := decimal.NewFromString(strings.TrimSpace(rec[1]))
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing amount %q: %w", i+2, rec[1], err)
		}
		if _, dup := opening[name]; dup {
			return nil, fmt.Errorf("row %d: duplicate opening balance for %q", i+2, name)
		}
		opening[name] = amt
	}
	return opening, nil
}

// Load reads the chart of accounts from a snapshot root.
func Load(root string) ([]model.Account, error) {
	f, err := os.Open(ChartPath(root))
	if err != nil {
		return nil, fmt.Errorf("opening chart of accounts: %w", err)
	}
	defer f.Close()

	accts, err := ReadAccounts(f)
	if err != nil {
		return nil, fmt.Errorf("reading chart of accounts: %w", err)
	}
	return accts, nil
}

// LoadOpening reads opening balances from a snapshot root. A missing file
// means every account opens at zero.
func LoadOpening(root string) (map[string]decimal.Decimal, error) {
	f, err := os.Open(OpeningPath(root))
	if os.IsNotExist(err) {
		return map[string]decimal.Decimal{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening opening balances: %w", err)
	}
	defer f.Close()

	return ReadOpening(f)
}

// Save writes the chart of accounts to accounts/chart-of-accounts.csv.
func Save(root string, accts []model.Account) error {
	dir := filepath.Join(root, openingDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating accounts dir: %w", err)
	}

	f, err := os.Create(ChartPath(root))
	if err != nil {
		return fmt.Errorf("creating chart of accounts file: %w", err)
	}
	defer f.Close()

	if err := WriteAccounts(f, accts); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}
	return nil
}
