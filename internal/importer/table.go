package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
)

// dateLayouts are tried in order when parsing a date column.
var dateLayouts = []string{
	time.DateOnly,
	"2006/01/02",
	"01/02/2006",
	"02-Jan-2006",
	"2 January 2006",
}

// table is a CSV file addressed by column name. Columns may appear in any
// order; missing columns read as empty and unknown ones are ignored.
type table struct {
	cols map[string]int
	rows [][]string
}

func readTable(r io.Reader, header string) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	t := &table{cols: make(map[string]int)}
	if len(records) == 0 {
		return t, nil
	}

	for i, name := range records[0] {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		t.cols[name] = i
	}
	known := 0
	for _, want := range strings.Split(header, ",") {
		if _, ok := t.cols[want]; ok {
			known++
		}
	}
	if known == 0 {
		return nil, fmt.Errorf("header %q has none of the expected columns %q", strings.Join(records[0], ","), header)
	}
	t.rows = records[1:]
	return t, nil
}

// get returns the trimmed value of col in row, or "".
func (t *table) get(row []string, col string) string {
	i, ok := t.cols[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// row reads the typed columns of one record and remembers any column
// whose text could not be parsed, so the record can be reported instead
// of posting with the value treated as empty.
type row struct {
	t        *table
	cells    []string
	unparsed []model.Unparsed
}

func (t *table) row(cells []string) *row {
	return &row{t: t, cells: cells}
}

func (r *row) get(col string) string {
	return r.t.get(r.cells, col)
}

func (r *row) bad(col, raw string) {
	r.unparsed = append(r.unparsed, model.Unparsed{Field: col, Raw: raw})
}

// date returns the zero time when the value is empty or unparsable.
func (r *row) date(col string) time.Time {
	s := r.get(col)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d
		}
	}
	r.bad(col, s)
	return time.Time{}
}

// amount returns an invalid NullDecimal when the value is empty or
// unparsable.
func (r *row) amount(col string) decimal.NullDecimal {
	s := r.get(col)
	n, ok := parseAmount(s)
	if !ok {
		r.bad(col, s)
	}
	return n
}

// number reads a column that must be numeric when present. Empty is zero.
func (r *row) number(col string) decimal.Decimal {
	return r.amount(col).Decimal
}

// parseAmount accepts plain decimals, thousands separators and
// accounting-style parentheses for negatives. ok is false only when s is
// non-empty and not a number.
func parseAmount(s string) (n decimal.NullDecimal, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}, true
	}
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, false
	}
	if neg {
		d = d.Neg()
	}
	return decimal.NewNullDecimal(d), true
}
