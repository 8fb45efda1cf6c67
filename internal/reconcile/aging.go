package reconcile

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
)

// DefaultBuckets are the upper day bounds of the aging columns after
// "Current": 1-30, 31-60, 61-90, 91-120, then everything older.
var DefaultBuckets = []int{30, 60, 90, 120}

// AgingRow is one counterparty's outstanding amount split by age.
type AgingRow struct {
	Counterparty string            `json:"counterparty"`
	Buckets      []decimal.Decimal `json:"buckets"`
	Total        decimal.Decimal   `json:"total"`
}

// Aging is an aged debtor or creditor listing as of a date.
type Aging struct {
	Role    Role              `json:"role"`
	AsOf    time.Time         `json:"as_of"`
	Labels  []string          `json:"labels"`
	Rows    []AgingRow        `json:"rows"`
	Buckets []decimal.Decimal `json:"bucket_totals"`
	Total   decimal.Decimal   `json:"total"`
}

type openInvoice struct {
	ref    string
	date   time.Time
	amount decimal.Decimal
}

// Age splits each counterparty's outstanding balance by invoice age as of
// asOf. Only entries dated on or before asOf count. Settlements are applied
// to the oldest invoices first, so each row's total equals the outstanding
// amount Reconcile reports for the same entries. Lines of a split invoice
// age together. bounds must be ascending; nil means DefaultBuckets.
func Age(entries []model.LedgerEntry, role Role, asOf time.Time, bounds []int) Aging {
	if bounds == nil {
		bounds = DefaultBuckets
	}
	invoicedKind, settledKind := role.sources()

	invoices := make(map[string]map[string]*openInvoice)
	settled := make(map[string]decimal.Decimal)
	for _, e := range entries {
		if e.Date.After(asOf) {
			continue
		}
		switch e.SourceKind {
		case invoicedKind:
			byRef, ok := invoices[e.Counterparty]
			if !ok {
				byRef = make(map[string]*openInvoice)
				invoices[e.Counterparty] = byRef
			}
			ref := e.Document
			if ref == "" {
				ref = e.Reference
			}
			inv, ok := byRef[ref]
			if !ok {
				inv = &openInvoice{ref: ref, date: e.Date}
				byRef[ref] = inv
			}
			if e.Date.Before(inv.date) {
				inv.date = e.Date
			}
			inv.amount = inv.amount.Add(e.Amount)
		case settledKind:
			settled[e.Counterparty] = settled[e.Counterparty].Add(e.Amount)
		}
	}

	aging := Aging{
		Role:    role,
		AsOf:    asOf,
		Labels:  BucketLabels(bounds),
		Buckets: zeros(len(bounds) + 2),
		Rows:    []AgingRow{},
	}

	parties := make([]string, 0, len(invoices))
	for p := range invoices {
		parties = append(parties, p)
	}
	sort.Strings(parties)

	for _, party := range parties {
		open := make([]*openInvoice, 0, len(invoices[party]))
		for _, inv := range invoices[party] {
			open = append(open, inv)
		}
		sort.Slice(open, func(i, j int) bool {
			if !open[i].date.Equal(open[j].date) {
				return open[i].date.Before(open[j].date)
			}
			return open[i].ref < open[j].ref
		})

		row := AgingRow{Counterparty: party, Buckets: zeros(len(bounds) + 2)}
		remaining := settled[party]
		for _, inv := range open {
			applied := decimal.Min(remaining, inv.amount)
			remaining = remaining.Sub(applied)
			due := inv.amount.Sub(applied)
			if due.IsZero() {
				continue
			}
			b := bucketFor(daysBetween(inv.date, asOf), bounds)
			row.Buckets[b] = row.Buckets[b].Add(due)
			row.Total = row.Total.Add(due)
		}
		if row.Total.IsZero() {
			continue
		}
		for i, v := range row.Buckets {
			aging.Buckets[i] = aging.Buckets[i].Add(v)
		}
		aging.Total = aging.Total.Add(row.Total)
		aging.Rows = append(aging.Rows, row)
	}
	return aging
}

// BucketLabels returns the column labels for a set of bounds.
func BucketLabels(bounds []int) []string {
	labels := []string{"Current"}
	lo := 1
	for _, hi := range bounds {
		labels = append(labels, fmt.Sprintf("%d-%d", lo, hi))
		lo = hi + 1
	}
	if len(bounds) > 0 {
		labels = append(labels, fmt.Sprintf("%d+", bounds[len(bounds)-1]+1))
	} else {
		labels = append(labels, "1+")
	}
	return labels
}

func bucketFor(days int, bounds []int) int {
	if days <= 0 {
		return 0
	}
	for i, hi := range bounds {
		if days <= hi {
			return i + 1
		}
	}
	return len(bounds) + 1
}

func daysBetween(from, to time.Time) int {
	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	to = time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

func zeros(n int) []decimal.Decimal {
	z := make([]decimal.Decimal, n)
	for i := range z {
		z[i] = decimal.Zero
	}
	return z
}
