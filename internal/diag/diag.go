// Package diag defines the error taxonomy shared by every pipeline stage.
//
// Catalog problems and imbalanced batches are fatal and surface as errors
// wrapping ErrInvalidAccountRecord or ErrImbalancedBatch. Problems with a
// single source record or entry are recovered locally: the record is
// excluded and a Diagnostic is returned alongside the report.
package diag

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cleared-dev/tally/internal/model"
)

var (
	// ErrInvalidAccountRecord marks a chart-of-accounts record that cannot be indexed.
	ErrInvalidAccountRecord = errors.New("invalid account record")
	// ErrImbalancedBatch marks a batch whose total debits differ from its total credits.
	ErrImbalancedBatch = errors.New("imbalanced batch")
)

// Kind classifies a non-fatal problem.
type Kind string

const (
	KindMalformedSourceRecord      Kind = "MalformedSourceRecord"
	KindUnresolvedAccountReference Kind = "UnresolvedAccountReference"
)

// Diagnostic describes one excluded input record and why it was excluded.
type Diagnostic struct {
	Kind      Kind             `json:"kind"`
	Source    model.SourceKind `json:"source,omitempty"`
	Reference string           `json:"reference,omitempty"`
	Row       int              `json:"row,omitempty"` // 1-based position within its source, 0 if unknown
	Field     string           `json:"field,omitempty"`
	Message   string           `json:"message"`
}

func (d Diagnostic) Error() string {
	loc := string(d.Source)
	if d.Reference != "" {
		loc += " " + d.Reference
	} else if d.Row > 0 {
		loc += fmt.Sprintf(" row %d", d.Row)
	}
	if loc == "" {
		return fmt.Sprintf("%s: %s", d.Kind, d.Message)
	}
	return fmt.Sprintf("%s [%s]: %s", d.Kind, loc, d.Message)
}

// Malformed returns a MalformedSourceRecord diagnostic.
func Malformed(src model.SourceKind, row int, ref, field, msg string) Diagnostic {
	return Diagnostic{Kind: KindMalformedSourceRecord, Source: src, Row: row, Reference: ref, Field: field, Message: msg}
}

// Unparsable returns a MalformedSourceRecord diagnostic for a column whose
// text is present but is not a valid value.
func Unparsable(src model.SourceKind, row int, ref, field, raw string) Diagnostic {
	return Malformed(src, row, ref, field, fmt.Sprintf("unparsable %s %q", strings.ReplaceAll(field, "_", " "), raw))
}

// Unresolved returns an UnresolvedAccountReference diagnostic for account.
func Unresolved(src model.SourceKind, ref, field, account string) Diagnostic {
	return Diagnostic{
		Kind:      KindUnresolvedAccountReference,
		Source:    src,
		Reference: ref,
		Field:     field,
		Message:   fmt.Sprintf("unknown account %q", account),
	}
}

// List is an ordered collection of diagnostics.
type List []Diagnostic

// Count returns the number of diagnostics of the given kind.
func (l List) Count(kind Kind) int {
	n := 0
	for _, d := range l {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

// ByKind returns counts keyed by kind.
func (l List) ByKind() map[Kind]int {
	counts := make(map[Kind]int)
	for _, d := range l {
		counts[d.Kind]++
	}
	return counts
}
