package diag

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Header is the CSV header written by WriteCSV.
const Header = "kind,source,reference,row,field,message"

// MarshalDiagnostic converts a Diagnostic to a CSV row.
func MarshalDiagnostic(d Diagnostic) []string {
	row := []string{string(d.Kind), string(d.Source), d.Reference, "", d.Field, d.Message}
	if d.Row > 0 {
		row[3] = strconv.Itoa(d.Row)
	}
	return row
}

// WriteCSV writes diagnostics with a header row.
func WriteCSV(w io.Writer, list List) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, d := range list {
		if err := cw.Write(MarshalDiagnostic(d)); err != nil {
			return fmt.Errorf("writing diagnostic %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
