package id

import (
	"fmt"
	"strconv"
)

// FormatLineRef returns a line reference like "INV-7/2" (lines are 1-based).
// It is for display only; entries carry their source document separately.
func FormatLineRef(ref string, line int) string {
	return ref + "/" + strconv.Itoa(line)
}

// FormatRowRef returns a synthetic reference like "cash-receipt#0003" for
// a source row that carries no reference of its own.
func FormatRowRef(source string, row int) string {
	return fmt.Sprintf("%s#%04d", source, row)
}
