package ledger

import "time"

// Period bounds a report. Both ends are inclusive calendar dates; a zero
// bound leaves that side open.
type Period struct {
	Start time.Time `json:"start,omitzero"`
	End   time.Time `json:"end,omitzero"`
}

// BeforeStart reports whether t falls before the period opens.
func (p Period) BeforeStart(t time.Time) bool {
	return !p.Start.IsZero() && day(t).Before(day(p.Start))
}

// AfterEnd reports whether t falls after the period closes.
func (p Period) AfterEnd(t time.Time) bool {
	return !p.End.IsZero() && day(t).After(day(p.End))
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	return !p.BeforeStart(t) && !p.AfterEnd(t)
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
