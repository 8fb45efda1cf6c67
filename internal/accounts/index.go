package accounts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cleared-dev/tally/internal/diag"
	"github.com/cleared-dev/tally/internal/model"
)

// Entry is what the catalog knows about one postable sub-account.
type Entry struct {
	SubAccount    string
	ParentAccount string
	Type          model.AccountType
	NoteNumber    string
}

// Index provides in-memory lookup over the chart of accounts. It is
// read-only after Build and safe for concurrent use.
type Index struct {
	accounts []model.Account
	entries  []Entry // catalog order
	bySub    map[string]Entry
	byParent map[string]model.Account
	parents  []string
	byNote   map[string][]string
}

// Build indexes a chart of accounts. Every malformed record is reported in
// the returned error, which wraps diag.ErrInvalidAccountRecord.
func Build(accts []model.Account) (*Index, error) {
	x := &Index{
		accounts: accts,
		bySub:    make(map[string]Entry),
		byParent: make(map[string]model.Account, len(accts)),
		byNote:   make(map[string][]string),
	}

	var problems []string
	for i, a := range accts {
		parent := strings.TrimSpace(a.ParentAccount)
		if parent == "" {
			problems = append(problems, fmt.Sprintf("record %d (id %q): missing parent account", i+1, a.ID))
			continue
		}
		if !a.Type.Valid() {
			problems = append(problems, fmt.Sprintf("account %q: unknown type %q", parent, a.Type))
			continue
		}
		if _, dup := x.byParent[parent]; dup {
			problems = append(problems, fmt.Sprintf("account %q: listed more than once", parent))
			continue
		}
		x.byParent[parent] = a
		x.parents = append(x.parents, parent)

		if a.NoteNumber != "" {
			x.byNote[a.NoteNumber] = append(x.byNote[a.NoteNumber], parent)
		}

		for _, sub := range a.SubAccounts {
			name := strings.TrimSpace(sub.Name)
			if name == "" {
				problems = append(problems, fmt.Sprintf("account %q: empty sub-account name", parent))
				continue
			}
			if prev, dup := x.bySub[name]; dup {
				if prev.ParentAccount == parent {
					problems = append(problems, fmt.Sprintf("account %q: duplicate sub-account %q", parent, name))
				} else {
					problems = append(problems, fmt.Sprintf("sub-account %q: listed under both %q and %q", name, prev.ParentAccount, parent))
				}
				continue
			}
			e := Entry{SubAccount: name, ParentAccount: parent, Type: a.Type, NoteNumber: a.NoteNumber}
			x.bySub[name] = e
			x.entries = append(x.entries, e)
		}
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", diag.ErrInvalidAccountRecord, strings.Join(problems, "; "))
	}

	for note := range x.byNote {
		sort.Strings(x.byNote[note])
	}
	return x, nil
}

// Accounts returns the records the index was built from.
func (x *Index) Accounts() []model.Account {
	return x.accounts
}

// All returns every sub-account in catalog order.
func (x *Index) All() []Entry {
	return x.entries
}

// Lookup returns the catalog entry for a sub-account name. A miss is a
// normal outcome: source records routinely reference stale names.
func (x *Index) Lookup(subAccount string) (Entry, bool) {
	e, ok := x.bySub[subAccount]
	return e, ok
}

// Exists reports whether a sub-account name is in the catalog.
func (x *Index) Exists(subAccount string) bool {
	_, ok := x.bySub[subAccount]
	return ok
}

// Parent returns the parent account record by name.
func (x *Index) Parent(name string) (model.Account, bool) {
	a, ok := x.byParent[name]
	return a, ok
}

// Parents returns parent account names in catalog order.
func (x *Index) Parents() []string {
	return x.parents
}

// SubAccounts returns the sub-account names of a parent, in catalog order.
func (x *Index) SubAccounts(parent string) []string {
	a, ok := x.byParent[parent]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(a.SubAccounts))
	for _, s := range a.SubAccounts {
		names = append(names, strings.TrimSpace(s.Name))
	}
	return names
}

// ParentsByNote returns the parent accounts sharing a note number, sorted.
func (x *Index) ParentsByNote(note string) []string {
	return x.byNote[note]
}

// Notes returns every note number in use, sorted.
func (x *Index) Notes() []string {
	notes := make([]string, 0, len(x.byNote))
	for n := range x.byNote {
		notes = append(notes, n)
	}
	sort.Strings(notes)
	return notes
}

// ByType returns all sub-accounts of the given type, in catalog order.
func (x *Index) ByType(t model.AccountType) []Entry {
	var result []Entry
	for _, e := range x.entries {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}
