// Package importer loads a reporting snapshot from a directory of CSV files.
package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cleared-dev/tally/internal/accounts"
	"github.com/cleared-dev/tally/internal/model"
)

// Source supplies the snapshot a report is computed from.
type Source interface {
	Load(ctx context.Context) (model.Snapshot, error)
}

// Parser reads one source file of a snapshot directory into the snapshot.
type Parser interface {
	Format() string // short name, e.g. "receipts"
	Path() string   // slash-separated path relative to the snapshot root
	Header() string
	Parse(r io.Reader, snap *model.Snapshot) error
}

// Registry holds named parsers in registration order.
type Registry struct {
	parsers map[string]Parser
	order   []string
}

// FileInfo describes a source file present in a snapshot directory.
type FileInfo struct {
	Format string
	Path   string
	Size   int64
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
	r.order = append(r.order, key)
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// Parsers returns every parser in registration order.
func (r *Registry) Parsers() []Parser {
	out := make([]Parser, len(r.order))
	for i, k := range r.order {
		out[i] = r.parsers[k]
	}
	return out
}

// DefaultRegistry returns a registry with all built-in source parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(receiptsParser{})
	r.Register(disbursementsParser{})
	r.Register(invoiceParser{format: "invoices-issued", kind: model.SourceInvoiceIssued})
	r.Register(invoiceParser{format: "invoices-received", kind: model.SourceInvoiceReceived})
	r.Register(journalParser{})
	r.Register(budgetParser{})
	return r
}

// Scan returns the registered source files present under root, in
// registration order. Missing files are not an error.
func Scan(root string, reg *Registry) ([]FileInfo, error) {
	var files []FileInfo
	for _, p := range reg.Parsers() {
		path := filepath.Join(root, filepath.FromSlash(p.Path()))
		info, err := os.Stat(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p.Path(), err)
		}
		files = append(files, FileInfo{Format: p.Format(), Path: path, Size: info.Size()})
	}
	return files, nil
}

// DirSource loads a snapshot from a directory laid out as
//
//	accounts/chart-of-accounts.csv
//	accounts/opening-balances.csv
//	sources/*.csv
//	budget/budget.csv
//
// Only the chart of accounts is required.
type DirSource struct {
	Root     string
	Registry *Registry    // nil means DefaultRegistry
	Log      *slog.Logger // nil discards
}

// NewDirSource creates a DirSource over root with the default parsers.
func NewDirSource(root string, log *slog.Logger) *DirSource {
	return &DirSource{Root: root, Registry: DefaultRegistry(), Log: log}
}

// Load reads every file of the snapshot directory.
func (d *DirSource) Load(ctx context.Context) (model.Snapshot, error) {
	reg := d.Registry
	if reg == nil {
		reg = DefaultRegistry()
	}
	log := d.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	var snap model.Snapshot
	accts, err := accounts.Load(d.Root)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("loading snapshot: %w", err)
	}
	snap.Accounts = accts

	opening, err := accounts.LoadOpening(d.Root)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("loading snapshot: %w", err)
	}
	snap.Opening = opening

	files, err := Scan(d.Root, reg)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("loading snapshot: %w", err)
	}
	for _, fi := range files {
		if err := ctx.Err(); err != nil {
			return model.Snapshot{}, err
		}
		if err := parseFile(fi.Path, reg.Get(fi.Format), &snap); err != nil {
			return model.Snapshot{}, fmt.Errorf("loading snapshot: %w", err)
		}
		log.Debug("source loaded", "format", fi.Format, "bytes", fi.Size)
	}

	log.Debug("snapshot loaded",
		"root", d.Root,
		"accounts", len(snap.Accounts),
		"records", snap.Sources.Len(),
		"budget_lines", len(snap.Budget))
	return snap, nil
}

func parseFile(path string, p Parser, snap *model.Snapshot) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", p.Path(), err)
	}
	defer f.Close()

	if err := p.Parse(f, snap); err != nil {
		return fmt.Errorf("parsing %s: %w", p.Path(), err)
	}
	return nil
}

// WriteHeaders creates every registered source file that does not exist
// yet, containing only its header row.
func WriteHeaders(root string, reg *Registry) error {
	for _, p := range reg.Parsers() {
		path := filepath.Join(root, filepath.FromSlash(p.Path()))
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("creating %s dir: %w", p.Format(), err)
		}
		if err := os.WriteFile(path, []byte(p.Header()+"\n"), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", p.Path(), err)
		}
	}
	return nil
}
