// Package extract defines the row-source contract: a Source yields the two
// raw extracts a reconciliation run consumes, the task table and the bin
// mapping table.
//
// Concrete sources register themselves by kind in init(), mirroring the
// storage registry; import silorecon/internal/extract/all to get every
// source.
package extract

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"silorecon/internal/config"
	"silorecon/pkg/records"
)

// Table is one tabular extract. Columns preserves source column order; a row
// may omit a column, which reads as null.
type Table struct {
	Columns []string
	Rows    []records.Record
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// Snapshot holds both extracts of a run.
type Snapshot struct {
	Tasks    Table
	Mappings Table
}

// Source reads one Snapshot.
type Source interface {
	Extract(ctx context.Context) (Snapshot, error)
}

// ExtractError reports a failed source read. Source names the extract or
// backend that failed, e.g. "sql:tasks" or "csv:mappings".
type ExtractError struct {
	Source string
	Err    error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Source, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// Factory builds a Source from its pipeline configuration.
type Factory func(cfg config.Source) (Source, error)

var (
	regMu    sync.RWMutex
	registry = map[string]Factory{}
)

// Register installs f under kind, replacing any previous factory.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	registry[kind] = f
}

// New builds the Source registered for cfg.Kind.
func New(cfg config.Source) (Source, error) {
	regMu.RLock()
	f, ok := registry[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported source.kind=%s", cfg.Kind)
	}
	return f(cfg)
}

// ListKinds returns the registered kinds, sorted.
func ListKinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
