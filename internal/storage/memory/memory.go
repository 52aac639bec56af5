// Package memory implements an in-process storage.Repository. It backs tests
// and dry runs ("storage.kind": "memory"); repositories opened with the same
// DSN share one store for the life of the process.
//
// Tx snapshots the store and restores it when the callback fails, so the
// memory sink has the same all-or-nothing replacement as Postgres.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"silorecon/internal/schema"
	"silorecon/internal/storage"
)

// Table is one stored table.
type Table struct {
	Schema schema.Table
	Rows   [][]any
}

func (t *Table) clone() *Table {
	rows := make([][]any, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = slices.Clone(r)
	}
	return &Table{Schema: schema.Table{Columns: slices.Clone(t.Schema.Columns)}, Rows: rows}
}

// Store holds tables keyed by fully-qualified name.
type Store struct {
	mu     sync.Mutex
	tables map[string]*Table
}

// NewStore returns an empty store.
func NewStore() *Store { return &Store{tables: map[string]*Table{}} }

// Lookup returns a copy of table fqn.
func (s *Store) Lookup(fqn string) (Table, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[fqn]
	if !ok {
		return Table{}, false
	}
	return *t.clone(), true
}

func (s *Store) snapshot() map[string]*Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*Table, len(s.tables))
	for k, t := range s.tables {
		out[k] = t.clone()
	}
	return out
}

func (s *Store) restore(m map[string]*Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = m
}

var (
	storesMu sync.Mutex
	stores   = map[string]*Store{}
)

// Shared returns the process-wide store registered under name.
func Shared(name string) *Store {
	storesMu.Lock()
	defer storesMu.Unlock()
	s, ok := stores[name]
	if !ok {
		s = NewStore()
		stores[name] = s
	}
	return s
}

// Repository is a storage.Repository over a Store.
type Repository struct {
	store *Store
	ns    storage.Namespace
	inTx  bool
	execs []string

	// CopyErr, when set, makes every CopyFrom fail with it.
	CopyErr error
}

var _ storage.Repository = (*Repository)(nil)

// New returns a Repository over store.
func New(store *Store) *Repository { return &Repository{store: store} }

// Store exposes the backing store.
func (r *Repository) Store() *Store { return r.store }

// Namespace returns the namespace passed to the last Bind.
func (r *Repository) Namespace() storage.Namespace { return r.ns }

// Execs returns the statements passed to Exec.
func (r *Repository) Execs() []string { return slices.Clone(r.execs) }

// Bind records ns; the memory store has no session context.
func (r *Repository) Bind(_ context.Context, ns storage.Namespace) error {
	r.ns = ns
	return nil
}

// Exec records sql without interpreting it.
func (r *Repository) Exec(_ context.Context, sql string) error {
	r.execs = append(r.execs, sql)
	return nil
}

// CreateTable replaces fqn with an empty table shaped like tbl.
func (r *Repository) CreateTable(fqn string, tbl schema.Table) error {
	if fqn == "" {
		return fmt.Errorf("memory: table name must not be empty")
	}
	if len(tbl.Columns) == 0 {
		return fmt.Errorf("memory: table %s needs at least one column", fqn)
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.tables[fqn] = &Table{Schema: schema.Table{Columns: slices.Clone(tbl.Columns)}}
	return nil
}

// CopyFrom appends rows to table. Columns must match the table's columns in
// order.
func (r *Repository) CopyFrom(_ context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if r.CopyErr != nil {
		return 0, r.CopyErr
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	t, ok := r.store.tables[table]
	if !ok {
		return 0, fmt.Errorf("memory: table %s does not exist", table)
	}
	if !slices.Equal(t.Schema.Names(), columns) {
		return 0, fmt.Errorf("memory: columns %v do not match table %s columns %v", columns, table, t.Schema.Names())
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return 0, fmt.Errorf("memory: row %d length %d != columns length %d", i, len(row), len(columns))
		}
	}
	for _, row := range rows {
		t.Rows = append(t.Rows, slices.Clone(row))
	}
	return int64(len(rows)), nil
}

// Tx runs fn and restores the store to its prior state if fn fails.
func (r *Repository) Tx(ctx context.Context, fn func(ctx context.Context, tx storage.Repository) error) error {
	if r.inTx {
		return fn(ctx, r)
	}
	snap := r.store.snapshot()
	child := &Repository{store: r.store, ns: r.ns, inTx: true, CopyErr: r.CopyErr}
	err := fn(ctx, child)
	r.execs = append(r.execs, child.execs...)
	if err != nil {
		r.store.restore(snap)
		return err
	}
	return nil
}

// Close is a no-op; the store outlives the repository.
func (r *Repository) Close() {}

type tableCreator interface {
	CreateTable(fqn string, tbl schema.Table) error
}

func recreateTable(_ context.Context, repo storage.Repository, fqn string, tbl schema.Table) error {
	c, ok := repo.(tableCreator)
	if !ok {
		return fmt.Errorf("memory: DDL on foreign repository %T", repo)
	}
	return c.CreateTable(fqn, tbl)
}

func init() {
	storage.Register("memory", func(_ context.Context, cfg storage.Config) (storage.Repository, error) {
		return New(Shared(cfg.DSN)), nil
	})
	storage.RegisterDDL("memory", recreateTable)
}
