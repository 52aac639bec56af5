// Package storage contains storage-agnostic contracts and utilities.
//
// Concrete backends (postgres, mssql, mysql, sqlite, snowflake, memory)
// register a Factory at init time; callers obtain a Repository through New
// and never import a backend directly. Import storage/all to enable every
// built-in backend.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Repository is the minimal table sink the loader needs.
//
// A Repository holds one session: statements issued through it observe the
// context set by Bind. Implementations are not safe for concurrent use.
type Repository interface {
	// Bind points the session at the destination namespace (database,
	// schema, warehouse, role). Empty fields are left untouched.
	Bind(ctx context.Context, ns Namespace) error

	// Exec runs a single statement, typically DDL.
	Exec(ctx context.Context, sql string) error

	// CopyFrom bulk-inserts rows aligned to columns into table and returns
	// the number of rows the backend reported as inserted. Each call is
	// atomic on its own.
	CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	// Tx runs fn inside the strongest transaction the backend offers. When
	// the backend cannot roll back DDL, fn runs without an enclosing
	// transaction and only each CopyFrom is atomic.
	Tx(ctx context.Context, fn func(ctx context.Context, tx Repository) error) error

	// Close releases the session.
	Close()
}

// Namespace is the session context a destination table lives in.
type Namespace struct {
	Database  string
	Schema    string
	Warehouse string
	Role      string
}

// Config is the storage-agnostic configuration passed to factories.
type Config struct {
	// Kind selects the backend, e.g. "snowflake", "postgres", "sqlite".
	Kind string

	// DSN is passed to the backend driver verbatim.
	DSN string
}

// Factory constructs a Repository for a given Config.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register adds (or replaces) a backend factory for kind. Backends call it
// from init.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a Repository for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered backend kinds in sorted order. The
// returned slice is a copy.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
