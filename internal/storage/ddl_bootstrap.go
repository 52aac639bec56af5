package storage

import (
	"context"
	"fmt"
	"sync"

	"silorecon/internal/schema"
)

// DDLBootstrapper is a backend-specific function that maps a type-tagged
// schema to the backend's column types and replaces table fqn with an empty
// table of that shape via repo.Exec.
//
// Backends register their implementation for a storage kind at init time.
type DDLBootstrapper func(ctx context.Context, repo Repository, fqn string, tbl schema.Table) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL registers (or replaces) a DDLBootstrapper for the given storage
// kind. It is typically called from backend packages' init() functions.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// RecreateTable locates the DDLBootstrapper for kind and invokes it. Any
// existing table named fqn is discarded.
func RecreateTable(ctx context.Context, kind string, repo Repository, fqn string, tbl schema.Table) error {
	ddlMu.RLock()
	fn, ok := ddlFns[kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("no DDL bootstrapper registered for storage.kind=%q", kind)
	}
	return fn(ctx, repo, fqn, tbl)
}
