package postgres

import (
	"context"

	"silorecon/internal/storage"
	pgddl "silorecon/internal/storage/postgres/ddl"
)

// newRepository is a test hook that points to NewRepository by default.
// Tests may replace this variable to avoid real DB connections.
var newRepository = NewRepository

// init registers the "postgres" backend with the storage factory and its DDL
// bootstrapper, keeping callers backend-agnostic:
//
//	repo, err := storage.New(ctx, storage.Config{Kind: "postgres", DSN: dsn})
//	defer repo.Close()
//	err = repo.Tx(ctx, func(ctx context.Context, tx storage.Repository) error {
//	    return storage.RecreateTable(ctx, "postgres", tx, fqn, tbl)
//	})
func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, err := newRepository(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return r, nil
	})
	storage.RegisterDDL("postgres", pgddl.RecreateTable)
}
