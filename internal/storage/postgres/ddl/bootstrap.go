package ddl

import (
	"context"

	gddl "silorecon/internal/ddl"
	"silorecon/internal/schema"
	"silorecon/internal/storage"
)

// RecreateTable drops fqn if present and creates it with the shape of tbl.
// Postgres DDL is transactional, so callers running this inside repo.Tx get
// an all-or-nothing replacement.
func RecreateTable(ctx context.Context, repo storage.Repository, fqn string, tbl schema.Table) error {
	create, err := BuildCreateTableSQL(gddl.FromSchema(fqn, tbl, MapType))
	if err != nil {
		return err
	}
	drop, err := gddl.BuildDropTableSQL(fqn, Dialect)
	if err != nil {
		return err
	}
	if err := repo.Exec(ctx, drop); err != nil {
		return err
	}
	return repo.Exec(ctx, create)
}
