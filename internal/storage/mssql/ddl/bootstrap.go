// Package ddl provides convenience helpers for applying MSSQL DDL using a
// storage.Repository.
package ddl

import (
	"context"

	gddl "silorecon/internal/ddl"
	"silorecon/internal/schema"
	"silorecon/internal/storage"
)

// RecreateTable replaces the SQL Server table fqn with an empty table shaped
// like tbl. DROP TABLE IF EXISTS requires SQL Server 2016 or later.
func RecreateTable(ctx context.Context, repo storage.Repository, fqn string, tbl schema.Table) error {
	def := gddl.FromSchema(fqn, tbl, MapType)
	create, err := BuildCreateTableSQL(def)
	if err != nil {
		return err
	}
	drop, err := gddl.BuildDropTableSQL(fqn, Dialect)
	if err != nil {
		return err
	}
	for _, stmt := range []string{drop, create} {
		if err := repo.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
