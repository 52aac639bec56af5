package ddl

import (
	"context"

	gddl "silorecon/internal/ddl"
	"silorecon/internal/schema"
	"silorecon/internal/storage"
)

// Dialect renders SQLite DDL with double-quoted identifiers.
var Dialect = gddl.Dialect{
	Name:       "sqlite ddl",
	QuoteIdent: gddl.DoubleQuote,
}

// BuildCreateTableSQL returns a SQLite CREATE TABLE statement for def.
func BuildCreateTableSQL(def gddl.TableDef) (string, error) {
	return gddl.BuildCreateTableSQL(def, Dialect)
}

// RecreateTable drops fqn if present and creates it with the shape of tbl.
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
