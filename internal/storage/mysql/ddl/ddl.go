// Package ddl contains MySQL-specific helpers for generating DDL.
//
// MySQL commits implicitly around DDL, so RecreateTable is never rolled back
// by an enclosing transaction.
package ddl

import (
	"context"
	"strings"

	gddl "silorecon/internal/ddl"
	"silorecon/internal/schema"
	"silorecon/internal/storage"
)

// Dialect renders MySQL DDL with backtick-quoted identifiers.
var Dialect = gddl.Dialect{
	Name:       "mysql ddl",
	QuoteIdent: QuoteIdent,
}

// MapType maps a schema kind into a MySQL column type.
func MapType(k schema.Kind) string {
	switch k {
	case schema.Integer:
		return "BIGINT"
	case schema.Float:
		return "DOUBLE"
	case schema.Timestamp:
		return "DATETIME"
	case schema.Date:
		return "DATE"
	case schema.Time:
		return "TIME"
	default:
		return "TEXT"
	}
}

// QuoteIdent quotes an identifier with backticks, doubling embedded ones.
func QuoteIdent(id string) string {
	return "`" + strings.ReplaceAll(id, "`", "``") + "`"
}

// RecreateTable drops fqn if present and creates it with the shape of tbl.
func RecreateTable(ctx context.Context, repo storage.Repository, fqn string, tbl schema.Table) error {
	create, err := gddl.BuildCreateTableSQL(gddl.FromSchema(fqn, tbl, MapType), Dialect)
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
