package ddl

import (
	gddl "silorecon/internal/ddl"
)

// Dialect renders Postgres DDL with ANSI double-quoted identifiers.
var Dialect = gddl.Dialect{
	Name:       "postgres ddl",
	QuoteIdent: gddl.DoubleQuote,
}

// BuildCreateTableSQL returns a Postgres CREATE TABLE statement for def.
func BuildCreateTableSQL(def gddl.TableDef) (string, error) {
	return gddl.BuildCreateTableSQL(def, Dialect)
}
