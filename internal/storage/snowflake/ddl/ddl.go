// Package ddl contains Snowflake-specific helpers for generating DDL.
//
// Table names are emitted unquoted so Snowflake resolves them
// case-insensitively (upper-cased); column names are double-quoted so
// headers such as "Destination Bin" survive verbatim.
package ddl

import (
	"context"
	"fmt"
	"regexp"

	gddl "silorecon/internal/ddl"
	"silorecon/internal/schema"
	"silorecon/internal/storage"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

// Dialect renders Snowflake DDL. CREATE OR REPLACE makes the replacement a
// single statement.
var Dialect = gddl.Dialect{
	Name:       "snowflake ddl",
	QuoteIdent: gddl.DoubleQuote,
	QuoteTable: func(s string) string { return s },
	CreateVerb: "CREATE OR REPLACE TABLE",
}

// MapType maps a schema kind into a Snowflake column type.
func MapType(k schema.Kind) string {
	switch k {
	case schema.Integer:
		return "INTEGER"
	case schema.Float:
		return "FLOAT"
	case schema.Timestamp:
		return "TIMESTAMP_NTZ"
	case schema.Date:
		return "DATE"
	case schema.Time:
		return "TIME"
	default:
		return "STRING"
	}
}

// ValidIdent reports whether s can be used as an unquoted Snowflake
// identifier.
func ValidIdent(s string) bool { return identRe.MatchString(s) }

// ValidateFQN checks every dotted segment of fqn with ValidIdent.
func ValidateFQN(fqn string) error {
	start := 0
	for i := 0; i <= len(fqn); i++ {
		if i == len(fqn) || fqn[i] == '.' {
			if seg := fqn[start:i]; !ValidIdent(seg) {
				return fmt.Errorf("snowflake ddl: invalid identifier %q in %q", seg, fqn)
			}
			start = i + 1
		}
	}
	return nil
}

// RecreateTable issues CREATE OR REPLACE TABLE for fqn. Snowflake DDL commits
// implicitly; the statement is not rolled back by a later insert failure.
func RecreateTable(ctx context.Context, repo storage.Repository, fqn string, tbl schema.Table) error {
	if err := ValidateFQN(fqn); err != nil {
		return err
	}
	sql, err := gddl.BuildCreateTableSQL(gddl.FromSchema(fqn, tbl, MapType), Dialect)
	if err != nil {
		return err
	}
	return repo.Exec(ctx, sql)
}
