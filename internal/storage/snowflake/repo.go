// Package snowflake provides a Snowflake-backed storage.Repository using
// github.com/snowflakedb/gosnowflake through the shared database/sql
// repository.
//
// Bind issues USE DATABASE / SCHEMA / WAREHOUSE / ROLE on the pinned session.
// Snowflake DDL commits implicitly: a CREATE OR REPLACE followed by a failed
// insert leaves an empty table behind.
package snowflake

import (
	"context"
	"fmt"

	"silorecon/internal/storage"
	sfddl "silorecon/internal/storage/snowflake/ddl"
	"silorecon/internal/storage/sqldb"

	_ "github.com/snowflakedb/gosnowflake"
)

// Dialect configures the shared database/sql repository for Snowflake.
// A multi-row VALUES list is limited to 16384 rows.
var Dialect = sqldb.Dialect{
	Name:       "snowflake",
	QuoteIdent: sfddl.Dialect.QuoteIdent,
	QuoteTable: sfddl.Dialect.QuoteFQN,
	MaxRows:    16384,
	TxDDL:      false,
	BindSQL:    bindSQL,
}

func bindSQL(ns storage.Namespace) ([]string, error) {
	var stmts []string
	for _, kv := range []struct{ object, name string }{
		{"DATABASE", ns.Database},
		{"SCHEMA", ns.Schema},
		{"WAREHOUSE", ns.Warehouse},
		{"ROLE", ns.Role},
	} {
		if kv.name == "" {
			continue
		}
		if !sfddl.ValidIdent(kv.name) {
			return nil, fmt.Errorf("invalid %s identifier %q", kv.object, kv.name)
		}
		stmts = append(stmts, fmt.Sprintf("USE %s %s", kv.object, kv.name))
	}
	return stmts, nil
}

// NewRepository opens a Snowflake connection. The DSN uses gosnowflake's
// format, e.g.
//
//	"user:pass@account/db/schema?warehouse=wh&role=r"
func NewRepository(ctx context.Context, cfg storage.Config) (*sqldb.Repository, error) {
	return sqldb.Open(ctx, "snowflake", cfg.DSN, Dialect)
}

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

func init() {
	storage.Register("snowflake", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, err := newRepository(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return r, nil
	})
	storage.RegisterDDL("snowflake", sfddl.RecreateTable)
}
