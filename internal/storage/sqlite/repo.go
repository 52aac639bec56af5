// Package sqlite implements a SQLite-backed storage.Repository using
// database/sql and the pure-Go modernc.org/sqlite driver. SQLite has no bulk
// load API; multi-row INSERTs inside a transaction keep volumes like a daily
// reconciliation fast enough.
package sqlite

import (
	"context"

	"silorecon/internal/storage"
	sqliteddl "silorecon/internal/storage/sqlite/ddl"
	"silorecon/internal/storage/sqldb"

	_ "modernc.org/sqlite"
)

// Dialect configures the shared database/sql repository for SQLite. DDL is
// transactional, so a failed load leaves the previous table untouched.
var Dialect = sqldb.Dialect{
	Name:       "sqlite",
	QuoteIdent: sqliteddl.Dialect.QuoteIdent,
	QuoteTable: sqliteddl.Dialect.QuoteFQN,
	MaxParams:  32000,
	TxDDL:      true,
}

// NewRepository opens a SQLite database. The DSN is passed to the driver
// verbatim, for example:
//
//	"file:recon.db?_pragma=busy_timeout(5000)"
//	"recon.db"
func NewRepository(ctx context.Context, cfg storage.Config) (*sqldb.Repository, error) {
	return sqldb.Open(ctx, "sqlite", cfg.DSN, Dialect)
}
