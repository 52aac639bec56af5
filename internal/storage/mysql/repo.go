// Package mysql provides a MySQL-backed storage.Repository using
// github.com/go-sql-driver/mysql through the shared database/sql repository.
//
// MySQL commits implicitly around DDL, so the table replacement is not
// rolled back when a later insert fails; each CopyFrom is still atomic.
package mysql

import (
	"context"
	"fmt"

	"silorecon/internal/storage"
	myddl "silorecon/internal/storage/mysql/ddl"
	"silorecon/internal/storage/sqldb"

	_ "github.com/go-sql-driver/mysql"
)

// Dialect configures the shared database/sql repository for MySQL.
var Dialect = sqldb.Dialect{
	Name:       "mysql",
	QuoteIdent: myddl.QuoteIdent,
	QuoteTable: myddl.Dialect.QuoteFQN,
	MaxParams:  65000,
	TxDDL:      false,
	BindSQL:    bindSQL,
}

func bindSQL(ns storage.Namespace) ([]string, error) {
	if ns.Database == "" {
		return nil, nil
	}
	return []string{fmt.Sprintf("USE %s", myddl.QuoteIdent(ns.Database))}, nil
}

// NewRepository opens a MySQL connection, e.g.
//
//	"user:pass@tcp(localhost:3306)/recon?parseTime=true"
func NewRepository(ctx context.Context, cfg storage.Config) (*sqldb.Repository, error) {
	return sqldb.Open(ctx, "mysql", cfg.DSN, Dialect)
}

func init() {
	storage.Register("mysql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, err := NewRepository(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return r, nil
	})
	storage.RegisterDDL("mysql", myddl.RecreateTable)
}
