// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it causes the init
// functions of each concrete backend to register their factories and DDL
// bootstrappers with the storage package, making these kinds available:
//
//   - "snowflake" (silorecon/internal/storage/snowflake)
//   - "postgres"  (silorecon/internal/storage/postgres)
//   - "mssql"     (silorecon/internal/storage/mssql)
//   - "mysql"     (silorecon/internal/storage/mysql)
//   - "sqlite"    (silorecon/internal/storage/sqlite)
//   - "memory"    (silorecon/internal/storage/memory)
//
// Typical usage (in cmd/silorecon):
//
//	import _ "silorecon/internal/storage/all"
//
//	repo, err := storage.New(ctx, storage.Config{Kind: cfg.Storage.Kind, DSN: cfg.Storage.DSN})
package all

import (
	_ "silorecon/internal/storage/memory"
	_ "silorecon/internal/storage/mssql"
	_ "silorecon/internal/storage/mysql"
	_ "silorecon/internal/storage/postgres"
	_ "silorecon/internal/storage/snowflake"
	_ "silorecon/internal/storage/sqlite"
)
