// Package sqlsource reads the task and mapping extracts with database/sql.
//
// Supported drivers, selected by source.sql.driver:
//
//	hana      github.com/SAP/go-hdb          ("hdb")
//	mssql     github.com/microsoft/go-mssqldb ("sqlserver")
//	postgres  github.com/jackc/pgx/v5/stdlib  ("pgx")
//	mysql     github.com/go-sql-driver/mysql  ("mysql")
//	sqlite    modernc.org/sqlite              ("sqlite")
package sqlsource

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/SAP/go-hdb/driver"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/microsoft/go-mssqldb"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"silorecon/internal/config"
	"silorecon/internal/extract"
	"silorecon/pkg/records"
)

var driverNames = map[string]string{
	"hana":     "hdb",
	"mssql":    "sqlserver",
	"postgres": "pgx",
	"mysql":    "mysql",
	"sqlite":   "sqlite",
}

// Source runs two queries against one database.
type Source struct {
	driver        string
	dsn           string
	tasksQuery    string
	mappingsQuery string

	// open is sql.Open; tests swap it.
	open func(driver, dsn string) (*sql.DB, error)
}

// New validates cfg and returns a Source. Empty queries fall back to the
// defaults in package config.
func New(cfg config.SourceSQL) (*Source, error) {
	driver, ok := driverNames[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("sqlsource: unsupported driver %q", cfg.Driver)
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("sqlsource: dsn must not be empty")
	}
	s := &Source{
		driver:        driver,
		dsn:           cfg.DSN,
		tasksQuery:    cfg.TasksQuery,
		mappingsQuery: cfg.MappingsQuery,
		open:          sql.Open,
	}
	if s.tasksQuery == "" {
		s.tasksQuery = config.DefaultTasksQuery
	}
	if s.mappingsQuery == "" {
		s.mappingsQuery = config.DefaultMappingsQuery
	}
	return s, nil
}

// Extract opens the database, runs both queries concurrently and returns
// once both have been read in full.
func (s *Source) Extract(ctx context.Context) (extract.Snapshot, error) {
	db, err := s.open(s.driver, s.dsn)
	if err != nil {
		return extract.Snapshot{}, &extract.ExtractError{Source: "sql:open", Err: err}
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return extract.Snapshot{}, &extract.ExtractError{Source: "sql:open", Err: err}
	}

	var snap extract.Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := query(gctx, db, s.tasksQuery)
		if err != nil {
			return &extract.ExtractError{Source: "sql:tasks", Err: err}
		}
		snap.Tasks = t
		return nil
	})
	g.Go(func() error {
		t, err := query(gctx, db, s.mappingsQuery)
		if err != nil {
			return &extract.ExtractError{Source: "sql:mappings", Err: err}
		}
		snap.Mappings = t
		return nil
	})
	if err := g.Wait(); err != nil {
		return extract.Snapshot{}, err
	}

	zap.L().Named("extract").Debug("sql extract done",
		zap.String("driver", s.driver),
		zap.Int("tasks", snap.Tasks.Len()),
		zap.Int("mappings", snap.Mappings.Len()))
	return snap, nil
}

func query(ctx context.Context, db *sql.DB, q string) (extract.Table, error) {
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return extract.Table{}, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return extract.Table{}, err
	}

	out := extract.Table{Columns: cols}
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return extract.Table{}, err
		}
		rec := make(records.Record, len(cols))
		for i, c := range cols {
			rec[c] = convert(vals[i])
		}
		out.Rows = append(out.Rows, rec)
	}
	if err := rows.Err(); err != nil {
		return extract.Table{}, err
	}
	return out, nil
}

// convert turns driver values into plain Go values: []byte becomes a string
// and exact decimals (HANA DECIMAL as *big.Rat) become float64.
func convert(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case interface{ Float64() (float64, bool) }:
		f, _ := t.Float64()
		return f
	default:
		return v
	}
}

func init() {
	extract.Register("sql", func(cfg config.Source) (extract.Source, error) {
		s, err := New(cfg.SQL)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}
