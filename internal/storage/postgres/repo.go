// Package postgres implements a Postgres repository using pgx v5. Bulk loads
// use COPY; DDL is transactional, so a replaced table either has every row or
// none.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"silorecon/internal/storage"
)

// session is the subset of *pgx.Conn and pgx.Tx the repository uses.
type session interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository is a Postgres-backed implementation of storage.Repository. It
// holds one connection so SET search_path applies to later statements.
type Repository struct {
	s        session
	tx       pgx.Tx
	database string
	closeFn  func()
}

var _ storage.Repository = (*Repository)(nil)

// NewRepository connects to cfg.DSN with a single pgx connection.
func NewRepository(ctx context.Context, cfg storage.Config) (*Repository, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("postgres: DSN must not be empty")
	}
	conn, err := pgx.Connect(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	return &Repository{
		s:        conn,
		database: conn.Config().Database,
		closeFn:  func() { _ = conn.Close(context.Background()) },
	}, nil
}

// Bind sets search_path to ns.Schema and the session role to ns.Role. A
// Postgres session cannot change database, so ns.Database must match the
// DSN's database when set. Warehouse has no Postgres equivalent.
func (r *Repository) Bind(ctx context.Context, ns storage.Namespace) error {
	if ns.Database != "" && r.database != "" && ns.Database != r.database {
		return fmt.Errorf("postgres: bind: connected to database %q, destination wants %q; set it in the DSN",
			r.database, ns.Database)
	}
	if ns.Role != "" {
		if err := r.Exec(ctx, "SET ROLE "+pgIdent(ns.Role)); err != nil {
			return err
		}
	}
	if ns.Schema != "" {
		if err := r.Exec(ctx, "SET search_path TO "+pgIdent(ns.Schema)); err != nil {
			return err
		}
	}
	return nil
}

// Exec implements storage.Repository.Exec for Postgres.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := r.s.Exec(ctx, sql); err != nil {
		return fmt.Errorf("postgres: exec: %w", pgDetail(err))
	}
	return nil
}

// CopyFrom streams rows into table with COPY. A single COPY is atomic.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("postgres: CopyFrom: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := r.s.CopyFrom(ctx, splitFQN(table), columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("postgres: copy into %s: %w", table, pgDetail(err))
	}
	return n, nil
}

// Tx implements storage.Repository.Tx. Nested calls reuse the open
// transaction.
func (r *Repository) Tx(ctx context.Context, fn func(ctx context.Context, tx storage.Repository) error) error {
	if r.tx != nil {
		return fn(ctx, r)
	}
	tx, err := r.s.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	child := &Repository{s: tx, tx: tx, database: r.database}
	if err := fn(ctx, child); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

// Close implements storage.Repository.Close.
func (r *Repository) Close() {
	if r.closeFn != nil {
		r.closeFn()
	}
}

// pgDetail folds the server's DETAIL and SQLSTATE into the error text.
func pgDetail(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		return fmt.Errorf("%w: %s (%s)", err, pgErr.Detail, pgErr.SQLState())
	}
	return err
}

// pgIdent safely quotes a single identifier segment for Postgres.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// splitFQN converts "schema.table" into a pgx.Identifier {"schema","table"}.
// If no dot is present, returns {"table"}.
func splitFQN(fqn string) pgx.Identifier {
	parts := strings.Split(fqn, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			id = append(id, p)
		}
	}
	return id
}
