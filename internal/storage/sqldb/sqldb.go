// Package sqldb implements storage.Repository on top of database/sql for the
// backends that share it (sqlite, mssql, mysql, snowflake).
//
// A Repository pins a single *sql.Conn so session state set by Bind (USE
// DATABASE, USE SCHEMA, ...) applies to every later statement. Bulk inserts
// are multi-row INSERT ... VALUES statements chunked to stay under the
// dialect's bind-parameter and row limits.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"silorecon/internal/storage"
)

// Dialect captures what differs between database/sql backends.
type Dialect struct {
	// Name prefixes error messages, e.g. "mssql".
	Name string

	// Placeholder renders the n-th (1-based) bind parameter. Defaults to "?".
	Placeholder func(n int) string

	// QuoteIdent quotes a column name.
	QuoteIdent func(string) string

	// QuoteTable quotes a dotted table name.
	QuoteTable func(string) string

	// MaxParams caps bind parameters per statement; 0 means no cap.
	MaxParams int

	// MaxRows caps VALUES tuples per statement; 0 means no cap.
	MaxRows int

	// TxDDL reports whether DDL participates in transactions. When false,
	// Tx runs its callback without an enclosing transaction.
	TxDDL bool

	// BindSQL returns the session statements that select ns.
	BindSQL func(ns storage.Namespace) ([]string, error)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Repository is a database/sql-backed implementation of storage.Repository.
type Repository struct {
	d      Dialect
	db     *sql.DB
	ownsDB bool
	conn   *sql.Conn
	tx     *sql.Tx
}

var _ storage.Repository = (*Repository)(nil)

// Open opens driver/dsn, pings it, and pins a connection. The returned
// Repository owns the pool and closes it on Close.
func Open(ctx context.Context, driver, dsn string, d Dialect) (*Repository, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("%s: DSN must not be empty", d.Name)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", d.Name, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: ping: %w", d.Name, err)
	}

	r, err := NewRepository(ctx, db, d)
	if err != nil {
		db.Close()
		return nil, err
	}
	r.ownsDB = true
	return r, nil
}

// NewRepository pins a connection from an existing pool. The caller keeps
// ownership of db.
func NewRepository(ctx context.Context, db *sql.DB, d Dialect) (*Repository, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: acquire conn: %w", d.Name, err)
	}
	return &Repository{d: d, db: db, conn: conn}, nil
}

func (r *Repository) execer() execer {
	if r.tx != nil {
		return r.tx
	}
	return r.conn
}

// Bind implements storage.Repository.Bind.
func (r *Repository) Bind(ctx context.Context, ns storage.Namespace) error {
	if r.d.BindSQL == nil {
		return nil
	}
	stmts, err := r.d.BindSQL(ns)
	if err != nil {
		return fmt.Errorf("%s: bind: %w", r.d.Name, err)
	}
	for _, s := range stmts {
		if err := r.Exec(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// Exec executes an arbitrary SQL statement (typically DDL) on the pinned
// connection, or on the open transaction when called inside Tx.
func (r *Repository) Exec(ctx context.Context, query string) error {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	if _, err := r.execer().ExecContext(ctx, query); err != nil {
		return fmt.Errorf("%s: exec: %w", r.d.Name, err)
	}
	return nil
}

// CopyFrom inserts rows into table with multi-row INSERT statements. Outside
// Tx the statements run in their own transaction, so a failed call leaves no
// rows behind and reports zero.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("%s: CopyFrom: columns must not be empty", r.d.Name)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return 0, fmt.Errorf("%s: CopyFrom: row %d length %d != columns length %d",
				r.d.Name, i, len(row), len(columns))
		}
	}

	if r.tx != nil {
		return r.insert(ctx, r.tx, table, columns, rows)
	}

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: begin tx: %w", r.d.Name, err)
	}
	n, err := r.insert(ctx, tx, table, columns, rows)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: commit: %w", r.d.Name, err)
	}
	return n, nil
}

func (r *Repository) insert(ctx context.Context, ex execer, table string, columns []string, rows [][]any) (int64, error) {
	perStmt := r.rowsPerStatement(len(columns))
	head := r.insertHead(table, columns)

	var inserted int64
	for lo := 0; lo < len(rows); lo += perStmt {
		chunk := rows[lo:min(lo+perStmt, len(rows))]
		query, args := r.buildInsert(head, len(columns), chunk)

		res, err := ex.ExecContext(ctx, query, args...)
		if err != nil {
			return inserted, fmt.Errorf("%s: insert: %w", r.d.Name, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			n = int64(len(chunk))
		}
		inserted += n
	}
	return inserted, nil
}

func (r *Repository) rowsPerStatement(ncols int) int {
	n := 0
	if r.d.MaxParams > 0 {
		n = max(1, r.d.MaxParams/ncols)
	}
	if r.d.MaxRows > 0 && (n == 0 || n > r.d.MaxRows) {
		n = r.d.MaxRows
	}
	if n == 0 {
		n = 1000
	}
	return n
}

func (r *Repository) insertHead(table string, columns []string) string {
	quote := r.d.QuoteIdent
	if quote == nil {
		quote = func(s string) string { return s }
	}
	qtable := table
	if r.d.QuoteTable != nil {
		qtable = r.d.QuoteTable(table)
	}
	cols := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = quote(c)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES ", qtable, strings.Join(cols, ", "))
}

func (r *Repository) buildInsert(head string, ncols int, rows [][]any) (string, []any) {
	var sb strings.Builder
	sb.WriteString(head)
	args := make([]any, 0, ncols*len(rows))
	n := 0
	for i, row := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for j := range row {
			if j > 0 {
				sb.WriteString(", ")
			}
			n++
			sb.WriteString(r.placeholder(n))
		}
		sb.WriteByte(')')
		args = append(args, row...)
	}
	return sb.String(), args
}

func (r *Repository) placeholder(n int) string {
	if r.d.Placeholder == nil {
		return "?"
	}
	return r.d.Placeholder(n)
}

// Tx implements storage.Repository.Tx. Nested calls reuse the open
// transaction.
func (r *Repository) Tx(ctx context.Context, fn func(ctx context.Context, tx storage.Repository) error) error {
	if r.tx != nil || !r.d.TxDDL {
		return fn(ctx, r)
	}

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin tx: %w", r.d.Name, err)
	}
	child := &Repository{d: r.d, db: r.db, conn: r.conn, tx: tx}
	if err := fn(ctx, child); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", r.d.Name, err)
	}
	return nil
}

// Close releases the pinned connection and, when the Repository opened the
// pool itself, the pool.
func (r *Repository) Close() {
	if r.tx != nil {
		return
	}
	if r.conn != nil {
		_ = r.conn.Close()
	}
	if r.ownsDB && r.db != nil {
		_ = r.db.Close()
	}
}
