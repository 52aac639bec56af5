// Package load replaces a destination table with a reconciled data set.
//
// A load binds the sink session to the destination namespace, then inside
// the strongest transaction the sink offers recreates the table from the
// typed schema and bulk-inserts the normalized rows. On sinks whose DDL is
// not transactional (mysql, snowflake) a failed insert can leave the new
// table created but empty.
package load

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zeebo/xxh3"
	"go.uber.org/zap"

	"silorecon/internal/metrics"
	"silorecon/internal/schema"
	"silorecon/internal/storage"
	"silorecon/pkg/records"
)

// Destination identifies the target table and the session context it lives
// in. Warehouse and Role only matter to Snowflake.
type Destination struct {
	Database  string
	Schema    string
	Warehouse string
	Role      string
	Table     string
}

// FQN returns Schema.Table, or Table alone when Schema is empty or Table is
// already qualified.
func (d Destination) FQN() string {
	if d.Schema == "" || strings.Contains(d.Table, ".") {
		return d.Table
	}
	return d.Schema + "." + d.Table
}

func (d Destination) namespace() storage.Namespace {
	return storage.Namespace{Database: d.Database, Schema: d.Schema, Warehouse: d.Warehouse, Role: d.Role}
}

// Result describes a completed load.
type Result struct {
	Table string
	Rows  int64
	// Fingerprint is an xxh3 hash of the normalized rows in load order.
	Fingerprint string
}

// LoadError reports a failed load step: "bind", "ddl" or "insert".
type LoadError struct {
	Op    string
	Table string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s %s: %v", e.Op, e.Table, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Loader writes to one sink.
type Loader struct {
	Repo storage.Repository
	// Kind selects the DDL bootstrapper, e.g. "postgres".
	Kind        string
	Destination Destination
	// BatchSize caps rows per CopyFrom call; 0 sends everything at once.
	BatchSize int
	Job       string
	Log       *zap.Logger
}

// Load recreates the destination table as tbl and inserts rows. Rows are
// read in tbl column order; missing fields are null.
func (l *Loader) Load(ctx context.Context, tbl schema.Table, rows []records.Record) (Result, error) {
	log := l.Log
	if log == nil {
		log = zap.NewNop()
	}
	fqn := l.Destination.FQN()
	if fqn == "" {
		return Result{}, &LoadError{Op: "ddl", Err: fmt.Errorf("destination table is empty")}
	}
	if len(tbl.Columns) == 0 {
		return Result{}, &LoadError{Op: "ddl", Table: fqn, Err: fmt.Errorf("schema has no columns")}
	}

	if err := l.Repo.Bind(ctx, l.Destination.namespace()); err != nil {
		return Result{}, &LoadError{Op: "bind", Table: fqn, Err: err}
	}

	columns := tbl.Names()
	values, fp := normalizeRows(columns, rows)

	start := time.Now()
	var inserted int64
	err := l.Repo.Tx(ctx, func(ctx context.Context, tx storage.Repository) error {
		if err := storage.RecreateTable(ctx, l.Kind, tx, fqn, tbl); err != nil {
			return &LoadError{Op: "ddl", Table: fqn, Err: err}
		}
		n, err := storage.LoadBatches(ctx, columns, values, l.BatchSize,
			func(ctx context.Context, cols []string, batch [][]any) (int64, error) {
				return tx.CopyFrom(ctx, fqn, cols, batch)
			})
		if err != nil {
			return &LoadError{Op: "insert", Table: fqn, Err: err}
		}
		inserted = n
		return nil
	})
	if err != nil {
		var le *LoadError
		if !errors.As(err, &le) {
			err = &LoadError{Op: "insert", Table: fqn, Err: err}
		}
		return Result{}, err
	}

	metrics.RecordBatches(l.Job, batchCount(len(values), l.BatchSize))
	log.Info("table replaced",
		zap.String("table", fqn),
		zap.String("kind", l.Kind),
		zap.Int64("rows", inserted),
		zap.String("fingerprint", fp),
		zap.Duration("elapsed", time.Since(start).Truncate(time.Millisecond)))

	return Result{Table: fqn, Rows: inserted, Fingerprint: fp}, nil
}

func batchCount(rows, size int) int64 {
	if rows == 0 {
		return 0
	}
	if size <= 0 {
		return 1
	}
	return int64((rows + size - 1) / size)
}

// normalizeRows lays rows out in column order through NormalizeValue and
// fingerprints the result.
func normalizeRows(columns []string, rows []records.Record) ([][]any, string) {
	h := xxh3.New()
	out := make([][]any, len(rows))
	var buf [8]byte
	for i, r := range rows {
		vals := r.Values(columns)
		for j, v := range vals {
			v = NormalizeValue(v)
			vals[j] = v
			if v == nil {
				h.Write([]byte{0})
				continue
			}
			s := fmt.Sprint(v)
			binary.LittleEndian.PutUint64(buf[:], uint64(len(s)))
			h.Write([]byte{1})
			h.Write(buf[:])
			h.WriteString(s)
		}
		h.Write([]byte{'\n'})
		out[i] = vals
	}
	return out, fmt.Sprintf("%016x", h.Sum64())
}
