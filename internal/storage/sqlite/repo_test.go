package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"silorecon/internal/schema"
	"silorecon/internal/storage"
)

func newTestRepo(tb testing.TB) (storage.Repository, string) {
	tb.Helper()

	dsn := filepath.Join(tb.TempDir(), "recon.db")
	repo, err := storage.New(context.Background(), storage.Config{Kind: "sqlite", DSN: dsn})
	if err != nil {
		tb.Fatalf("storage.New(sqlite) error = %v", err)
	}
	tb.Cleanup(repo.Close)
	return repo, dsn
}

func openRaw(tb testing.TB, dsn string) *sql.DB {
	tb.Helper()
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		tb.Fatalf("open %s: %v", dsn, err)
	}
	tb.Cleanup(func() { _ = db.Close() })
	return db
}

var usageSchema = schema.Table{Columns: []schema.Column{
	{Name: "Destination Bin", Kind: schema.Text},
	{Name: "Confirmation Date", Kind: schema.Date},
	{Name: "Qty", Kind: schema.Integer},
}}

func TestRecreateAndCopyFrom(t *testing.T) {
	t.Parallel()

	repo, dsn := newTestRepo(t)
	ctx := context.Background()

	cols := usageSchema.Names()
	rows := [][]any{
		{"S01", "2024-01-05", int64(3)},
		{"DECAF2", nil, int64(1)},
	}

	var n int64
	err := repo.Tx(ctx, func(ctx context.Context, tx storage.Repository) error {
		if err := storage.RecreateTable(ctx, "sqlite", tx, "silo_usage", usageSchema); err != nil {
			return err
		}
		var err error
		n, err = tx.CopyFrom(ctx, "silo_usage", cols, rows)
		return err
	})
	if err != nil {
		t.Fatalf("Tx() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("CopyFrom() = %d, want 2", n)
	}

	db := openRaw(t, dsn)
	var (
		count int
		date  sql.NullString
	)
	if err := db.QueryRow(`SELECT COUNT(*) FROM silo_usage`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("row count = %d, want 2", count)
	}
	if err := db.QueryRow(`SELECT "Confirmation Date" FROM silo_usage WHERE "Destination Bin" = 'DECAF2'`).Scan(&date); err != nil {
		t.Fatalf("select date: %v", err)
	}
	if date.Valid {
		t.Fatalf("Confirmation Date = %q, want NULL", date.String)
	}
}

func TestRecreateReplacesPreviousContents(t *testing.T) {
	t.Parallel()

	repo, dsn := newTestRepo(t)
	ctx := context.Background()

	load := func(rows [][]any) {
		t.Helper()
		err := repo.Tx(ctx, func(ctx context.Context, tx storage.Repository) error {
			if err := storage.RecreateTable(ctx, "sqlite", tx, "silo_usage", usageSchema); err != nil {
				return err
			}
			_, err := tx.CopyFrom(ctx, "silo_usage", usageSchema.Names(), rows)
			return err
		})
		if err != nil {
			t.Fatalf("load: %v", err)
		}
	}

	load([][]any{{"S1", "2024-01-01", int64(1)}, {"S2", "2024-01-02", int64(2)}})
	load([][]any{{"S3", "2024-01-03", int64(3)}})

	var count int
	if err := openRaw(t, dsn).QueryRow(`SELECT COUNT(*) FROM silo_usage`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("row count = %d, want 1 (table replaced)", count)
	}
}

func TestTxRollbackKeepsPreviousTable(t *testing.T) {
	t.Parallel()

	repo, dsn := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Exec(ctx, `CREATE TABLE silo_usage ("old" TEXT)`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := repo.CopyFrom(ctx, "silo_usage", []string{"old"}, [][]any{{"keep"}}); err != nil {
		t.Fatalf("seed insert: %v", err)
	}

	boom := errors.New("insert failed")
	err := repo.Tx(ctx, func(ctx context.Context, tx storage.Repository) error {
		if err := storage.RecreateTable(ctx, "sqlite", tx, "silo_usage", usageSchema); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Tx() error = %v, want %v", err, boom)
	}

	var old string
	if err := openRaw(t, dsn).QueryRow(`SELECT "old" FROM silo_usage`).Scan(&old); err != nil {
		t.Fatalf("previous table not restored: %v", err)
	}
	if old != "keep" {
		t.Fatalf("old = %q, want keep", old)
	}
}

func TestBindIsNoop(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepo(t)
	if err := repo.Bind(context.Background(), storage.Namespace{Database: "x", Schema: "y"}); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
}

func TestNewRepository_EmptyDSN(t *testing.T) {
	t.Parallel()

	if _, err := storage.New(context.Background(), storage.Config{Kind: "sqlite"}); err == nil {
		t.Fatal("expected error for empty DSN")
	}
}
