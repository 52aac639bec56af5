package ddl

import (
	"context"
	"testing"

	"silorecon/internal/schema"
	"silorecon/internal/storage"
)

type fakeRepository struct {
	storage.Repository
	sqls []string
}

func (f *fakeRepository) Exec(_ context.Context, sql string) error {
	f.sqls = append(f.sqls, sql)
	return nil
}

func TestMapType(t *testing.T) {
	t.Parallel()

	tests := map[schema.Kind]string{
		schema.Integer:   "BIGINT",
		schema.Float:     "DOUBLE",
		schema.Timestamp: "DATETIME",
		schema.Date:      "DATE",
		schema.Time:      "TIME",
		schema.Text:      "TEXT",
	}
	for k, want := range tests {
		if got := MapType(k); got != want {
			t.Errorf("MapType(%v) = %q, want %q", k, got, want)
		}
	}
}

func TestRecreateTable(t *testing.T) {
	t.Parallel()

	tbl := schema.Table{Columns: []schema.Column{{Name: "usage_label", Kind: schema.Text}}}
	repo := &fakeRepository{}
	if err := RecreateTable(context.Background(), repo, "recon.silo_usage", tbl); err != nil {
		t.Fatalf("RecreateTable() error = %v", err)
	}
	want := []string{
		"DROP TABLE IF EXISTS `recon`.`silo_usage`;",
		"CREATE TABLE `recon`.`silo_usage` (\n  `usage_label` TEXT\n);",
	}
	if len(repo.sqls) != 2 || repo.sqls[0] != want[0] || repo.sqls[1] != want[1] {
		t.Fatalf("statements mismatch\n got: %q\nwant: %q", repo.sqls, want)
	}
}
