package ddl

import (
	"strings"
	"testing"

	"silorecon/internal/schema"
)

// TestBuildCreateTableSQL verifies that BuildCreateTableSQL generates the
// expected CREATE TABLE statements and surfaces appropriate errors for invalid
// inputs.
func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	quoted := Dialect{Name: "test ddl", QuoteIdent: DoubleQuote}

	tests := []struct {
		name        string
		def         TableDef
		dialect     Dialect
		wantSQL     string
		errContains string
	}{
		{
			name:        "empty FQN returns error",
			def:         TableDef{FQN: " ", Columns: []ColumnDef{{Name: "id", SQLType: "INT"}}},
			errContains: "table FQN must not be empty",
		},
		{
			name:        "no columns returns error",
			def:         TableDef{FQN: "t"},
			errContains: "at least one column is required",
		},
		{
			name:        "column with empty name returns error",
			def:         TableDef{FQN: "t", Columns: []ColumnDef{{Name: " ", SQLType: "INT"}}},
			errContains: "column with empty name",
		},
		{
			name:        "column with empty type returns error",
			def:         TableDef{FQN: "t", Columns: []ColumnDef{{Name: "id"}}},
			errContains: "missing SQLType",
		},
		{
			name: "unquoted dialect emits names verbatim",
			def: TableDef{FQN: "t", Columns: []ColumnDef{
				{Name: "id", SQLType: "INT"},
				{Name: "note", SQLType: "TEXT", Nullable: true, Default: "'x'"},
			}},
			wantSQL: "CREATE TABLE t (\n  id INT NOT NULL,\n  note TEXT DEFAULT 'x'\n);",
		},
		{
			name: "quoted dialect with primary key and schema",
			def: TableDef{FQN: "ops.tasks", Columns: []ColumnDef{
				{Name: "Destination Bin", SQLType: "TEXT", PrimaryKey: true},
			}},
			dialect: quoted,
			wantSQL: "CREATE TABLE \"ops\".\"tasks\" (\n  \"Destination Bin\" TEXT NOT NULL,\n  PRIMARY KEY (\"Destination Bin\")\n);",
		},
		{
			name:    "create or replace verb",
			def:     TableDef{FQN: "t", Columns: []ColumnDef{{Name: "a", SQLType: "STRING", Nullable: true}}},
			dialect: Dialect{CreateVerb: "CREATE OR REPLACE TABLE", QuoteIdent: DoubleQuote},
			wantSQL: "CREATE OR REPLACE TABLE \"t\" (\n  \"a\" STRING\n);",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := BuildCreateTableSQL(tt.def, tt.dialect)
			if tt.errContains != "" {
				if err == nil {
					t.Fatalf("BuildCreateTableSQL() error = nil, want containing %q", tt.errContains)
				}
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Fatalf("error = %q, want containing %q", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildCreateTableSQL() error = %v", err)
			}
			if got != tt.wantSQL {
				t.Fatalf("SQL mismatch\n got: %q\nwant: %q", got, tt.wantSQL)
			}
		})
	}
}

func TestBuildDropTableSQL(t *testing.T) {
	t.Parallel()

	got, err := BuildDropTableSQL("ops.tasks", Dialect{QuoteIdent: DoubleQuote})
	if err != nil {
		t.Fatalf("BuildDropTableSQL() error = %v", err)
	}
	if want := `DROP TABLE IF EXISTS "ops"."tasks";`; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	if _, err := BuildDropTableSQL("", Dialect{Name: "x"}); err == nil {
		t.Fatalf("expected error for empty FQN")
	}
}

func TestQuoteFQN(t *testing.T) {
	t.Parallel()

	d := Dialect{QuoteIdent: DoubleQuote}
	tests := []struct{ in, want string }{
		{in: "events", want: `"events"`},
		{in: "a.b.c", want: `"a"."b"."c"`},
		{in: " .main..events. ", want: `"main"."events"`},
		{in: `main."events"`, want: `"main"."""events"""`},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		if got := d.QuoteFQN(tt.in); got != tt.want {
			t.Errorf("QuoteFQN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	bare := Dialect{QuoteIdent: DoubleQuote, QuoteTable: func(s string) string { return s }}
	if got, want := bare.QuoteFQN("ops.tasks"), "ops.tasks"; got != want {
		t.Errorf("QuoteFQN with QuoteTable = %q, want %q", got, want)
	}
}

func TestFromSchema(t *testing.T) {
	t.Parallel()

	tbl := schema.Table{Columns: []schema.Column{
		{Name: "Product", Kind: schema.Text},
		{Name: "Confirmation Date", Kind: schema.Date},
	}}
	def := FromSchema("s.t", tbl, func(k schema.Kind) string { return strings.ToUpper(k.String()) })

	if def.FQN != "s.t" || len(def.Columns) != 2 {
		t.Fatalf("FromSchema() = %+v", def)
	}
	if def.Columns[1].SQLType != "DATE" || !def.Columns[1].Nullable {
		t.Fatalf("column[1] = %+v", def.Columns[1])
	}
}
