package ddl

import "silorecon/internal/schema"

// ColumnDef describes a single column in a table definition produced or
// consumed by ddl. It intentionally uses simple, database-agnostic fields.
//
// Fields:
//   - Name: logical column name (unquoted; quoting happens at render time)
//   - SQLType: target SQL type (e.g., TEXT, BIGINT, TIMESTAMP_NTZ)
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the primary key
//   - Default: raw default expression (e.g., CURRENT_TIMESTAMP)
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Default    string
}

// TableDef holds the fully-qualified table name (FQN) and an ordered list of
// columns. The FQN is expected in dotted form (e.g., "schema.table") and is
// quoted segment by segment by the renderers.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// TypeMapper maps a logical column kind to a dialect SQL type.
type TypeMapper func(schema.Kind) string

// FromSchema builds a TableDef for fqn from a type-tagged schema. Every column
// is nullable: unparsable dates/times and unmatched mappings load as NULL.
func FromSchema(fqn string, t schema.Table, mapType TypeMapper) TableDef {
	cols := make([]ColumnDef, 0, len(t.Columns))
	for _, c := range t.Columns {
		cols = append(cols, ColumnDef{
			Name:     c.Name,
			SQLType:  mapType(c.Kind),
			Nullable: true,
		})
	}
	return TableDef{FQN: fqn, Columns: cols}
}
