// Package ddl contains SQLite-specific helpers for generating DDL.
package ddl

import "silorecon/internal/schema"

// MapType maps a schema kind into a SQLite column type.
//
// SQLite is dynamically typed, so this mapping picks canonical affinities:
// dates and times are stored as ISO-8601 TEXT, which sorts correctly.
func MapType(k schema.Kind) string {
	switch k {
	case schema.Integer:
		return "INTEGER"
	case schema.Float:
		return "REAL"
	default:
		return "TEXT"
	}
}
