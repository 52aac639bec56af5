// Package ddl contains Postgres-specific helpers for generating DDL.
package ddl

import "silorecon/internal/schema"

// MapType maps a schema kind into a Postgres SQL type.
//
//	Integer   -> BIGINT
//	Float     -> DOUBLE PRECISION
//	Timestamp -> TIMESTAMP
//	Date      -> DATE
//	Time      -> TIME
//	Text      -> TEXT
func MapType(k schema.Kind) string {
	switch k {
	case schema.Integer:
		return "BIGINT"
	case schema.Float:
		return "DOUBLE PRECISION"
	case schema.Timestamp:
		return "TIMESTAMP"
	case schema.Date:
		return "DATE"
	case schema.Time:
		return "TIME"
	default:
		return "TEXT"
	}
}
