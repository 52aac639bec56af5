// Package ddl contains MSSQL-specific helpers for generating DDL.
//
// It maps schema kinds into SQL Server types. The mapping is conservative and
// biased toward safe, widely-supported choices.
package ddl

import "silorecon/internal/schema"

// MapType maps a schema kind into a SQL Server column type. Text and unknown
// kinds fall back to NVARCHAR(MAX).
func MapType(k schema.Kind) string {
	switch k {
	case schema.Integer:
		return "BIGINT"
	case schema.Float:
		return "FLOAT"
	case schema.Timestamp:
		return "DATETIME2"
	case schema.Date:
		return "DATE"
	case schema.Time:
		return "TIME"
	default:
		return "NVARCHAR(MAX)"
	}
}
