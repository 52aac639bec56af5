// Package parser defines the contract for turning a raw file export into
// rows.
package parser

import (
	"io"

	"silorecon/pkg/records"
)

// Result is one parsed input. Columns is the header order; Skipped counts
// rows dropped as malformed.
type Result struct {
	Columns []string
	Rows    []records.Record
	Skipped int
}

// Parser reads a whole input.
type Parser interface {
	Parse(r io.Reader) (Result, error)
}
