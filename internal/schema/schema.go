// Package schema is the type-tagged description of a result set that the
// transform hands to the loader. The loader creates the destination table from
// this description and never re-infers types from values at insert time, so a
// run's destination schema only changes when the description does.
package schema

import (
	"fmt"
	"strings"
)

// Kind is the logical type of a column.
type Kind int

const (
	Text Kind = iota
	Integer
	Float
	Timestamp
	Date
	Time
)

var kindNames = [...]string{
	Text:      "text",
	Integer:   "integer",
	Float:     "float",
	Timestamp: "timestamp",
	Date:      "date",
	Time:      "time",
}

// String returns the lower-case logical name of k ("text", "integer", ...).
func (k Kind) String() string {
	if int(k) < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind maps a logical type name to a Kind. Common aliases are accepted.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "string", "varchar":
		return Text, nil
	case "int", "integer", "bigint":
		return Integer, nil
	case "float", "double", "real":
		return Float, nil
	case "timestamp", "datetime":
		return Timestamp, nil
	case "date":
		return Date, nil
	case "time":
		return Time, nil
	}
	return Text, fmt.Errorf("schema: unknown kind %q", s)
}

// Column is one named, typed column.
type Column struct {
	Name string
	Kind Kind
}

// Table is an ordered list of columns.
type Table struct {
	Columns []Column
}

// Names returns the column names in order.
func (t Table) Names() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Lookup returns the column with the given name.
func (t Table) Lookup(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}
