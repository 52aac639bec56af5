// Package records defines the row type shared by the extract, transform and
// load stages.
package records

// Record is one row keyed by column name. A missing key and a nil value both
// mean "null".
type Record map[string]any

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Values returns the values of r in the order given by columns. Missing
// columns yield nil.
func (r Record) Values(columns []string) []any {
	out := make([]any, len(columns))
	for i, c := range columns {
		out[i] = r[c]
	}
	return out
}
