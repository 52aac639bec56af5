package builtin

import (
	"strings"

	"silorecon/pkg/records"
)

// Require drops records where any of Fields is absent, nil, or a string that
// is empty after trimming. It filters in place.
type Require struct {
	Fields []string
}

func (r Require) Apply(in []records.Record) []records.Record {
	out := in[:0]
	for _, rec := range in {
		if r.complete(rec) {
			out = append(out, rec)
		}
	}
	return out
}

func (r Require) complete(rec records.Record) bool {
	for _, f := range r.Fields {
		switch v := rec[f].(type) {
		case nil:
			return false
		case string:
			if strings.TrimSpace(v) == "" {
				return false
			}
		}
	}
	return true
}
