package builtin

import (
	"fmt"
	"strings"

	"silorecon/pkg/records"
)

// Normalize trims leading and trailing white space, NO-BREAK SPACE included,
// from string values in place. Interior characters are kept as they are.
//
// With Fields empty every string value is normalized and other values are
// left alone. With Fields set only those fields are touched, and each is
// forced to a string: nil becomes "", []byte is decoded, other values go
// through fmt.Sprint.
type Normalize struct {
	Fields []string
}

func (n Normalize) Apply(in []records.Record) []records.Record {
	if len(n.Fields) == 0 {
		for _, r := range in {
			for k, v := range r {
				if s, ok := v.(string); ok {
					r[k] = clean(s)
				}
			}
		}
		return in
	}

	for _, r := range in {
		for _, f := range n.Fields {
			r[f] = clean(asString(r[f]))
		}
	}
	return in
}

func clean(s string) string {
	return strings.TrimSpace(s)
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}
