// Package builtin holds the row-local transformers the reconciliation chain
// is built from.
package builtin

import (
	"fmt"
	"strings"

	"silorecon/pkg/records"
)

// DeDup collapses records that share a key, e.g. a lookup table made unique
// on its join column before a many-to-one join.
//
// String key parts are compared trimmed, so " S01" and "S01" collide. A
// record missing any key field cannot be keyed and passes through at its
// original position. Output keeps the position of each key's first
// occurrence.
type DeDup struct {
	// Keys are the fields that form the key, e.g. ["EWM BIN"].
	Keys []string

	// Policy is "keep-first" or "keep-last" (default). With keep-last the
	// later record replaces the earlier one in place.
	Policy string
}

func (d DeDup) Apply(in []records.Record) []records.Record {
	if len(in) == 0 || len(d.Keys) == 0 {
		return in
	}
	keepLast := !strings.EqualFold(strings.TrimSpace(d.Policy), "keep-first")

	seen := make(map[string]int, len(in))
	out := make([]records.Record, 0, len(in))
	for _, r := range in {
		key, ok := d.key(r)
		if !ok {
			out = append(out, r)
			continue
		}
		if i, dup := seen[key]; dup {
			if keepLast {
				out[i] = r
			}
			continue
		}
		seen[key] = len(out)
		out = append(out, r)
	}
	return out
}

func (d DeDup) key(r records.Record) (string, bool) {
	var b strings.Builder
	for i, k := range d.Keys {
		v, ok := r[k]
		if !ok {
			return "", false
		}
		if i > 0 {
			b.WriteByte('\x1f')
		}
		switch t := v.(type) {
		case nil:
			b.WriteByte('\x00')
		case string:
			b.WriteString(strings.TrimSpace(t))
		default:
			b.WriteString(fmt.Sprint(t))
		}
	}
	return b.String(), true
}
