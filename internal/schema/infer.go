package schema

import (
	"time"

	"github.com/golang-sql/civil"

	"silorecon/pkg/records"
)

// Infer derives a Table for columns by scanning every row once.
//
// Per column, ignoring nil values:
//   - all integral numbers                  -> Integer
//   - all numbers, at least one float       -> Float
//   - all time.Time or civil.DateTime        -> Timestamp
//   - all civil.Date                         -> Date
//   - all civil.Time                         -> Time
//   - anything else, mixed, or only nil      -> Text
//
// overrides pins a column to a kind regardless of its values.
func Infer(columns []string, rows []records.Record, overrides map[string]Kind) Table {
	out := Table{Columns: make([]Column, 0, len(columns))}
	for _, name := range columns {
		if k, ok := overrides[name]; ok {
			out.Columns = append(out.Columns, Column{Name: name, Kind: k})
			continue
		}
		out.Columns = append(out.Columns, Column{Name: name, Kind: inferColumn(name, rows)})
	}
	return out
}

type valueClass int

const (
	classNone valueClass = iota
	classInt
	classFloat
	classTimestamp
	classDate
	classTime
	classOther
)

func inferColumn(name string, rows []records.Record) Kind {
	seen := classNone
	for _, r := range rows {
		v, ok := r[name]
		if !ok || v == nil {
			continue
		}
		c := classify(v)
		switch {
		case seen == classNone:
			seen = c
		case seen == c:
		case (seen == classInt && c == classFloat) || (seen == classFloat && c == classInt):
			seen = classFloat
		default:
			return Text
		}
		if seen == classOther {
			return Text
		}
	}

	switch seen {
	case classInt:
		return Integer
	case classFloat:
		return Float
	case classTimestamp:
		return Timestamp
	case classDate:
		return Date
	case classTime:
		return Time
	default:
		return Text
	}
}

func classify(v any) valueClass {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return classInt
	case float32, float64:
		return classFloat
	case time.Time, civil.DateTime:
		return classTimestamp
	case civil.Date:
		return classDate
	case civil.Time:
		return classTime
	default:
		return classOther
	}
}
