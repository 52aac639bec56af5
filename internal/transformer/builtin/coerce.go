package builtin

import (
	"strconv"
	"strings"
	"time"

	"github.com/golang-sql/civil"

	"silorecon/pkg/records"
)

// Default layouts for the date and time kinds: M/D/YYYY and 12-hour clock
// with AM/PM. Go layouts accept both padded and unpadded numbers.
const (
	DefaultDateLayout = "1/2/2006"
	DefaultTimeLayout = "3:04:05 PM"
)

// Coerce converts fields to typed values in place.
//
// Kinds:
//
//	int    string -> int64
//	float  string -> float64
//	bool   string -> bool
//	date   string (Layout) or time.Time -> civil.Date
//	time   string (TimeLayout, upper-cased first) or time.Time -> civil.Time
//	string left as is
//
// For int, float and bool an unparsable string is kept unchanged. For date
// and time anything that cannot be parsed becomes nil; a bad timestamp never
// fails the batch.
type Coerce struct {
	Types      map[string]string
	Layout     string
	TimeLayout string
}

func (c Coerce) Apply(in []records.Record) []records.Record {
	if len(c.Types) == 0 {
		return in
	}
	layout := c.Layout
	if layout == "" {
		layout = DefaultDateLayout
	}
	timeLayout := c.TimeLayout
	if timeLayout == "" {
		timeLayout = DefaultTimeLayout
	}

	for _, r := range in {
		for field, typ := range c.Types {
			v, ok := r[field]
			if !ok {
				continue
			}
			switch typ {
			case "date":
				r[field] = ToDate(v, layout)
			case "time":
				r[field] = ToTime(v, timeLayout)
			case "int":
				if s, isStr := v.(string); isStr {
					if i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
						r[field] = i
					}
				}
			case "float":
				if s, isStr := v.(string); isStr {
					if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
						r[field] = f
					}
				}
			case "bool":
				if s, isStr := v.(string); isStr {
					if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
						r[field] = b
					}
				}
			}
		}
	}
	return in
}

// ToDate converts v to a civil.Date, or returns nil when it cannot.
func ToDate(v any, layout string) any {
	switch t := v.(type) {
	case civil.Date:
		return t
	case civil.DateTime:
		return t.Date
	case time.Time:
		if t.IsZero() {
			return nil
		}
		return civil.DateOf(t)
	case []byte:
		return ToDate(string(t), layout)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		p, err := time.Parse(layout, s)
		if err != nil {
			return nil
		}
		return civil.DateOf(p)
	default:
		return nil
	}
}

// ToTime converts v to a civil.Time, or returns nil when it cannot. Strings
// are upper-cased so "2:05:09 pm" matches a PM layout.
func ToTime(v any, layout string) any {
	switch t := v.(type) {
	case civil.Time:
		return t
	case civil.DateTime:
		return t.Time
	case time.Time:
		return civil.TimeOf(t)
	case time.Duration:
		if t < 0 || t >= 24*time.Hour {
			return nil
		}
		return civil.TimeOf(time.Time{}.Add(t))
	case []byte:
		return ToTime(string(t), layout)
	case string:
		s := strings.ToUpper(strings.TrimSpace(t))
		if s == "" {
			return nil
		}
		p, err := time.Parse(layout, s)
		if err != nil || zeroHour12(layout, s) {
			return nil
		}
		return civil.TimeOf(p)
	default:
		return nil
	}
}

// zeroHour12 reports whether s carries hour 0 in the 12-hour field of
// layout. time.Parse accepts "00:30:00 AM" but a 12-hour clock runs 1-12.
// Only a hour field preceded by literal text (or nothing) is checked, which
// covers the usual "3:04:05 PM" and "03:04:05 PM" forms.
func zeroHour12(layout, s string) bool {
	i := strings.IndexByte(layout, '3')
	if i < 0 {
		return false
	}
	if i > 0 && layout[i-1] == '0' {
		i--
	}
	prefix := layout[:i]
	if strings.IndexFunc(prefix, isLayoutChar) >= 0 || !strings.HasPrefix(s, prefix) {
		return false
	}
	digits := s[len(prefix):]
	n := 0
	for n < len(digits) && n < 2 && digits[n] >= '0' && digits[n] <= '9' {
		n++
	}
	return n > 0 && strings.Trim(digits[:n], "0") == ""
}

func isLayoutChar(r rune) bool {
	return r == '_' || (r >= '0' && r <= '9') || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}
