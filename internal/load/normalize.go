package load

import (
	"fmt"
	"math"
	"time"

	"github.com/golang-sql/civil"
)

const (
	timestampLayout = "2006-01-02 15:04:05"
	dateLayout      = "2006-01-02"
)

// NormalizeValue renders temporal values as text the sinks accept for their
// DATE/TIME/TIMESTAMP columns:
//
//	time.Time, civil.DateTime  YYYY-MM-DD HH:MM:SS
//	civil.Date                 YYYY-MM-DD
//	civil.Time                 HH:MM:SS
//
// nil and NaN floats become nil. Everything else passes through.
func NormalizeValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		if t.IsZero() {
			return nil
		}
		return t.Format(timestampLayout)
	case civil.DateTime:
		return t.In(time.UTC).Format(timestampLayout)
	case civil.Date:
		return t.In(time.UTC).Format(dateLayout)
	case civil.Time:
		return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	case float64:
		if math.IsNaN(t) {
			return nil
		}
		return t
	case float32:
		if math.IsNaN(float64(t)) {
			return nil
		}
		return t
	default:
		return v
	}
}
