package load

import (
	"math"
	"testing"
	"time"

	"github.com/golang-sql/civil"
)

func TestNormalizeValue(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 1, 2, 15, 4, 5, 999, time.UTC)
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"time.Time", ts, "2024-01-02 15:04:05"},
		{"zero time.Time", time.Time{}, nil},
		{"civil.DateTime", civil.DateTimeOf(ts), "2024-01-02 15:04:05"},
		{"civil.Date", civil.Date{Year: 2024, Month: 1, Day: 2}, "2024-01-02"},
		{"civil.Time", civil.Time{Hour: 8, Minute: 5, Second: 9, Nanosecond: 5}, "08:05:09"},
		{"NaN", math.NaN(), nil},
		{"float32 NaN", float32(math.NaN()), nil},
		{"float", 1.5, 1.5},
		{"int64", int64(7), int64(7)},
		{"empty string stays", "", ""},
		{"string", "S01", "S01"},
	}
	for _, tt := range tests {
		if got := NormalizeValue(tt.in); got != tt.want {
			t.Errorf("%s: NormalizeValue(%v) = %#v, want %#v", tt.name, tt.in, got, tt.want)
		}
	}
}
