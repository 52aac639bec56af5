package reconcile

import (
	"cmp"
	"slices"

	"github.com/golang-sql/civil"

	"silorecon/pkg/records"
)

// sortByConfirmation stable-sorts rows ascending by (date, time). A nil
// date sorts after every date; within equal dates a nil time sorts after
// every time.
func sortByConfirmation(rows []records.Record, dateCol, timeCol string) {
	slices.SortStableFunc(rows, func(a, b records.Record) int {
		if c := compareDate(a[dateCol], b[dateCol]); c != 0 {
			return c
		}
		return compareTime(a[timeCol], b[timeCol])
	})
}

func compareDate(a, b any) int {
	da, okA := a.(civil.Date)
	db, okB := b.(civil.Date)
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return 1
	case !okB:
		return -1
	}
	if c := cmp.Compare(da.Year, db.Year); c != 0 {
		return c
	}
	if c := cmp.Compare(da.Month, db.Month); c != 0 {
		return c
	}
	return cmp.Compare(da.Day, db.Day)
}

func compareTime(a, b any) int {
	ta, okA := a.(civil.Time)
	tb, okB := b.(civil.Time)
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return 1
	case !okB:
		return -1
	}
	if c := cmp.Compare(ta.Hour, tb.Hour); c != 0 {
		return c
	}
	if c := cmp.Compare(ta.Minute, tb.Minute); c != 0 {
		return c
	}
	if c := cmp.Compare(ta.Second, tb.Second); c != 0 {
		return c
	}
	return cmp.Compare(ta.Nanosecond, tb.Nanosecond)
}
