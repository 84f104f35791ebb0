package domain

import (
	"strings"
	"time"
)

// DateLayout is the ISO local date format used for every date column.
const DateLayout = "2006-01-02"

// DateRange is an inclusive range of ISO dates. Empty bounds are open.
type DateRange struct {
	From string `json:"from,omitempty" form:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `json:"to,omitempty" form:"to" validate:"omitempty,datetime=2006-01-02"`
}

// Contains reports whether date falls within the range. ISO dates compare lexically.
func (r DateRange) Contains(date string) bool {
	d := datePart(date)
	if r.From != "" && d < r.From {
		return false
	}
	if r.To != "" && d > r.To {
		return false
	}
	return true
}

// MonthRange returns the range covering the given calendar month.
func MonthRange(year int, month time.Month) DateRange {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return DateRange{From: first.Format(DateLayout), To: last.Format(DateLayout)}
}

// DateBounds are the earliest and latest transaction dates in a store.
type DateBounds struct {
	MinDate string `json:"minDate"`
	MaxDate string `json:"maxDate"`
}

// datePart trims a timestamp down to its date so "2025-01-15T10:00:00" compares as "2025-01-15".
func datePart(s string) string {
	if i := strings.IndexAny(s, "T "); i > 0 {
		return s[:i]
	}
	return s
}

// Int64Ptr is a helper for optional references.
func Int64Ptr(v int64) *int64 { return &v }
