package finance

import (
	"fmt"
	"time"
)

// Window selects a reporting period anchored at call time.
type Window string

const (
	WindowToday Window = "today"
	WindowWeek  Window = "week"
	WindowMonth Window = "month"
	WindowYear  Window = "year"
	WindowAll   Window = "all"
)

func (w Window) IsValid() bool {
	switch w {
	case WindowToday, WindowWeek, WindowMonth, WindowYear, WindowAll:
		return true
	}
	return false
}

func (w Window) String() string {
	return string(w)
}

// Range resolves the window to a half-open interval [from, now]. A nil
// from means unbounded (the all window). Weeks start on Sunday.
func (w Window) Range(now time.Time) (*time.Time, error) {
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch w {
	case WindowToday:
		return &midnight, nil
	case WindowWeek:
		from := midnight.AddDate(0, 0, -int(now.Weekday()))
		return &from, nil
	case WindowMonth:
		from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return &from, nil
	case WindowYear:
		from := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return &from, nil
	case WindowAll:
		return nil, nil
	}
	return nil, fmt.Errorf("unknown window %q", w)
}

// monthRange is the [first, next-first) interval of a calendar month.
func monthRange(month time.Month, year int) (time.Time, time.Time) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}
