package finance

import (
	"strconv"
	"time"
)

// Greeting returns the time-of-day salutation.
func Greeting(t time.Time) string {
	switch h := t.Hour(); {
	case h < 12:
		return "Good Morning"
	case h < 18:
		return "Good Afternoon"
	}
	return "Good Evening"
}

// Month identifies a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// String renders "March 2024".
func (m Month) String() string {
	return m.Month.String() + " " + strconv.Itoa(m.Year)
}

// Prev returns the previous month.
func (m Month) Prev() Month {
	if m.Month == time.January {
		return Month{Year: m.Year - 1, Month: time.December}
	}
	return Month{Year: m.Year, Month: m.Month - 1}
}

// Next returns the following month.
func (m Month) Next() Month {
	if m.Month == time.December {
		return Month{Year: m.Year + 1, Month: time.January}
	}
	return Month{Year: m.Year, Month: m.Month + 1}
}

// Before reports whether m is earlier than o.
func (m Month) Before(o Month) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

// SelectableYears is how many years back the month picker reaches,
// counting the current one.
const SelectableYears = 5

// ClampMonth keeps m within the picker range ending at now's month.
func ClampMonth(m Month, now time.Time) Month {
	latest := MonthOf(now)
	earliest := Month{Year: latest.Year - SelectableYears + 1, Month: time.January}
	switch {
	case latest.Before(m):
		return latest
	case m.Before(earliest):
		return earliest
	}
	return m
}
