package repository

import (
	"fmt"
	"time"
)

// leapDayKey is the month/day key of Feb 29. Such birthdays are always
// handed to BirthdayWithin, which moves them to Mar 1 in non-leap years.
const leapDayKey = 229

// BirthdayWithin reports whether the anniversary of birth falls within
// [start, end]. All three are compared as UTC calendar dates. Feb 29
// anniversaries move to Mar 1 in non-leap years.
func BirthdayWithin(birth, start, end time.Time) bool {
	start, end = truncateDate(start), truncateDate(end)
	if end.Before(start) {
		return false
	}

	next := anniversary(birth, start.Year())
	if next.Before(start) {
		next = anniversary(birth, start.Year()+1)
	}
	return !next.After(end)
}

func anniversary(birth time.Time, year int) time.Time {
	return time.Date(year, birth.Month(), birth.Day(), 0, 0, 0, 0, time.UTC)
}

func truncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// monthDayKey encodes the calendar day of t as month*100 + day.
func monthDayKey(t time.Time) int {
	return int(t.Month())*100 + t.Day()
}

// birthdayWindow turns [start, end] into a condition over keyExpr, an SQL
// expression yielding the birth month*100 + day. ok is false when the window
// covers a whole year and no rows can be excluded.
func birthdayWindow(keyExpr string, start, end time.Time) (query string, args []any, ok bool) {
	start, end = truncateDate(start), truncateDate(end)
	if !end.Before(start.AddDate(1, 0, 0)) {
		return "", nil, false
	}

	lo, hi := monthDayKey(start), monthDayKey(end)
	if start.Year() == end.Year() {
		query = fmt.Sprintf("((%[1]s) BETWEEN ? AND ? OR (%[1]s) = ?)", keyExpr)
	} else {
		query = fmt.Sprintf("((%[1]s) >= ? OR (%[1]s) <= ? OR (%[1]s) = ?)", keyExpr)
	}
	return query, []any{lo, hi, leapDayKey}, true
}
