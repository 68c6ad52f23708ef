// Package week provides Monday-aligned week arithmetic for attributing chore
// completions. All functions treat a week as Monday through Sunday and operate
// on date-only values (midnight in the input's location).
package week

import (
	"fmt"
	"time"
)

var (
	dayNames      = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	dayShortNames = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
)

// Date truncates t to midnight in its own location.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Weekday returns the Monday-based weekday of t (0=Monday .. 6=Sunday).
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// Start returns the Monday on or before t, at midnight.
func Start(t time.Time) time.Time {
	return Date(t).AddDate(0, 0, -Weekday(t))
}

// End returns the Sunday of the week containing t, at midnight.
func End(t time.Time) time.Time {
	return Start(t).AddDate(0, 0, 6)
}

// Range returns the Monday and Sunday of the week containing t.
func Range(t time.Time) (time.Time, time.Time) {
	start := Start(t)
	return start, start.AddDate(0, 0, 6)
}

// SameWeek reports whether a and b fall within the same Monday-aligned week.
func SameWeek(a, b time.Time) bool {
	return Start(a).Equal(Start(b))
}

// DayName returns the full weekday name for n (0=Monday .. 6=Sunday).
func DayName(n int) (string, error) {
	if n < 0 || n > 6 {
		return "", fmt.Errorf("day of week must be between 0 and 6, got %d", n)
	}
	return dayNames[n], nil
}

// DayShortName returns the abbreviated weekday name for n (0=Monday .. 6=Sunday).
func DayShortName(n int) (string, error) {
	if n < 0 || n > 6 {
		return "", fmt.Errorf("day of week must be between 0 and 6, got %d", n)
	}
	return dayShortNames[n], nil
}

// FormatRange formats a date range for display, collapsing the month and year
// when shared: "Jan 15 - 21, 2026", "Jan 15 - Feb 02, 2026", or full dates on
// both sides when the years differ.
func FormatRange(start, end time.Time) string {
	switch {
	case start.Year() == end.Year() && start.Month() == end.Month():
		return start.Format("Jan 02") + " - " + end.Format("02, 2006")
	case start.Year() == end.Year():
		return start.Format("Jan 02") + " - " + end.Format("Jan 02, 2006")
	default:
		return start.Format("Jan 02, 2006") + " - " + end.Format("Jan 02, 2006")
	}
}
