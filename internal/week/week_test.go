package week

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestStartFallsOnMonday(t *testing.T) {
	// 2026-01-12 is a Monday
	cases := []struct {
		in   time.Time
		want time.Time
	}{
		{date(2026, time.January, 12), date(2026, time.January, 12)},
		{date(2026, time.January, 13), date(2026, time.January, 12)},
		{date(2026, time.January, 18), date(2026, time.January, 12)}, // Sunday
		{date(2026, time.January, 19), date(2026, time.January, 19)}, // next Monday
	}
	for _, c := range cases {
		got := Start(c.in)
		if !got.Equal(c.want) {
			t.Errorf("Start(%s) = %s, want %s", c.in.Format("2006-01-02"), got.Format("2006-01-02"), c.want.Format("2006-01-02"))
		}
		if got.Weekday() != time.Monday {
			t.Errorf("Start(%s) fell on %s, want Monday", c.in.Format("2006-01-02"), got.Weekday())
		}
	}
}

func TestStartIdempotent(t *testing.T) {
	d := date(2026, time.March, 7)
	once := Start(d)
	twice := Start(once)
	if !once.Equal(twice) {
		t.Errorf("Start(Start(d)) = %s, want %s", twice, once)
	}
}

func TestStartIgnoresTimeOfDay(t *testing.T) {
	late := time.Date(2026, time.January, 14, 23, 59, 59, 0, time.UTC)
	if got := Start(late); !got.Equal(date(2026, time.January, 12)) {
		t.Errorf("Start with time-of-day = %s, want 2026-01-12", got.Format("2006-01-02"))
	}
}

func TestEnd(t *testing.T) {
	if got := End(date(2026, time.January, 14)); !got.Equal(date(2026, time.January, 18)) {
		t.Errorf("End = %s, want 2026-01-18", got.Format("2006-01-02"))
	}
}

func TestSameWeek(t *testing.T) {
	mon := date(2026, time.January, 12)
	for i := 0; i < 7; i++ {
		d := mon.AddDate(0, 0, i)
		if !SameWeek(mon, d) {
			t.Errorf("SameWeek(%s, %s) = false, want true", mon.Format("2006-01-02"), d.Format("2006-01-02"))
		}
	}
	nextMon := mon.AddDate(0, 0, 7)
	if SameWeek(mon, nextMon) {
		t.Error("consecutive Mondays reported as same week")
	}
}

func TestDayName(t *testing.T) {
	got, err := DayName(0)
	if err != nil || got != "Monday" {
		t.Errorf("DayName(0) = %q, %v", got, err)
	}
	got, err = DayName(6)
	if err != nil || got != "Sunday" {
		t.Errorf("DayName(6) = %q, %v", got, err)
	}
	if _, err := DayName(7); err == nil {
		t.Error("DayName(7) should fail")
	}
	if _, err := DayName(-1); err == nil {
		t.Error("DayName(-1) should fail")
	}
	if short, err := DayShortName(2); err != nil || short != "Wed" {
		t.Errorf("DayShortName(2) = %q, %v", short, err)
	}
	if _, err := DayShortName(9); err == nil {
		t.Error("DayShortName(9) should fail")
	}
}

func TestFormatRange(t *testing.T) {
	cases := []struct {
		start, end time.Time
		want       string
	}{
		{date(2026, time.January, 15), date(2026, time.January, 21), "Jan 15 - 21, 2026"},
		{date(2026, time.January, 15), date(2026, time.February, 2), "Jan 15 - Feb 02, 2026"},
		{date(2025, time.December, 29), date(2026, time.January, 4), "Dec 29, 2025 - Jan 04, 2026"},
	}
	for _, c := range cases {
		if got := FormatRange(c.start, c.end); got != c.want {
			t.Errorf("FormatRange = %q, want %q", got, c.want)
		}
	}
}
