package domain_test

import (
	"testing"
	"time"

	"github.com/lanaapp/lana-api/internal/domain"
)

func date(s string) time.Time {
	t, err := time.Parse(domain.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestWeekBounds(t *testing.T) {
	cases := []struct {
		in    string
		start string
		end   string
	}{
		{"2025-03-10", "2025-03-10", "2025-03-16"}, // Monday
		{"2025-03-12", "2025-03-10", "2025-03-16"}, // Wednesday
		{"2025-03-16", "2025-03-10", "2025-03-16"}, // Sunday snaps back, not forward
		{"2025-03-17", "2025-03-17", "2025-03-23"}, // next Monday
		{"2024-12-31", "2024-12-30", "2025-01-05"}, // year boundary
	}
	for _, tc := range cases {
		start, end := domain.WeekBounds(date(tc.in))
		if start.Format(domain.DateOnly) != tc.start || end.Format(domain.DateOnly) != tc.end {
			t.Errorf("WeekBounds(%s) = %s..%s, want %s..%s",
				tc.in, start.Format(domain.DateOnly), end.Format(domain.DateOnly), tc.start, tc.end)
		}
	}
}

func TestWeekBounds_IgnoresWallClock(t *testing.T) {
	late := time.Date(2025, 3, 16, 23, 59, 59, 0, time.UTC) // Sunday night
	start, _ := domain.WeekBounds(late)
	if start.Format(domain.DateOnly) != "2025-03-10" {
		t.Errorf("expected Sunday 23:59 to stay in its week, got start %s", start.Format(domain.DateOnly))
	}
}

func TestDaysBetween(t *testing.T) {
	if got := domain.DaysBetween(date("2025-03-10"), date("2025-03-15")); got != 5 {
		t.Errorf("expected 5 days forward, got %d", got)
	}
	if got := domain.DaysBetween(date("2025-03-15"), date("2025-03-10")); got != -5 {
		t.Errorf("expected -5 days backward, got %d", got)
	}
	a := time.Date(2025, 3, 10, 23, 0, 0, 0, time.UTC)
	b := time.Date(2025, 3, 11, 1, 0, 0, 0, time.UTC)
	if got := domain.DaysBetween(a, b); got != 1 {
		t.Errorf("expected calendar-date comparison to give 1, got %d", got)
	}
}

func TestSameDate(t *testing.T) {
	a := time.Date(2025, 3, 10, 0, 30, 0, 0, time.UTC)
	b := time.Date(2025, 3, 10, 23, 30, 0, 0, time.UTC)
	if !domain.SameDate(a, b) {
		t.Error("expected same calendar date")
	}
	if domain.SameDate(a, b.Add(time.Hour)) {
		t.Error("expected different calendar dates across midnight")
	}
}
