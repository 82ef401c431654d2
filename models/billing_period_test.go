package models

import (
	"testing"
	"time"
)

func TestBillingMonthOfDate_ZeroPadsMonth(t *testing.T) {
	cases := []struct {
		in       time.Time
		expected string
	}{
		{time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC), "01-2024"},
		{time.Date(2024, time.December, 31, 23, 59, 0, 0, time.UTC), "12-2024"},
		{time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC), "09-2025"},
	}
	for _, tc := range cases {
		if got := BillingMonthOfDate(tc.in); got != tc.expected {
			t.Fatalf("BillingMonthOfDate(%v) expected %q, got %q", tc.in, tc.expected, got)
		}
	}
}

func TestParseBillingMonth_RejectsMalformedKeys(t *testing.T) {
	for _, bad := range []string{"", "1-2024", "13-2024", "00-2024", "2024-01", "January-2024", "01/2024"} {
		if _, _, err := ParseBillingMonth(bad); err == nil {
			t.Fatalf("ParseBillingMonth(%q) expected error, got nil", bad)
		}
	}

	month, year, err := ParseBillingMonth("05-2024")
	if err != nil {
		t.Fatalf("ParseBillingMonth(05-2024) error: %v", err)
	}
	if month != 5 || year != 2024 {
		t.Fatalf("ParseBillingMonth(05-2024) expected (5, 2024), got (%d, %d)", month, year)
	}
}

func TestNextBillingMonth_AdvancesAndRollsOver(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"05-2024", "06-2024"},
		{"11-2024", "12-2024"},
		{"12-2024", "01-2025"},
	}
	for _, tc := range cases {
		got, err := NextBillingMonth(tc.in)
		if err != nil {
			t.Fatalf("NextBillingMonth(%q) error: %v", tc.in, err)
		}
		if got != tc.expected {
			t.Fatalf("NextBillingMonth(%q) expected %q, got %q", tc.in, tc.expected, got)
		}
	}
}

func TestBillingMonthWindow_CoversWholeMonth(t *testing.T) {
	start, end, err := BillingMonthWindow("02-2024")
	if err != nil {
		t.Fatalf("BillingMonthWindow error: %v", err)
	}

	wantStart := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	if !start.Equal(wantStart) {
		t.Fatalf("window start expected %v, got %v", wantStart, start)
	}
	// 2024 is a leap year.
	if end.Day() != 29 || end.Month() != time.February {
		t.Fatalf("window end expected Feb 29, got %v", end)
	}
	if end.Hour() != 23 || end.Minute() != 59 || end.Second() != 59 {
		t.Fatalf("window end expected 23:59:59, got %v", end)
	}
	if !end.After(start) {
		t.Fatalf("window end %v not after start %v", end, start)
	}
}

func TestResolveDueDate_PlacesDayInMonth(t *testing.T) {
	got := ResolveDueDate(2024, 3, 10)
	want := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("ResolveDueDate(2024, 3, 10) expected %v, got %v", want, got)
	}
}

func TestResolveDueDate_LastOfMonthSentinel(t *testing.T) {
	cases := []struct {
		year  int
		month int
		want  time.Time
	}{
		{2024, 2, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)},
		{2025, 2, time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC)},
		{2024, 4, time.Date(2024, time.April, 30, 0, 0, 0, 0, time.UTC)},
		{2024, 12, time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got := ResolveDueDate(tc.year, tc.month, DueDayLastOfMonth)
		if !got.Equal(tc.want) {
			t.Fatalf("ResolveDueDate(%d, %d, last-of-month) expected %v, got %v", tc.year, tc.month, tc.want, got)
		}
	}
}
