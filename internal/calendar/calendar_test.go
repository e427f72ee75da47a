package calendar

import (
	"testing"
	"time"
)

func TestNormalize_SameDayCollapses(t *testing.T) {
	morning := time.Date(2024, 3, 10, 8, 30, 12, 500, time.UTC)
	evening := time.Date(2024, 3, 10, 23, 59, 59, 0, time.UTC)

	if !Normalize(morning).Equal(Normalize(evening)) {
		t.Errorf("timestamps on the same UTC date must normalize equal: %v vs %v",
			Normalize(morning), Normalize(evening))
	}

	want := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	if got := Normalize(morning); !got.Equal(want) {
		t.Errorf("Normalize = %v, want %v", got, want)
	}
}

func TestNormalize_NonUTCInput(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	// 03:00 IST on March 11 is still March 10 in UTC.
	ts := time.Date(2024, 3, 11, 3, 0, 0, 0, loc)

	want := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	if got := Normalize(ts); !got.Equal(want) {
		t.Errorf("Normalize = %v, want %v", got, want)
	}
}

func TestPreviousDay_CrossesBoundaries(t *testing.T) {
	cases := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"mid month", time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)},
		{"month boundary", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{"year boundary", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		if got := PreviousDay(tc.in); !got.Equal(tc.want) {
			t.Errorf("%s: PreviousDay(%v) = %v, want %v", tc.name, tc.in, got, tc.want)
		}
	}
}

func TestStartOfMonth(t *testing.T) {
	ts := time.Date(2024, 3, 17, 14, 0, 0, 0, time.UTC)
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	if got := StartOfMonth(ts); !got.Equal(want) {
		t.Errorf("StartOfMonth = %v, want %v", got, want)
	}
}

func TestDaysElapsedInMonth(t *testing.T) {
	if got := DaysElapsedInMonth(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)); got != 1 {
		t.Errorf("first of month = %d, want 1", got)
	}
	if got := DaysElapsedInMonth(time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC)); got != 17 {
		t.Errorf("17th = %d, want 17", got)
	}
}

func TestParseDay_RoundTrip(t *testing.T) {
	day, err := ParseDay("2024-03-05")
	if err != nil {
		t.Fatalf("ParseDay: %v", err)
	}
	if got := FormatDay(day); got != "2024-03-05" {
		t.Errorf("FormatDay = %q, want %q", got, "2024-03-05")
	}
	if !day.Equal(Normalize(day)) {
		t.Error("parsed day must already be normalized")
	}

	if _, err := ParseDay("05-03-2024"); err == nil {
		t.Error("expected error for non-ISO date")
	}
}

func TestSameDay(t *testing.T) {
	a := time.Date(2024, 3, 10, 1, 0, 0, 0, time.UTC)
	b := time.Date(2024, 3, 10, 22, 0, 0, 0, time.UTC)
	c := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	if !SameDay(a, b) {
		t.Error("same UTC date must compare equal")
	}
	if SameDay(a, c) {
		t.Error("different dates must not compare equal")
	}
}
