package engine_test

import (
	"testing"
	"time"

	"github.com/facultyops/attendance-engine/engine"
)

func TestParseDay_RoundTrip(t *testing.T) {
	d, err := engine.ParseDay("2025-03-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2025-03-10" {
		t.Errorf("expected 2025-03-10, got %s", d)
	}
}

func TestParseDay_Invalid(t *testing.T) {
	for _, s := range []string{"", "2025-3-1", "10/03/2025", "2025-13-01"} {
		if _, err := engine.ParseDay(s); err == nil {
			t.Errorf("expected error for %q", s)
		}
	}
}

func TestDayOf_NormalizesToUTC(t *testing.T) {
	// GIVEN: An instant late in the evening in a non-UTC zone
	// WHEN: Truncating to a calendar day
	// THEN: The UTC day is used, regardless of the source zone
	loc := time.FixedZone("UTC+5", 5*3600)
	d := engine.DayOf(time.Date(2025, time.March, 10, 2, 30, 0, 0, loc))
	if d.String() != "2025-03-09" {
		t.Errorf("expected 2025-03-09, got %s", d)
	}
}

func TestMonth_Days(t *testing.T) {
	cases := []struct {
		month string
		days  int
	}{
		{"2025-01", 31},
		{"2025-02", 28},
		{"2024-02", 29}, // leap year
		{"2025-04", 30},
		{"2025-12", 31},
	}
	for _, c := range cases {
		m, err := engine.ParseMonth(c.month)
		if err != nil {
			t.Fatalf("parse %s: %v", c.month, err)
		}
		if got := m.Days(); got != c.days {
			t.Errorf("%s: expected %d days, got %d", c.month, c.days, got)
		}
	}
}

func TestMonth_Contains(t *testing.T) {
	m := engine.NewMonth(2025, time.February)
	if !m.Contains(engine.NewDay(2025, time.February, 28)) {
		t.Error("expected Feb 28 in 2025-02")
	}
	if m.Contains(engine.NewDay(2025, time.March, 1)) {
		t.Error("did not expect Mar 1 in 2025-02")
	}
}

func TestDateRange_Days_CrossesMonthBoundary(t *testing.T) {
	// Stepping Jan 30 -> Feb 2 must yield exactly 4 days with no skip
	// or duplicate at the month edge.
	r := engine.DateRange{
		Start: engine.NewDay(2025, time.January, 30),
		End:   engine.NewDay(2025, time.February, 2),
	}
	days := r.Days()
	if len(days) != 4 {
		t.Fatalf("expected 4 days, got %d", len(days))
	}
	want := []string{"2025-01-30", "2025-01-31", "2025-02-01", "2025-02-02"}
	for i, d := range days {
		if d.String() != want[i] {
			t.Errorf("day %d: expected %s, got %s", i, want[i], d)
		}
	}
}

func TestDateRange_Days_CrossesYearBoundary(t *testing.T) {
	r := engine.DateRange{
		Start: engine.NewDay(2024, time.December, 31),
		End:   engine.NewDay(2025, time.January, 1),
	}
	if len(r.Days()) != 2 {
		t.Fatalf("expected 2 days, got %d", len(r.Days()))
	}
}

func TestDateRange_Validate_Inverted(t *testing.T) {
	r := engine.DateRange{
		Start: engine.NewDay(2025, time.March, 10),
		End:   engine.NewDay(2025, time.March, 9),
	}
	err := r.Validate()
	if err == nil {
		t.Fatal("expected error for inverted range")
	}
	if !engine.IsClientError(err) {
		t.Errorf("expected client error classification, got %v", err)
	}
}

func TestDateRange_SingleDay(t *testing.T) {
	d := engine.NewDay(2025, time.March, 10)
	r := engine.DateRange{Start: d, End: d}
	if err := r.Validate(); err != nil {
		t.Fatalf("single-day range must be valid: %v", err)
	}
	if len(r.Days()) != 1 {
		t.Errorf("expected 1 day, got %d", len(r.Days()))
	}
}
