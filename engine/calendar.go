package engine

import (
	"encoding/json"
	"fmt"
	"time"
)

// =============================================================================
// DAY - Calendar day normalized to UTC midnight
// =============================================================================

// Day is a calendar day. All arithmetic is UTC-normalized so that stepping
// across month and DST boundaries never skips or duplicates a day.
type Day struct {
	Time time.Time
}

const dayLayout = "2006-01-02"

func NewDay(year int, month time.Month, day int) Day {
	return Day{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DayOf truncates any instant to its UTC calendar day.
func DayOf(t time.Time) Day {
	u := t.UTC()
	return NewDay(u.Year(), u.Month(), u.Day())
}

func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return Day{}, fmt.Errorf("invalid day %q: expected YYYY-MM-DD", s)
	}
	return DayOf(t), nil
}

func Today() Day { return DayOf(time.Now()) }

// Comparison
func (d Day) Before(other Day) bool        { return d.normalize().Before(other.normalize()) }
func (d Day) Equal(other Day) bool         { return d.normalize().Equal(other.normalize()) }
func (d Day) After(other Day) bool         { return d.normalize().After(other.normalize()) }
func (d Day) BeforeOrEqual(other Day) bool { return d.Before(other) || d.Equal(other) }
func (d Day) AfterOrEqual(other Day) bool  { return d.After(other) || d.Equal(other) }

func (d Day) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (d Day) AddDays(n int) Day { return Day{Time: d.normalize().AddDate(0, 0, n)} }

// Properties
func (d Day) Year() int         { return d.Time.Year() }
func (d Day) Month() time.Month { return d.Time.Month() }
func (d Day) DayOfMonth() int   { return d.Time.Day() }
func (d Day) IsZero() bool      { return d.Time.IsZero() }

func (d Day) String() string { return d.normalize().Format(dayLayout) }

func (d Day) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Day) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	day, err := ParseDay(s)
	if err != nil {
		return err
	}
	*d = day
	return nil
}

// =============================================================================
// MONTH - Calendar month key (YYYY-MM)
// =============================================================================

// Month identifies a calendar month. It is the scoping key for aggregation,
// payroll summaries, and allocation markers.
type Month struct {
	Year int
	Mon  time.Month
}

const monthLayout = "2006-01"

func NewMonth(year int, mon time.Month) Month { return Month{Year: year, Mon: mon} }

func MonthOf(d Day) Month { return Month{Year: d.Year(), Mon: d.Month()} }

func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(monthLayout, s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q: expected YYYY-MM", s)
	}
	return Month{Year: t.Year(), Mon: t.Month()}, nil
}

func (m Month) String() string {
	return time.Date(m.Year, m.Mon, 1, 0, 0, 0, 0, time.UTC).Format(monthLayout)
}

// Days returns the number of calendar days in the month.
func (m Month) Days() int {
	return m.Last().DayOfMonth()
}

func (m Month) First() Day { return NewDay(m.Year, m.Mon, 1) }

func (m Month) Last() Day {
	t := time.Date(m.Year, m.Mon+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	return DayOf(t)
}

func (m Month) Contains(d Day) bool {
	return d.Year() == m.Year && d.Month() == m.Mon
}

func (m Month) Range() DateRange {
	return DateRange{Start: m.First(), End: m.Last()}
}

func (m Month) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Month) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	mon, err := ParseMonth(s)
	if err != nil {
		return err
	}
	*m = mon
	return nil
}

// =============================================================================
// DATE RANGE - Inclusive [Start, End], calendar-day stepped
// =============================================================================

// DateRange is an inclusive span of calendar days. Leave applications and
// their cascading attendance deletes expand through it.
type DateRange struct {
	Start Day
	End   Day
}

// Validate rejects inverted ranges before any write occurs.
func (r DateRange) Validate() error {
	if r.End.Before(r.Start) {
		return &InvalidRangeError{Start: r.Start, End: r.End}
	}
	return nil
}

func (r DateRange) Contains(d Day) bool {
	return d.AfterOrEqual(r.Start) && d.BeforeOrEqual(r.End)
}

// Days enumerates every day in the range, inclusive on both ends.
func (r DateRange) Days() []Day {
	var days []Day
	for cur := r.Start; cur.BeforeOrEqual(r.End); cur = cur.AddDays(1) {
		days = append(days, cur)
	}
	return days
}

func (r DateRange) String() string {
	return "[" + r.Start.String() + ", " + r.End.String() + "]"
}
