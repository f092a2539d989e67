package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

const periodLayout = "2006-01"

// Period is an accounting month, rendered as YYYY-MM. The zero value means "no period"
// and is rejected wherever a period is required.
type Period struct {
	Year  int
	Month time.Month
}

// NewPeriod builds a period, normalizing month overflow (month 13 is January next year).
func NewPeriod(year int, month time.Month) Period {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Period{Year: t.Year(), Month: t.Month()}
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// ParsePeriod parses a YYYY-MM month key.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse(periodLayout, s)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period %q: expected YYYY-MM", s)
	}
	return PeriodOf(t), nil
}

// MustParsePeriod is ParsePeriod for constants and tests.
func MustParsePeriod(s string) Period {
	p, err := ParsePeriod(s)
	if err != nil {
		panic(err)
	}
	return p
}

// IsZero reports whether p is unset.
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

func (p Period) String() string {
	if p.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Start returns midnight UTC on the first day of the period.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the last instant of the period.
func (p Period) End() time.Time {
	return p.Next().Start().Add(-time.Nanosecond)
}

// AnchorDate returns the given day of the period, clamped to the period's last day.
func (p Period) AnchorDate(day int) time.Time {
	if day < 1 {
		day = 1
	}
	last := p.Next().Start().AddDate(0, 0, -1).Day()
	if day > last {
		day = last
	}
	return time.Date(p.Year, p.Month, day, 0, 0, 0, 0, time.UTC)
}

// Next returns the following period.
func (p Period) Next() Period {
	return NewPeriod(p.Year, p.Month+1)
}

// Prev returns the preceding period.
func (p Period) Prev() Period {
	return NewPeriod(p.Year, p.Month-1)
}

// Compare returns -1, 0 or 1 as p is before, equal to or after o.
func (p Period) Compare(o Period) int {
	switch {
	case p.Year < o.Year:
		return -1
	case p.Year > o.Year:
		return 1
	case p.Month < o.Month:
		return -1
	case p.Month > o.Month:
		return 1
	}
	return 0
}

// Before reports whether p is strictly before o.
func (p Period) Before(o Period) bool { return p.Compare(o) < 0 }

// After reports whether p is strictly after o.
func (p Period) After(o Period) bool { return p.Compare(o) > 0 }

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	return PeriodOf(t) == p
}

// PeriodsBetween lists every period from first to last inclusive, ascending.
func PeriodsBetween(first, last Period) []Period {
	var out []Period
	for p := first; !p.After(last); p = p.Next() {
		out = append(out, p)
	}
	return out
}

// MarshalJSON encodes the period as its YYYY-MM string, or null when unset.
func (p Period) MarshalJSON() ([]byte, error) {
	if p.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(p.String())
}

// UnmarshalJSON accepts a YYYY-MM string or null.
func (p *Period) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = Period{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*p = Period{}
		return nil
	}
	parsed, err := ParsePeriod(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
