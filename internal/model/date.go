package model

import (
	"fmt"
	"time"
)

// Date is a calendar date expressed as whole days since the Unix epoch (UTC).
// Integer arithmetic keeps range math cheap and unambiguous across timezones.
type Date int

const dateLayout = "2006-01-02"

// DateOf truncates t to its UTC calendar date.
func DateOf(t time.Time) Date {
	t = t.UTC()
	return Date(t.Unix() / 86400)
}

// NewDate builds a Date from year/month/day.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return 0, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Unix(int64(d)*86400, 0).UTC()
}

// Add returns the date shifted by n calendar days.
func (d Date) Add(n int) Date { return d + Date(n) }

// Weekday returns the day of week.
func (d Date) Weekday() time.Weekday { return d.Time().Weekday() }

func (d Date) String() string { return d.Time().Format(dateLayout) }

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	Start Date
	End   Date
}

// Valid reports whether the range contains at least one day.
func (r DateRange) Valid() bool { return r.Start <= r.End }

// Days returns the number of calendar days in the range.
func (r DateRange) Days() int {
	if !r.Valid() {
		return 0
	}
	return int(r.End-r.Start) + 1
}

// Contains reports whether d falls inside the range.
func (r DateRange) Contains(d Date) bool { return d >= r.Start && d <= r.End }

// Intersect returns the overlap of two ranges. The result is invalid when the
// ranges are disjoint.
func (r DateRange) Intersect(o DateRange) DateRange {
	out := DateRange{Start: r.Start, End: r.End}
	if o.Start > out.Start {
		out.Start = o.Start
	}
	if o.End < out.End {
		out.End = o.End
	}
	return out
}

func (r DateRange) String() string {
	return r.Start.String() + ".." + r.End.String()
}
