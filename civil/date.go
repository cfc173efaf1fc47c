// Package civil provides a calendar-date primitive used throughout the
// ledger pipeline. Dates never carry a time-of-day or timezone component;
// they are compared and formatted purely as YYYY-MM-DD.
package civil

import (
	"fmt"
	"time"
)

const layout = "2006-01-02"

// Date represents a calendar date in ISO 8601 format (YYYY-MM-DD).
type Date struct {
	t time.Time
}

// Parse parses a YYYY-MM-DD string into a Date.
func Parse(s string) (Date, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

// MustParse parses s, panicking on error. Intended for tests and literals.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// New constructs a Date from calendar components.
func New(year, month, day int) Date {
	return Date{t: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(layout)
}

// IsZero reports whether d is the zero value.
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// Before reports whether d is strictly before o.
func (d Date) Before(o Date) bool {
	return d.t.Before(o.t)
}

// After reports whether d is strictly after o.
func (d Date) After(o Date) bool {
	return d.t.After(o.t)
}

// Equal reports whether d and o denote the same calendar date.
func (d Date) Equal(o Date) bool {
	return d.t.Equal(o.t)
}

// Compare returns -1, 0, or 1 if d is before, equal to, or after o.
func (d Date) Compare(o Date) int {
	switch {
	case d.t.Before(o.t):
		return -1
	case d.t.After(o.t):
		return 1
	default:
		return 0
	}
}
