package timeutil

import (
	"fmt"
	"time"
)

// DefaultTimezone is the business timezone used when none is configured.
const DefaultTimezone = "America/Sao_Paulo"

// Converter is the single crossing point between UTC instants and the
// business wall clock. Every local/UTC conversion in the application goes
// through one of these so the offset stays configurable rather than baked
// into arithmetic at call sites.
type Converter struct {
	loc *time.Location
}

// NewConverter loads the named timezone. An empty name selects
// DefaultTimezone.
func NewConverter(name string) (Converter, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return Converter{}, fmt.Errorf("load timezone %s: %w", name, err)
	}
	return Converter{loc: loc}, nil
}

// Location returns the business location.
func (c Converter) Location() *time.Location {
	return c.loc
}

// DayStart returns local midnight of the business day containing t.
func (c Converter) DayStart(t time.Time) time.Time {
	lt := t.In(c.loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, c.loc)
}

// At returns the UTC instant at the given minute of the business day.
func (c Converter) At(day time.Time, minutes int) time.Time {
	start := c.DayStart(day)
	return start.Add(time.Duration(minutes) * time.Minute).UTC()
}

// MinuteOfDay returns how many minutes into the business day t falls.
func (c Converter) MinuteOfDay(t time.Time) int {
	lt := t.In(c.loc)
	return lt.Hour()*60 + lt.Minute()
}

// Weekday returns the business-local day of week, 0-6 Sunday-based.
func (c Converter) Weekday(t time.Time) int {
	return int(t.In(c.loc).Weekday())
}

// SameDay reports whether a and b fall on the same business day.
func (c Converter) SameDay(a, b time.Time) bool {
	return c.DayStart(a).Equal(c.DayStart(b))
}

// DayBounds returns the UTC instants delimiting the business day as a
// half-open range [from, to).
func (c Converter) DayBounds(day time.Time) (from, to time.Time) {
	start := c.DayStart(day)
	return start.UTC(), start.Add(24 * time.Hour).UTC()
}

// FormatDate renders the business-local calendar date of t as YYYY-MM-DD.
func (c Converter) FormatDate(t time.Time) string {
	return t.In(c.loc).Format("2006-01-02")
}

// ParseDate parses a YYYY-MM-DD string as local midnight of that day.
func (c Converter) ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, c.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q; expected YYYY-MM-DD", s)
	}
	return t, nil
}
