package timeutil

import (
	"fmt"
	"strconv"
	"strings"
)

// EndOfDay is the number of minutes in a full day. A shift or business
// close time of "00:00" is encoded as this value.
const EndOfDay = 24 * 60

// ParseClock parses a wall-clock "HH:MM" string into minutes since midnight.
func ParseClock(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return 0, fmt.Errorf("invalid time format: %s", s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour: %w", err)
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute: %w", err)
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("time out of range: %s", s)
	}

	return hour*60 + minute, nil
}

// Clock formats minutes since midnight as zero-padded "HH:MM".
func Clock(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// NormalizeEnd resolves the end minute of a [start, end) window. An end of
// 0 means the window runs through midnight; an end at or before start is
// invalid input and is also treated as end of day to avoid a negative
// window. The same rule applies to business close and shift end times.
func NormalizeEnd(start, end int) int {
	if end == 0 || end <= start {
		return EndOfDay
	}
	return end
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && aEnd > bStart
}

// RoundDown snaps m down to the nearest multiple of step.
func RoundDown(m, step int) int {
	if step <= 0 {
		return m
	}
	return m - m%step
}
