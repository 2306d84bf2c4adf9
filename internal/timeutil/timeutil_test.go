package timeutil

import (
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		input    string
		expected int
		wantErr  bool
	}{
		{"00:00", 0, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{"10:06", 606, false},
		{"24:00", 0, true},
		{"9", 0, true},
		{"ab:cd", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseClock(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseClock(%q): expected error, got %d", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseClock(%q): unexpected error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("ParseClock(%q): expected %d, got %d", tt.input, tt.expected, got)
			}
		})
	}
}

func TestClock(t *testing.T) {
	tests := []struct {
		minutes  int
		expected string
	}{
		{0, "00:00"},
		{570, "09:30"},
		{1439, "23:59"},
		{600, "10:00"},
	}

	for _, tt := range tests {
		if got := Clock(tt.minutes); got != tt.expected {
			t.Errorf("Clock(%d): expected %q, got %q", tt.minutes, tt.expected, got)
		}
	}
}

func TestNormalizeEnd(t *testing.T) {
	tests := []struct {
		name       string
		start, end int
		expected   int
	}{
		{"midnight close", 1320, 0, EndOfDay},
		{"regular close", 540, 1080, 1080},
		{"end before start", 540, 480, EndOfDay},
		{"end equals start", 540, 540, EndOfDay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeEnd(tt.start, tt.end); got != tt.expected {
				t.Errorf("NormalizeEnd(%d, %d): expected %d, got %d", tt.start, tt.end, tt.expected, got)
			}
		})
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     int
		expected                       bool
	}{
		{"disjoint before", 540, 600, 600, 660, false},
		{"disjoint after", 660, 720, 600, 660, false},
		{"partial overlap", 570, 630, 600, 660, true},
		{"contained", 610, 620, 600, 660, true},
		{"identical", 600, 660, 600, 660, true},
		{"touching boundaries", 540, 600, 600, 660, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestRoundDown(t *testing.T) {
	tests := []struct {
		m, step, expected int
	}{
		{606, 30, 600},
		{600, 30, 600},
		{629, 30, 600},
		{606, 15, 600},
		{607, 5, 605},
		{606, 0, 606},
	}

	for _, tt := range tests {
		if got := RoundDown(tt.m, tt.step); got != tt.expected {
			t.Errorf("RoundDown(%d, %d): expected %d, got %d", tt.m, tt.step, tt.expected, got)
		}
	}
}

func TestConverterRoundTrip(t *testing.T) {
	conv, err := NewConverter("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("NewConverter: %v", err)
	}

	day, err := conv.ParseDate("2026-03-10")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}

	// 14:30 local is 17:30 UTC (UTC-3, no DST).
	instant := conv.At(day, 14*60+30)
	if instant.Hour() != 17 || instant.Minute() != 30 {
		t.Errorf("expected 17:30 UTC, got %s", instant.Format("15:04"))
	}

	if got := conv.MinuteOfDay(instant); got != 14*60+30 {
		t.Errorf("MinuteOfDay: expected %d, got %d", 14*60+30, got)
	}

	if !conv.SameDay(instant, day) {
		t.Error("instant should fall on the same business day")
	}

	// 2026-03-10 is a Tuesday.
	if got := conv.Weekday(day); got != int(time.Tuesday) {
		t.Errorf("Weekday: expected %d, got %d", int(time.Tuesday), got)
	}
}

func TestDayBounds(t *testing.T) {
	conv, err := NewConverter("")
	if err != nil {
		t.Fatalf("NewConverter: %v", err)
	}

	day, _ := conv.ParseDate("2026-03-10")
	from, to := conv.DayBounds(day)

	if to.Sub(from).Round(time.Hour) != 24*time.Hour {
		t.Errorf("expected 24h range, got %s", to.Sub(from))
	}
	if got := conv.MinuteOfDay(from); got != 0 {
		t.Errorf("range should start at local midnight, got minute %d", got)
	}
}
