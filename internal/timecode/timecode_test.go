package timecode_test

import (
	"errors"
	"testing"

	"ghearing/internal/timecode"
)

func TestParseSeconds(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"01:15", 75},
		{"00:00", 0},
		{"1:02:03", 3723},
		{"75", 75},
		{"75.5", 75.5},
		{"02:03.25", 123.25},
		{" 10:00 ", 600},
	}
	for _, tc := range tests {
		got, err := timecode.ParseSeconds(tc.in)
		if err != nil {
			t.Fatalf("ParseSeconds(%q) failed: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseSeconds(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseSecondsRejectsInvalid(t *testing.T) {
	for _, in := range []string{"", "abc", "-5", "01:-02", "1:2:3:4", "01:75", "1.5:00", "::"} {
		if _, err := timecode.ParseSeconds(in); !errors.Is(err, timecode.ErrInvalidTimestamp) {
			t.Fatalf("ParseSeconds(%q) expected ErrInvalidTimestamp, got %v", in, err)
		}
	}
}

func TestFormatClock(t *testing.T) {
	if got := timecode.FormatClock(75); got != "01:15" {
		t.Fatalf("FormatClock(75) = %q", got)
	}
	if got := timecode.FormatClock(3723.9); got != "01:02:03" {
		t.Fatalf("FormatClock(3723.9) = %q", got)
	}
}

func TestSecondsToTimecode(t *testing.T) {
	tests := []struct {
		seconds   float64
		fps, base int
		want      string
	}{
		{75, 25, 1, "01:01:15:00"},
		{0, 25, 1, "01:00:00:00"},
		{75.5, 25, 1, "01:01:15:12"},
		{3600, 25, 0, "01:00:00:00"},
		{10, 0, 0, "00:00:10:00"},
		{59.999, 30, 0, "00:00:59:29"},
	}
	for _, tc := range tests {
		if got := timecode.SecondsToTimecode(tc.seconds, tc.fps, tc.base); got != tc.want {
			t.Fatalf("SecondsToTimecode(%v, %d, %d) = %q, want %q", tc.seconds, tc.fps, tc.base, got, tc.want)
		}
	}
}

func TestTimecodeRoundTrip(t *testing.T) {
	for _, clock := range []string{"00:00", "01:15", "59:59", "1:00:00", "2:30:45", "10:00:01"} {
		seconds, err := timecode.ParseSeconds(clock)
		if err != nil {
			t.Fatalf("ParseSeconds(%q) failed: %v", clock, err)
		}
		tc := timecode.SecondsToTimecode(seconds, 25, 1)
		back, err := timecode.TimecodeToSeconds(tc, 25, 1)
		if err != nil {
			t.Fatalf("TimecodeToSeconds(%q) failed: %v", tc, err)
		}
		if back != seconds {
			t.Fatalf("round trip %q -> %q -> %v, want %v", clock, tc, back, seconds)
		}
	}
}

func TestTimecodeToSecondsRejectsInvalid(t *testing.T) {
	for _, in := range []string{"01:00:00", "01:00:00:25", "aa:00:00:00", "00:00:00:00"} {
		if _, err := timecode.TimecodeToSeconds(in, 25, 1); !errors.Is(err, timecode.ErrInvalidTimestamp) {
			t.Fatalf("TimecodeToSeconds(%q) expected ErrInvalidTimestamp, got %v", in, err)
		}
	}
}
