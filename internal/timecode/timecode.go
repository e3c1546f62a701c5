// Package timecode converts between clock strings, seconds, and SMPTE-style
// HH:MM:SS:FF timecodes used in edit decision lists.
package timecode

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidTimestamp is returned for empty, malformed, or negative input.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// DefaultFPS is used when a non-positive frame rate is supplied.
const DefaultFPS = 25

// ParseSeconds accepts MM:SS, HH:MM:SS (the last field may be fractional),
// or a bare number of seconds.
func ParseSeconds(text string) (float64, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidTimestamp)
	}

	parts := strings.Split(trimmed, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q has too many fields", ErrInvalidTimestamp, text)
	}

	var total float64
	for i, part := range parts {
		last := i == len(parts)-1
		value, err := parseField(part, last)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %v", ErrInvalidTimestamp, text, err)
		}
		if len(parts) > 1 && i > 0 && value >= 60 {
			return 0, fmt.Errorf("%w: %q field %d out of range", ErrInvalidTimestamp, text, i+1)
		}
		total = total*60 + value
	}
	return total, nil
}

func parseField(part string, allowFraction bool) (float64, error) {
	part = strings.TrimSpace(part)
	if part == "" {
		return 0, errors.New("empty field")
	}
	if !allowFraction && strings.Contains(part, ".") {
		return 0, errors.New("fraction only allowed in seconds")
	}
	value, err := strconv.ParseFloat(part, 64)
	if err != nil {
		return 0, errors.New("not a number")
	}
	if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, errors.New("negative or non-finite")
	}
	return value, nil
}

// FormatClock renders MM:SS, or HH:MM:SS for values of an hour or more.
// Fractions are truncated.
func FormatClock(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	whole := int64(seconds)
	h := whole / 3600
	m := (whole % 3600) / 60
	s := whole % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// SecondsToTimecode renders HH:MM:SS:FF after offsetting by baseHours.
// Frames are the floor of the fractional second times fps.
func SecondsToTimecode(seconds float64, fps, baseHours int) string {
	if fps <= 0 {
		fps = DefaultFPS
	}
	if seconds < 0 {
		seconds = 0
	}
	whole := math.Floor(seconds)
	frames := int(math.Floor((seconds - whole) * float64(fps)))
	if frames >= fps {
		frames = fps - 1
	}
	total := int64(whole) + int64(baseHours)*3600
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", h, m, s, frames)
}

// TimecodeToSeconds parses HH:MM:SS:FF and removes the baseHours offset.
func TimecodeToSeconds(tc string, fps, baseHours int) (float64, error) {
	if fps <= 0 {
		fps = DefaultFPS
	}
	parts := strings.Split(strings.TrimSpace(tc), ":")
	if len(parts) != 4 {
		return 0, fmt.Errorf("%w: timecode %q must be HH:MM:SS:FF", ErrInvalidTimestamp, tc)
	}
	var fields [4]int
	for i, part := range parts {
		value, err := strconv.Atoi(part)
		if err != nil || value < 0 {
			return 0, fmt.Errorf("%w: timecode %q field %d", ErrInvalidTimestamp, tc, i+1)
		}
		fields[i] = value
	}
	if fields[1] >= 60 || fields[2] >= 60 || fields[3] >= fps {
		return 0, fmt.Errorf("%w: timecode %q out of range", ErrInvalidTimestamp, tc)
	}
	total := float64((fields[0]-baseHours)*3600 + fields[1]*60 + fields[2])
	if total < 0 {
		return 0, fmt.Errorf("%w: timecode %q precedes base hour %d", ErrInvalidTimestamp, tc, baseHours)
	}
	return total + float64(fields[3])/float64(fps), nil
}
