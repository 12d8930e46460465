// Package duration formats, clamps and parses the millisecond durations used
// by the timer and the journal.
package duration

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	MinTimerMs          int64 = 0
	MaxTimerMs          int64 = 99 * int64(time.Hour/time.Millisecond)
	DefaultTimerMinutes       = 25

	msPerSecond = int64(time.Second / time.Millisecond)
	msPerMinute = int64(time.Minute / time.Millisecond)
	msPerHour   = int64(time.Hour / time.Millisecond)
)

// Segment is one editable field of an HH:MM:SS display.
type Segment struct {
	ID     string
	StepMs int64
}

var Segments = []Segment{
	{ID: "hours", StepMs: msPerHour},
	{ID: "minutes", StepMs: msPerMinute},
	{ID: "seconds", StepMs: msPerSecond},
}

// DefaultSegment is the index into Segments focused when editing starts.
const DefaultSegment = 1

// ErrInvalidInput is wrapped by every ParseError.
var ErrInvalidInput = errors.New("invalid timer input")

// ParseError reports text that does not describe a usable duration.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse timer input %q: %s", e.Input, e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrInvalidInput }

// Format renders ms as HH:MM:SS, flooring to whole seconds. The hours field
// is not capped, so 100 hours renders as "100:00:00".
func Format(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	totalSeconds := ms / msPerSecond
	h := totalSeconds / 3600
	m := (totalSeconds % 3600) / 60
	s := totalSeconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Clamp forces value into [min, max]. Non-finite values yield min.
func Clamp(value float64, min, max int64) int64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return min
	}
	if value <= float64(min) {
		return min
	}
	if value >= float64(max) {
		return max
	}
	return int64(math.Round(value))
}

// ClampMs is Clamp for values that are already integer milliseconds.
func ClampMs(value, min, max int64) int64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// MinutesToMs converts a (possibly fractional) minute count to milliseconds.
func MinutesToMs(minutes float64) int64 {
	return int64(math.Round(minutes * float64(msPerMinute)))
}

// ParseTimerInput accepts bare minutes ("25", "1,5", "0.5"), "mm:ss" or
// "hh:mm:ss" and returns the duration in milliseconds. The result is always
// strictly positive.
func ParseTimerInput(text string) (int64, error) {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return 0, &ParseError{Input: text, Reason: "empty"}
	}

	if !strings.Contains(raw, ":") {
		return parseMinutes(text, raw)
	}

	parts := strings.Split(raw, ":")
	values := make([]int64, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" || !isDigits(part) {
			return 0, &ParseError{Input: text, Reason: "segments must be numeric"}
		}
		v, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return 0, &ParseError{Input: text, Reason: "segment out of range"}
		}
		values[i] = v
	}

	var hours, minutes, seconds int64
	switch len(values) {
	case 2:
		minutes, seconds = values[0], values[1]
	case 3:
		hours, minutes, seconds = values[0], values[1], values[2]
	default:
		return 0, &ParseError{Input: text, Reason: "expected mm:ss or hh:mm:ss"}
	}

	if minutes > 59 || seconds > 59 {
		return 0, &ParseError{Input: text, Reason: "minutes and seconds must be at most 59"}
	}
	if hours > math.MaxInt64/msPerHour-1 {
		return 0, &ParseError{Input: text, Reason: "hours out of range"}
	}

	total := ((hours*60+minutes)*60 + seconds) * msPerSecond
	if total <= 0 {
		return 0, &ParseError{Input: text, Reason: "duration must be positive"}
	}
	return total, nil
}

func parseMinutes(text, raw string) (int64, error) {
	minutes, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
	if err != nil || math.IsNaN(minutes) || math.IsInf(minutes, 0) {
		return 0, &ParseError{Input: text, Reason: "not a number"}
	}
	if minutes <= 0 {
		return 0, &ParseError{Input: text, Reason: "minutes must be positive"}
	}
	ms := minutes * float64(msPerMinute)
	if ms >= math.MaxInt64 {
		return 0, &ParseError{Input: text, Reason: "minutes out of range"}
	}
	rounded := int64(math.Round(ms))
	if rounded <= 0 {
		return 0, &ParseError{Input: text, Reason: "duration must be positive"}
	}
	return rounded, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
