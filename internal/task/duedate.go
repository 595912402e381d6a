package task

import (
	"strings"
	"time"
)

// NormalizeDueDate turns free-text due dates into concrete timestamps.
// Relative phrases resolve against now; date-only inputs are promoted to the
// end of that day. The heuristic is deliberately lossy: it has no locale or
// timezone awareness, and anything unparsable falls back to end of tomorrow.
func NormalizeDueDate(raw string, now time.Time) *time.Time {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return nil
	}

	switch {
	case s == "today" || s == "now":
		return endOfDay(now)
	case s == "tomorrow" || s == "tmr":
		return endOfDay(now.AddDate(0, 0, 1))
	case strings.Contains(s, "next week"):
		return endOfDay(now.AddDate(0, 0, 7))
	case strings.Contains(s, "next month"):
		return endOfDay(now.AddDate(0, 0, 30))
	}

	if strings.Contains(s, "t") {
		if t, err := time.Parse(time.RFC3339, strings.ToUpper(s)); err == nil {
			return &t
		}
		if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
			return &t
		}
	} else if t, err := time.Parse("2006-01-02", s); err == nil {
		return endOfDay(t)
	}

	// Unparsable input defaults to end of tomorrow.
	return endOfDay(now.AddDate(0, 0, 1))
}

func endOfDay(t time.Time) *time.Time {
	eod := time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
	return &eod
}
