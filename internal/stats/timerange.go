package stats

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeRange represents a start and end time period. End is exclusive.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the range. A zero range
// contains everything.
func (tr TimeRange) Contains(t time.Time) bool {
	if tr.Start.IsZero() && tr.End.IsZero() {
		return true
	}
	return !t.Before(tr.Start) && t.Before(tr.End)
}

// FormatPeriod returns a human-readable description of the time period.
func (tr TimeRange) FormatPeriod() string {
	if tr.Start.IsZero() && tr.End.IsZero() {
		return "all time"
	}
	start := tr.Start.Format("2006-01-02")
	end := tr.End.AddDate(0, 0, -1).Format("2006-01-02") // End is exclusive
	return fmt.Sprintf("%s to %s", start, end)
}

// ParsePeriod parses a lookback period such as "7d", "8w", "3m" or
// "all" into a time range ending at the reference time. "all" yields the
// zero range, which Contains treats as unbounded.
func ParsePeriod(s string, now time.Time) (TimeRange, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "all" {
		return TimeRange{}, nil
	}
	if len(s) < 2 {
		return TimeRange{}, fmt.Errorf("invalid period %q", s)
	}

	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n <= 0 {
		return TimeRange{}, fmt.Errorf("invalid period %q", s)
	}

	end := now
	var start time.Time
	switch s[len(s)-1] {
	case 'd':
		start = end.AddDate(0, 0, -n)
	case 'w':
		start = end.AddDate(0, 0, -7*n)
	case 'm':
		start = end.AddDate(0, -n, 0)
	default:
		return TimeRange{}, fmt.Errorf("invalid period %q: unit must be d, w or m", s)
	}

	return TimeRange{Start: start, End: end}, nil
}
