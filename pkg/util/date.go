package util

import (
    "strconv"
    "time"
)

// ParseTime tries calendar date, RFC3339, RFC3339Nano, and unix seconds.
// Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
    if s == "" {
        return time.Time{}, false
    }
    if t, err := time.ParseInLocation("2006-01-02", s, time.UTC); err == nil {
        return t, true
    }
    if t, err := time.Parse(time.RFC3339, s); err == nil {
        return t, true
    }
    if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
        return t, true
    }
    if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
        return time.Unix(ts, 0), true
    }
    return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
    if t, ok := ParseTime(s); ok {
        return t
    }
    return def
}

// AlignDayRange truncates the range to UTC calendar-day boundaries.
func AlignDayRange(from, to time.Time) (time.Time, time.Time) {
    day := func(t time.Time) time.Time {
        y, m, d := t.UTC().Date()
        return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
    }
    return day(from), day(to)
}

// No extra helpers here; use strconv where needed.
