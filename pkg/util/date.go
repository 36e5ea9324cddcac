package util

import (
    "strconv"
    "time"
)

// DateLayout is the calendar-day format used across price and output files.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar day. Returns (t, true) if it parsed.
func ParseDate(s string) (time.Time, bool) {
    if s == "" {
        return time.Time{}, false
    }
    if t, err := time.Parse(DateLayout, s); err == nil {
        return t, true
    }
    // Some providers ship full timestamps; accept and keep the day.
    if t, err := time.Parse(time.RFC3339, s); err == nil {
        return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
    }
    return time.Time{}, false
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
    return t.Format(DateLayout)
}

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
    if s == "" {
        return time.Time{}, false
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
