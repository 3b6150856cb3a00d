package util

import (
    "strconv"
    "time"
)

const (
    // MinuteMs is one minute in epoch milliseconds.
    MinuteMs int64 = 60_000
    // HourMs is one hour in epoch milliseconds.
    HourMs int64 = 3_600_000
)

// ParseTime tries RFC3339, RFC3339Nano, and unix milliseconds. Returns (t, true) if any worked.
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
        return time.UnixMilli(ts).UTC(), true
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

// TruncateHour drops minutes, seconds, and sub-second precision.
func TruncateHour(t time.Time) time.Time {
    return t.UTC().Truncate(time.Hour)
}

// TruncateMinute drops seconds and sub-second precision.
func TruncateMinute(t time.Time) time.Time {
    return t.UTC().Truncate(time.Minute)
}

// DayBounds returns the UTC day of t as [start, end) epoch milliseconds.
func DayBounds(t time.Time) (int64, int64) {
    u := t.UTC()
    start := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
    return start.UnixMilli(), start.Add(24 * time.Hour).UnixMilli()
}

// DayString formats the UTC day of t as YYYYMMDD.
func DayString(t time.Time) string {
    return t.UTC().Format("20060102")
}

// HourOfDay returns the UTC hour (0-23) of an epoch-millisecond timestamp.
func HourOfDay(ms int64) int {
    return time.UnixMilli(ms).UTC().Hour()
}
