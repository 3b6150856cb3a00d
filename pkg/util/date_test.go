package util

import (
    "strconv"
    "testing"
    "time"
)

func TestParseTimeRFC3339(t *testing.T) {
    s := "2024-10-10T10:10:10Z"
    got, ok := ParseTime(s)
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.UTC().Format(time.RFC3339) != s {
        t.Fatalf("unexpected time %v", got)
    }
}

func TestParseTimeUnixMillis(t *testing.T) {
    ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).UnixMilli()
    got, ok := ParseTime(strconv.FormatInt(ts, 10))
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.UnixMilli() != ts {
        t.Fatalf("unexpected millis %v", got.UnixMilli())
    }
}

func TestParseTimeDefault(t *testing.T) {
    def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
    got := ParseTimeDefault("", def)
    if !got.Equal(def) {
        t.Fatalf("expected default")
    }
}

func TestTruncateHour(t *testing.T) {
    in := time.Date(2025, 1, 2, 10, 38, 12, 500, time.UTC)
    got := TruncateHour(in)
    want := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
    if !got.Equal(want) {
        t.Fatalf("got %v want %v", got, want)
    }
}

func TestDayBounds(t *testing.T) {
    in := time.Date(2025, 1, 2, 10, 38, 0, 0, time.UTC)
    start, end := DayBounds(in)
    if start != time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC).UnixMilli() {
        t.Fatalf("unexpected start %d", start)
    }
    if end-start != 24*HourMs {
        t.Fatalf("unexpected span %d", end-start)
    }
}

func TestHourOfDay(t *testing.T) {
    ms := time.Date(2025, 1, 2, 23, 0, 0, 0, time.UTC).UnixMilli()
    if h := HourOfDay(ms); h != 23 {
        t.Fatalf("got %d", h)
    }
}
