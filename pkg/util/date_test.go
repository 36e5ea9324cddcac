package util

import (
    "strconv"
    "testing"
    "time"
)

func TestParseDate(t *testing.T) {
    got, ok := ParseDate("2024-10-10")
    if !ok {
        t.Fatalf("expected ok")
    }
    if FormatDate(got) != "2024-10-10" {
        t.Fatalf("unexpected date %v", got)
    }
}

func TestParseDateTimestamp(t *testing.T) {
    got, ok := ParseDate("2024-10-10T14:30:00Z")
    if !ok {
        t.Fatalf("expected ok")
    }
    if FormatDate(got) != "2024-10-10" {
        t.Fatalf("expected day truncation, got %v", got)
    }
}

func TestParseDateInvalid(t *testing.T) {
    if _, ok := ParseDate("not-a-date"); ok {
        t.Fatalf("expected failure")
    }
    if _, ok := ParseDate(""); ok {
        t.Fatalf("expected failure on empty")
    }
}

func TestParseTimeUnix(t *testing.T) {
    ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
    got, ok := ParseTime(strconv.FormatInt(ts, 10))
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.Unix() != ts {
        t.Fatalf("unexpected unix %v", got.Unix())
    }
}

func TestSafeTicker(t *testing.T) {
    cases := map[string]string{
        "AAPL":    "AAPL",
        "BN.PA":   "BN_PA",
        "^GSPC":   "GSPC",
        "NOVO-B.CO": "NOVO-B_CO",
    }
    for in, want := range cases {
        if got := SafeTicker(in); got != want {
            t.Fatalf("SafeTicker(%q) = %q, want %q", in, got, want)
        }
    }
}

func TestParseFloat(t *testing.T) {
    if v, ok := ParseFloat("12.5"); !ok || v != 12.5 {
        t.Fatalf("string coercion failed: %v %v", v, ok)
    }
    if v, ok := ParseFloat(3.0); !ok || v != 3.0 {
        t.Fatalf("float failed: %v %v", v, ok)
    }
    if _, ok := ParseFloat("n/a"); ok {
        t.Fatalf("expected failure for non-numeric")
    }
}
