package util

import (
    "strconv"
    "strings"
)

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int {
    if s == "" {
        return def
    }
    v, err := strconv.Atoi(s)
    if err != nil {
        return def
    }
    return v
}

// SafeTicker converts a provider ticker into a filesystem-safe name:
// dots become underscores and index carets are stripped ("BN.PA" -> "BN_PA").
func SafeTicker(ticker string) string {
    s := strings.ReplaceAll(ticker, ".", "_")
    return strings.ReplaceAll(s, "^", "")
}

// ParseFloat coerces a JSON value (number or numeric string) to float64.
// Returns (0, false) for anything non-numeric.
func ParseFloat(v interface{}) (float64, bool) {
    switch x := v.(type) {
    case float64:
        return x, true
    case float32:
        return float64(x), true
    case int:
        return float64(x), true
    case int64:
        return float64(x), true
    case string:
        f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
        if err != nil {
            return 0, false
        }
        return f, true
    default:
        return 0, false
    }
}
