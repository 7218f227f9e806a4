package core

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// CoerceAmount turns a decoded JSON value into an amount. Numbers are taken
// as-is and numeric strings are parsed after trimming, so "12.50" and 12.5
// are equivalent. Anything non-finite is rejected.
//
// Examples:
//
//	CoerceAmount(12.5)     -> 12.5, true
//	CoerceAmount(" 40 ")   -> 40, true
//	CoerceAmount("abc")    -> 0, false
//	CoerceAmount(true)     -> 0, false
func CoerceAmount(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// FormatAmount renders an amount with two decimals, e.g. 1400 -> "1400.00".
func FormatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// FormatPlain renders a number the shortest way that round-trips, so 1850
// stays "1850" and 12.5 stays "12.5".
func FormatPlain(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
