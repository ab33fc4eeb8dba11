// Package numeric converts loosely-typed JSON values into numbers. A missing or
// unparsable value yields no number; a legitimate zero is always preserved.
package numeric

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

var currencyCodes = []string{"GBP", "USD", "EUR", "INR"}

var stripper = strings.NewReplacer(
	",", "",
	" ", "",
	"_", "",
	"\u00a0", "",
	"£", "",
	"$", "",
	"€", "",
	"₹", "",
	"¥", "",
)

// Coerce parses v as a number. The boolean is false for nil, blank, non-numeric
// or non-finite input.
func Coerce(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int8:
		f = float64(t)
	case int16:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint:
		f = float64(t)
	case uint8:
		f = float64(t)
	case uint16:
		f = float64(t)
	case uint32:
		f = float64(t)
	case uint64:
		f = float64(t)
	case json.Number:
		return parseString(t.String())
	case string:
		return parseString(t)
	case *float64:
		if t == nil {
			return 0, false
		}
		f = *t
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Ptr is Coerce returning nil for "no value".
func Ptr(v any) *float64 {
	f, ok := Coerce(v)
	if !ok {
		return nil
	}
	return &f
}

// parseString accepts thousands separators, currency symbols and codes in any
// position, accounting parentheses "(1,234.50)", a leading or trailing minus
// "80.00-" and a trailing percent sign. Negative markers do not cancel out:
// "-(80)" is -80.
func parseString(raw string) (float64, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	for _, code := range currencyCodes {
		s = strings.ReplaceAll(s, code, "")
	}
	s = stripper.Replace(s)

	negative := false
	for {
		switch {
		case strings.HasSuffix(s, "%"):
			s = s[:len(s)-1]
		case strings.HasPrefix(s, "-"):
			negative = true
			s = s[1:]
		case strings.HasSuffix(s, "-"):
			negative = true
			s = s[:len(s)-1]
		case len(s) >= 2 && strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")"):
			negative = true
			s = s[1 : len(s)-1]
		default:
			return parseMagnitude(s, negative)
		}
	}
}

func parseMagnitude(s string, negative bool) (float64, bool) {
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if negative {
		f = -f
	}
	// Normalize -0 so "(0)" compares equal to 0.
	if f == 0 {
		f = 0
	}
	return f, true
}
