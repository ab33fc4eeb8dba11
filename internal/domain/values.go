package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Object returns v as a JSON object when it already is one, nil otherwise.
func Object(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case Envelope:
		return m
	case Analysis:
		return m
	}
	return nil
}

// Lookup walks a dotted path through nested JSON objects.
func Lookup(m map[string]any, path string) (any, bool) {
	var cur any = m
	for _, part := range strings.Split(path, ".") {
		obj := Object(cur)
		if obj == nil {
			return nil, false
		}
		v, ok := obj[part]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// Present reports whether v carries a value. nil and blank strings do not.
func Present(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	}
	return true
}

// Text renders a scalar JSON value as a trimmed string. Objects and arrays render empty.
func Text(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

// Clone returns a shallow copy of m.
func Clone(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
