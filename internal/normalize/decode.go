package normalize

import (
	"bytes"
	"encoding/json"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"

	"docwatch/internal/domain"
)

// AsObject coerces an object-or-JSON-string value into a JSON object.
// Strings are trimmed and unwrapped from markdown code fences before decoding;
// object-looking strings that fail strict decoding get one repair attempt.
// Anything that does not end up as an object yields nil.
func AsObject(v any) map[string]any {
	switch t := v.(type) {
	case nil:
		return nil
	case map[string]any:
		return t
	case domain.Analysis:
		return t
	case domain.Envelope:
		return t
	case json.RawMessage:
		return decodeObject(string(t))
	case []byte:
		return decodeObject(string(t))
	case string:
		return decodeObject(t)
	}
	return nil
}

func decodeObject(raw string) map[string]any {
	s := stripCodeFence(strings.TrimSpace(raw))
	if s == "" || !strings.Contains(s, "{") {
		return nil
	}
	if obj, ok := strictObject(s); ok {
		return obj
	}
	if !strings.HasPrefix(s, "{") {
		return nil
	}
	repaired, err := jsonrepair.RepairJSON(s)
	if err != nil {
		return nil
	}
	obj, _ := strictObject(repaired)
	return obj
}

func strictObject(s string) (map[string]any, bool) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	if dec.More() {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	return obj, ok
}

// stripCodeFence removes a surrounding ```json ... ``` block that LLM output often carries.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
