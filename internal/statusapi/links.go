package statusapi

import (
	"sort"

	"docwatch/internal/domain"
)

// Links is a set of named download URLs for one object key.
type Links struct {
	URLs     map[string]string `json:"urls"`
	Expected []string          `json:"-"`
}

// NewLinks keeps the non-empty string URLs of raw. A nested "links" object is
// unwrapped first.
func NewLinks(raw map[string]any, expected []string) *Links {
	if nested := domain.Object(raw["links"]); nested != nil {
		raw = nested
	}
	urls := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			urls[k] = s
		}
	}
	return &Links{URLs: urls, Expected: expected}
}

// Ready reports whether at least one expected link is present. Without an
// expected list, any link counts.
func (l *Links) Ready() bool {
	if l == nil {
		return false
	}
	if len(l.Expected) == 0 {
		return len(l.URLs) > 0
	}
	for _, k := range l.Expected {
		if l.URLs[k] != "" {
			return true
		}
	}
	return false
}

// Names returns the available link names, sorted.
func (l *Links) Names() []string {
	names := make([]string, 0, len(l.URLs))
	for k := range l.URLs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
