package summary

import (
	"sort"

	"docwatch/internal/domain"
	"docwatch/internal/numeric"
)

// Score is one named model score. Value is nil when the backend sent
// something that is not a number.
type Score struct {
	Name  string   `json:"name"`
	Value *float64 `json:"value"`
}

// Scores returns risk_score first (when present) followed by the named scores
// sorted by name. A score may be a bare number or an object with score/value.
func Scores(analysis domain.Analysis) []Score {
	out := []Score{}
	if analysis == nil {
		return out
	}
	if v, ok := analysis["risk_score"]; ok && domain.Present(v) {
		out = append(out, Score{Name: "risk_score", Value: scoreValue(v)})
	}

	m := analysis.Scores()
	names := make([]string, 0, len(m))
	for k := range m {
		if k != "risk_score" {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		out = append(out, Score{Name: name, Value: scoreValue(m[name])})
	}
	return out
}

func scoreValue(v any) *float64 {
	if obj := domain.Object(v); obj != nil {
		for _, k := range []string{"score", "value"} {
			if p := numeric.Ptr(obj[k]); p != nil {
				return p
			}
		}
		return nil
	}
	return numeric.Ptr(v)
}
