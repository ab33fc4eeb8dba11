// Package normalize reconciles the historically possible result payload shapes
// into one canonical analysis object.
package normalize

import "docwatch/internal/domain"

// explicitKey is the top-level field carrying an already-canonical analysis.
const explicitKey = "analysis"

// backfillKeys are copied from the detailed payload (or the envelope) onto the
// resolved analysis, overriding whatever the analysis already holds.
var backfillKeys = []string{"docType", "analysisMode", "quality"}

// canonicalMarkers identify an envelope that is itself a canonical analysis.
// A lone quality object is not one: pending envelopes carry it too.
var canonicalMarkers = []string{
	"docType", "analysisMode", "status",
	"structured", "summary", "ratios", "risk_score", "scores",
}

// candidate resolves one possible location of the analysis inside an envelope.
type candidate struct {
	name    string
	resolve func(env domain.Envelope) map[string]any
}

// at builds a candidate that walks a path of object-or-JSON-string hops.
func at(name string, path ...string) candidate {
	return candidate{
		name: name,
		resolve: func(env domain.Envelope) map[string]any {
			cur := map[string]any(env)
			for _, key := range path {
				cur = AsObject(cur[key])
				if cur == nil {
					return nil
				}
			}
			return cur
		},
	}
}

// candidates is tried in order; the first one that yields an object wins.
// New legacy shapes are appended here.
var candidates = []candidate{
	at("detailed", "detailed"),
	at("detailed.result", "detailed", "result"),
	at("detailed.result.result", "detailed", "result", "result"),
	at("detailed.agentic", "detailed", "agentic"),
	at("detailed.agentic.result", "detailed", "agentic", "result"),
	at("quick", "quick"),
	at("quick.result", "quick", "result"),
	at("quick.structured", "quick", "structured"),
	at("result", "result"),
	at("result.result", "result", "result"),
	{name: "canonical", resolve: canonicalPassthrough},
}

func canonicalPassthrough(env domain.Envelope) map[string]any {
	for _, k := range canonicalMarkers {
		if _, ok := env[k]; ok {
			return env
		}
	}
	return nil
}

// Normalize returns the canonical analysis for env, or nil when no candidate parses.
// env is never mutated.
func Normalize(env domain.Envelope) domain.Analysis {
	a, _ := Resolve(env)
	return a
}

// Resolve is Normalize that also reports which candidate was selected
// ("analysis" for the explicit field, "" when nothing parsed).
func Resolve(env domain.Envelope) (domain.Analysis, string) {
	if env == nil {
		return nil, ""
	}
	if explicit := AsObject(env[explicitKey]); explicit != nil {
		return domain.Analysis(domain.Clone(explicit)), explicitKey
	}

	for _, c := range candidates {
		obj := c.resolve(env)
		if obj == nil {
			continue
		}
		resolved := flattenResult(obj)
		backfill(resolved, env)
		return domain.Analysis(resolved), c.name
	}
	return nil, ""
}

// flattenResult returns a copy of obj with any nested result object merged over
// the outer fields; repeated while another nested result remains.
func flattenResult(obj map[string]any) map[string]any {
	merged := domain.Clone(obj)
	for {
		nested := AsObject(merged["result"])
		if nested == nil {
			return merged
		}
		delete(merged, "result")
		for k, v := range nested {
			merged[k] = v
		}
	}
}

// backfill copies backfillKeys from the detailed payload, falling back to the
// raw envelope. The source value replaces the resolved one when present.
func backfill(resolved map[string]any, env domain.Envelope) {
	detailed := AsObject(env.Detailed())
	for _, key := range backfillKeys {
		v, ok := detailed[key]
		if !ok || v == nil {
			v, ok = env[key]
		}
		if ok && v != nil {
			resolved[key] = v
		}
	}
}
