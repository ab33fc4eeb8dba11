package domain

import "strings"

// Envelope is one raw, loosely-typed poll response from the backend.
type Envelope map[string]any

// Quick returns the legacy quick-analysis payload as received.
func (e Envelope) Quick() any { return e["quick"] }

// Detailed returns the detailed-analysis payload as received.
func (e Envelope) Detailed() any { return e["detailed"] }

// HasPayload reports whether a quick or detailed payload has landed.
func (e Envelope) HasPayload() bool {
	return Present(e.Quick()) || Present(e.Detailed())
}

// Quality returns the quality-gate sub-object.
func (e Envelope) Quality() map[string]any {
	return Object(e["quality"])
}

// QualityStatus returns quality.status lower-cased.
func (e Envelope) QualityStatus() string {
	return strings.ToLower(Text(e.Quality()["status"]))
}

// QualityDecision returns quality.decision upper-cased.
func (e Envelope) QualityDecision() string {
	return strings.ToUpper(Text(e.Quality()["decision"]))
}

// QualityReasons returns the reasons stated by the quality gate, skipping blanks.
func (e Envelope) QualityReasons() []string {
	q := e.Quality()
	raw, ok := q["reasons"]
	if !ok {
		raw = q["reason"]
	}
	var reasons []string
	switch t := raw.(type) {
	case []any:
		for _, r := range t {
			if s := Text(r); s != "" {
				reasons = append(reasons, s)
			}
		}
	case []string:
		for _, r := range t {
			if s := strings.TrimSpace(r); s != "" {
				reasons = append(reasons, s)
			}
		}
	default:
		if s := Text(t); s != "" {
			reasons = append(reasons, s)
		}
	}
	return reasons
}

// Stage returns the pipeline stage from statusAudit (string, or object with stage/status),
// falling back to a top-level stage key. Empty when absent.
func (e Envelope) Stage() PipelineStage {
	audit := e["statusAudit"]
	if obj := Object(audit); obj != nil {
		if s := Text(obj["stage"]); s != "" {
			return PipelineStage(strings.ToLower(s))
		}
		return PipelineStage(strings.ToLower(Text(obj["status"])))
	}
	if s := Text(audit); s != "" {
		return PipelineStage(strings.ToLower(s))
	}
	return PipelineStage(strings.ToLower(Text(e["stage"])))
}

// DocType returns the top-level docType.
func (e Envelope) DocType() string {
	return Text(e["docType"])
}

// OCR returns the OCR sub-object.
func (e Envelope) OCR() map[string]any {
	return Object(e["ocr"])
}

// Fields returns the flat field list, accepting label, name or key as the label.
func (e Envelope) Fields() []Field {
	raw, _ := e["fields"].([]any)
	fields := make([]Field, 0, len(raw))
	for _, item := range raw {
		obj := Object(item)
		if obj == nil {
			continue
		}
		label := Text(obj["label"])
		if label == "" {
			label = Text(obj["name"])
		}
		if label == "" {
			label = Text(obj["key"])
		}
		if label == "" {
			continue
		}
		fields = append(fields, Field{Label: label, Value: obj["value"]})
	}
	return fields
}

// Field is one entry of the flat field list.
type Field struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}
