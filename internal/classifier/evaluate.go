package classifier

import (
	"docwatch/internal/domain"
	"docwatch/internal/normalize"
	"docwatch/internal/summary"
)

// Evaluation is everything derived from one envelope: the canonical analysis,
// its classification and the typed projections.
type Evaluation struct {
	Status     domain.RunStatus `json:"status"`
	InProgress bool             `json:"inProgress"`
	Issues     []domain.Issue   `json:"issues"`
	DocType    string           `json:"docType,omitempty"`
	Kind       domain.DocKind   `json:"kind"`
	Source     string           `json:"source,omitempty"`
	Analysis   domain.Analysis  `json:"analysis,omitempty"`
	Summary    summary.Summary  `json:"summary"`
	Ratios     summary.Ratios   `json:"ratios"`
	Scores     []summary.Score  `json:"scores"`
}

// Evaluate normalizes env, classifies it and projects summary, ratios and scores.
func Evaluate(env domain.Envelope) *Evaluation {
	analysis, source := normalize.Resolve(env)
	res := Classify(env, analysis)

	docType := docTypeOf(env, analysis)
	s := summary.Build(docType, analysis, env.Fields())
	return &Evaluation{
		Status:     res.Status,
		InProgress: res.InProgress,
		Issues:     res.Issues,
		DocType:    docType,
		Kind:       s.Kind(),
		Source:     source,
		Analysis:   analysis,
		Summary:    s,
		Ratios:     summary.ProjectRatios(docType, analysis, s),
		Scores:     summary.Scores(analysis),
	}
}
