// Package report renders an evaluated run as HTML, PDF, XLSX or CSV.
package report

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"docwatch/internal/classifier"
	"docwatch/internal/domain"
	"docwatch/internal/summary"
)

// missing is printed for attributes without a value.
const missing = "n/a"

// Input is everything a report shows. All renderers are pure functions of it.
type Input struct {
	Title       string
	Brand       string
	ObjectKey   string
	Status      domain.RunStatus
	Issues      []domain.Issue
	Narrative   string
	Summary     summary.Summary
	Ratios      summary.Ratios
	Scores      []summary.Score
	Metadata    map[string]string
	GeneratedAt time.Time
}

// FromEvaluation builds a report input for objectKey.
func FromEvaluation(ev *classifier.Evaluation, objectKey, title, brand string, generatedAt time.Time) Input {
	in := Input{
		Title:       title,
		Brand:       brand,
		ObjectKey:   objectKey,
		Status:      domain.RunStatusUnknown,
		GeneratedAt: generatedAt.UTC(),
		Metadata:    map[string]string{},
	}
	if ev == nil {
		return in
	}
	in.Status = ev.Status
	in.Issues = ev.Issues
	in.Summary = ev.Summary
	in.Ratios = ev.Ratios
	in.Scores = ev.Scores
	in.Narrative = ev.Analysis.Summary()
	if ev.DocType != "" {
		in.Metadata["Document type"] = ev.DocType
	}
	if mode := ev.Analysis.AnalysisMode(); mode != "" {
		in.Metadata["Analysis mode"] = mode
	}
	if ev.Source != "" {
		in.Metadata["Result source"] = ev.Source
	}
	return in
}

// line is a formatted label/value pair.
type line struct {
	Label string
	Value string
}

func (in Input) summaryLines() []line {
	if in.Summary == nil {
		return nil
	}
	return rowLines(in.Summary.Rows())
}

func (in Input) ratioLines() []line {
	if in.Ratios == nil {
		return nil
	}
	return rowLines(in.Ratios.Rows())
}

func (in Input) scoreLines() []line {
	out := make([]line, 0, len(in.Scores))
	for _, s := range in.Scores {
		out = append(out, line{Label: strings.ReplaceAll(s.Name, "_", " "), Value: formatNumber(s.Value)})
	}
	return out
}

func (in Input) metadataLines() []line {
	keys := make([]string, 0, len(in.Metadata))
	for k := range in.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]line, 0, len(keys)+2)
	if in.ObjectKey != "" {
		out = append(out, line{Label: "Object key", Value: in.ObjectKey})
	}
	for _, k := range keys {
		out = append(out, line{Label: k, Value: in.Metadata[k]})
	}
	if !in.GeneratedAt.IsZero() {
		out = append(out, line{Label: "Generated", Value: in.GeneratedAt.Format(time.RFC3339)})
	}
	return out
}

func rowLines(rows []summary.Row) []line {
	out := make([]line, 0, len(rows))
	for _, r := range rows {
		out = append(out, line{Label: r.Label, Value: formatRow(r)})
	}
	return out
}

func formatRow(r summary.Row) string {
	switch {
	case r.Number != nil:
		return formatNumber(r.Number)
	case r.Text != "":
		return r.Text
	}
	return missing
}

// formatNumber renders v with two decimals and thousands separators.
func formatNumber(v *float64) string {
	if v == nil {
		return missing
	}
	s := strconv.FormatFloat(*v, 'f', 2, 64)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	out := b.String() + "." + frac
	if neg && out != "0.00" {
		out = "-" + out
	}
	return out
}

func statusLabel(s domain.RunStatus) string {
	switch s {
	case domain.RunStatusOK:
		return "Completed"
	case domain.RunStatusWarning:
		return "Completed with warnings"
	case domain.RunStatusError:
		return "Failed"
	case domain.RunStatusInProgress:
		return "In progress"
	}
	return "Unknown"
}
