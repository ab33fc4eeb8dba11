package summary

import (
	"strings"

	"docwatch/internal/domain"
	"docwatch/internal/numeric"
)

// attr is the ordered list of places a semantic attribute may live in.
type attr struct {
	paths  []string
	labels []string
}

// field checks structured.<modern> first, then every alias (snake and camel
// variants, inside structured and at the analysis root), then the modern key
// at the root. The humanized modern key is always tried as a label.
func field(modern string, aliases ...string) attr {
	a := attr{}
	seen := map[string]bool{}
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			a.paths = append(a.paths, p)
		}
	}
	for _, v := range variants(modern) {
		add("structured." + v)
	}
	for _, alias := range aliases {
		for _, v := range variants(alias) {
			add("structured." + v)
			add(v)
		}
	}
	for _, v := range variants(modern) {
		add(v)
	}
	a.labels = []string{humanize(modern)}
	return a
}

// ratio checks the ratios map, then structured.ratios.
func ratio(modern string, aliases ...string) attr {
	a := attr{}
	for _, prefix := range []string{"ratios.", "structured.ratios."} {
		for _, key := range append([]string{modern}, aliases...) {
			for _, v := range variants(key) {
				a.paths = append(a.paths, prefix+v)
			}
		}
	}
	return a
}

// label adds extra flat-field labels to look up.
func (a attr) label(labels ...string) attr {
	a.labels = append(append([]string{}, a.labels...), labels...)
	return a
}

// variants returns the snake_case key and its camelCase spelling.
func variants(snake string) []string {
	camel := toCamel(snake)
	if camel == snake {
		return []string{snake}
	}
	return []string{snake, camel}
}

func toCamel(snake string) string {
	parts := strings.Split(snake, "_")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}

func humanize(snake string) string {
	return strings.ReplaceAll(snake, "_", " ")
}

func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("_", " ", "-", " ", ":", "").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// source holds the inputs every attribute is resolved against.
type source struct {
	analysis domain.Analysis
	fields   []domain.Field
}

// candidates yields values in lookup order: paths first, then labelled flat fields.
func (s source) candidates(a attr, visit func(v any) bool) {
	if s.analysis != nil {
		for _, p := range a.paths {
			if v, ok := domain.Lookup(s.analysis, p); ok && domain.Present(v) {
				if visit(v) {
					return
				}
			}
		}
	}
	for _, l := range a.labels {
		want := normalizeLabel(l)
		for _, f := range s.fields {
			if normalizeLabel(f.Label) == want && domain.Present(f.Value) {
				if visit(f.Value) {
					return
				}
			}
		}
	}
}

// text returns the first defined scalar value as text.
func (s source) text(a attr) string {
	out := ""
	s.candidates(a, func(v any) bool {
		out = domain.Text(v)
		return out != ""
	})
	return out
}

// number returns the first value that coerces to a number, preserving zero.
func (s source) number(a attr) *float64 {
	var out *float64
	s.candidates(a, func(v any) bool {
		out = numeric.Ptr(v)
		return out != nil
	})
	return out
}
