package report

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"docwatch/internal/domain"
)

// markdown renders the free-text narrative. Raw HTML in the source is
// omitted because the unsafe renderer option is never enabled.
var markdown = goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough))

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
  body { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; color: #1f2933; margin: 2rem auto; max-width: 880px; padding: 0 1rem; }
  header { border-bottom: 2px solid #1f2933; margin-bottom: 1.5rem; padding-bottom: .5rem; }
  header .brand { color: #616e7c; font-size: .85rem; text-transform: uppercase; letter-spacing: .08em; }
  h1 { font-size: 1.6rem; margin: .25rem 0; }
  h2 { font-size: 1.15rem; margin-top: 1.75rem; border-bottom: 1px solid #cbd2d9; padding-bottom: .25rem; }
  table { border-collapse: collapse; width: 100%; font-size: .92rem; }
  th, td { text-align: left; padding: .35rem .5rem; border-bottom: 1px solid #e4e7eb; vertical-align: top; }
  td.num { text-align: right; font-variant-numeric: tabular-nums; }
  .status { display: inline-block; padding: .2rem .6rem; border-radius: 3px; font-weight: 600; }
  .status-ok { background: #e3f9e5; color: #207227; }
  .status-warning { background: #fffbea; color: #8d2b0b; }
  .status-error { background: #ffeeee; color: #ab091e; }
  .status-in_progress, .status-unknown { background: #e4e7eb; color: #3e4c59; }
  .issue { border-left: 4px solid #cbd2d9; margin: .5rem 0; padding: .25rem .75rem; }
  .issue-error { border-color: #ab091e; }
  .issue-warning { border-color: #de911d; }
  .issue .raw { color: #7b8794; font-size: .8rem; }
  .narrative { line-height: 1.5; }
  footer { color: #7b8794; font-size: .8rem; margin-top: 2rem; }
  @media print {
    body { margin: 0; max-width: none; }
    h2 { break-after: avoid; }
    table, .issue { break-inside: avoid; }
  }
</style>
</head>
<body>
<header>
  {{if .Brand}}<div class="brand">{{.Brand}}</div>{{end}}
  <h1>{{.Title}}</h1>
  <span class="status status-{{.Status}}">{{.StatusLabel}}</span>
</header>

<section>
  <table>
  {{range .Metadata}}<tr><th>{{.Label}}</th><td>{{.Value}}</td></tr>
  {{end}}</table>
</section>

{{if .Issues}}<section>
  <h2>Issues</h2>
  {{range .Issues}}<div class="issue issue-{{.Level}}">
    <strong>{{.Level}}</strong> ({{.Category}}, {{.Stage}}): {{.UserMessage}}
    {{if .RawMessage}}<div class="raw">{{.RawMessage}}</div>{{end}}
  </div>
  {{end}}
</section>{{end}}

{{if .Narrative}}<section>
  <h2>Summary</h2>
  <div class="narrative">{{.Narrative}}</div>
</section>{{end}}

{{if .Attributes}}<section>
  <h2>Key figures</h2>
  <table>
  {{range .Attributes}}<tr><th>{{.Label}}</th><td class="num">{{.Value}}</td></tr>
  {{end}}</table>
</section>{{end}}

{{if .Ratios}}<section>
  <h2>Ratios</h2>
  <table>
  {{range .Ratios}}<tr><th>{{.Label}}</th><td class="num">{{.Value}}</td></tr>
  {{end}}</table>
</section>{{end}}

{{if .Scores}}<section>
  <h2>Scores</h2>
  <table>
  {{range .Scores}}<tr><th>{{.Label}}</th><td class="num">{{.Value}}</td></tr>
  {{end}}</table>
</section>{{end}}

<footer>{{.Footer}}</footer>
</body>
</html>
`))

type htmlView struct {
	Title       string
	Brand       string
	Status      string
	StatusLabel string
	Metadata    []line
	Issues      []domain.Issue
	Narrative   template.HTML
	Attributes  []line
	Ratios      []line
	Scores      []line
	Footer      string
}

// RenderHTML returns a self-contained printable HTML document. Every
// interpolated value is escaped by html/template.
func RenderHTML(in Input) (string, error) {
	narrative, err := renderMarkdown(in.Narrative)
	if err != nil {
		return "", err
	}

	view := htmlView{
		Title:       in.Title,
		Brand:       in.Brand,
		Status:      string(in.Status),
		StatusLabel: statusLabel(in.Status),
		Metadata:    in.metadataLines(),
		Issues:      in.Issues,
		Narrative:   narrative,
		Attributes:  in.summaryLines(),
		Ratios:      in.ratioLines(),
		Scores:      in.scoreLines(),
		Footer:      footer(in),
	}
	if view.Title == "" {
		view.Title = "Document analysis report"
	}

	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("executing report template: %w", err)
	}
	return buf.String(), nil
}

func renderMarkdown(src string) (template.HTML, error) {
	if src == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("rendering summary markdown: %w", err)
	}
	return template.HTML(buf.String()), nil //nolint:gosec // goldmark output without the unsafe option
}

func footer(in Input) string {
	if in.GeneratedAt.IsZero() {
		return "Generated by " + brandOrDefault(in.Brand)
	}
	return fmt.Sprintf("Generated by %s on %s", brandOrDefault(in.Brand), in.GeneratedAt.Format("2 Jan 2006 15:04 MST"))
}

func brandOrDefault(b string) string {
	if b == "" {
		return "docwatch"
	}
	return b
}
