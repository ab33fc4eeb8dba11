package report

import (
	"bytes"
	"fmt"
	"strings"

	"docwatch/internal/domain"
)

// ParseFormat maps a user-supplied format name to a ReportFormat. Empty means HTML.
func ParseFormat(s string) (domain.ReportFormat, error) {
	f := domain.ReportFormat(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return domain.ReportFormatHTML, nil
	}
	if _, ok := domain.ReportContentTypes[f]; !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, s)
	}
	return f, nil
}

// Render renders in as format.
func Render(format domain.ReportFormat, in Input) ([]byte, error) {
	switch format {
	case domain.ReportFormatHTML:
		s, err := RenderHTML(in)
		if err != nil {
			return nil, err
		}
		return []byte(s), nil
	case domain.ReportFormatPDF:
		return RenderPDF(in)
	case domain.ReportFormatXLSX:
		return RenderXLSX(in)
	case domain.ReportFormatCSV:
		var buf bytes.Buffer
		if err := WriteCSV(&buf, in); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format)
}

// FileName is the artifact name a format is published under.
func FileName(format domain.ReportFormat) string {
	switch format {
	case domain.ReportFormatHTML:
		return "report.html"
	case domain.ReportFormatPDF:
		return "report.pdf"
	case domain.ReportFormatXLSX:
		return "summary.xlsx"
	case domain.ReportFormatCSV:
		return "summary.csv"
	}
	return ""
}
