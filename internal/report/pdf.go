package report

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	"docwatch/internal/domain"
)

const (
	pdfFont       = "Helvetica"
	pdfLineHeight = 5.5
	pdfLabelWidth = 70.0
)

// RenderPDF lays the report out on A4 pages with the core fonts.
func RenderPDF(in Input) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	if !in.GeneratedAt.IsZero() {
		pdf.SetCreationDate(in.GeneratedAt)
		pdf.SetModificationDate(in.GeneratedAt)
	}
	title := in.Title
	if title == "" {
		title = "Document analysis report"
	}
	pdf.SetTitle(title, true)
	pdf.SetCreator(brandOrDefault(in.Brand), true)

	// Core fonts are cp1252; this maps £, € and friends.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(pdfFont, "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 5, tr(footer(in)), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})
	pdf.AddPage()

	if in.Brand != "" {
		pdf.SetFont(pdfFont, "", 8)
		pdf.SetTextColor(97, 110, 124)
		pdf.CellFormat(0, 4, tr(in.Brand), "", 1, "L", false, 0, "")
	}
	pdf.SetFont(pdfFont, "B", 16)
	pdf.SetTextColor(31, 41, 51)
	pdf.MultiCell(0, 8, tr(title), "", "L", false)

	r, g, b := statusColor(in.Status)
	pdf.SetFillColor(r, g, b)
	pdf.SetFont(pdfFont, "B", 10)
	pdf.CellFormat(50, 7, tr(statusLabel(in.Status)), "", 1, "C", true, 0, "")
	pdf.Ln(3)

	pdfTable(pdf, tr, "", in.metadataLines())

	if len(in.Issues) > 0 {
		pdfHeading(pdf, "Issues")
		for _, is := range in.Issues {
			pdf.SetFont(pdfFont, "B", 9)
			pdf.SetTextColor(31, 41, 51)
			pdf.CellFormat(0, pdfLineHeight, tr(fmt.Sprintf("%s (%s, %s)", is.Level, is.Category, is.Stage)), "", 1, "L", false, 0, "")
			pdf.SetFont(pdfFont, "", 9)
			pdf.MultiCell(0, pdfLineHeight, tr(is.UserMessage), "", "L", false)
			if is.RawMessage != "" {
				pdf.SetFont(pdfFont, "I", 8)
				pdf.SetTextColor(123, 135, 148)
				pdf.MultiCell(0, 4.5, tr(is.RawMessage), "", "L", false)
			}
			pdf.Ln(1.5)
		}
	}

	if in.Narrative != "" {
		pdfHeading(pdf, "Summary")
		pdf.SetFont(pdfFont, "", 9)
		pdf.SetTextColor(31, 41, 51)
		pdf.MultiCell(0, pdfLineHeight, tr(in.Narrative), "", "L", false)
	}

	pdfTable(pdf, tr, "Key figures", in.summaryLines())
	pdfTable(pdf, tr, "Ratios", in.ratioLines())
	pdfTable(pdf, tr, "Scores", in.scoreLines())

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("laying out PDF: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func pdfHeading(pdf *fpdf.Fpdf, text string) {
	pdf.Ln(4)
	pdf.SetFont(pdfFont, "B", 12)
	pdf.SetTextColor(31, 41, 51)
	pdf.CellFormat(0, 7, text, "B", 1, "L", false, 0, "")
	pdf.Ln(1.5)
}

func pdfTable(pdf *fpdf.Fpdf, tr func(string) string, heading string, lines []line) {
	if len(lines) == 0 {
		return
	}
	if heading != "" {
		pdfHeading(pdf, heading)
	}
	pdf.SetTextColor(31, 41, 51)
	for i, l := range lines {
		fill := i%2 == 0
		pdf.SetFillColor(245, 247, 250)
		pdf.SetFont(pdfFont, "B", 9)
		pdf.CellFormat(pdfLabelWidth, pdfLineHeight+1, tr(l.Label), "", 0, "L", fill, 0, "")
		pdf.SetFont(pdfFont, "", 9)
		pdf.CellFormat(0, pdfLineHeight+1, tr(l.Value), "", 1, "L", fill, 0, "")
	}
}

func statusColor(s domain.RunStatus) (int, int, int) {
	switch s {
	case domain.RunStatusOK:
		return 227, 249, 229
	case domain.RunStatusWarning:
		return 255, 251, 234
	case domain.RunStatusError:
		return 255, 238, 238
	}
	return 228, 231, 235
}
