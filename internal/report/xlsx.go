package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"docwatch/internal/summary"
)

const (
	sheetSummary = "Summary"
	sheetRatios  = "Ratios"
	sheetIssues  = "Issues"
)

// RenderXLSX writes Summary, Ratios and Issues sheets. Numeric attributes are
// stored as numbers so they stay usable in formulas.
func RenderXLSX(in Input) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, fmt.Errorf("renaming sheet: %w", err)
	}
	for _, name := range []string{sheetRatios, sheetIssues} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("creating sheet %s: %w", name, err)
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("creating style: %w", err)
	}

	// Summary: metadata block, then attribute rows.
	rows := [][]any{{"Attribute", "Value"}, {"Status", statusLabel(in.Status)}}
	for _, l := range in.metadataLines() {
		rows = append(rows, []any{l.Label, l.Value})
	}
	if in.Narrative != "" {
		rows = append(rows, []any{"Summary", in.Narrative})
	}
	if in.Summary != nil {
		rows = append(rows, cellRows(in.Summary.Rows())...)
	}
	for _, s := range in.Scores {
		rows = append(rows, []any{"Score: " + s.Name, cellNumber(s.Value)})
	}
	if err := writeSheet(f, sheetSummary, rows, bold); err != nil {
		return nil, err
	}

	ratios := [][]any{{"Ratio", "Value"}}
	if in.Ratios != nil {
		ratios = append(ratios, cellRows(in.Ratios.Rows())...)
	}
	if err := writeSheet(f, sheetRatios, ratios, bold); err != nil {
		return nil, err
	}

	issues := [][]any{{"Level", "Category", "Stage", "Message", "Detail"}}
	for _, is := range in.Issues {
		issues = append(issues, []any{string(is.Level), string(is.Category), string(is.Stage), is.UserMessage, is.RawMessage})
	}
	if err := writeSheet(f, sheetIssues, issues, bold); err != nil {
		return nil, err
	}

	f.SetActiveSheet(0)
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	if len(rows) > 0 {
		last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
			return fmt.Errorf("styling %s header: %w", sheet, err)
		}
	}
	return f.SetColWidth(sheet, "A", "A", 32)
}

func cellRows(rows []summary.Row) [][]any {
	out := make([][]any, 0, len(rows))
	for _, r := range rows {
		var v any = missing
		switch {
		case r.Number != nil:
			v = *r.Number
		case r.Text != "":
			v = r.Text
		}
		out = append(out, []any{r.Label, v})
	}
	return out
}

func cellNumber(v *float64) any {
	if v == nil {
		return missing
	}
	return *v
}
