package report

import (
	"encoding/csv"
	"fmt"
	"io"
)

// BOM is written first so Excel on Windows opens the file as UTF-8.
var BOM = []byte{0xEF, 0xBB, 0xBF}

var csvHeader = []string{"Section", "Attribute", "Value"}

// WriteCSV writes the report as section/attribute/value rows.
func WriteCSV(w io.Writer, in Input) error {
	if _, err := w.Write(BOM); err != nil {
		return fmt.Errorf("writing BOM: %w", err)
	}
	cw := csv.NewWriter(w)

	records := [][]string{csvHeader, {"Run", "Status", string(in.Status)}}
	for _, l := range in.metadataLines() {
		records = append(records, []string{"Run", l.Label, l.Value})
	}
	if in.Narrative != "" {
		records = append(records, []string{"Run", "Summary", in.Narrative})
	}
	for _, l := range in.summaryLines() {
		records = append(records, []string{"Summary", l.Label, l.Value})
	}
	for _, l := range in.ratioLines() {
		records = append(records, []string{"Ratios", l.Label, l.Value})
	}
	for _, l := range in.scoreLines() {
		records = append(records, []string{"Scores", l.Label, l.Value})
	}
	for _, is := range in.Issues {
		records = append(records, []string{"Issues", fmt.Sprintf("%s/%s/%s", is.Level, is.Category, is.Stage), is.UserMessage})
	}

	for _, rec := range records {
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
