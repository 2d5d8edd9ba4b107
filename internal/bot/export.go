// Copyright (c) 2026 Comiket Bot. All rights reserved.

package bot

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/comiketbot/comiket/internal/catalog"
)

// exportCSV renders the report as a reservation matrix: one row per item,
// one column per participant, an X where a reservation exists.
func exportCSV(report *catalog.ExportReport) ([]byte, error) {
	header := []string{"item_id", "url", "title", "price_yen"}
	for _, summary := range report.Summaries {
		header = append(header, summary.Participant.Name)
	}

	var buffer bytes.Buffer
	writer := csv.NewWriter(&buffer)

	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("export: write header: %w", err)
	}

	for _, item := range report.Items {
		row := []string{
			item.ID,
			item.URL,
			item.Title,
			fmt.Sprintf("%d", item.PriceYen),
		}
		for _, summary := range report.Summaries {
			mark := ""
			if item.ReservedBy(summary.Participant.ID) {
				mark = "X"
			}
			row = append(row, mark)
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("export: write row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("export: flush: %w", err)
	}

	return buffer.Bytes(), nil
}

// summaryLines renders one mention line per participant, in the report's
// order (yen total ascending).
func summaryLines(report *catalog.ExportReport) []string {
	lines := make([]string, 0, len(report.Summaries))
	for _, summary := range report.Summaries {
		line := fmt.Sprintf("<@%d> reserved %d for a total of ¥%d",
			summary.Participant.DiscordID, summary.NumItems, summary.TotalYen)
		if summary.TotalTarget > 0 {
			line = fmt.Sprintf("%s ($%.2f)", line, summary.TotalTarget)
		}
		lines = append(lines, line)
	}
	return lines
}
