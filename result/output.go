package result

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// csvHeader is the column order shared by the CSV and XLSX writers.
var csvHeader = []string{"input", "line", "link", "status", "status_code", "error_type", "error"}

// WriteJSON writes the full run result as indented JSON to the writer.
func WriteJSON(w io.Writer, res *Result) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("write json output: %w", err)
	}
	return nil
}

// WriteCSV writes one row per checked link to the writer.
// Always includes a header row, even if no link was checked.
func WriteCSV(w io.Writer, res *Result) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, in := range res.Inputs {
		for _, link := range in.Results {
			if err := cw.Write(record(in.FilenameOrURL, link)); err != nil {
				return fmt.Errorf("write csv record for %s: %w", link.Link, err)
			}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv output: %w", err)
	}
	return nil
}

// WriteXLSX writes a workbook with a "Links" sheet holding the same rows as
// WriteCSV and a "Summary" sheet with the global totals.
func WriteXLSX(w io.Writer, res *Result) (err error) {
	f := excelize.NewFile()
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close workbook: %w", closeErr)
		}
	}()

	const linksSheet = "Links"
	if err := f.SetSheetName("Sheet1", linksSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(linksSheet, "A1", &csvHeader); err != nil {
		return fmt.Errorf("write xlsx header: %w", err)
	}

	row := 2
	for _, in := range res.Inputs {
		for _, link := range in.Results {
			cell, cellErr := excelize.CoordinatesToCellName(1, row)
			if cellErr != nil {
				return fmt.Errorf("cell name for row %d: %w", row, cellErr)
			}
			values := record(in.FilenameOrURL, link)
			if err := f.SetSheetRow(linksSheet, cell, &values); err != nil {
				return fmt.Errorf("write xlsx row for %s: %w", link.Link, err)
			}
			row++
		}
	}

	const summarySheet = "Summary"
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	summary := [][]any{
		{"inputs", len(res.Inputs)},
		{"links", res.Stats.LinksCount},
		{"alive", res.Stats.AliveLinksCount},
		{"ignored", res.Stats.IgnoredLinksCount},
		{"error", res.Stats.ErrorLinksCount},
		{"dead", res.Stats.DeadLinksCount},
		{"cache hits", res.Stats.CacheHits},
		{"cache miss", res.Stats.CacheMiss},
	}
	for i, values := range summary {
		cell, cellErr := excelize.CoordinatesToCellName(1, i+1)
		if cellErr != nil {
			return fmt.Errorf("cell name for summary row %d: %w", i+1, cellErr)
		}
		if err := f.SetSheetRow(summarySheet, cell, &values); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx output: %w", err)
	}
	return nil
}

func record(input string, link LinkResult) []string {
	line := ""
	if link.Line > 0 {
		line = strconv.Itoa(link.Line)
	}
	return []string{
		input,
		line,
		link.Link,
		string(link.Status),
		statusCodeStr(link.StatusCode),
		string(link.ErrorCategory),
		link.Err,
	}
}

// statusCodeStr converts a status code to a string.
// Returns empty string for 0 (no status).
func statusCodeStr(code int) string {
	if code == 0 {
		return ""
	}
	return strconv.Itoa(code)
}
