// Package export renders aggregation read models as spreadsheets.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/sgajbi/reporting-aggregation-service/internal/domain"
	"github.com/sgajbi/reporting-aggregation-service/internal/precision"
)

const (
	rowsSheet  = "ROWS"
	scopeSheet = "SCOPE"
)

// WriteWorkbook writes resp as an XLSX workbook with a ROWS and a SCOPE sheet.
func WriteWorkbook(w io.Writer, resp domain.AggregationResponse) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", rowsSheet); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}
	if _, err := f.NewSheet(scopeSheet); err != nil {
		return fmt.Errorf("creating sheet %s: %w", scopeSheet, err)
	}

	if err := writeRows(f, rowsSheet, buildRows(resp)); err != nil {
		return err
	}
	if err := writeRows(f, scopeSheet, buildScope(resp)); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// buildRows builds the ROWS sheet data. Values are written as text so the cells
// keep the exact quantized digits.
// Columns: Bucket | Metric | Value
func buildRows(resp domain.AggregationResponse) [][]any {
	data := make([][]any, 0, len(resp.Rows)+1)
	data = append(data, []any{"Bucket", "Metric", "Value"})
	for _, r := range resp.Rows {
		data = append(data, []any{r.Bucket, r.Metric, string(precision.JSONNumber(r.Value))})
	}
	return data
}

// buildScope builds the SCOPE sheet data as key/value pairs.
func buildScope(resp domain.AggregationResponse) [][]any {
	return [][]any{
		{"Field", "Value"},
		{"sourceService", resp.SourceService},
		{"portfolioId", resp.Scope.PortfolioID},
		{"asOfDate", resp.Scope.AsOfDate},
		{"generatedAt", resp.GeneratedAt.UTC().Format(time.RFC3339)},
		{"roundingPolicyVersion", precision.RoundingPolicyVersion},
	}
}

func writeRows(f *excelize.File, sheet string, data [][]any) error {
	for i, row := range data {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("resolving cell: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
