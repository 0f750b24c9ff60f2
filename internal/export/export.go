package export

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"cartscope/internal"
)

// RunToXLSX writes one extraction run's line items, with their removal
// outcomes when present, to an XLSX report.
func RunToXLSX(run internal.RunRow, rows []internal.RunExportRow, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := []string{
		"position", "identifier", "name", "qty", "removal_outcome", "removal_detail",
		"page_url", "trace_id", "extracted_at",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, row := range rows {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, row.Position)
		set(2, row.Identifier)
		set(3, derefString(row.Name))
		set(4, derefFloat(row.Qty))
		set(5, derefString(row.Outcome))
		set(6, derefString(row.Detail))
		set(7, run.PageURL)
		set(8, run.TraceID)
		set(9, run.CreatedAt)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func derefFloat(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
