package services

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"alfredoptarigan/cv-screener/internal/models"
)

const exportSheet = "Reports"

// ReportListingColumns is the column order of the admin report listing and
// of its spreadsheet export.
var ReportListingColumns = []string{
	"Generated At",
	"Owner Name",
	"Owner Email",
	"Job Description",
	"Candidates",
	"Summary",
	"Document",
	"Document URL",
}

var exportColumnWidths = []float64{20, 22, 30, 30, 40, 60, 45, 60}

func reportListingRow(r models.Report) []any {
	return []any{
		r.GeneratedAt.Format("2006-01-02 15:04:05"),
		r.OwnerName,
		r.OwnerEmail,
		r.JobDescriptionFilename,
		r.CandidateList(),
		r.Summary,
		r.DocumentFilename,
		r.DocumentURL,
	}
}

// ExportReportsXLSX writes the report listing as a single-sheet workbook.
func ExportReportsXLSX(reports []models.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	wrapStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cell style: %w", err)
	}

	for i, title := range ReportListingColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(exportSheet, cell, title)

		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(exportSheet, col, col, exportColumnWidths[i])
	}
	lastCol, _ := excelize.ColumnNumberToName(len(ReportListingColumns))
	f.SetCellStyle(exportSheet, "A1", lastCol+"1", headerStyle)

	for i, r := range reports {
		row := i + 2
		start, _ := excelize.CoordinatesToCellName(1, row)
		values := reportListingRow(r)
		if err := f.SetSheetRow(exportSheet, start, &values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", row, err)
		}
	}
	if len(reports) > 0 {
		f.SetCellStyle(exportSheet, "A2", fmt.Sprintf("%s%d", lastCol, len(reports)+1), wrapStyle)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return bytes.Clone(buf.Bytes()), nil
}
