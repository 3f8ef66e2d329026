// Package report writes the batch summary spreadsheet.
package report

import (
	"fmt"

	"github.com/dvloznov/invoice-ingest/internal/pipeline"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Faktury"

// Column order is fixed; accountants rely on it.
var headers = []string{
	"Invoice Number", "Vendor Name", "Vendor Address", "Tax Id",
	"Invoice Date", "Net", "VAT", "Gross", "Warnings", "File Name",
}

// XLSXWriter renders invoice records as rows of an xlsx file. It implements
// pipeline.ReportWriter.
type XLSXWriter struct{}

func NewXLSXWriter() *XLSXWriter {
	return &XLSXWriter{}
}

// Write saves all records to path, one row per record, in the given order.
// The file is written in one shot at the end of the batch.
func (w *XLSXWriter) Write(path string, records []*pipeline.InvoiceRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("report: create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("report: drop default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("report: create header style: %w", err)
	}

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, rec := range records {
		row := rowIdx + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), rec.InvoiceNumber)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), rec.VendorName)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), rec.VendorAddress)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), rec.TaxID)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), rec.InvoiceDate)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), rec.NetAmount)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), rec.TaxAmount)
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), rec.GrossAmount)
		f.SetCellValue(sheetName, fmt.Sprintf("I%d", row), rec.Warnings)
		f.SetCellValue(sheetName, fmt.Sprintf("J%d", row), rec.OutputFileName)
	}

	for i := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, 18)
	}

	f.SetActiveSheet(index)

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("report: save %s: %w", path, err)
	}
	return nil
}
