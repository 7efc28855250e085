package export

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Results"

// XLSXExporter renders datasets into a single-sheet workbook.
type XLSXExporter struct{}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render writes the title rows, a bold header row and the body. Numeric cells
// are stored as numbers so they can be summed in a spreadsheet.
func (e *XLSXExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("xlsx requires at least one header")
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	row := 1
	for _, line := range []string{data.Title, data.Subtitle} {
		if line == "" {
			continue
		}
		if err := f.SetCellValue(sheetName, cellName(1, row), line); err != nil {
			return nil, fmt.Errorf("write title: %w", err)
		}
		row++
	}
	if row > 1 {
		row++
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	headers := make([]interface{}, len(data.Headers))
	for i, header := range data.Headers {
		headers[i] = header
	}
	if err := f.SetSheetRow(sheetName, cellName(1, row), &headers); err != nil {
		return nil, fmt.Errorf("write xlsx headers: %w", err)
	}
	if err := f.SetCellStyle(sheetName, cellName(1, row), cellName(len(headers), row), headerStyle); err != nil {
		return nil, fmt.Errorf("style xlsx headers: %w", err)
	}

	for _, values := range data.Rows {
		row++
		record := data.Record(values)
		cells := make([]interface{}, len(record))
		for i, value := range record {
			cells[i] = cellValue(value)
		}
		if err := f.SetSheetRow(sheetName, cellName(1, row), &cells); err != nil {
			return nil, fmt.Errorf("write xlsx row: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func cellName(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "A1"
	}
	return name
}

func cellValue(raw string) interface{} {
	if number, err := strconv.ParseFloat(raw, 64); err == nil {
		return number
	}
	return raw
}
