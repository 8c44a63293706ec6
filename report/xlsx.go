package report

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the report rows.
const SheetName = "Compensation Report"

// ErrEmptyReport is returned when there are no rows to export.
var ErrEmptyReport = errors.New("no data to export")

var xlsxColumns = []string{
	"الرقم",
	"اسم المستفيد",
	"رقم العداد",
	"رقم RIP الكامل",
	"تعويض ث 1",
	"تعويض ث 2",
	"تعويض ث 3",
	"تعويض ث 4",
	"الخصم",
	"الصافي للدفع",
}

// XLSX exports the report rows as a single-sheet workbook. Amounts are
// written as numbers so the sheet can total them.
func (r *Report) XLSX() ([]byte, error) {
	if r.IsEmpty() {
		return nil, ErrEmptyReport
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetView(SheetName, 0, &excelize.ViewOptions{RightToLeft: boolPtr(true)}); err != nil {
		return nil, fmt.Errorf("set sheet view: %w", err)
	}

	for i, name := range xlsxColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(SheetName, cell, name)
	}
	style, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	last, _ := excelize.CoordinatesToCellName(len(xlsxColumns), 1)
	f.SetCellStyle(SheetName, "A1", last, style)

	for rowIdx, row := range r.Rows {
		values := []any{
			int(row.ID),
			row.Name,
			row.Meter,
			row.RIP,
			number(row.Q1),
			number(row.Q2),
			number(row.Q3),
			number(row.Q4),
			number(row.Discount),
			number(row.NetPayable),
		}
		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return nil, fmt.Errorf("write cell %s: %w", cell, err)
			}
		}
	}

	for i, name := range xlsxColumns {
		colName, _ := excelize.ColumnNumberToName(i + 1)
		width := float64(len([]rune(name)) + 4)
		if width < 14 {
			width = 14
		}
		f.SetColWidth(SheetName, colName, colName, width)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func number(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func boolPtr(b bool) *bool { return &b }
