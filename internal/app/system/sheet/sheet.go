// Package sheet renders tabular exports as xlsx (excelize) or csv and reads
// the small csv files operators hand to the CLI.
package sheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
)

// Table is one sheet of an export: a header row followed by data rows.
// Cells may be string, int, int64, float64, bool, time.Time or *time.Time.
type Table struct {
	Name   string
	Header []string
	Rows   [][]any
}

// DateLayout is how dates render in both formats.
const DateLayout = "2006-01-02"

// Cell formats v as the text written to csv and used for sizing columns.
func Cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', 2, 64)
	case bool:
		if x {
			return "Yes"
		}
		return "No"
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format(DateLayout)
	case *time.Time:
		if x == nil {
			return ""
		}
		return Cell(*x)
	default:
		return fmt.Sprint(x)
	}
}

// xlsxValue keeps numbers numeric in the workbook and formats the rest.
func xlsxValue(v any) any {
	switch x := v.(type) {
	case int, int64, float64:
		return x
	default:
		return Cell(v)
	}
}

// WriteCSV writes t as csv with its header.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	rec := make([]string, len(t.Header))
	for _, row := range t.Rows {
		for i := range rec {
			rec[i] = ""
			if i < len(row) {
				rec[i] = Cell(row[i])
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes each table to its own sheet, header bold and frozen.
func WriteXLSX(w io.Writer, tables ...Table) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, t := range tables {
		name := t.Name
		if name == "" {
			name = fmt.Sprintf("Sheet%d", i+1)
		}
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("new sheet %q: %w", name, err)
		}
		if err := writeTable(f, name, t, headerStyle); err != nil {
			return err
		}
	}

	_, err = f.WriteTo(w)
	return err
}

func writeTable(f *excelize.File, sheetName string, t Table, headerStyle int) error {
	widths := make([]int, len(t.Header))
	for col, h := range t.Header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return err
		}
		widths[col] = len(h)
	}
	if len(t.Header) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(t.Header), 1)
		if err := f.SetCellStyle(sheetName, "A1", last, headerStyle); err != nil {
			return err
		}
	}

	for r, row := range t.Rows {
		for c := 0; c < len(t.Header) && c < len(row); c++ {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, xlsxValue(row[c])); err != nil {
				return err
			}
			if n := len(Cell(row[c])); n > widths[c] {
				widths[c] = n
			}
		}
	}

	for c, wdt := range widths {
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if wdt > 60 {
			wdt = 60
		}
		if err := f.SetColWidth(sheetName, col, col, float64(wdt+2)); err != nil {
			return err
		}
	}

	return f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
