package parser

import (
	"fmt"
	"io"
	"math"

	"github.com/ukaji3/sheetdoc-go/pkg/sheetdoc/models"
	"github.com/yamitzky/xlrd-go/xlrd"
)

// BIFFStrategy reads legacy workbooks with xlrd-go, which yields typed cells
// and the cached results of formulas.
type BIFFStrategy struct{}

func (BIFFStrategy) Name() string { return StrategyXLS }
func (BIFFStrategy) Family() Format { return FormatBIFF }

func (BIFFStrategy) Decode(data []byte) (*models.RawWorkbook, error) {
	if err := checkCompoundFile(data); err != nil {
		return nil, err
	}
	book, err := xlrd.OpenWorkbook("workbook.xls", &xlrd.OpenWorkbookOptions{
		Logfile:        io.Discard,
		FileContents:   data,
		FormattingInfo: true,
	})
	if err != nil {
		return nil, err
	}
	defer book.ReleaseResources()

	names := book.SheetNames()
	wb := &models.RawWorkbook{Sheets: make([]models.RawSheet, 0, book.NSheets)}
	for i := 0; i < book.NSheets; i++ {
		sheet, err := book.SheetByIndex(i)
		if err == nil && sheet == nil {
			err = fmt.Errorf("sheet %d could not be read", i+1)
		}
		if err != nil {
			name := sheetName(names, i)
			wb.Sheets = append(wb.Sheets, models.RawSheet{Name: name, Err: err})
			continue
		}
		rows := make([][]models.RawCell, 0, sheet.NRows)
		for r := 0; r < sheet.NRows; r++ {
			n := sheet.RowLen(r)
			if n == 0 {
				rows = append(rows, nil)
				continue
			}
			cells := make([]models.RawCell, n)
			for c := 0; c < n; c++ {
				cells[c] = biffCell(book, sheet, r, c)
			}
			rows = append(rows, cells)
		}
		wb.Sheets = append(wb.Sheets, models.RawSheet{
			Name: sheet.Name,
			Rows: trimTrailingEmptyRows(rows),
		})
	}
	return wb, nil
}

func sheetName(names []string, i int) string {
	if i < len(names) && names[i] != "" {
		return names[i]
	}
	return defaultSheetName(i)
}

func biffCell(book *xlrd.Book, sheet *xlrd.Sheet, r, c int) models.RawCell {
	value := sheet.CellValue(r, c)
	switch sheet.CellType(r, c) {
	case xlrd.XL_CELL_TEXT:
		if s, ok := value.(string); ok && s != "" {
			return models.TextCell(s)
		}
	case xlrd.XL_CELL_NUMBER, xlrd.XL_CELL_DATE:
		f, ok := value.(float64)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return models.Absent()
		}
		cell := numberCell(f)
		if isBIFFDate(book, sheet.CellXFIndex(r, c)) {
			return serialDate(cell, book.Datemode == 1)
		}
		return cell
	case xlrd.XL_CELL_BOOLEAN:
		switch v := value.(type) {
		case int:
			return models.BoolCell(v != 0)
		case bool:
			return models.BoolCell(v)
		}
	case xlrd.XL_CELL_ERROR:
		if code, ok := value.(int); ok {
			if text, ok := xlrd.ErrorTextFromCode[byte(code)]; ok {
				return models.TextCell(text)
			}
		}
		return models.TextCell("#ERROR")
	}
	return models.Absent()
}

// numberCell keeps integral values as integers.
func numberCell(f float64) models.RawCell {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return models.IntCell(int64(f))
	}
	return models.FloatCell(f)
}

// isBIFFDate reports whether the XF record at xfIndex carries a date format.
func isBIFFDate(book *xlrd.Book, xfIndex int) bool {
	if xfIndex < 0 || xfIndex >= len(book.XFList) || book.XFList[xfIndex] == nil {
		return false
	}
	key := book.XFList[xfIndex].FormatKey
	var custom *string
	if format := book.FormatMap[key]; format != nil && format.FormatString != "" && key >= 164 {
		custom = &format.FormatString
	}
	return isDateNumFmt(key, custom)
}
