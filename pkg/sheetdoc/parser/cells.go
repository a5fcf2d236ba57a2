package parser

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/ukaji3/sheetdoc-go/pkg/sheetdoc/models"
	"github.com/xuri/excelize/v2"
)

// ExcelizeStrategy reads OOXML workbooks with excelize.
type ExcelizeStrategy struct{}

func (ExcelizeStrategy) Name() string { return StrategyExcelize }
func (ExcelizeStrategy) Family() Format { return FormatOOXML }

// Decode opens the workbook and extracts every sheet in workbook order.
// A sheet that cannot be read is returned with Err set.
func (ExcelizeStrategy) Decode(data []byte) (*models.RawWorkbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	wb := &models.RawWorkbook{}
	for _, sheetName := range f.GetSheetList() {
		rows, err := ExtractCells(f, sheetName)
		wb.Sheets = append(wb.Sheets, models.RawSheet{
			Name: sheetName,
			Rows: rows,
			Err:  err,
		})
	}
	return wb, nil
}

// ExtractCells extracts typed cell rows from a sheet.
// Values are read without number formatting; numbers carrying a date format
// become date-time cells.
func ExtractCells(f *excelize.File, sheetName string) ([][]models.RawCell, error) {
	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	dates := newDateStyles(f)
	result := make([][]models.RawCell, 0, len(rows))
	for rowIdx, row := range rows {
		cells := make([]models.RawCell, len(row))
		for colIdx, cellValue := range row {
			if cellValue == "" {
				continue
			}
			cellName, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				cells[colIdx] = parseValue(cellValue)
				continue
			}
			cells[colIdx] = typedCell(f, dates, sheetName, cellName, cellValue)
		}
		result = append(result, cells)
	}
	return result, nil
}

func typedCell(f *excelize.File, dates *dateStyles, sheetName, cellName, value string) models.RawCell {
	cellType, err := f.GetCellType(sheetName, cellName)
	if err != nil {
		return parseValue(value)
	}
	switch cellType {
	case excelize.CellTypeBool:
		return models.BoolCell(value == "1" || strings.EqualFold(value, "true"))
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula, excelize.CellTypeError:
		return models.TextCell(value)
	}

	cell := parseValue(value)
	if cell.Kind != models.KindInt && cell.Kind != models.KindFloat {
		return cell
	}
	if !dates.isDate(sheetName, cellName) {
		return cell
	}
	return serialDate(cell, dates.date1904)
}

// serialDate converts a numeric cell holding an Excel serial date into a
// date-time cell. Other cells, and serials out of range, are returned as is.
func serialDate(cell models.RawCell, date1904 bool) models.RawCell {
	var serial float64
	switch cell.Kind {
	case models.KindInt:
		serial = float64(cell.Int)
	case models.KindFloat:
		serial = cell.Float
	default:
		return cell
	}
	t, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return cell
	}
	return models.TimeCell(t)
}

// dateStyles caches whether a style index carries a date number format.
type dateStyles struct {
	f        *excelize.File
	date1904 bool
	cache    map[int]bool
}

func newDateStyles(f *excelize.File) *dateStyles {
	d := &dateStyles{f: f, cache: make(map[int]bool)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		d.date1904 = *props.Date1904
	}
	return d
}

func (d *dateStyles) isDate(sheetName, cellName string) bool {
	idx, err := d.f.GetCellStyle(sheetName, cellName)
	if err != nil || idx == 0 {
		return false
	}
	if v, ok := d.cache[idx]; ok {
		return v
	}
	v := false
	if style, err := d.f.GetStyle(idx); err == nil && style != nil {
		v = isDateNumFmt(style.NumFmt, style.CustomNumFmt)
	}
	d.cache[idx] = v
	return v
}

// isDateNumFmt reports whether a built-in format id or a custom format code
// renders a date or time.
func isDateNumFmt(id int, custom *string) bool {
	if custom != nil && *custom != "" {
		return isDateFormatCode(*custom)
	}
	switch {
	case id >= 14 && id <= 22, id >= 27 && id <= 36, id >= 45 && id <= 47, id >= 50 && id <= 58:
		return true
	}
	return false
}

func isDateFormatCode(code string) bool {
	inQuote := false
	inBracket := false
	for _, r := range strings.ToLower(code) {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '[':
			inBracket = true
		case r == ']':
			inBracket = false
		case inBracket:
		case r == 'y', r == 'd', r == 'h', r == 's', r == 'm':
			return true
		}
	}
	return false
}

// parseValue attempts to parse a string value as a number.
// Returns an int cell for integers, a float cell for decimals, or a text cell.
func parseValue(s string) models.RawCell {
	// Try integer first
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return models.IntCell(i)
	}
	// Try float; words like "NaN" or "Inf" stay text
	if !strings.ContainsAny(s, "0123456789") {
		return models.TextCell(s)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return models.FloatCell(f)
	}
	return models.TextCell(s)
}
