package parser

import (
	"github.com/tealeg/xlsx"
	"github.com/ukaji3/sheetdoc-go/pkg/sheetdoc/models"
)

// DefaultNATokens are the cell texts NullTokenStrategy reads as absent.
var DefaultNATokens = []string{"", " ", "N/A", "n/a", "NULL", "null"}

// NullTokenStrategy reads OOXML workbooks with tealeg/xlsx and treats
// NA tokens as missing cells at decode time.
type NullTokenStrategy struct {
	// Tokens overrides DefaultNATokens when non-nil.
	Tokens []string
}

func (NullTokenStrategy) Name() string { return StrategyNullToken }
func (NullTokenStrategy) Family() Format { return FormatOOXML }

func (s NullTokenStrategy) Decode(data []byte) (*models.RawWorkbook, error) {
	file, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, err
	}

	tokens := s.Tokens
	if tokens == nil {
		tokens = DefaultNATokens
	}
	na := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		na[t] = true
	}

	wb := &models.RawWorkbook{Sheets: make([]models.RawSheet, 0, len(file.Sheets))}
	for _, sheet := range file.Sheets {
		if sheet == nil {
			continue
		}
		rows := make([][]models.RawCell, 0, len(sheet.Rows))
		for _, row := range sheet.Rows {
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			cells := make([]models.RawCell, len(row.Cells))
			for i, cell := range row.Cells {
				if cell == nil || na[cell.Value] {
					continue
				}
				cells[i] = tealegCell(cell, file.Date1904)
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

func tealegCell(cell *xlsx.Cell, date1904 bool) models.RawCell {
	switch cell.Type() {
	case xlsx.CellTypeBool:
		return models.BoolCell(cell.Bool())
	case xlsx.CellTypeNumeric:
		v := parseValue(cell.Value)
		if cell.IsTime() {
			return serialDate(v, date1904)
		}
		return v
	default:
		return models.TextCell(cell.Value)
	}
}
