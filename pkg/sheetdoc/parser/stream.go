package parser

import (
	"fmt"
	"strings"

	"github.com/thedatashed/xlsxreader"
	"github.com/ukaji3/sheetdoc-go/pkg/sheetdoc/models"
	"github.com/xuri/excelize/v2"
)

// StreamStrategy reads the raw row stream with xlsxreader. No type inference
// is applied: every value stays text except booleans.
type StreamStrategy struct{}

func (StreamStrategy) Name() string { return StrategyStream }
func (StreamStrategy) Family() Format { return FormatOOXML }

func (StreamStrategy) Decode(data []byte) (*models.RawWorkbook, error) {
	x, err := xlsxreader.NewReader(data)
	if err != nil {
		return nil, err
	}

	wb := &models.RawWorkbook{Sheets: make([]models.RawSheet, 0, len(x.Sheets))}
	for _, sheetName := range x.Sheets {
		var rows [][]models.RawCell
		var sheetErr error
		// Drain the channel fully so the reader goroutine exits.
		for row := range x.ReadRows(sheetName) {
			if row.Error != nil {
				if sheetErr == nil {
					sheetErr = row.Error
				}
				continue
			}
			idx := row.Index - 1
			if idx >= excelize.TotalRows {
				if sheetErr == nil {
					sheetErr = fmt.Errorf("%w: row %d", ErrRowOutOfRange, row.Index)
				}
				continue
			}
			if idx < len(rows) {
				idx = len(rows)
			}
			for len(rows) < idx {
				rows = append(rows, nil)
			}
			rows = append(rows, streamCells(row.Cells))
		}
		sheet := models.RawSheet{Name: sheetName, Rows: trimTrailingEmptyRows(rows)}
		if len(sheet.Rows) == 0 && sheetErr != nil {
			sheet.Err = sheetErr
		}
		wb.Sheets = append(wb.Sheets, sheet)
	}
	return wb, nil
}

func streamCells(cells []xlsxreader.Cell) []models.RawCell {
	var out []models.RawCell
	next := 0
	for _, cell := range cells {
		col := next
		if n, err := excelize.ColumnNameToNumber(cell.Column); err == nil {
			col = n - 1
		}
		for len(out) <= col {
			out = append(out, models.RawCell{})
		}
		next = col + 1
		if cell.Value == "" {
			continue
		}
		if cell.Type == xlsxreader.TypeBoolean {
			out[col] = models.BoolCell(cell.Value == "1" || strings.EqualFold(cell.Value, "true"))
			continue
		}
		out[col] = models.TextCell(cell.Value)
	}
	return out
}
