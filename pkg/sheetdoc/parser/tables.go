package parser

import (
	"fmt"

	"github.com/ukaji3/sheetdoc-go/pkg/sheetdoc/models"
	"github.com/xuri/excelize/v2"
)

// TableBounds describes the populated region of a raw sheet.
type TableBounds struct {
	// Range is the bounding box in A1 notation, e.g. "A1:D10".
	Range string
	// NonEmpty is the number of populated cells inside Range.
	NonEmpty int
	// Density is NonEmpty divided by the cell count of Range.
	Density float64
}

// DetectBounds returns the bounding box of non-absent cells.
// ok is false when the sheet holds no value at all.
func DetectBounds(rows [][]models.RawCell) (bounds TableBounds, ok bool) {
	minRow, maxRow, minCol, maxCol := findDataBounds(rows)
	if minRow < 0 {
		return TableBounds{}, false
	}

	totalCells := (maxRow - minRow + 1) * (maxCol - minCol + 1)
	nonEmptyCells := countNonEmptyCells(rows, minRow, maxRow, minCol, maxCol)

	startCell, _ := excelize.CoordinatesToCellName(minCol+1, minRow+1)
	endCell, _ := excelize.CoordinatesToCellName(maxCol+1, maxRow+1)

	return TableBounds{
		Range:    fmt.Sprintf("%s:%s", startCell, endCell),
		NonEmpty: nonEmptyCells,
		Density:  float64(nonEmptyCells) / float64(totalCells),
	}, true
}

// findDataBounds finds the bounding box of non-absent cells.
func findDataBounds(rows [][]models.RawCell) (minRow, maxRow, minCol, maxCol int) {
	minRow, maxRow = -1, -1
	minCol, maxCol = -1, -1

	for rowIdx, row := range rows {
		for colIdx, cell := range row {
			if isBlank(cell) {
				continue
			}
			if minRow < 0 || rowIdx < minRow {
				minRow = rowIdx
			}
			if maxRow < 0 || rowIdx > maxRow {
				maxRow = rowIdx
			}
			if minCol < 0 || colIdx < minCol {
				minCol = colIdx
			}
			if maxCol < 0 || colIdx > maxCol {
				maxCol = colIdx
			}
		}
	}

	return
}

// countNonEmptyCells counts non-absent cells within bounds.
func countNonEmptyCells(rows [][]models.RawCell, minRow, maxRow, minCol, maxCol int) int {
	count := 0
	for rowIdx := minRow; rowIdx <= maxRow && rowIdx < len(rows); rowIdx++ {
		row := rows[rowIdx]
		for colIdx := minCol; colIdx <= maxCol && colIdx < len(row); colIdx++ {
			if !isBlank(row[colIdx]) {
				count++
			}
		}
	}
	return count
}

func isBlank(c models.RawCell) bool {
	return c.IsAbsent() || (c.Kind == models.KindText && c.Text == "")
}

// trimTrailingEmptyRows drops rows without any value from the end of a grid.
func trimTrailingEmptyRows(rows [][]models.RawCell) [][]models.RawCell {
	end := len(rows)
	for end > 0 && rowIsBlank(rows[end-1]) {
		end--
	}
	return rows[:end]
}

func rowIsBlank(row []models.RawCell) bool {
	for _, c := range row {
		if !isBlank(c) {
			return false
		}
	}
	return true
}
