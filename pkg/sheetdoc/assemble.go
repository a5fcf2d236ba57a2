package sheetdoc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ukaji3/sheetdoc-go/pkg/sheetdoc/models"
)

// AssembleSheet turns raw rows into a header and records.
//
// Leading blank rows are skipped and the first remaining row becomes the
// header. Blank header cells are named "Unnamed: i" after their 0-based column
// and repeated names get ".1", ".2", ... suffixes, so every column key is
// unique. Short rows are padded with "", cells beyond the header are dropped,
// and rows that normalize to all "" produce no record.
func AssembleSheet(name string, rows [][]models.RawCell, n Normalizer) models.Sheet {
	sheet := emptySheet(name)

	start := 0
	for start < len(rows) && rowNormalizesBlank(rows[start], n) {
		start++
	}
	if start == len(rows) {
		return sheet
	}

	sheet.Header = buildHeader(rows[start], n)
	for _, row := range rows[start+1:] {
		record, blank := buildRecord(sheet.Header, row, n)
		if blank {
			continue
		}
		sheet.Records = append(sheet.Records, record)
	}
	return sheet
}

// AssembleSheetSafe is AssembleSheet with panics converted into a
// *SheetProcessingError. On error the returned sheet is empty.
func AssembleSheetSafe(name string, rows [][]models.RawCell, n Normalizer) (sheet models.Sheet, err error) {
	defer func() {
		if r := recover(); r != nil {
			sheet = emptySheet(name)
			err = &SheetProcessingError{Sheet: name, Err: fmt.Errorf("%w: %v", ErrSheetPanic, r)}
		}
	}()
	return AssembleSheet(name, rows, n), nil
}

func emptySheet(name string) models.Sheet {
	return models.Sheet{Name: name, Records: []models.Record{}}
}

func buildHeader(row []models.RawCell, n Normalizer) []string {
	header := make([]string, len(row))
	used := make(map[string]bool, len(row))
	for i, c := range row {
		name := strings.TrimSpace(n.Normalize(c))
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		header[i] = uniqueName(name, used)
		used[header[i]] = true
	}
	return header
}

// uniqueName returns name, or name with the first free ".k" suffix.
func uniqueName(name string, used map[string]bool) string {
	if !used[name] {
		return name
	}
	for k := 1; ; k++ {
		candidate := name + "." + strconv.Itoa(k)
		if !used[candidate] {
			return candidate
		}
	}
}

func buildRecord(header []string, row []models.RawCell, n Normalizer) (models.Record, bool) {
	record := make(models.Record, len(header))
	blank := true
	for i, col := range header {
		var value string
		if i < len(row) {
			value = n.Normalize(row[i])
		}
		if value != "" {
			blank = false
		}
		record[i] = models.Field{Name: col, Value: value}
	}
	return record, blank
}

func rowNormalizesBlank(row []models.RawCell, n Normalizer) bool {
	for _, c := range row {
		if n.Normalize(c) != "" {
			return false
		}
	}
	return true
}
