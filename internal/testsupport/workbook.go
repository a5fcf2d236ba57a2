// Package testsupport builds workbook fixtures for tests.
package testsupport

import (
	"testing"

	"github.com/xuri/excelize/v2"
)

// Sheet is one fixture worksheet. Each row is written from column A.
type Sheet struct {
	Name string
	Rows [][]interface{}
}

// Workbook returns the bytes of an .xlsx file holding sheets in order.
func Workbook(t testing.TB, sheets ...Sheet) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			if sheet.Name != "Sheet1" {
				if err := f.SetSheetName("Sheet1", sheet.Name); err != nil {
					t.Fatalf("SetSheetName failed: %v", err)
				}
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			t.Fatalf("NewSheet(%q) failed: %v", sheet.Name, err)
		}
		for r, row := range sheet.Rows {
			cell, _ := excelize.CoordinatesToCellName(1, r+1)
			values := row
			if err := f.SetSheetRow(sheet.Name, cell, &values); err != nil {
				t.Fatalf("SetSheetRow failed: %v", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer failed: %v", err)
	}
	return buf.Bytes()
}

// SingleSheet is Workbook with one sheet.
func SingleSheet(t testing.TB, name string, rows [][]interface{}) []byte {
	t.Helper()
	return Workbook(t, Sheet{Name: name, Rows: rows})
}
