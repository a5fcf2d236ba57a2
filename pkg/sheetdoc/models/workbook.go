package models

// RawSheet is one sheet as extracted by a decoder, before normalization.
type RawSheet struct {
	// Name is the sheet display name.
	Name string
	// Rows holds the cell grid; rows may have different lengths.
	Rows [][]RawCell
	// Err is set when the decoder could open the workbook but not this sheet.
	Err error
}

// RowCount returns the number of rows in the sheet.
func (s RawSheet) RowCount() int { return len(s.Rows) }

// RawWorkbook is the decoder output: sheets in original workbook order.
type RawWorkbook struct {
	Sheets []RawSheet
}

// HasRows reports whether any sheet holds at least one row.
func (w *RawWorkbook) HasRows() bool {
	if w == nil {
		return false
	}
	for _, s := range w.Sheets {
		if len(s.Rows) > 0 {
			return true
		}
	}
	return false
}

// TotalRows returns the row count summed over all sheets.
func (w *RawWorkbook) TotalRows() int {
	if w == nil {
		return 0
	}
	n := 0
	for _, s := range w.Sheets {
		n += len(s.Rows)
	}
	return n
}
