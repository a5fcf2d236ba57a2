package parser

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/extrame/xls"
	"github.com/richardlehane/mscfb"
	"github.com/ukaji3/sheetdoc-go/pkg/sheetdoc/models"
	"golang.org/x/text/encoding/ianaindex"
)

// XLSStrategy reads legacy BIFF workbooks with extrame/xls. The library
// renders cells as display text: formulas have no cached value and numbers
// with custom formats come back reformatted, so it only backs up
// BIFFStrategy.
type XLSStrategy struct {
	name    string
	charset string
}

// NewXLSStrategy returns a BIFF reader that decodes 8-bit strings with
// charset, an IANA name or "utf-8".
func NewXLSStrategy(name, charset string) XLSStrategy {
	return XLSStrategy{name: name, charset: charset}
}

func (s XLSStrategy) Name() string { return s.name }
func (XLSStrategy) Family() Format { return FormatBIFF }
func (s XLSStrategy) Charset() string { return s.charset }

// Decode validates the OLE2 container before handing it to the BIFF reader,
// which is not robust against arbitrary input.
func (s XLSStrategy) Decode(data []byte) (*models.RawWorkbook, error) {
	if err := checkCompoundFile(data); err != nil {
		return nil, err
	}
	book, err := xls.OpenReader(bytes.NewReader(data), s.charset)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, ErrNoResult
	}

	wb := &models.RawWorkbook{}
	for i := 0; i < book.NumSheets(); i++ {
		sheet := book.GetSheet(i)
		if sheet == nil {
			wb.Sheets = append(wb.Sheets, models.RawSheet{
				Name: defaultSheetName(i),
				Err:  fmt.Errorf("sheet %d could not be read", i+1),
			})
			continue
		}
		rows := make([][]models.RawCell, 0, int(sheet.MaxRow)+1)
		for r := 0; r <= int(sheet.MaxRow); r++ {
			row := sheetRow(sheet, r)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			last := row.LastCol()
			if last < 0 {
				last = 0
			}
			cells := make([]models.RawCell, last)
			for c := row.FirstCol(); c < last; c++ {
				if c < 0 {
					continue
				}
				cells[c] = extrameCell(s.recode(row.Col(c)))
			}
			rows = append(rows, cells)
		}
		wb.Sheets = append(wb.Sheets, models.RawSheet{
			Name: s.recode(sheet.Name),
			Rows: trimTrailingEmptyRows(rows),
		})
	}
	return wb, nil
}

// sheetRow returns nil for rows the sheet holds no record for; extrame's
// WorkSheet.Row dereferences the missing entry.
func sheetRow(sheet *xls.WorkSheet, r int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(r)
}

// recode reinterprets text extrame widened byte by byte from 8-bit storage.
// Strings holding any rune above U+00FF were stored as UTF-16 and are kept.
func (s XLSStrategy) recode(v string) string {
	raw, ok := narrowBytes(v)
	if !ok {
		return v
	}
	if strings.EqualFold(s.charset, "utf-8") {
		if utf8.Valid(raw) {
			return string(raw)
		}
		return v
	}
	enc, err := ianaindex.IANA.Encoding(s.charset)
	if err != nil || enc == nil {
		return v
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return v
	}
	return string(out)
}

// narrowBytes returns the runes of v as bytes when all fit in one byte and
// at least one is outside ASCII.
func narrowBytes(v string) ([]byte, bool) {
	high := false
	raw := make([]byte, 0, len(v))
	for _, r := range v {
		if r > 0xFF {
			return nil, false
		}
		if r >= 0x80 {
			high = true
		}
		raw = append(raw, byte(r))
	}
	return raw, high
}

// formulaPlaceholder is what extrame/xls returns for every formula cell.
const formulaPlaceholder = "FormulaCol"

func extrameCell(v string) models.RawCell {
	if v == "" || v == formulaPlaceholder {
		return models.Absent()
	}
	return models.TextCell(v)
}

func defaultSheetName(i int) string {
	return fmt.Sprintf("Sheet%d", i+1)
}

// checkCompoundFile verifies data is an OLE2 file holding a workbook stream.
func checkCompoundFile(data []byte) error {
	doc, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotCompoundFile, err)
	}
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		switch entry.Name {
		case "Workbook", "Book":
			return nil
		}
	}
	return ErrNoWorkbookStream
}
