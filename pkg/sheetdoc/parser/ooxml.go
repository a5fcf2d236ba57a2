package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ukaji3/sheetdoc-go/pkg/sheetdoc/models"
	"github.com/xuri/excelize/v2"
)

// RelaxedStrategy reads the OOXML package parts directly with a forgiving
// XML decoder. Corrupt parts are skipped instead of failing the workbook.
type RelaxedStrategy struct{}

func (RelaxedStrategy) Name() string { return StrategyRelaxed }
func (RelaxedStrategy) Family() Format { return FormatOOXML }

// sheetRef is one <sheet> entry of workbook.xml.
type sheetRef struct {
	name string
	rID  string
}

func (RelaxedStrategy) Decode(data []byte) (*models.RawWorkbook, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	workbookPath := findOfficeDocument(r)
	workbookXML, err := readZipFile(r, workbookPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", workbookPath, err)
	}
	refs := parseWorkbookSheets(workbookXML)

	baseDir := "xl"
	if i := strings.LastIndex(workbookPath, "/"); i >= 0 {
		baseDir = workbookPath[:i]
	}
	var sheetPaths map[string]string
	if relsXML, err := readZipFile(r, relsPathFor(workbookPath)); err == nil {
		sheetPaths = parseWorkbookRels(relsXML, baseDir)
	}

	cc := cellContext{date1904: parseDate1904(workbookXML)}
	if sharedXML, err := readZipFile(r, baseDir+"/sharedStrings.xml"); err == nil {
		cc.shared = parseSharedStrings(sharedXML)
	}
	if stylesXML, err := readZipFile(r, baseDir+"/styles.xml"); err == nil {
		cc.dateStyles = parseDateStyles(stylesXML)
	}

	wb := &models.RawWorkbook{Sheets: make([]models.RawSheet, 0, len(refs))}
	for i, ref := range refs {
		path, ok := sheetPaths[ref.rID]
		if !ok {
			path = fmt.Sprintf("%s/worksheets/sheet%d.xml", baseDir, i+1)
		}
		sheet := models.RawSheet{Name: ref.name}
		sheetXML, err := readZipFile(r, path)
		if err != nil {
			sheet.Err = fmt.Errorf("read %s: %w", path, err)
		} else {
			sheet.Rows, sheet.Err = parseSheetXML(sheetXML, cc)
		}
		wb.Sheets = append(wb.Sheets, sheet)
	}
	return wb, nil
}

// findOfficeDocument resolves the workbook part from the package
// relationships, defaulting to xl/workbook.xml.
func findOfficeDocument(r *zip.Reader) string {
	const fallback = "xl/workbook.xml"
	relsXML, err := readZipFile(r, "_rels/.rels")
	if err != nil {
		return fallback
	}
	decoder := newRelaxedDecoder(relsXML)
	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		se, ok := token.(xml.StartElement)
		if !ok || se.Name.Local != "Relationship" {
			continue
		}
		var relType, target string
		for _, attr := range se.Attr {
			switch attr.Name.Local {
			case "Type":
				relType = attr.Value
			case "Target":
				target = attr.Value
			}
		}
		if strings.HasSuffix(relType, "/officeDocument") && target != "" {
			return strings.TrimPrefix(target, "/")
		}
	}
	return fallback
}

func relsPathFor(partPath string) string {
	dir, file := "", partPath
	if i := strings.LastIndex(partPath, "/"); i >= 0 {
		dir, file = partPath[:i+1], partPath[i+1:]
	}
	return dir + "_rels/" + file + ".rels"
}

// readZipFile returns the content of the named entry. Names are matched
// case-insensitively and backslash separators are accepted.
func readZipFile(r *zip.Reader, name string) ([]byte, error) {
	want := strings.ToLower(name)
	for _, f := range r.File {
		got := strings.ToLower(strings.TrimPrefix(strings.ReplaceAll(f.Name, `\`, "/"), "/"))
		if got != want {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%w: %s", ErrPartMissing, name)
}

func readElementText(decoder *xml.Decoder) (string, error) {
	var text strings.Builder
	depth := 1
	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			return text.String(), err
		}
		switch t := token.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return text.String(), nil
}

func resolveRelativePath(target, baseDir string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	dir := baseDir
	for strings.HasPrefix(target, "../") {
		target = strings.TrimPrefix(target, "../")
		if i := strings.LastIndex(dir, "/"); i >= 0 {
			dir = dir[:i]
		} else {
			dir = ""
		}
	}
	if dir == "" {
		return target
	}
	return dir + "/" + target
}

func parseWorkbookSheets(data []byte) []sheetRef {
	var refs []sheetRef
	decoder := newRelaxedDecoder(data)

	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		if se, ok := token.(xml.StartElement); ok && se.Name.Local == "sheet" {
			var ref sheetRef
			for _, attr := range se.Attr {
				switch attr.Name.Local {
				case "name":
					ref.name = attr.Value
				case "id":
					ref.rID = attr.Value
				}
			}
			if ref.name != "" {
				refs = append(refs, ref)
			}
		}
	}

	return refs
}

// parseDate1904 reports whether workbook.xml selects the 1904 date system.
func parseDate1904(data []byte) bool {
	decoder := newRelaxedDecoder(data)
	for {
		token, err := decoder.Token()
		if err != nil {
			return false
		}
		se, ok := token.(xml.StartElement)
		if !ok || se.Name.Local != "workbookPr" {
			continue
		}
		for _, attr := range se.Attr {
			if attr.Name.Local == "date1904" {
				v := strings.TrimSpace(attr.Value)
				return v == "1" || strings.EqualFold(v, "true")
			}
		}
		return false
	}
}

// parseDateStyles returns, per cellXfs index, whether the style renders a
// date. Unknown number formats count as not a date.
func parseDateStyles(data []byte) []bool {
	custom := make(map[int]string)
	var xfFormats []int
	inCellXfs := false
	decoder := newRelaxedDecoder(data)

	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "numFmt":
				id, code := -1, ""
				for _, attr := range t.Attr {
					switch attr.Name.Local {
					case "numFmtId":
						if n, err := strconv.Atoi(strings.TrimSpace(attr.Value)); err == nil {
							id = n
						}
					case "formatCode":
						code = attr.Value
					}
				}
				if id >= 0 {
					custom[id] = code
				}
			case "cellXfs":
				inCellXfs = true
			case "xf":
				if !inCellXfs {
					continue
				}
				id := 0
				for _, attr := range t.Attr {
					if attr.Name.Local == "numFmtId" {
						if n, err := strconv.Atoi(strings.TrimSpace(attr.Value)); err == nil {
							id = n
						}
					}
				}
				xfFormats = append(xfFormats, id)
			}
		case xml.EndElement:
			if t.Name.Local == "cellXfs" {
				inCellXfs = false
			}
		}
	}

	dates := make([]bool, len(xfFormats))
	for i, id := range xfFormats {
		var code *string
		if c, ok := custom[id]; ok {
			code = &c
		}
		dates[i] = isDateNumFmt(id, code)
	}
	return dates
}

func parseWorkbookRels(data []byte, baseDir string) map[string]string {
	result := make(map[string]string) // rId -> part path
	decoder := newRelaxedDecoder(data)

	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		if se, ok := token.(xml.StartElement); ok && se.Name.Local == "Relationship" {
			var rID, target string
			for _, attr := range se.Attr {
				switch attr.Name.Local {
				case "Id":
					rID = attr.Value
				case "Target":
					target = attr.Value
				}
			}
			if rID != "" && strings.Contains(strings.ToLower(target), "worksheet") {
				result[rID] = resolveRelativePath(target, baseDir)
			}
		}
	}

	return result
}

// parseSharedStrings returns the shared string table; rich text runs are
// concatenated and phonetic runs skipped.
func parseSharedStrings(data []byte) []string {
	var table []string
	decoder := newRelaxedDecoder(data)
	var current *strings.Builder

	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "si":
				current = &strings.Builder{}
			case "rPh":
				_ = decoder.Skip()
			case "t":
				if current != nil {
					text, _ := readElementText(decoder)
					current.WriteString(text)
				}
			}
		case xml.EndElement:
			if t.Name.Local == "si" && current != nil {
				table = append(table, current.String())
				current = nil
			}
		}
	}

	return table
}

// rawCell is a <c> element before type resolution.
type rawCell struct {
	ref    string
	typ    string
	style  int
	value  string
	inline string
}

// cellContext carries the workbook-level tables cells are resolved against.
type cellContext struct {
	shared     []string
	dateStyles []bool
	date1904   bool
}

func (cc cellContext) isDate(style int) bool {
	return style > 0 && style < len(cc.dateStyles) && cc.dateStyles[style]
}

// parseSheetXML extracts the cell grid of a worksheet part. A decoding error
// after some rows were read keeps those rows. Row numbers beyond the sheet
// limit end the part the same way.
func parseSheetXML(data []byte, cc cellContext) ([][]models.RawCell, error) {
	decoder := newRelaxedDecoder(data)
	var rows [][]models.RawCell
	rowIdx := -1
	nextCol := 0

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			if len(rows) > 0 {
				break
			}
			return nil, err
		}
		se, ok := token.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "row":
			rowIdx++
			for _, attr := range se.Attr {
				if attr.Name.Local == "r" {
					if n, err := strconv.Atoi(attr.Value); err == nil && n-1 >= rowIdx {
						rowIdx = n - 1
					}
				}
			}
			if rowIdx >= excelize.TotalRows {
				if len(rows) > 0 {
					return trimTrailingEmptyRows(rows), nil
				}
				return nil, fmt.Errorf("%w: row %d", ErrRowOutOfRange, rowIdx+1)
			}
			for len(rows) <= rowIdx {
				rows = append(rows, nil)
			}
			nextCol = 0
		case "c":
			if rowIdx < 0 {
				rowIdx = 0
				rows = append(rows, nil)
			}
			rc := parseCellElement(decoder, se)
			col := nextCol
			if rc.ref != "" {
				if c, _, err := excelize.CellNameToCoordinates(rc.ref); err == nil {
					col = c - 1
				}
			}
			if col >= excelize.MaxColumns {
				continue
			}
			nextCol = col + 1
			cell := resolveCell(rc, cc)
			if cell.IsAbsent() {
				continue
			}
			for len(rows[rowIdx]) <= col {
				rows[rowIdx] = append(rows[rowIdx], models.RawCell{})
			}
			rows[rowIdx][col] = cell
		}
	}

	return trimTrailingEmptyRows(rows), nil
}

func parseCellElement(decoder *xml.Decoder, start xml.StartElement) rawCell {
	var rc rawCell
	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "r":
			rc.ref = attr.Value
		case "t":
			rc.typ = attr.Value
		case "s":
			if n, err := strconv.Atoi(strings.TrimSpace(attr.Value)); err == nil {
				rc.style = n
			}
		}
	}

	depth := 1
	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			return rc
		}
		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "v":
				rc.value, _ = readElementText(decoder)
			case "t":
				text, _ := readElementText(decoder)
				rc.inline += text
			case "rPh", "f":
				_ = decoder.Skip()
			default:
				depth++
			}
		case xml.EndElement:
			depth--
		}
	}
	return rc
}

func resolveCell(rc rawCell, cc cellContext) models.RawCell {
	switch rc.typ {
	case "s":
		idx, err := strconv.Atoi(strings.TrimSpace(rc.value))
		if err != nil || idx < 0 || idx >= len(cc.shared) {
			return models.Absent()
		}
		return models.TextCell(cc.shared[idx])
	case "inlineStr":
		if rc.inline == "" {
			return models.Absent()
		}
		return models.TextCell(rc.inline)
	case "str", "e":
		if rc.value == "" {
			return models.Absent()
		}
		return models.TextCell(rc.value)
	case "b":
		v := strings.TrimSpace(rc.value)
		if v == "" {
			return models.Absent()
		}
		return models.BoolCell(v == "1" || strings.EqualFold(v, "true"))
	case "d":
		if t, err := time.Parse(time.RFC3339, rc.value); err == nil {
			return models.TimeCell(t)
		}
		if t, err := time.Parse("2006-01-02T15:04:05", rc.value); err == nil {
			return models.TimeCell(t)
		}
		if rc.value == "" {
			return models.Absent()
		}
		return models.TextCell(rc.value)
	default:
		v := strings.TrimSpace(rc.value)
		if v == "" {
			return models.Absent()
		}
		cell := parseValue(v)
		if cc.isDate(rc.style) {
			return serialDate(cell, cc.date1904)
		}
		return cell
	}
}
