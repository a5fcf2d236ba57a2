package parser

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"

	"github.com/ukaji3/sheetdoc-go/internal/testsupport"
	"github.com/ukaji3/sheetdoc-go/pkg/sheetdoc/models"
)

func buildPackage(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range parts {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

const relaxedRootRels = `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="xl/workbook.xml"/>
</Relationships>`

const relaxedWorkbook = `<?xml version="1.0" encoding="UTF-8"?>
<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<sheets>
<sheet name="Data" sheetId="1" r:id="rId1"/>
<sheet name="Legacy" sheetId="2" r:id="rId2"/>
<sheet name="Broken" sheetId="3" r:id="rId3"/>
</sheets>
</workbook>`

const relaxedWorkbookRels = `<?xml version="1.0" encoding="UTF-8"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet1.xml"/>
<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="/xl/worksheets/sheet2.xml"/>
<Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/missing.xml"/>
<Relationship Id="rId4" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/sharedStrings" Target="sharedStrings.xml"/>
</Relationships>`

const relaxedSharedStrings = `<?xml version="1.0" encoding="UTF-8"?>
<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
<si><t>Name</t></si>
<si><r><t>Ag</t></r><r><t>e</t></r></si>
<si><t>Alice</t><rPh sb="0" eb="1"><t>ignored</t></rPh></si>
</sst>`

const relaxedSheet1 = `<?xml version="1.0" encoding="UTF-8"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
<sheetData>
<row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" t="s"><v>1</v></c></row>
<row r="3"><c r="A3" t="s"><v>2</v></c><c r="B3"><v>30</v></c><c r="D3" t="inlineStr"><is><t>extra &nbsp;</t></is></c></row>
<row r="4"><c r="A4" t="b"><v>1</v></c><c r="B4" t="str"><f>A1</f><v>Name</v></c></row>
<row r="5"><c r="A5" t="s"><v>99</v></c></row>
</sheetData>
</worksheet>`

// singleSheetPackage builds a package with one worksheet named Data.
func singleSheetPackage(t *testing.T, sheetXML, stylesXML string) []byte {
	t.Helper()
	return buildPackage(t, map[string]string{
		"_rels/.rels":                relaxedRootRels,
		"xl/workbook.xml":            `<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><sheets><sheet name="Data" sheetId="1" r:id="rId1"/></sheets></workbook>`,
		"xl/_rels/workbook.xml.rels": `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet1.xml"/></Relationships>`,
		"xl/styles.xml":              stylesXML,
		"xl/worksheets/sheet1.xml":   sheetXML,
	})
}

const minimalStyles = `<styleSheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><cellXfs count="1"><xf numFmtId="0"/></cellXfs></styleSheet>`

const hugeRowSheet = `<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>
<row r="1"><c r="A1" t="inlineStr"><is><t>ok</t></is></c></row>
<row r="30000000"><c r="A30000000"><v>1</v></c></row>
</sheetData></worksheet>`

const onlyHugeRowSheet = `<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>
<row r="30000000"><c r="A30000000"><v>1</v></c></row>
</sheetData></worksheet>`

const datedStyles = `<styleSheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
<numFmts count="2"><numFmt numFmtId="164" formatCode="yyyy\-mm\-dd\ hh:mm"/><numFmt numFmtId="165" formatCode="&quot;day&quot;\ 0.00"/></numFmts>
<cellStyleXfs count="1"><xf numFmtId="22"/></cellStyleXfs>
<cellXfs count="4"><xf numFmtId="0"/><xf numFmtId="14" applyNumberFormat="1"/><xf numFmtId="164" applyNumberFormat="1"/><xf numFmtId="165" applyNumberFormat="1"/></cellXfs>
</styleSheet>`

func TestRelaxedStrategyDecode(t *testing.T) {
	legacy := "<?xml version=\"1.0\" encoding=\"windows-1252\"?>\n" +
		"<worksheet><sheetData><row r=\"1\"><c r=\"A1\" t=\"inlineStr\"><is><t>caf\xe9</t></is></c></row></sheetData></worksheet>"

	data := buildPackage(t, map[string]string{
		"_rels/.rels":                relaxedRootRels,
		"xl/workbook.xml":            relaxedWorkbook,
		"xl/_rels/workbook.xml.rels": relaxedWorkbookRels,
		"xl/sharedStrings.xml":       relaxedSharedStrings,
		"xl/worksheets/sheet1.xml":   relaxedSheet1,
		"xl/worksheets/sheet2.xml":   legacy,
	})

	wb, err := RelaxedStrategy{}.Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(wb.Sheets) != 3 {
		t.Fatalf("expected 3 sheets, got %d", len(wb.Sheets))
	}

	data1 := wb.Sheets[0]
	if data1.Name != "Data" || data1.Err != nil {
		t.Fatalf("unexpected first sheet: %q %v", data1.Name, data1.Err)
	}
	if len(data1.Rows) != 4 {
		t.Fatalf("expected 4 rows (trailing unresolved row trimmed), got %d", len(data1.Rows))
	}
	if got := data1.Rows[0]; len(got) != 2 || got[0].Text != "Name" || got[1].Text != "Age" {
		t.Errorf("unexpected header row: %#v", got)
	}
	if len(data1.Rows[1]) != 0 {
		t.Errorf("expected gap row to be empty, got %#v", data1.Rows[1])
	}
	row3 := data1.Rows[2]
	if len(row3) != 4 {
		t.Fatalf("expected 4 cells in row 3, got %d", len(row3))
	}
	if row3[0] != models.TextCell("Alice") {
		t.Errorf("expected phonetic run skipped, got %#v", row3[0])
	}
	if row3[1] != models.IntCell(30) {
		t.Errorf("expected int 30, got %#v", row3[1])
	}
	if !row3[2].IsAbsent() {
		t.Errorf("expected C3 absent, got %#v", row3[2])
	}
	if row3[3].Text != "extra \u00a0" {
		t.Errorf("expected HTML entity resolved, got %q", row3[3].Text)
	}
	if row4 := data1.Rows[3]; row4[0] != models.BoolCell(true) || row4[1] != models.TextCell("Name") {
		t.Errorf("unexpected row 4: %#v", row4)
	}

	if got := wb.Sheets[1]; got.Err != nil || got.Rows[0][0].Text != "café" {
		t.Errorf("expected windows-1252 text decoded, got %#v", got)
	}

	if broken := wb.Sheets[2]; !errors.Is(broken.Err, ErrPartMissing) {
		t.Errorf("expected missing part error, got %v", broken.Err)
	}
}

func TestRelaxedStrategyRepairsInvalidUTF8(t *testing.T) {
	sheet := "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n" +
		"<worksheet><sheetData><row r=\"1\"><c r=\"A1\" t=\"inlineStr\"><is><t>a\xffb</t></is></c></row></sheetData></worksheet>"
	data := buildPackage(t, map[string]string{
		"xl/workbook.xml":          `<workbook><sheets><sheet name="Only" sheetId="1" r:id="rId1"/></sheets></workbook>`,
		"xl/worksheets/sheet1.xml": sheet,
	})

	wb, err := RelaxedStrategy{}.Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got := wb.Sheets[0].Rows[0][0].Text; got != "a\uFFFDb" {
		t.Errorf("expected replacement character, got %q", got)
	}
}

func TestRelaxedStrategyReadsExcelizeOutput(t *testing.T) {
	data := testsupport.Workbook(t, testsupport.Sheet{Name: "People", Rows: [][]interface{}{
		{"Name", "Age"},
		{"Alice", 30},
	}})

	wb, err := RelaxedStrategy{}.Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(wb.Sheets) != 1 || wb.Sheets[0].Name != "People" {
		t.Fatalf("unexpected sheets: %#v", wb.Sheets)
	}
	rows := wb.Sheets[0].Rows
	if len(rows) != 2 || rows[0][0].Text != "Name" || rows[1][1] != models.IntCell(30) {
		t.Errorf("unexpected rows: %#v", rows)
	}
}

func TestRelaxedStrategyRejectsNonZip(t *testing.T) {
	if _, err := (RelaxedStrategy{}).Decode([]byte("plain text")); err == nil {
		t.Error("expected error for non-zip input")
	}
}

func TestResolveRelativePath(t *testing.T) {
	tests := []struct {
		target   string
		baseDir  string
		expected string
	}{
		{"worksheets/sheet1.xml", "xl", "xl/worksheets/sheet1.xml"},
		{"/xl/worksheets/sheet1.xml", "xl", "xl/worksheets/sheet1.xml"},
		{"../media/image1.png", "xl/drawings", "xl/media/image1.png"},
		{"../../a.xml", "xl/drawings", "a.xml"},
		{"sheet.xml", "", "sheet.xml"},
	}

	for _, tt := range tests {
		if got := resolveRelativePath(tt.target, tt.baseDir); got != tt.expected {
			t.Errorf("resolveRelativePath(%q, %q) = %q, expected %q", tt.target, tt.baseDir, got, tt.expected)
		}
	}
}

func TestRelsPathFor(t *testing.T) {
	tests := map[string]string{
		"xl/workbook.xml":          "xl/_rels/workbook.xml.rels",
		"workbook.xml":             "_rels/workbook.xml.rels",
		"xl/worksheets/sheet1.xml": "xl/worksheets/_rels/sheet1.xml.rels",
	}
	for in, expected := range tests {
		if got := relsPathFor(in); got != expected {
			t.Errorf("relsPathFor(%q) = %q, expected %q", in, got, expected)
		}
	}
}

func TestDeclaredEncoding(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`<?xml version="1.0" encoding="UTF-8"?><a/>`, "utf-8"},
		{`<?xml version='1.0' encoding='Windows-1252'?><a/>`, "windows-1252"},
		{`<a/>`, ""},
	}
	for _, tt := range tests {
		if got := declaredEncoding([]byte(tt.input)); got != tt.expected {
			t.Errorf("declaredEncoding(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestRelaxedStrategyStopsAtRowLimit(t *testing.T) {
	wb, err := RelaxedStrategy{}.Decode(singleSheetPackage(t, hugeRowSheet, minimalStyles))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	sheet := wb.Sheets[0]
	if sheet.Err != nil {
		t.Fatalf("expected rows before the limit kept, got %v", sheet.Err)
	}
	if len(sheet.Rows) != 1 || sheet.Rows[0][0] != models.TextCell("ok") {
		t.Errorf("expected one row, got %d", len(sheet.Rows))
	}
}

func TestRelaxedStrategyRejectsOutOfRangeRow(t *testing.T) {
	wb, err := RelaxedStrategy{}.Decode(singleSheetPackage(t, onlyHugeRowSheet, minimalStyles))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if sheet := wb.Sheets[0]; !errors.Is(sheet.Err, ErrRowOutOfRange) || len(sheet.Rows) != 0 {
		t.Errorf("expected ErrRowOutOfRange and no rows, got %v (%d rows)", sheet.Err, len(sheet.Rows))
	}
}

func TestRelaxedStrategyReadsDateStyles(t *testing.T) {
	sheet := `<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>
<row r="1"><c r="A1" s="1"><v>45352</v></c><c r="B1" s="2"><v>45352.5</v></c><c r="C1" s="3"><v>45352</v></c><c r="D1"><v>45352</v></c><c r="E1" s="9"><v>7</v></c></row>
</sheetData></worksheet>`

	wb, err := RelaxedStrategy{}.Decode(singleSheetPackage(t, sheet, datedStyles))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	row := wb.Sheets[0].Rows[0]
	if len(row) != 5 {
		t.Fatalf("expected 5 cells, got %#v", row)
	}
	if row[0].Kind != models.KindTime || row[0].Time.Format("2006-01-02") != "2024-03-01" {
		t.Errorf("expected built-in date format applied, got %#v", row[0])
	}
	if row[1].Kind != models.KindTime || row[1].Time.Format("2006-01-02 15:04") != "2024-03-01 12:00" {
		t.Errorf("expected custom date-time format applied, got %#v", row[1])
	}
	if row[2] != models.IntCell(45352) {
		t.Errorf("expected quoted letters ignored, got %#v", row[2])
	}
	if row[3] != models.IntCell(45352) {
		t.Errorf("expected unstyled serial kept, got %#v", row[3])
	}
	if row[4] != models.IntCell(7) {
		t.Errorf("expected unknown style index ignored, got %#v", row[4])
	}
}

func TestParseDateStyles(t *testing.T) {
	got := parseDateStyles([]byte(datedStyles))
	expected := []bool{false, true, true, false}
	if len(got) != len(expected) {
		t.Fatalf("expected %d cellXfs entries (cellStyleXfs skipped), got %v", len(expected), got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("style %d: got %v, expected %v", i, got[i], expected[i])
		}
	}
}

func TestParseDate1904(t *testing.T) {
	tests := map[string]bool{
		`<workbook><workbookPr date1904="1"/></workbook>`:    true,
		`<workbook><workbookPr date1904="true"/></workbook>`: true,
		`<workbook><workbookPr date1904="0"/></workbook>`:    false,
		`<workbook><workbookPr/></workbook>`:                 false,
		`<workbook/>`:                                        false,
	}
	for in, expected := range tests {
		if got := parseDate1904([]byte(in)); got != expected {
			t.Errorf("parseDate1904(%q) = %v, expected %v", in, got, expected)
		}
	}
}
