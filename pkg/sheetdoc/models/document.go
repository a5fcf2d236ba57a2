package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Document is the decoded workbook: sheets in original workbook order.
type Document struct {
	Sheets []Sheet
}

// SheetNames returns the sheet names in order.
func (d Document) SheetNames() []string {
	names := make([]string, len(d.Sheets))
	for i, s := range d.Sheets {
		names[i] = s.Name
	}
	return names
}

// Sheet returns the first sheet called name.
func (d Document) Sheet(name string) (Sheet, bool) {
	for _, s := range d.Sheets {
		if s.Name == name {
			return s, true
		}
	}
	return Sheet{}, false
}

// RecordCount returns the number of records across all sheets.
func (d Document) RecordCount() int {
	n := 0
	for _, s := range d.Sheets {
		n += len(s.Records)
	}
	return n
}

// MarshalJSON encodes the document as one object keyed by sheet name,
// keeping sheet order.
func (d Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range d.Sheets {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(&buf, s.Name); err != nil {
			return nil, err
		}
		b, err := s.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", s.Name, err)
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes the object form produced by MarshalJSON. A JSON null
// decodes to a document with no sheets, as it does for Sheet.
func (d *Document) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		d.Sheets = []Sheet{}
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	sheets := []Sheet{}
	for dec.More() {
		name, err := readKey(dec)
		if err != nil {
			return err
		}
		var s Sheet
		if err := dec.Decode(&s); err != nil {
			return fmt.Errorf("sheet %q: %w", name, err)
		}
		s.Name = name
		sheets = append(sheets, s)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return err
	}
	d.Sheets = sheets
	return nil
}
