package models

import (
	"bytes"
	"encoding/json"
)

// Sheet represents the records of one worksheet.
type Sheet struct {
	// Name is the sheet display name.
	Name string
	// Header lists the sanitized column names; nil when the sheet had no rows.
	Header []string
	// Records holds one record per non-blank data row.
	Records []Record
}

// IsEmpty reports whether the sheet has no records.
func (s Sheet) IsEmpty() bool { return len(s.Records) == 0 }

// MarshalJSON encodes the sheet as an array of records. An empty sheet is [].
func (s Sheet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, rec := range s.Records {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := rec.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an array of records. The header is rebuilt from the
// first record since the serialized form does not carry it.
func (s *Sheet) UnmarshalJSON(data []byte) error {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return err
	}
	if records == nil {
		records = []Record{}
	}
	s.Records = records
	s.Header = nil
	if len(records) > 0 {
		s.Header = records[0].Keys()
	}
	return nil
}
