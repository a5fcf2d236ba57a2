// Package output provides JSON serialization for decoded documents.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ukaji3/sheetdoc-go/pkg/sheetdoc/models"
)

// ToJSON serializes a document to its persisted form:
// {"<sheet>": [{"<column>": "<value>", ...}, ...], ...}.
// Sheet, record and field order are preserved.
func ToJSON(doc models.Document, pretty bool) ([]byte, error) {
	return encode(doc, pretty)
}

// SheetToJSON serializes a single sheet as an array of records.
func SheetToJSON(sheet models.Sheet, pretty bool) ([]byte, error) {
	return encode(sheet, pretty)
}

// FromJSON reconstitutes a document produced by ToJSON.
func FromJSON(data []byte) (models.Document, error) {
	var doc models.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return models.Document{}, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

func encode(v any, pretty bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
