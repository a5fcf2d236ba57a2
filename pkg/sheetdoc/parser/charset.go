package parser

import (
	"bytes"
	"encoding/xml"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"
)

var xmlEncodingDecl = regexp.MustCompile(`(?i)<\?xml[^>]*encoding\s*=\s*["']([^"']+)["']`)

// declaredEncoding returns the lower-cased encoding label of the XML prolog.
func declaredEncoding(data []byte) string {
	head := data
	if len(head) > 256 {
		head = head[:256]
	}
	m := xmlEncodingDecl.FindSubmatch(head)
	if m == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(string(m[1])))
}

func isUTF8Label(label string) bool {
	switch label {
	case "", "utf-8", "utf8":
		return true
	}
	return false
}

// charsetReader decodes any IANA-named charset to UTF-8, guessing
// Windows-1252 for labels it does not know.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	label = strings.ToLower(strings.TrimSpace(label))
	if isUTF8Label(label) {
		return input, nil
	}
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil || enc == nil {
		enc = charmap.Windows1252
	}
	return transform.NewReader(input, enc.NewDecoder()), nil
}

// newRelaxedDecoder returns a non-strict XML decoder that tolerates unknown
// entities, declared legacy charsets and invalid UTF-8.
func newRelaxedDecoder(data []byte) *xml.Decoder {
	if isUTF8Label(declaredEncoding(data)) && !utf8.Valid(data) {
		data = bytes.ToValidUTF8(data, []byte("\uFFFD"))
	}
	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.Strict = false
	decoder.Entity = xml.HTMLEntity
	decoder.CharsetReader = charsetReader
	return decoder
}
