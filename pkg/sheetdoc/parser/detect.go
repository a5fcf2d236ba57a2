// Package parser provides workbook format detection and the decoder strategies.
package parser

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Format is a workbook container family.
type Format string

const (
	// FormatUnknown means neither the name nor the bytes identified the container.
	FormatUnknown Format = ""
	// FormatOOXML is the zipped-XML container (.xlsx and relatives).
	FormatOOXML Format = "ooxml"
	// FormatBIFF is the legacy OLE2 binary container (.xls).
	FormatBIFF Format = "biff"
)

var extensionFormats = map[string]Format{
	".xlsx": FormatOOXML,
	".xlsm": FormatOOXML,
	".xltx": FormatOOXML,
	".xltm": FormatOOXML,
	".xls":  FormatBIFF,
	".xlt":  FormatBIFF,
}

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// FormatFromExtension maps a filename extension to a container family.
func FormatFromExtension(filename string) Format {
	return extensionFormats[strings.ToLower(filepath.Ext(filename))]
}

// SniffFormat identifies the container family from the leading bytes.
func SniffFormat(data []byte) Format {
	if len(data) == 0 {
		return FormatUnknown
	}
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		switch {
		case m.Is("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"),
			m.Is("application/zip"):
			return FormatOOXML
		case m.Is("application/vnd.ms-excel"),
			m.Is("application/x-ole-storage"):
			return FormatBIFF
		}
	}
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return FormatOOXML
	case bytes.HasPrefix(data, oleMagic):
		return FormatBIFF
	}
	return FormatUnknown
}

// DetectFormat prefers the filename extension and falls back to sniffing.
// The result is only a hint: mislabeled files are common.
func DetectFormat(filename string, data []byte) Format {
	if f := FormatFromExtension(filename); f != FormatUnknown {
		return f
	}
	return SniffFormat(data)
}

// Plan orders strategies for an input: those matching the detected format
// first, then every other strategy, each group keeping registration order.
func Plan(filename string, data []byte, strategies []Strategy) []Strategy {
	format := DetectFormat(filename, data)
	planned := make([]Strategy, 0, len(strategies))
	if format != FormatUnknown {
		for _, s := range strategies {
			if s.Family() == format {
				planned = append(planned, s)
			}
		}
	}
	for _, s := range strategies {
		if format == FormatUnknown || s.Family() != format {
			planned = append(planned, s)
		}
	}
	return planned
}
