// Package models defines data structures for workbook decoding.
package models

import "time"

// CellKind identifies which field of a RawCell carries the value.
type CellKind int

const (
	// KindAbsent marks a missing or unparsable cell.
	KindAbsent CellKind = iota
	KindBool
	KindInt
	KindFloat
	KindText
	KindTime
)

// String returns the lower-case kind name.
func (k CellKind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindTime:
		return "time"
	default:
		return "absent"
	}
}

// RawCell is a dynamically typed scalar produced by a decoder.
// The zero value is an absent cell.
type RawCell struct {
	// Kind selects the populated value field.
	Kind  CellKind
	Bool  bool
	Int   int64
	Float float64
	Text  string
	Time  time.Time
}

// Absent returns an absent cell.
func Absent() RawCell { return RawCell{} }

// BoolCell returns a boolean cell.
func BoolCell(v bool) RawCell { return RawCell{Kind: KindBool, Bool: v} }

// IntCell returns an integer cell.
func IntCell(v int64) RawCell { return RawCell{Kind: KindInt, Int: v} }

// FloatCell returns a floating point cell.
func FloatCell(v float64) RawCell { return RawCell{Kind: KindFloat, Float: v} }

// TextCell returns a text cell.
func TextCell(v string) RawCell { return RawCell{Kind: KindText, Text: v} }

// TimeCell returns a date-time cell.
func TimeCell(v time.Time) RawCell { return RawCell{Kind: KindTime, Time: v} }

// IsAbsent reports whether the cell carries no value.
func (c RawCell) IsAbsent() bool { return c.Kind == KindAbsent }
