package parser

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAllStrategiesFailed is matched by a ChainError.
	ErrAllStrategiesFailed = errors.New("unsupported or corrupted workbook")
	// ErrUnknownStrategy indicates a strategy name that is not registered.
	ErrUnknownStrategy = errors.New("unknown decoder strategy")
	// ErrNotCompoundFile indicates the bytes are not an OLE2 compound file.
	ErrNotCompoundFile = errors.New("not an OLE2 compound file")
	// ErrNoWorkbookStream indicates an OLE2 file without a Workbook/Book stream.
	ErrNoWorkbookStream = errors.New("no workbook stream in compound file")
	// ErrPartMissing indicates a required OOXML part is absent.
	ErrPartMissing = errors.New("package part missing")
	// ErrStrategyPanic wraps a panic raised inside a third-party decoder.
	ErrStrategyPanic = errors.New("decoder panicked")
	// ErrRowOutOfRange indicates a row number beyond the sheet row limit.
	ErrRowOutOfRange = errors.New("row number out of range")
	// ErrNoResult indicates a strategy returned neither a workbook nor an error.
	ErrNoResult = errors.New("decoder returned no workbook")
)

// Attempt records the outcome of one strategy.
type Attempt struct {
	// Strategy is the strategy name.
	Strategy string
	// Err is the failure reason; nil on success.
	Err error
	// Sheets and Rows summarize a successful result.
	Sheets int
	Rows   int
}

// Failed reports whether the attempt failed.
func (a Attempt) Failed() bool { return a.Err != nil }

func (a Attempt) String() string {
	if a.Err != nil {
		return fmt.Sprintf("%s: %v", a.Strategy, a.Err)
	}
	return fmt.Sprintf("%s: ok (%d sheets, %d rows)", a.Strategy, a.Sheets, a.Rows)
}

// ChainError is returned when every strategy failed.
type ChainError struct {
	Attempts []Attempt
}

func (e *ChainError) Error() string {
	reasons := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		reasons = append(reasons, a.String())
	}
	return "all decoders failed: " + strings.Join(reasons, "; ")
}

// Unwrap exposes ErrAllStrategiesFailed and every per-strategy reason.
func (e *ChainError) Unwrap() []error {
	errs := []error{ErrAllStrategiesFailed}
	for _, a := range e.Attempts {
		if a.Err != nil {
			errs = append(errs, a.Err)
		}
	}
	return errs
}

// Reasons maps strategy names to failure text, in attempt order.
func (e *ChainError) Reasons() []string {
	out := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		out[i] = a.String()
	}
	return out
}

// Summary is the user-facing message for a failed decode.
func (e *ChainError) Summary() string {
	return "Failed to read Excel file: unsupported format or corrupted file"
}

// Detail is a generic hint that does not depend on the per-strategy reasons.
func (e *ChainError) Detail() string {
	return "Please ensure the file is a valid Excel file (.xlsx or .xls) and not corrupted. " +
		"The file may contain unsupported formatting or be password protected."
}
