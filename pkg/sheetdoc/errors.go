package sheetdoc

import (
	"errors"
	"fmt"

	"github.com/ukaji3/sheetdoc-go/pkg/sheetdoc/parser"
)

var (
	// ErrUnsupportedOrCorrupt is matched by errors.Is when no decoder could read the input.
	ErrUnsupportedOrCorrupt = parser.ErrAllStrategiesFailed
	// ErrUnknownStrategy indicates Options.Strategies named an unregistered strategy.
	ErrUnknownStrategy = parser.ErrUnknownStrategy
	// ErrFileTooLarge indicates the input exceeds Options.MaxSize.
	ErrFileTooLarge = errors.New("file too large")
	// ErrEmptyFile indicates a zero-length input.
	ErrEmptyFile = errors.New("file is empty")
	// ErrSheetPanic wraps a panic raised while assembling a sheet.
	ErrSheetPanic = errors.New("sheet assembly panicked")
)

// UnsupportedOrCorruptFileError is returned by Decode when every strategy
// failed. Attempts holds one reason per strategy, in attempt order.
type UnsupportedOrCorruptFileError = parser.ChainError

// SheetProcessingError represents a sheet that could not be decoded or
// assembled. The sheet is emitted empty; the document is still produced.
type SheetProcessingError struct {
	Sheet string
	Err   error
}

func (e *SheetProcessingError) Error() string {
	return fmt.Sprintf("processing sheet %q: %v", e.Sheet, e.Err)
}

func (e *SheetProcessingError) Unwrap() error {
	return e.Err
}
