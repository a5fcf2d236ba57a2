package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingFilename indicates an upload without a usable name.
	ErrMissingFilename = errors.New("no file selected")
	// ErrUnsupportedExtension indicates a filename outside the allow list.
	ErrUnsupportedExtension = errors.New("only Excel files are allowed")
)

// PersistenceError reports a storage failure after decoding. The staged
// bytes have been removed and the document was not saved.
type PersistenceError struct {
	// Op names the failed step, e.g. "stage" or "insert".
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist upload (%s): %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
