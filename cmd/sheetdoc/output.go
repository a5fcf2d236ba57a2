package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/ukaji3/sheetdoc-go/internal/ingest"
	"github.com/ukaji3/sheetdoc-go/pkg/sheetdoc"
	"github.com/ukaji3/sheetdoc-go/pkg/sheetdoc/models"
	"github.com/ukaji3/sheetdoc-go/pkg/sheetdoc/output"
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// resolvePretty honours an explicit --pretty and otherwise pretty-prints on
// a terminal.
func resolvePretty(cmd *cobra.Command, flag bool) bool {
	if cmd.Flags().Changed("pretty") {
		return flag
	}
	return isTerminal(cmd.OutOrStdout())
}

// writeDocument writes doc to path, or to stdout when path is empty.
func writeDocument(cmd *cobra.Command, doc models.Document, path string, pretty bool) error {
	data, err := output.ToJSON(doc, pretty)
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}
	if path == "" {
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// writeSheetFiles writes one JSON file per sheet into dir. File names are
// sanitized sheet names, falling back to sheet<n> and suffixed on collision.
func writeSheetFiles(doc models.Document, dir string, pretty bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	used := make(map[string]bool, len(doc.Sheets))
	paths := make([]string, 0, len(doc.Sheets))
	for i, sheet := range doc.Sheets {
		data, err := output.SheetToJSON(sheet, pretty)
		if err != nil {
			return nil, err
		}

		base := ingest.SecureFilename(sheet.Name)
		if base == "" {
			base = "sheet" + strconv.Itoa(i+1)
		}
		name := base
		for k := 2; used[name]; k++ {
			name = base + "_" + strconv.Itoa(k)
		}
		used[name] = true

		path := filepath.Join(dir, name+".json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// explainDecodeError prints the user-facing summary for unreadable workbooks.
func explainDecodeError(cmd *cobra.Command, err error) {
	var chainErr *sheetdoc.UnsupportedOrCorruptFileError
	if errors.As(err, &chainErr) {
		fmt.Fprintln(cmd.ErrOrStderr(), chainErr.Summary())
		fmt.Fprintln(cmd.ErrOrStderr(), chainErr.Detail())
	}
}
