package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ukaji3/sheetdoc-go/internal/store"
	"github.com/ukaji3/sheetdoc-go/pkg/sheetdoc/models"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <input.xlsx|input.xls>",
		Short: "Decode a workbook and store it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputPath := args[0]
			data, err := os.ReadFile(inputPath)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			svc, closeFn, err := ctx.openService()
			if err != nil {
				return err
			}
			defer closeFn()

			ingested, err := svc.Ingest(cmd.Context(), filepath.Base(inputPath), data)
			if err != nil {
				explainDecodeError(cmd, err)
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "File ID:  %s\n", ingested.FileID)
			fmt.Fprintf(out, "Filename: %s\n", ingested.Filename)
			fmt.Fprintf(out, "Decoder:  %s\n", ingested.Strategy)
			fmt.Fprintf(out, "Sheets:   %s\n", strings.Join(ingested.Sheets, ", "))
			fmt.Fprintf(out, "Records:  %d\n", ingested.Document.RecordCount())
			return nil
		},
	}
}

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored uploads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := ctx.openService()
			if err != nil {
				return err
			}
			defer closeFn()

			uploads, err := svc.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(uploads) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No uploads stored")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderUploadTable(uploads))
			return nil
		},
	}
}

func renderUploadTable(uploads []store.Upload) string {
	headers := []string{"File ID", "Filename", "Size", "Sheets", "Decoder", "Uploaded"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft}
	rows := make([][]string, 0, len(uploads))
	for _, u := range uploads {
		rows = append(rows, []string{
			u.FileID,
			u.OriginalFilename,
			humanize.IBytes(uint64(u.FileSize)),
			strconv.Itoa(len(u.SheetNames)),
			u.Strategy,
			humanize.Time(u.UploadedAt),
		})
	}
	return renderTable(headers, rows, aligns)
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var (
		pretty    bool
		sheetName string
	)

	cmd := &cobra.Command{
		Use:   "show <file-id>",
		Short: "Print the stored JSON document of an upload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := ctx.openService()
			if err != nil {
				return err
			}
			defer closeFn()

			upload, err := svc.Get(cmd.Context(), args[0])
			if err != nil {
				return describeLookupError(args[0], err)
			}
			doc, err := upload.Document()
			if err != nil {
				return err
			}
			if sheetName != "" {
				sheet, ok := doc.Sheet(sheetName)
				if !ok {
					return fmt.Errorf("sheet %q not found in %s", sheetName, upload.FileID)
				}
				doc = models.Document{Sheets: []models.Sheet{sheet}}
			}
			return writeDocument(cmd, doc, "", resolvePretty(cmd, pretty))
		},
	}

	cmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output (default: on when stdout is a terminal)")
	cmd.Flags().StringVar(&sheetName, "sheet", "", "Print only this sheet")
	return cmd
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <file-id>",
		Short: "Delete a stored upload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := ctx.openService()
			if err != nil {
				return err
			}
			defer closeFn()

			if err := svc.Delete(cmd.Context(), args[0]); err != nil {
				return describeLookupError(args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func describeLookupError(fileID string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("file %s not found", fileID)
	}
	return err
}
