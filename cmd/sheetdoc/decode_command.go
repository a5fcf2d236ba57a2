package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ukaji3/sheetdoc-go/pkg/sheetdoc"
)

func newDecodeCommand(ctx *commandContext) *cobra.Command {
	var (
		outputPath string
		pretty     bool
		sheetsDir  string
		nullTokens []string
		strategies []string
	)

	cmd := &cobra.Command{
		Use:   "decode <input.xlsx|input.xls>",
		Short: "Decode a workbook to JSON",
		Long: `Decode reads a workbook with the first decoder that succeeds and prints
one JSON object keyed by sheet name. Every cell value is a string; null
markers such as "nan", "None" and "N/A" become empty strings.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputPath := args[0]
			data, err := os.ReadFile(inputPath)
			if err != nil {
				if os.IsNotExist(err) {
					return fmt.Errorf("file not found: %s", inputPath)
				}
				return fmt.Errorf("read input: %w", err)
			}

			res, err := sheetdoc.Decode(filepath.Base(inputPath), data, ctx.decodeOptions(nullTokens, strategies))
			if err != nil {
				explainDecodeError(cmd, err)
				return fmt.Errorf("decode failed: %w", err)
			}
			ctx.logger.Debug("workbook decoded",
				slog.String("strategy", res.Strategy),
				slog.Int("sheets", len(res.SheetNames)),
				slog.Int("attempts", len(res.Attempts)))

			usePretty := resolvePretty(cmd, pretty)
			if outputPath != "" || sheetsDir == "" {
				if err := writeDocument(cmd, res.Document, outputPath, usePretty); err != nil {
					return err
				}
			}
			if sheetsDir != "" {
				paths, err := writeSheetFiles(res.Document, sheetsDir, usePretty)
				if err != nil {
					return fmt.Errorf("failed to write sheet files: %w", err)
				}
				for _, p := range paths {
					fmt.Fprintln(cmd.ErrOrStderr(), "wrote", p)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output (default: on when stdout is a terminal)")
	cmd.Flags().StringVar(&sheetsDir, "sheets-dir", "", "Directory for per-sheet output files")
	cmd.Flags().StringArrayVar(&nullTokens, "null-token", nil, "Additional null marker (repeatable)")
	cmd.Flags().StringArrayVar(&strategies, "strategy", nil, "Decoder strategy to try, in order (repeatable)")
	return cmd
}
