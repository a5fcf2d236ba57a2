package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ukaji3/sheetdoc-go/pkg/sheetdoc"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var strategies []string

	cmd := &cobra.Command{
		Use:   "probe <input.xlsx|input.xls>",
		Short: "Show what every decoder sees in a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputPath := args[0]
			data, err := os.ReadFile(inputPath)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			reports, err := sheetdoc.Probe(filepath.Base(inputPath), data, ctx.decodeOptions(nil, strategies))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", inputPath, humanize.IBytes(uint64(len(data))))
			fmt.Fprintln(cmd.OutOrStdout(), renderProbeTable(reports))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&strategies, "strategy", nil, "Limit probing to these strategies (repeatable)")
	return cmd
}

func renderProbeTable(reports []sheetdoc.ProbeReport) string {
	headers := []string{"Strategy", "Family", "Status", "Sheet", "Rows", "Range", "Density"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignRight}

	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		family := string(r.Family)
		if r.Err != nil {
			rows = append(rows, []string{r.Strategy, family, "failed: " + r.Err.Error(), "", "", "", ""})
			continue
		}
		if len(r.Sheets) == 0 {
			rows = append(rows, []string{r.Strategy, family, "ok", "(no sheets)", "0", "", ""})
			continue
		}
		for _, s := range r.Sheets {
			status := "ok"
			if s.Err != nil {
				status = "sheet error: " + s.Err.Error()
			}
			density := ""
			if s.Bounds.Range != "" {
				density = strconv.FormatFloat(s.Bounds.Density*100, 'f', 0, 64) + "%"
			}
			rows = append(rows, []string{r.Strategy, family, status, s.Name, strconv.Itoa(s.Rows), s.Bounds.Range, density})
		}
	}
	return renderTable(headers, rows, aligns)
}
