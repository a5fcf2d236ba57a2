package sheetdoc

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/ukaji3/sheetdoc-go/pkg/sheetdoc/models"
	"github.com/ukaji3/sheetdoc-go/pkg/sheetdoc/parser"
)

// Result is a decoded workbook.
type Result struct {
	// Document holds every sheet in workbook order.
	Document models.Document
	// SheetNames lists the sheet names in workbook order.
	SheetNames []string
	// Strategy names the decoder that produced Document.
	Strategy string
	// Attempts lists every strategy tried, including failures.
	Attempts []parser.Attempt
}

// Decode converts workbook bytes into a normalized Document.
//
// filename is only a format hint. data is not retained after Decode returns.
// If no strategy can read data the error is an *UnsupportedOrCorruptFileError.
func Decode(filename string, data []byte, opts Options) (*Result, error) {
	if err := checkInput(data, opts.MaxSize); err != nil {
		return nil, err
	}
	strategies, err := opts.strategies()
	if err != nil {
		return nil, err
	}

	log := opts.logger()
	res, err := parser.NewChain(log, strategies...).Decode(filename, data)
	if err != nil {
		return nil, err
	}

	doc := BuildDocument(res.Workbook, opts.normalizer(), log)
	return &Result{
		Document:   doc,
		SheetNames: doc.SheetNames(),
		Strategy:   res.Strategy,
		Attempts:   res.Attempts,
	}, nil
}

func checkInput(data []byte, maxSize int64) error {
	if len(data) == 0 {
		return ErrEmptyFile
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return fmt.Errorf("%w: %s exceeds the %s limit", ErrFileTooLarge,
			humanize.IBytes(uint64(len(data))), humanize.IBytes(uint64(maxSize)))
	}
	return nil
}

// BuildDocument assembles every raw sheet in order. Sheets that failed to
// decode or assemble are emitted empty and logged as warnings.
func BuildDocument(raw *models.RawWorkbook, n Normalizer, log *slog.Logger) models.Document {
	if log == nil {
		log = slog.Default()
	}
	doc := models.Document{Sheets: []models.Sheet{}}
	if raw == nil {
		return doc
	}

	for _, rs := range raw.Sheets {
		if rs.Err != nil {
			logSheetError(log, &SheetProcessingError{Sheet: rs.Name, Err: rs.Err})
			doc.Sheets = append(doc.Sheets, emptySheet(rs.Name))
			continue
		}
		sheet, err := AssembleSheetSafe(rs.Name, rs.Rows, n)
		if err != nil {
			logSheetError(log, err)
		}
		doc.Sheets = append(doc.Sheets, sheet)
	}
	return doc
}

func logSheetError(log *slog.Logger, err error) {
	attrs := []any{slog.Any("error", err)}
	var perr *SheetProcessingError
	if errors.As(err, &perr) {
		attrs = append(attrs, slog.String("sheet", perr.Sheet))
	}
	log.Warn("sheet emitted empty", attrs...)
}

// ProbeSheet summarizes one sheet as read by a single strategy.
type ProbeSheet struct {
	Name string
	Rows int
	// Bounds is the populated region; zero when the sheet holds no value.
	Bounds parser.TableBounds
	Err    error
}

// ProbeReport is the outcome of running one strategy on its own.
type ProbeReport struct {
	Strategy string
	Family   parser.Format
	Err      error
	Sheets   []ProbeSheet
}

// Probe runs every selected strategy independently and concurrently, and
// reports what each one sees in planned order. It never stops at the first
// success.
func Probe(filename string, data []byte, opts Options) ([]ProbeReport, error) {
	if err := checkInput(data, opts.MaxSize); err != nil {
		return nil, err
	}
	strategies, err := opts.strategies()
	if err != nil {
		return nil, err
	}

	plan := parser.Plan(filename, data, strategies)
	reports := make([]ProbeReport, len(plan))
	var eg errgroup.Group
	eg.SetLimit(probeConcurrency)
	for i, s := range plan {
		eg.Go(func() error {
			reports[i] = probeStrategy(s, data)
			return nil
		})
	}
	_ = eg.Wait()
	return reports, nil
}

const probeConcurrency = 4

func probeStrategy(s parser.Strategy, data []byte) ProbeReport {
	report := ProbeReport{Strategy: s.Name(), Family: s.Family()}
	wb, err := parser.RunStrategy(s, data)
	if err != nil {
		report.Err = err
		return report
	}
	for _, rs := range wb.Sheets {
		ps := ProbeSheet{Name: rs.Name, Rows: rs.RowCount(), Err: rs.Err}
		if bounds, ok := parser.DetectBounds(rs.Rows); ok {
			ps.Bounds = bounds
		}
		report.Sheets = append(report.Sheets, ps)
	}
	return report
}
