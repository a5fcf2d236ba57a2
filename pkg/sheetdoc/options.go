// Package sheetdoc decodes spreadsheet workbooks into normalized tabular documents.
package sheetdoc

import (
	"log/slog"

	"github.com/ukaji3/sheetdoc-go/pkg/sheetdoc/parser"
)

// Options configures decoding. The zero value decodes with every registered
// strategy, the built-in null tokens and no size limit.
type Options struct {
	// NullTokens extends the built-in null tokens (nan, none, null, n/a).
	NullTokens []string
	// Strategies selects and orders decoder strategies by name.
	// If empty, all registered strategies are used.
	Strategies []string
	// MaxSize rejects inputs larger than this many bytes. Zero disables the check.
	MaxSize int64
	// Logger receives diagnostics. If nil, slog.Default() is used.
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o Options) normalizer() Normalizer {
	return Normalizer{NullTokens: o.NullTokens}
}

func (o Options) strategies() ([]parser.Strategy, error) {
	return parser.SelectStrategies(o.Strategies)
}
