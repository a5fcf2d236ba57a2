package parser

import (
	"fmt"
	"log/slog"

	"github.com/ukaji3/sheetdoc-go/pkg/sheetdoc/models"
)

// Strategy names, in default priority order.
const (
	StrategyExcelize  = "excelize"
	StrategyNullToken = "xlsx-na"
	StrategyXLS       = "xls"
	StrategyXLSText   = "xls-text"
	StrategyStream    = "xlsx-stream"
	StrategyRelaxed   = "ooxml-relaxed"
	StrategyXLSCP1252 = "xls-cp1252"
)

// Strategy turns workbook bytes into raw sheets.
// Implementations must not retain data after Decode returns.
type Strategy interface {
	Name() string
	Family() Format
	Decode(data []byte) (*models.RawWorkbook, error)
}

// DefaultStrategies returns every registered strategy in priority order.
func DefaultStrategies() []Strategy {
	return []Strategy{
		ExcelizeStrategy{},
		NullTokenStrategy{},
		BIFFStrategy{},
		NewXLSStrategy(StrategyXLSText, "utf-8"),
		StreamStrategy{},
		RelaxedStrategy{},
		NewXLSStrategy(StrategyXLSCP1252, "windows-1252"),
	}
}

// SelectStrategies returns the registered strategies named, in the given order.
// An empty list selects all of them.
func SelectStrategies(names []string) ([]Strategy, error) {
	all := DefaultStrategies()
	if len(names) == 0 {
		return all, nil
	}
	byName := make(map[string]Strategy, len(all))
	for _, s := range all {
		byName[s.Name()] = s
	}
	selected := make([]Strategy, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		s, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		selected = append(selected, s)
	}
	return selected, nil
}

// Result is a successful chain outcome.
type Result struct {
	// Workbook is the raw decoded workbook.
	Workbook *models.RawWorkbook
	// Strategy is the name of the strategy that produced Workbook.
	Strategy string
	// Attempts lists every strategy tried, including failures.
	Attempts []Attempt
}

// Chain tries strategies in order until one succeeds.
// A Chain is immutable and safe for concurrent use.
type Chain struct {
	strategies []Strategy
	logger     *slog.Logger
}

// NewChain builds a chain over strategies; none means DefaultStrategies.
func NewChain(logger *slog.Logger, strategies ...Strategy) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	return &Chain{
		strategies: append([]Strategy(nil), strategies...),
		logger:     logger,
	}
}

// Strategies returns the registered strategies in priority order.
func (c *Chain) Strategies() []Strategy {
	return append([]Strategy(nil), c.strategies...)
}

// Decode runs the strategies planned for filename and data.
//
// A result with at least one non-empty sheet, or with no sheets at all, wins
// immediately. A result whose sheets are all empty is held back while later
// strategies get a chance; it is returned only if none does better.
func (c *Chain) Decode(filename string, data []byte) (*Result, error) {
	plan := Plan(filename, data, c.strategies)
	attempts := make([]Attempt, 0, len(plan))
	var tentative *Result

	for _, s := range plan {
		wb, err := RunStrategy(s, data)
		if err != nil {
			c.logger.Debug("decoder strategy failed",
				slog.String("strategy", s.Name()),
				slog.String("file", filename),
				slog.Any("error", err))
			attempts = append(attempts, Attempt{Strategy: s.Name(), Err: err})
			continue
		}

		attempts = append(attempts, Attempt{
			Strategy: s.Name(),
			Sheets:   len(wb.Sheets),
			Rows:     wb.TotalRows(),
		})
		if wb.HasRows() || len(wb.Sheets) == 0 {
			c.logger.Debug("decoder strategy succeeded",
				slog.String("strategy", s.Name()),
				slog.String("file", filename),
				slog.Int("sheets", len(wb.Sheets)))
			return &Result{Workbook: wb, Strategy: s.Name(), Attempts: attempts}, nil
		}
		if tentative == nil {
			tentative = &Result{Workbook: wb, Strategy: s.Name()}
		}
	}

	if tentative != nil {
		tentative.Attempts = attempts
		return tentative, nil
	}
	return nil, &ChainError{Attempts: attempts}
}

// RunStrategy calls s.Decode, converting panics into errors.
func RunStrategy(s Strategy, data []byte) (wb *models.RawWorkbook, err error) {
	defer func() {
		if r := recover(); r != nil {
			wb = nil
			err = fmt.Errorf("%w: %v", ErrStrategyPanic, r)
		}
	}()
	wb, err = s.Decode(data)
	if err == nil && wb == nil {
		err = ErrNoResult
	}
	return wb, err
}
