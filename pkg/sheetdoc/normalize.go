package sheetdoc

import (
	"strconv"
	"strings"
	"time"

	"github.com/ukaji3/sheetdoc-go/pkg/sheetdoc/models"
)

// DefaultNullTokens are the textual stand-ins for missing data, compared
// case-insensitively after trimming. Whitespace-only text is always null.
var DefaultNullTokens = []string{"nan", "none", "null", "n/a"}

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// Normalizer converts raw cells into their canonical text form.
// The zero value recognizes DefaultNullTokens only.
type Normalizer struct {
	// NullTokens are recognized in addition to DefaultNullTokens.
	NullTokens []string
}

// NormalizeCell normalizes c with the default null tokens.
func NormalizeCell(c models.RawCell) string {
	return Normalizer{}.Normalize(c)
}

// Normalize stringifies c, then collapses null tokens to "".
// It is idempotent: Normalize(TextCell(Normalize(c))) == Normalize(c).
func (n Normalizer) Normalize(c models.RawCell) string {
	s := stringify(c)
	if n.isNull(s) {
		return ""
	}
	return s
}

// NormalizeRow normalizes every cell of row.
func (n Normalizer) NormalizeRow(row []models.RawCell) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = n.Normalize(c)
	}
	return out
}

func (n Normalizer) isNull(s string) bool {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return true
	}
	for _, tok := range DefaultNullTokens {
		if key == tok {
			return true
		}
	}
	for _, tok := range n.NullTokens {
		if key == strings.ToLower(strings.TrimSpace(tok)) {
			return true
		}
	}
	return false
}

func stringify(c models.RawCell) string {
	switch c.Kind {
	case models.KindBool:
		return strconv.FormatBool(c.Bool)
	case models.KindInt:
		return strconv.FormatInt(c.Int, 10)
	case models.KindFloat:
		return strconv.FormatFloat(c.Float, 'f', -1, 64)
	case models.KindText:
		return c.Text
	case models.KindTime:
		return formatTime(c.Time)
	default:
		return ""
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(dateLayout)
	}
	return t.Format(dateTimeLayout)
}
