// =============================================================================
// mergedoc - Value Formatting
// =============================================================================
//
// Turns computed numbers and raw date cells into display strings according
// to the formatting config section.
//
//   currency_symbol : prefix for money values ("$", "€", "")
//   number_format   : ",.2f" style spec; "," enables thousands grouping and
//                     ".N" sets the decimal places
//   date_format     : strftime directives, e.g. "%m/%d/%Y" or "%B %d, %Y"
//
// =============================================================================

package format

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/ginjaninja78/mergedoc-generator/internal/config"
)

// Formatter formats values for one document type. It is safe for
// concurrent use.
type Formatter struct {
	symbol     string
	places     int
	grouping   bool
	dateLayout string
	printer    *message.Printer

	// Now supplies the date used when a date cell is blank.
	Now func() time.Time
}

// New builds a Formatter from the formatting config section.
func New(f config.Formatting) *Formatter {
	places, grouping := ParseNumberFormat(f.NumberFormat)
	return &Formatter{
		symbol:     f.CurrencySymbol,
		places:     places,
		grouping:   grouping,
		dateLayout: StrftimeLayout(f.DateFormat),
		printer:    message.NewPrinter(language.English),
		Now:        time.Now,
	}
}

// ParseNumberFormat reads a ",.2f" style spec. An empty or unreadable spec
// means two places with grouping.
func ParseNumberFormat(spec string) (places int, grouping bool) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return 2, true
	}
	grouping = strings.Contains(spec, ",")
	places = 2
	if i := strings.Index(spec, "."); i >= 0 {
		digits := strings.TrimRight(spec[i+1:], "fF%")
		if n, err := strconv.Atoi(digits); err == nil && n >= 0 && n <= 10 {
			places = n
		}
	}
	return places, grouping
}

// Number formats d with the configured places and grouping.
func (f *Formatter) Number(d decimal.Decimal) string {
	neg := d.IsNegative()
	abs := d.Abs().Round(int32(f.places))

	var s string
	if f.grouping {
		s = f.printer.Sprint(number.Decimal(abs.InexactFloat64(), number.Scale(f.places)))
	} else {
		s = abs.StringFixed(int32(f.places))
	}
	if neg && !abs.IsZero() {
		return "-" + s
	}
	return s
}

// Currency formats d as money: "$1,234.50", "-$3.00".
func (f *Formatter) Currency(d decimal.Decimal) string {
	s := f.Number(d)
	if strings.HasPrefix(s, "-") {
		return "-" + f.symbol + s[1:]
	}
	return f.symbol + s
}

// Quantity formats a quantity without padding: "40", "0.5".
func (f *Formatter) Quantity(d decimal.Decimal) string {
	return d.String()
}

// Percent formats a fraction as a percentage with one decimal place:
// 0.08 -> "8.0%", 0.0725 -> "7.3%".
func (f *Formatter) Percent(rate decimal.Decimal) string {
	return rate.Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
}

// Date formats a raw date cell. A blank cell formats today's date; a cell
// that cannot be parsed is returned unchanged.
func (f *Formatter) Date(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return f.FormatTime(f.Now())
	}
	t, ok := ParseDate(raw)
	if !ok {
		return raw
	}
	return f.FormatTime(t)
}

// DateOr formats a raw date cell, falling back to fallback() when the cell
// is blank.
func (f *Formatter) DateOr(raw string, fallback func() time.Time) string {
	if strings.TrimSpace(raw) == "" {
		return f.FormatTime(fallback())
	}
	return f.Date(raw)
}

// FormatTime formats t with the configured layout.
func (f *Formatter) FormatTime(t time.Time) string {
	return t.Format(f.dateLayout)
}
