// =============================================================================
// mergedoc - Calculation Engine
// =============================================================================
//
// Computes the money values of one document group.
//
// FORMULAS:
//   line total  = round2(quantity x unit_price)
//   subtotal    = sum(line totals)
//   tax         = round2(subtotal x tax_rate)
//   grand total = subtotal + tax
//
//   Named formulas sum round2(row[quantity] x row[price]) over the group.
//
// Rounding is half away from zero on two decimal places. All arithmetic uses
// shopspring/decimal so 0.1 + 0.2 is exactly 0.3.
//
// Calculate is a pure function of the group and the Spec: the same input
// always yields the same Result.
//
// =============================================================================

package calc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/mergedoc-generator/internal/config"
	"github.com/ginjaninja78/mergedoc-generator/internal/grouping"
	"github.com/ginjaninja78/mergedoc-generator/internal/types"
)

// Places is the number of decimal places money values are rounded to.
const Places = 2

// Keys of Result.Totals.
const (
	KeySubtotal   = "subtotal"
	KeyTax        = "tax"
	KeyGrandTotal = "grand_total"
)

// =============================================================================
// ERRORS
// =============================================================================

// InvalidNumericFieldError identifies a cell that is not a number.
type InvalidNumericFieldError struct {
	Document string
	Row      int
	Field    string
	Value    string
}

func (e *InvalidNumericFieldError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("document %s row %d: field %q is empty, expected a number", e.Document, e.Row, e.Field)
	}
	return fmt.Sprintf("document %s row %d: field %q value %q is not a number", e.Document, e.Row, e.Field, e.Value)
}

// =============================================================================
// SPEC
// =============================================================================

// Formula is a named per-row product summed over a group.
type Formula struct {
	Name     string
	Label    string
	Quantity string
	Price    string
}

// Spec holds everything Calculate needs besides the rows.
type Spec struct {
	QuantityField  string
	UnitPriceField string
	TaxRate        decimal.Decimal
	Formulas       []Formula
}

// NewSpec builds a Spec from the calculations config section.
func NewSpec(c config.Calculations) (Spec, error) {
	if c.QuantityField == "" || c.UnitPriceField == "" {
		return Spec{}, fmt.Errorf("quantity and unit price fields must be configured")
	}
	if c.TaxRate < 0 {
		return Spec{}, fmt.Errorf("tax rate must not be negative, got %v", c.TaxRate)
	}

	spec := Spec{
		QuantityField:  c.QuantityField,
		UnitPriceField: c.UnitPriceField,
		TaxRate:        decimal.NewFromFloat(c.TaxRate),
	}

	seen := map[string]bool{KeySubtotal: true, KeyTax: true, KeyGrandTotal: true}
	for _, f := range c.Formulas {
		if seen[f.Name] {
			return Spec{}, fmt.Errorf("formula name %q is reserved or duplicated", f.Name)
		}
		seen[f.Name] = true
		spec.Formulas = append(spec.Formulas, Formula{Name: f.Name, Label: f.Label, Quantity: f.Quantity, Price: f.Price})
	}
	return spec, nil
}

// =============================================================================
// RESULT
// =============================================================================

// Line is the computed value of one row.
type Line struct {
	Row       int
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
}

// FormulaTotal is the sum of one named formula.
type FormulaTotal struct {
	Formula
	Total decimal.Decimal
}

// Result is the outcome of calculating one group.
type Result struct {
	Lines      []Line
	Subtotal   decimal.Decimal
	TaxRate    decimal.Decimal
	Tax        decimal.Decimal
	GrandTotal decimal.Decimal

	// Formulas are in declaration order.
	Formulas []FormulaTotal
}

// Formula returns the total of a named formula.
func (r *Result) Formula(name string) (decimal.Decimal, bool) {
	for _, f := range r.Formulas {
		if f.Name == name {
			return f.Total, true
		}
	}
	return decimal.Zero, false
}

// Totals returns every named value of the result.
func (r *Result) Totals() map[string]decimal.Decimal {
	out := map[string]decimal.Decimal{
		KeySubtotal:   r.Subtotal,
		KeyTax:        r.Tax,
		KeyGrandTotal: r.GrandTotal,
	}
	for _, f := range r.Formulas {
		out[f.Name] = f.Total
	}
	return out
}

// =============================================================================
// CALCULATION
// =============================================================================

// Round2 rounds half away from zero to two places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Calculate computes the result for one group.
//
// Every unparsable quantity or price cell in the group is reported; the
// returned error joins one *InvalidNumericFieldError per bad cell.
func (s Spec) Calculate(g *grouping.Group) (*Result, error) {
	res := &Result{
		Lines:   make([]Line, 0, len(g.Rows)),
		TaxRate: s.TaxRate,
	}
	var errs []error

	subtotal := decimal.Zero
	for _, row := range g.Rows {
		qty, qErr := parseCell(g.Key, row, s.QuantityField)
		price, pErr := parseCell(g.Key, row, s.UnitPriceField)
		if qErr != nil || pErr != nil {
			errs = appendIf(errs, qErr, pErr)
			continue
		}
		total := Round2(qty.Mul(price))
		res.Lines = append(res.Lines, Line{Row: row.Index, Quantity: qty, UnitPrice: price, Total: total})
		subtotal = subtotal.Add(total)
	}

	for _, f := range s.Formulas {
		sum := decimal.Zero
		for _, row := range g.Rows {
			a, aErr := parseCell(g.Key, row, f.Quantity)
			b, bErr := parseCell(g.Key, row, f.Price)
			if aErr != nil || bErr != nil {
				errs = appendIf(errs, aErr, bErr)
				continue
			}
			sum = sum.Add(Round2(a.Mul(b)))
		}
		res.Formulas = append(res.Formulas, FormulaTotal{Formula: f, Total: sum})
	}

	if len(errs) > 0 {
		return nil, errors.Join(dedupe(errs)...)
	}

	res.Subtotal = subtotal
	res.Tax = Round2(subtotal.Mul(s.TaxRate))
	res.GrandTotal = res.Subtotal.Add(res.Tax)
	return res, nil
}

func parseCell(doc string, row types.Row, field string) (decimal.Decimal, error) {
	raw := row.Value(field)
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, &InvalidNumericFieldError{Document: doc, Row: row.Index, Field: field, Value: raw}
	}
	return d, nil
}

func appendIf(errs []error, candidates ...error) []error {
	for _, err := range candidates {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// dedupe drops repeated reports of the same cell, which happen when a
// formula reads the quantity or price column.
func dedupe(errs []error) []error {
	type cell struct {
		row   int
		field string
	}
	seen := make(map[cell]bool, len(errs))
	out := errs[:0]
	for _, err := range errs {
		var nf *InvalidNumericFieldError
		if errors.As(err, &nf) {
			k := cell{nf.Row, nf.Field}
			if seen[k] {
				continue
			}
			seen[k] = true
		}
		out = append(out, err)
	}
	return out
}

// InvalidFields extracts every InvalidNumericFieldError from err.
func InvalidFields(err error) []*InvalidNumericFieldError {
	var out []*InvalidNumericFieldError
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		if nf, ok := e.(*InvalidNumericFieldError); ok {
			out = append(out, nf)
			return
		}
		if joined, ok := e.(interface{ Unwrap() []error }); ok {
			for _, inner := range joined.Unwrap() {
				walk(inner)
			}
			return
		}
		walk(errors.Unwrap(e))
	}
	walk(err)
	return out
}
