// =============================================================================
// mergedoc - Validation
// =============================================================================
//
// Data checks that run on a document group before a document is built.
//
// CHECKS:
//   - Required fields (fatal for the group): every configured required field
//     must be present and non-blank. Header fields are checked on the first
//     row, line-item fields on every row.
//   - Header consistency (warning only): header fields are read from the
//     first row of a group. Later rows that disagree are reported so the
//     source data can be cleaned up, but the document is still produced.
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/mergedoc-generator/internal/config"
	"github.com/ginjaninja78/mergedoc-generator/internal/grouping"
)

// =============================================================================
// ISSUES
// =============================================================================

// Severity of an Issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is a single data-quality finding.
type Issue struct {
	Severity Severity
	Document string
	Row      int
	Field    string
	Value    string
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] document %s row %d field %q: %s",
		strings.ToUpper(string(i.Severity)), i.Document, i.Row, i.Field, i.Message)
}

// FormatIssues renders issues one per line, numbered.
func FormatIssues(issues []Issue) string {
	if len(issues) == 0 {
		return "No issues."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d issue(s):\n", len(issues))
	for n, issue := range issues {
		fmt.Fprintf(&b, "%d. %s\n", n+1, issue)
	}
	return b.String()
}

// =============================================================================
// REQUIRED FIELDS
// =============================================================================

// MissingRequiredFieldError names a required field that a group lacks.
type MissingRequiredFieldError struct {
	Document string
	Field    string

	// Row is the index of the offending row.
	Row int
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("document %s: required field %q is missing or empty (row %d)", e.Document, e.Field, e.Row)
}

// Requirements splits the configured required fields by where they are read.
type Requirements struct {
	Header   []string
	LineItem []string
}

// RequirementsFor derives the requirements from the fields config section.
// A required field that is also a line-item column is checked per line;
// anything else is a header field.
func RequirementsFor(f config.Fields) Requirements {
	lineItem := make(map[string]bool, len(f.LineItemFields))
	for _, name := range f.LineItemFields {
		lineItem[name] = true
	}
	var r Requirements
	for _, name := range f.RequiredFields {
		if lineItem[name] {
			r.LineItem = append(r.LineItem, name)
		} else {
			r.Header = append(r.Header, name)
		}
	}
	return r
}

// Check returns a *MissingRequiredFieldError for the first missing field,
// header fields first.
func (r Requirements) Check(g *grouping.Group) error {
	if len(g.Rows) == 0 {
		return nil
	}
	first := g.First()
	for _, field := range r.Header {
		if !first.Has(field) {
			return &MissingRequiredFieldError{Document: g.Key, Field: field, Row: first.Index}
		}
	}
	for _, row := range g.Rows {
		for _, field := range r.LineItem {
			if !row.Has(field) {
				return &MissingRequiredFieldError{Document: g.Key, Field: field, Row: row.Index}
			}
		}
	}
	return nil
}

// =============================================================================
// HEADER CONSISTENCY
// =============================================================================

// HeaderFields lists the columns a layout reads from the first row of a
// group: customer details plus the layout's date and shipping columns.
// Line-item columns and the key column are excluded.
func HeaderFields(cfg config.DocumentConfig) []string {
	skip := map[string]bool{cfg.Fields.DocumentNumberField: true}
	for _, f := range cfg.Fields.LineItemFields {
		skip[f] = true
	}
	skip[cfg.Calculations.QuantityField] = true
	skip[cfg.Calculations.UnitPriceField] = true

	var out []string
	add := func(fields ...string) {
		for _, f := range fields {
			if f == "" || skip[f] {
				continue
			}
			skip[f] = true
			out = append(out, f)
		}
	}

	add(cfg.Fields.CustomerFields...)
	switch {
	case cfg.Invoice != nil && cfg.Layout == config.LayoutInvoice:
		add(cfg.Invoice.DateField, cfg.Invoice.DueDateField)
	case cfg.SalesOrder != nil && cfg.Layout == config.LayoutSalesOrder:
		add(cfg.SalesOrder.DateField, cfg.SalesOrder.ShipDateField, cfg.SalesOrder.DeliveryDateField)
		add(cfg.SalesOrder.ShippingFields...)
	}
	add(RequirementsFor(cfg.Fields).Header...)
	return out
}

// CheckHeaderConsistency reports rows whose header values differ from the
// group's first row. All findings are warnings.
func CheckHeaderConsistency(g *grouping.Group, fields []string) []Issue {
	if len(g.Rows) < 2 {
		return nil
	}
	first := g.First()
	var issues []Issue
	for _, row := range g.Rows[1:] {
		for _, field := range fields {
			want, _ := first.Get(field)
			got, ok := row.Get(field)
			if !ok || got == want {
				continue
			}
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Document: g.Key,
				Row:      row.Index,
				Field:    field,
				Value:    got,
				Message:  fmt.Sprintf("value %q differs from first row value %q; first row wins", got, want),
			})
		}
	}
	return issues
}
