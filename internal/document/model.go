// =============================================================================
// mergedoc - Document Model
// =============================================================================
//
// The document model is what a generator produces and a renderer consumes.
// It holds already formatted text arranged in a fixed sequence of sections:
//
//   header      : company block (+ optional logo) and document details
//   parties     : Bill To / Ship To blocks
//   line_items  : one table row per input row
//   totals      : label/value pairs, the last one is the amount due
//   notes       : free text such as payment terms
//
// The model carries no layout engine concepts (positions, fonts). Renderers
// decide how each section kind looks.
//
// =============================================================================

package document

import (
	"github.com/ginjaninja78/mergedoc-generator/internal/calc"
	"github.com/ginjaninja78/mergedoc-generator/internal/config"
	"github.com/ginjaninja78/mergedoc-generator/internal/grouping"
)

// Generator turns one document group and its calculation result into a
// document model. Implementations must not keep state between calls.
type Generator interface {
	Generate(g *grouping.Group, res *calc.Result) (*Model, error)
}

// SectionKind identifies a section of a document.
type SectionKind string

const (
	KindHeader    SectionKind = "header"
	KindParties   SectionKind = "parties"
	KindLineItems SectionKind = "line_items"
	KindTotals    SectionKind = "totals"
	KindNotes     SectionKind = "notes"
)

// Align is the horizontal alignment of a column or block.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Model is one generated document.
type Model struct {
	// Type is the registry name of the document type.
	Type string

	// Title is the heading shown in the header ("INVOICE").
	Title string

	// Number is the document number, the group key.
	Number string

	Page     Page
	Logo     *Logo
	Sections []Section

	// Values are named computed fields, already formatted: subtotal, tax,
	// tax_rate, grand_total, formula names and layout extras.
	Values map[string]string
}

// Page is the page geometry in points.
type Page struct {
	Size    string
	Margins config.Margins
}

// Logo is an image drawn in the header.
type Logo struct {
	Path   string
	Width  float64
	Height float64
}

// Section is a titled part of a document. Which fields are populated
// depends on Kind.
type Section struct {
	Kind  SectionKind
	Title string

	// Blocks are laid out side by side (header, parties).
	Blocks []Block

	// Table holds the line items.
	Table *Table

	// Fields hold label/value rows (totals).
	Fields []Field

	// Lines hold free text (notes).
	Lines []string
}

// Block is a titled group of text lines.
type Block struct {
	Title  string
	Lines  []string
	Fields []Field
	Align  Align
}

// Field is a label/value pair. Emphasis marks the value the reader should
// look at first, such as the amount due.
type Field struct {
	Label    string
	Value    string
	Emphasis bool
}

// Table is a grid of formatted cells.
type Table struct {
	Columns []Column
	Rows    [][]string
}

// Column describes one table column. Width is a relative weight.
type Column struct {
	Title string
	Align Align
	Width float64
}

// Section returns the first section of the given kind.
func (m *Model) Section(kind SectionKind) (*Section, bool) {
	for i := range m.Sections {
		if m.Sections[i].Kind == kind {
			return &m.Sections[i], true
		}
	}
	return nil, false
}

// Value returns a named value, or "" when absent.
func (m *Model) Value(name string) string {
	return m.Values[name]
}
