package document

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ginjaninja78/mergedoc-generator/internal/calc"
	"github.com/ginjaninja78/mergedoc-generator/internal/config"
	"github.com/ginjaninja78/mergedoc-generator/internal/format"
	"github.com/ginjaninja78/mergedoc-generator/internal/grouping"
	"github.com/ginjaninja78/mergedoc-generator/internal/types"
	"github.com/ginjaninja78/mergedoc-generator/internal/validation"
)

// =============================================================================
// SHARED GENERATOR PARTS
// =============================================================================

// Base holds what every generator needs: the resolved config, a formatter
// and the required-field checks. Layout generators embed it.
type Base struct {
	Config       config.DocumentConfig
	Format       *format.Formatter
	Requirements validation.Requirements
}

// NewBase prepares the shared parts for cfg.
func NewBase(cfg config.DocumentConfig) Base {
	return Base{
		Config:       cfg,
		Format:       format.New(cfg.Formatting),
		Requirements: validation.RequirementsFor(cfg.Fields),
	}
}

// Check runs the required-field checks on a group.
func (b Base) Check(g *grouping.Group) error {
	return b.Requirements.Check(g)
}

// NewModel starts a model for a group with page geometry, logo and the
// standard computed values filled in.
func (b Base) NewModel(g *grouping.Group, title string, res *calc.Result) *Model {
	m := &Model{
		Type:   b.Config.DocumentType,
		Title:  title,
		Number: g.Key,
		Page:   Page{Size: b.Config.PageSize, Margins: b.Config.Margins},
		Values: b.Values(res),
	}
	m.Values["document_number"] = g.Key
	if c := b.Config.Company; c.LogoPath != "" {
		m.Logo = &Logo{Path: c.LogoPath, Width: c.LogoWidth, Height: c.LogoHeight}
	}
	return m
}

// Values formats the calculation result as named values.
func (b Base) Values(res *calc.Result) map[string]string {
	out := map[string]string{
		calc.KeySubtotal:   b.Format.Currency(res.Subtotal),
		calc.KeyTax:        b.Format.Currency(res.Tax),
		calc.KeyGrandTotal: b.Format.Currency(res.GrandTotal),
		"tax_rate":         b.Format.Percent(res.TaxRate),
	}
	for _, f := range res.Formulas {
		out[f.Name] = b.Format.Currency(f.Total)
	}
	return out
}

// CompanyBlock renders the sender details.
func (b Base) CompanyBlock(withWebsite bool) Block {
	c := b.Config.Company
	block := Block{Title: c.Name, Align: AlignLeft}
	block.Lines = append(block.Lines, splitLines(c.Address)...)
	if c.Phone != "" {
		block.Lines = append(block.Lines, "Phone: "+c.Phone)
	}
	if c.Email != "" {
		block.Lines = append(block.Lines, "Email: "+c.Email)
	}
	if withWebsite && c.Website != "" {
		block.Lines = append(block.Lines, "Web: "+c.Website)
	}
	return block
}

// PartyBlock lists the non-blank values of fields from row under title.
// Multi-line values are split into separate lines.
func PartyBlock(title string, row types.Row, fields []string) Block {
	block := Block{Title: title, Align: AlignLeft}
	for _, f := range fields {
		if !row.Has(f) {
			continue
		}
		block.Lines = append(block.Lines, splitLines(row.Value(f))...)
	}
	return block
}

// LineItems builds the line-item table: one column per configured
// line-item field plus a Total column.
func (b Base) LineItems(g *grouping.Group, res *calc.Result) Section {
	calcCfg := b.Config.Calculations
	fields := b.Config.Fields.LineItemFields

	table := &Table{}
	for _, f := range fields {
		col := Column{Title: Humanize(f), Align: AlignLeft, Width: 3}
		if f == calcCfg.QuantityField || f == calcCfg.UnitPriceField {
			col.Align, col.Width = AlignRight, 1
		}
		table.Columns = append(table.Columns, col)
	}
	table.Columns = append(table.Columns, Column{Title: "Total", Align: AlignRight, Width: 1})

	lines := make(map[int]calc.Line, len(res.Lines))
	for _, l := range res.Lines {
		lines[l.Row] = l
	}

	for _, row := range g.Rows {
		line := lines[row.Index]
		cells := make([]string, 0, len(fields)+1)
		for _, f := range fields {
			switch f {
			case calcCfg.QuantityField:
				cells = append(cells, b.Format.Quantity(line.Quantity))
			case calcCfg.UnitPriceField:
				cells = append(cells, b.Format.Currency(line.UnitPrice))
			default:
				cells = append(cells, row.Value(f))
			}
		}
		cells = append(cells, b.Format.Currency(line.Total))
		table.Rows = append(table.Rows, cells)
	}
	return Section{Kind: KindLineItems, Table: table}
}

// SubtotalFields returns Subtotal followed by the formula totals.
func (b Base) SubtotalFields(res *calc.Result) []Field {
	fields := []Field{{Label: "Subtotal:", Value: b.Format.Currency(res.Subtotal)}}
	for _, f := range res.Formulas {
		label := f.Label
		if label == "" {
			label = Humanize(f.Name)
		}
		fields = append(fields, Field{Label: label + ":", Value: b.Format.Currency(f.Total)})
	}
	return fields
}

// TaxField returns the tax line, labelled with the rate.
func (b Base) TaxField(res *calc.Result) Field {
	return Field{
		Label: fmt.Sprintf("Tax (%s):", b.Format.Percent(res.TaxRate)),
		Value: b.Format.Currency(res.Tax),
	}
}

// Notes returns a notes section, or false when there is nothing to say.
func Notes(title string, lines []string) (Section, bool) {
	if len(lines) == 0 {
		return Section{}, false
	}
	return Section{Kind: KindNotes, Title: title, Lines: append([]string(nil), lines...)}, true
}

// Humanize turns a column name into a label: "unit_price" -> "Unit Price".
func Humanize(field string) string {
	words := strings.Fields(strings.NewReplacer("_", " ", "-", " ").Replace(field))
	return cases.Title(language.English).String(strings.Join(words, " "))
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
