// =============================================================================
// mergedoc - Invoice Document Type
// =============================================================================
//
// LAYOUT:
//   header     : company block | INVOICE, Invoice #, Date, Due Date
//   parties    : Bill To
//   line_items : line_item_fields + Total
//   totals     : Subtotal, formula totals, Tax (r.r%), Total
//   notes      : invoice.notes, when configured
//
// A blank due date is the invoice date plus invoice.due_days.
//
// =============================================================================

package invoice

import (
	"fmt"
	"time"

	"github.com/ginjaninja78/mergedoc-generator/internal/calc"
	"github.com/ginjaninja78/mergedoc-generator/internal/config"
	"github.com/ginjaninja78/mergedoc-generator/internal/document"
	"github.com/ginjaninja78/mergedoc-generator/internal/format"
	"github.com/ginjaninja78/mergedoc-generator/internal/grouping"
	"github.com/ginjaninja78/mergedoc-generator/internal/registry"
	"github.com/ginjaninja78/mergedoc-generator/internal/types"
)

// Name is the registry name of the invoice type.
const Name = "invoice"

// Descriptor describes the built-in invoice type.
func Descriptor() registry.Descriptor {
	return registry.Descriptor{
		Name:          Name,
		DisplayName:   "Invoice",
		Description:   "Professional invoices with line items and calculations",
		DefaultConfig: DefaultConfig,
		NewGenerator: func(cfg config.DocumentConfig) (document.Generator, error) {
			return New(cfg)
		},
		SampleData: SampleData,
	}
}

// DefaultConfig returns the invoice defaults.
func DefaultConfig() config.DocumentConfig {
	return config.DocumentConfig{
		DocumentType: Name,
		Layout:       config.LayoutInvoice,
		PageSize:     config.PageLetter,
		Margins:      config.DefaultMargins(),
		Company:      config.DefaultCompany(),
		Fields: config.Fields{
			DocumentNumberField: "invoice_number",
			CustomerFields:      []string{"customer_name", "customer_address", "customer_email"},
			LineItemFields:      []string{"description", "quantity", "unit_price"},
			RequiredFields:      []string{"customer_name", "description", "quantity", "unit_price"},
		},
		Calculations: config.Calculations{
			QuantityField:  "quantity",
			UnitPriceField: "unit_price",
			TaxRate:        0.08,
		},
		Formatting: config.DefaultFormatting(),
		Output: config.Output{
			IndividualFiles:  true,
			OutputDirectory:  "invoices",
			FilenameTemplate: "invoice_{document_number}.pdf",
			MergedFilename:   "merged_invoices_{timestamp}.pdf",
			Format:           config.FormatPDF,
		},
		Invoice: &config.InvoiceOptions{
			Title:        "INVOICE",
			DateField:    "invoice_date",
			DueDateField: "due_date",
			DueDays:      30,
		},
	}
}

// Generator builds invoice documents.
type Generator struct {
	document.Base
	opts config.InvoiceOptions
}

// New returns an invoice generator for cfg.
func New(cfg config.DocumentConfig) (*Generator, error) {
	if cfg.Layout != config.LayoutInvoice || cfg.Invoice == nil {
		return nil, fmt.Errorf("invoice generator needs layout %q with an invoice section, got %q", config.LayoutInvoice, cfg.Layout)
	}
	return &Generator{Base: document.NewBase(cfg), opts: *cfg.Invoice}, nil
}

// Generate implements document.Generator.
func (g *Generator) Generate(group *grouping.Group, res *calc.Result) (*document.Model, error) {
	if err := g.Check(group); err != nil {
		return nil, err
	}
	first := group.First()

	date, dueDate := g.dates(first)
	m := g.NewModel(group, g.opts.Title, res)
	m.Values["date"] = date
	m.Values["due_date"] = dueDate

	m.Sections = append(m.Sections,
		document.Section{
			Kind: document.KindHeader,
			Blocks: []document.Block{
				g.CompanyBlock(false),
				{
					Title: g.opts.Title,
					Align: document.AlignRight,
					Fields: []document.Field{
						{Label: "Invoice #:", Value: group.Key},
						{Label: "Date:", Value: date},
						{Label: "Due Date:", Value: dueDate},
					},
				},
			},
		},
		document.Section{
			Kind:   document.KindParties,
			Blocks: []document.Block{document.PartyBlock("Bill To:", first, g.Config.Fields.CustomerFields)},
		},
		g.LineItems(group, res),
	)

	totals := g.SubtotalFields(res)
	totals = append(totals, g.TaxField(res), document.Field{
		Label:    "Total:",
		Value:    g.Format.Currency(res.GrandTotal),
		Emphasis: true,
	})
	m.Sections = append(m.Sections, document.Section{Kind: document.KindTotals, Fields: totals})

	if notes, ok := document.Notes("Notes", g.opts.Notes); ok {
		m.Sections = append(m.Sections, notes)
	}
	return m, nil
}

// dates returns the formatted invoice and due dates.
func (g *Generator) dates(first types.Row) (string, string) {
	now := g.Format.Now
	raw := first.Value(g.opts.DateField)
	issued, ok := format.ParseDate(raw)
	if !ok {
		issued = now()
	}
	date := g.Format.DateOr(raw, now)
	due := g.Format.DateOr(first.Value(g.opts.DueDateField), func() time.Time {
		return issued.AddDate(0, 0, g.opts.DueDays)
	})
	return date, due
}

// =============================================================================
// SAMPLE DATA
// =============================================================================

// SampleData returns two example invoices.
func SampleData() *types.Table {
	columns := []string{
		"invoice_number", "customer_name", "customer_address", "customer_email",
		"invoice_date", "due_date", "description", "quantity", "unit_price",
	}
	john := []string{"John Doe", "123 Main St\nAnytown, ST 12345", "john@example.com", "2024-01-15", "2024-02-15"}
	jane := []string{"Jane Smith", "456 Oak Ave\nOther City, ST 67890", "jane@example.com", "2024-01-16", "2024-02-16"}

	row := func(number string, customer []string, item ...string) []string {
		out := append([]string{number}, customer...)
		return append(out, item...)
	}
	return types.TableFromRecords(columns, [][]string{
		row("INV-001", john, "Web Development Services", "40", "75.00"),
		row("INV-001", john, "Domain Registration", "1", "15.00"),
		row("INV-001", john, "SSL Certificate", "1", "50.00"),
		row("INV-002", jane, "Logo Design", "1", "500.00"),
		row("INV-002", jane, "Business Cards", "500", "0.50"),
	})
}
