// =============================================================================
// mergedoc - Sales Order Document Type
// =============================================================================
//
// LAYOUT:
//   header     : company block (with website) | SALES ORDER, Order #,
//                Order Date, Ship Date, Delivery Date
//   parties    : Bill To | Ship To
//   line_items : line_item_fields + Total
//   totals     : Subtotal, formula totals, Shipping, Tax (r.r%), Total
//   notes      : Terms and Conditions
//
// Shipping is a flat amount per order and is not taxed. The Total line is
// grand_total + shipping and is exposed as the "total_due" value.
//
// =============================================================================

package salesorder

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/mergedoc-generator/internal/calc"
	"github.com/ginjaninja78/mergedoc-generator/internal/config"
	"github.com/ginjaninja78/mergedoc-generator/internal/document"
	"github.com/ginjaninja78/mergedoc-generator/internal/grouping"
	"github.com/ginjaninja78/mergedoc-generator/internal/registry"
	"github.com/ginjaninja78/mergedoc-generator/internal/types"
)

// Name is the registry name of the sales order type.
const Name = "sales_order"

// Descriptor describes the built-in sales order type.
func Descriptor() registry.Descriptor {
	return registry.Descriptor{
		Name:          Name,
		DisplayName:   "Sales Order",
		Description:   "Sales orders with line items, shipping info, and delivery dates",
		DefaultConfig: DefaultConfig,
		NewGenerator: func(cfg config.DocumentConfig) (document.Generator, error) {
			return New(cfg)
		},
		SampleData: SampleData,
	}
}

// DefaultConfig returns the sales order defaults.
func DefaultConfig() config.DocumentConfig {
	company := config.DefaultCompany()
	company.Email = "orders@yourcompany.com"
	company.Website = "www.yourcompany.com"

	return config.DocumentConfig{
		DocumentType: Name,
		Layout:       config.LayoutSalesOrder,
		PageSize:     config.PageLetter,
		Margins:      config.DefaultMargins(),
		Company:      company,
		Fields: config.Fields{
			DocumentNumberField: "order_number",
			CustomerFields:      []string{"customer_name", "customer_address", "customer_email", "customer_phone"},
			LineItemFields:      []string{"item_code", "description", "quantity", "unit_price"},
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
			OutputDirectory:  "sales_orders",
			FilenameTemplate: "so_{document_number}.pdf",
			MergedFilename:   "merged_sales_orders_{timestamp}.pdf",
			Format:           config.FormatPDF,
		},
		SalesOrder: &config.SalesOrderOptions{
			Title:             "SALES ORDER",
			DateField:         "order_date",
			ShipDateField:     "ship_date",
			DeliveryDateField: "delivery_date",
			ShippingFields:    []string{"shipping_name", "shipping_address", "shipping_method"},
			ShippingCost:      25.00,
			ShipLeadDays:      2,
			DeliveryLeadDays:  7,
			Terms: []string{
				"Payment is due within 30 days of delivery",
				"Items remain property of seller until paid in full",
				"Returns accepted within 15 days with prior authorization",
				"Shipping costs are non-refundable",
				"Late payments subject to 1.5% monthly service charge",
			},
		},
	}
}

// Generator builds sales order documents.
type Generator struct {
	document.Base
	opts     config.SalesOrderOptions
	shipping decimal.Decimal
}

// New returns a sales order generator for cfg.
func New(cfg config.DocumentConfig) (*Generator, error) {
	if cfg.Layout != config.LayoutSalesOrder || cfg.SalesOrder == nil {
		return nil, fmt.Errorf("sales order generator needs layout %q with a sales_order section, got %q", config.LayoutSalesOrder, cfg.Layout)
	}
	return &Generator{
		Base:     document.NewBase(cfg),
		opts:     *cfg.SalesOrder,
		shipping: calc.Round2(decimal.NewFromFloat(cfg.SalesOrder.ShippingCost)),
	}, nil
}

// Generate implements document.Generator.
func (g *Generator) Generate(group *grouping.Group, res *calc.Result) (*document.Model, error) {
	if err := g.Check(group); err != nil {
		return nil, err
	}
	first := group.First()
	now := g.Format.Now()

	orderDate := g.Format.DateOr(first.Value(g.opts.DateField), g.Format.Now)
	shipDate := g.Format.DateOr(first.Value(g.opts.ShipDateField), func() time.Time {
		return now.AddDate(0, 0, g.opts.ShipLeadDays)
	})
	deliveryDate := g.Format.DateOr(first.Value(g.opts.DeliveryDateField), func() time.Time {
		return now.AddDate(0, 0, g.opts.DeliveryLeadDays)
	})
	totalDue := res.GrandTotal.Add(g.shipping)

	m := g.NewModel(group, g.opts.Title, res)
	m.Values["date"] = orderDate
	m.Values["ship_date"] = shipDate
	m.Values["delivery_date"] = deliveryDate
	m.Values["shipping"] = g.Format.Currency(g.shipping)
	m.Values["total_due"] = g.Format.Currency(totalDue)

	m.Sections = append(m.Sections,
		document.Section{
			Kind: document.KindHeader,
			Blocks: []document.Block{
				g.CompanyBlock(true),
				{
					Title: g.opts.Title,
					Align: document.AlignRight,
					Fields: []document.Field{
						{Label: "Order #:", Value: group.Key},
						{Label: "Order Date:", Value: orderDate},
						{Label: "Ship Date:", Value: shipDate},
						{Label: "Delivery Date:", Value: deliveryDate},
					},
				},
			},
		},
		document.Section{
			Kind: document.KindParties,
			Blocks: []document.Block{
				document.PartyBlock("Bill To:", first, g.Config.Fields.CustomerFields),
				document.PartyBlock("Ship To:", first, g.opts.ShippingFields),
			},
		},
		g.LineItems(group, res),
	)

	totals := g.SubtotalFields(res)
	totals = append(totals,
		document.Field{Label: "Shipping:", Value: g.Format.Currency(g.shipping)},
		g.TaxField(res),
		document.Field{Label: "Total:", Value: g.Format.Currency(totalDue), Emphasis: true},
	)
	m.Sections = append(m.Sections, document.Section{Kind: document.KindTotals, Fields: totals})

	if terms, ok := document.Notes("Terms and Conditions:", g.opts.Terms); ok {
		m.Sections = append(m.Sections, terms)
	}
	return m, nil
}

// =============================================================================
// SAMPLE DATA
// =============================================================================

// SampleData returns two example orders.
func SampleData() *types.Table {
	columns := []string{
		"order_number", "customer_name", "customer_address", "customer_email", "customer_phone",
		"shipping_name", "shipping_address", "shipping_method",
		"order_date", "ship_date", "delivery_date",
		"item_code", "description", "quantity", "unit_price",
	}
	tech := []string{
		"Tech Solutions Inc", "456 Tech Park\nSilicon Valley, CA 94000", "orders@techsolutions.com", "(555) 555-0123",
		"Tech Solutions Inc", "456 Tech Park\nSilicon Valley, CA 94000", "Ground",
		"2024-02-01", "2024-02-03", "2024-02-08",
	}
	global := []string{
		"Global Corp", "789 Corporate Dr\nNew York, NY 10001", "purchasing@globalcorp.com", "(555) 555-0456",
		"Global Corp Warehouse", "123 Warehouse Rd\nJersey City, NJ 07302", "Express",
		"2024-02-02", "2024-02-03", "2024-02-05",
	}

	row := func(number string, header []string, item ...string) []string {
		out := append([]string{number}, header...)
		return append(out, item...)
	}
	return types.TableFromRecords(columns, [][]string{
		row("SO-1001", tech, "WDG-001", "Premium Widget Type A", "25", "125.50"),
		row("SO-1001", tech, "WDG-002", "Premium Widget Type B", "15", "135.75"),
		row("SO-1001", tech, "ACC-101", "Widget Accessory Kit", "5", "45.00"),
		row("SO-1002", global, "PRO-500", "Professional Service Package", "1", "2500.00"),
		row("SO-1002", global, "PRO-501", "Extended Warranty", "1", "350.00"),
	})
}
