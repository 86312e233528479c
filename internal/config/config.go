// =============================================================================
// mergedoc - Configuration Module
// =============================================================================
//
// This module defines the per-document-type configuration and the rules for
// finding, loading, validating and saving it.
//
// CONFIGURATION SECTIONS:
//   page_size / margins  : page geometry (points)
//   company              : sender details printed in the header
//   fields               : which columns carry the document number, customer
//                          details and line items
//   calculations         : quantity/price columns, tax rate, named formulas
//   formatting           : currency symbol, date and number formats
//   output               : individual/merged files, directory, file naming
//   transforms           : optional value rewrites applied while loading
//   invoice/sales_order  : layout-specific options (exactly one is used,
//                          selected by the "layout" tag)
//
// Every document type supplies its own defaults. A config file only needs
// to name the keys it wants to change.
//
// =============================================================================

package config

// =============================================================================
// LAYOUT TAGS
// =============================================================================

const (
	// LayoutInvoice selects InvoiceOptions.
	LayoutInvoice = "invoice"

	// LayoutSalesOrder selects SalesOrderOptions.
	LayoutSalesOrder = "sales_order"
)

// Supported page sizes.
const (
	PageLetter = "letter"
	PageA4     = "a4"
	PageLegal  = "legal"
)

// Supported output formats.
const (
	FormatPDF = "pdf"
	FormatXML = "xml"
)

// =============================================================================
// DOCUMENT CONFIGURATION STRUCTURE
// =============================================================================

// DocumentConfig is the resolved configuration for one document type.
//
// The layout-specific options form a tagged union: Layout names the variant
// and the matching pointer (Invoice or SalesOrder) must be set. Validate
// enforces that.
type DocumentConfig struct {
	// DocumentType is the registry name this configuration belongs to.
	DocumentType string `yaml:"document_type" validate:"required"`

	// Layout selects the generator variant and its options block.
	Layout string `yaml:"layout" validate:"required,oneof=invoice sales_order"`

	// PageSize is one of letter, a4 or legal.
	PageSize string `yaml:"page_size" validate:"required,oneof=letter a4 legal"`

	Margins      Margins      `yaml:"margins"`
	Company      Company      `yaml:"company"`
	Fields       Fields       `yaml:"fields"`
	Calculations Calculations `yaml:"calculations"`
	Formatting   Formatting   `yaml:"formatting"`
	Output       Output       `yaml:"output"`

	// Transforms rewrite field values right after loading, before grouping.
	Transforms []TransformRule `yaml:"transforms,omitempty" validate:"dive"`

	Invoice    *InvoiceOptions    `yaml:"invoice,omitempty" validate:"required_if=Layout invoice"`
	SalesOrder *SalesOrderOptions `yaml:"sales_order,omitempty" validate:"required_if=Layout sales_order"`
}

// Margins are page margins in points (72 points = 1 inch).
type Margins struct {
	Top    float64 `yaml:"top" validate:"gte=0"`
	Bottom float64 `yaml:"bottom" validate:"gte=0"`
	Left   float64 `yaml:"left" validate:"gte=0"`
	Right  float64 `yaml:"right" validate:"gte=0"`
}

// Company holds the sender details printed in every document header.
type Company struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
	Phone   string `yaml:"phone"`
	Email   string `yaml:"email"`
	Website string `yaml:"website,omitempty"`

	// LogoPath points at a PNG or JPEG. Empty disables the logo.
	LogoPath   string  `yaml:"logo_path"`
	LogoWidth  float64 `yaml:"logo_width" validate:"gte=0"`
	LogoHeight float64 `yaml:"logo_height" validate:"gte=0"`
}

// Fields maps document concepts onto input columns.
type Fields struct {
	// DocumentNumberField is the grouping key column.
	DocumentNumberField string `yaml:"document_number_field" validate:"required"`

	// CustomerFields are printed, in order, in the Bill To block.
	CustomerFields []string `yaml:"customer_fields"`

	// LineItemFields are the line-item table columns, in order.
	LineItemFields []string `yaml:"line_item_fields" validate:"min=1,dive,required"`

	// RequiredFields must be present and non-blank. Header fields are checked
	// on the first row of a group, line-item fields on every row.
	RequiredFields []string `yaml:"required_fields"`
}

// Calculations configures the calculation engine.
type Calculations struct {
	QuantityField  string `yaml:"quantity_field" validate:"required"`
	UnitPriceField string `yaml:"unit_price_field" validate:"required"`

	// TaxRate is a fraction: 0.08 means 8%.
	TaxRate float64 `yaml:"tax_rate" validate:"gte=0"`

	// Formulas are extra per-document sums of quantity x price products.
	Formulas []Formula `yaml:"formulas,omitempty" validate:"dive"`
}

// Formula names a per-row multiplication summed over a document.
type Formula struct {
	Name     string `yaml:"name" validate:"required"`
	Quantity string `yaml:"quantity" validate:"required"`
	Price    string `yaml:"price" validate:"required"`
	Label    string `yaml:"label,omitempty"`
}

// Formatting controls how values are displayed.
type Formatting struct {
	CurrencySymbol string `yaml:"currency_symbol"`

	// DateFormat uses strftime directives, e.g. "%m/%d/%Y".
	DateFormat string `yaml:"date_format" validate:"required"`

	// NumberFormat is a format string such as ",.2f": "," groups thousands,
	// ".2" sets the decimal places.
	NumberFormat string `yaml:"number_format"`
}

// Output controls what gets written and where.
type Output struct {
	IndividualFiles bool `yaml:"individual_files"`
	MergedFile      bool `yaml:"merged_file"`

	OutputDirectory string `yaml:"output_directory" validate:"required"`

	// FilenameTemplate supports {document_number}, {type}, {uuid},
	// {timestamp} and {date}.
	FilenameTemplate string `yaml:"filename_template" validate:"required"`

	// MergedFilename uses the same placeholders minus {document_number}.
	MergedFilename string `yaml:"merged_filename"`

	// Format is pdf or xml.
	Format string `yaml:"format" validate:"omitempty,oneof=pdf xml"`
}

// TransformRule rewrites one field with a chain of actions.
type TransformRule struct {
	Field   string            `yaml:"field" validate:"required"`
	Actions []TransformAction `yaml:"actions" validate:"min=1,dive"`
}

// TransformAction is a single step of a TransformRule.
// See the transform package for the supported types.
type TransformAction struct {
	Type        string            `yaml:"type" validate:"required"`
	Value       string            `yaml:"value,omitempty"`
	Find        string            `yaml:"find,omitempty"`
	LookupTable map[string]string `yaml:"lookup_table,omitempty"`
}

// =============================================================================
// LAYOUT OPTIONS
// =============================================================================

// InvoiceOptions are used when Layout is "invoice".
type InvoiceOptions struct {
	Title        string `yaml:"title"`
	DateField    string `yaml:"date_field"`
	DueDateField string `yaml:"due_date_field"`

	// DueDays is added to the invoice date when the due date column is blank.
	DueDays int `yaml:"due_days" validate:"gte=0"`

	Notes []string `yaml:"notes,omitempty"`
}

// SalesOrderOptions are used when Layout is "sales_order".
type SalesOrderOptions struct {
	Title             string   `yaml:"title"`
	DateField         string   `yaml:"date_field"`
	ShipDateField     string   `yaml:"ship_date_field"`
	DeliveryDateField string   `yaml:"delivery_date_field"`
	ShippingFields    []string `yaml:"shipping_fields"`

	// ShippingCost is added once per order.
	ShippingCost float64 `yaml:"shipping_cost" validate:"gte=0"`

	// Lead times used when ship or delivery dates are blank.
	ShipLeadDays     int `yaml:"ship_lead_days" validate:"gte=0"`
	DeliveryLeadDays int `yaml:"delivery_lead_days" validate:"gte=0"`

	Terms []string `yaml:"terms,omitempty"`
}

// =============================================================================
// COPYING
// =============================================================================

// Clone returns a deep copy so callers can change the result freely.
func (c DocumentConfig) Clone() DocumentConfig {
	out := c
	out.Fields.CustomerFields = cloneStrings(c.Fields.CustomerFields)
	out.Fields.LineItemFields = cloneStrings(c.Fields.LineItemFields)
	out.Fields.RequiredFields = cloneStrings(c.Fields.RequiredFields)
	if c.Calculations.Formulas != nil {
		out.Calculations.Formulas = append([]Formula(nil), c.Calculations.Formulas...)
	}
	if c.Transforms != nil {
		out.Transforms = make([]TransformRule, len(c.Transforms))
		for i, rule := range c.Transforms {
			actions := make([]TransformAction, len(rule.Actions))
			for j, a := range rule.Actions {
				actions[j] = a
				if a.LookupTable != nil {
					actions[j].LookupTable = make(map[string]string, len(a.LookupTable))
					for k, v := range a.LookupTable {
						actions[j].LookupTable[k] = v
					}
				}
			}
			out.Transforms[i] = TransformRule{Field: rule.Field, Actions: actions}
		}
	}
	if c.Invoice != nil {
		inv := *c.Invoice
		inv.Notes = cloneStrings(c.Invoice.Notes)
		out.Invoice = &inv
	}
	if c.SalesOrder != nil {
		so := *c.SalesOrder
		so.ShippingFields = cloneStrings(c.SalesOrder.ShippingFields)
		so.Terms = cloneStrings(c.SalesOrder.Terms)
		out.SalesOrder = &so
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

// =============================================================================
// DEFAULT BUILDING BLOCKS
// =============================================================================
// Document types start from these and override what differs.

// DefaultMargins returns one-inch margins.
func DefaultMargins() Margins {
	return Margins{Top: 72, Bottom: 72, Left: 72, Right: 72}
}

// DefaultFormatting returns US-style currency and dates.
func DefaultFormatting() Formatting {
	return Formatting{
		CurrencySymbol: "$",
		DateFormat:     "%m/%d/%Y",
		NumberFormat:   ",.2f",
	}
}

// DefaultCompany returns placeholder sender details.
func DefaultCompany() Company {
	return Company{
		Name:       "Your Company Name",
		Address:    "123 Business St\nCity, State 12345",
		Phone:      "(555) 123-4567",
		Email:      "billing@yourcompany.com",
		LogoWidth:  144,
		LogoHeight: 72,
	}
}
