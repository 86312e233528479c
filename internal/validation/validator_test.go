package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/mergedoc-generator/internal/config"
	"github.com/ginjaninja78/mergedoc-generator/internal/grouping"
	"github.com/ginjaninja78/mergedoc-generator/internal/types"
)

func fields() config.Fields {
	return config.Fields{
		DocumentNumberField: "invoice_number",
		CustomerFields:      []string{"customer_name", "customer_email"},
		LineItemFields:      []string{"description", "quantity", "unit_price"},
		RequiredFields:      []string{"customer_name", "description"},
	}
}

func grp(rows ...map[string]string) *grouping.Group {
	g := &grouping.Group{Key: "INV-001"}
	for i, v := range rows {
		g.Rows = append(g.Rows, types.Row{Index: i + 10, Values: v})
	}
	return g
}

func TestRequirements(t *testing.T) {
	req := RequirementsFor(fields())

	t.Run("Should split header and line item fields", func(t *testing.T) {
		assert.Equal(t, []string{"customer_name"}, req.Header)
		assert.Equal(t, []string{"description"}, req.LineItem)
	})

	t.Run("Should pass when every required field has a value", func(t *testing.T) {
		g := grp(
			map[string]string{"customer_name": "Ana", "description": "Widget"},
			map[string]string{"customer_name": "", "description": "Bolt"},
		)
		assert.NoError(t, req.Check(g))
	})

	t.Run("Should name a missing header field", func(t *testing.T) {
		g := grp(map[string]string{"description": "Widget"})
		var missing *MissingRequiredFieldError
		require.True(t, errors.As(req.Check(g), &missing))
		assert.Equal(t, "customer_name", missing.Field)
		assert.Equal(t, "INV-001", missing.Document)
		assert.Equal(t, 10, missing.Row)
	})

	t.Run("Should name the line that lacks a line item field", func(t *testing.T) {
		g := grp(
			map[string]string{"customer_name": "Ana", "description": "Widget"},
			map[string]string{"customer_name": "Ana", "description": "   "},
		)
		var missing *MissingRequiredFieldError
		require.True(t, errors.As(req.Check(g), &missing))
		assert.Equal(t, "description", missing.Field)
		assert.Equal(t, 11, missing.Row)
	})
}

func TestHeaderFields(t *testing.T) {
	t.Run("Should include layout date fields for invoices", func(t *testing.T) {
		cfg := config.DocumentConfig{
			Layout:       config.LayoutInvoice,
			Fields:       fields(),
			Calculations: config.Calculations{QuantityField: "quantity", UnitPriceField: "unit_price"},
			Invoice:      &config.InvoiceOptions{DateField: "invoice_date", DueDateField: "due_date"},
		}
		assert.Equal(t, []string{"customer_name", "customer_email", "invoice_date", "due_date"}, HeaderFields(cfg))
	})

	t.Run("Should include shipping fields for sales orders", func(t *testing.T) {
		f := fields()
		f.RequiredFields = []string{"po_reference"}
		cfg := config.DocumentConfig{
			Layout: config.LayoutSalesOrder,
			Fields: f,
			SalesOrder: &config.SalesOrderOptions{
				DateField:      "order_date",
				ShippingFields: []string{"shipping_name", "customer_name"},
			},
		}
		assert.Equal(t, []string{"customer_name", "customer_email", "order_date", "shipping_name", "po_reference"}, HeaderFields(cfg))
	})
}

func TestCheckHeaderConsistency(t *testing.T) {
	t.Run("Should warn about differing header values", func(t *testing.T) {
		g := grp(
			map[string]string{"customer_name": "Ana", "customer_email": "a@x"},
			map[string]string{"customer_name": "Ana", "customer_email": "b@x"},
			map[string]string{"customer_name": "Bob"},
		)
		issues := CheckHeaderConsistency(g, []string{"customer_name", "customer_email"})
		require.Len(t, issues, 2)
		assert.Equal(t, SeverityWarning, issues[0].Severity)
		assert.Equal(t, "customer_email", issues[0].Field)
		assert.Equal(t, 11, issues[0].Row)
		assert.Equal(t, "customer_name", issues[1].Field)
		assert.Equal(t, "Bob", issues[1].Value)
		assert.Contains(t, FormatIssues(issues), "2 issue(s)")
	})

	t.Run("Should return nothing for single-row groups", func(t *testing.T) {
		assert.Empty(t, CheckHeaderConsistency(grp(map[string]string{"a": "1"}), []string{"a"}))
		assert.Equal(t, "No issues.", FormatIssues(nil))
	})
}
