package config

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func invoiceDefaults() DocumentConfig {
	return DocumentConfig{
		DocumentType: "invoice",
		Layout:       LayoutInvoice,
		PageSize:     PageLetter,
		Margins:      DefaultMargins(),
		Company:      DefaultCompany(),
		Fields: Fields{
			DocumentNumberField: "invoice_number",
			CustomerFields:      []string{"customer_name", "customer_address"},
			LineItemFields:      []string{"description", "quantity", "unit_price"},
		},
		Calculations: Calculations{QuantityField: "quantity", UnitPriceField: "unit_price", TaxRate: 0.08},
		Formatting:   DefaultFormatting(),
		Output: Output{
			IndividualFiles:  true,
			OutputDirectory:  "invoices",
			FilenameTemplate: "invoice_{document_number}.pdf",
		},
		Invoice: &InvoiceOptions{DateField: "invoice_date", DueDateField: "due_date", DueDays: 30},
	}
}

func testLocations() Locations {
	return Locations{WorkDir: "/work", ConfigDir: "/home/ana/.config", HomeDir: "/home/ana"}
}

func TestLoad(t *testing.T) {
	t.Run("Should use defaults when no config file exists", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		cfg, path, err := Load(fs, testLocations(), invoiceDefaults(), "")
		require.NoError(t, err)
		assert.Empty(t, path)
		assert.Equal(t, 0.08, cfg.Calculations.TaxRate)
		assert.Equal(t, FormatPDF, cfg.Output.Format)
	})

	t.Run("Should overlay only the keys present in the file", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		path := "/work/invoice_config.yaml"
		require.NoError(t, afero.WriteFile(fs, path, []byte("calculations:\n  tax_rate: 0.1\ncompany:\n  name: Acme\n"), 0o644))

		cfg, used, err := Load(fs, testLocations(), invoiceDefaults(), "")
		require.NoError(t, err)
		assert.Equal(t, path, used)
		assert.Equal(t, 0.1, cfg.Calculations.TaxRate)
		assert.Equal(t, "quantity", cfg.Calculations.QuantityField)
		assert.Equal(t, "Acme", cfg.Company.Name)
		assert.Equal(t, "(555) 123-4567", cfg.Company.Phone)
		assert.Equal(t, 30, cfg.Invoice.DueDays)
	})

	t.Run("Should prefer the user config directory over the home directory", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/home/ana/.config/mergedoc/invoice_config.yaml", []byte("page_size: a4\n"), 0o644))
		require.NoError(t, afero.WriteFile(fs, "/home/ana/.mergedoc/invoice_config.yaml", []byte("page_size: legal\n"), 0o644))

		cfg, used, err := Load(fs, testLocations(), invoiceDefaults(), "")
		require.NoError(t, err)
		assert.Equal(t, "/home/ana/.config/mergedoc/invoice_config.yaml", used)
		assert.Equal(t, PageA4, cfg.PageSize)
	})

	t.Run("Should accept JSON config files", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/tmp/inv.json", []byte(`{"page_size": "A4", "formatting": {"currency_symbol": "€"}}`), 0o644))

		cfg, _, err := Load(fs, testLocations(), invoiceDefaults(), "/tmp/inv.json")
		require.NoError(t, err)
		assert.Equal(t, PageA4, cfg.PageSize)
		assert.Equal(t, "€", cfg.Formatting.CurrencySymbol)
	})

	t.Run("Should fail when an explicit config path is missing", func(t *testing.T) {
		_, _, err := Load(afero.NewMemMapFs(), testLocations(), invoiceDefaults(), "/nope.yaml")
		assert.True(t, errors.Is(err, ErrConfigNotFound))
	})

	t.Run("Should reject unknown keys", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/c.yaml", []byte("colour: red\n"), 0o644))
		_, _, err := Load(fs, testLocations(), invoiceDefaults(), "/c.yaml")
		assert.True(t, errors.Is(err, ErrInvalidConfig))
	})

	t.Run("Should reject a negative tax rate", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/c.yaml", []byte("calculations:\n  tax_rate: -0.05\n"), 0o644))
		_, _, err := Load(fs, testLocations(), invoiceDefaults(), "/c.yaml")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidConfig))
		assert.Contains(t, err.Error(), "tax_rate")
	})

	t.Run("Should not modify the defaults passed in", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/c.yaml", []byte("fields:\n  customer_fields: [a, b, c]\n"), 0o644))
		defaults := invoiceDefaults()
		_, _, err := Load(fs, testLocations(), defaults, "/c.yaml")
		require.NoError(t, err)
		assert.Equal(t, []string{"customer_name", "customer_address"}, defaults.Fields.CustomerFields)
	})
}

func TestValidate(t *testing.T) {
	t.Run("Should require the options block matching the layout", func(t *testing.T) {
		cfg := invoiceDefaults()
		cfg.Invoice = nil
		err := Validate(&cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invoice is required")

		cfg = invoiceDefaults()
		cfg.Layout = LayoutSalesOrder
		err = Validate(&cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sales_order is required")
	})

	t.Run("Should report every problem at once", func(t *testing.T) {
		cfg := invoiceDefaults()
		cfg.PageSize = "tabloid"
		cfg.Fields.DocumentNumberField = ""
		cfg.Output.IndividualFiles = false
		err := Validate(&cfg)
		require.Error(t, err)
		msg := err.Error()
		assert.Contains(t, msg, "page_size")
		assert.Contains(t, msg, "document_number_field")
		assert.Contains(t, msg, "individual_files")
	})

	t.Run("Should lower-case page size and output format", func(t *testing.T) {
		cfg := invoiceDefaults()
		cfg.PageSize = "Letter"
		cfg.Output.Format = "XML"
		require.NoError(t, Validate(&cfg))
		assert.Equal(t, PageLetter, cfg.PageSize)
		assert.Equal(t, FormatXML, cfg.Output.Format)
	})
}

func TestOverride(t *testing.T) {
	t.Run("Should replace only the fields that were given", func(t *testing.T) {
		cfg := invoiceDefaults()
		require.NoError(t, Override(&cfg, DocumentConfig{
			Output: Output{Format: "XML", OutputDirectory: "/tmp/out"},
		}))
		assert.Equal(t, FormatXML, cfg.Output.Format)
		assert.Equal(t, "/tmp/out", cfg.Output.OutputDirectory)
		assert.True(t, cfg.Output.IndividualFiles)
		assert.Equal(t, "invoice_{document_number}.pdf", cfg.Output.FilenameTemplate)
		assert.Equal(t, 0.08, cfg.Calculations.TaxRate)
		assert.Equal(t, "invoice_number", cfg.Fields.DocumentNumberField)
	})

	t.Run("Should keep everything for empty overrides", func(t *testing.T) {
		cfg := invoiceDefaults()
		require.NoError(t, Override(&cfg, DocumentConfig{}))
		want := invoiceDefaults()
		want.Output.Format = FormatPDF
		assert.Equal(t, want, cfg)
	})
}

func TestClone(t *testing.T) {
	t.Run("Should not share slices or option blocks", func(t *testing.T) {
		cfg := invoiceDefaults()
		cfg.Transforms = []TransformRule{{Field: "x", Actions: []TransformAction{{Type: "lookup", LookupTable: map[string]string{"a": "b"}}}}}
		cp := cfg.Clone()
		cp.Fields.LineItemFields[0] = "changed"
		cp.Invoice.DueDays = 1
		cp.Transforms[0].Actions[0].LookupTable["a"] = "z"

		assert.Equal(t, "description", cfg.Fields.LineItemFields[0])
		assert.Equal(t, 30, cfg.Invoice.DueDays)
		assert.Equal(t, "b", cfg.Transforms[0].Actions[0].LookupTable["a"])
	})
}

func TestLocations(t *testing.T) {
	loc := testLocations()

	t.Run("Should list search paths in priority order", func(t *testing.T) {
		assert.Equal(t, []string{
			filepath.Join("/work", "sales_order_config.yaml"),
			filepath.Join("/home/ana/.config", "mergedoc", "sales_order_config.yaml"),
			filepath.Join("/home/ana", ".mergedoc", "sales_order_config.yaml"),
		}, loc.SearchPaths("sales_order"))
	})

	t.Run("Should skip unknown base directories", func(t *testing.T) {
		assert.Len(t, Locations{WorkDir: "/w"}.SearchPaths("invoice"), 1)
	})

	t.Run("Should resolve template locations", func(t *testing.T) {
		dir, err := loc.TemplateDir("user")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("/home/ana/.config", "mergedoc"), dir)

		dir, err = loc.TemplateDir("local")
		require.NoError(t, err)
		assert.Equal(t, "/work", dir)

		dir, err = loc.TemplateDir("/srv/cfg")
		require.NoError(t, err)
		assert.Equal(t, "/srv/cfg", dir)

		_, err = Locations{}.TemplateDir("user")
		assert.Error(t, err)
	})
}

func TestSaveTemplate(t *testing.T) {
	t.Run("Should write a template that loads back to the same values", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		path, err := SaveTemplate(fs, invoiceDefaults(), "/work")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("/work", "invoice_config.yaml"), path)

		data, err := afero.ReadFile(fs, path)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "# mergedoc configuration for invoice"))

		cfg, used, err := Load(fs, testLocations(), invoiceDefaults(), "")
		require.NoError(t, err)
		assert.Equal(t, path, used)
		assert.Equal(t, invoiceDefaults().Fields.LineItemFields, cfg.Fields.LineItemFields)
		assert.Equal(t, invoiceDefaults().Invoice, cfg.Invoice)
	})

	t.Run("Should refuse to overwrite an existing file", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		_, err := SaveTemplate(fs, invoiceDefaults(), "/work")
		require.NoError(t, err)
		_, err = SaveTemplate(fs, invoiceDefaults(), "/work")
		assert.Error(t, err)
	})
}

func TestLoadSettings(t *testing.T) {
	t.Run("Should return defaults without environment overrides", func(t *testing.T) {
		s, err := LoadSettings()
		require.NoError(t, err)
		assert.Equal(t, "info", s.LogLevel)
		assert.Equal(t, 1, s.Workers)
	})

	t.Run("Should read MERGEDOC_ variables", func(t *testing.T) {
		t.Setenv("MERGEDOC_LOG_LEVEL", "DEBUG")
		t.Setenv("MERGEDOC_WORKERS", "4")
		t.Setenv("MERGEDOC_LOG_JSON", "true")
		t.Setenv("MERGEDOC_PLUGINS_DIR", "/opt/types")

		s, err := LoadSettings()
		require.NoError(t, err)
		assert.Equal(t, "debug", s.LogLevel)
		assert.Equal(t, 4, s.Workers)
		assert.True(t, s.LogJSON)
		assert.Equal(t, "/opt/types", s.PluginsDir)
	})

	t.Run("Should reject an out of range worker count", func(t *testing.T) {
		t.Setenv("MERGEDOC_WORKERS", "0")
		_, err := LoadSettings()
		assert.True(t, errors.Is(err, ErrInvalidConfig))
	})
}
