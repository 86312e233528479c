package pipeline

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/mergedoc-generator/internal/calc"
	"github.com/ginjaninja78/mergedoc-generator/internal/config"
	"github.com/ginjaninja78/mergedoc-generator/internal/doctypes/invoice"
	"github.com/ginjaninja78/mergedoc-generator/internal/grouping"
	"github.com/ginjaninja78/mergedoc-generator/internal/logger"
	"github.com/ginjaninja78/mergedoc-generator/internal/types"
	"github.com/ginjaninja78/mergedoc-generator/internal/validation"
)

var runTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func invoiceConfig(format string) config.DocumentConfig {
	cfg := invoice.DefaultConfig()
	cfg.Output.OutputDirectory = "/out"
	cfg.Output.Format = format
	cfg.Output.FilenameTemplate = "invoice_{document_number}"
	return cfg
}

func newPipeline(t *testing.T, fs afero.Fs, cfg config.DocumentConfig) *Pipeline {
	t.Helper()
	require.NoError(t, config.Validate(&cfg))
	p, err := New(fs, invoice.Descriptor(), cfg, logger.Discard())
	require.NoError(t, err)
	p.Now = func() time.Time { return runTime }
	return p
}

// sampleTable returns the invoice sample plus extra records.
func sampleTable(extra ...[]string) *types.Table {
	sample := invoice.SampleData()
	records := make([][]string, 0, len(sample.Rows)+len(extra))
	for _, row := range sample.Rows {
		records = append(records, row.Cells(sample.Columns))
	}
	records = append(records, extra...)
	table := types.TableFromRecords(sample.Columns, records)
	table.Source = "invoices.csv"
	return table
}

func invoiceRecord(number, customer, description, quantity, price string) []string {
	return []string{number, customer, "1 Road", "x@example.com", "2024-01-20", "2024-02-20", description, quantity, price}
}

func TestRun(t *testing.T) {
	t.Run("Should write one file per document in key order", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		p := newPipeline(t, fs, invoiceConfig(config.FormatXML))

		report, err := p.Run(context.Background(), sampleTable(), Options{})
		require.NoError(t, err)

		require.Len(t, report.Documents, 2)
		assert.Equal(t, "INV-001", report.Documents[0].Key)
		assert.Equal(t, "INV-002", report.Documents[1].Key)
		assert.Len(t, report.Succeeded(), 2)
		assert.Empty(t, report.Failed())
		assert.False(t, report.HasFailures())
		assert.Empty(t, report.ErrorLog)
		assert.NotEmpty(t, report.RunID)
		assert.Equal(t, 5, report.Rows)

		assert.Equal(t, "3310.20", report.Documents[0].Totals.GrandTotal.StringFixed(2))
		assert.Equal(t, []string{
			filepath.Join("/out", "invoice_INV-001.xml"),
			filepath.Join("/out", "invoice_INV-002.xml"),
		}, report.Files())

		data, err := afero.ReadFile(fs, report.Documents[0].File)
		require.NoError(t, err)
		assert.Contains(t, string(data), `<value name="grand_total">$3,310.20</value>`)
	})

	t.Run("Should keep going when one document has a bad number", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		p := newPipeline(t, fs, invoiceConfig(config.FormatXML))
		table := sampleTable(invoiceRecord("INV-003", "Bob", "Widget", "abc", "5.00"))

		report, err := p.Run(context.Background(), table, Options{})
		require.NoError(t, err)

		require.Len(t, report.Documents, 3)
		assert.Len(t, report.Succeeded(), 2)
		failed := report.Failed()
		require.Len(t, failed, 1)
		assert.Equal(t, "INV-003", failed[0].Key)
		assert.Empty(t, failed[0].File)

		var numeric *calc.InvalidNumericFieldError
		require.ErrorAs(t, failed[0].Err, &numeric)
		assert.Equal(t, "quantity", numeric.Field)
		assert.Equal(t, "abc", numeric.Value)
		assert.Equal(t, 5, numeric.Row)
		assert.Equal(t, "InvalidNumericField", ErrorType(failed[0].Err))

		ok, _ := afero.Exists(fs, "/out/invoice_INV-001.xml")
		assert.True(t, ok)
		ok, _ = afero.Exists(fs, "/out/invoice_INV-003.xml")
		assert.False(t, ok)

		require.NotEmpty(t, report.ErrorLog)
		log, err := afero.ReadFile(fs, report.ErrorLog)
		require.NoError(t, err)
		assert.Contains(t, string(log), "INV-003")
		assert.Contains(t, string(log), `"abc"`)
	})

	t.Run("Should report a missing required field", func(t *testing.T) {
		p := newPipeline(t, afero.NewMemMapFs(), invoiceConfig(config.FormatXML))
		table := sampleTable(invoiceRecord("INV-003", "", "Widget", "1", "5.00"))

		report, err := p.Run(context.Background(), table, Options{DryRun: true})
		require.NoError(t, err)

		failed := report.Failed()
		require.Len(t, failed, 1)
		var required *validation.MissingRequiredFieldError
		require.ErrorAs(t, failed[0].Err, &required)
		assert.Equal(t, "customer_name", required.Field)
	})

	t.Run("Should report a blank required quantity as a missing field", func(t *testing.T) {
		p := newPipeline(t, afero.NewMemMapFs(), invoiceConfig(config.FormatXML))
		table := sampleTable(invoiceRecord("INV-003", "Bob", "Widget", "", "5.00"))

		report, err := p.Run(context.Background(), table, Options{DryRun: true})
		require.NoError(t, err)

		failed := report.Failed()
		require.Len(t, failed, 1)
		var required *validation.MissingRequiredFieldError
		require.ErrorAs(t, failed[0].Err, &required)
		assert.Equal(t, "quantity", required.Field)
		assert.Equal(t, 5, required.Row)
		assert.Equal(t, "MissingRequiredField", ErrorType(failed[0].Err))
	})

	t.Run("Should skip rows without a document number", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		p := newPipeline(t, fs, invoiceConfig(config.FormatXML))
		table := sampleTable(invoiceRecord("", "Bob", "Widget", "1", "5.00"))

		report, err := p.Run(context.Background(), table, Options{})
		require.NoError(t, err)

		assert.Equal(t, []int{5}, report.Rejected)
		var missing *grouping.MissingKeyFieldError
		assert.ErrorAs(t, report.RejectedErr, &missing)
		assert.Len(t, report.Succeeded(), 2)
		assert.True(t, report.HasFailures())
		assert.NotEmpty(t, report.ErrorLog)
	})

	t.Run("Should fail when the key column is absent", func(t *testing.T) {
		p := newPipeline(t, afero.NewMemMapFs(), invoiceConfig(config.FormatXML))
		table := types.TableFromRecords([]string{"number", "quantity"}, [][]string{{"1", "2"}})

		_, err := p.Run(context.Background(), table, Options{})
		assert.ErrorIs(t, err, ErrKeyColumnNotFound)
	})

	t.Run("Should only process the selected range", func(t *testing.T) {
		p := newPipeline(t, afero.NewMemMapFs(), invoiceConfig(config.FormatXML))

		report, err := p.Run(context.Background(), sampleTable(), Options{Range: []string{"INV-002", "INV-404"}})
		require.NoError(t, err)

		require.Len(t, report.Documents, 1)
		assert.Equal(t, "INV-002", report.Documents[0].Key)
		require.Len(t, report.Warnings, 1)
		assert.Contains(t, report.Warnings[0], "INV-404")
	})

	t.Run("Should warn about differing header values", func(t *testing.T) {
		p := newPipeline(t, afero.NewMemMapFs(), invoiceConfig(config.FormatXML))
		table := sampleTable(invoiceRecord("INV-002", "Someone Else", "Stickers", "10", "1.00"))

		report, err := p.Run(context.Background(), table, Options{DryRun: true})
		require.NoError(t, err)

		assert.Len(t, report.Succeeded(), 2)
		require.NotEmpty(t, report.Warnings)
		assert.Contains(t, report.Warnings[0], "customer_name")
	})

	t.Run("Should not write anything on a dry run", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		cfg := invoiceConfig(config.FormatPDF)
		cfg.Output.MergedFile = true
		p := newPipeline(t, fs, cfg)

		report, err := p.Run(context.Background(), sampleTable(), Options{DryRun: true, Summary: true})
		require.NoError(t, err)

		assert.Len(t, report.Succeeded(), 2)
		assert.NotNil(t, report.Documents[0].Model)
		assert.Empty(t, report.Files())
		assert.Empty(t, report.MergedFile)
		ok, _ := afero.DirExists(fs, "/out")
		assert.False(t, ok)
	})

	t.Run("Should write a merged PDF with several workers", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		cfg := invoiceConfig(config.FormatPDF)
		cfg.Output.IndividualFiles = false
		cfg.Output.MergedFile = true
		p := newPipeline(t, fs, cfg)

		var extra [][]string
		for _, n := range []string{"INV-003", "INV-004", "INV-005", "INV-006"} {
			extra = append(extra, invoiceRecord(n, "Bob", "Widget", "2", "5.00"))
		}
		report, err := p.Run(context.Background(), sampleTable(extra...), Options{Workers: 4, Summary: true})
		require.NoError(t, err)

		keys := make([]string, len(report.Documents))
		for i, d := range report.Documents {
			keys[i] = d.Key
		}
		assert.Equal(t, []string{"INV-001", "INV-002", "INV-003", "INV-004", "INV-005", "INV-006"}, keys)
		assert.Empty(t, report.Files())

		assert.Equal(t, filepath.Join("/out", "merged_invoices_20240301_090000.pdf"), report.MergedFile)
		data, err := afero.ReadFile(fs, report.MergedFile)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

		require.NotEmpty(t, report.SummaryLog)
		summary, err := afero.ReadFile(fs, report.SummaryLog)
		require.NoError(t, err)
		assert.Contains(t, string(summary), "Succeeded:      6")
	})

	t.Run("Should give distinct names to colliding documents", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		cfg := invoiceConfig(config.FormatXML)
		cfg.Output.FilenameTemplate = "{type}"
		p := newPipeline(t, fs, cfg)

		report, err := p.Run(context.Background(), sampleTable(), Options{Workers: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join("/out", "invoice.xml"),
			filepath.Join("/out", "invoice_2.xml"),
		}, report.Files())
	})

	t.Run("Should fail every document when cancelled", func(t *testing.T) {
		p := newPipeline(t, afero.NewMemMapFs(), invoiceConfig(config.FormatXML))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		report, err := p.Run(ctx, sampleTable(), Options{})
		require.NoError(t, err)
		require.Len(t, report.Failed(), 2)
		assert.True(t, errors.Is(report.Failed()[0].Err, context.Canceled))
	})
}

func TestNew(t *testing.T) {
	t.Run("Should reject an unknown transform", func(t *testing.T) {
		cfg := invoiceConfig(config.FormatXML)
		cfg.Transforms = []config.TransformRule{{Field: "invoice_number", Actions: []config.TransformAction{{Type: "shout"}}}}

		_, err := New(afero.NewMemMapFs(), invoice.Descriptor(), cfg, nil)
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
	})

	t.Run("Should reject a layout the generator cannot build", func(t *testing.T) {
		cfg := invoiceConfig(config.FormatXML)
		cfg.Layout = config.LayoutSalesOrder

		_, err := New(afero.NewMemMapFs(), invoice.Descriptor(), cfg, nil)
		assert.Error(t, err)
	})
}

func TestTransformsRunBeforeGrouping(t *testing.T) {
	cfg := invoiceConfig(config.FormatXML)
	cfg.Transforms = []config.TransformRule{{
		Field:   "invoice_number",
		Actions: []config.TransformAction{{Type: "trim"}, {Type: "uppercase"}},
	}}
	p := newPipeline(t, afero.NewMemMapFs(), cfg)
	table := sampleTable(invoiceRecord(" inv-001 ", "John Doe", "Support", "1", "10.00"))

	report, err := p.Run(context.Background(), table, Options{DryRun: true})
	require.NoError(t, err)

	require.Len(t, report.Documents, 2)
	assert.Equal(t, 4, report.Documents[0].Rows)
}
