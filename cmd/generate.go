// =============================================================================
// mergedoc - Generate Command
// =============================================================================
//
// This file defines the 'generate' command, the main command of the tool.
//
// COMMAND USAGE:
//   mergedoc generate -t <type> -s <source> [flags]
//
// FLAGS:
//   --type, -t    : Document type (see 'mergedoc types')
//   --source, -s  : CSV, TSV or XLSX file with one row per line item
//   --range, -r   : Document numbers or spans "A..B" to generate (repeatable)
//   --dry-run     : Generate everything in memory, write nothing
//   --format      : Override the output format (pdf or xml)
//   --output-dir  : Override the output directory
//   --workers     : Documents processed at once
//   --summary     : Also write a run summary file
//
// PROCESSING PIPELINE:
//   1. Resolve the document type and its configuration
//   2. Load the source file
//   3. Run the batch (see internal/pipeline)
//   4. Print the summary; exit non-zero when any document failed
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/mergedoc-generator/internal/config"
	"github.com/ginjaninja78/mergedoc-generator/internal/loader"
	"github.com/ginjaninja78/mergedoc-generator/internal/pipeline"
)

// generateOptions holds the generate command's flags.
type generateOptions struct {
	docType   string
	source    string
	ranges    []string
	dryRun    bool
	format    string
	outputDir string
	workers   int
	summary   bool
}

// =============================================================================
// GENERATE COMMAND DEFINITION
// =============================================================================

func newGenerateCmd(a *app) *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate documents from a data file",
		Long: `The generate command groups the rows of the source file by document number
and produces one document per group.

Each document is processed independently. A document with bad data (for
example a quantity that is not a number) is skipped and reported, and the
remaining documents are still generated.

On completion:
  - One file per document is written to the output directory
  - A merged file is written when the config enables it
  - Failures are listed and written to error_log_<timestamp>.txt
  - The exit status is non-zero when any document failed`,
		Example: `  mergedoc generate -t invoice -s invoices.csv
  mergedoc generate -t invoice -s invoices.csv -r INV-001 -r INV-005..INV-009
  mergedoc generate -t sales_order -s orders.xlsx --dry-run -v`,

		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGenerate(cmd, opts)
		},
	}

	// ==========================================================================
	// LOCAL FLAGS
	// ==========================================================================

	flags := cmd.Flags()
	flags.StringVarP(&opts.docType, "type", "t", "", "Document type to generate")
	flags.StringVarP(&opts.source, "source", "s", "", "Source data file (.csv, .tsv, .txt, .xlsx)")
	flags.StringSliceVarP(&opts.ranges, "range", "r", nil, "Document numbers or inclusive spans A..B to generate")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Generate documents without writing any files")
	flags.StringVar(&opts.format, "format", "", "Output format: pdf or xml (overrides the config)")
	flags.StringVar(&opts.outputDir, "output-dir", "", "Output directory (overrides the config)")
	flags.IntVar(&opts.workers, "workers", 0, "Documents processed at once (default from MERGEDOC_WORKERS or 1)")
	flags.BoolVar(&opts.summary, "summary", false, "Also write run_summary_<timestamp>.txt")

	cmd.MarkFlagRequired("type")
	cmd.MarkFlagRequired("source")
	return cmd
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func (a *app) runGenerate(cmd *cobra.Command, opts *generateOptions) error {
	out := cmd.OutOrStdout()

	// =========================================================================
	// STEP 1: RESOLVE TYPE AND CONFIGURATION
	// =========================================================================

	desc, err := a.lookup(opts.docType)
	if err != nil {
		return err
	}

	cfg, cfgPath, err := config.Load(a.fs, a.loc, desc.DefaultConfig(), a.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfgPath != "" {
		a.log.Info("Using config file", "path", cfgPath)
	} else {
		a.log.Debug("No config file found, using defaults", "type", desc.Name)
	}

	overrides := config.DocumentConfig{
		Output: config.Output{Format: opts.format, OutputDirectory: opts.outputDir},
	}
	if err := config.Override(cfg, overrides); err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	// =========================================================================
	// STEP 2: LOAD SOURCE
	// =========================================================================

	table, err := loader.Load(a.fs, opts.source)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", opts.source, err)
	}
	a.log.Info("Loaded source", "path", opts.source, "rows", len(table.Rows))

	// =========================================================================
	// STEP 3: RUN BATCH
	// =========================================================================

	p, err := pipeline.New(a.fs, desc, *cfg, a.log)
	if err != nil {
		return err
	}

	workers := a.settings.Workers
	if cmd.Flags().Changed("workers") {
		workers = opts.workers
	}

	report, err := p.Run(cmd.Context(), table, pipeline.Options{
		Range:   opts.ranges,
		DryRun:  opts.dryRun,
		Workers: workers,
		Summary: opts.summary,
	})
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 4: PRINT SUMMARY
	// =========================================================================

	printReport(out, desc.DisplayName, report)

	if report.HasFailures() {
		return fmt.Errorf("%d document(s) failed, %d row(s) rejected", len(report.Failed()), len(report.Rejected))
	}
	return nil
}

// printReport writes the human-readable run summary.
func printReport(w io.Writer, displayName string, report *pipeline.Report) {
	fmt.Fprintf(w, "=== mergedoc: %s ===\n", displayName)
	if report.DryRun {
		fmt.Fprintln(w, "Dry run: no files were written.")
	}

	for _, d := range report.Documents {
		switch {
		case !d.OK():
			fmt.Fprintf(w, "  ✗ %s: [%s] %v\n", d.Key, pipeline.ErrorType(d.Err), d.Err)
		case d.File != "":
			fmt.Fprintf(w, "  ✓ %s -> %s\n", d.Key, d.File)
		default:
			fmt.Fprintf(w, "  ✓ %s (total %s)\n", d.Key, d.Model.Value("grand_total"))
		}
	}
	if report.RejectedErr != nil {
		fmt.Fprintf(w, "  ✗ %v\n", report.RejectedErr)
	}
	for _, warning := range report.Warnings {
		fmt.Fprintf(w, "  ! %s\n", warning)
	}

	fmt.Fprintln(w, "\n=== Processing Complete ===")
	fmt.Fprintf(w, "Rows:            %d\n", report.Rows)
	fmt.Fprintf(w, "Documents:       %d\n", len(report.Documents))
	fmt.Fprintf(w, "Successful:      %d\n", len(report.Succeeded()))
	fmt.Fprintf(w, "Errors:          %d\n", len(report.Failed()))
	fmt.Fprintf(w, "Time elapsed:    %s\n", report.Duration())
	if report.MergedFile != "" {
		fmt.Fprintf(w, "Merged file:     %s\n", report.MergedFile)
	}
	if report.ErrorLog != "" {
		fmt.Fprintf(w, "\nErrors have been logged to %s\n", report.ErrorLog)
	}
	if report.SummaryLog != "" {
		fmt.Fprintf(w, "Run summary:     %s\n", report.SummaryLog)
	}
}
