// =============================================================================
// mergedoc - Pipeline Module
// =============================================================================
//
// This module runs one batch: it turns a loaded table into documents for a
// single document type.
//
// PIPELINE:
//   1. Check that the key column exists
//   2. Apply transformation rules to the rows
//   3. Group rows into documents by the key column
//   4. Apply the document range filter
//   5. For each document: check required fields, calculate, generate,
//      render, write
//   6. Write the merged file
//   7. Write the error log and run summary
//
// FAILURES:
//   A failing document never stops the batch. Its error is recorded in the
//   report and the remaining documents are still produced. Only problems
//   that make every document meaningless (a missing key column, an output
//   directory that cannot be created) end the run early.
//
// CONCURRENCY:
//   Documents are processed by up to Options.Workers goroutines. Each
//   document writes into its own slot of the report, so the report and the
//   merged file always follow input key order.
//
// =============================================================================

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/mergedoc-generator/internal/calc"
	"github.com/ginjaninja78/mergedoc-generator/internal/config"
	"github.com/ginjaninja78/mergedoc-generator/internal/document"
	"github.com/ginjaninja78/mergedoc-generator/internal/grouping"
	"github.com/ginjaninja78/mergedoc-generator/internal/logger"
	"github.com/ginjaninja78/mergedoc-generator/internal/registry"
	"github.com/ginjaninja78/mergedoc-generator/internal/render"
	"github.com/ginjaninja78/mergedoc-generator/internal/transform"
	"github.com/ginjaninja78/mergedoc-generator/internal/types"
	"github.com/ginjaninja78/mergedoc-generator/internal/validation"
	"github.com/ginjaninja78/mergedoc-generator/pkg/utils"
)

// ErrKeyColumnNotFound is returned when the source has no document number column.
var ErrKeyColumnNotFound = errors.New("document number column not found in source")

var (
	errRender = errors.New("render failed")
	errWrite  = errors.New("write failed")
)

// =============================================================================
// PIPELINE STRUCTURE
// =============================================================================

// Pipeline produces documents of one type from loaded tables.
// A Pipeline holds no per-run state and may be reused.
type Pipeline struct {
	cfg       config.DocumentConfig
	generator document.Generator
	spec      calc.Spec
	transform *transform.Transformer
	required  validation.Requirements
	renderer  render.Renderer
	fs        afero.Fs
	headers   []string
	log       logger.Logger

	// Now supplies the run timestamps.
	Now func() time.Time
}

// Options control a single Run.
type Options struct {
	// Range limits the run to these document numbers. Entries are keys or
	// inclusive spans "A..B". Empty means every document.
	Range []string

	// DryRun generates every document but writes nothing.
	DryRun bool

	// Workers bounds concurrent document processing. Values below 1 mean 1.
	Workers int

	// Summary writes a run summary file next to the output.
	Summary bool
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// New prepares a pipeline for a document type.
//
// PARAMETERS:
//   - fs: filesystem for output files and logo images.
//   - desc: the document type.
//   - cfg: the resolved, validated configuration for desc.
//   - log: the run logger.
//
// RETURNS:
//   - A ready Pipeline.
//   - An error when the configuration cannot drive this document type.
func New(fs afero.Fs, desc registry.Descriptor, cfg config.DocumentConfig, log logger.Logger) (*Pipeline, error) {
	if log == nil {
		log = logger.Discard()
	}

	gen, err := desc.NewGenerator(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s generator: %w", desc.Name, err)
	}

	spec, err := calc.NewSpec(cfg.Calculations)
	if err != nil {
		return nil, fmt.Errorf("%w: calculations: %v", config.ErrInvalidConfig, err)
	}

	tr, err := transform.New(cfg.Transforms)
	if err != nil {
		return nil, fmt.Errorf("%w: transforms: %v", config.ErrInvalidConfig, err)
	}

	renderer, err := render.New(cfg.Output.Format, fs)
	if err != nil {
		return nil, fmt.Errorf("%w: output: %v", config.ErrInvalidConfig, err)
	}

	return &Pipeline{
		cfg:       cfg,
		generator: gen,
		spec:      spec,
		transform: tr,
		required:  validation.RequirementsFor(cfg.Fields),
		renderer:  renderer,
		fs:        fs,
		headers:   validation.HeaderFields(cfg),
		log:       log.With("type", cfg.DocumentType),
		Now:       time.Now,
	}, nil
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run processes a loaded table.
//
// RETURNS:
//   - The report. It lists every document in key order with its outcome.
//   - An error only when the run could not produce anything meaningful.
//     Per-document failures are in the report, not here.
func (p *Pipeline) Run(ctx context.Context, table *types.Table, opts Options) (*Report, error) {
	files := utils.NewFileManager(p.fs, p.cfg.Output.OutputDirectory)
	files.Now = p.Now

	report := &Report{
		RunID:        uuid.NewString(),
		DocumentType: p.cfg.DocumentType,
		Source:       table.Source,
		DryRun:       opts.DryRun,
		StartTime:    p.Now(),
		Rows:         len(table.Rows),
	}
	log := p.log.With("run", report.RunID)

	// =========================================================================
	// STEP 1: CHECK KEY COLUMN
	// =========================================================================

	keyField := p.cfg.Fields.DocumentNumberField
	if !table.HasColumn(keyField) {
		return nil, fmt.Errorf("%w: %q (columns: %s)", ErrKeyColumnNotFound, keyField, strings.Join(table.Columns, ", "))
	}

	// =========================================================================
	// STEP 2: APPLY TRANSFORMATION RULES
	// =========================================================================

	rows := table.Rows
	if !p.transform.Empty() {
		rows = p.transform.Apply(rows)
		log.Debug("Applied transformation rules", "rules", len(p.cfg.Transforms))
	}

	// =========================================================================
	// STEP 3: GROUP ROWS INTO DOCUMENTS
	// =========================================================================

	groups, err := grouping.Partition(rows, keyField)
	if err != nil {
		var missing *grouping.MissingKeyFieldError
		if !errors.As(err, &missing) {
			return nil, fmt.Errorf("failed to group rows: %w", err)
		}
		report.Rejected = groups.Rejected()
		report.RejectedErr = err
		log.Warn("Rows without a document number were skipped", "field", keyField, "rows", missing.Rows)
	}
	log.Debug("Grouped rows", "rows", len(rows), "documents", groups.Len())

	// =========================================================================
	// STEP 4: RANGE FILTER
	// =========================================================================

	if len(opts.Range) > 0 {
		selected, unknown := ResolveRange(groups.Keys(), opts.Range)
		for _, entry := range unknown {
			msg := fmt.Sprintf("range entry %q matches no document", entry)
			report.Warnings = append(report.Warnings, msg)
			log.Warn(msg)
		}
		groups = groups.Filter(selected)
		log.Debug("Applied range filter", "documents", groups.Len())
	}

	for _, g := range groups.Groups() {
		for _, issue := range validation.CheckHeaderConsistency(g, p.headers) {
			report.Warnings = append(report.Warnings, issue.String())
			log.Warn("Header value differs within document", "document", issue.Document, "row", issue.Row, "field", issue.Field)
		}
	}

	if !opts.DryRun {
		if err := files.EnsureOutputDir(); err != nil {
			return nil, err
		}
	}

	// =========================================================================
	// STEP 5: PROCESS DOCUMENTS
	// =========================================================================

	report.Documents = p.processAll(ctx, files, groups.Groups(), opts, log)

	// =========================================================================
	// STEP 6: MERGED FILE
	// =========================================================================

	if p.cfg.Output.MergedFile && !opts.DryRun {
		path, err := p.writeMerged(files, report.Documents)
		switch {
		case err != nil:
			report.Warnings = append(report.Warnings, err.Error())
			log.Error("Failed to write merged file", "err", err)
		case path != "":
			report.MergedFile = path
			log.Info("Wrote merged file", "path", path)
		}
	}

	// =========================================================================
	// STEP 7: LOGS
	// =========================================================================

	report.EndTime = p.Now()

	if !opts.DryRun {
		if path, err := files.WriteErrorLog(report.entries()); err != nil {
			log.Error("Failed to write error log", "err", err)
		} else if path != "" {
			report.ErrorLog = path
			log.Info("Wrote error log", "path", path)
		}

		if opts.Summary {
			if path, err := files.WriteSummaryLog(report.summary()); err != nil {
				log.Error("Failed to write run summary", "err", err)
			} else {
				report.SummaryLog = path
			}
		}
	}

	log.Info("Batch complete",
		"succeeded", len(report.Succeeded()),
		"failed", len(report.Failed()),
		"rejected_rows", len(report.Rejected),
		"duration", report.Duration())
	return report, nil
}

// processAll runs every group through process. Output paths are reserved
// up front so collision suffixes follow key order regardless of scheduling.
func (p *Pipeline) processAll(ctx context.Context, files *utils.FileManager, groups []*grouping.Group, opts Options, log logger.Logger) []DocumentResult {
	results := make([]DocumentResult, len(groups))

	paths := make([]string, len(groups))
	if p.cfg.Output.IndividualFiles && !opts.DryRun {
		for i, g := range groups {
			name := files.GenerateOutputFileName(p.cfg.Output.FilenameTemplate, map[string]string{
				"document_number": g.Key,
				"type":            p.cfg.DocumentType,
			}, p.renderer.Extension())
			paths[i] = files.Reserve(name)
		}
	}

	workers := max(opts.Workers, 1)
	log.Info("Processing documents", "documents", len(groups), "workers", workers, "dry_run", opts.DryRun)

	var eg errgroup.Group
	eg.SetLimit(workers)
	for i, g := range groups {
		if err := ctx.Err(); err != nil {
			results[i] = DocumentResult{Key: g.Key, Rows: len(g.Rows), Err: err}
			continue
		}
		eg.Go(func() error {
			results[i] = p.process(ctx, files, g, paths[i], log.With("document", g.Key))
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

// process produces one document. path is empty when no individual file
// should be written.
func (p *Pipeline) process(ctx context.Context, files *utils.FileManager, g *grouping.Group, path string, log logger.Logger) DocumentResult {
	res := DocumentResult{Key: g.Key, Rows: len(g.Rows)}
	fail := func(err error) DocumentResult {
		res.Err = err
		log.Warn("Document failed", "error_type", ErrorType(err), "err", err)
		return res
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	// A blank required quantity is a missing field, not a bad number.
	if err := p.required.Check(g); err != nil {
		return fail(err)
	}

	totals, err := p.spec.Calculate(g)
	if err != nil {
		return fail(err)
	}
	res.Totals = totals

	model, err := p.generator.Generate(g, totals)
	if err != nil {
		return fail(err)
	}
	res.Model = model

	if path == "" {
		log.Debug("Generated document", "grand_total", totals.GrandTotal.StringFixed(2))
		return res
	}

	err = files.WriteFile(path, func(w io.Writer) error {
		if err := p.renderer.Render(model, w); err != nil {
			return fmt.Errorf("%w: %w", errRender, err)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, errRender) {
			err = fmt.Errorf("%w: %w", errWrite, err)
		}
		res.Model = nil
		return fail(err)
	}
	res.File = path
	log.Debug("Wrote document", "path", path)
	return res
}

// writeMerged renders every successful document into one file. It returns
// "" when there is nothing to merge.
func (p *Pipeline) writeMerged(files *utils.FileManager, docs []DocumentResult) (string, error) {
	var models []*document.Model
	for _, d := range docs {
		if d.OK() && d.Model != nil {
			models = append(models, d.Model)
		}
	}
	if len(models) == 0 {
		return "", nil
	}

	format := p.cfg.Output.MergedFilename
	if format == "" {
		format = "merged_{type}_{timestamp}"
	}
	name := files.GenerateOutputFileName(format, map[string]string{"type": p.cfg.DocumentType}, p.renderer.Extension())
	path := files.Reserve(name)

	if err := files.WriteFile(path, func(w io.Writer) error {
		return p.renderer.RenderMerged(models, w)
	}); err != nil {
		return "", fmt.Errorf("merged file: %w", err)
	}
	return path, nil
}
