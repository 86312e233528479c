package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/ginjaninja78/mergedoc-generator/internal/calc"
	"github.com/ginjaninja78/mergedoc-generator/internal/document"
	"github.com/ginjaninja78/mergedoc-generator/internal/grouping"
	"github.com/ginjaninja78/mergedoc-generator/internal/validation"
	"github.com/ginjaninja78/mergedoc-generator/pkg/utils"
)

// =============================================================================
// RESULT STRUCTURES
// =============================================================================

// DocumentResult is the outcome for one document group.
type DocumentResult struct {
	// Key is the group's document number.
	Key string

	// Rows is the number of input rows in the group.
	Rows int

	// Totals holds the calculation result. Nil when calculation failed.
	Totals *calc.Result

	// Model is the generated document. Nil when generation failed.
	Model *document.Model

	// File is the written output file. Empty for dry runs, for failed
	// documents and when individual files are disabled.
	File string

	// Err is nil when the document succeeded.
	Err error
}

// OK reports whether the document succeeded.
func (d *DocumentResult) OK() bool {
	return d.Err == nil
}

// Report summarizes one batch run. Documents are in input key order.
type Report struct {
	RunID        string
	DocumentType string
	Source       string
	DryRun       bool

	StartTime time.Time
	EndTime   time.Time

	// Rows is the number of rows read from the source.
	Rows int

	// Rejected holds row indices that had no document number.
	Rejected []int

	// RejectedErr is the grouper's error for the rejected rows, if any.
	RejectedErr error

	Documents []DocumentResult

	// MergedFile is the combined output file, if one was written.
	MergedFile string

	// ErrorLog is the error log file, if one was written.
	ErrorLog string

	// SummaryLog is the run summary file, if one was written.
	SummaryLog string

	// Warnings are data-quality findings that did not fail a document.
	Warnings []string
}

// Succeeded returns the documents that were generated.
func (r *Report) Succeeded() []DocumentResult {
	var out []DocumentResult
	for _, d := range r.Documents {
		if d.OK() {
			out = append(out, d)
		}
	}
	return out
}

// Failed returns the documents that could not be generated.
func (r *Report) Failed() []DocumentResult {
	var out []DocumentResult
	for _, d := range r.Documents {
		if !d.OK() {
			out = append(out, d)
		}
	}
	return out
}

// Files returns the individual output files in key order.
func (r *Report) Files() []string {
	var out []string
	for _, d := range r.Documents {
		if d.File != "" {
			out = append(out, d.File)
		}
	}
	return out
}

// HasFailures reports whether any document failed or any row was rejected.
func (r *Report) HasFailures() bool {
	return len(r.Rejected) > 0 || len(r.Failed()) > 0
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// =============================================================================
// ERROR LOG ENTRIES
// =============================================================================

// ErrorType names the kind of a failure for logs and the console.
func ErrorType(err error) string {
	var (
		missingKey *grouping.MissingKeyFieldError
		required   *validation.MissingRequiredFieldError
		numeric    *calc.InvalidNumericFieldError
	)
	switch {
	case errors.As(err, &missingKey):
		return "MissingKeyField"
	case errors.As(err, &required):
		return "MissingRequiredField"
	case errors.As(err, &numeric):
		return "InvalidNumericField"
	case errors.Is(err, errRender):
		return "RenderError"
	case errors.Is(err, errWrite):
		return "WriteError"
	default:
		return "Error"
	}
}

// entries flattens the report's problems into error log entries: one per
// rejected row and one per offending field of each failed document.
func (r *Report) entries() []utils.ErrorLogEntry {
	now := r.EndTime
	var out []utils.ErrorLogEntry

	var missingKey *grouping.MissingKeyFieldError
	if errors.As(r.RejectedErr, &missingKey) {
		for _, row := range missingKey.Rows {
			out = append(out, utils.ErrorLogEntry{
				Timestamp: now,
				Source:    r.Source,
				ErrorType: "MissingKeyField",
				Message:   fmt.Sprintf("row has no value in key field %q", missingKey.Field),
				Row:       row,
				Field:     missingKey.Field,
			})
		}
	}

	for _, d := range r.Failed() {
		base := utils.ErrorLogEntry{
			Timestamp: now,
			Source:    r.Source,
			Document:  d.Key,
			ErrorType: ErrorType(d.Err),
			Message:   d.Err.Error(),
			Row:       -1,
		}

		var required *validation.MissingRequiredFieldError
		if errors.As(d.Err, &required) {
			base.Row = required.Row
			base.Field = required.Field
			out = append(out, base)
			continue
		}

		if fields := calc.InvalidFields(d.Err); len(fields) > 0 {
			for _, f := range fields {
				entry := base
				entry.Message = f.Error()
				entry.Row = f.Row
				entry.Field = f.Field
				entry.Value = f.Value
				out = append(out, entry)
			}
			continue
		}

		out = append(out, base)
	}
	return out
}

// summary converts the report for the summary log.
func (r *Report) summary() utils.RunSummary {
	s := utils.RunSummary{
		RunID:        r.RunID,
		DocumentType: r.DocumentType,
		Source:       r.Source,
		StartTime:    r.StartTime,
		EndTime:      r.EndTime,
		Rows:         r.Rows,
		Documents:    len(r.Documents),
		Rejected:     len(r.Rejected),
		Files:        r.Files(),
		MergedFile:   r.MergedFile,
	}
	for _, d := range r.Documents {
		if d.OK() {
			s.Succeeded++
			continue
		}
		s.Failed++
		s.Failures = append(s.Failures, utils.FailureInfo{Document: d.Key, Message: d.Err.Error()})
	}
	return s
}
