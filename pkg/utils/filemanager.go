// =============================================================================
// mergedoc - File Manager Utility
// =============================================================================
//
// This module owns everything the generator writes to disk:
//   - Output directory creation
//   - Output file naming (placeholders, unsafe characters, collisions)
//   - Writing rendered documents
//   - Error log and run summary files
//
// All access goes through an afero.Fs so tests can run in memory.
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/spf13/afero"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager writes output files into one directory. It is safe for
// concurrent use.
type FileManager struct {
	fs afero.Fs

	// OutputDir is the directory where output files are placed.
	OutputDir string

	// Now supplies timestamps for placeholders and log names.
	Now func() time.Time

	mu       sync.Mutex
	reserved map[string]bool
}

// NewFileManager creates a FileManager writing below outputDir.
func NewFileManager(fs afero.Fs, outputDir string) *FileManager {
	return &FileManager{
		fs:        fs,
		OutputDir: outputDir,
		Now:       time.Now,
		reserved:  make(map[string]bool),
	}
}

// EnsureOutputDir creates the output directory if it doesn't exist.
func (fm *FileManager) EnsureOutputDir() error {
	if err := fm.fs.MkdirAll(fm.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", fm.OutputDir, err)
	}
	return nil
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

var safeName = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// SafeFileName returns s unchanged when it is already a safe file name
// component, and a slug of s otherwise. It never returns "".
//
// EXAMPLE:
//   "INV-001"         -> "INV-001"
//   "ACME/2024 #7"    -> "acme-2024-7"
func SafeFileName(s string) string {
	s = strings.TrimSpace(s)
	if safeName.MatchString(s) && strings.Trim(s, ".") != "" {
		return s
	}
	if out := slug.Make(s); out != "" {
		return out
	}
	return "document"
}

// GenerateOutputFileName expands a file name template.
//
// PARAMETERS:
//   - format: The template.
//             Placeholders:
//               {uuid}      - A random UUID
//               {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//               {date}      - Current date (YYYYMMDD)
//               {time}      - Current time (HHMMSS)
//               {<key>}     - Any key of params, made file-name safe
//   - params: Placeholder values, e.g. document_number and type.
//   - ext: The required extension including the dot. A different
//          extension in the template is replaced.
//
// EXAMPLE:
//   format: "invoice_{document_number}.pdf"
//   params: {"document_number": "INV-001"}
//   ext:    ".xml"
//   output: "invoice_INV-001.xml"
func (fm *FileManager) GenerateOutputFileName(format string, params map[string]string, ext string) string {
	now := fm.Now()

	replacements := []string{
		"{uuid}", uuid.New().String(),
		"{timestamp}", now.Format("20060102_150405"),
		"{date}", now.Format("20060102"),
		"{time}", now.Format("150405"),
	}
	for key, value := range params {
		replacements = append(replacements, "{"+key+"}", SafeFileName(value))
	}
	result := strings.NewReplacer(replacements...).Replace(format)

	// Only the last path element of the template is used.
	result = filepath.Base(filepath.Clean("/" + result))
	if result == "/" || result == "." {
		result = "document"
	}

	if ext != "" {
		current := filepath.Ext(result)
		if !strings.EqualFold(current, ext) {
			result = strings.TrimSuffix(result, current) + ext
		}
	}
	return result
}

// Reserve returns a path in the output directory for name that no earlier
// Reserve call has returned, adding _2, _3, ... before the extension when
// needed.
func (fm *FileManager) Reserve(name string) string {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	candidate := name
	for i := 2; fm.reserved[candidate]; i++ {
		candidate = fmt.Sprintf("%s_%d%s", base, i, ext)
	}
	fm.reserved[candidate] = true
	return filepath.Join(fm.OutputDir, candidate)
}

// =============================================================================
// WRITING
// =============================================================================

// WriteFile creates path and fills it with write. A partially written file
// is removed when write fails.
func (fm *FileManager) WriteFile(path string, write func(io.Writer) error) error {
	file, err := fm.fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	w := bufio.NewWriter(file)
	err = write(w)
	if err == nil {
		err = w.Flush()
	}
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = fm.fs.Remove(path)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// =============================================================================
// ERROR LOG GENERATION
// =============================================================================

// ErrorLogEntry represents a single error log entry.
type ErrorLogEntry struct {
	Timestamp time.Time
	Source    string
	Document  string
	ErrorType string
	Message   string

	// Row is the zero-based input row, or -1 when the error has no row.
	Row   int
	Field string
	Value string
}

// WriteErrorLog writes entries to error_log_<timestamp>.txt in the output
// directory.
//
// RETURNS:
//   - The path to the error log file ("" when there is nothing to log).
//   - An error if writing fails.
func (fm *FileManager) WriteErrorLog(entries []ErrorLogEntry) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}
	now := fm.Now()
	path := fm.Reserve(fmt.Sprintf("error_log_%s.txt", now.Format("20060102_150405")))

	err := fm.WriteFile(path, func(w io.Writer) error {
		fmt.Fprintf(w, "mergedoc - Error Log\n"+
			"Generated: %s\n"+
			"Total Errors: %d\n"+
			"================================================================================\n\n",
			now.Format("2006-01-02 15:04:05"), len(entries))

		for i, entry := range entries {
			fmt.Fprintf(w, "Error #%d\n", i+1)
			fmt.Fprintf(w, "  Timestamp:      %s\n", entry.Timestamp.Format("2006-01-02 15:04:05"))
			if entry.Source != "" {
				fmt.Fprintf(w, "  File:           %s\n", entry.Source)
			}
			if entry.Document != "" {
				fmt.Fprintf(w, "  Document:       %s\n", entry.Document)
			}
			fmt.Fprintf(w, "  Error Type:     %s\n", entry.ErrorType)
			fmt.Fprintf(w, "  Message:        %s\n", entry.Message)
			if entry.Row >= 0 {
				fmt.Fprintf(w, "  Row:            %d\n", entry.Row)
			}
			if entry.Field != "" {
				fmt.Fprintf(w, "  Field:          %s\n", entry.Field)
			}
			if entry.Value != "" {
				fmt.Fprintf(w, "  Value:          %q\n", entry.Value)
			}
			fmt.Fprintln(w)
		}

		_, err := io.WriteString(w, "================================================================================\n"+
			"End of Error Log\n")
		return err
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

// =============================================================================
// RUN SUMMARY
// =============================================================================

// RunSummary contains summary information about one generate run.
type RunSummary struct {
	RunID        string
	DocumentType string
	Source       string
	StartTime    time.Time
	EndTime      time.Time
	Rows         int
	Documents    int
	Succeeded    int
	Failed       int
	Rejected     int
	Files        []string
	MergedFile   string
	Failures     []FailureInfo
}

// FailureInfo names a failed document.
type FailureInfo struct {
	Document string
	Message  string
}

// WriteSummaryLog writes run_summary_<timestamp>.txt in the output directory.
func (fm *FileManager) WriteSummaryLog(summary RunSummary) (string, error) {
	path := fm.Reserve(fmt.Sprintf("run_summary_%s.txt", fm.Now().Format("20060102_150405")))

	err := fm.WriteFile(path, func(w io.Writer) error {
		fmt.Fprintf(w, "mergedoc - Run Summary\n"+
			"================================================================================\n\n"+
			"Run Information:\n"+
			"  Run ID:         %s\n"+
			"  Document Type:  %s\n"+
			"  Source:         %s\n"+
			"  Start Time:     %s\n"+
			"  End Time:       %s\n"+
			"  Duration:       %s\n\n"+
			"Statistics:\n"+
			"  Rows:           %d\n"+
			"  Rejected Rows:  %d\n"+
			"  Documents:      %d\n"+
			"  Succeeded:      %d\n"+
			"  Failed:         %d\n\n",
			summary.RunID,
			summary.DocumentType,
			summary.Source,
			summary.StartTime.Format("2006-01-02 15:04:05"),
			summary.EndTime.Format("2006-01-02 15:04:05"),
			summary.EndTime.Sub(summary.StartTime).String(),
			summary.Rows,
			summary.Rejected,
			summary.Documents,
			summary.Succeeded,
			summary.Failed)

		if len(summary.Files) > 0 || summary.MergedFile != "" {
			io.WriteString(w, "Generated Files:\n")
			io.WriteString(w, "--------------------------------------------------------------------------------\n")
			for _, f := range summary.Files {
				fmt.Fprintf(w, "  %s\n", f)
			}
			if summary.MergedFile != "" {
				fmt.Fprintf(w, "  %s (merged)\n", summary.MergedFile)
			}
			io.WriteString(w, "\n")
		}

		if len(summary.Failures) > 0 {
			io.WriteString(w, "Failed Documents:\n")
			io.WriteString(w, "--------------------------------------------------------------------------------\n")
			for _, f := range summary.Failures {
				fmt.Fprintf(w, "  Document: %s\n", f.Document)
				fmt.Fprintf(w, "  Error:    %s\n\n", f.Message)
			}
		}

		_, err := io.WriteString(w, "================================================================================\n"+
			"End of Summary\n")
		return err
	})
	if err != nil {
		return "", err
	}
	return path, nil
}
