// =============================================================================
// mergedoc - Data Loader
// =============================================================================
//
// Reads tabular source files into a types.Table and writes tables back out
// (used for sample data).
//
// SUPPORTED FORMATS:
//   .csv              comma separated
//   .tsv, .txt        tab separated
//   .xlsx, .xlsm      first worksheet of an Excel workbook
//
// READING RULES:
//   - The first row holds the column headers. Headers are trimmed and blank
//     headers become "Column_N".
//   - Blank rows are skipped.
//   - Short rows are padded with empty cells; extra cells are dropped.
//   - Cell values are trimmed of surrounding whitespace.
//
// =============================================================================

package loader

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/ginjaninja78/mergedoc-generator/internal/types"
)

// ErrUnsupportedFormat is returned for file extensions the loader cannot read.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ErrEmptySource is returned when a file has no header row.
var ErrEmptySource = errors.New("source file is empty")

// Format identifies a source file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat maps a file extension to a Format.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".tsv", ".txt":
		return FormatTSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q (expected .csv, .tsv, .txt, .xlsx)", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Load reads a source file, picking the reader from its extension.
func Load(fs afero.Fs, path string) (*types.Table, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	var table *types.Table
	switch format {
	case FormatCSV:
		table, err = readDelimited(fs, path, ',')
	case FormatTSV:
		table, err = readDelimited(fs, path, '\t')
	case FormatXLSX:
		table, err = readWorkbook(fs, path)
	}
	if err != nil {
		return nil, err
	}
	table.Source = path
	return table, nil
}

// Write stores a table in the format implied by the path's extension.
func Write(fs afero.Fs, path string, table *types.Table) error {
	format, err := DetectFormat(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	switch format {
	case FormatCSV:
		return writeDelimited(fs, path, ',', table)
	case FormatTSV:
		return writeDelimited(fs, path, '\t', table)
	default:
		return writeWorkbook(fs, path, table)
	}
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// buildTable turns raw records (header first) into a Table. lines holds
// the source line of each record; when nil, record i is line i+1.
func buildTable(records [][]string, lines []int) (*types.Table, error) {
	if len(records) == 0 {
		return nil, ErrEmptySource
	}

	headers := cleanHeaders(records[0])
	table := &types.Table{Columns: headers}

	for i, record := range records[1:] {
		if isRowEmpty(record) {
			continue
		}
		cells := make([]string, len(record))
		for j, c := range record {
			cells[j] = strings.TrimSpace(c)
		}
		line := i + 2
		if lines != nil {
			line = lines[i+1]
		}
		table.Rows = append(table.Rows, types.NewRow(len(table.Rows), line, headers, cells))
	}
	return table, nil
}

// cleanHeaders trims header names and fills in blank ones.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	for i, header := range headers {
		header = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}
	return cleaned
}

func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
