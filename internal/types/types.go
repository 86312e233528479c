// =============================================================================
// mergedoc - Shared Types
// =============================================================================
//
// This package contains the record types shared by the loader, the grouper,
// the calculation engine and the document generators. Keeping them here
// avoids import cycles between those packages.
//
// =============================================================================

package types

import "strings"

// =============================================================================
// ROW
// =============================================================================

// Row is a single input record keyed by column name.
//
// Rows are never modified once loaded. Anything that needs a different value
// (for example a transformation rule) builds a new Row with Clone.
type Row struct {
	// Index is the zero-based position of the row in the loaded sequence.
	// Error reports refer to rows by this index.
	Index int

	// Line is the row number in the source file (1-indexed, header included).
	// Zero for rows that did not come from a file, such as sample data.
	Line int

	// Values maps column name to the raw cell text.
	Values map[string]string
}

// NewRow builds a Row from parallel column/cell slices.
// Missing cells are stored as empty strings.
func NewRow(index, line int, columns, cells []string) Row {
	values := make(map[string]string, len(columns))
	for i, column := range columns {
		if i < len(cells) {
			values[column] = cells[i]
		} else {
			values[column] = ""
		}
	}
	return Row{Index: index, Line: line, Values: values}
}

// Get returns the value of a column and whether the column exists in the row.
func (r Row) Get(column string) (string, bool) {
	v, ok := r.Values[column]
	return v, ok
}

// Value returns the value of a column, or "" when the column is absent.
func (r Row) Value(column string) string {
	return r.Values[column]
}

// Has reports whether the column exists and holds a non-blank value.
func (r Row) Has(column string) bool {
	return strings.TrimSpace(r.Values[column]) != ""
}

// Clone returns a deep copy of the row.
func (r Row) Clone() Row {
	values := make(map[string]string, len(r.Values))
	for k, v := range r.Values {
		values[k] = v
	}
	return Row{Index: r.Index, Line: r.Line, Values: values}
}

// Cells returns the row's values in the order of the given columns.
func (r Row) Cells(columns []string) []string {
	cells := make([]string, len(columns))
	for i, column := range columns {
		cells[i] = r.Values[column]
	}
	return cells
}

// =============================================================================
// TABLE
// =============================================================================

// Table is an ordered set of columns plus the rows that use them.
// The loader produces tables and the sample-data factories return them.
type Table struct {
	// Columns holds the header names in their source order.
	Columns []string

	// Rows holds the data rows in their source order.
	Rows []Row

	// Source is the path the table was read from, if any.
	Source string
}

// HasColumn reports whether the table declares the named column.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// TableFromRecords builds a Table from column names and raw records.
// Record i becomes the row with Index i.
func TableFromRecords(columns []string, records [][]string) *Table {
	rows := make([]Row, len(records))
	for i, record := range records {
		rows[i] = NewRow(i, 0, columns, record)
	}
	return &Table{Columns: columns, Rows: rows}
}
