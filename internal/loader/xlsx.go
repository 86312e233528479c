package loader

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/mergedoc-generator/internal/types"
)

// readWorkbook reads the first worksheet of an Excel workbook.
func readWorkbook(fs afero.Fs, path string) (*types.Table, error) {
	file, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("%s: workbook has no sheets", path)
	}

	// Raw values: a quantity styled "#,##0" must load as 1000, not "1,000".
	// Date cells come back as serial numbers.
	records, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from %s: %w", path, err)
	}
	table, err := buildTable(records, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// writeWorkbook writes a table to a single-sheet workbook named "Data".
// Cells that look like plain numbers are stored as numbers.
func writeWorkbook(fs afero.Fs, path string, table *types.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Data"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(table.Columns))
	for i, c := range table.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range table.Rows {
		cells := row.Cells(table.Columns)
		values := make([]interface{}, len(cells))
		for j, c := range cells {
			values[j] = cellValue(c)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	out, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer out.Close()
	if err := f.Write(out); err != nil {
		return fmt.Errorf("failed to write workbook %s: %w", path, err)
	}
	return nil
}

// cellValue returns a float64 for plain numbers and the string otherwise.
// Values with leading zeros ("007") stay text.
func cellValue(s string) interface{} {
	if s == "" || strings.Trim(s, "0123456789.-") != "" {
		return s
	}
	if len(s) > 1 && strings.HasPrefix(s, "0") && !strings.HasPrefix(s, "0.") {
		return s
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return s
}
