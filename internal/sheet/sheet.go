// Package sheet reads tabular OEWS releases (.xlsx, .xls, .csv) into a
// uniform header-plus-rows table.
package sheet

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vvka-141/oews/pkg/oews"
)

// Table is one sheet's content. Header is the first non-empty row; Rows are
// every row after it, not padded to the header width.
type Table struct {
	Header []string
	Rows   [][]string
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Workbook is an open spreadsheet file.
type Workbook interface {
	// SheetNames returns sheet names in workbook order.
	SheetNames() []string
	// Read returns the named sheet as a Table.
	Read(sheet string) (*Table, error)
	Close() error
}

// Opener opens a workbook by path. Open is the production implementation.
type Opener func(path string) (Workbook, error)

// Open dispatches on the file extension.
func Open(path string) (Workbook, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return openXLSX(path)
	case ".xls":
		return openXLS(path)
	case ".csv":
		return openCSV(path)
	default:
		return nil, fmt.Errorf("%w: %s", oews.ErrUnsupportedFormat, filepath.Base(path))
	}
}

// ReadAll opens path and reads one sheet. An empty sheet name selects the
// first sheet.
func ReadAll(open Opener, path, sheetName string) (*Table, error) {
	wb, err := open(path)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	if sheetName == "" {
		names := wb.SheetNames()
		if len(names) == 0 {
			return &Table{}, nil
		}
		sheetName = names[0]
	}
	return wb.Read(sheetName)
}

// newTable splits raw rows into header and data rows. Leading blank rows are discarded.
func newTable(rows [][]string) *Table {
	for i, row := range rows {
		if isBlank(row) {
			continue
		}
		header := make([]string, len(row))
		for j, cell := range row {
			header[j] = strings.TrimSpace(cell)
		}
		return &Table{Header: header, Rows: rows[i+1:]}
	}
	return &Table{}
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
