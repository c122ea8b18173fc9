package sheet

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

type xlsxWorkbook struct {
	file *excelize.File
}

func openXLSX(path string) (Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx %s: %w", path, err)
	}
	return &xlsxWorkbook{file: f}, nil
}

func (w *xlsxWorkbook) SheetNames() []string {
	return w.file.GetSheetList()
}

func (w *xlsxWorkbook) Read(sheet string) (*Table, error) {
	// Raw values: a number format such as #,##0 would otherwise round the stored number.
	rows, err := w.file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return newTable(rows), nil
}

func (w *xlsxWorkbook) Close() error {
	return w.file.Close()
}
