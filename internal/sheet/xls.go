package sheet

import (
	"fmt"

	"github.com/extrame/xls"
)

// Pre-2007 OEWS releases ship as BIFF8 workbooks.
type xlsWorkbook struct {
	book *xls.WorkBook
}

func openXLS(path string) (Workbook, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls %s: %w", path, err)
	}
	return &xlsWorkbook{book: wb}, nil
}

func (w *xlsWorkbook) SheetNames() []string {
	names := make([]string, 0, w.book.NumSheets())
	for i := 0; i < w.book.NumSheets(); i++ {
		if ws := w.book.GetSheet(i); ws != nil {
			names = append(names, ws.Name)
		}
	}
	return names
}

func (w *xlsWorkbook) Read(sheet string) (*Table, error) {
	for i := 0; i < w.book.NumSheets(); i++ {
		ws := w.book.GetSheet(i)
		if ws == nil || ws.Name != sheet {
			continue
		}
		rows := make([][]string, 0, int(ws.MaxRow)+1)
		for r := 0; r <= int(ws.MaxRow); r++ {
			row := ws.Row(r)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			cells := make([]string, row.LastCol())
			for c := row.FirstCol(); c < row.LastCol(); c++ {
				cells[c] = row.Col(c)
			}
			rows = append(rows, cells)
		}
		return newTable(rows), nil
	}
	return nil, fmt.Errorf("sheet %q not found", sheet)
}

// Close is a no-op; xls.Open reads the whole file up front.
func (w *xlsWorkbook) Close() error { return nil }
