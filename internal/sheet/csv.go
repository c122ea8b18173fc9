package sheet

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// csvWorkbook exposes a CSV file as a single sheet named after the file.
type csvWorkbook struct {
	path string
	name string
}

func openCSV(path string) (Workbook, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open csv %s: %w", path, err)
	}
	base := filepath.Base(path)
	return &csvWorkbook{path: path, name: strings.TrimSuffix(base, filepath.Ext(base))}, nil
}

func (w *csvWorkbook) SheetNames() []string {
	return []string{w.name}
}

func (w *csvWorkbook) Read(sheet string) (*Table, error) {
	if sheet != w.name {
		return nil, fmt.Errorf("sheet %q not found", sheet)
	}
	f, err := os.Open(w.path)
	if err != nil {
		return nil, fmt.Errorf("open csv %s: %w", w.path, err)
	}
	defer f.Close()

	rows, err := readCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", w.path, err)
	}
	return newTable(rows), nil
}

func (w *csvWorkbook) Close() error { return nil }

func readCSV(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr.ReadAll()
}
