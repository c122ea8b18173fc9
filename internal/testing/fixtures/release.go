// Package fixtures builds OEWS release files (xlsx workbooks, csv files and
// zip archives) in a test's temp directory.
//
// Example usage:
//
//	wb := fixtures.NewWorkbook().
//	    Sheet("Field Descriptions", []string{"Field", "Description"}).
//	    Sheet("national_M2015_dl", fixtures.NationalHeader, fixtures.National2015Rows...)
//	path := fixtures.NewArchive().
//	    AddWorkbook("oesm15nat/national_M2015_dl.xlsx", wb).
//	    Write(t, dir, "oesm15nat.zip")
package fixtures

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// NationalHeader is the header row of a 2015-era national release.
var NationalHeader = []string{
	"OCC_CODE", "OCC_TITLE", "OCC_GROUP", "TOT_EMP", "EMP_PRSE",
	"H_MEAN", "A_MEAN", "MEAN_PRSE",
	"H_PCT10", "H_PCT25", "H_MEDIAN", "H_PCT75", "H_PCT90",
	"A_PCT10", "A_PCT25", "A_MEDIAN", "A_PCT75", "A_PCT90",
	"ANNUAL", "HOURLY",
}

// National2015Rows are five data rows; the third carries "N/A" in A_MEAN.
var National2015Rows = [][]string{
	{"00-0000", "All Occupations", "total", "137,896,660", "0.1", "23.23", "48,320", "0.1", "9.27", "11.60", "17.40", "28.04", "44.04", "19,280", "24,120", "36,200", "58,320", "91,620", "", ""},
	{"11-0000", "Management Occupations", "major", "6,936,990", "0.2", "55.30", "115,020", "0.1", "23.76", "34.68", "47.54", "66.73", "#", "49,410", "72,140", "98,890", "138,810", "#", "", ""},
	{"11-1011", "Chief Executives", "detailed", "238,940", "0.7", "88.60", "N/A", "0.3", "33.74", "54.16", "84.70", "#", "#", "70,180", "112,650", "176,840", "#", "#", "", ""},
	{"27-2011", "Actors", "detailed", "59,210", "4.6", "39.10", "*", "3.9", "9.15", "10.57", "20.26", "38.77", "76.22", "*", "*", "*", "*", "*", "", "true"},
	{"53-7199", "Material Moving Workers, All Other", "detailed", "35,460", "3.1", "16.49", "34,300", "0.9", "9.49", "11.70", "15.40", "20.24", "25.58", "19,740", "24,330", "32,030", "42,100", "53,200", "", ""},
}

type sheetSpec struct {
	name string
	rows [][]string

	// Typed sheets write cells as given (float64 stays numeric) with numFmt applied.
	typed  [][]interface{}
	numFmt int
}

// WorkbookBuilder accumulates sheets for an xlsx or csv fixture.
type WorkbookBuilder struct {
	sheets []sheetSpec
}

// NewWorkbook creates an empty workbook builder.
func NewWorkbook() *WorkbookBuilder {
	return &WorkbookBuilder{}
}

// Sheet appends a sheet with a header row followed by data rows.
func (b *WorkbookBuilder) Sheet(name string, header []string, rows ...[]string) *WorkbookBuilder {
	all := make([][]string, 0, len(rows)+1)
	if header != nil {
		all = append(all, header)
	}
	all = append(all, rows...)
	b.sheets = append(b.sheets, sheetSpec{name: name, rows: all})
	return b
}

// NumericSheet appends a sheet whose data cells keep their Go types, so float64
// and int values are stored as numbers and displayed through the built-in
// number format numFmt (3 is "#,##0"). Only XLSX renders typed sheets.
func (b *WorkbookBuilder) NumericSheet(name string, header []string, numFmt int, rows ...[]interface{}) *WorkbookBuilder {
	all := make([][]interface{}, 0, len(rows)+1)
	head := make([]interface{}, len(header))
	for i, h := range header {
		head[i] = h
	}
	all = append(all, head)
	all = append(all, rows...)
	b.sheets = append(b.sheets, sheetSpec{name: name, typed: all, numFmt: numFmt})
	return b
}

// XLSX renders the workbook to xlsx bytes.
func (b *WorkbookBuilder) XLSX(t testing.TB) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range b.sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", s.name))
		} else {
			_, err := f.NewSheet(s.name)
			require.NoError(t, err)
		}
		for r, row := range s.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			values := make([]interface{}, len(row))
			for c, v := range row {
				values[c] = v
			}
			require.NoError(t, f.SetSheetRow(s.name, cell, &values))
		}
		if s.typed != nil {
			writeTyped(t, f, s)
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func writeTyped(t testing.TB, f *excelize.File, s sheetSpec) {
	t.Helper()
	style, err := f.NewStyle(&excelize.Style{NumFmt: s.numFmt})
	require.NoError(t, err)

	for r, row := range s.typed {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		require.NoError(t, err)
		values := append([]interface{}(nil), row...)
		require.NoError(t, f.SetSheetRow(s.name, cell, &values))
		if r == 0 || len(row) == 0 {
			continue
		}
		last, err := excelize.CoordinatesToCellName(len(row), r+1)
		require.NoError(t, err)
		require.NoError(t, f.SetCellStyle(s.name, cell, last, style))
	}
}

// CSV renders the first sheet as csv bytes.
func (b *WorkbookBuilder) CSV(t testing.TB) []byte {
	t.Helper()
	require.NotEmpty(t, b.sheets, "csv fixture needs one sheet")

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	require.NoError(t, w.WriteAll(b.sheets[0].rows))
	return buf.Bytes()
}

// WriteXLSX writes the workbook to dir/name and returns the path.
func (b *WorkbookBuilder) WriteXLSX(t testing.TB, dir, name string) string {
	t.Helper()
	return WriteFile(t, dir, name, b.XLSX(t))
}

// WriteCSV writes the first sheet to dir/name and returns the path.
func (b *WorkbookBuilder) WriteCSV(t testing.TB, dir, name string) string {
	t.Helper()
	return WriteFile(t, dir, name, b.CSV(t))
}

// ArchiveBuilder accumulates zip entries in insertion order.
type ArchiveBuilder struct {
	names    []string
	contents map[string][]byte
	wbs      map[string]*WorkbookBuilder
}

// NewArchive creates an empty archive builder.
func NewArchive() *ArchiveBuilder {
	return &ArchiveBuilder{
		contents: make(map[string][]byte),
		wbs:      make(map[string]*WorkbookBuilder),
	}
}

// Add adds a raw entry.
func (a *ArchiveBuilder) Add(name string, content []byte) *ArchiveBuilder {
	a.names = append(a.names, name)
	a.contents[name] = content
	return a
}

// AddWorkbook adds an xlsx (or csv, by extension) entry rendered at Write time.
func (a *ArchiveBuilder) AddWorkbook(name string, wb *WorkbookBuilder) *ArchiveBuilder {
	a.names = append(a.names, name)
	a.wbs[name] = wb
	return a
}

// Write creates dir/name as a zip archive and returns its path.
func (a *ArchiveBuilder) Write(t testing.TB, dir, name string) string {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, entry := range a.names {
		w, err := zw.Create(entry)
		require.NoError(t, err)

		content := a.contents[entry]
		if wb, ok := a.wbs[entry]; ok {
			if filepath.Ext(entry) == ".csv" {
				content = wb.CSV(t)
			} else {
				content = wb.XLSX(t)
			}
		}
		_, err = w.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	return WriteFile(t, dir, name, buf.Bytes())
}

// National2015Archive writes a typical oesm15nat.zip with a field-description
// sheet in front of the data sheet and a stray readme entry.
func National2015Archive(t testing.TB, dir string) string {
	t.Helper()
	wb := NewWorkbook().
		Sheet("national_dl", NationalHeader, National2015Rows...)
	return NewArchive().
		Add("oesm15nat/readme.txt", []byte("May 2015 National Occupational Employment and Wage Estimates")).
		Add("__MACOSX/oesm15nat/._national_M2015_dl.xlsx", []byte{0x00, 0x05, 0x16, 0x07}).
		AddWorkbook("oesm15nat/national_M2015_dl.xlsx", wb).
		Write(t, dir, "oesm15nat.zip")
}

// WriteFile writes content to dir/name, creating parent directories.
func WriteFile(t testing.TB, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}
