// Package normalize turns a raw sheet table into canonical OEWS records.
package normalize

import (
	"sort"
	"strconv"
	"strings"

	"github.com/vvka-141/oews/internal/schema"
	"github.com/vvka-141/oews/internal/sheet"
	"github.com/vvka-141/oews/pkg/oews"
)

// Report describes what normalization discarded.
type Report struct {
	// Dropped lists non-canonical source columns, sorted.
	Dropped []string
	// Duplicates lists source headers that mapped to an already claimed canonical column.
	Duplicates []string
	// Missing lists canonical columns absent from the source, in canonical order.
	Missing      []string
	BlankRows    int
	FootnoteRows int
}

// binding ties a source column index to a canonical column.
type binding struct {
	index  int
	column oews.Column
}

// Normalize projects table onto the canonical schema and stamps every record with year.
func Normalize(table *sheet.Table, year int) ([]oews.Record, Report) {
	var report Report
	if table == nil {
		return nil, report
	}

	bindings, report := bind(table.Header)

	width := len(table.Header)
	lastData := -1
	for i, row := range table.Rows {
		if classify(row, width) == rowData {
			lastData = i
		}
	}

	records := make([]oews.Record, 0, len(table.Rows))
	for i, row := range table.Rows {
		switch classify(row, width) {
		case rowBlank:
			report.BlankRows++
			continue
		case rowFootnote:
			// Only the notes block below the table is dropped; a sparse row
			// inside the table is data.
			if i > lastData {
				report.FootnoteRows++
				continue
			}
		}

		rec := oews.Record{Year: year}
		for _, b := range bindings {
			var raw string
			if b.index < len(row) {
				raw = row[b.index]
			}
			apply(&rec, b.column, raw)
		}
		records = append(records, rec)
	}
	return records, report
}

// Inspect maps a header without reading rows. It backs "oews inspect".
func Inspect(header []string) (map[string]string, Report) {
	mapping := make(map[string]string, len(header))
	for _, h := range header {
		mapping[h] = schema.MapHeader(h)
	}
	_, report := bind(header)
	return mapping, report
}

func bind(header []string) ([]binding, Report) {
	var report Report
	claimed := make(map[string]bool, len(oews.Columns))
	bindings := make([]binding, 0, len(oews.Columns))

	for i, raw := range header {
		name := schema.MapHeader(raw)
		if name == "" {
			continue
		}
		col, ok := oews.LookupColumn(name)
		if !ok {
			report.Dropped = append(report.Dropped, strings.TrimSpace(raw))
			continue
		}
		if claimed[name] {
			report.Duplicates = append(report.Duplicates, strings.TrimSpace(raw))
			continue
		}
		claimed[name] = true
		bindings = append(bindings, binding{index: i, column: col})
	}

	for _, c := range oews.Columns {
		if !claimed[c.Name] {
			report.Missing = append(report.Missing, c.Name)
		}
	}
	sort.Strings(report.Dropped)
	return bindings, report
}

func apply(rec *oews.Record, col oews.Column, raw string) {
	switch col.Kind {
	case oews.KindInteger, oews.KindDecimal:
		rec.SetNumber(col.Name, ParseNumber(raw))
	case oews.KindFlag:
		rec.SetText(col.Name, Flag(raw))
	default:
		rec.SetText(col.Name, Text(raw))
	}
}

// ParseNumber keeps digits, '.' and '-' and parses the rest as a float.
// Suppression markers ("*", "**", "#", "N/A") and empty input yield nil.
func ParseNumber(s string) *float64 {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return nil
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &v
}

// Text trims s; empty yields nil.
func Text(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Flag keeps the first character of s, upper-cased; empty yields nil.
func Flag(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f := strings.ToUpper(string([]rune(s)[0]))
	return &f
}

type rowKind int

const (
	rowData rowKind = iota
	rowBlank
	rowFootnote
)

// classify detects blank rows and footnote-shaped rows: text in the first cell
// only, in a table wider than one column.
func classify(row []string, width int) rowKind {
	filled := 0
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			filled++
		}
	}
	switch {
	case filled == 0:
		return rowBlank
	case filled == 1 && width > 1 && strings.TrimSpace(row[0]) != "":
		return rowFootnote
	default:
		return rowData
	}
}
