package tui

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/vvka-141/oews/pkg/oews"
)

var countPrinter = message.NewPrinter(language.English)

// FormatCount renders n with thousands separators.
func FormatCount(n int64) string {
	return countPrinter.Sprintf("%d", n)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(TableBorderStyle).
		Headers(headers...)
}

// RenderReport renders an import run: one table row per processed year,
// the inputs that were ignored, and what the store holds afterwards.
func RenderReport(r *oews.RunReport) string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Import run " + r.RunID.String()))
	b.WriteString("\n")

	if len(r.Outcomes) == 0 {
		b.WriteString(WarningStyle.Render(fmt.Sprintf("No years processed (%d candidate file(s) discovered)", len(r.Discovered))))
		b.WriteString("\n")
	} else {
		b.WriteString(outcomeTable(r.Outcomes).String())
		b.WriteString("\n")
	}

	for _, path := range r.Unresolved {
		b.WriteString(MutedStyle.Render(SymbolBullet + " ignored (no year in name): " + path))
		b.WriteString("\n")
	}
	for _, path := range r.Duplicates {
		b.WriteString(MutedStyle.Render(SymbolBullet + " ignored (year already claimed): " + path))
		b.WriteString("\n")
	}

	loaded, failed := len(r.Loaded()), len(r.Failed())
	skipped := len(r.Outcomes) - loaded - failed
	b.WriteString(fmt.Sprintf("%d loaded, %d skipped, %d failed", loaded, skipped, failed))
	if !r.Finished.IsZero() {
		b.WriteString(fmt.Sprintf(" in %s", r.Finished.Sub(r.Started).Round(10*time.Millisecond)))
	}
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("%s now holds %s rows; years: %s\n",
		oews.TableName, FormatCount(r.Summary.TotalRecords), yearList(r.Summary.Years)))
	return b.String()
}

func outcomeTable(outcomes []oews.YearOutcome) *table.Table {
	t := newTable("YEAR", "STATUS", "ROWS", "SOURCE", "DETAIL").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case col == 2:
				return TableNumberStyle
			case col == 1 && row >= 0 && row < len(outcomes):
				style, _ := statusStyle(outcomes[row].Status())
				return style.Padding(0, 1)
			}
			return TableCellStyle
		})

	for _, o := range outcomes {
		detail := o.Sheet
		switch {
		case o.Err != nil:
			detail = unwrapYear(o.Err)
		case o.Skipped && o.SkipReason != nil:
			detail = o.SkipReason.Error()
		}
		t.Row(strconv.Itoa(o.Year), o.Status(), FormatCount(o.Rows), filepath.Base(o.Source), detail)
	}
	return t
}

// RenderYearCounts renders the rows held per year with a total line.
func RenderYearCounts(counts map[int]int64) string {
	if len(counts) == 0 {
		return WarningStyle.Render(oews.TableName+" is empty") + "\n"
	}

	years := make([]int, 0, len(counts))
	for y := range counts {
		years = append(years, y)
	}
	sort.Ints(years)

	t := newTable("YEAR", "ROWS").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case col == 1:
				return TableNumberStyle
			}
			return TableCellStyle
		})

	var total int64
	for _, y := range years {
		total += counts[y]
		t.Row(strconv.Itoa(y), FormatCount(counts[y]))
	}
	t.Row("total", FormatCount(total))
	return t.String() + "\n"
}

func yearList(years []int) string {
	if len(years) == 0 {
		return "none"
	}
	sorted := append([]int(nil), years...)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, y := range sorted {
		parts[i] = strconv.Itoa(y)
	}
	return strings.Join(parts, ", ")
}

// RenderMapping renders how each source header maps onto the canonical schema.
// Unmapped and duplicate headers are marked as dropped.
func RenderMapping(header []string, mapping map[string]string) string {
	t := newTable("#", "SOURCE", "CANONICAL").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case col == 0:
				return TableNumberStyle
			}
			return TableCellStyle
		})

	// The leftmost column claiming a canonical name wins.
	claimed := make(map[string]bool, len(header))
	for i, h := range header {
		canonical := mapping[h]
		switch {
		case canonical == "":
			canonical = "(dropped)"
		case claimed[canonical]:
			canonical += " (duplicate, dropped)"
		default:
			claimed[canonical] = true
		}
		t.Row(strconv.Itoa(i+1), h, canonical)
	}
	return t.String() + "\n"
}
