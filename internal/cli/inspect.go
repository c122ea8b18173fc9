package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vvka-141/oews/internal/files/archive"
	"github.com/vvka-141/oews/internal/files/selector"
	"github.com/vvka-141/oews/internal/normalize"
	"github.com/vvka-141/oews/internal/schema"
	"github.com/vvka-141/oews/internal/sheet"
	"github.com/vvka-141/oews/internal/tui"
	"github.com/vvka-141/oews/internal/year"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Show how one input file would be imported",
	Long: `Inspect reads one archive, spreadsheet or CSV file and prints the year resolved
from its name, the data file and sheet that would be selected, how each column
maps onto oews_data, and how many rows would be loaded. Nothing is written.

Examples:
  oews inspect data/oesm19nat.zip
  oews inspect releases/national_M2019_dl.xlsx --sheet national_M2019_dl`,
	Args:              RequireDataFile,
	RunE:              runInspect,
	ValidArgsFunction: completeDataFiles,
}

var inspectFlags struct {
	sheet string
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&inspectFlags.sheet, "sheet", "",
		"Read this worksheet instead of the one the selector picks")
}

func runInspect(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(context.Background(), logger)
	defer cancel()

	return inspectFile(ctx, args[0], inspectFlags.sheet, cmd.OutOrStdout())
}

// inspectFile prints the import plan for one input.
func inspectFile(ctx context.Context, path, sheetName string, out io.Writer) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cannot inspect %s: %w", path, err)
	}

	label := path
	dataFile := path
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		tmp, err := os.MkdirTemp("", "oews-inspect-*")
		if err != nil {
			return fmt.Errorf("failed to create extraction dir: %w", err)
		}
		defer os.RemoveAll(tmp)

		entries, err := archive.Extract(ctx, path, tmp)
		if err != nil {
			return err
		}
		dataFile, err = selector.SelectDataFile(entries)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		rel, err := filepath.Rel(tmp, dataFile)
		if err != nil {
			rel = filepath.Base(dataFile)
		}
		label = path + " > " + filepath.ToSlash(rel)
	}

	w := &sectionWriter{out: out}
	w.field("File", label)

	y, ok := year.Resolve(filepath.Base(path))
	if ok {
		w.field("Year", fmt.Sprintf("%d", y))
	} else {
		w.field("Year", tui.WarningStyle.Render("unresolved (no year in file name; import would ignore it)"))
	}

	wb, err := sheet.Open(dataFile)
	if err != nil {
		return err
	}
	defer wb.Close()

	names := wb.SheetNames()
	w.field("Sheets", strings.Join(names, ", "))
	if sheetName == "" {
		sheetName = selector.SelectSheet(names)
	}
	if sheetName == "" {
		w.field("Selected", tui.WarningStyle.Render("none (workbook has no sheets)"))
		return w.err
	}
	w.field("Selected", sheetName)

	table, err := wb.Read(sheetName)
	if err != nil {
		return err
	}

	records, report := normalize.Normalize(table, y)
	w.field("Rows", fmt.Sprintf("%s data rows (%d blank, %d footnote rows skipped)",
		tui.FormatCount(int64(len(records))), report.BlankRows, report.FootnoteRows))
	if len(report.Missing) > 0 {
		w.field("Missing", strings.Join(report.Missing, ", ")+" (stored as NULL)")
	}

	mapping, _ := normalize.Inspect(table.Header)
	for h, canonical := range mapping {
		if !schema.IsCanonical(canonical) {
			mapping[h] = ""
		}
	}
	w.line("")
	w.line(tui.RenderMapping(table.Header, mapping))
	return w.err
}

// sectionWriter writes aligned "label: value" lines and keeps the first error.
type sectionWriter struct {
	out io.Writer
	err error
}

func (w *sectionWriter) field(label, value string) {
	w.line(fmt.Sprintf("%-9s %s", label+":", value))
}

func (w *sectionWriter) line(s string) {
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintln(w.out, strings.TrimRight(s, "\n"))
}
