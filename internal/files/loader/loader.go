package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vvka-141/oews/internal/checksum"
	"github.com/vvka-141/oews/internal/files/archive"
	"github.com/vvka-141/oews/internal/files/selector"
	"github.com/vvka-141/oews/internal/logging"
	"github.com/vvka-141/oews/internal/normalize"
	"github.com/vvka-141/oews/internal/sheet"
	"github.com/vvka-141/oews/pkg/oews"
)

// Loader loads one YearSource at a time. It is not safe for concurrent use.
type Loader struct {
	store  oews.Store
	open   sheet.Opener
	logger oews.Logger

	checksum      checksum.Calculator
	batchSize     int
	atomic        bool
	skipUnchanged bool
	dryRun        bool
	tempDir       string
	progress      func(year, rows int)

	extract func(ctx context.Context, zipPath, destDir string) ([]string, error)
}

// New creates a Loader writing to store and reading workbooks through open.
// store may be nil only in dry-run mode.
func New(store oews.Store, open sheet.Opener, opts ...Option) *Loader {
	if open == nil {
		open = sheet.Open
	}
	l := &Loader{
		store:     store,
		open:      open,
		logger:    logging.NewNullLogger(),
		checksum:  checksum.New(),
		batchSize: oews.DefaultBatchSize,
		atomic:    true,
		extract:   archive.Extract,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// located is the parsed input for one year.
type located struct {
	file  string
	sheet string
	table *sheet.Table
}

// LoadYear runs the full replace protocol for src and reports the outcome.
// It never panics on bad input and never returns a bare error: failures are
// carried in YearOutcome.Err as *oews.YearError.
func (l *Loader) LoadYear(ctx context.Context, src oews.YearSource) oews.YearOutcome {
	start := time.Now()
	out := l.loadYear(ctx, src)
	out.Duration = time.Since(start)
	return out
}

func (l *Loader) loadYear(ctx context.Context, src oews.YearSource) oews.YearOutcome {
	out := oews.YearOutcome{Year: src.Year, Source: src.Path}
	fail := func(stage string, err error) oews.YearOutcome {
		out.Err = oews.NewYearError(src.Year, stage, err)
		return out
	}

	sum, err := l.checksum.SumFile(src.Path)
	if err != nil {
		return fail(oews.StageChecksum, err)
	}
	out.Checksum = sum

	if l.skipUnchanged && !l.dryRun && l.store != nil {
		last, err := l.store.LastImport(ctx, src.Year)
		if err != nil {
			return fail(oews.StageChecksum, fmt.Errorf("failed to read import log: %w", err))
		}
		if last != nil && last.Checksum == sum {
			l.logger.Verbose("year %d: %s unchanged since run %s", src.Year, filepath.Base(src.Path), last.RunID)
			out.Skipped = true
			out.SkipReason = oews.ErrUnchanged
			return out
		}
	}

	var loc located
	var locErr error
	var stage string
	switch src.Mode {
	case oews.ModeArchive:
		loc, stage, locErr = l.locateInArchive(ctx, src)
	default:
		loc, stage, locErr = l.locateFile(src.Path, src.Sheet)
	}
	out.File = loc.file
	out.Sheet = loc.sheet
	if locErr != nil {
		return fail(stage, locErr)
	}

	if loc.table.Len() == 0 {
		l.logger.Warn("year %d: %s has no data rows, skipping", src.Year, displayName(loc.file))
		out.Skipped = true
		out.SkipReason = oews.ErrEmptySource
		return out
	}

	records, report := normalize.Normalize(loc.table, src.Year)
	l.logReport(src.Year, report)
	if len(records) == 0 {
		l.logger.Warn("year %d: %s has no data rows after normalization, skipping", src.Year, displayName(loc.file))
		out.Skipped = true
		out.SkipReason = oews.ErrEmptySource
		return out
	}

	if l.dryRun {
		out.Rows = int64(len(records))
		l.logger.Info("year %d: %d rows would be loaded from %s (dry run)", src.Year, len(records), displayName(loc.file))
		return out
	}
	if l.store == nil {
		return fail(oews.StageDelete, errors.New("no store configured"))
	}

	deleted, appended, stage, err := l.replace(ctx, src.Year, records)
	out.Deleted = deleted
	out.Rows = appended
	if err != nil {
		return fail(stage, err)
	}

	l.logger.Info("year %d: loaded %d rows from %s (replaced %d)", src.Year, appended, displayName(loc.file), deleted)
	return out
}

func (l *Loader) locateInArchive(ctx context.Context, src oews.YearSource) (located, string, error) {
	tmp, err := os.MkdirTemp(l.tempDir, fmt.Sprintf("oews-%d-*", src.Year))
	if err != nil {
		return located{}, oews.StageLocate, fmt.Errorf("failed to create extraction dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmp); err != nil {
			l.logger.Warn("failed to remove %s: %v", tmp, err)
		}
	}()

	paths, err := l.extract(ctx, src.Path, tmp)
	if err != nil {
		return located{}, oews.StageLocate, err
	}

	file, err := selector.SelectDataFile(paths)
	if err != nil {
		return located{}, oews.StageLocate, err
	}
	l.logger.Verbose("year %d: selected %s from %s", src.Year, relTo(tmp, file), filepath.Base(src.Path))

	loc, stage, err := l.locateFile(file, src.Sheet)
	loc.file = relTo(tmp, file)
	return loc, stage, err
}

func (l *Loader) locateFile(path, sheetName string) (located, string, error) {
	loc := located{file: path}

	wb, err := l.open(path)
	if err != nil {
		return loc, oews.StageParse, err
	}
	defer wb.Close()

	if sheetName == "" {
		sheetName = selector.SelectSheet(wb.SheetNames())
	}
	if sheetName == "" {
		loc.table = &sheet.Table{}
		return loc, "", nil
	}
	loc.sheet = sheetName

	table, err := wb.Read(sheetName)
	if err != nil {
		return loc, oews.StageParse, err
	}
	loc.table = table
	return loc, "", nil
}

// replace deletes the year and appends records in batches. With atomic set
// both happen in one transaction.
func (l *Loader) replace(ctx context.Context, year int, records []oews.Record) (deleted, appended int64, stage string, err error) {
	err = l.store.WithinYear(ctx, l.atomic, func(w oews.YearWriter) error {
		stage = oews.StageDelete
		n, err := w.DeleteYear(ctx, year)
		if err != nil {
			return err
		}
		deleted = n

		stage = oews.StageAppend
		for startIdx := 0; startIdx < len(records); startIdx += l.batchSize {
			if err := ctx.Err(); err != nil {
				return err
			}
			end := startIdx + l.batchSize
			if end > len(records) {
				end = len(records)
			}
			n, err := w.AppendRecords(ctx, records[startIdx:end])
			if err != nil {
				return fmt.Errorf("batch at row %d: %w", startIdx, err)
			}
			appended += n
			if l.progress != nil {
				l.progress(year, int(appended))
			}
		}
		return nil
	})
	if err != nil && stage == "" {
		stage = oews.StageDelete
	}
	if err != nil && l.atomic {
		appended = 0
		deleted = 0
	}
	return deleted, appended, stage, err
}

func (l *Loader) logReport(year int, r normalize.Report) {
	if len(r.Dropped) > 0 {
		l.logger.Verbose("year %d: dropped non-canonical columns %v", year, r.Dropped)
	}
	if len(r.Duplicates) > 0 {
		l.logger.Warn("year %d: ignored duplicate columns %v (leftmost wins)", year, r.Duplicates)
	}
	if len(r.Missing) > 0 {
		l.logger.Verbose("year %d: columns absent from source, loaded as NULL: %v", year, r.Missing)
	}
	if r.BlankRows > 0 || r.FootnoteRows > 0 {
		l.logger.Verbose("year %d: skipped %d blank and %d footnote rows", year, r.BlankRows, r.FootnoteRows)
	}
}

func relTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

func displayName(path string) string {
	if path == "" {
		return "(none)"
	}
	return filepath.Base(path)
}
