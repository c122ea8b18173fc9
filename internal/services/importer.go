package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/vvka-141/oews/internal/files/loader"
	"github.com/vvka-141/oews/internal/files/scanner"
	"github.com/vvka-141/oews/internal/sheet"
	"github.com/vvka-141/oews/internal/year"
	"github.com/vvka-141/oews/pkg/oews"
)

// ImportService runs the import pipeline: discover, resolve, load each year, summarize.
// Thread-Safety: NOT safe for concurrent Run() calls on the same instance.
type ImportService struct {
	opener  oews.StoreOpener
	scanner *scanner.Scanner
	logger  oews.Logger

	open       sheet.Opener
	loaderOpts []loader.Option
	onYear     func(oews.YearOutcome)
	now        func() time.Time
}

// Option configures an ImportService.
type Option func(*ImportService)

// WithSheetOpener replaces the workbook reader used by the loader.
func WithSheetOpener(open sheet.Opener) Option {
	return func(s *ImportService) {
		if open != nil {
			s.open = open
		}
	}
}

// WithLoaderOptions appends options passed to every year's loader, after the
// ones derived from the import configuration.
func WithLoaderOptions(opts ...loader.Option) Option {
	return func(s *ImportService) { s.loaderOpts = append(s.loaderOpts, opts...) }
}

// WithYearHook registers a callback invoked after each year with its outcome.
func WithYearHook(fn func(oews.YearOutcome)) Option {
	return func(s *ImportService) { s.onYear = fn }
}

// NewImportService creates an ImportService. Panics on nil dependencies.
func NewImportService(opener oews.StoreOpener, scanner *scanner.Scanner, logger oews.Logger, opts ...Option) *ImportService {
	if opener == nil {
		panic("opener cannot be nil")
	}
	if scanner == nil {
		panic("scanner cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	s := &ImportService{
		opener:  opener,
		scanner: scanner,
		logger:  logger,
		open:    sheet.Open,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run imports every discovered year. Only an invalid configuration, a failure
// to reach the store, or cancellation ends the run with an error; a failed
// year is recorded in the report and the run moves on.
func (s *ImportService) Run(ctx context.Context, cfg oews.ImportConfig) (*oews.RunReport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	report := &oews.RunReport{RunID: uuid.New(), Started: s.now()}
	defer func() { report.Finished = s.now() }()

	sources, err := s.discover(cfg, report)
	if err != nil {
		return report, err
	}
	if len(sources) == 0 {
		s.logger.Warn("%v in %s (mode %s)", oews.ErrNoSources, cfg.DataDir, cfg.Mode)
		return report, nil
	}

	if cfg.DryRun {
		s.loadAll(ctx, nil, cfg, sources, report)
		return report, ctx.Err()
	}

	st, err := s.opener(ctx, cfg.Connection)
	if err != nil {
		return report, err
	}
	defer func() {
		if err := st.Close(); err != nil {
			s.logger.Warn("failed to close store: %v", err)
		}
	}()

	if err := st.EnsureSchema(ctx); err != nil {
		return report, err
	}

	s.loadAll(ctx, st, cfg, sources, report)
	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("import interrupted: %w", err)
	}

	summary, err := st.Summary(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to summarize store: %w", err)
	}
	report.Summary = summary
	return report, nil
}

func (s *ImportService) discover(cfg oews.ImportConfig, report *oews.RunReport) ([]oews.YearSource, error) {
	created, err := s.scanner.EnsureDir(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare data dir %s: %w", cfg.DataDir, err)
	}
	if created {
		s.logger.Info("Created data directory %s", cfg.DataDir)
	}

	candidates, err := s.scanner.Discover(cfg.DataDir, cfg.Mode)
	if err != nil {
		return nil, err
	}
	s.logger.Verbose("Discovered %d %s candidate(s) in %s", len(candidates), cfg.Mode, cfg.DataDir)

	plan := Plan(candidates, cfg.Mode)
	for _, c := range candidates {
		report.Discovered = append(report.Discovered, c.Path)
	}
	report.Unresolved = plan.Unresolved
	report.Duplicates = plan.Duplicates
	for _, path := range plan.Unresolved {
		s.logger.Warn("no year in file name %s, ignoring", path)
	}
	for _, path := range plan.Duplicates {
		s.logger.Warn("%s names a year already claimed by an earlier file, ignoring", path)
	}

	var sources []oews.YearSource
	for _, src := range plan.Sources {
		if !cfg.WantsYear(src.Year) {
			s.logger.Verbose("year %d not selected, skipping %s", src.Year, src.Path)
			continue
		}
		sources = append(sources, src)
	}
	return sources, nil
}

// SourcePlan is the outcome of resolving discovered candidates to years.
type SourcePlan struct {
	// Sources holds one source per year, ascending by year.
	Sources    []oews.YearSource
	Unresolved []string
	Duplicates []string
}

// Plan resolves a year for each candidate. Candidates must be in discovery
// order; the first one to claim a year wins.
func Plan(candidates []scanner.Candidate, mode oews.Mode) SourcePlan {
	var plan SourcePlan
	seen := make(map[int]bool)
	for _, c := range candidates {
		y, ok := year.Resolve(c.Name)
		if !ok {
			plan.Unresolved = append(plan.Unresolved, c.Path)
			continue
		}
		if seen[y] {
			plan.Duplicates = append(plan.Duplicates, c.Path)
			continue
		}
		seen[y] = true
		plan.Sources = append(plan.Sources, oews.YearSource{Year: y, Path: c.Path, Mode: mode})
	}
	sort.SliceStable(plan.Sources, func(i, j int) bool {
		return plan.Sources[i].Year < plan.Sources[j].Year
	})
	return plan
}

func (s *ImportService) loadAll(ctx context.Context, st oews.Store, cfg oews.ImportConfig, sources []oews.YearSource, report *oews.RunReport) {
	opts := []loader.Option{
		loader.WithBatchSize(cfg.BatchSize),
		loader.WithAtomic(cfg.Atomic),
		loader.WithSkipUnchanged(cfg.SkipUnchanged),
		loader.WithDryRun(cfg.DryRun),
		loader.WithLogger(s.logger),
	}
	ld := loader.New(st, s.open, append(opts, s.loaderOpts...)...)

	for _, src := range sources {
		if ctx.Err() != nil {
			s.logger.Warn("stopping before year %d: %v", src.Year, ctx.Err())
			return
		}

		started := s.now()
		outcome := ld.LoadYear(ctx, src)
		report.Outcomes = append(report.Outcomes, outcome)

		if outcome.Err != nil {
			s.logger.Warn("%v", outcome.Err)
		}
		if st != nil {
			s.recordOutcome(ctx, st, report.RunID, outcome, started)
		}
		if s.onYear != nil {
			s.onYear(outcome)
		}
	}
}

func (s *ImportService) recordOutcome(ctx context.Context, st oews.Store, runID uuid.UUID, outcome oews.YearOutcome, started time.Time) {
	if errors.Is(outcome.Err, context.Canceled) || errors.Is(outcome.Err, context.DeadlineExceeded) {
		ctx = context.WithoutCancel(ctx)
	}
	if err := st.RecordImport(ctx, oews.NewImportLogEntry(runID, outcome, started)); err != nil {
		s.logger.Warn("year %d: %v", outcome.Year, err)
	}
}
