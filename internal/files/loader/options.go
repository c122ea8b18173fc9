package loader

import (
	"github.com/vvka-141/oews/internal/checksum"
	"github.com/vvka-141/oews/pkg/oews"
)

// Option configures a Loader.
type Option func(*Loader)

// WithBatchSize sets the number of records per INSERT batch. Non-positive values are ignored.
func WithBatchSize(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.batchSize = n
		}
	}
}

// WithAtomic wraps each year's delete and appends in one transaction.
func WithAtomic(atomic bool) Option {
	return func(l *Loader) { l.atomic = atomic }
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(logger oews.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithChecksum sets the source fingerprint algorithm.
func WithChecksum(calc checksum.Calculator) Option {
	return func(l *Loader) {
		if calc != nil {
			l.checksum = calc
		}
	}
}

// WithSkipUnchanged skips a year whose source fingerprint equals the one
// recorded by its last successful import.
func WithSkipUnchanged(skip bool) Option {
	return func(l *Loader) { l.skipUnchanged = skip }
}

// WithDryRun stops after normalization; the store is never touched.
func WithDryRun(dryRun bool) Option {
	return func(l *Loader) { l.dryRun = dryRun }
}

// WithTempDir sets the parent of per-year extraction directories (default os.TempDir()).
func WithTempDir(dir string) Option {
	return func(l *Loader) { l.tempDir = dir }
}

// WithProgress registers a callback invoked after every appended batch with
// the cumulative row count for the year.
func WithProgress(fn func(year, rows int)) Option {
	return func(l *Loader) { l.progress = fn }
}
