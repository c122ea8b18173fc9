package oews

import "context"

// Store is the relational store an import run writes to.
// Implementations are not safe for concurrent writes to the same year.
type Store interface {
	// EnsureSchema creates the data and import log tables and their indexes if absent.
	EnsureSchema(ctx context.Context) error

	// WithinYear runs fn against a writer. When atomic is true the writer is bound to
	// a single transaction that commits only if fn returns nil.
	WithinYear(ctx context.Context, atomic bool, fn func(YearWriter) error) error

	// Summary returns the total row count and the sorted distinct years present.
	Summary(ctx context.Context) (Summary, error)

	// YearCounts returns the row count per year.
	YearCounts(ctx context.Context) (map[int]int64, error)

	// PurgeYear deletes every row of one year and returns the number deleted.
	PurgeYear(ctx context.Context, year int) (int64, error)

	// RecordImport appends one entry to the import log.
	RecordImport(ctx context.Context, entry ImportLogEntry) error

	// LastImport returns the most recent loaded entry for year, or nil if there is none.
	LastImport(ctx context.Context, year int) (*ImportLogEntry, error)

	// Close releases the underlying connection pool.
	Close() error
}

// YearWriter performs the replace operations for one year.
type YearWriter interface {
	// DeleteYear removes every row for year and returns the number removed.
	DeleteYear(ctx context.Context, year int) (int64, error)

	// AppendRecords inserts one batch of records and returns the number inserted.
	AppendRecords(ctx context.Context, records []Record) (int64, error)
}

// StoreOpener connects to the store described by cfg.
// Implementations apply the create-database recovery path on a missing database.
type StoreOpener func(ctx context.Context, cfg ConnectionConfig) (Store, error)
