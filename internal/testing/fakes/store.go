// Package fakes provides hand-written in-memory doubles of oews interfaces.
package fakes

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/vvka-141/oews/pkg/oews"
)

// Store is an in-memory oews.Store. Atomic WithinYear calls stage changes on a
// copy and commit only when fn succeeds, mirroring a real transaction.
type Store struct {
	mu sync.Mutex

	rows map[int][]oews.Record
	log  []oews.ImportLogEntry

	// Failure injection.
	DeleteErr    error
	AppendErr    error
	FailAppendAt int // fail the Nth AppendRecords call (1-based); 0 = never
	EnsureErr    error
	appendCalls  int

	EnsureSchemaCalls int
	Closed            bool
	Batches           []int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{rows: make(map[int][]oews.Record)}
}

// Opener returns a StoreOpener that always yields s.
func (s *Store) Opener() oews.StoreOpener {
	return func(ctx context.Context, cfg oews.ConnectionConfig) (oews.Store, error) {
		return s, nil
	}
}

// Seed inserts rows for year directly.
func (s *Store) Seed(year int, records ...oews.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		r.Year = year
		s.rows[year] = append(s.rows[year], r)
	}
}

// Rows returns a copy of the stored rows for year.
func (s *Store) Rows(year int) []oews.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]oews.Record(nil), s.rows[year]...)
}

// Log returns a copy of the import log.
func (s *Store) Log() []oews.ImportLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]oews.ImportLogEntry(nil), s.log...)
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.EnsureSchemaCalls++
	return s.EnsureErr
}

func (s *Store) WithinYear(ctx context.Context, atomic bool, fn func(oews.YearWriter) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !atomic {
		return fn(&writer{s: s, rows: s.rows})
	}

	staged := make(map[int][]oews.Record, len(s.rows))
	for y, rs := range s.rows {
		staged[y] = append([]oews.Record(nil), rs...)
	}
	if err := fn(&writer{s: s, rows: staged}); err != nil {
		return err
	}
	s.rows = staged
	return nil
}

func (s *Store) Summary(ctx context.Context) (oews.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sum oews.Summary
	for y, rs := range s.rows {
		if len(rs) == 0 {
			continue
		}
		sum.TotalRecords += int64(len(rs))
		sum.Years = append(sum.Years, y)
	}
	sort.Ints(sum.Years)
	return sum, nil
}

func (s *Store) YearCounts(ctx context.Context) (map[int]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[int]int64)
	for y, rs := range s.rows {
		if len(rs) > 0 {
			out[y] = int64(len(rs))
		}
	}
	return out, nil
}

func (s *Store) PurgeYear(ctx context.Context, year int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.rows[year]))
	delete(s.rows, year)
	return n, nil
}

func (s *Store) RecordImport(ctx context.Context, entry oews.ImportLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = append(s.log, entry)
	return nil
}

func (s *Store) LastImport(ctx context.Context, year int) (*oews.ImportLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.log) - 1; i >= 0; i-- {
		e := s.log[i]
		if e.Year == year && e.Status == oews.StatusLoaded {
			return &e, nil
		}
	}
	return nil, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed = true
	return nil
}

// writer operates on either the live rows or a staged copy. The store mutex
// is already held by WithinYear.
type writer struct {
	s    *Store
	rows map[int][]oews.Record
}

func (w *writer) DeleteYear(ctx context.Context, year int) (int64, error) {
	if w.s.DeleteErr != nil {
		return 0, w.s.DeleteErr
	}
	n := int64(len(w.rows[year]))
	delete(w.rows, year)
	return n, nil
}

func (w *writer) AppendRecords(ctx context.Context, records []oews.Record) (int64, error) {
	w.s.appendCalls++
	if w.s.AppendErr != nil && (w.s.FailAppendAt == 0 || w.s.FailAppendAt == w.s.appendCalls) {
		return 0, w.s.AppendErr
	}
	for _, r := range records {
		w.rows[r.Year] = append(w.rows[r.Year], r)
	}
	w.s.Batches = append(w.s.Batches, len(records))
	return int64(len(records)), nil
}

// ErrInjected is a convenience failure for tests.
var ErrInjected = errors.New("injected failure")
