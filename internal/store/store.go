package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vvka-141/oews/pkg/oews"
)

// execer is the statement surface shared by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SQLStore implements oews.Store over a database/sql pool.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// New wraps db. The store owns db and closes it in Close.
func New(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

// Dialect returns the store's dialect.
func (s *SQLStore) Dialect() Dialect {
	return s.dialect
}

func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range s.dialect.CreateTableStatements() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

func (s *SQLStore) WithinYear(ctx context.Context, atomic bool, fn func(oews.YearWriter) error) error {
	if !atomic {
		return fn(&yearWriter{exec: s.db, dialect: s.dialect})
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(&yearWriter{exec: tx, dialect: s.dialect}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rollback failed: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (s *SQLStore) Summary(ctx context.Context) (oews.Summary, error) {
	var summary oews.Summary
	table := s.dialect.Quote(oews.TableName)

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&summary.TotalRecords); err != nil {
		return oews.Summary{}, fmt.Errorf("failed to count records: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT year FROM "+table+" ORDER BY year")
	if err != nil {
		return oews.Summary{}, fmt.Errorf("failed to list years: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var year int
		if err := rows.Scan(&year); err != nil {
			return oews.Summary{}, err
		}
		summary.Years = append(summary.Years, year)
	}
	return summary, rows.Err()
}

func (s *SQLStore) YearCounts(ctx context.Context) (map[int]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT year, COUNT(*) FROM "+s.dialect.Quote(oews.TableName)+" GROUP BY year ORDER BY year")
	if err != nil {
		return nil, fmt.Errorf("failed to count years: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]int64)
	for rows.Next() {
		var (
			year  int
			count int64
		)
		if err := rows.Scan(&year, &count); err != nil {
			return nil, err
		}
		counts[year] = count
	}
	return counts, rows.Err()
}

func (s *SQLStore) PurgeYear(ctx context.Context, year int) (int64, error) {
	return deleteYear(ctx, s.db, s.dialect, year)
}

const insertImportLog = `INSERT INTO %s
	(run_id, year, source_file, data_file, sheet_name, checksum, rows_loaded, status, error_message, started_at, finished_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (s *SQLStore) RecordImport(ctx context.Context, entry oews.ImportLogEntry) error {
	query := rebind(s.dialect, fmt.Sprintf(insertImportLog, s.dialect.Quote(oews.ImportLogTable)))
	var errMsg any
	if entry.ErrorMessage != "" {
		errMsg = entry.ErrorMessage
	}
	_, err := s.db.ExecContext(ctx, query,
		entry.RunID.String(), entry.Year, entry.SourceFile, entry.DataFile, entry.SheetName,
		entry.Checksum, entry.RowsLoaded, entry.Status, errMsg,
		entry.StartedAt.UTC(), entry.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record import of %d: %w", entry.Year, err)
	}
	return nil
}

const selectLastImport = `SELECT run_id, year, source_file, data_file, sheet_name, checksum, rows_loaded, status,
	COALESCE(error_message, ''), started_at, finished_at
	FROM %s WHERE year = ? AND status = ? ORDER BY finished_at DESC, id DESC LIMIT 1`

func (s *SQLStore) LastImport(ctx context.Context, year int) (*oews.ImportLogEntry, error) {
	query := rebind(s.dialect, fmt.Sprintf(selectLastImport, s.dialect.Quote(oews.ImportLogTable)))

	var e oews.ImportLogEntry
	err := s.db.QueryRowContext(ctx, query, year, oews.StatusLoaded).Scan(
		&e.RunID, &e.Year, &e.SourceFile, &e.DataFile, &e.SheetName, &e.Checksum,
		&e.RowsLoaded, &e.Status, &e.ErrorMessage, &e.StartedAt, &e.FinishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read import log for %d: %w", year, err)
	}
	return &e, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// yearWriter runs replace statements on a pool or a transaction.
type yearWriter struct {
	exec    execer
	dialect Dialect
}

func (w *yearWriter) DeleteYear(ctx context.Context, year int) (int64, error) {
	return deleteYear(ctx, w.exec, w.dialect, year)
}

// AppendRecords inserts records with as few multi-row statements as the
// dialect's parameter limit allows.
func (w *yearWriter) AppendRecords(ctx context.Context, records []oews.Record) (int64, error) {
	perStmt := rowsPerStatement(w.dialect)
	var inserted int64
	for start := 0; start < len(records); start += perStmt {
		end := start + perStmt
		if end > len(records) {
			end = len(records)
		}
		chunk := records[start:end]

		args := make([]any, 0, len(chunk)*len(oews.ColumnNames()))
		for i := range chunk {
			args = append(args, chunk[i].Values()...)
		}
		res, err := w.exec.ExecContext(ctx, insertStatement(w.dialect, len(chunk)), args...)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert %d records: %w", len(chunk), err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			n = int64(len(chunk))
		}
		inserted += n
	}
	return inserted, nil
}

func deleteYear(ctx context.Context, exec execer, d Dialect, year int) (int64, error) {
	query := rebind(d, "DELETE FROM "+d.Quote(oews.TableName)+" WHERE year = ?")
	res, err := exec.ExecContext(ctx, query, year)
	if err != nil {
		return 0, fmt.Errorf("failed to delete year %d: %w", year, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Opener returns an oews.StoreOpener that connects with open and wraps the
// pool in an SQLStore for the configured driver.
func Opener(open func(ctx context.Context, cfg *oews.ConnectionConfig) (*sql.DB, error)) oews.StoreOpener {
	return func(ctx context.Context, cfg oews.ConnectionConfig) (oews.Store, error) {
		dialect, err := ForDriver(cfg.Driver)
		if err != nil {
			return nil, err
		}
		db, err := open(ctx, &cfg)
		if err != nil {
			return nil, err
		}
		return New(db, dialect), nil
	}
}

var _ oews.Store = (*SQLStore)(nil)
