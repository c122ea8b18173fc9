package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"strings"
	"sync"
)

// recordingDriver is a database/sql driver that records every statement and
// answers queries from a script. It lets the store be tested without a server.
type recordingDriver struct {
	mu     sync.Mutex
	log    []string
	args   [][]driver.NamedValue
	execFn func(query string, args []driver.NamedValue) (int64, error)
	rowsFn func(query string) ([]string, [][]driver.Value)
}

func newRecordingDB(d *recordingDriver) *sql.DB {
	return sql.OpenDB(d)
}

func (d *recordingDriver) Connect(context.Context) (driver.Conn, error) {
	return &recordingConn{d: d}, nil
}
func (d *recordingDriver) Driver() driver.Driver { return nil }

func (d *recordingDriver) record(entry string, args []driver.NamedValue) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.log = append(d.log, entry)
	d.args = append(d.args, args)
}

// statements returns the log with statements reduced to their first words.
func (d *recordingDriver) statements() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.log))
	for i, s := range d.log {
		fields := strings.Fields(s)
		if len(fields) > 2 {
			fields = fields[:2]
		}
		out[i] = strings.Join(fields, " ")
	}
	return out
}

type recordingConn struct{ d *recordingDriver }

func (c *recordingConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}
func (c *recordingConn) Close() error { return nil }
func (c *recordingConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

func (c *recordingConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	c.d.record("BEGIN", nil)
	return &recordingTx{d: c.d}, nil
}

func (c *recordingConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.d.record(query, args)
	var n int64
	if c.d.execFn != nil {
		var err error
		if n, err = c.d.execFn(query, args); err != nil {
			return nil, err
		}
	}
	return driver.RowsAffected(n), nil
}

func (c *recordingConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.d.record(query, args)
	var (
		cols []string
		vals [][]driver.Value
	)
	if c.d.rowsFn != nil {
		cols, vals = c.d.rowsFn(query)
	}
	return &scriptedRows{cols: cols, vals: vals}, nil
}

type recordingTx struct{ d *recordingDriver }

func (t *recordingTx) Commit() error {
	t.d.record("COMMIT", nil)
	return nil
}

func (t *recordingTx) Rollback() error {
	t.d.record("ROLLBACK", nil)
	return nil
}

type scriptedRows struct {
	cols []string
	vals [][]driver.Value
	pos  int
}

func (r *scriptedRows) Columns() []string { return r.cols }
func (r *scriptedRows) Close() error      { return nil }

func (r *scriptedRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.vals) {
		return io.EOF
	}
	copy(dest, r.vals[r.pos])
	r.pos++
	return nil
}
