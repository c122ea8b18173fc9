package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/oews/internal/db/manager"
	"github.com/vvka-141/oews/internal/logging"
	"github.com/vvka-141/oews/pkg/oews"
)

// unusedConnector backs *sql.DB values handed out by the fake connector.
// Nothing in these tests opens a physical connection.
type unusedConnector struct{}

func (unusedConnector) Connect(context.Context) (driver.Conn, error) {
	return nil, errors.New("not connectable")
}

func (unusedConnector) Driver() driver.Driver { return nil }

// scriptedConnector returns one scripted error per Connect call; nil means success.
type scriptedConnector struct {
	results []error
	calls   []string
}

func (c *scriptedConnector) Connect(_ context.Context, database string) (*sql.DB, error) {
	c.calls = append(c.calls, database)
	var err error
	if len(c.results) > 0 {
		err = c.results[0]
		c.results = c.results[1:]
	}
	if err != nil {
		return nil, err
	}
	return sql.OpenDB(unusedConnector{}), nil
}

type fakeManager struct {
	exists    bool
	existsErr error
	createErr error
	created   []string
}

func (m *fakeManager) Exists(context.Context, manager.Conn, string) (bool, error) {
	return m.exists, m.existsErr
}

func (m *fakeManager) Create(_ context.Context, _ manager.Conn, name string) error {
	m.created = append(m.created, name)
	return m.createErr
}

func (m *fakeManager) Drop(context.Context, manager.Conn, string) error { return nil }

var (
	errMySQLUnknownDB = &mysql.MySQLError{Number: 1049, Message: "Unknown database 'oews'"}
	errPGUnknownDB    = &pgconn.PgError{Code: "3D000", Message: `database "oews" does not exist`}
)

func TestOpenWith_ConnectsDirectly(t *testing.T) {
	conn := &scriptedConnector{}
	mgr := &fakeManager{}

	db, err := OpenWith(context.Background(), mysqlTestConfig(), conn, mgr, logging.NewNullLogger())
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, []string{"oews"}, conn.calls)
	assert.Empty(t, mgr.created)
}

func TestOpenWith_CreatesMissingDatabaseOnce(t *testing.T) {
	tests := []struct {
		name      string
		cfg       *oews.ConnectionConfig
		unknown   error
		wantCalls []string
	}{
		{"mysql connects without a database", mysqlTestConfig(), errMySQLUnknownDB, []string{"oews", "", "oews"}},
		{"postgres uses the maintenance database", postgresTestConfig(), errPGUnknownDB, []string{"oews", "postgres", "oews"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &scriptedConnector{results: []error{tt.unknown, nil, nil}}
			mgr := &fakeManager{}

			db, err := OpenWith(context.Background(), tt.cfg, conn, mgr, logging.NewNullLogger())
			require.NoError(t, err)
			defer db.Close()

			assert.Equal(t, tt.wantCalls, conn.calls)
			assert.Equal(t, []string{"oews"}, mgr.created)
		})
	}
}

func TestOpenWith_SkipsCreateWhenDatabaseAppeared(t *testing.T) {
	conn := &scriptedConnector{results: []error{errMySQLUnknownDB, nil, nil}}
	mgr := &fakeManager{exists: true}

	db, err := OpenWith(context.Background(), mysqlTestConfig(), conn, mgr, logging.NewNullLogger())
	require.NoError(t, err)
	defer db.Close()
	assert.Empty(t, mgr.created)
}

func TestOpenWith_ReconnectsExactlyOnce(t *testing.T) {
	conn := &scriptedConnector{results: []error{errMySQLUnknownDB, nil, errMySQLUnknownDB, nil}}
	mgr := &fakeManager{}

	_, err := OpenWith(context.Background(), mysqlTestConfig(), conn, mgr, logging.NewNullLogger())
	require.Error(t, err)
	assert.True(t, errors.Is(err, oews.ErrConnectionFailed))
	assert.Len(t, conn.calls, 3, "initial attempt, maintenance connection, one reconnect")
}

func TestOpenWith_Failures(t *testing.T) {
	refused := errors.New("connection refused")
	tests := []struct {
		name    string
		results []error
		mgr     *fakeManager
		calls   int
	}{
		{"non-recoverable connect error", []error{refused}, &fakeManager{}, 1},
		{"maintenance connection fails", []error{errMySQLUnknownDB, refused}, &fakeManager{}, 2},
		{"existence check fails", []error{errMySQLUnknownDB, nil}, &fakeManager{existsErr: errors.New("denied")}, 2},
		{"create fails", []error{errMySQLUnknownDB, nil}, &fakeManager{createErr: errors.New("denied")}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &scriptedConnector{results: tt.results}
			_, err := OpenWith(context.Background(), mysqlTestConfig(), conn, tt.mgr, logging.NewNullLogger())
			require.Error(t, err)
			assert.True(t, errors.Is(err, oews.ErrConnectionFailed))
			assert.Equal(t, oews.ExitConnectionError, oews.ExitCodeForError(err))
			assert.Len(t, conn.calls, tt.calls)
		})
	}
}

func TestMaintenanceDatabase(t *testing.T) {
	assert.Equal(t, "", MaintenanceDatabase(oews.DriverMySQL))
	assert.Equal(t, "postgres", MaintenanceDatabase(oews.DriverPostgres))
}

func TestOpen_RejectsUnsupportedAuth(t *testing.T) {
	cfg := mysqlTestConfig()
	cfg.AuthMethod = oews.AuthMethod(99)
	_, err := Open(context.Background(), cfg, nil)
	assert.True(t, errors.Is(err, oews.ErrUnsupportedAuthMethod))
}
