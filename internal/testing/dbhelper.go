package testing

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/vvka-141/oews/internal/db"
	"github.com/vvka-141/oews/internal/db/manager"
	"github.com/vvka-141/oews/internal/logging"
	"github.com/vvka-141/oews/internal/store"
	"github.com/vvka-141/oews/internal/testinfra"
	"github.com/vvka-141/oews/pkg/oews"
)

// containerOnce starts each server at most once per test binary.
type containerOnce struct {
	once sync.Once
	conn string
	err  error
}

func (c *containerOnce) get(start func(context.Context) (string, error)) (string, error) {
	c.once.Do(func() {
		c.conn, c.err = start(context.Background())
	})
	return c.conn, c.err
}

var (
	mysqlContainer    containerOnce
	postgresContainer containerOnce
)

// SkipIfShort skips the test if running in short mode (-short flag).
func SkipIfShort(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// RequireMySQL returns a connection to a MySQL server with rights to create
// databases. Priority: OEWS_TEST_MYSQL_DSN > auto-started testcontainer > skip.
func RequireMySQL(t *testing.T) *oews.ConnectionConfig {
	t.Helper()
	return requireServer(t, "OEWS_TEST_MYSQL_DSN", &mysqlContainer, func(ctx context.Context) (string, error) {
		ctr, err := testinfra.StartMySQL(ctx)
		if err != nil {
			return "", err
		}
		return ctr.ConnString, nil
	})
}

// RequirePostgres returns a connection to a PostgreSQL server with rights to
// create databases. Priority: OEWS_TEST_POSTGRES_DSN > auto-started testcontainer > skip.
func RequirePostgres(t *testing.T) *oews.ConnectionConfig {
	t.Helper()
	return requireServer(t, "OEWS_TEST_POSTGRES_DSN", &postgresContainer, func(ctx context.Context) (string, error) {
		ctr, err := testinfra.StartPostgres(ctx)
		if err != nil {
			return "", err
		}
		return ctr.ConnString, nil
	})
}

func requireServer(t *testing.T, envVar string, c *containerOnce, start func(context.Context) (string, error)) *oews.ConnectionConfig {
	t.Helper()
	SkipIfShort(t)

	connString := os.Getenv(envVar)
	if connString == "" {
		var err error
		connString, err = c.get(start)
		if err != nil {
			t.Skipf("%s not set and Docker unavailable: %v", envVar, err)
		}
	}

	cfg, err := db.ParseConnectionString(connString)
	if err != nil {
		t.Fatalf("invalid %s: %v", envVar, err)
	}
	return cfg
}

// UniqueDatabase returns cfg pointed at a fresh database name that does not
// exist yet. The database is dropped when the test completes.
func UniqueDatabase(t *testing.T, cfg *oews.ConnectionConfig) *oews.ConnectionConfig {
	t.Helper()

	target := *cfg
	target.Database = "oews_test_" + strings.ReplaceAll(uuid.NewString()[:8], "-", "")
	t.Cleanup(func() { DropDatabase(t, cfg, target.Database) })
	return &target
}

// NewTestStore opens a store on a fresh database (created on connect) with
// the schema in place. The store is closed when the test completes.
func NewTestStore(t *testing.T, server *oews.ConnectionConfig) (*store.SQLStore, *oews.ConnectionConfig) {
	t.Helper()

	cfg := UniqueDatabase(t, server)
	ctx := context.Background()

	sqlDB, err := db.Open(ctx, cfg, logging.NewNullLogger())
	if err != nil {
		t.Fatalf("failed to open test database %s: %v", cfg.Database, err)
	}
	dialect, err := store.ForDriver(cfg.Driver)
	if err != nil {
		t.Fatal(err)
	}

	s := store.New(sqlDB, dialect)
	t.Cleanup(func() { s.Close() })

	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return s, cfg
}

// DropDatabase drops dbName through the server's maintenance connection.
// Safe to call for databases that do not exist.
func DropDatabase(t *testing.T, server *oews.ConnectionConfig, dbName string) {
	t.Helper()

	ctx := context.Background()
	admin, err := db.NewStandardConnector(server, logging.NewNullLogger()).Connect(ctx, db.MaintenanceDatabase(server.Driver))
	if err != nil {
		t.Logf("Warning: Failed to connect for cleanup: %v", err)
		return
	}
	defer admin.Close()

	mgr, err := manager.New(server.Driver)
	if err != nil {
		t.Logf("Warning: %v", err)
		return
	}
	if err := mgr.Drop(ctx, admin, dbName); err != nil {
		t.Logf("Warning: %v", fmt.Errorf("cleanup of %s: %w", dbName, err))
	}
}
