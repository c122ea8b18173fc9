package manager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/oews/pkg/oews"
)

// Conn is the subset of *sql.DB the manager needs.
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Manager creates and inspects databases on one server.
type Manager interface {
	Exists(ctx context.Context, conn Conn, dbName string) (bool, error)
	Create(ctx context.Context, conn Conn, dbName string) error
	Drop(ctx context.Context, conn Conn, dbName string) error
}

// New returns the manager for driver.
func New(driver oews.Driver) (Manager, error) {
	switch driver {
	case oews.DriverMySQL:
		return &MySQLManager{}, nil
	case oews.DriverPostgres:
		return &PostgresManager{}, nil
	}
	return nil, fmt.Errorf("%q: %w", driver, oews.ErrUnsupportedDriver)
}

const (
	queryMySQLDatabaseExists    = "SELECT COUNT(*) FROM information_schema.SCHEMATA WHERE SCHEMA_NAME = ?"
	queryPostgresDatabaseExists = "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)"
	queryPostgresTerminate      = `
		SELECT pg_terminate_backend(pid)
		FROM pg_stat_activity
		WHERE datname = $1 AND pid <> pg_backend_pid()
	`
)

// MySQLManager implements Manager for MySQL and MariaDB.
type MySQLManager struct{}

func (m *MySQLManager) Exists(ctx context.Context, conn Conn, dbName string) (bool, error) {
	var n int
	if err := conn.QueryRowContext(ctx, queryMySQLDatabaseExists, dbName).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check database existence: %w", err)
	}
	return n > 0, nil
}

// Create is idempotent: it uses CREATE DATABASE IF NOT EXISTS.
func (m *MySQLManager) Create(ctx context.Context, conn Conn, dbName string) error {
	if _, err := conn.ExecContext(ctx, mysqlCreateStatement(dbName)); err != nil {
		return fmt.Errorf("failed to create database %q: %w", dbName, err)
	}
	return nil
}

func (m *MySQLManager) Drop(ctx context.Context, conn Conn, dbName string) error {
	if _, err := conn.ExecContext(ctx, "DROP DATABASE IF EXISTS "+quoteMySQL(dbName)); err != nil {
		return fmt.Errorf("failed to drop database %q: %w", dbName, err)
	}
	return nil
}

func mysqlCreateStatement(dbName string) string {
	return "CREATE DATABASE IF NOT EXISTS " + quoteMySQL(dbName) +
		" CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci"
}

func quoteMySQL(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

// PostgresManager implements Manager for PostgreSQL.
type PostgresManager struct{}

func (m *PostgresManager) Exists(ctx context.Context, conn Conn, dbName string) (bool, error) {
	var exists bool
	if err := conn.QueryRowContext(ctx, queryPostgresDatabaseExists, dbName).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check database existence: %w", err)
	}
	return exists, nil
}

// Create issues CREATE DATABASE; PostgreSQL has no IF NOT EXISTS form, so
// callers check Exists first.
func (m *PostgresManager) Create(ctx context.Context, conn Conn, dbName string) error {
	query := fmt.Sprintf("CREATE DATABASE %s", pgx.Identifier{dbName}.Sanitize())
	if _, err := conn.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create database %q: %w", dbName, err)
	}
	return nil
}

// Drop terminates other sessions on the database before dropping it.
func (m *PostgresManager) Drop(ctx context.Context, conn Conn, dbName string) error {
	if _, err := conn.ExecContext(ctx, queryPostgresTerminate, dbName); err != nil {
		return fmt.Errorf("failed to terminate connections to database %q: %w", dbName, err)
	}
	query := fmt.Sprintf("DROP DATABASE IF EXISTS %s", pgx.Identifier{dbName}.Sanitize())
	if _, err := conn.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to drop database %q: %w", dbName, err)
	}
	return nil
}

var (
	_ Manager = (*MySQLManager)(nil)
	_ Manager = (*PostgresManager)(nil)
)
