package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	MySQLImage    = "mysql:8.4"
	MySQLUser     = "root"
	MySQLPassword = "oews"
	MySQLDB       = "oews_bootstrap"

	PostgresImage    = "postgres:17-alpine"
	PostgresUser     = "postgres"
	PostgresPassword = "postgres"
	PostgresDB       = "postgres"
)

// MySQLContainer is a running MySQL server. ConnString is a go-sql-driver DSN
// for the superuser.
type MySQLContainer struct {
	*mysql.MySQLContainer
	ConnString string
}

// StartMySQL starts a disposable MySQL server. The root user can create
// databases, which the create-on-connect tests rely on.
func StartMySQL(ctx context.Context) (*MySQLContainer, error) {
	ctr, err := mysql.Run(ctx,
		MySQLImage,
		mysql.WithUsername(MySQLUser),
		mysql.WithPassword(MySQLPassword),
		mysql.WithDatabase(MySQLDB),
		testcontainers.WithWaitStrategy(
			wait.ForLog("port: 3306  MySQL Community Server").
				WithStartupTimeout(120*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start mysql: %w", err)
	}

	connStr, err := ctr.ConnectionString(ctx, "parseTime=true")
	if err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get connection string: %w", err)
	}

	return &MySQLContainer{MySQLContainer: ctr, ConnString: connStr}, nil
}

// PostgresContainer is a running PostgreSQL server. ConnString is a URI for
// the superuser on the maintenance database.
type PostgresContainer struct {
	*postgres.PostgresContainer
	ConnString string
}

// StartPostgres starts a disposable PostgreSQL server.
func StartPostgres(ctx context.Context) (*PostgresContainer, error) {
	ctr, err := postgres.Run(ctx,
		PostgresImage,
		postgres.WithUsername(PostgresUser),
		postgres.WithPassword(PostgresPassword),
		postgres.WithDatabase(PostgresDB),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres: %w", err)
	}

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get connection string: %w", err)
	}

	return &PostgresContainer{PostgresContainer: ctr, ConnString: connStr}, nil
}
