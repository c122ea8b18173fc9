package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/vvka-141/oews/internal/logging"
	"github.com/vvka-141/oews/internal/retry"
	"github.com/vvka-141/oews/pkg/oews"
)

// Connection pool configuration constants
const (
	// DefaultMaxConns bounds the pool. Years load sequentially, so a handful suffices.
	DefaultMaxConns = 5

	// DefaultMaxIdleConns keeps one connection warm between years.
	DefaultMaxIdleConns = 1

	// DefaultMaxConnIdleTime keeps connections alive during long imports.
	DefaultMaxConnIdleTime = 30 * time.Minute
)

func configurePool(db *sql.DB) {
	db.SetMaxOpenConns(DefaultMaxConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxIdleTime(DefaultMaxConnIdleTime)
}

// Connector opens a verified connection pool to one database on the configured server.
type Connector interface {
	// Connect opens and pings a pool for database. An empty database connects
	// to the server without selecting one (MySQL only).
	Connect(ctx context.Context, database string) (*sql.DB, error)
}

// dialOptions customize the driver connector beyond the plain configuration.
type dialOptions struct {
	// password, when set, is called before every new physical connection.
	password func(ctx context.Context) (string, error)
	// dial replaces the TCP dialer (Cloud SQL).
	dial func(ctx context.Context, addr string) (net.Conn, error)
	// cleartext allows the MySQL cleartext auth plugin required for IAM tokens.
	cleartext bool
	// closer is released together with the *sql.DB.
	closer io.Closer
}

// cloudSQLNetwork is the network name the Cloud SQL dialer is registered
// under for the MySQL driver.
const cloudSQLNetwork = "cloudsql-oews"

// newDriverConnector builds the database/sql connector for config and database.
func newDriverConnector(config *oews.ConnectionConfig, database string, opts dialOptions) (driver.Connector, error) {
	var (
		dc  driver.Connector
		err error
	)
	switch config.Driver {
	case oews.DriverMySQL:
		dc, err = newMySQLConnector(config, database, opts)
	case oews.DriverPostgres:
		dc, err = newPostgresConnector(config, database, opts)
	default:
		return nil, fmt.Errorf("%q: %w", config.Driver, oews.ErrUnsupportedDriver)
	}
	if err != nil {
		return nil, err
	}
	if opts.closer != nil {
		dc = &closingConnector{Connector: dc, closer: opts.closer}
	}
	return dc, nil
}

func newMySQLConnector(config *oews.ConnectionConfig, database string, opts dialOptions) (driver.Connector, error) {
	mc := mysqlConfig(config, database)
	if opts.cleartext {
		mc.AllowCleartextPasswords = true
	}
	if opts.dial != nil {
		dial := opts.dial
		mysql.RegisterDialContext(cloudSQLNetwork, func(ctx context.Context, addr string) (net.Conn, error) {
			return dial(ctx, addr)
		})
		mc.Net = cloudSQLNetwork
		mc.Addr = config.GoogleInstance
		// the dialer already provides TLS
		mc.TLSConfig = ""
	}
	if opts.password != nil {
		password := opts.password
		if err := mc.Apply(mysql.BeforeConnect(func(ctx context.Context, c *mysql.Config) error {
			token, err := password(ctx)
			if err != nil {
				return err
			}
			c.Passwd = token
			return nil
		})); err != nil {
			return nil, fmt.Errorf("failed to configure MySQL connector: %w", err)
		}
	}

	dc, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}
	return dc, nil
}

func newPostgresConnector(config *oews.ConnectionConfig, database string, opts dialOptions) (driver.Connector, error) {
	connStr := buildPostgresURI(config, database)
	if opts.dial != nil {
		connStr = fmt.Sprintf("host=%s user=%s dbname=%s sslmode=disable application_name=oews",
			config.GoogleInstance, config.Username, database)
	}

	connConfig, err := pgx.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}
	if opts.dial != nil {
		dial := opts.dial
		instance := config.GoogleInstance
		connConfig.DialFunc = func(ctx context.Context, _, _ string) (net.Conn, error) {
			return dial(ctx, instance)
		}
	}

	var openOpts []stdlib.OptionOpenDB
	if opts.password != nil {
		password := opts.password
		openOpts = append(openOpts, stdlib.OptionBeforeConnect(func(ctx context.Context, cc *pgx.ConnConfig) error {
			token, err := password(ctx)
			if err != nil {
				return err
			}
			cc.Password = token
			return nil
		}))
	}
	return stdlib.GetConnector(*connConfig, openOpts...), nil
}

// closingConnector ties an extra resource to the pool: database/sql calls
// Close on connectors that implement io.Closer when the DB is closed.
type closingConnector struct {
	driver.Connector
	closer io.Closer
}

func (c *closingConnector) Close() error {
	return c.closer.Close()
}

// openPool opens dc, applies pool limits and verifies the connection.
func openPool(ctx context.Context, dc driver.Connector, config *oews.ConnectionConfig, database string) (*sql.DB, error) {
	db := sql.OpenDB(dc)
	configurePool(db)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, wrapConnectionError(err, config, database)
	}
	return db, nil
}

// StandardConnector implements Connector for username/password authentication
// with automatic retry on transient failures.
type StandardConnector struct {
	config        *oews.ConnectionConfig
	retryExecutor *retry.Executor
}

// NewStandardConnector creates a StandardConnector. Retry behavior uses oews
// defaults: DefaultRetryMaxAttempts attempts, exponential backoff starting at
// DefaultRetryInitialDelay, max DefaultRetryMaxDelay.
func NewStandardConnector(config *oews.ConnectionConfig, logger oews.Logger) *StandardConnector {
	return &StandardConnector{
		config:        config,
		retryExecutor: newRetryExecutor(logger),
	}
}

func newRetryExecutor(logger oews.Logger) *retry.Executor {
	return retry.NewExecutor(retry.NewClassifier(), retry.DefaultBackoff()).WithLogger(logger, "connect")
}

// Connect establishes a connection pool using standard authentication with automatic retry.
func (c *StandardConnector) Connect(ctx context.Context, database string) (*sql.DB, error) {
	return retry.Do(ctx, c.retryExecutor, func(ctx context.Context) (*sql.DB, error) {
		dc, err := newDriverConnector(c.config, database, dialOptions{})
		if err != nil {
			return nil, err
		}
		return openPool(ctx, dc, c.config, database)
	})
}

// NewConnector is a factory function that creates the appropriate Connector
// based on the ConnectionConfig's AuthMethod.
func NewConnector(config *oews.ConnectionConfig, logger oews.Logger) (Connector, error) {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	switch config.AuthMethod {
	case oews.AuthMethodStandard:
		return NewStandardConnector(config, logger), nil
	case oews.AuthMethodAWSIAM:
		return newAWSConnector(config, logger)
	case oews.AuthMethodGoogleIAM:
		return newGoogleConnector(config, logger)
	case oews.AuthMethodAzureEntraID:
		return newAzureConnector(config, logger)
	default:
		return nil, fmt.Errorf("unsupported auth method %v: %w", config.AuthMethod, oews.ErrUnsupportedAuthMethod)
	}
}

// MySQL and PostgreSQL codes for a database that does not exist.
const (
	mysqlUnknownDatabase   = 1049
	mysqlAccessDenied      = 1045
	pgInvalidCatalogName   = "3D000"
	pgInvalidPassword      = "28P01"
	pgInvalidAuthorization = "28000"
)

// IsUnknownDatabase reports whether err says the target database does not exist.
func IsUnknownDatabase(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlUnknownDatabase
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgInvalidCatalogName
	}
	return false
}

func isAuthFailure(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlAccessDenied
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgInvalidPassword || pgErr.Code == pgInvalidAuthorization
	}
	return false
}

// wrapConnectionError wraps raw driver connection errors with actionable guidance.
func wrapConnectionError(err error, config *oews.ConnectionConfig, database string) error {
	errStr := strings.ToLower(err.Error())
	addr := config.Address()
	server := "MySQL"
	probe := fmt.Sprintf("mysqladmin ping -h %s -P %d", config.Host, config.Port)
	if config.Driver == oews.DriverPostgres {
		server = "PostgreSQL"
		probe = fmt.Sprintf("pg_isready -h %s -p %d", config.Host, config.Port)
	}

	switch {
	case IsUnknownDatabase(err):
		return fmt.Errorf(`database "%s" does not exist: %w`, database, err)

	case isAuthFailure(err) || strings.Contains(errStr, "password authentication failed"):
		return fmt.Errorf(`authentication failed for user "%s" on database "%s"

Possible causes:
  - Wrong password (check $DB_PASSWORD or .env)
  - Wrong username (check $DB_USER or -U)
  - User does not have access to the database

Original error: %w`, config.Username, database, err)

	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		return fmt.Errorf(`connection refused to %s

Possible causes:
  - %s is not running (check: %s)
  - Wrong host or port (check $DB_HOST and $DB_PORT)
  - Firewall blocking the connection

Original error: %w`, addr, server, probe, err)

	case strings.Contains(errStr, "no such host") || strings.Contains(errStr, "no host"):
		return fmt.Errorf(`cannot resolve host "%s"

Possible causes:
  - Hostname is misspelled
  - DNS is not configured or reachable
  - Network connection issue

Original error: %w`, config.Host, err)

	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out"):
		return fmt.Errorf(`connection timed out to %s

Possible causes:
  - Server is overloaded or unresponsive
  - Network latency or packet loss
  - Firewall silently dropping packets
  - Wrong host/port (server not listening)

Original error: %w`, addr, err)

	case strings.Contains(errStr, "ssl") || strings.Contains(errStr, "tls") || strings.Contains(errStr, "x509"):
		return fmt.Errorf(`SSL/TLS connection error

Possible causes:
  - Server requires TLS but --sslmode is disable
  - Certificate verification failed (try --sslmode=require or skip-verify)

Original error: %w`, err)

	case strings.Contains(errStr, "too many connections"):
		return fmt.Errorf(`too many connections to %s

Possible causes:
  - max_connections limit reached on the server
  - Stale connections from previous imports

Original error: %w`, addr, err)

	default:
		return fmt.Errorf("failed to connect to database: %w", err)
	}
}
