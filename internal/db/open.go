package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vvka-141/oews/internal/db/manager"
	"github.com/vvka-141/oews/internal/logging"
	"github.com/vvka-141/oews/pkg/oews"
)

// Open connects to the database named in config. When the server reports
// that the database does not exist, Open creates it through the server's
// maintenance connection and reconnects exactly once. Any failure is
// returned wrapping oews.ErrConnectionFailed.
func Open(ctx context.Context, config *oews.ConnectionConfig, logger oews.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	connector, err := NewConnector(config, logger)
	if err != nil {
		return nil, err
	}
	mgr, err := manager.New(config.Driver)
	if err != nil {
		return nil, err
	}
	return OpenWith(ctx, config, connector, mgr, logger)
}

// OpenWith is Open with an explicit connector and database manager.
func OpenWith(ctx context.Context, config *oews.ConnectionConfig, connector Connector, mgr manager.Manager, logger oews.Logger) (*sql.DB, error) {
	logger.Verbose("connecting to %s database %q at %s", config.Driver, config.Database, config.Address())

	db, err := connector.Connect(ctx, config.Database)
	if err == nil {
		return db, nil
	}
	if !IsUnknownDatabase(err) {
		return nil, fmt.Errorf("%w: %w", oews.ErrConnectionFailed, err)
	}

	logger.Info("Database %q does not exist, creating it", config.Database)
	if err := createDatabase(ctx, config, connector, mgr); err != nil {
		return nil, fmt.Errorf("%w: %w", oews.ErrConnectionFailed, err)
	}

	db, err = connector.Connect(ctx, config.Database)
	if err != nil {
		return nil, fmt.Errorf("%w: database %q still unreachable after creating it: %w", oews.ErrConnectionFailed, config.Database, err)
	}
	return db, nil
}

// createDatabase connects to the maintenance database and creates the target if absent.
func createDatabase(ctx context.Context, config *oews.ConnectionConfig, connector Connector, mgr manager.Manager) error {
	admin, err := connector.Connect(ctx, MaintenanceDatabase(config.Driver))
	if err != nil {
		return fmt.Errorf("failed to connect for database creation: %w", err)
	}
	defer admin.Close()

	exists, err := mgr.Exists(ctx, admin, config.Database)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return mgr.Create(ctx, admin, config.Database)
}

// MaintenanceDatabase is the database used for server-level operations:
// none for MySQL, the "postgres" database for PostgreSQL.
func MaintenanceDatabase(driver oews.Driver) string {
	if driver == oews.DriverPostgres {
		return oews.DefaultManagementDB
	}
	return ""
}
