package db

import (
	"context"
	"database/sql"
	"fmt"
	"net"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/vvka-141/oews/pkg/oews"
)

// GoogleCloudSQLConnector implements Connector for Google Cloud SQL using IAM
// database authentication through the Cloud SQL Go Connector. The dialer is
// owned by the returned pool and released by its Close.
type GoogleCloudSQLConnector struct {
	config   *oews.ConnectionConfig
	instance string
	logger   oews.Logger

	newDialer func(ctx context.Context) (*cloudsqlconn.Dialer, error)
}

// NewGoogleCloudSQLConnector creates a connector for instance (project:region:instance).
func NewGoogleCloudSQLConnector(config *oews.ConnectionConfig, instance string, logger oews.Logger) *GoogleCloudSQLConnector {
	return &GoogleCloudSQLConnector{
		config:   config,
		instance: instance,
		logger:   logger,
		newDialer: func(ctx context.Context) (*cloudsqlconn.Dialer, error) {
			return cloudsqlconn.NewDialer(ctx, cloudsqlconn.WithIAMAuthN())
		},
	}
}

func (c *GoogleCloudSQLConnector) Connect(ctx context.Context, database string) (*sql.DB, error) {
	dialer, err := c.newDialer(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Cloud SQL dialer: %w", err)
	}

	opts := dialOptions{
		dial: func(ctx context.Context, _ string) (net.Conn, error) {
			return dialer.Dial(ctx, c.instance)
		},
		cleartext: c.config.Driver == oews.DriverMySQL,
		closer:    dialer,
	}
	dc, err := newDriverConnector(c.config, database, opts)
	if err != nil {
		dialer.Close()
		return nil, err
	}

	c.logger.Verbose("dialing Cloud SQL instance %s", c.instance)
	// openPool closes the DB on failure, which releases the dialer.
	return openPool(ctx, dc, c.config, database)
}

// newGoogleConnector creates a GoogleCloudSQLConnector for Google Cloud SQL IAM authentication.
func newGoogleConnector(config *oews.ConnectionConfig, logger oews.Logger) (Connector, error) {
	if config.GoogleInstance == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires --google-instance (project:region:instance): %w", oews.ErrInvalidConfig)
	}
	if config.Username == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires username (-U): %w", oews.ErrInvalidConfig)
	}
	return NewGoogleCloudSQLConnector(config, config.GoogleInstance, logger), nil
}
