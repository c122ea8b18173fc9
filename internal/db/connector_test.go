package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/oews/pkg/oews"
)

func mysqlTestConfig() *oews.ConnectionConfig {
	return &oews.ConnectionConfig{Driver: oews.DriverMySQL, Host: "db.local", Port: 3306, Database: "oews", Username: "loader"}
}

func postgresTestConfig() *oews.ConnectionConfig {
	return &oews.ConnectionConfig{Driver: oews.DriverPostgres, Host: "db.local", Port: 5432, Database: "oews", Username: "loader"}
}

func TestIsUnknownDatabase(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"mysql 1049", &mysql.MySQLError{Number: 1049, Message: "Unknown database 'oews'"}, true},
		{"wrapped mysql 1049", fmt.Errorf("ping: %w", &mysql.MySQLError{Number: 1049}), true},
		{"mysql access denied", &mysql.MySQLError{Number: 1045}, false},
		{"postgres 3D000", &pgconn.PgError{Code: "3D000"}, true},
		{"postgres auth", &pgconn.PgError{Code: "28P01"}, false},
		{"plain", errors.New(`database "oews" does not exist`), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUnknownDatabase(tt.err))
		})
	}
}

func TestWrapConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *oews.ConnectionConfig
		err      error
		contains []string
	}{
		{
			name:     "mysql refused",
			cfg:      mysqlTestConfig(),
			err:      errors.New("dial tcp 10.0.0.1:3306: connect: connection refused"),
			contains: []string{"connection refused to db.local:3306", "mysqladmin ping"},
		},
		{
			name:     "postgres refused",
			cfg:      postgresTestConfig(),
			err:      errors.New("dial tcp: connection refused"),
			contains: []string{"pg_isready -h db.local -p 5432"},
		},
		{
			name:     "mysql access denied",
			cfg:      mysqlTestConfig(),
			err:      &mysql.MySQLError{Number: 1045, Message: "Access denied for user"},
			contains: []string{`authentication failed for user "loader"`, "DB_PASSWORD"},
		},
		{
			name:     "postgres password",
			cfg:      postgresTestConfig(),
			err:      &pgconn.PgError{Code: "28P01", Message: "password authentication failed"},
			contains: []string{"authentication failed"},
		},
		{
			name:     "unknown database",
			cfg:      mysqlTestConfig(),
			err:      &mysql.MySQLError{Number: 1049, Message: "Unknown database"},
			contains: []string{`database "oews" does not exist`},
		},
		{
			name:     "dns",
			cfg:      mysqlTestConfig(),
			err:      errors.New("dial tcp: lookup db.local: no such host"),
			contains: []string{`cannot resolve host "db.local"`},
		},
		{
			name:     "timeout",
			cfg:      mysqlTestConfig(),
			err:      errors.New("i/o timeout"),
			contains: []string{"connection timed out"},
		},
		{
			name:     "tls",
			cfg:      mysqlTestConfig(),
			err:      errors.New("x509: certificate signed by unknown authority"),
			contains: []string{"SSL/TLS"},
		},
		{
			name:     "fallback",
			cfg:      mysqlTestConfig(),
			err:      errors.New("something odd"),
			contains: []string{"failed to connect to database"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := wrapConnectionError(tt.err, tt.cfg, tt.cfg.Database)
			require.Error(t, wrapped)
			assert.True(t, errors.Is(wrapped, tt.err), "original error must stay reachable")
			for _, s := range tt.contains {
				assert.Contains(t, wrapped.Error(), s)
			}
		})
	}
}

func TestWrapConnectionError_KeepsUnknownDatabaseDetectable(t *testing.T) {
	err := wrapConnectionError(&pgconn.PgError{Code: "3D000"}, postgresTestConfig(), "oews")
	assert.True(t, IsUnknownDatabase(err))
}

func TestNewConnector(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *oews.ConnectionConfig)
		wantErr error
		check   func(t *testing.T, c Connector)
	}{
		{
			name: "standard",
			check: func(t *testing.T, c Connector) {
				assert.IsType(t, &StandardConnector{}, c)
			},
		},
		{
			name:   "aws",
			mutate: func(c *oews.ConnectionConfig) { c.AuthMethod = oews.AuthMethodAWSIAM; c.AWSRegion = "us-east-1" },
			check: func(t *testing.T, c Connector) {
				tc, ok := c.(*TokenBasedConnector)
				require.True(t, ok)
				assert.Equal(t, "AWS IAM", tc.providerName)
				assert.Equal(t, "require", tc.config.SSLMode, "IAM tokens need TLS")
			},
		},
		{
			name:    "aws without region",
			mutate:  func(c *oews.ConnectionConfig) { c.AuthMethod = oews.AuthMethodAWSIAM },
			wantErr: oews.ErrInvalidConfig,
		},
		{
			name:    "google without instance",
			mutate:  func(c *oews.ConnectionConfig) { c.AuthMethod = oews.AuthMethodGoogleIAM },
			wantErr: oews.ErrInvalidConfig,
		},
		{
			name:   "google",
			mutate: func(c *oews.ConnectionConfig) { c.AuthMethod = oews.AuthMethodGoogleIAM; c.GoogleInstance = "p:r:i" },
			check: func(t *testing.T, c Connector) {
				assert.IsType(t, &GoogleCloudSQLConnector{}, c)
			},
		},
		{
			name:    "unknown",
			mutate:  func(c *oews.ConnectionConfig) { c.AuthMethod = oews.AuthMethod(42) },
			wantErr: oews.ErrUnsupportedAuthMethod,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := mysqlTestConfig()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			c, err := NewConnector(cfg, nil)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			tt.check(t, c)
		})
	}
}

func TestNewDriverConnector(t *testing.T) {
	_, err := newDriverConnector(mysqlTestConfig(), "oews", dialOptions{})
	assert.NoError(t, err)

	_, err = newDriverConnector(postgresTestConfig(), "oews", dialOptions{})
	assert.NoError(t, err)

	bad := mysqlTestConfig()
	bad.Driver = "sqlite"
	_, err = newDriverConnector(bad, "oews", dialOptions{})
	assert.True(t, errors.Is(err, oews.ErrUnsupportedDriver))
}

type countingCloser struct{ closed int }

func (c *countingCloser) Close() error {
	c.closed++
	return nil
}

func TestNewDriverConnector_AttachesCloser(t *testing.T) {
	closer := &countingCloser{}
	dc, err := newDriverConnector(postgresTestConfig(), "oews", dialOptions{closer: closer})
	require.NoError(t, err)

	c, ok := dc.(interface{ Close() error })
	require.True(t, ok, "connector must expose Close so sql.DB releases the resource")
	require.NoError(t, c.Close())
	assert.Equal(t, 1, closer.closed)

	_, isDriverConnector := dc.(driver.Connector)
	assert.True(t, isDriverConnector)
}

type stubTokenProvider struct {
	token     string
	expiresOn time.Time
	err       error
	calls     int
}

func (p *stubTokenProvider) GetToken(context.Context) (string, time.Time, error) {
	p.calls++
	return p.token, p.expiresOn, p.err
}

func (p *stubTokenProvider) String() string { return "stub" }

type capturingLogger struct {
	warnings []string
}

func (l *capturingLogger) Verbose(string, ...interface{}) {}
func (l *capturingLogger) Info(string, ...interface{})    {}
func (l *capturingLogger) Warn(format string, args ...interface{}) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}
func (l *capturingLogger) Error(string, ...interface{}) {}

func TestTokenBasedConnector_Token(t *testing.T) {
	logger := &capturingLogger{}
	provider := &stubTokenProvider{token: "tok", expiresOn: time.Now().Add(time.Hour)}
	c := NewTokenBasedConnector(mysqlTestConfig(), provider, "Azure", logger)

	token, err := c.token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
	assert.Empty(t, logger.warnings)

	provider.expiresOn = time.Now().Add(time.Minute)
	_, err = c.token(context.Background())
	require.NoError(t, err)
	require.Len(t, logger.warnings, 1)
	assert.True(t, strings.HasPrefix(logger.warnings[0], "Azure token expires in"))
}

func TestTokenBasedConnector_TokenError(t *testing.T) {
	boom := errors.New("credential chain exhausted")
	c := NewTokenBasedConnector(mysqlTestConfig(), &stubTokenProvider{err: boom}, "AWS IAM", &capturingLogger{})

	_, err := c.token(context.Background())
	assert.True(t, errors.Is(err, boom))
	assert.Contains(t, err.Error(), "failed to acquire AWS IAM token")
}

func TestNewAWSIAMTokenProvider_Validation(t *testing.T) {
	_, err := NewAWSIAMTokenProvider("", "us-east-1", "u")
	assert.Error(t, err)
	_, err = NewAWSIAMTokenProvider("h:3306", "", "u")
	assert.Error(t, err)
	_, err = NewAWSIAMTokenProvider("h:3306", "us-east-1", "")
	assert.Error(t, err)

	p, err := NewAWSIAMTokenProvider("h:3306", "us-east-1", "u")
	require.NoError(t, err)
	assert.Equal(t, "AWSIAMTokenProvider(endpoint=h:3306, region=us-east-1, user=u)", p.String())
}

func TestNewAzureServicePrincipalProvider_Validation(t *testing.T) {
	_, err := NewAzureServicePrincipalProvider("tenant", "", "secret")
	assert.True(t, errors.Is(err, oews.ErrInvalidConfig))

	p, err := NewAzureServicePrincipalProvider("tenant", "client", "secret")
	require.NoError(t, err)
	assert.Equal(t, "AzureServicePrincipal(tenant=tenant, client=client)", p.String())
	assert.NotContains(t, p.String(), "secret")
}
