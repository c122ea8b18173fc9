package db

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/oews/internal/config"
	"github.com/vvka-141/oews/pkg/oews"
)

func TestGranularConnFlags_IsEmpty(t *testing.T) {
	tests := []struct {
		name  string
		flags GranularConnFlags
		want  bool
	}{
		{"empty flags", GranularConnFlags{}, true},
		{"only driver set", GranularConnFlags{Driver: "postgres"}, false},
		{"only host set", GranularConnFlags{Host: "localhost"}, false},
		{"only port set", GranularConnFlags{Port: 3306}, false},
		{"only username set", GranularConnFlags{Username: "loader"}, false},
		{"only database set", GranularConnFlags{Database: "oews"}, true},
		{"only sslmode set", GranularConnFlags{SSLMode: "require"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.flags.IsEmpty())
		})
	}
}

func TestResolveConnection_Defaults(t *testing.T) {
	cfg, err := ResolveConnection("", nil, nil, &EnvVars{DB_USER: "loader", DB_PASSWORD: "pw"}, nil)
	require.NoError(t, err)

	assert.Equal(t, oews.DriverMySQL, cfg.Driver)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 3306, cfg.Port)
	assert.Equal(t, "oews", cfg.Database)
	assert.Equal(t, "loader", cfg.Username)
	assert.Equal(t, "pw", cfg.Password)
	assert.Equal(t, "", cfg.SSLMode)
	assert.Equal(t, oews.AuthMethodStandard, cfg.AuthMethod)
	assert.NoError(t, cfg.Validate())
}

func TestResolveConnection_PostgresDefaults(t *testing.T) {
	cfg, err := ResolveConnection("", &GranularConnFlags{Driver: "postgresql"}, nil, &EnvVars{}, nil)
	require.NoError(t, err)
	assert.Equal(t, oews.DriverPostgres, cfg.Driver)
	assert.Equal(t, 5432, cfg.Port)
	assert.Equal(t, "prefer", cfg.SSLMode)
}

func TestResolveConnection_Precedence(t *testing.T) {
	project := &config.ProjectConfig{Connection: config.ConnectionConfig{
		Driver:   "postgres",
		Host:     "file-host",
		Port:     6000,
		Username: "file-user",
		Database: "file-db",
		SSLMode:  "verify-full",
	}}
	env := &EnvVars{DB_HOST: "env-host", DB_PORT: "7000", DB_NAME: "env-db"}
	flags := &GranularConnFlags{Host: "flag-host"}

	cfg, err := ResolveConnection("", flags, nil, env, project)
	require.NoError(t, err)

	assert.Equal(t, oews.DriverPostgres, cfg.Driver, "file beats default")
	assert.Equal(t, "flag-host", cfg.Host, "flag beats env")
	assert.Equal(t, 7000, cfg.Port, "env beats file")
	assert.Equal(t, "file-user", cfg.Username)
	assert.Equal(t, "env-db", cfg.Database)
	assert.Equal(t, "verify-full", cfg.SSLMode)

	cfg, err = ResolveConnection("", &GranularConnFlags{Port: 8000, Database: "flag-db"}, nil, env, project)
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, "flag-db", cfg.Database)
}

func TestResolveConnection_InvalidPort(t *testing.T) {
	_, err := ResolveConnection("", nil, nil, &EnvVars{DB_PORT: "abc"}, nil)
	assert.True(t, errors.Is(err, oews.ErrInvalidConfig))
}

func TestResolveConnection_UnknownDriver(t *testing.T) {
	_, err := ResolveConnection("", &GranularConnFlags{Driver: "oracle"}, nil, nil, nil)
	assert.True(t, errors.Is(err, oews.ErrUnsupportedDriver))
}

func TestResolveConnection_ConnectionStringConflict(t *testing.T) {
	_, err := ResolveConnection("mysql://u@h/oews", &GranularConnFlags{Host: "other"}, nil, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, oews.ErrInvalidConfig))
}

func TestResolveConnection_ConnectionString(t *testing.T) {
	env := &EnvVars{DB_PASSWORD: "from-env", DB_HOST: "ignored"}
	cfg, err := ResolveConnection("postgres://loader@pg.local:5439/labor", &GranularConnFlags{Database: "override"}, nil, env, nil)
	require.NoError(t, err)

	assert.Equal(t, oews.DriverPostgres, cfg.Driver)
	assert.Equal(t, "pg.local", cfg.Host)
	assert.Equal(t, 5439, cfg.Port)
	assert.Equal(t, "override", cfg.Database, "-d overrides the connection string database")
	assert.Equal(t, "from-env", cfg.Password, "password falls back to the environment")
	assert.Equal(t, "prefer", cfg.SSLMode)
}

func TestResolveConnection_DatabaseURL(t *testing.T) {
	env := &EnvVars{DATABASE_URL: "mysql://app:pw@mysql.svc:3306/"}
	cfg, err := ResolveConnection("", nil, nil, env, nil)
	require.NoError(t, err)
	assert.Equal(t, "mysql.svc", cfg.Host)
	assert.Equal(t, "oews", cfg.Database, "missing database falls back to the default")

	cfg, err = ResolveConnection("", &GranularConnFlags{Host: "explicit"}, nil, env, nil)
	require.NoError(t, err)
	assert.Equal(t, "explicit", cfg.Host, "granular flags bypass DATABASE_URL")
}

func TestResolveConnection_InvalidConnectionString(t *testing.T) {
	_, err := ResolveConnection("nonsense", nil, nil, nil, nil)
	assert.True(t, errors.Is(err, oews.ErrInvalidConfig))
}

func TestResolveConnection_Auth(t *testing.T) {
	tests := []struct {
		name    string
		flags   *CloudFlags
		env     *EnvVars
		project *config.ProjectConfig
		want    oews.AuthMethod
		check   func(t *testing.T, cfg *oews.ConnectionConfig)
	}{
		{
			name:  "explicit aws with env region",
			flags: &CloudFlags{AuthMethod: "aws"},
			env:   &EnvVars{AWS_REGION: "eu-west-1"},
			want:  oews.AuthMethodAWSIAM,
			check: func(t *testing.T, cfg *oews.ConnectionConfig) {
				assert.Equal(t, "eu-west-1", cfg.AWSRegion)
			},
		},
		{
			name:    "google from project file",
			project: &config.ProjectConfig{Connection: config.ConnectionConfig{AuthMethod: "google", GoogleInstance: "p:r:i"}},
			want:    oews.AuthMethodGoogleIAM,
			check: func(t *testing.T, cfg *oews.ConnectionConfig) {
				assert.Equal(t, "p:r:i", cfg.GoogleInstance)
			},
		},
		{
			name:  "azure implied by tenant flag",
			flags: &CloudFlags{AzureTenantID: "tenant"},
			env:   &EnvVars{AZURE_CLIENT_ID: "client", AZURE_CLIENT_SECRET: "secret"},
			want:  oews.AuthMethodAzureEntraID,
			check: func(t *testing.T, cfg *oews.ConnectionConfig) {
				assert.Equal(t, "tenant", cfg.AzureTenantID)
				assert.Equal(t, "client", cfg.AzureClientID)
				assert.Equal(t, "secret", cfg.AzureClientSecret)
			},
		},
		{
			name: "azure env alone does not switch auth",
			env:  &EnvVars{AZURE_TENANT_ID: "tenant"},
			want: oews.AuthMethodStandard,
		},
		{
			name: "auth from env",
			env:  &EnvVars{DB_AUTH: "entra"},
			want: oews.AuthMethodAzureEntraID,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ResolveConnection("", nil, tt.flags, tt.env, tt.project)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.AuthMethod)
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestResolveConnection_UnknownAuth(t *testing.T) {
	_, err := ResolveConnection("", nil, &CloudFlags{AuthMethod: "kerberos"}, nil, nil)
	assert.True(t, errors.Is(err, oews.ErrUnsupportedAuthMethod))
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DB_HOST", "envhost")
	t.Setenv("DB_USER", "envuser")
	t.Setenv("DB_PASSWORD", "envpw")
	t.Setenv("AWS_REGION", "us-east-2")

	env := LoadFromEnvironment()
	assert.Equal(t, "envhost", env.DB_HOST)
	assert.Equal(t, "envuser", env.DB_USER)
	assert.Equal(t, "envpw", env.DB_PASSWORD)
	assert.Equal(t, "us-east-2", env.AWS_REGION)
}
