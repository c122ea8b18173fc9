package db

import (
	"fmt"
	"os"
	"strconv"

	"github.com/vvka-141/oews/internal/config"
	"github.com/vvka-141/oews/pkg/oews"
)

// GranularConnFlags represents connection parameters from CLI flags
// (--driver, -h, -p, -U, -d, --sslmode).
//
// Password is not a flag. Use $DB_PASSWORD, a .env file or a connection
// string with an embedded password.
type GranularConnFlags struct {
	Driver   string
	Host     string
	Port     int
	Username string
	Database string
	SSLMode  string
}

// IsEmpty returns true if no server-addressing flags were provided.
// Database is excluded because it may override the database of a connection string.
func (g *GranularConnFlags) IsEmpty() bool {
	return g.Driver == "" && g.Host == "" && g.Port == 0 && g.Username == "" && g.SSLMode == ""
}

// CloudFlags represents authentication flags. They override the corresponding
// environment variables. Client secrets are never flags.
type CloudFlags struct {
	AuthMethod     string
	AWSRegion      string
	GoogleInstance string
	AzureTenantID  string
	AzureClientID  string
}

// EnvVars represents the environment variables consulted for a connection.
type EnvVars struct {
	DB_DRIVER    string
	DB_HOST      string
	DB_PORT      string
	DB_USER      string
	DB_PASSWORD  string
	DB_NAME      string
	DB_SSLMODE   string
	DB_AUTH      string
	DATABASE_URL string

	AWS_REGION string

	// Azure SDK standard names
	AZURE_TENANT_ID     string
	AZURE_CLIENT_ID     string
	AZURE_CLIENT_SECRET string
}

// LoadFromEnvironment reads the connection environment variables.
func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		DB_DRIVER:           os.Getenv("DB_DRIVER"),
		DB_HOST:             os.Getenv("DB_HOST"),
		DB_PORT:             os.Getenv("DB_PORT"),
		DB_USER:             os.Getenv("DB_USER"),
		DB_PASSWORD:         os.Getenv("DB_PASSWORD"),
		DB_NAME:             os.Getenv("DB_NAME"),
		DB_SSLMODE:          os.Getenv("DB_SSLMODE"),
		DB_AUTH:             os.Getenv("DB_AUTH"),
		DATABASE_URL:        os.Getenv("DATABASE_URL"),
		AWS_REGION:          os.Getenv("AWS_REGION"),
		AZURE_TENANT_ID:     os.Getenv("AZURE_TENANT_ID"),
		AZURE_CLIENT_ID:     os.Getenv("AZURE_CLIENT_ID"),
		AZURE_CLIENT_SECRET: os.Getenv("AZURE_CLIENT_SECRET"),
	}
}

// ResolveConnection resolves connection parameters with the precedence
// flag > environment > oews.yaml > default:
//
//  1. Connection string flag (--connection), parsed as-is
//  2. DATABASE_URL, when no granular flags are given
//  3. Granular flags, environment variables and oews.yaml per field
//
// -d/--database overrides the database of a connection string. Supplying both
// --connection and granular server flags is an error.
//
// The result is not validated; ImportConfig.Validate reports missing credentials.
func ResolveConnection(
	connStringFlag string,
	granularFlags *GranularConnFlags,
	cloudFlags *CloudFlags,
	envVars *EnvVars,
	projectConfig *config.ProjectConfig,
) (*oews.ConnectionConfig, error) {
	if granularFlags == nil {
		granularFlags = &GranularConnFlags{}
	}
	if cloudFlags == nil {
		cloudFlags = &CloudFlags{}
	}
	if envVars == nil {
		envVars = &EnvVars{}
	}
	var pc config.ConnectionConfig
	if projectConfig != nil {
		pc = projectConfig.Connection
	}

	if connStringFlag != "" && !granularFlags.IsEmpty() {
		return nil, fmt.Errorf(
			"cannot specify both --connection and granular flags (--driver, -h, -p, -U)\n"+
				"Choose one approach:\n"+
				"  1. Connection string: --connection \"mysql://user@localhost:3306/oews\"\n"+
				"  2. Granular flags: --driver mysql -h localhost -p 3306 -U loader -d oews\n"+
				"  3. Environment variables: export DB_HOST=localhost DB_USER=loader DB_PASSWORD=...: %w",
			oews.ErrInvalidConfig,
		)
	}

	var (
		cfg *oews.ConnectionConfig
		err error
	)
	switch {
	case connStringFlag != "":
		cfg, err = resolveFromConnectionString(connStringFlag, envVars)
	case granularFlags.IsEmpty() && envVars.DATABASE_URL != "":
		cfg, err = resolveFromConnectionString(envVars.DATABASE_URL, envVars)
	default:
		cfg, err = resolveFromGranularParams(granularFlags, envVars, pc)
	}
	if err != nil {
		return nil, err
	}

	if granularFlags.Database != "" {
		cfg.Database = granularFlags.Database
	}
	if cfg.Database == "" {
		cfg.Database = oews.DefaultDatabase
	}

	if err := applyAuth(cfg, cloudFlags, envVars, pc); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveFromConnectionString parses a connection string, using the
// environment for a password or sslmode the string omits.
func resolveFromConnectionString(connStr string, envVars *EnvVars) (*oews.ConnectionConfig, error) {
	cfg, err := ParseConnectionString(connStr)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string: %v: %w", err, oews.ErrInvalidConfig)
	}
	if cfg.Password == "" {
		cfg.Password = envVars.DB_PASSWORD
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = envVars.DB_SSLMODE
	}
	if cfg.SSLMode == "" && cfg.Driver == oews.DriverPostgres {
		cfg.SSLMode = "prefer"
	}
	return cfg, nil
}

// resolveFromGranularParams builds a config field by field: flag > env > oews.yaml > default.
func resolveFromGranularParams(flags *GranularConnFlags, env *EnvVars, pc config.ConnectionConfig) (*oews.ConnectionConfig, error) {
	driver, err := oews.ParseDriver(firstNonEmpty(flags.Driver, env.DB_DRIVER, pc.Driver))
	if err != nil {
		return nil, err
	}

	cfg := &oews.ConnectionConfig{
		Driver:           driver,
		Host:             firstNonEmpty(flags.Host, env.DB_HOST, pc.Host, oews.DefaultHost),
		Username:         firstNonEmpty(flags.Username, env.DB_USER, pc.Username),
		Password:         env.DB_PASSWORD,
		Database:         firstNonEmpty(env.DB_NAME, pc.Database),
		SSLMode:          firstNonEmpty(flags.SSLMode, env.DB_SSLMODE, pc.SSLMode),
		AuthMethod:       oews.AuthMethodStandard,
		AdditionalParams: make(map[string]string),
	}

	switch {
	case flags.Port != 0:
		cfg.Port = flags.Port
	case env.DB_PORT != "":
		port, err := strconv.Atoi(env.DB_PORT)
		if err != nil {
			return nil, fmt.Errorf("invalid $DB_PORT value '%s': must be an integer: %w", env.DB_PORT, oews.ErrInvalidConfig)
		}
		cfg.Port = port
	case pc.Port != 0:
		cfg.Port = pc.Port
	default:
		cfg.Port = driver.DefaultPort()
	}

	if cfg.SSLMode == "" && driver == oews.DriverPostgres {
		cfg.SSLMode = "prefer"
	}
	return cfg, nil
}

// applyAuth selects the authentication method and attaches cloud settings.
// Without an explicit method, Azure tenant or client IDs imply Entra ID auth.
func applyAuth(cfg *oews.ConnectionConfig, flags *CloudFlags, env *EnvVars, pc config.ConnectionConfig) error {
	cfg.AWSRegion = firstNonEmpty(flags.AWSRegion, env.AWS_REGION, pc.AWSRegion)
	cfg.GoogleInstance = firstNonEmpty(flags.GoogleInstance, pc.GoogleInstance)
	cfg.AzureTenantID = firstNonEmpty(flags.AzureTenantID, env.AZURE_TENANT_ID, pc.AzureTenantID)
	cfg.AzureClientID = firstNonEmpty(flags.AzureClientID, env.AZURE_CLIENT_ID, pc.AzureClientID)
	cfg.AzureClientSecret = env.AZURE_CLIENT_SECRET

	method := firstNonEmpty(flags.AuthMethod, env.DB_AUTH, pc.AuthMethod)
	if method == "" {
		if flags.AzureTenantID != "" || flags.AzureClientID != "" {
			cfg.AuthMethod = oews.AuthMethodAzureEntraID
		}
		return nil
	}

	auth, err := oews.ParseAuthMethod(method)
	if err != nil {
		return err
	}
	cfg.AuthMethod = auth
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
