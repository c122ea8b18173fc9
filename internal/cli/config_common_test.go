package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/oews/internal/config"
	"github.com/vvka-141/oews/pkg/oews"
)

// clearEnv unsets every variable the resolvers read.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"DB_DRIVER", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE", "DB_AUTH",
		"DATABASE_URL", "AWS_REGION", "AZURE_TENANT_ID", "AZURE_CLIENT_ID", "AZURE_CLIENT_SECRET",
		"OEWS_DATA_DIR", "OEWS_MODE",
	} {
		t.Setenv(name, "")
	}
}

func parseImportFlags(t *testing.T, args ...string) (*cobra.Command, importFlagValues) {
	t.Helper()
	cmd := &cobra.Command{Use: "import"}
	var f importFlagValues
	registerImportFlags(cmd, &f)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd, f
}

func TestBuildImportConfig_Defaults(t *testing.T) {
	clearEnv(t)
	cmd, f := parseImportFlags(t)

	cfg, err := buildImportConfig(cmd, f, nil, false)
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, oews.ModeArchive, cfg.Mode)
	assert.Equal(t, oews.DefaultBatchSize, cfg.BatchSize)
	assert.True(t, cfg.Atomic)
	assert.Zero(t, cfg.Timeout)
	assert.Equal(t, oews.DriverMySQL, cfg.Connection.Driver)
	assert.Equal(t, "localhost", cfg.Connection.Host)
	assert.Equal(t, 3306, cfg.Connection.Port)
	assert.Equal(t, "oews", cfg.Connection.Database)

	err = cfg.Validate()
	require.Error(t, err, "user and password are required")
	assert.Equal(t, oews.ExitConfigError, oews.ExitCodeForError(err))
}

func TestBuildImportConfig_Precedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("OEWS_DATA_DIR", "/env/data")
	t.Setenv("OEWS_MODE", "files")
	t.Setenv("DB_USER", "env-user")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_HOST", "env-host")

	atomic := false
	project := &config.ProjectConfig{
		Connection: config.ConnectionConfig{Driver: "postgres", Host: "file-host", Username: "file-user", Database: "labor"},
		Import:     config.ImportSection{DataDir: "/file/data", Mode: "archive", BatchSize: 250, Atomic: &atomic, Timeout: "20m"},
	}

	t.Run("environment beats the project file", func(t *testing.T) {
		cmd, f := parseImportFlags(t)
		cfg, err := buildImportConfig(cmd, f, project, false)
		require.NoError(t, err)

		assert.Equal(t, "/env/data", cfg.DataDir)
		assert.Equal(t, oews.ModeFiles, cfg.Mode)
		assert.Equal(t, "env-host", cfg.Connection.Host)
		assert.Equal(t, "env-user", cfg.Connection.Username)
		assert.Equal(t, oews.DriverPostgres, cfg.Connection.Driver)
		assert.Equal(t, 5432, cfg.Connection.Port)
		assert.Equal(t, "labor", cfg.Connection.Database)
		assert.Equal(t, 250, cfg.BatchSize)
		assert.False(t, cfg.Atomic)
		assert.Equal(t, 20*time.Minute, cfg.Timeout)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("flags beat everything", func(t *testing.T) {
		cmd, f := parseImportFlags(t,
			"--data-dir", "/flag/data", "--mode", "archive", "-h", "flag-host", "-U", "flag-user",
			"--batch-size", "50", "--timeout", "5m", "--year", "2019", "--year", "2020",
			"--skip-unchanged", "--dry-run")
		cfg, err := buildImportConfig(cmd, f, project, true)
		require.NoError(t, err)

		assert.Equal(t, "/flag/data", cfg.DataDir)
		assert.Equal(t, oews.ModeArchive, cfg.Mode)
		assert.Equal(t, "flag-host", cfg.Connection.Host)
		assert.Equal(t, "flag-user", cfg.Connection.Username)
		assert.Equal(t, 50, cfg.BatchSize)
		assert.Equal(t, 5*time.Minute, cfg.Timeout)
		assert.Equal(t, []int{2019, 2020}, cfg.Years)
		assert.True(t, cfg.SkipUnchanged)
		assert.True(t, cfg.DryRun)
		assert.True(t, cfg.Verbose)
	})

	t.Run("no-atomic beats the project file", func(t *testing.T) {
		atomicTrue := true
		p := *project
		p.Import.Atomic = &atomicTrue
		cmd, f := parseImportFlags(t, "--no-atomic")
		cfg, err := buildImportConfig(cmd, f, &p, false)
		require.NoError(t, err)
		assert.False(t, cfg.Atomic)
	})
}

func TestBuildImportConfig_Errors(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name    string
		args    []string
		project *config.ProjectConfig
		want    error
	}{
		{"unknown mode", []string{"--mode", "tarball"}, nil, oews.ErrInvalidConfig},
		{"unknown driver", []string{"--driver", "sqlite"}, nil, oews.ErrUnsupportedDriver},
		{"unknown auth", []string{"--auth", "kerberos"}, nil, oews.ErrUnsupportedAuthMethod},
		{"negative year", []string{"--year=-1"}, nil, oews.ErrInvalidConfig},
		{"connection and granular flags", []string{"--connection", "mysql://u:p@h/db", "-h", "other"}, nil, oews.ErrInvalidConfig},
		{"bad timeout in project file", nil, &config.ProjectConfig{Import: config.ImportSection{Timeout: "soon"}}, oews.ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, f := parseImportFlags(t, tt.args...)
			_, err := buildImportConfig(cmd, f, tt.project, false)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Equal(t, oews.ExitConfigError, oews.ExitCodeForError(err))
		})
	}
}

func TestBuildImportConfig_ConnectionString(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_PASSWORD", "from-env")

	cmd, f := parseImportFlags(t, "--connection", "postgres://loader@db.internal:6543/labor", "-d", "oews_test")
	cfg, err := buildImportConfig(cmd, f, nil, false)
	require.NoError(t, err)

	assert.Equal(t, oews.DriverPostgres, cfg.Connection.Driver)
	assert.Equal(t, "db.internal", cfg.Connection.Host)
	assert.Equal(t, 6543, cfg.Connection.Port)
	assert.Equal(t, "oews_test", cfg.Connection.Database, "-d overrides the connection string database")
	assert.Equal(t, "from-env", cfg.Connection.Password)
}

func TestBuildImportConfig_AzureFlagsImplyEntraID(t *testing.T) {
	clearEnv(t)
	cmd, f := parseImportFlags(t, "-U", "aad-user", "--azure-tenant-id", "tenant")
	cfg, err := buildImportConfig(cmd, f, nil, false)
	require.NoError(t, err)
	assert.Equal(t, oews.AuthMethodAzureEntraID, cfg.Connection.AuthMethod)
	assert.NoError(t, cfg.Connection.Validate(), "token auth needs no password")
}

func TestResolveValidConnection_MissingCredentials(t *testing.T) {
	clearEnv(t)
	_, err := resolveValidConnection(connectionFlags{}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, oews.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "DB_USER")
}

func TestLoadProjectConfig(t *testing.T) {
	original := rootFlags.configFile
	defer func() { rootFlags.configFile = original }()

	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("connection:\n  driver: postgres\nimport:\n  mode: files\n"), 0o644))

	rootFlags.configFile = path
	cfg, err := loadProjectConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "postgres", cfg.Connection.Driver)
	assert.Equal(t, "files", cfg.Import.Mode)

	rootFlags.configFile = filepath.Join(dir, "missing.yaml")
	_, err = loadProjectConfig()
	assert.ErrorIs(t, err, oews.ErrInvalidConfig, "an explicit file must exist")

	require.NoError(t, os.WriteFile(path, []byte("connection: [unclosed"), 0o644))
	rootFlags.configFile = path
	_, err = loadProjectConfig()
	assert.ErrorIs(t, err, oews.ErrInvalidConfig)
}
