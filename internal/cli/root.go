package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vvka-141/oews/internal/config"
	"github.com/vvka-141/oews/internal/logging"
	"github.com/vvka-141/oews/pkg/oews"
)

var rootCmd = &cobra.Command{
	Use:   "oews",
	Short: "Load BLS OEWS releases into a relational database",
	Long: `oews loads Occupational Employment and Wage Statistics releases published by
the U.S. Bureau of Labor Statistics into one normalized table, oews_data.

Each input file (a yearly zip archive or a loose spreadsheet) supplies exactly
one year. Importing a year replaces every row of that year, so re-running an
import is always safe.

Configuration precedence: flags > environment (.env included) > oews.yaml > defaults.

Exit Codes:
  0  - Success (failed years are reported but not fatal)
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or missing credentials
  11 - Database connection failed
  12 - User denied purge approval
  13 - One or more years failed (with --strict)
  14 - No importable sources found (with --strict)`,
	SilenceUsage:      true,
	PersistentPreRunE: loadEnvironment,
}

var rootFlags struct {
	verbose    bool
	logFormat  string
	envFile    string
	configFile string
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Bool("help", false, "Help for oews")
	rootCmd.PersistentFlags().BoolVarP(&rootFlags.verbose, "verbose", "v", false, "Enable verbose output for all commands")
	rootCmd.PersistentFlags().StringVar(&rootFlags.logFormat, "log-format", logging.FormatText,
		"Log format: text|json (json writes one object per line to stderr)")
	rootCmd.PersistentFlags().StringVar(&rootFlags.envFile, "env-file", "",
		"Load environment variables from this file (default: ./.env if present)")
	rootCmd.PersistentFlags().StringVar(&rootFlags.configFile, "config", "",
		"Path to the project file (default: ./oews.yaml if present)")

	_ = rootCmd.RegisterFlagCompletionFunc("log-format", completeLogFormats)
}

// loadEnvironment loads the .env file before any command reads the environment.
// Variables already set in the process win.
func loadEnvironment(cmd *cobra.Command, args []string) error {
	if err := config.LoadEnvFile(rootFlags.envFile); err != nil {
		return fmt.Errorf("%v: %w", err, oews.ErrInvalidConfig)
	}
	return nil
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}

// newLogger returns the logger selected by --log-format and --verbose.
func newLogger(cmd *cobra.Command) (oews.Logger, error) {
	return logging.New(rootFlags.logFormat, getVerboseFlag(cmd))
}

// loadProjectConfig reads --config, or oews.yaml from the working directory.
// A missing default file is not an error and yields nil; a missing explicit one is.
func loadProjectConfig() (*config.ProjectConfig, error) {
	if rootFlags.configFile != "" {
		cfg, err := config.LoadFile(rootFlags.configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %v: %w", rootFlags.configFile, err, oews.ErrInvalidConfig)
		}
		return cfg, nil
	}

	cfg, err := config.Load(".")
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load %s: %v: %w", config.ConfigFileName, err, oews.ErrInvalidConfig)
	}
	return cfg, nil
}
