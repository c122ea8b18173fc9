package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vvka-141/oews/internal/config"
	"github.com/vvka-141/oews/internal/tui"
	"github.com/vvka-141/oews/internal/tui/wizards"
)

var configCmd = &cobra.Command{
	Use:   "config [dir]",
	Short: "Interactively create or edit oews.yaml",
	Long: `Launches an interactive wizard that writes oews.yaml.

The wizard guides you through:
  1. Database driver and authentication
  2. Connection details (host, port, user, database, TLS)
  3. Import settings (data directory, mode, batch size, transactions, timeout)

An existing oews.yaml prefills every step. Passwords and client secrets are
never written; keep them in DB_PASSWORD or a .env file.

This command requires an interactive terminal. For non-interactive use,
write oews.yaml by hand or use environment variables.

Examples:
  # Create config in current directory
  oews config

  # Create config in another directory
  oews config ./deploy`,
	Args:              cobra.MaximumNArgs(1),
	RunE:              runConfig,
	ValidArgsFunction: completeDirectories,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	targetDir := "."
	if len(args) > 0 {
		targetDir = args[0]
	}

	if !tui.IsInteractive() {
		return fmt.Errorf("config command requires an interactive terminal\n" +
			"For non-interactive use, write oews.yaml by hand or use environment variables")
	}

	existing, err := config.Load(targetDir)
	if err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return fmt.Errorf("failed to read existing %s: %w", config.ConfigFileName, err)
	}

	result, err := wizards.RunConfigWizard(existing)
	if err != nil {
		return fmt.Errorf("config wizard failed: %w", err)
	}
	if result.Cancelled {
		fmt.Fprintln(cmd.ErrOrStderr(), "Cancelled.")
		return nil
	}

	path, err := result.SaveConfig(targetDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Configuration saved to %s\n", path)
	return nil
}
