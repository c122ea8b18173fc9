package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vvka-141/oews/pkg/oews"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Create the oews_data and import log tables",
	Long: `Schema creates the target database if it is missing, then the oews_data table,
its year index and the oews_import_log table. Existing tables are left untouched,
so the command is safe to run repeatedly. Import runs it implicitly.`,
	Args: cobra.NoArgs,
	RunE: runSchema,
}

var schemaFlags connectionFlags

func init() {
	rootCmd.AddCommand(schemaCmd)
	registerConnectionFlags(schemaCmd, &schemaFlags)
}

func runSchema(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(context.Background(), logger)
	defer cancel()

	st, conn, err := openStore(ctx, schemaFlags, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Tables %s and %s are ready in %s database %q\n",
		oews.TableName, oews.ImportLogTable, conn.Driver, conn.Database)
	return nil
}
