package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vvka-141/oews/internal/tui"
	"github.com/vvka-141/oews/internal/ui"
	"github.com/vvka-141/oews/pkg/oews"
)

var purgeCmd = &cobra.Command{
	Use:   "purge --year <year>",
	Short: "Delete every row of one year",
	Long: `Purge deletes every row of one year from oews_data. Re-importing the year's
source restores it.

Without --force you are asked to type the year to confirm. With --force a short
countdown is shown instead, during which Ctrl+C aborts.

Examples:
  oews purge --year 2019
  oews purge --year 2019 --force`,
	Args: cobra.NoArgs,
	RunE: runPurge,
}

var purgeFlags struct {
	conn  connectionFlags
	year  string
	force bool
}

func init() {
	rootCmd.AddCommand(purgeCmd)
	registerConnectionFlags(purgeCmd, &purgeFlags.conn)

	purgeCmd.Flags().StringVar(&purgeFlags.year, "year", "", "Year to delete")
	purgeCmd.Flags().BoolVar(&purgeFlags.force, "force", false,
		"Skip the typed confirmation and show a countdown instead\n"+
			"Required when no terminal is attached")
	_ = purgeCmd.MarkFlagRequired("year")
}

// selectApprover picks the confirmation flow for purge.
func selectApprover(force, interactive, verbose bool) (oews.Approver, error) {
	if force {
		return ui.NewForcedApprover(verbose), nil
	}
	if !interactive {
		return nil, fmt.Errorf("purge needs a terminal to confirm; use --force in scripts: %w", oews.ErrInvalidConfig)
	}
	return ui.NewInteractiveApprover(verbose), nil
}

func runPurge(cmd *cobra.Command, args []string) error {
	year, err := parseYear(purgeFlags.year)
	if err != nil {
		return err
	}
	verbose := getVerboseFlag(cmd)
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	approver, err := selectApprover(purgeFlags.force, tui.IsInteractive(), verbose)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(context.Background(), logger)
	defer cancel()

	st, conn, err := openStore(ctx, purgeFlags.conn, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	return purgeYear(ctx, st, approver, year, conn.Database, cmd.OutOrStdout())
}

// purgeYear asks for approval, then deletes the year.
func purgeYear(ctx context.Context, st oews.Store, approver oews.Approver, year int, database string, out io.Writer) error {
	approved, err := approver.RequestApproval(ctx, strconv.Itoa(year))
	if err != nil {
		return fmt.Errorf("approval failed: %w", err)
	}
	if !approved {
		return fmt.Errorf("purge of year %d: %w", year, oews.ErrApprovalDenied)
	}

	if err := st.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to prepare schema: %w", err)
	}
	deleted, err := st.PurgeYear(ctx, year)
	if err != nil {
		return fmt.Errorf("failed to purge year %d: %w", year, err)
	}
	fmt.Fprintf(out, "✓ Deleted %s rows of year %d from %s\n", tui.FormatCount(deleted), year, database)
	return nil
}
