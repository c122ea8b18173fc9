package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vvka-141/oews/internal/tui"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show how many rows each year holds",
	Long: `Summary prints the number of rows per year in oews_data and the total.

Examples:
  oews summary
  oews summary --driver postgres -U reader`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

var summaryFlags connectionFlags

func init() {
	rootCmd.AddCommand(summaryCmd)
	registerConnectionFlags(summaryCmd, &summaryFlags)
}

func runSummary(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(context.Background(), logger)
	defer cancel()

	st, _, err := openStore(ctx, summaryFlags, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to prepare schema: %w", err)
	}
	counts, err := st.YearCounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to count rows: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), tui.RenderYearCounts(counts))
	return nil
}
