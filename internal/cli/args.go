package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// RequireDataFile validates that exactly one file argument is provided.
// Returns a helpful error message with usage and examples if missing or too many.
func RequireDataFile(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf(`missing required argument: <file>

Usage: %s

Example:
  %s data/oesm19nat.zip`, cmd.UseLine(), cmd.CommandPath())
	}
	if len(args) > 1 {
		return fmt.Errorf("accepts 1 arg(s), received %d", len(args))
	}
	return nil
}

// parseYear parses a --year value. Any positive year is accepted; the data
// decides whether it exists.
func parseYear(s string) (int, error) {
	year, err := strconv.Atoi(s)
	if err != nil || year <= 0 {
		return 0, fmt.Errorf("invalid argument %q for year: expected a positive number such as 2019", s)
	}
	return year, nil
}
