package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// Values offered by shell completion for enumerated flags.
var (
	modes       = []string{"archive", "files"}
	drivers     = []string{"mysql", "postgres"}
	authMethods = []string{"standard", "aws", "google", "azure"}
	checksums   = []string{"xxh64", "sha256"}
	logFormats  = []string{"text", "json"}

	// sslModes holds PostgreSQL sslmode values followed by MySQL tls values.
	sslModes = []string{"disable", "allow", "prefer", "require", "verify-ca", "verify-full", "true", "false", "skip-verify", "preferred"}
)

func completeFrom(values []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var matches []string
	for _, v := range values {
		if strings.HasPrefix(v, toComplete) {
			matches = append(matches, v)
		}
	}
	return matches, cobra.ShellCompDirectiveNoFileComp
}

// completeModes provides shell completion for --mode.
func completeModes(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return completeFrom(modes, toComplete)
}

// completeDrivers provides shell completion for --driver.
func completeDrivers(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return completeFrom(drivers, toComplete)
}

// completeAuthMethods provides shell completion for --auth.
func completeAuthMethods(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return completeFrom(authMethods, toComplete)
}

func completeChecksums(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return completeFrom(checksums, toComplete)
}

func completeLogFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return completeFrom(logFormats, toComplete)
}

// completeSSLModes provides shell completion for SSL mode flag values.
func completeSSLModes(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return completeFrom(sslModes, toComplete)
}

// completeDirectories provides shell completion for directory paths.
func completeDirectories(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return nil, cobra.ShellCompDirectiveFilterDirs
}

// completeDataFiles offers the file types inspect can read.
func completeDataFiles(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return []string{"zip", "xlsx", "xls", "csv"}, cobra.ShellCompDirectiveFilterFileExt
}
