package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for depthcrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "depthcrawl",
		Short: "Depth-limited web crawler that archives pages into SQLite",
		Long: `depthcrawl crawls a list of seed URLs depth-first, following hyperlinks
up to a fixed depth, and archives every fetched page (body, headers,
status code, protocol version and MD5 checksum) into a SQLite database.

Pages already in the database are never overwritten, so repeated runs
only add new URLs.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewReportCmd())
	cmd.AddCommand(NewShowCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}
