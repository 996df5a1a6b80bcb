// Package cmd defines and implements the CLI commands for the
// reddit-archiver executable.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reddit-archiver",
		Short: "Archives subreddit listings to dated files.",
		Long: `reddit-archiver fetches the current listing of each configured
subreddit through an ordered chain of transport methods (authenticated
API, public JSON endpoint, syndication feed, HTML scrape) and writes
the first validated result into a dated, per-subreddit file archive.`,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	cmd.AddCommand(newCollectCmd())
	return cmd
}

// Execute is the main entry point. The process exits non-zero when
// any configured forum fails to archive.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
