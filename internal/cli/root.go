package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tellsiddh/collections/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "collections",
	Short: "Save links from anywhere and keep them in one collection",
	Long: `collections serves a small web app that saves shared links with a
title, notes and the date they were added. The app shell stays usable
offline through a versioned asset cache.

Configuration is read from COLLECTIONS_* environment variables.
Without a subcommand the server is started.`,
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}
