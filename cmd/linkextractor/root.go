package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for linkextractor.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "linkextractor",
		Short: "Recursive link collector for authorized reconnaissance",
		Long: `linkextractor crawls a target site, follows every in-scope link it
discovers, and writes all collected URLs to a text file incrementally.

Fetches can go direct, through a rotating pool of free proxies, or
through an embedded Tor daemon. The crawl is resilient: dead proxies are
blacklisted and replaced, failed pages are retried, and Ctrl-C shuts
down cleanly with all collected links already on disk.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewExtractCmd())
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
