// Package main provides the autocommit command line tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X main.version=..."
var (
	version = "dev"
	commit  = "none"
)

func main() {
	var envFile string

	rootCmd := &cobra.Command{
		Use:   "autocommit",
		Short: "Watch a working tree and commit it with Conventional Commit messages",
		Long: `autocommit watches a directory, waits for it to go quiet and commits
what changed with a message derived from the changed paths.

Commands:
  run       Watch, commit, serve the HTTP API and send notifications
  draft     Print the message for the current git status
  classify  Print the category of each path`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "environment file to load")

	rootCmd.AddCommand(newRunCommand(&envFile))
	rootCmd.AddCommand(newDraftCommand(&envFile))
	rootCmd.AddCommand(newClassifyCommand(&envFile))
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "autocommit %s (commit: %s)\n", version, commit)
		},
	}
}
