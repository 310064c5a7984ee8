// Package commands holds the bookkeeping CLI: the HTTP server, the background
// worker and a few operator utilities.
package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var envFile string

	rootCmd := &cobra.Command{
		Use:   "bookkeeping",
		Short: "Double-entry bookkeeping service",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "load environment from this file instead of ./.env")

	rootCmd.AddCommand(
		newServeCommand(&envFile),
		newWorkerCommand(&envFile),
		newSeedCommand(&envFile),
		newReportCommand(&envFile),
	)

	return rootCmd
}
