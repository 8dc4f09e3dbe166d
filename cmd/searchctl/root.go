package main

import (
	"time"

	"github.com/spf13/cobra"
)

var (
	serverURL      string
	requestTimeout time.Duration
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "searchctl",
	Short: "Search service CLI",
	Long: `searchctl queries a running search service and inspects its rollout flags.

Example usage:
  searchctl search "What is retrieval augmented generation?" --collection docs --user alice
  searchctl flags --user alice --pct 25`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:9020", "search service base URL")
	rootCmd.PersistentFlags().DurationVar(&requestTimeout, "timeout", 150*time.Second, "request timeout")
}
