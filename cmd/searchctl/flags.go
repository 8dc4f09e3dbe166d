package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"rag-modulo/internal/usecase/pipeline"
)

var flagsCmd = &cobra.Command{
	Use:   "flags",
	Short: "Show the staged-pipeline rollout decision for a user",
	Long: `Compute which execution path a user gets at a given rollout percentage.

The decision is a stable hash of the user id, so it matches what the
service decides for the same flag settings.

Examples:
  searchctl flags --user alice --pct 25
  searchctl flags --user alice --pct 25 --disabled`,
	RunE: runFlags,
}

func init() {
	rootCmd.AddCommand(flagsCmd)

	flagsCmd.Flags().String("user", "", "user identifier (required)")
	flagsCmd.Flags().Int("pct", 100, "rollout percentage (0-100)")
	flagsCmd.Flags().Bool("disabled", false, "evaluate with the master toggle off")
	_ = flagsCmd.MarkFlagRequired("user")
}

func runFlags(cmd *cobra.Command, args []string) error {
	user, _ := cmd.Flags().GetString("user")
	pct, _ := cmd.Flags().GetInt("pct")
	disabled, _ := cmd.Flags().GetBool("disabled")

	if pct < 0 || pct > 100 {
		return fmt.Errorf("pct must be between 0 and 100, got %d", pct)
	}

	flags := pipeline.FeatureFlags{
		StagedPipelineEnabled: !disabled,
		StagedRolloutPercent:  pct,
	}

	staged := color.New(color.FgGreen, color.Bold)
	legacy := color.New(color.FgYellow, color.Bold)

	fmt.Printf("user:    %s\n", user)
	fmt.Printf("enabled: %t\n", !disabled)
	fmt.Printf("rollout: %d%%\n", pct)
	if flags.UseStagedPipeline(user) {
		staged.Println("path:    staged")
	} else {
		legacy.Println("path:    legacy")
	}
	return nil
}
