package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/foodguard/internal/additive"
	"github.com/ppiankov/foodguard/internal/pipeline"
)

// tipCmd represents the tip command
var tipCmd = &cobra.Command{
	Use:   "tip",
	Short: "Show today's health tip",
	Long: `Tip prints a short health tip. The tip changes with the day of year,
so every run on the same day shows the same one.

Example:
  foodguard tip
  foodguard tip --json`,
	Args: cobra.NoArgs,
	RunE: runTip,
}

func init() {
	rootCmd.AddCommand(tipCmd)

	tipCmd.Flags().BoolVar(&jsonOutput, "json", false, `print {"tip": ...} as JSON`)
}

func runTip(cmd *cobra.Command, args []string) error {
	kb, err := additive.Default()
	if err != nil {
		return fmt.Errorf("load knowledge base: %w", err)
	}

	tip, ok := kb.TipFor(time.Now())
	if !ok {
		return fmt.Errorf("knowledge base has no tips")
	}

	if jsonOutput {
		return pipeline.NewRenderer(verbose).RenderJSON(cmd.OutOrStdout(), map[string]string{"tip": tip})
	}
	fmt.Fprintln(cmd.OutOrStdout(), tip)
	return nil
}
