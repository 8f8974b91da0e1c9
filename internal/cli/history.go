package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/foodguard/internal/history"
	"github.com/ppiankov/foodguard/internal/pipeline"
)

var historyLimit int

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history <user>",
	Short: "List a user's recent analyses",
	Long: `History lists the analyses recorded with "analyze --user", newest first.

Example:
  foodguard history ana
  foodguard history ana --limit 50 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats <user>",
	Short: "Summarize a user's history",
	Long: `Stats reports the number of analyses, the average score and the
SAFE/WARNING counts for a user.

Example:
  foodguard stats ana`,
	Args: cobra.ExactArgs(1),
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", history.DefaultLimit, "number of entries")
	historyCmd.Flags().BoolVar(&jsonOutput, "json", false, "print entries as JSON")
	statsCmd.Flags().BoolVar(&jsonOutput, "json", false, "print stats as JSON")
}

func openHistory() (*history.SQLStore, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	store, err := history.New(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return store, nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Recent(cmd.Context(), args[0], historyLimit)
	if err != nil {
		return err
	}

	renderer := pipeline.NewRenderer(verbose)
	if jsonOutput {
		return renderer.RenderJSON(cmd.OutOrStdout(), entries)
	}
	renderer.RenderHistory(cmd.OutOrStdout(), entries)
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.Stats(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	renderer := pipeline.NewRenderer(verbose)
	if jsonOutput {
		return renderer.RenderJSON(cmd.OutOrStdout(), stats)
	}
	renderer.RenderStats(cmd.OutOrStdout(), args[0], stats)
	return nil
}
