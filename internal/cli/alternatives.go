package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// alternativesCmd represents the alternatives command
var alternativesCmd = &cobra.Command{
	Use:   "alternatives <barcode>",
	Short: "Suggest healthier products from the same category",
	Long: `Alternatives walks the product's categories from most to least specific
and returns up to three products with a better Nutri-Score (A, then B, and C
for the most specific category only).

Example:
  foodguard alternatives 8410000810004
  foodguard alternatives 8410000810004 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runAlternatives,
}

func init() {
	rootCmd.AddCommand(alternativesCmd)

	alternativesCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the result as JSON")
	addCatalogFlags(alternativesCmd)
}

func runAlternatives(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyCatalogFlags(cfg)

	p, closeStore, err := newPipeline(cfg, false)
	if err != nil {
		return err
	}
	defer closeStore()

	alts, err := p.Alternatives(ctx, strings.TrimSpace(args[0]))
	if err != nil {
		return fmt.Errorf("alternatives failed: %w", err)
	}

	if jsonOutput {
		return p.Renderer().RenderJSON(cmd.OutOrStdout(), alts)
	}
	p.Renderer().RenderAlternatives(cmd.OutOrStdout(), alts)
	return nil
}
