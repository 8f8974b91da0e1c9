package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/foodguard/internal/additive"
	"github.com/ppiankov/foodguard/internal/pipeline"
)

// additiveCmd represents the additive command
var additiveCmd = &cobra.Command{
	Use:   "additive <code-or-name>",
	Short: "Look up an additive profile",
	Long: `Additive looks up the embedded knowledge base by E-number, bare digits
or ingredient name. Unknown E-numbers get a generic profile from their
numbering family.

Example:
  foodguard additive E171
  foodguard additive 621
  foodguard additive "dioxido de titanio"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdditive,
}

func init() {
	rootCmd.AddCommand(additiveCmd)

	additiveCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the record as JSON")
}

func runAdditive(cmd *cobra.Command, args []string) error {
	kb, err := additive.Default()
	if err != nil {
		return fmt.Errorf("load knowledge base: %w", err)
	}

	query := strings.Join(args, " ")
	rec, ok := kb.Search(query)
	if !ok {
		return fmt.Errorf("no additive matches %q", query)
	}

	renderer := pipeline.NewRenderer(verbose)
	if jsonOutput {
		return renderer.RenderJSON(cmd.OutOrStdout(), rec)
	}
	renderer.RenderAdditive(cmd.OutOrStdout(), rec)
	return nil
}

func knowledgeBaseVersion() (int, error) {
	kb, err := additive.Default()
	if err != nil {
		return 0, fmt.Errorf("load knowledge base: %w", err)
	}
	return kb.Version(), nil
}
