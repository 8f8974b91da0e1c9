package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/foodguard/internal/history"
	"github.com/ppiankov/foodguard/internal/model"
	"github.com/ppiankov/foodguard/internal/pipeline"
)

var (
	username         string
	dietKeys         []string
	dietSet          map[string]string
	withAlternatives bool
	jsonOutput       bool
	outFile          string
	timeout          time.Duration
	noCache          bool
	httpProxy        string
	httpsProxy       string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <barcode>",
	Short: "Analyze a product by barcode",
	Long: `Analyze fetches a product from Open Food Facts and reports:
- detected additives with their safety tier
- a health score from 5 to 100
- dietary restriction violations
- SAFE or WARNING verdict

Dietary restrictions come from the config file (diet section) and the
--diet / --set flags. Accepted keys: gluten, lactose, sugar, nuts, palm_oil,
vegetarian, vegan, msg, fat (each also as <key>_free, no_<key>, low_<key>).

Example:
  foodguard analyze 8410000810004
  foodguard analyze 8410000810004 --diet gluten,vegan --alternatives
  foodguard analyze 8410000810004 --set low_sugar=true --user ana --json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Dietary flags
	analyzeCmd.Flags().StringVarP(&username, "user", "u", "", "record the analysis in this user's history")
	analyzeCmd.Flags().StringSliceVar(&dietKeys, "diet", nil, "enable dietary restrictions (comma-separated keys)")
	analyzeCmd.Flags().StringToStringVar(&dietSet, "set", nil, "set dietary settings explicitly (key=value)")
	analyzeCmd.Flags().BoolVar(&withAlternatives, "alternatives", false, "also search healthier alternatives")

	// Output flags
	analyzeCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the result as JSON")
	analyzeCmd.Flags().StringVarP(&outFile, "out", "o", "", "also write the JSON result to this file")

	addCatalogFlags(analyzeCmd)
}

// addCatalogFlags registers the flags shared by every command that calls the catalog
func addCatalogFlags(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&timeout, "timeout", 1*time.Minute, "overall timeout")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh fetch)")
	cmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	cmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
}

// applyCatalogFlags overlays the shared catalog flags on cfg
func applyCatalogFlags(cfg *model.Config) {
	if noCache {
		cfg.Cache.Enabled = false
	}
	if httpProxy != "" {
		cfg.HTTP.HTTPProxy = httpProxy
	}
	if httpsProxy != "" {
		cfg.HTTP.HTTPSProxy = httpsProxy
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	barcode := strings.TrimSpace(args[0])
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyCatalogFlags(cfg)

	p, closeStore, err := newPipeline(cfg, username != "")
	if err != nil {
		return err
	}
	defer closeStore()

	if verbose {
		fmt.Fprintf(os.Stderr, "Analyzing: %s\n", barcode)
	}

	result, err := p.Analyze(ctx, pipeline.Request{
		Barcode:          barcode,
		Username:         username,
		Settings:         parseSettings(dietKeys, dietSet),
		WithAlternatives: withAlternatives,
	})
	if err != nil {
		return fmt.Errorf("analyze failed: %w", err)
	}

	if outFile != "" {
		if err := p.Renderer().WriteJSONFile(result, outFile); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outFile)
		}
	}

	if jsonOutput {
		return p.Renderer().RenderJSON(cmd.OutOrStdout(), result)
	}
	p.Renderer().RenderSummary(cmd.OutOrStdout(), result)
	return nil
}

// newPipeline builds the pipeline, opening the history store when asked.
// A store that cannot be opened is reported and analysis continues without it.
func newPipeline(cfg *model.Config, withHistory bool) (*pipeline.Pipeline, func(), error) {
	logger := newLogger(cfg)
	opts := pipeline.Options{Logger: logger}
	closeStore := func() {}

	if withHistory {
		store, err := history.New(cfg.Storage)
		switch {
		case errors.Is(err, history.ErrDisabled):
			logger.Printf("history: storage disabled, not recording")
		case err != nil:
			fmt.Fprintf(os.Stderr, "Warning: history unavailable: %v\n", err)
		default:
			opts.History = store
			closeStore = func() { _ = store.Close() }
		}
	}

	p, err := pipeline.NewPipeline(cfg, opts)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	return p, closeStore, nil
}

// parseSettings turns --diet keys and --set pairs into dietary settings
func parseSettings(keys []string, set map[string]string) model.DietarySettings {
	settings := model.DietarySettings{}
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			settings[k] = true
		}
	}
	for k, v := range set {
		settings[strings.TrimSpace(k)] = v
	}
	return settings
}
