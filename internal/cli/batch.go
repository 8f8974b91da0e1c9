package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/foodguard/internal/model"
	"github.com/ppiankov/foodguard/internal/pipeline"
	"github.com/ppiankov/foodguard/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Analyze many barcodes from a file in parallel",
	Long: `Batch analyzes barcodes concurrently:
- Read barcodes from input file (one per line, # comments allowed)
- Analyze with a bounded worker pool, paced by the catalog rate limits
- Print one verdict line per barcode in input order
- Optionally write one JSON report per barcode

Example:
  foodguard batch barcodes.txt
  foodguard batch barcodes.txt --concurrency 8 --output-dir ./reports
  foodguard batch barcodes.txt --diet gluten --user ana`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	// Concurrency flags
	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: concurrency.workers from config)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "", "write one JSON report per barcode to this directory")
	batchCmd.Flags().DurationVar(&batchTimeout, "batch-timeout", 10*time.Minute, "total timeout for batch processing")

	// Shared with analyze
	batchCmd.Flags().StringVarP(&username, "user", "u", "", "record analyses in this user's history")
	batchCmd.Flags().StringSliceVar(&dietKeys, "diet", nil, "enable dietary restrictions (comma-separated keys)")
	batchCmd.Flags().StringToStringVar(&dietSet, "set", nil, "set dietary settings explicitly (key=value)")
	batchCmd.Flags().BoolVar(&withAlternatives, "alternatives", false, "also search healthier alternatives")
	addCatalogFlags(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyCatalogFlags(cfg)
	if concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  FoodGuard Batch Analysis\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	if outputDir != "" {
		fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	}
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	p, closeStore, err := newPipeline(cfg, username != "")
	if err != nil {
		return err
	}
	defer closeStore()

	analyzer := p.ForRequest(pipeline.Request{
		Username:         username,
		Settings:         parseSettings(dietKeys, dietSet),
		WithAlternatives: withAlternatives,
	})
	processor := worker.NewBatchProcessor(analyzer, cfg.Concurrency.Workers)

	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	counts := map[model.Status]int{}
	failures := 0
	for _, r := range results {
		if r.Error != nil {
			failures++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.Barcode, r.Error)
			continue
		}

		counts[r.Result.Status]++
		fmt.Fprintf(cmd.OutOrStdout(), "%-14s %-8s %3d  %s\n", r.Barcode, r.Result.Status, r.Result.Score, r.Result.ProductName)

		if outputDir != "" {
			path := filepath.Join(outputDir, sanitizeFilename(r.Barcode)+".json")
			if err := p.Renderer().WriteJSONFile(r.Result, path); err != nil {
				fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", r.Barcode, err)
			}
		}
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:      %d barcodes\n", len(results))
	fmt.Fprintf(os.Stderr, "  Safe:       %d\n", counts[model.StatusSafe])
	fmt.Fprintf(os.Stderr, "  Warning:    %d\n", counts[model.StatusWarning])
	fmt.Fprintf(os.Stderr, "  Not found:  %d\n", counts[model.StatusError])
	fmt.Fprintf(os.Stderr, "  Failures:   %d\n", failures)
	fmt.Fprintf(os.Stderr, "\n")

	if failures > 0 && failures == len(results) {
		return fmt.Errorf("all %d analyses failed", failures)
	}
	return nil
}

// sanitizeFilename keeps only characters safe in file names
func sanitizeFilename(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)

	// Limit length
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "barcode"
	}
	return s
}
