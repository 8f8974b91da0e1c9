package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/foodguard/internal/cache"
	"github.com/ppiankov/foodguard/internal/model"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the product cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached product documents",
	Long: `Clear empties the product cache, including the on-disk directory
configured as cache.dir. The next analysis fetches fresh data.

Example:
  foodguard cache clear`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if err := clearCache(cfg.Cache); err != nil {
			return err
		}

		if cfg.Cache.Dir != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Cleared cache: %s\n", cfg.Cache.Dir)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Cleared cache")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

// clearCache empties the configured cache even when caching is currently disabled
func clearCache(cfg model.CacheConfig) error {
	cfg.Enabled = true
	if err := cache.New(cfg).Clear(); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}
