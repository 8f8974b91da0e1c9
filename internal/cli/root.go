package cli

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/foodguard/internal/model"
)

// Version is set at build time via -ldflags
var Version = "v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "foodguard",
	Short: "FoodGuard - barcode food safety analysis",
	Long: `FoodGuard looks up a packaged food by barcode and explains what is in it.

For each product it:
- detects food additives from declared tags and the ingredient list
- scores overall healthiness from nutrients and additive risk (5-100)
- checks the ingredients against your dietary restrictions
- suggests healthier products from the same category

Product data comes from Open Food Facts.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of FoodGuard and of the embedded additive knowledge base.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		kbVersion, err := knowledgeBaseVersion()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "foodguard %s (additive knowledge base v%d)\n", Version, kbVersion)
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.foodguard/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in .env, the config file and ENV variables
func initConfig() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(filepath.Join(home, ".foodguard"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match FOODGUARD_*, e.g. FOODGUARD_STORAGE_DATABASE_URL
	viper.SetEnvPrefix("FOODGUARD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// DATABASE_URL is the conventional name on hosted platforms
	_ = viper.BindEnv("storage.database_url", "FOODGUARD_STORAGE_DATABASE_URL", "DATABASE_URL")

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig merges defaults, config file, environment and bound flags
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	registerDefaults(viper.GetViper(), cfg)

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if verbose {
		cfg.Output.Verbose = true
	}
	if cfg.Diet == nil {
		cfg.Diet = model.DietarySettings{}
	}
	return cfg, nil
}

// registerDefaults makes every key known to viper so environment overrides apply
func registerDefaults(v *viper.Viper, cfg *model.Config) {
	v.SetDefault("http.user_agent", cfg.HTTP.UserAgent)
	v.SetDefault("http.max_body_bytes", cfg.HTTP.MaxBodyBytes)
	v.SetDefault("http.http_proxy", cfg.HTTP.HTTPProxy)
	v.SetDefault("http.https_proxy", cfg.HTTP.HTTPSProxy)
	v.SetDefault("http.no_proxy", cfg.HTTP.NoProxy)
	v.SetDefault("catalog.base_url", cfg.Catalog.BaseURL)
	v.SetDefault("catalog.product_link_base", cfg.Catalog.ProductLinkBase)
	v.SetDefault("catalog.fetch_timeout", cfg.Catalog.FetchTimeout)
	v.SetDefault("catalog.search_timeout", cfg.Catalog.SearchTimeout)
	v.SetDefault("catalog.fetch_attempts", cfg.Catalog.FetchAttempts)
	v.SetDefault("catalog.retry_delay", cfg.Catalog.RetryDelay)
	v.SetDefault("catalog.search_page_size", cfg.Catalog.SearchPageSize)
	v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	v.SetDefault("cache.dir", cfg.Cache.Dir)
	v.SetDefault("cache.memory_ttl", cfg.Cache.MemoryTTL)
	v.SetDefault("cache.disk_ttl", cfg.Cache.DiskTTL)
	v.SetDefault("rate_limiting.product_rps", cfg.RateLimiting.ProductRPS)
	v.SetDefault("rate_limiting.search_rps", cfg.RateLimiting.SearchRPS)
	v.SetDefault("rate_limiting.burst_size", cfg.RateLimiting.BurstSize)
	v.SetDefault("storage.enabled", cfg.Storage.Enabled)
	v.SetDefault("storage.database_url", cfg.Storage.DatabaseURL)
	v.SetDefault("storage.sqlite_path", cfg.Storage.SQLitePath)
	v.SetDefault("concurrency.workers", cfg.Concurrency.Workers)
	v.SetDefault("output.verbose", cfg.Output.Verbose)
}

// newLogger returns a stderr logger when verbose, otherwise a discarding one
func newLogger(cfg *model.Config) *log.Logger {
	if cfg.Output.Verbose {
		return log.New(os.Stderr, "foodguard: ", log.Ltime)
	}
	return log.New(io.Discard, "", 0)
}
