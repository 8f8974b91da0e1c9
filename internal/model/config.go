package model

import "time"

// Config is the complete FoodGuard configuration
type Config struct {
	HTTP         HTTPConfig        `yaml:"http" mapstructure:"http"`
	Catalog      CatalogConfig     `yaml:"catalog" mapstructure:"catalog"`
	Cache        CacheConfig       `yaml:"cache" mapstructure:"cache"`
	RateLimiting RateLimitConfig   `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Storage      StorageConfig     `yaml:"storage" mapstructure:"storage"`
	Concurrency  ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Output       OutputConfig      `yaml:"output" mapstructure:"output"`
	Diet         DietarySettings   `yaml:"diet" mapstructure:"diet"`
}

// HTTPConfig controls outbound HTTP behaviour
type HTTPConfig struct {
	UserAgent    string `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64  `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy    string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy      string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CatalogConfig points at the product catalog (Open Food Facts)
type CatalogConfig struct {
	BaseURL         string        `yaml:"base_url" mapstructure:"base_url"`
	ProductLinkBase string        `yaml:"product_link_base" mapstructure:"product_link_base"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout" mapstructure:"fetch_timeout"`
	SearchTimeout   time.Duration `yaml:"search_timeout" mapstructure:"search_timeout"`
	FetchAttempts   int           `yaml:"fetch_attempts" mapstructure:"fetch_attempts"`
	RetryDelay      time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"`
	SearchPageSize  int           `yaml:"search_page_size" mapstructure:"search_page_size"`
}

// CacheConfig controls product document caching
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// RateLimitConfig paces catalog requests per endpoint
type RateLimitConfig struct {
	ProductRPS float64 `yaml:"product_rps" mapstructure:"product_rps"`
	SearchRPS  float64 `yaml:"search_rps" mapstructure:"search_rps"`
	BurstSize  int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// StorageConfig selects the history backend.
// DatabaseURL (PostgreSQL) wins over SQLitePath when both are set.
type StorageConfig struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	DatabaseURL string `yaml:"database_url,omitempty" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// ConcurrencyConfig controls batch fan-out
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			UserAgent:    "FoodGuard/0.1 (+https://github.com/ppiankov/foodguard)",
			MaxBodyBytes: 5_000_000,
		},
		Catalog: CatalogConfig{
			BaseURL:         "https://world.openfoodfacts.org",
			ProductLinkBase: "https://es.openfoodfacts.org/producto/",
			FetchTimeout:    15 * time.Second,
			SearchTimeout:   10 * time.Second,
			FetchAttempts:   3,
			RetryDelay:      1 * time.Second,
			SearchPageSize:  30,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".foodguard-cache",
			MemoryTTL: 10 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		RateLimiting: RateLimitConfig{
			ProductRPS: 100.0 / 60.0,
			SearchRPS:  10.0 / 60.0,
			BurstSize:  5,
		},
		Storage: StorageConfig{
			Enabled:    true,
			SQLitePath: "foodguard.db",
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Diet: DietarySettings{},
	}
}
