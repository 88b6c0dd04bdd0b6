// Package config loads and validates pipeline configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all pipeline configuration knobs loaded via Viper.
type Config struct {
	Sources SourcesConfig `mapstructure:"sources"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Scrape  ScrapeConfig  `mapstructure:"scrape"`
	Output  OutputConfig  `mapstructure:"output"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// SourcesConfig holds the two source entry URLs.
type SourcesConfig struct {
	WikipediaURL string `mapstructure:"wikipedia_url"`
	SMGIndexURL  string `mapstructure:"smg_index_url"`
}

// HTTPConfig configures the fetch client and its retry behavior.
type HTTPConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxRetries     int    `mapstructure:"max_retries"`
	BackoffBaseMs  int    `mapstructure:"backoff_base_ms"`
}

// ScrapeConfig governs extractor heuristics and courtesy delays.
type ScrapeConfig struct {
	MinListItems     int `mapstructure:"min_list_items"`
	DetailDelayMs    int `mapstructure:"detail_delay_ms"`
	ReconcileDelayMs int `mapstructure:"reconcile_delay_ms"`
}

// OutputConfig sets where result files are written.
type OutputConfig struct {
	Dir    string `mapstructure:"dir"`
	Prefix string `mapstructure:"prefix"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PLANTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sources.wikipedia_url", "https://en.wikipedia.org/wiki/List_of_garden_plants_in_North_America")
	v.SetDefault("sources.smg_index_url", "https://www.smgrowers.com/plantindx.asp")
	v.SetDefault("http.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.max_retries", 5)
	v.SetDefault("http.backoff_base_ms", 1000)
	v.SetDefault("scrape.min_list_items", 50)
	v.SetDefault("scrape.detail_delay_ms", 200)
	v.SetDefault("scrape.reconcile_delay_ms", 500)
	v.SetDefault("output.dir", "data")
	v.SetDefault("output.prefix", "north_american_plants")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Sources.WikipediaURL == "" {
		return fmt.Errorf("sources.wikipedia_url must be set")
	}
	if c.Sources.SMGIndexURL == "" {
		return fmt.Errorf("sources.smg_index_url must be set")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.MaxRetries <= 0 {
		return fmt.Errorf("http.max_retries must be > 0")
	}
	if c.HTTP.BackoffBaseMs <= 0 {
		return fmt.Errorf("http.backoff_base_ms must be > 0")
	}
	if c.Scrape.MinListItems <= 0 {
		return fmt.Errorf("scrape.min_list_items must be > 0")
	}
	if c.Scrape.DetailDelayMs < 0 || c.Scrape.ReconcileDelayMs < 0 {
		return fmt.Errorf("scrape delays must be >= 0")
	}
	if c.Output.Prefix == "" {
		return fmt.Errorf("output.prefix must be set")
	}
	return nil
}

// Timeout returns the per-request HTTP timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// BackoffBase returns the unit delay for the exponential retry schedule.
func (c Config) BackoffBase() time.Duration {
	return time.Duration(c.HTTP.BackoffBaseMs) * time.Millisecond
}

// DetailDelay returns the courtesy pause between detail-page fetches.
func (c Config) DetailDelay() time.Duration {
	return time.Duration(c.Scrape.DetailDelayMs) * time.Millisecond
}

// ReconcileDelay returns the pause between missing-name recovery attempts.
func (c Config) ReconcileDelay() time.Duration {
	return time.Duration(c.Scrape.ReconcileDelayMs) * time.Millisecond
}
