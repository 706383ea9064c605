// Package config provides configuration loading for the application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Veraticus/card-ledger/internal/common"
)

// Ledger source kinds.
const (
	SourceXLSX   = "xlsx"
	SourceCSV    = "csv"
	SourceSheets = "sheets"
	SourceOFX    = "ofx"
)

// Environment variables honored for feed credentials when the config file has none.
const (
	EnvExchangeRateKey = "API_KEY_CUR"
	EnvAlphaVantageKey = "SP_500_API_KEY"
)

// Config is the validated application configuration.
type Config struct {
	Ledger       LedgerConfig
	SettingsPath string
	ExchangeRate FeedConfig
	AlphaVantage FeedConfig
	Sheets       SheetsConfig
	Trailing     bool
}

// LedgerConfig locates the transaction ledger.
type LedgerConfig struct {
	Path   string
	Source string
	Sheet  string
}

// FeedConfig configures one external price feed.
type FeedConfig struct {
	BaseURL           string
	APIKey            string
	QuoteCurrency     string
	Timeout           time.Duration
	CacheTTL          time.Duration
	RequestsPerMinute int
	RetryAttempts     int
	RetryDelay        time.Duration
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("ledger.path", "data/operations.xlsx")
	v.SetDefault("settings.path", "user_settings.json")
	v.SetDefault("spending.trailing", false)

	v.SetDefault("feeds.exchangerate.base_url", "https://v6.exchangerate-api.com")
	v.SetDefault("feeds.exchangerate.quote_currency", "RUB")
	v.SetDefault("feeds.exchangerate.timeout", 5*time.Second)
	v.SetDefault("feeds.exchangerate.cache_ttl", time.Hour)
	v.SetDefault("feeds.exchangerate.requests_per_minute", 60)
	v.SetDefault("feeds.exchangerate.retry_attempts", 3)
	v.SetDefault("feeds.exchangerate.retry_delay", 500*time.Millisecond)

	v.SetDefault("feeds.alphavantage.base_url", "https://www.alphavantage.co")
	v.SetDefault("feeds.alphavantage.timeout", 5*time.Second)
	v.SetDefault("feeds.alphavantage.cache_ttl", 15*time.Minute)
	v.SetDefault("feeds.alphavantage.requests_per_minute", 5)
	v.SetDefault("feeds.alphavantage.retry_attempts", 3)
	v.SetDefault("feeds.alphavantage.retry_delay", time.Second)
}

// LoadDotEnv loads a .env file into the process environment without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load builds the application configuration from v.
// Feed API keys fall back to API_KEY_CUR and SP_500_API_KEY.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	sheetsConfig := LoadSheetsConfig(v)

	cfg := &Config{
		Ledger: LedgerConfig{
			Path:   ExpandPath(v.GetString("ledger.path")),
			Source: strings.ToLower(v.GetString("ledger.source")),
			Sheet:  v.GetString("ledger.sheet"),
		},
		SettingsPath: ExpandPath(v.GetString("settings.path")),
		ExchangeRate: loadFeed(v, "feeds.exchangerate", EnvExchangeRateKey),
		AlphaVantage: loadFeed(v, "feeds.alphavantage", EnvAlphaVantageKey),
		Sheets:       sheetsConfig,
		Trailing:     v.GetBool("spending.trailing"),
	}

	if cfg.Ledger.Source == "" {
		cfg.Ledger.Source = DetectSource(cfg.Ledger.Path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFeed(v *viper.Viper, prefix, keyEnv string) FeedConfig {
	feed := FeedConfig{
		BaseURL:           strings.TrimRight(v.GetString(prefix+".base_url"), "/"),
		APIKey:            v.GetString(prefix + ".api_key"),
		QuoteCurrency:     strings.ToUpper(v.GetString(prefix + ".quote_currency")),
		Timeout:           v.GetDuration(prefix + ".timeout"),
		CacheTTL:          v.GetDuration(prefix + ".cache_ttl"),
		RequestsPerMinute: v.GetInt(prefix + ".requests_per_minute"),
		RetryAttempts:     v.GetInt(prefix + ".retry_attempts"),
		RetryDelay:        v.GetDuration(prefix + ".retry_delay"),
	}
	if feed.APIKey == "" {
		feed.APIKey = os.Getenv(keyEnv)
	}
	return feed
}

// DetectSource infers the ledger source kind from a file extension.
func DetectSource(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return SourceCSV
	case ".ofx", ".qfx":
		return SourceOFX
	default:
		return SourceXLSX
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Ledger.Source {
	case SourceXLSX, SourceCSV, SourceOFX:
		if c.Ledger.Path == "" {
			return fmt.Errorf("%w: ledger.path is required for %s sources", common.ErrMissingConfig, c.Ledger.Source)
		}
	case SourceSheets:
		if err := c.Sheets.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown ledger source %q", common.ErrInvalidConfig, c.Ledger.Source)
	}

	for name, feed := range map[string]FeedConfig{"exchangerate": c.ExchangeRate, "alphavantage": c.AlphaVantage} {
		if feed.RequestsPerMinute < 0 {
			return fmt.Errorf("%w: feeds.%s.requests_per_minute cannot be negative", common.ErrInvalidConfig, name)
		}
		if feed.RetryAttempts < 0 {
			return fmt.Errorf("%w: feeds.%s.retry_attempts cannot be negative", common.ErrInvalidConfig, name)
		}
		if feed.Timeout < 0 || feed.RetryDelay < 0 || feed.CacheTTL < 0 {
			return fmt.Errorf("%w: feeds.%s durations cannot be negative", common.ErrInvalidConfig, name)
		}
	}

	return nil
}

// RequireKey reports a missing API key for a feed that is about to be used.
func (f FeedConfig) RequireKey(name, env string) error {
	if f.APIKey == "" {
		return fmt.Errorf("%w: %s API key (set feeds.%s.api_key or %s)", common.ErrMissingConfig, name, name, env)
	}
	return nil
}
