// Package config defines all configuration for the triangular-arbitrage
// engine. Config is loaded from a TOML file (default: config/triarb.toml)
// with sensitive fields overridable via TRIARB_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level configuration, mapping directly onto the TOML
// document's tables.
type Config struct {
	APIInfo   APIInfoConfig    `mapstructure:"api_info"`
	Settings  SettingsConfig   `mapstructure:"settings"`
	Exchange  ExchangeConfig   `mapstructure:"exchange"`
	Triangles []TriangleConfig `mapstructure:"triangles"`
	Logging   LoggingConfig    `mapstructure:"logging"`
	Risk      RiskConfig       `mapstructure:"risk"`
	Dashboard DashboardConfig  `mapstructure:"dashboard"`
}

// APIInfoConfig names the account and exchange the engine trades on.
type APIInfoConfig struct {
	AccountName string `mapstructure:"account_name"`
	Exchange    string `mapstructure:"exchange"`
	ApiKey      string `mapstructure:"api_key"`
	SecretKey   string `mapstructure:"secret_key"`
}

// SettingsConfig tunes the arbitrage evaluator and executor.
//
//   - FeeRate: per-leg taker fee rate applied in both directions of the
//     arbitrage formula (e.g. 0.00105, the exchange's published taker fee;
//     Load sets no default, so an absent fee_rate is 0).
//   - ResponseTimeout: REST request timeout in seconds.
//   - ProtectTolerance: price buffer applied to legs 2 and 3's LIMIT price
//     so they cross the book instead of resting (e.g. 0.001 = 0.1%).
type SettingsConfig struct {
	FeeRate          float64 `mapstructure:"fee_rate"`
	ResponseTimeout  uint64  `mapstructure:"response_timeout"`
	ProtectTolerance float64 `mapstructure:"protect_tolerance"`
}

// ExchangeConfig holds REST/WS endpoints for the configured exchange.
type ExchangeConfig struct {
	RestBaseURL string `mapstructure:"rest_base_url"`
	WSMarketURL string `mapstructure:"ws_market_url"`
	WSUserURL   string `mapstructure:"ws_user_url"`
}

// TriangleConfig names one three-symbol cycle a strategy runner trades.
// The original implementation hard-codes this list in source
// (strategy/src/main.rs's symbols_list); here it's configuration so new
// cycles don't require a rebuild.
type TriangleConfig struct {
	Symbols [3]string `mapstructure:"symbols"`
}

// LoggingConfig controls the structured logger and its rotating file sink.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Directory  string `mapstructure:"directory"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
}

// RiskConfig bounds the risk guard's consecutive-failure cooldown.
type RiskConfig struct {
	MaxConsecutiveLegFailures int           `mapstructure:"max_consecutive_leg_failures"`
	Cooldown                  time.Duration `mapstructure:"cooldown"`
}

// DashboardConfig controls the optional read-only status HTTP server.
type DashboardConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// Load reads config from a TOML file with env var overrides. Sensitive
// fields use env vars: TRIARB_API_KEY, TRIARB_SECRET_KEY.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetEnvPrefix("TRIARB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if key := os.Getenv("TRIARB_API_KEY"); key != "" {
		cfg.APIInfo.ApiKey = key
	}
	if secret := os.Getenv("TRIARB_SECRET_KEY"); secret != "" {
		cfg.APIInfo.SecretKey = secret
	}

	return &cfg, nil
}

// Validate checks all required fields and value ranges.
func (c *Config) Validate() error {
	if c.APIInfo.ApiKey == "" || c.APIInfo.SecretKey == "" {
		return fmt.Errorf("api_info.api_key and api_info.secret_key are required (set TRIARB_API_KEY / TRIARB_SECRET_KEY)")
	}
	if c.Exchange.RestBaseURL == "" {
		return fmt.Errorf("exchange.rest_base_url is required")
	}
	if c.Settings.FeeRate < 0 {
		return fmt.Errorf("settings.fee_rate must be >= 0")
	}
	if c.Settings.ResponseTimeout == 0 {
		return fmt.Errorf("settings.response_timeout must be > 0")
	}
	if len(c.Triangles) == 0 {
		return fmt.Errorf("at least one [[triangles]] entry is required")
	}
	for i, tri := range c.Triangles {
		for _, sym := range tri.Symbols {
			if sym == "" {
				return fmt.Errorf("triangles[%d].symbols must name three symbols", i)
			}
		}
	}
	return nil
}
