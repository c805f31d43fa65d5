// Package config handles configuration loading for callreport.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Provider ProviderConfig `mapstructure:"provider" yaml:"provider"`
	Cache    CacheConfig    `mapstructure:"cache"    yaml:"cache"`
	API      APIConfig      `mapstructure:"api"      yaml:"api"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
}

// ProviderConfig holds the upstream call-report API settings.
type ProviderConfig struct {
	BaseURL            string `mapstructure:"base_url"            yaml:"base_url"`
	FinancialsEndpoint string `mapstructure:"financials_endpoint" yaml:"financials_endpoint"`
	APIKey             string `mapstructure:"api_key"             yaml:"api_key"`
	TimeoutSec         int    `mapstructure:"timeout_sec"         yaml:"timeout_sec"`
	MaxLimit           int    `mapstructure:"max_limit"           yaml:"max_limit"` // provider hard cap on result-set size
	RateLimit          int    `mapstructure:"rate_limit"          yaml:"rate_limit"` // requests per second
}

// CacheConfig holds response cache settings.
type CacheConfig struct {
	TTLSec      int `mapstructure:"ttl_sec"       yaml:"ttl_sec"`       // successful responses
	ErrorTTLSec int `mapstructure:"error_ttl_sec" yaml:"error_ttl_sec"` // error responses
	MaxEntries  int `mapstructure:"max_entries"   yaml:"max_entries"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "console" or "json"
}

// Timeout returns the provider request timeout as a duration.
func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSec) * time.Second
}

// TTL returns the default cache TTL for successful responses.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSec) * time.Second
}

// ErrorTTL returns the cache TTL for error responses.
func (c CacheConfig) ErrorTTL() time.Duration {
	return time.Duration(c.ErrorTTLSec) * time.Second
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.callreport/config.yaml (home directory)
//  3. /etc/callreport/config.yaml (system)
//
// Environment variables override config file values.
// Format: CALLREPORT_<SECTION>_<KEY>, e.g., CALLREPORT_PROVIDER_API_KEY
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".callreport"))
	v.AddConfigPath("/etc/callreport")

	v.SetEnvPrefix("CALLREPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found — that's fine, use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)

	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("CALLREPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Provider defaults
	v.SetDefault("provider.base_url", "https://banks.data.fdic.gov/api")
	v.SetDefault("provider.financials_endpoint", "/financials")
	v.SetDefault("provider.timeout_sec", 30)
	v.SetDefault("provider.max_limit", 10000)
	v.SetDefault("provider.rate_limit", 10)

	// Cache defaults
	v.SetDefault("cache.ttl_sec", 1800)      // 30 minutes
	v.SetDefault("cache.error_ttl_sec", 300) // 5 minutes
	v.SetDefault("cache.max_entries", 100)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("CALLREPORT_PROVIDER_API_KEY"); key != "" {
		cfg.Provider.APIKey = key
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
