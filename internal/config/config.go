// Package config provides environment configuration for the marketplace client.
package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the client.
type Config struct {
	// API settings
	BaseURL     string
	HTTPTimeout time.Duration

	// Auth settings
	TokenPath string

	// Cache settings
	CacheMaxEntries  int
	DefaultStaleTime time.Duration
	RetryMax         int
	RetryInterval    time.Duration

	// Assistant settings
	PollInterval time.Duration

	// Upload settings
	MaxAvatarBytes int64

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		// API
		BaseURL:     getEnv("MARKETPLACE_API_URL", "https://api.circulab.fr"),
		HTTPTimeout: getDurationEnv("MARKETPLACE_HTTP_TIMEOUT", 30*time.Second),

		// Auth
		TokenPath: getEnv("MARKETPLACE_TOKEN_PATH", defaultTokenPath()),

		// Cache
		CacheMaxEntries:  getIntEnv("MARKETPLACE_CACHE_MAX_ENTRIES", 256),
		DefaultStaleTime: getDurationEnv("MARKETPLACE_STALE_TIME", 30*time.Second),
		RetryMax:         getIntEnv("MARKETPLACE_RETRY_MAX", 2),
		RetryInterval:    getDurationEnv("MARKETPLACE_RETRY_INTERVAL", 500*time.Millisecond),

		// Assistant
		PollInterval: getDurationEnv("MARKETPLACE_POLL_INTERVAL", 2*time.Second),

		// Uploads
		MaxAvatarBytes: int64(getIntEnv("MARKETPLACE_MAX_AVATAR_BYTES", 5*1024*1024)),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

// fileConfig is the YAML shape of the optional config file. Durations are
// Go duration strings ("30s", "2m").
type fileConfig struct {
	BaseURL          string `yaml:"base_url"`
	HTTPTimeout      string `yaml:"http_timeout"`
	TokenPath        string `yaml:"token_path"`
	CacheMaxEntries  *int   `yaml:"cache_max_entries"`
	DefaultStaleTime string `yaml:"default_stale_time"`
	RetryMax         *int   `yaml:"retry_max"`
	RetryInterval    string `yaml:"retry_interval"`
	PollInterval     string `yaml:"poll_interval"`
	MaxAvatarBytes   *int64 `yaml:"max_avatar_bytes"`
	LogLevel         string `yaml:"log_level"`
	TracingEndpoint  string `yaml:"tracing_endpoint"`
	TracingEnabled   *bool  `yaml:"tracing_enabled"`
}

// LoadFile reads configuration from the environment, then overlays values from
// a YAML file when one exists at path. File values win over environment values
// only for fields the file actually sets.
func LoadFile(path string) (*Config, error) {
	cfg := Load()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, err
	}

	if fc.BaseURL != "" {
		cfg.BaseURL = fc.BaseURL
	}
	if fc.TokenPath != "" {
		cfg.TokenPath = fc.TokenPath
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.TracingEndpoint != "" {
		cfg.TracingEndpoint = fc.TracingEndpoint
	}
	if fc.CacheMaxEntries != nil {
		cfg.CacheMaxEntries = *fc.CacheMaxEntries
	}
	if fc.RetryMax != nil {
		cfg.RetryMax = *fc.RetryMax
	}
	if fc.MaxAvatarBytes != nil {
		cfg.MaxAvatarBytes = *fc.MaxAvatarBytes
	}
	if fc.TracingEnabled != nil {
		cfg.TracingEnabled = *fc.TracingEnabled
	}
	setDuration(&cfg.HTTPTimeout, fc.HTTPTimeout)
	setDuration(&cfg.DefaultStaleTime, fc.DefaultStaleTime)
	setDuration(&cfg.RetryInterval, fc.RetryInterval)
	setDuration(&cfg.PollInterval, fc.PollInterval)

	return cfg, nil
}

func setDuration(dst *time.Duration, raw string) {
	if raw == "" {
		return
	}
	if d, err := time.ParseDuration(raw); err == nil {
		*dst = d
	}
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".marketplace-token"
	}
	return home + "/.config/circulab/token"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
