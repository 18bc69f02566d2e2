package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Engine   EngineConfig   `mapstructure:"engine"`
	Input    InputConfig    `mapstructure:"input"`
	Live     LiveConfig     `mapstructure:"live"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// EngineConfig fixes the smoothing shifts for the two averages. The shifts
// are construction-time parameters of the datapath, not runtime knobs.
type EngineConfig struct {
	FastShift uint `mapstructure:"fast_shift"`
	SlowShift uint `mapstructure:"slow_shift"`
}

// InputConfig describes the offline tick file.
type InputConfig struct {
	Path        string `mapstructure:"path"`
	PriceColumn string `mapstructure:"price_column"`
}

// LiveConfig holds live feed configuration.
type LiveConfig struct {
	Source       string        `mapstructure:"source"` // "ws" or "poll"
	WSURL        string        `mapstructure:"ws_url"`
	RestURL      string        `mapstructure:"rest_url"`
	Symbols      []string      `mapstructure:"symbols"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// StorageConfig holds run persistence configuration.
type StorageConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DBPath  string `mapstructure:"db_path"`
	MaxRuns int    `mapstructure:"max_runs"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken   string        `mapstructure:"bot_token"`
	ChatID     string        `mapstructure:"chat_id"`
	Enabled    bool          `mapstructure:"enabled"`
	MaxRetries int           `mapstructure:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

// MetricsConfig holds the Prometheus endpoint configuration.
type MetricsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	ListenAddr string `mapstructure:"listen_addr"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set config file
	v.SetConfigFile(path)

	// Set defaults
	setDefaults(v)

	// Enable environment variable override
	v.SetEnvPrefix("TICKPIPE")
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Engine defaults match the RTL parameters: 1/2 and 1/64 smoothing.
	v.SetDefault("engine.fast_shift", 1)
	v.SetDefault("engine.slow_shift", 6)

	// Input defaults
	v.SetDefault("input.path", "ticks.csv")
	v.SetDefault("input.price_column", "price")

	// Live feed defaults
	v.SetDefault("live.source", "ws")
	v.SetDefault("live.ws_url", "wss://stream.binance.com:9443/stream")
	v.SetDefault("live.rest_url", "https://api.binance.com")
	v.SetDefault("live.poll_interval", "2s")
	v.SetDefault("live.timeout", "10s")

	// Storage defaults
	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.db_path", "./data/tickpipe.db")
	v.SetDefault("storage.max_runs", 50)

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay", "2s")

	// Metrics defaults
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen_addr", ":2112")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Engine config
	if c.Engine.SlowShift > 30 {
		return fmt.Errorf("engine.slow_shift must be at most 30")
	}
	if c.Engine.FastShift >= c.Engine.SlowShift {
		return fmt.Errorf("engine.fast_shift must be smaller than engine.slow_shift")
	}

	// Validate Input config
	if c.Input.Path == "" {
		return fmt.Errorf("input.path is required")
	}
	if c.Input.PriceColumn == "" {
		return fmt.Errorf("input.price_column is required")
	}

	// Validate Live config
	if c.Live.Source != "ws" && c.Live.Source != "poll" {
		return fmt.Errorf("live.source must be one of: ws, poll")
	}
	if c.Live.WSURL == "" {
		return fmt.Errorf("live.ws_url is required")
	}
	if c.Live.RestURL == "" {
		return fmt.Errorf("live.rest_url is required")
	}
	if c.Live.PollInterval < 1*time.Second {
		return fmt.Errorf("live.poll_interval must be at least 1 second")
	}
	if c.Live.Timeout < 1*time.Second {
		return fmt.Errorf("live.timeout must be at least 1 second")
	}

	// Validate Storage config
	if c.Storage.Enabled {
		if c.Storage.DBPath == "" {
			return fmt.Errorf("storage.db_path is required when storage is enabled")
		}
		if c.Storage.MaxRuns < 1 {
			return fmt.Errorf("storage.max_runs must be at least 1")
		}
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
		if c.Telegram.MaxRetries < 1 || c.Telegram.MaxRetries > 10 {
			return fmt.Errorf("telegram.max_retries must be between 1 and 10")
		}
		if c.Telegram.RetryDelay < 1*time.Second {
			return fmt.Errorf("telegram.retry_delay must be at least 1 second")
		}
	}

	// Validate Metrics config
	if c.Metrics.Enabled && c.Metrics.ListenAddr == "" {
		return fmt.Errorf("metrics.listen_addr is required when metrics is enabled")
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
