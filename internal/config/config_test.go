package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadAndValidate(t *testing.T) {
	// Create temp config file
	content := `
engine:
  fast_shift: 1
  slow_shift: 6

input:
  path: "ticks.csv"
  price_column: "price"

live:
  source: "ws"
  symbols:
    - BTCUSDT
    - ETHUSDT
  poll_interval: 2s
  timeout: 10s

telegram:
  bot_token: "test_token"
  chat_id: "test_chat_id"
  enabled: true

storage:
  enabled: true
  max_runs: 25
  db_path: "./data/test.db"

logging:
  level: "info"
  format: "json"
`
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Remove(tmpfile.Name()) }()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	// Test Load
	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Verify values
	if cfg.Engine.FastShift != 1 || cfg.Engine.SlowShift != 6 {
		t.Errorf("Unexpected engine shifts: %d/%d", cfg.Engine.FastShift, cfg.Engine.SlowShift)
	}

	if cfg.Live.PollInterval != 2*time.Second {
		t.Errorf("Unexpected poll interval: %v", cfg.Live.PollInterval)
	}

	if len(cfg.Live.Symbols) != 2 {
		t.Errorf("Expected 2 symbols, got %d", len(cfg.Live.Symbols))
	}

	if cfg.Storage.MaxRuns != 25 {
		t.Errorf("Unexpected max runs: %d", cfg.Storage.MaxRuns)
	}

	// Defaults should fill in keys the file omits
	if cfg.Live.WSURL == "" {
		t.Error("Expected default ws_url to be applied")
	}
	if cfg.Metrics.ListenAddr != ":2112" {
		t.Errorf("Unexpected metrics listen addr: %q", cfg.Metrics.ListenAddr)
	}

	// Test Validate
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestValidateErrors(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Engine: EngineConfig{
				FastShift: 1,
				SlowShift: 6,
			},
			Input: InputConfig{
				Path:        "ticks.csv",
				PriceColumn: "price",
			},
			Live: LiveConfig{
				Source:       "ws",
				WSURL:        "wss://stream.binance.com:9443/stream",
				RestURL:      "https://api.binance.com",
				Symbols:      []string{"BTCUSDT"},
				PollInterval: 2 * time.Second,
				Timeout:      10 * time.Second,
			},
			Storage: StorageConfig{
				Enabled: true,
				DBPath:  "./data/test.db",
				MaxRuns: 50,
			},
			Telegram: TelegramConfig{
				Enabled:    true,
				BotToken:   "token",
				ChatID:     "chat",
				MaxRetries: 3,
				RetryDelay: 2 * time.Second,
			},
			Metrics: MetricsConfig{
				Enabled:    true,
				ListenAddr: ":2112",
			},
			Logging: LoggingConfig{
				Level:  "info",
				Format: "json",
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "fast shift not smaller than slow shift",
			mutate:  func(c *Config) { c.Engine.FastShift = 6 },
			wantErr: true,
		},
		{
			name:    "slow shift too large",
			mutate:  func(c *Config) { c.Engine.SlowShift = 31 },
			wantErr: true,
		},
		{
			name:    "missing input path",
			mutate:  func(c *Config) { c.Input.Path = "" },
			wantErr: true,
		},
		{
			name:    "unknown live source",
			mutate:  func(c *Config) { c.Live.Source = "ftp" },
			wantErr: true,
		},
		{
			name:    "poll interval too small",
			mutate:  func(c *Config) { c.Live.PollInterval = 200 * time.Millisecond },
			wantErr: true,
		},
		{
			name:    "missing telegram token when enabled",
			mutate:  func(c *Config) { c.Telegram.BotToken = "" },
			wantErr: true,
		},
		{
			name:    "telegram retries out of range",
			mutate:  func(c *Config) { c.Telegram.MaxRetries = 11 },
			wantErr: true,
		},
		{
			name:    "telegram disabled skips telegram checks",
			mutate:  func(c *Config) { c.Telegram = TelegramConfig{Enabled: false} },
			wantErr: false,
		},
		{
			name:    "missing db path when storage enabled",
			mutate:  func(c *Config) { c.Storage.DBPath = "" },
			wantErr: true,
		},
		{
			name:    "storage disabled skips storage checks",
			mutate:  func(c *Config) { c.Storage = StorageConfig{Enabled: false} },
			wantErr: false,
		},
		{
			name:    "missing metrics addr when enabled",
			mutate:  func(c *Config) { c.Metrics.ListenAddr = "" },
			wantErr: true,
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: true,
		},
		{
			name:    "invalid log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
