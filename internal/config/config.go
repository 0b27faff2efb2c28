// Package config loads the application configuration and sets up logging.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"QuantCache/internal/model"
)

// EnvPrefix prefixes every environment override, e.g.
// QUANTCACHE_DATABASE_SQLITE_PATH. The unprefixed name in each envconfig tag
// is accepted as well.
const EnvPrefix = "QUANTCACHE"

// Quote source providers.
const (
	ProviderYahoo  = "yahoo"
	ProviderEODHD  = "eodhd"
	ProviderAlpaca = "alpaca"
	ProviderMock   = "mock"
)

// Config holds all application configuration.
type Config struct {
	Database struct {
		SQLitePath string `yaml:"sqlite_path" envconfig:"SQLITE_PATH"`
	} `yaml:"database"`
	Catalog struct {
		Dir string `yaml:"dir" envconfig:"CATALOG_DIR"`
	} `yaml:"catalog"`
	Source struct {
		Provider        string        `yaml:"provider" envconfig:"QUOTE_PROVIDER"`
		Proxy           string        `yaml:"proxy" envconfig:"HTTPS_PROXY"`
		Timeout         time.Duration `yaml:"timeout" envconfig:"SOURCE_TIMEOUT"`
		MaxRetries      int           `yaml:"max_retries" envconfig:"SOURCE_MAX_RETRIES"`
		EODHDAPIKey     string        `yaml:"eodhd_api_key" envconfig:"EODHD_API_KEY"`
		AlpacaAPIKey    string        `yaml:"alpaca_api_key" envconfig:"ALPACA_API_KEY"`
		AlpacaAPISecret string        `yaml:"alpaca_api_secret" envconfig:"ALPACA_SECRET_KEY"`
	} `yaml:"source"`
	Sync struct {
		WindowDays    int    `yaml:"window_days" envconfig:"SYNC_WINDOW_DAYS"`
		Workers       int    `yaml:"workers" envconfig:"SYNC_WORKERS"`
		BackfillStart string `yaml:"backfill_start" envconfig:"BACKFILL_START"`
	} `yaml:"sync"`
	Schedule struct {
		UpdateCron string `yaml:"update_cron" envconfig:"CRON_UPDATE"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token" envconfig:"TELEGRAM_BOT_TOKEN"`
		ChatID   string `yaml:"chat_id" envconfig:"TELEGRAM_CHAT_ID"`
	} `yaml:"telegram"`
	Log struct {
		Level string `yaml:"level" envconfig:"LOG_LEVEL"`
		File  string `yaml:"file" envconfig:"LOG_FILE"`
	} `yaml:"log"`
}

// Load reads config from a YAML file, then applies .env and environment
// variable overrides and fills defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env is optional; it never overrides variables already set
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/market.db"
	}
	if c.Catalog.Dir == "" {
		c.Catalog.Dir = "data/catalog"
	}
	if c.Source.Provider == "" {
		c.Source.Provider = ProviderYahoo
	}
	c.Source.Provider = strings.ToLower(c.Source.Provider)
	if c.Source.Timeout == 0 {
		c.Source.Timeout = 30 * time.Second
	}
	if c.Source.MaxRetries == 0 {
		c.Source.MaxRetries = 3
	}
	if c.Sync.WindowDays == 0 {
		c.Sync.WindowDays = int(model.DefaultWindow / (24 * time.Hour))
	}
	if c.Sync.Workers == 0 {
		c.Sync.Workers = 1
	}
	if c.Sync.BackfillStart == "" {
		c.Sync.BackfillStart = "2000-01-01"
	}
	if c.Schedule.UpdateCron == "" {
		c.Schedule.UpdateCron = "0 30 22 * * 1-5"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Window is the trailing sync window.
func (c *Config) Window() time.Duration {
	return time.Duration(c.Sync.WindowDays) * 24 * time.Hour
}

// TelegramEnabled reports whether chat delivery is configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Validate checks that the loaded values are usable.
func (c *Config) Validate() error {
	switch c.Source.Provider {
	case ProviderYahoo, ProviderMock:
	case ProviderEODHD:
		if c.Source.EODHDAPIKey == "" {
			return fmt.Errorf("source.eodhd_api_key is required for provider %q", c.Source.Provider)
		}
	case ProviderAlpaca:
		if c.Source.AlpacaAPIKey == "" || c.Source.AlpacaAPISecret == "" {
			return fmt.Errorf("source.alpaca_api_key and source.alpaca_api_secret are required for provider %q", c.Source.Provider)
		}
	default:
		return fmt.Errorf("source.provider %q is not one of yahoo, eodhd, alpaca, mock", c.Source.Provider)
	}
	if c.Source.Timeout < 0 {
		return fmt.Errorf("source.timeout must not be negative")
	}
	if c.Source.MaxRetries < 0 {
		return fmt.Errorf("source.max_retries must not be negative")
	}
	if c.Sync.WindowDays <= 0 {
		return fmt.Errorf("sync.window_days must be positive")
	}
	if c.Sync.Workers <= 0 {
		return fmt.Errorf("sync.workers must be positive")
	}
	if _, err := model.ParseDate(c.Sync.BackfillStart); err != nil {
		return fmt.Errorf("sync.backfill_start: %w", err)
	}
	if _, err := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow).Parse(c.Schedule.UpdateCron); err != nil {
		return fmt.Errorf("schedule.update_cron: %w", err)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}
