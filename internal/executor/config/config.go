package config

import (
	"fmt"
	"time"

	"golang-dividend-forecaster/pkg/config"
)

// Executor holds executor-specific configuration.
type Executor struct {
	RedisStreamTaskExecutionTimeout time.Duration `mapstructure:"redis_stream_task_execution_timeout"`
}

// YahooFinance holds the configuration for the Yahoo Finance chart API.
type YahooFinance struct {
	BaseURL             string        `mapstructure:"base_url"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	Timeout             time.Duration `mapstructure:"timeout"`
	UserAgent           string        `mapstructure:"user_agent"`
	MarketSuffix        string        `mapstructure:"market_suffix"`
}

// Dividend holds the defaults of the sync and prediction jobs; job payloads may override them.
type Dividend struct {
	HistoryYears       int           `mapstructure:"history_years"`
	FutureYears        int           `mapstructure:"future_years"`
	HistoryLimit       int           `mapstructure:"history_limit"`
	ChunkSize          int           `mapstructure:"chunk_size"`
	MaxConcurrentPairs int           `mapstructure:"max_concurrent_pairs"`
	RunLockTTL         time.Duration `mapstructure:"run_lock_ttl"`
}

// Telegram holds configuration for the operator notifier. An empty bot token disables it.
type Telegram struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Metrics holds the Prometheus endpoint configuration. Port 0 disables it.
type Metrics struct {
	Port int `mapstructure:"port"`
}

// Config holds the full configuration for the executor service.
type Config struct {
	App          config.App      `mapstructure:"app"`
	Logger       config.Logger   `mapstructure:"logger"`
	Database     config.Database `mapstructure:"database"`
	Redis        config.Redis    `mapstructure:"redis"`
	Executor     Executor        `mapstructure:"executor"`
	YahooFinance YahooFinance    `mapstructure:"yahoo_finance"`
	Dividend     Dividend        `mapstructure:"dividend"`
	Telegram     Telegram        `mapstructure:"telegram"`
	Metrics      Metrics         `mapstructure:"metrics"`
}

// Load loads the executor configuration from the given path and fills in defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Executor.RedisStreamTaskExecutionTimeout == 0 {
		c.Executor.RedisStreamTaskExecutionTimeout = time.Hour
	}
	if c.YahooFinance.BaseURL == "" {
		c.YahooFinance.BaseURL = "https://query1.finance.yahoo.com"
	}
	if c.YahooFinance.MaxRequestPerMinute <= 0 {
		c.YahooFinance.MaxRequestPerMinute = 600
	}
	if c.YahooFinance.Timeout == 0 {
		c.YahooFinance.Timeout = 10 * time.Second
	}
	if c.YahooFinance.UserAgent == "" {
		c.YahooFinance.UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) Chrome/120.0.0.0 Safari/537.36"
	}
	if c.YahooFinance.MarketSuffix == "" {
		c.YahooFinance.MarketSuffix = ".SA"
	}
	if c.Dividend.HistoryYears <= 0 {
		c.Dividend.HistoryYears = 5
	}
	if c.Dividend.FutureYears <= 0 {
		c.Dividend.FutureYears = 1
	}
	if c.Dividend.HistoryLimit <= 0 {
		c.Dividend.HistoryLimit = 24
	}
	if c.Dividend.ChunkSize <= 0 {
		c.Dividend.ChunkSize = 100
	}
	if c.Dividend.MaxConcurrentPairs <= 0 {
		c.Dividend.MaxConcurrentPairs = 4
	}
	if c.Dividend.RunLockTTL == 0 {
		c.Dividend.RunLockTTL = 30 * time.Minute
	}
}

// Validate reports configuration that makes every run impossible.
func (c *Config) Validate() error {
	if c.Database.Host == "" || c.Database.DBName == "" {
		return fmt.Errorf("database.host and database.name are required")
	}
	if c.Redis.Host == "" {
		return fmt.Errorf("redis.host is required")
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == 0 {
		return fmt.Errorf("telegram.chat_id is required when telegram.bot_token is set")
	}
	return nil
}
