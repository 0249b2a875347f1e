package config

import (
	"fmt"
	"time"

	"golang-dividend-forecaster/pkg/config"
)

// Scheduler holds scheduler-specific configuration.
type Scheduler struct {
	PollingInterval time.Duration `mapstructure:"polling_interval"`
	DefaultTimeout  int           `mapstructure:"default_timeout"` // seconds, used when a job omits one
}

// Config holds the full configuration for the scheduler service.
type Config struct {
	App       config.App      `mapstructure:"app"`
	Logger    config.Logger   `mapstructure:"logger"`
	Database  config.Database `mapstructure:"database"`
	Redis     config.Redis    `mapstructure:"redis"`
	API       config.API      `mapstructure:"api"`
	Scheduler Scheduler       `mapstructure:"scheduler"`
}

// Load loads the scheduler configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	if cfg.Scheduler.PollingInterval <= 0 {
		cfg.Scheduler.PollingInterval = 30 * time.Second
	}
	if cfg.Scheduler.DefaultTimeout <= 0 {
		cfg.Scheduler.DefaultTimeout = 3600
	}
	if cfg.Database.Host == "" || cfg.Database.DBName == "" {
		return nil, fmt.Errorf("database host and name are required")
	}
	return &cfg, nil
}
