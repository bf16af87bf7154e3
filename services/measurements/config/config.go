package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config maps to the config.toml file for the measurements service
type Config struct {
	ListenAddress       string `toml:"ListenAddress"`
	DatabasePath        string `toml:"DatabasePath"`
	RetentionSeconds    int    `toml:"RetentionSeconds"`
	MetricsFile         string `toml:"MetricsFile"`
	WatchMetricsFile    bool   `toml:"WatchMetricsFile"`
	OrphanRetentionDays uint32 `toml:"OrphanRetentionDays"`
	CompareTotals       *bool  `toml:"CompareTotals"`
}

// OrphanRetention returns the configured orphan retention, zero meaning the default one
func (cfg Config) OrphanRetention() time.Duration {
	return time.Duration(cfg.OrphanRetentionDays) * 24 * time.Hour
}

// ShouldCompareTotals returns the equality policy, defaulting to comparing the totals
func (cfg Config) ShouldCompareTotals() bool {
	if cfg.CompareTotals == nil {
		return true
	}

	return *cfg.CompareTotals
}

// LoadConfig parses a TOML file into the Config struct
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", filepath, err)
	}

	var cfg Config
	err = toml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return &cfg, nil
}
