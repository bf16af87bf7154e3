package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config maps to the config.toml file for the collector service
type Config struct {
	Name                   string `toml:"Name"`
	QueryIntervalInSeconds uint32 `toml:"QueryIntervalInSeconds"`
	MetricsEndpoint        string `toml:"MetricsEndpoint"`
	ReportEndpoint         string `toml:"ReportEndpoint"`
	ReportTimeoutInSeconds uint32 `toml:"ReportTimeoutInSeconds"`
	FetchTimeoutInSeconds  uint32 `toml:"FetchTimeoutInSeconds"`
	CacheTTLInSeconds      uint32 `toml:"CacheTTLInSeconds"`
	MaxConcurrentFetches   int64  `toml:"MaxConcurrentFetches"`
	MaxConcurrentMetrics   int    `toml:"MaxConcurrentMetrics"`
	MaxResponseSizeInMB    uint32 `toml:"MaxResponseSizeInMB"`
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
