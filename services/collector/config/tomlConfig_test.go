package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testString = `
Name = "collector-1"
QueryIntervalInSeconds = 60
MetricsEndpoint = "https://measurements.example.org/api/metrics"
ReportEndpoint = "https://measurements.example.org/api/measurements"
ReportTimeoutInSeconds = 10
FetchTimeoutInSeconds = 30
CacheTTLInSeconds = 60
MaxConcurrentFetches = 16
MaxConcurrentMetrics = 4
MaxResponseSizeInMB = 64
`

var expectedCfg = Config{
	Name:                   "collector-1",
	QueryIntervalInSeconds: 60,
	MetricsEndpoint:        "https://measurements.example.org/api/metrics",
	ReportEndpoint:         "https://measurements.example.org/api/measurements",
	ReportTimeoutInSeconds: 10,
	FetchTimeoutInSeconds:  30,
	CacheTTLInSeconds:      60,
	MaxConcurrentFetches:   16,
	MaxConcurrentMetrics:   4,
	MaxResponseSizeInMB:    64,
}

func TestConfig(t *testing.T) {
	t.Parallel()

	cfg := Config{}

	err := toml.Unmarshal([]byte(testString), &cfg)
	assert.Nil(t, err)
	assert.Equal(t, expectedCfg, cfg)
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("missing file should error", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "failed to read config file")
	})
	t.Run("should work", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(path, []byte(testString), 0o600))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, expectedCfg, *cfg)
	})
}
