package factory

import (
	"fmt"
	"testing"

	"github.com/iulianpascalau/quality-collector/services/collector/config"
	"github.com/stretchr/testify/assert"
)

func createTestConfig() config.Config {
	return config.Config{
		Name:                   "vm1",
		QueryIntervalInSeconds: 1,
		MetricsEndpoint:        "http://127.0.0.1:1/api/metrics",
		ReportEndpoint:         "http://127.0.0.1:1/api/measurements",
		ReportTimeoutInSeconds: 1,
		FetchTimeoutInSeconds:  1,
		CacheTTLInSeconds:      1,
		MaxConcurrentFetches:   2,
		MaxConcurrentMetrics:   2,
	}
}

func TestNewComponentsHandler(t *testing.T) {
	t.Parallel()

	t.Run("empty metrics endpoint should error", func(t *testing.T) {
		cfg := createTestConfig()
		cfg.MetricsEndpoint = ""

		handler, err := NewComponentsHandler("service-key", cfg)
		assert.Nil(t, handler)
		assert.Error(t, err)
	})
	t.Run("should work", func(t *testing.T) {
		handler, err := NewComponentsHandler("service-key", createTestConfig())

		assert.NotNil(t, handler)
		assert.Nil(t, err)

		handler.Close()
	})
}

func TestComponentsHandlerMethods(t *testing.T) {
	t.Parallel()

	handler, _ := NewComponentsHandler("service-key", createTestConfig())

	handler.Start()
	handler.Start()

	registry := handler.GetRegistry()
	assert.Equal(t, "*sources.registry", fmt.Sprintf("%T", registry))
	_, found := registry.Get("json", "violations")
	assert.True(t, found)

	collector := handler.GetMetricCollector()
	assert.Equal(t, "*engine.metricCollector", fmt.Sprintf("%T", collector))

	provider := handler.GetMetricsProvider()
	assert.Equal(t, "*provider.httpMetricsProvider", fmt.Sprintf("%T", provider))

	reporter := handler.GetReporter()
	assert.Equal(t, "*reporter.httpReporter", fmt.Sprintf("%T", reporter))

	engine := handler.GetEngine()
	assert.Equal(t, "*engine.collectorEngine", fmt.Sprintf("%T", engine))

	handler.Close()
	handler.Close()
}
