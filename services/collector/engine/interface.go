package engine

import (
	"context"

	"github.com/iulianpascalau/quality-collector/model"
	"github.com/iulianpascalau/quality-collector/services/collector/sources"
)

// MetricsProvider defines the interface for fetching the metric definitions to collect
type MetricsProvider interface {
	// GetMetrics returns the current metric definitions
	GetMetrics(ctx context.Context) ([]model.Metric, error)

	IsInterfaceNil() bool
}

// MetricCollector collects all the sources of a metric into one measurement
type MetricCollector interface {
	Collect(ctx context.Context, metric model.Metric) model.Measurement

	IsInterfaceNil() bool
}

// Reporter defines the interface for pushing measurements to the measurements service
type Reporter interface {
	// Report sends one measurement. Reporting failures are logged by the caller and the measurement is discarded.
	Report(ctx context.Context, measurement model.Measurement) error

	IsInterfaceNil() bool
}

// CollectorRegistry resolves the source collector for a source type and metric type pair
type CollectorRegistry interface {
	Get(sourceType string, metricType string) (sources.SourceCollector, bool)

	IsInterfaceNil() bool
}
