package testsCommon

import "github.com/iulianpascalau/quality-collector/model"

// MetricProviderStub -
type MetricProviderStub struct {
	GetMetricHandler  func(uuid string) (model.Metric, bool)
	AllMetricsHandler func() []model.Metric
}

// NewMetricProviderStub creates a stub serving the provided metric definitions
func NewMetricProviderStub(metrics ...model.Metric) *MetricProviderStub {
	return &MetricProviderStub{
		GetMetricHandler: func(uuid string) (model.Metric, bool) {
			for _, metric := range metrics {
				if metric.UUID == uuid {
					return metric, true
				}
			}

			return model.Metric{}, false
		},
		AllMetricsHandler: func() []model.Metric {
			return metrics
		},
	}
}

// GetMetric -
func (stub *MetricProviderStub) GetMetric(uuid string) (model.Metric, bool) {
	if stub.GetMetricHandler != nil {
		return stub.GetMetricHandler(uuid)
	}

	return model.Metric{}, false
}

// AllMetrics -
func (stub *MetricProviderStub) AllMetrics() []model.Metric {
	if stub.AllMetricsHandler != nil {
		return stub.AllMetricsHandler()
	}

	return make([]model.Metric, 0)
}

// IsInterfaceNil -
func (stub *MetricProviderStub) IsInterfaceNil() bool {
	return stub == nil
}
