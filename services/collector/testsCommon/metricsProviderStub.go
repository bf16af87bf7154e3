package testsCommon

import (
	"context"

	"github.com/iulianpascalau/quality-collector/model"
)

// MetricsProviderStub -
type MetricsProviderStub struct {
	GetMetricsHandler func(ctx context.Context) ([]model.Metric, error)
}

// GetMetrics -
func (stub *MetricsProviderStub) GetMetrics(ctx context.Context) ([]model.Metric, error) {
	if stub.GetMetricsHandler != nil {
		return stub.GetMetricsHandler(ctx)
	}

	return make([]model.Metric, 0), nil
}

// IsInterfaceNil -
func (stub *MetricsProviderStub) IsInterfaceNil() bool {
	return stub == nil
}
